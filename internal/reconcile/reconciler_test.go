package reconcile

import (
	"errors"
	"reflect"
	"testing"

	"github.com/five82/tickerboard/internal/activity"
	"github.com/five82/tickerboard/internal/market"
	"github.com/five82/tickerboard/internal/state"
	"github.com/five82/tickerboard/internal/view"
	"github.com/five82/tickerboard/internal/view/viewtest"
)

func f(v float64) *float64 { return &v }

type harness struct {
	sink     *viewtest.Recorder
	rec      *Reconciler
	log      *activity.Buffer
	notified []int
}

func newHarness() *harness {
	h := &harness{sink: &viewtest.Recorder{}, log: activity.NewBuffer(activity.DefaultCapacity)}
	h.rec = New(h.sink, &state.Store{},
		func(msg string, sev activity.Severity) { h.log.Append(msg, sev) },
		NotifierFunc(func(total int) { h.notified = append(h.notified, total) }))
	return h
}

func (h *harness) entries(sev activity.Severity) []activity.Entry {
	var out []activity.Entry
	for _, e := range h.log.Entries() {
		if e.Severity == sev {
			out = append(out, e)
		}
	}
	return out
}

func TestApplyUpdate_PrimaryPriceAndChange(t *testing.T) {
	h := newHarness()
	update, err := market.DecodeUpdate([]byte(`{"primary": {"price": 65000.5, "change_percent": 1.23}}`))
	if err != nil {
		t.Fatalf("DecodeUpdate returned error: %v", err)
	}
	if err := h.rec.ApplyUpdate(update); err != nil {
		t.Fatalf("ApplyUpdate returned error: %v", err)
	}

	want := []viewtest.Call{
		{Kind: viewtest.KindText, Field: "primary-price", Value: "65,000.50"},
		{Kind: viewtest.KindText, Field: "primary-change", Value: "+1.23%"},
		{Kind: viewtest.KindClass, Field: "primary-change", Value: "positive"},
	}
	if got := h.sink.Calls(); !reflect.DeepEqual(got, want) {
		t.Fatalf("sink calls = %+v, want %+v", got, want)
	}
	infos := h.entries(activity.Info)
	if len(infos) != 1 || infos[0].Message != "data update - primary: 65,000.50, secondary: n/a" {
		t.Fatalf("info entries = %+v, want one summary", infos)
	}
}

func signals(n int) market.SignalSet {
	set := market.SignalSet{Count: n}
	for i := 0; i < n; i++ {
		set.List = append(set.List, market.Signal{ID: i + 1, Type: market.Buy})
	}
	return set
}

func TestApplySignals_BaselineThenIncrease(t *testing.T) {
	h := newHarness()

	h.rec.ApplySignals(signals(2))
	if got := h.entries(activity.Success); len(got) != 0 {
		t.Fatalf("success entries after baseline = %+v, want none", got)
	}

	h.rec.ApplySignals(signals(5))
	got := h.entries(activity.Success)
	if len(got) != 1 {
		t.Fatalf("success entries = %d, want 1", len(got))
	}
	if got[0].Message != "new trade signal detected: 5 active" {
		t.Fatalf("success message = %q, want count 5", got[0].Message)
	}
	if !reflect.DeepEqual(h.notified, []int{5}) {
		t.Fatalf("notifications = %v, want [5]", h.notified)
	}
	if text, _ := h.sink.Text(view.SignalCount); text != "5" {
		t.Fatalf("signal count = %q, want 5", text)
	}
}

func TestApplySignals_DecreaseReplacesSilently(t *testing.T) {
	h := newHarness()
	h.rec.ApplySignals(signals(3))
	h.rec.ApplySignals(signals(1))
	h.rec.ApplySignals(signals(2))

	if got := h.entries(activity.Success); len(got) != 1 {
		t.Fatalf("success entries = %d, want 1 (for 1 -> 2 only)", len(got))
	}
	stored, _ := h.rec.Store().Signals()
	if len(stored.List) != 2 {
		t.Fatalf("stored list = %d, want 2", len(stored.List))
	}
	if text, _ := h.sink.Text(view.SignalList); text != "BUY #1, BUY #2" {
		t.Fatalf("signal list = %q", text)
	}
}

func TestApplySnapshot_Idempotent(t *testing.T) {
	h := newHarness()
	snap, err := market.DecodeSnapshot(market.Secondary, []byte(`{
		"price": 0.2663, "change": -0.4, "amplitude_24h": 3.4567, "growth_24h": 1.2,
		"valid": true,
		"indicators": {
			"1h": {"boll": {"UP": 0.28, "MB": 0.27, "DN": 0.26}, "kdj": {"K": 15, "D": 50, "J": 85}},
			"15m": {"kdj": {"K": 20.001, "D": 79.999, "J": 80}},
			"4h": {"kdj": {"K": 1, "D": 1, "J": 1}}
		}
	}`))
	if err != nil {
		t.Fatalf("DecodeSnapshot returned error: %v", err)
	}

	if err := h.rec.ApplySnapshot(market.Secondary, snap); err != nil {
		t.Fatalf("ApplySnapshot returned error: %v", err)
	}
	first := h.sink.Calls()
	h.sink.Reset()
	if err := h.rec.ApplySnapshot(market.Secondary, snap); err != nil {
		t.Fatalf("ApplySnapshot returned error: %v", err)
	}
	second := h.sink.Calls()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("second apply calls differ:\nfirst  %+v\nsecond %+v", first, second)
	}

	checks := map[view.FieldID]string{
		"secondary-price":            "0.266300",
		"secondary-change":           "-0.40%",
		"secondary-volatility":       "3.457%",
		"secondary-growth":           "+1.200%",
		"secondary-condition-status": "Satisfied",
		"secondary-boll-1h-upper":    "$0.280000",
		"secondary-kdj-1h-k":         "15.00",
	}
	for field, want := range checks {
		if got, _ := h.sink.Text(field); got != want {
			t.Errorf("%s = %q, want %q", field, got, want)
		}
	}
	classes := map[view.FieldID]string{
		"secondary-change":           "negative",
		"secondary-kdj-1h-k":         "indicator-value oversold",
		"secondary-kdj-1h-d":         "indicator-value neutral",
		"secondary-kdj-1h-j":         "indicator-value overbought",
		"secondary-kdj-15m-k":        "indicator-value neutral",
		"secondary-kdj-15m-d":        "indicator-value neutral",
		"secondary-kdj-15m-j":        "indicator-value overbought",
		"secondary-condition-status": "condition-status satisfied",
	}
	for field, want := range classes {
		if got, _ := h.sink.Class(field); got != want {
			t.Errorf("%s class = %q, want %q", field, got, want)
		}
	}
	for _, c := range second {
		if c.Field == "secondary-kdj-4h-k" {
			t.Fatalf("4h indicator rendered for secondary instrument")
		}
	}
}

func TestApplySnapshot_PartialKeepsOtherFields(t *testing.T) {
	h := newHarness()
	_ = h.rec.ApplySnapshot(market.Primary, market.Snapshot{Price: f(65000), ChangePercent: f(1)})
	h.sink.Reset()
	_ = h.rec.ApplySnapshot(market.Primary, market.Snapshot{Price: f(64000)})

	calls := h.sink.Calls()
	if len(calls) != 1 || calls[0].Field != "primary-price" {
		t.Fatalf("calls = %+v, want only the price", calls)
	}
	if text, _ := h.sink.Text("primary-change"); text != "+1.00%" {
		t.Fatalf("change = %q, want previous value kept", text)
	}
	v := h.rec.Store().View(market.Primary)
	if *v.Snapshot.Price != 64000 || *v.Snapshot.ChangePercent != 1 {
		t.Fatalf("view = %+v, want merged", v.Snapshot)
	}
}

func TestApplySnapshot_NothingApplicable(t *testing.T) {
	h := newHarness()
	snap, _ := market.DecodeSnapshot(market.Primary, []byte(`{"price": "abc", "indicators": {"1m": {"kdj": {"K": 5}}}}`))

	err := h.rec.ApplySnapshot(market.Primary, snap)
	var shapeErr *market.PayloadShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("ApplySnapshot error = %v, want PayloadShapeError", err)
	}
	if len(h.sink.Calls()) != 0 {
		t.Fatalf("sink calls = %+v, want none", h.sink.Calls())
	}
	if got := h.entries(activity.Warning); len(got) != 1 {
		t.Fatalf("warning entries = %d, want 1", len(got))
	}
}

func TestApplyUpdate_TimestampAndSignals(t *testing.T) {
	h := newHarness()
	update, err := market.DecodeUpdate([]byte(`{
		"timestamp": "2024-05-01 12:00:00",
		"secondary": {"price": 0.25},
		"signals": {"count": 1, "list": [{"signal_id": 9, "type": "sell"}]}
	}`))
	if err != nil {
		t.Fatalf("DecodeUpdate returned error: %v", err)
	}
	_ = h.rec.ApplyUpdate(update)

	if text, _ := h.sink.Text(view.LastUpdate); text != "2024-05-01 12:00:00" {
		t.Fatalf("last update = %q", text)
	}
	if text, _ := h.sink.Text(view.SignalList); text != "SELL #9" {
		t.Fatalf("signal list = %q, want SELL #9", text)
	}
	if h.rec.Store().LastUpdate() != "2024-05-01 12:00:00" {
		t.Fatalf("store last update = %q", h.rec.Store().LastUpdate())
	}
}

func TestApplyUpdate_Empty(t *testing.T) {
	h := newHarness()
	err := h.rec.ApplyUpdate(market.Update{})
	var shapeErr *market.PayloadShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("ApplyUpdate error = %v, want PayloadShapeError", err)
	}
}
