// Package reconcile merges snapshots and signal lists from either transport
// into the view model and renders display-ready values to the sink.
package reconcile

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/five82/tickerboard/internal/activity"
	"github.com/five82/tickerboard/internal/market"
	"github.com/five82/tickerboard/internal/metrics"
	"github.com/five82/tickerboard/internal/state"
	"github.com/five82/tickerboard/internal/view"
)

// LogFunc appends an activity entry.
type LogFunc func(message string, sev activity.Severity)

// Notifier receives the new-signal side channel. total is the signal count
// after the increase.
type Notifier interface {
	Notify(total int)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(total int)

func (f NotifierFunc) Notify(total int) { f(total) }

// Reconciler is the single merge point for both transports. It is not safe
// for concurrent use; the session goroutine owns it.
type Reconciler struct {
	sink     view.Sink
	store    *state.Store
	log      LogFunc
	notifier Notifier
}

// New builds a reconciler. store, log and notifier may be nil.
func New(sink view.Sink, store *state.Store, log LogFunc, notifier Notifier) *Reconciler {
	if store == nil {
		store = &state.Store{}
	}
	if log == nil {
		log = func(string, activity.Severity) {}
	}
	return &Reconciler{sink: sink, store: store, log: log, notifier: notifier}
}

// Store returns the view model.
func (r *Reconciler) Store() *state.Store {
	return r.store
}

// ApplySnapshot merges one instrument's payload and renders every field it
// carries. A payload with nothing applicable is reported as a Warning and
// returned as a *market.PayloadShapeError; the view is left untouched.
func (r *Reconciler) ApplySnapshot(inst market.Instrument, snap market.Snapshot) error {
	snap = applicable(inst, snap)
	if !snap.HasData() {
		err := &market.PayloadShapeError{Source: inst.String(), Fields: snap.Malformed}
		if snap.Error != "" {
			err.Err = errors.New(snap.Error)
		}
		r.log(err.Error(), activity.Warning)
		return err
	}
	r.store.Merge(inst, snap)
	r.render(inst, snap)
	return nil
}

// ApplyUpdate applies a combined update: timestamp, each instrument present,
// then signals. It finishes with a one-line price summary.
func (r *Reconciler) ApplyUpdate(update market.Update) error {
	if update.Timestamp == "" && update.Primary == nil && update.Secondary == nil && update.Signals == nil {
		err := &market.PayloadShapeError{Source: "market update", Fields: update.Malformed}
		r.log(err.Error(), activity.Warning)
		return err
	}
	for _, section := range update.Malformed {
		r.log(fmt.Sprintf("skipped malformed %s section in market update", section), activity.Warning)
	}

	if update.Timestamp != "" {
		r.store.SetLastUpdate(update.Timestamp)
		r.sink.SetText(view.LastUpdate, update.Timestamp)
	}
	for _, inst := range market.Instruments() {
		if snap := update.Snapshot(inst); snap != nil {
			_ = r.ApplySnapshot(inst, *snap)
		}
	}
	if update.Signals != nil {
		r.ApplySignals(*update.Signals)
	}
	r.log(summary(update), activity.Info)
	return nil
}

// ApplySignals renders the signal set and detects newly raised signals. The
// first set seen is a silent baseline; afterwards a longer list appends a
// Success entry and notifies. The stored list is always replaced.
func (r *Reconciler) ApplySignals(set market.SignalSet) {
	prev, hadPrev := r.store.ReplaceSignals(set)
	total := set.Total()
	metrics.ActiveSignals.Set(float64(total))

	r.sink.SetText(view.SignalCount, strconv.Itoa(total))
	r.sink.SetText(view.SignalList, FormatSignals(set))

	if hadPrev && len(set.List) > len(prev.List) {
		r.log(fmt.Sprintf("new trade signal detected: %d active", total), activity.Success)
		if r.notifier != nil {
			r.notifier.Notify(total)
		}
	}
}

func (r *Reconciler) render(inst market.Instrument, snap market.Snapshot) {
	if snap.Price != nil {
		r.sink.SetText(view.Price(inst), FormatPrice(inst, *snap.Price))
	}
	if snap.ChangePercent != nil {
		text, class := FormatChange(*snap.ChangePercent)
		r.sink.SetText(view.Change(inst), text)
		r.sink.SetClass(view.Change(inst), class)
	}
	if snap.Amplitude24h != nil {
		r.sink.SetText(view.Volatility(inst), FormatAmplitude(*snap.Amplitude24h))
	}
	if snap.Growth24h != nil {
		r.sink.SetText(view.Growth(inst), FormatGrowth(*snap.Growth24h))
	}
	if snap.ConditionsSatisfied != nil {
		text, classes := FormatCondition(*snap.ConditionsSatisfied)
		r.sink.SetText(view.Condition(inst), text)
		r.sink.SetClass(view.Condition(inst), classes)
	}

	for _, tf := range inst.Timeframes() {
		set, ok := snap.Indicators[tf]
		if !ok {
			continue
		}
		if b := set.Band; b != nil {
			r.renderBand(inst, tf, view.BandUpper, b.Upper)
			r.renderBand(inst, tf, view.BandMiddle, b.Middle)
			r.renderBand(inst, tf, view.BandLower, b.Lower)
		}
		if o := set.Oscillator; o != nil {
			r.renderOscillator(inst, tf, view.OscK, o.K)
			r.renderOscillator(inst, tf, view.OscD, o.D)
			r.renderOscillator(inst, tf, view.OscJ, o.J)
		}
	}
}

func (r *Reconciler) renderBand(inst market.Instrument, tf market.Timeframe, c view.BandComponent, v *float64) {
	if v == nil {
		return
	}
	r.sink.SetText(view.Band(inst, tf, c), FormatBand(inst, *v))
}

func (r *Reconciler) renderOscillator(inst market.Instrument, tf market.Timeframe, c view.OscillatorComponent, v *float64) {
	if v == nil {
		return
	}
	text, classes := FormatOscillator(*v)
	field := view.Oscillator(inst, tf, c)
	r.sink.SetText(field, text)
	r.sink.SetClass(field, classes)
}

// applicable drops indicator timeframes the instrument does not track.
func applicable(inst market.Instrument, snap market.Snapshot) market.Snapshot {
	if len(snap.Indicators) == 0 {
		return snap
	}
	kept := make(map[market.Timeframe]market.IndicatorSet, len(snap.Indicators))
	for tf, set := range snap.Indicators {
		if inst.HasTimeframe(tf) && (set.Band != nil || set.Oscillator != nil) {
			kept[tf] = set
		}
	}
	if len(kept) == 0 {
		kept = nil
	}
	snap.Indicators = kept
	return snap
}

func summary(update market.Update) string {
	price := func(inst market.Instrument) string {
		if snap := update.Snapshot(inst); snap != nil && snap.Price != nil {
			return FormatPrice(inst, *snap.Price)
		}
		return "n/a"
	}
	return fmt.Sprintf("data update - %s: %s, %s: %s",
		market.Primary, price(market.Primary), market.Secondary, price(market.Secondary))
}
