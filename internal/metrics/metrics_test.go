package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestServeRegistersMetrics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	addr, err := Serve(ctx, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Serve returned error: %v", err)
	}
	if addr == nil {
		t.Fatalf("Serve returned nil address")
	}

	PollCycles.WithLabelValues("success").Inc()

	resp, err := http.Get("http://" + addr.String() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if !strings.Contains(string(body), "tickerboard_poll_cycles_total") {
		t.Fatalf("/metrics body missing tickerboard_poll_cycles_total")
	}

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "tickerboard_poll_cycles_total" {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("tickerboard_poll_cycles_total metric not found")
	}
}

func TestServeDisabled(t *testing.T) {
	addr, err := Serve(context.Background(), "")
	if addr != nil || err != nil {
		t.Fatalf("Serve with empty addr = %v, %v; want nil, nil", addr, err)
	}
}

func TestServeReportsBindError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer func() { _ = ln.Close() }()

	addr, err := Serve(context.Background(), ln.Addr().String())
	if err == nil {
		t.Fatalf("Serve on a taken port = %v, want error", addr)
	}
	if !strings.Contains(err.Error(), "metrics listen") {
		t.Fatalf("error = %q, want metrics listen prefix", err)
	}
}

func TestGaugeValues(t *testing.T) {
	ActiveSignals.Set(4)
	if got := testutil.ToFloat64(ActiveSignals); got != 4 {
		t.Fatalf("active signals = %v, want 4", got)
	}
}
