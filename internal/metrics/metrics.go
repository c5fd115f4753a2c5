// Package metrics exposes prometheus counters for the sync engine and an
// optional /metrics listener.
package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PushEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tickerboard_push_events_total", Help: "Push channel events received"},
		[]string{"event"},
	)
	PushReconnects = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "tickerboard_push_reconnects_total", Help: "Push channel dial retries"},
	)
	PollCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tickerboard_poll_cycles_total", Help: "Poll cycles by outcome"},
		[]string{"outcome"},
	)
	FetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tickerboard_fetch_errors_total", Help: "Failed REST fetches"},
		[]string{"source"},
	)
	LogEntries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tickerboard_activity_entries_total", Help: "Activity log entries appended"},
		[]string{"severity"},
	)
	ActiveSignals = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "tickerboard_active_signals", Help: "Signals in the last signals update"},
	)
	Monitoring = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "tickerboard_monitoring", Help: "1 while monitoring is active"},
	)
)

func init() {
	prometheus.MustRegister(PushEvents, PushReconnects, PollCycles, FetchErrors, LogEntries, ActiveSignals, Monitoring)
}

// Serve binds addr, serves /metrics on it and shuts the listener down when ctx
// ends. It returns the bound address. An empty addr disables the listener and
// returns a nil address.
func Serve(ctx context.Context, addr string) (net.Addr, error) {
	if addr == "" {
		return nil, nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	return ln.Addr(), nil
}
