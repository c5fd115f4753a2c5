// Package session coordinates the engine. A single goroutine owns the state
// machine, reconciler, activity log and settings draft; transports, I/O
// goroutines and the UI only post messages to it.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/tickerboard/internal/activity"
	"github.com/five82/tickerboard/internal/metrics"
	"github.com/five82/tickerboard/internal/monitor"
	"github.com/five82/tickerboard/internal/reconcile"
	"github.com/five82/tickerboard/internal/remote"
	"github.com/five82/tickerboard/internal/settings"
	"github.com/five82/tickerboard/internal/state"
	"github.com/five82/tickerboard/internal/transport"
	"github.com/five82/tickerboard/internal/view"
)

const inboxSize = 64

// Pusher sends outbound push commands.
type Pusher interface {
	Send(cmd transport.Command) error
}

// Options configures New.
type Options struct {
	Sink         view.Sink
	Remote       remote.Fetcher
	Push         Pusher // nil runs in poll-only mode
	Logger       zerolog.Logger
	PollInterval time.Duration
	Notifier     reconcile.Notifier
	LogCapacity  int
}

// Session is the engine's coordinator.
type Session struct {
	sink     view.Sink
	remote   remote.Fetcher
	push     Pusher
	logger   zerolog.Logger
	log      *activity.Buffer
	machine  *monitor.Machine
	rec      *reconcile.Reconciler
	settings *settings.Store
	poller   *transport.Poller

	inbox   chan func()
	stopped chan struct{}
	runCtx  context.Context
	now     func() time.Time
}

// New wires a session. Nothing runs until Run.
func New(opts Options) *Session {
	sink := opts.Sink
	if sink == nil {
		sink = view.NewLogSink(opts.Logger)
	}
	capacity := opts.LogCapacity
	if capacity <= 0 {
		capacity = activity.DefaultCapacity
	}
	s := &Session{
		sink:     sink,
		remote:   opts.Remote,
		push:     opts.Push,
		logger:   opts.Logger.With().Str("component", "session").Logger(),
		log:      activity.NewBuffer(capacity),
		machine:  monitor.New(),
		settings: settings.NewStore(opts.Remote),
		inbox:    make(chan func(), inboxSize),
		stopped:  make(chan struct{}),
		runCtx:   context.Background(),
		now:      time.Now,
	}
	s.rec = reconcile.New(sink, &state.Store{}, s.append, opts.Notifier)
	s.poller = transport.NewPoller(opts.PollInterval, s.pollCycle)
	s.machine.Observe(s.onTransition)
	return s
}

// Run processes messages until ctx ends. The poll timer is stopped before it
// returns.
func (s *Session) Run(ctx context.Context) error {
	s.runCtx = ctx
	defer close(s.stopped)
	defer s.poller.Stop()

	s.renderStatus()
	s.append("system initialized", activity.Info)
	s.append("connecting to server...", activity.Info)
	if s.push == nil {
		s.machine.Connect()
	}
	s.loadSettings(false)

	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-s.inbox:
			fn()
		}
	}
}

// post queues fn for the session goroutine. It reports false once the
// session has stopped or ctx ends first.
func (s *Session) post(ctx context.Context, fn func()) bool {
	select {
	case s.inbox <- fn:
		return true
	case <-s.stopped:
		return false
	case <-ctx.Done():
		return false
	}
}

// query runs fn on the session goroutine and waits for it.
func (s *Session) query(fn func()) bool {
	done := make(chan struct{})
	if !s.post(context.Background(), func() { fn(); close(done) }) {
		return false
	}
	select {
	case <-done:
		return true
	case <-s.stopped:
		return false
	}
}

// Flags returns the monitoring flags as seen by the session goroutine.
func (s *Session) Flags() monitor.Flags {
	var flags monitor.Flags
	s.query(func() { flags = s.machine.Flags() })
	return flags
}

// Entries returns the activity log, oldest first.
func (s *Session) Entries() []activity.Entry {
	return s.log.Entries()
}

// Store returns the view model.
func (s *Session) Store() *state.Store {
	return s.rec.Store()
}

// Polling reports whether the poll timer is running.
func (s *Session) Polling() bool {
	return s.poller.Running()
}

// append records an entry, mirrors it to the diagnostics log and forwards it
// to the sink. Called only on the session goroutine.
func (s *Session) append(message string, sev activity.Severity) {
	entry := s.log.Append(message, sev)
	metrics.LogEntries.WithLabelValues(sev.String()).Inc()

	var evt *zerolog.Event
	switch sev {
	case activity.Error:
		evt = s.logger.Error()
	case activity.Warning:
		evt = s.logger.Warn()
	default:
		evt = s.logger.Info()
	}
	evt.Str("severity", sev.String()).Msg(message)
	s.sink.AppendLogEntry(entry)
}

func (s *Session) appendf(sev activity.Severity, format string, args ...any) {
	s.append(fmt.Sprintf(format, args...), sev)
}

func (s *Session) onTransition(t monitor.Transition) {
	s.logger.Debug().Stringer("from", t.From).Stringer("to", t.To).Msg("monitoring state changed")
	s.renderStatus()

	switch {
	case t.To == monitor.ConnectedMonitoring:
		metrics.Monitoring.Set(1)
		if s.poller.Start(s.runCtx) {
			s.appendf(activity.Info, "auto refresh started (every %s)", s.poller.Interval())
		}
	case t.From == monitor.ConnectedMonitoring:
		metrics.Monitoring.Set(0)
		if s.poller.Stop() {
			s.append("auto refresh stopped", activity.Info)
		}
	}
}

func (s *Session) renderStatus() {
	flags := s.machine.Flags()
	if flags.Connected {
		s.sink.SetText(view.ConnectionStatus, "Connected")
		s.sink.SetClass(view.ConnectionStatus, "status connected")
	} else {
		s.sink.SetText(view.ConnectionStatus, "Disconnected")
		s.sink.SetClass(view.ConnectionStatus, "status disconnected")
	}
	if flags.Monitoring {
		s.sink.SetText(view.MonitoringStatus, "Monitoring")
		s.sink.SetClass(view.MonitoringStatus, "status running")
	} else {
		s.sink.SetText(view.MonitoringStatus, "Stopped")
		s.sink.SetClass(view.MonitoringStatus, "status stopped")
	}
}
