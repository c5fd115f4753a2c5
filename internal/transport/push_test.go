package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type fakeServer struct {
	t        *testing.T
	server   *httptest.Server
	upgrader websocket.Upgrader

	mu       sync.Mutex
	commands []string
	conns    []*websocket.Conn
	frames   []string
}

func newFakeServer(t *testing.T, frames ...string) *fakeServer {
	t.Helper()
	fs := &fakeServer{t: t, frames: frames}
	fs.server = httptest.NewServer(http.HandlerFunc(fs.handle))
	t.Cleanup(fs.server.Close)
	return fs
}

func (fs *fakeServer) url() string {
	return "ws" + strings.TrimPrefix(fs.server.URL, "http") + "/ws"
}

func (fs *fakeServer) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := fs.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	fs.mu.Lock()
	fs.conns = append(fs.conns, conn)
	frames := fs.frames
	fs.mu.Unlock()

	for _, frame := range frames {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			return
		}
	}
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		fs.mu.Lock()
		fs.commands = append(fs.commands, string(msg))
		fs.mu.Unlock()
	}
}

func (fs *fakeServer) dropAll() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, c := range fs.conns {
		_ = c.Close()
	}
	fs.conns = nil
}

func (fs *fakeServer) Commands() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.commands...)
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
	notify chan struct{}
}

func newEventLog() *eventLog {
	return &eventLog{notify: make(chan struct{}, 64)}
}

func (l *eventLog) handle(ev Event) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
	select {
	case l.notify <- struct{}{}:
	default:
	}
}

func (l *eventLog) waitFor(t *testing.T, kind EventKind, n int) []Event {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		l.mu.Lock()
		var matched []Event
		for _, ev := range l.events {
			if ev.Kind == kind {
				matched = append(matched, ev)
			}
		}
		l.mu.Unlock()
		if len(matched) >= n {
			return matched
		}
		select {
		case <-l.notify:
		case <-deadline:
			t.Fatalf("timed out waiting for %d %s events, got %d", n, kind, len(matched))
		}
	}
}

func startPush(t *testing.T, url string, events *eventLog) (*Push, func()) {
	t.Helper()
	p := NewPush(PushOptions{URL: url, ReconnectDelay: 20 * time.Millisecond, Logger: zerolog.Nop()}, events.handle)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = p.Run(ctx)
	}()
	stop := func() {
		cancel()
		select {
		case <-done:
		case <-time.After(3 * time.Second):
			t.Fatalf("Run did not return after cancel")
		}
	}
	return p, stop
}

func TestPush_DeliversStatusAndMarketUpdates(t *testing.T) {
	fs := newFakeServer(t,
		`{"event": "status", "data": {"monitoring_active": true, "message": "monitoring started"}}`,
		`{"event": "market_update", "data": {"timestamp": "12:00:00", "primary": {"price": 65000.5, "change_percent": 1.23}}}`,
		`{"event": "heartbeat"}`,
		`not json`,
		`{"event": "market_update", "data": [1, 2]}`,
	)
	events := newEventLog()
	_, stop := startPush(t, fs.url(), events)
	defer stop()

	events.waitFor(t, EventConnect, 1)
	status := events.waitFor(t, EventStatus, 1)[0]
	if !status.Status.MonitoringActive || status.Status.Message != "monitoring started" {
		t.Fatalf("status = %+v, want active with message", status.Status)
	}
	updates := events.waitFor(t, EventMarketUpdate, 2)
	if updates[0].Err != nil || updates[0].Update.Primary == nil || *updates[0].Update.Primary.Price != 65000.5 {
		t.Fatalf("first update = %+v, want primary price 65000.5", updates[0])
	}
	if updates[1].Err == nil {
		t.Fatalf("second update err = nil, want payload shape error")
	}
}

func TestPush_SendSerializesCommands(t *testing.T) {
	fs := newFakeServer(t)
	events := newEventLog()
	p, stop := startPush(t, fs.url(), events)
	defer stop()

	events.waitFor(t, EventConnect, 1)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cmd := StartMonitoring
			if i%2 == 1 {
				cmd = StopMonitoring
			}
			if err := p.Send(cmd); err != nil {
				t.Errorf("Send returned error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	deadline := time.Now().Add(3 * time.Second)
	for len(fs.Commands()) < 10 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cmds := fs.Commands()
	if len(cmds) != 10 {
		t.Fatalf("server received %d commands, want 10", len(cmds))
	}
	for _, c := range cmds {
		if c != `{"event":"start_monitoring"}` && c != `{"event":"stop_monitoring"}` {
			t.Fatalf("unexpected command frame %q", c)
		}
	}
}

func TestPush_ReconnectsAfterDrop(t *testing.T) {
	fs := newFakeServer(t)
	events := newEventLog()
	_, stop := startPush(t, fs.url(), events)
	defer stop()

	events.waitFor(t, EventConnect, 1)
	fs.dropAll()

	disc := events.waitFor(t, EventDisconnect, 1)[0]
	var connErr *ConnectError
	if !errors.As(disc.Err, &connErr) {
		t.Fatalf("disconnect err = %v, want ConnectError", disc.Err)
	}
	events.waitFor(t, EventConnect, 2)
}

func TestPush_DialFailureBacksOff(t *testing.T) {
	events := newEventLog()
	_, stop := startPush(t, "ws://127.0.0.1:1/ws", events)
	defer stop()

	failed := events.waitFor(t, EventConnectFailed, 2)
	if failed[0].RetryIn != 20*time.Millisecond || failed[1].RetryIn != 40*time.Millisecond {
		t.Fatalf("retry delays = %v, %v, want 20ms, 40ms", failed[0].RetryIn, failed[1].RetryIn)
	}
}

func TestPush_SendWithoutConnection(t *testing.T) {
	p := NewPush(PushOptions{URL: "ws://127.0.0.1:1/ws", Logger: zerolog.Nop()}, nil)
	if err := p.Send(StartMonitoring); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Send error = %v, want ErrNotConnected", err)
	}
}

func TestPush_CloseEndsRunOnce(t *testing.T) {
	fs := newFakeServer(t)
	events := newEventLog()
	p := NewPush(PushOptions{URL: fs.url(), Logger: zerolog.Nop()}, events.handle)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = p.Run(context.Background())
	}()
	events.waitFor(t, EventConnect, 1)

	if err := p.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("Run did not return after Close")
	}
	if p.Connected() {
		t.Fatalf("Connected() = true after Close")
	}

	events.mu.Lock()
	defer events.mu.Unlock()
	for _, ev := range events.events {
		if ev.Kind == EventDisconnect {
			t.Fatalf("Close emitted a disconnect event")
		}
	}
}
