package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/five82/tickerboard/internal/market"
	"github.com/five82/tickerboard/internal/metrics"
)

const (
	writeWait        = 2 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	handshakeTimeout = 10 * time.Second
	maxMessageSize   = 1 << 20

	defaultReconnectDelay = 3 * time.Second
)

// EventKind identifies a push channel event.
type EventKind int

const (
	EventConnect EventKind = iota
	EventDisconnect
	EventConnectFailed
	EventStatus
	EventMarketUpdate
)

func (k EventKind) String() string {
	switch k {
	case EventConnect:
		return "connect"
	case EventDisconnect:
		return "disconnect"
	case EventConnectFailed:
		return "connect_failed"
	case EventStatus:
		return "status"
	case EventMarketUpdate:
		return "market_update"
	default:
		return "unknown"
	}
}

// Event is delivered to the push handler. Err is a *ConnectError for
// disconnect and connect_failed, and a *market.PayloadShapeError for a
// market_update frame that could not be decoded at all.
type Event struct {
	Kind    EventKind
	Status  market.Status
	Update  market.Update
	Err     error
	RetryIn time.Duration
}

// Command is an outbound push command.
type Command string

const (
	StartMonitoring Command = "start_monitoring"
	StopMonitoring  Command = "stop_monitoring"
)

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// PushOptions configures NewPush.
type PushOptions struct {
	URL            string
	ReconnectDelay time.Duration
	Logger         zerolog.Logger
}

// Push is the long-lived push subscription. Run holds it open, reconnecting
// with backoff, until its context ends or Close is called.
type Push struct {
	url     string
	delay   time.Duration
	dialer  websocket.Dialer
	handler func(Event)
	logger  zerolog.Logger

	mu   sync.Mutex // guards conn and serializes writes
	conn *websocket.Conn

	closeOnce sync.Once
	closed    chan struct{}
}

// NewPush builds a push client. handler is called from Run's goroutine, one
// event at a time.
func NewPush(opts PushOptions, handler func(Event)) *Push {
	delay := opts.ReconnectDelay
	if delay <= 0 {
		delay = defaultReconnectDelay
	}
	return &Push{
		url:     opts.URL,
		delay:   delay,
		dialer:  websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		handler: handler,
		logger:  opts.Logger.With().Str("component", "push").Logger(),
		closed:  make(chan struct{}),
	}
}

// URL returns the push endpoint.
func (p *Push) URL() string {
	return p.url
}

// Run connects and reads frames until ctx ends or Close is called. It always
// returns nil after tearing the connection down.
func (p *Push) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer func() { _ = p.Close() }()
	go func() {
		select {
		case <-p.closed:
			cancel()
		case <-ctx.Done():
		}
	}()

	failures := 0
	for {
		if ctx.Err() != nil {
			return nil
		}
		conn, _, err := p.dialer.DialContext(ctx, p.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			wait := calculateBackoff(failures, p.delay)
			failures++
			metrics.PushReconnects.Inc()
			p.logger.Warn().Err(err).Dur("retry_in", wait).Msg("push dial failed")
			p.emit(Event{Kind: EventConnectFailed, Err: &ConnectError{URL: p.url, Err: err}, RetryIn: wait})
			if !sleep(ctx, wait) {
				return nil
			}
			continue
		}

		failures = 0
		if !p.setConn(conn) {
			_ = conn.Close()
			return nil
		}
		p.logger.Info().Str("url", p.url).Msg("push channel connected")
		p.emit(Event{Kind: EventConnect})

		err = p.readLoop(ctx, conn)
		p.clearConn(conn)
		if ctx.Err() != nil || p.isClosed() {
			return nil
		}
		p.logger.Warn().Err(err).Msg("push channel dropped")
		p.emit(Event{Kind: EventDisconnect, Err: &ConnectError{URL: p.url, Err: err}, RetryIn: p.delay})
		if !sleep(ctx, p.delay) {
			return nil
		}
	}
}

// Send writes a command frame. Writes are serialized.
func (p *Push) Send(cmd Command) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return ErrNotConnected
	}
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteJSON(envelope{Event: string(cmd)})
}

// Connected reports whether a connection is currently open.
func (p *Push) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn != nil
}

// Close tears the subscription down. Only the first call has any effect.
func (p *Push) Close() error {
	p.closeOnce.Do(func() {
		close(p.closed)
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.conn != nil {
			_ = p.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			_ = p.conn.Close()
			p.conn = nil
		}
	})
	return nil
}

func (p *Push) isClosed() bool {
	select {
	case <-p.closed:
		return true
	default:
		return false
	}
}

func (p *Push) setConn(conn *websocket.Conn) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isClosed() {
		return false
	}
	p.conn = conn
	return true
}

func (p *Push) clearConn(conn *websocket.Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == conn {
		p.conn = nil
	}
	_ = conn.Close()
}

func (p *Push) readLoop(ctx context.Context, conn *websocket.Conn) error {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-stop:
				return
			}
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		p.handleFrame(message)
	}
}

func (p *Push) handleFrame(message []byte) {
	var env envelope
	if err := json.Unmarshal(message, &env); err != nil {
		p.logger.Warn().Err(err).Msg("undecodable push frame")
		return
	}
	switch env.Event {
	case "status":
		var status market.Status
		if err := json.Unmarshal(env.Data, &status); err != nil {
			p.logger.Warn().Err(err).Msg("undecodable status frame")
			return
		}
		metrics.PushEvents.WithLabelValues(env.Event).Inc()
		p.emit(Event{Kind: EventStatus, Status: status})
	case "market_update":
		metrics.PushEvents.WithLabelValues(env.Event).Inc()
		update, err := market.DecodeUpdate(env.Data)
		if err != nil {
			p.emit(Event{Kind: EventMarketUpdate, Err: err})
			return
		}
		p.emit(Event{Kind: EventMarketUpdate, Update: update})
	default:
		p.logger.Debug().Str("event", env.Event).Msg("ignoring push event")
	}
}

func (p *Push) emit(ev Event) {
	if p.handler != nil {
		p.handler(ev)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
