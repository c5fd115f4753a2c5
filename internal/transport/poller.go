package transport

import (
	"context"
	"sync"
	"time"
)

const defaultPollInterval = 3 * time.Second

// Poller runs a tick function immediately and then at a fixed cadence until
// stopped. It owns the only cancelable timer in the engine: repeated
// Start/Stop calls never leave more than one loop running.
type Poller struct {
	tick func(context.Context)

	mu       sync.Mutex
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewPoller builds a stopped poller. tick runs on the poller's goroutine and
// must return promptly once its context is canceled.
func NewPoller(interval time.Duration, tick func(context.Context)) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Poller{tick: tick, interval: interval}
}

// Start launches the loop under parent. It reports false when the poller was
// already running, in which case nothing changes.
func (p *Poller) Start(parent context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return false
	}
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	interval := p.interval

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			if p.tick != nil {
				p.tick(ctx)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return true
}

// Stop cancels the loop and waits for it to exit. It reports false when the
// poller was not running.
func (p *Poller) Stop() bool {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	<-done
	return true
}

// Running reports whether the loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// SetInterval changes the cadence. A running loop picks it up on its next
// Start.
func (p *Poller) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	p.interval = d
	p.mu.Unlock()
}

// Interval returns the configured cadence.
func (p *Poller) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}
