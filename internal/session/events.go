package session

import (
	"context"

	"github.com/five82/tickerboard/internal/activity"
	"github.com/five82/tickerboard/internal/metrics"
	"github.com/five82/tickerboard/internal/transport"
)

// HandlePushEvent posts a push channel event. It is the handler passed to
// transport.NewPush and blocks only while the inbox is full.
func (s *Session) HandlePushEvent(ev transport.Event) {
	s.post(context.Background(), func() { s.applyPushEvent(ev) })
}

func (s *Session) applyPushEvent(ev transport.Event) {
	switch ev.Kind {
	case transport.EventConnect:
		metrics.PushEvents.WithLabelValues(ev.Kind.String()).Inc()
		s.machine.Connect()
		s.append("connected to server", activity.Success)
	case transport.EventDisconnect:
		metrics.PushEvents.WithLabelValues(ev.Kind.String()).Inc()
		s.machine.Disconnect()
		if ev.Err != nil {
			s.appendf(activity.Error, "disconnected from server: %v", ev.Err)
		} else {
			s.append("disconnected from server", activity.Error)
		}
	case transport.EventConnectFailed:
		s.machine.Disconnect()
		s.appendf(activity.Error, "connection failed: %v (retrying in %s)", ev.Err, ev.RetryIn)
	case transport.EventStatus:
		s.machine.ApplyStatus(ev.Status.MonitoringActive)
		if ev.Status.Message != "" {
			s.append(ev.Status.Message, activity.Info)
		}
	case transport.EventMarketUpdate:
		if ev.Err != nil {
			s.appendf(activity.Warning, "market update dropped: %v", ev.Err)
			return
		}
		_ = s.rec.ApplyUpdate(ev.Update)
	}
}
