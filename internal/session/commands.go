package session

import (
	"context"
	"errors"
	"time"

	"github.com/five82/tickerboard/internal/activity"
	"github.com/five82/tickerboard/internal/monitor"
	"github.com/five82/tickerboard/internal/settings"
	"github.com/five82/tickerboard/internal/transport"
)

// StartMonitoring handles the user's start command.
func (s *Session) StartMonitoring() {
	s.post(context.Background(), s.startMonitoring)
}

// StopMonitoring handles the user's stop command.
func (s *Session) StopMonitoring() {
	s.post(context.Background(), s.stopMonitoring)
}

// Refresh fetches the combined update once. Requires a connection.
func (s *Session) Refresh() {
	s.post(context.Background(), s.refresh)
}

// ClearLog empties the activity log.
func (s *Session) ClearLog() {
	s.post(context.Background(), func() {
		entry := s.log.Clear()
		s.sink.ClearLog()
		s.sink.AppendLogEntry(entry)
	})
}

// OpenSettings shows the panel with the current draft and reloads the
// server copy.
func (s *Session) OpenSettings() {
	s.post(context.Background(), func() {
		s.append("opening strategy settings", activity.Info)
		settings.Render(s.sink, s.settings.Draft())
		s.sink.ShowSettingsPanel()
		s.loadSettings(true)
	})
}

// CancelSettings discards the draft and hides the panel.
func (s *Session) CancelSettings() {
	s.post(context.Background(), func() {
		settings.Render(s.sink, s.settings.Cancel())
		s.sink.HideSettingsPanel()
	})
}

// ResetSettings replaces the draft with the built-in defaults. Nothing is
// sent until SaveSettings.
func (s *Session) ResetSettings() {
	s.post(context.Background(), func() {
		settings.Render(s.sink, s.settings.ResetToDefaults())
		s.append("defaults restored (not saved)", activity.Info)
	})
}

// SaveSettings submits draft.
func (s *Session) SaveSettings(draft settings.Settings) {
	s.post(context.Background(), func() { s.saveSettings(draft) })
}

func (s *Session) startMonitoring() {
	if err := s.machine.RequestStart(); err != nil {
		s.commandRejected("start", err)
		return
	}
	if s.push == nil {
		s.machine.ConfirmStart()
		s.append("monitoring started", activity.Success)
		return
	}
	if err := s.push.Send(transport.StartMonitoring); err != nil {
		s.appendf(activity.Error, "failed to send start command: %v", err)
		return
	}
	s.append("starting monitoring...", activity.Info)
}

func (s *Session) stopMonitoring() {
	if err := s.machine.RequestStop(); err != nil {
		s.commandRejected("stop", err)
		return
	}
	if s.push == nil {
		s.machine.ConfirmStop()
		s.append("monitoring stopped", activity.Warning)
		return
	}
	if err := s.push.Send(transport.StopMonitoring); err != nil {
		s.appendf(activity.Error, "failed to send stop command: %v", err)
		return
	}
	s.append("stopping monitoring...", activity.Info)
}

func (s *Session) commandRejected(cmd string, err error) {
	if errors.Is(err, monitor.ErrNotConnected) {
		s.appendf(activity.Error, "cannot %s monitoring: %v", cmd, err)
		return
	}
	s.appendf(activity.Warning, "cannot %s monitoring: %v", cmd, err)
}

func (s *Session) refresh() {
	if !s.machine.Flags().Connected {
		s.appendf(activity.Error, "cannot refresh: %v", monitor.ErrNotConnected)
		return
	}
	if s.remote == nil {
		return
	}
	ctx := s.runCtx
	go func() {
		update, err := s.remote.FetchUpdate(ctx)
		s.post(ctx, func() {
			if err != nil {
				s.appendf(activity.Error, "data refresh failed: %v", err)
				return
			}
			_ = s.rec.ApplyUpdate(update)
			s.append("data refreshed", activity.Info)
		})
	}()
}

func (s *Session) loadSettings(render bool) {
	if s.remote == nil {
		return
	}
	ctx := s.runCtx
	go func() {
		loaded, err := s.settings.Load(ctx)
		s.post(ctx, func() {
			if err != nil {
				s.appendf(activity.Error, "failed to load settings: %v", err)
				return
			}
			s.applyInterval(loaded.UpdateIntervalSeconds)
			if render {
				settings.Render(s.sink, loaded)
			}
		})
	}()
}

func (s *Session) saveSettings(draft settings.Settings) {
	previous, _ := s.settings.Remote()
	ctx := s.runCtx
	go func() {
		err := s.settings.Save(ctx, draft)
		s.post(ctx, func() {
			if err != nil {
				reason := err.Error()
				var saveErr *settings.SaveError
				if errors.As(err, &saveErr) && saveErr.Reason != "" {
					reason = saveErr.Reason
				}
				s.appendf(activity.Error, "failed to save settings: %s", reason)
				return
			}
			s.append("settings saved", activity.Success)
			s.sink.HideSettingsPanel()
			if draft.UpdateIntervalSeconds != previous.UpdateIntervalSeconds {
				s.applyInterval(draft.UpdateIntervalSeconds)
				s.appendf(activity.Info, "poll interval updated to %ds", draft.UpdateIntervalSeconds)
			}
		})
	}()
}

// applyInterval sets the poll cadence, restarting a running timer so the new
// cadence takes effect.
func (s *Session) applyInterval(seconds int) {
	d := time.Duration(seconds) * time.Second
	if d <= 0 || d == s.poller.Interval() {
		return
	}
	s.poller.SetInterval(d)
	if s.poller.Stop() {
		s.poller.Start(s.runCtx)
	}
}
