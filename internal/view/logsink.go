package view

import (
	"github.com/rs/zerolog"

	"github.com/five82/tickerboard/internal/activity"
)

// LogSink renders to a structured logger. It backs headless mode, where no
// terminal is attached: activity entries become log lines and field updates
// are emitted at debug level.
type LogSink struct {
	logger zerolog.Logger
}

var _ Sink = LogSink{}

// NewLogSink wraps logger.
func NewLogSink(logger zerolog.Logger) LogSink {
	return LogSink{logger: logger.With().Str("component", "board").Logger()}
}

func (s LogSink) SetText(field FieldID, value string) {
	s.logger.Debug().Str("field", string(field)).Str("text", value).Msg("field updated")
}

func (s LogSink) SetClass(field FieldID, classes string) {
	s.logger.Debug().Str("field", string(field)).Str("class", classes).Msg("field restyled")
}

func (s LogSink) AppendLogEntry(entry activity.Entry) {
	var evt *zerolog.Event
	switch entry.Severity {
	case activity.Error:
		evt = s.logger.Error()
	case activity.Warning:
		evt = s.logger.Warn()
	default:
		evt = s.logger.Info()
	}
	evt.Time("at", entry.Timestamp).Str("severity", entry.Severity.String()).Msg(entry.Message)
}

func (s LogSink) ClearLog() {
	s.logger.Info().Msg("activity log cleared")
}

func (s LogSink) ShowSettingsPanel() {
	s.logger.Debug().Msg("settings panel shown")
}

func (s LogSink) HideSettingsPanel() {
	s.logger.Debug().Msg("settings panel hidden")
}
