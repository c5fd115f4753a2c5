package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tickerboard/internal/activity"
	"github.com/five82/tickerboard/internal/reconcile"
	"github.com/five82/tickerboard/internal/view"
)

// sender is satisfied by *tea.Program.
type sender interface {
	Send(msg tea.Msg)
}

// ProgramSink forwards board updates to a running Bubble Tea program as
// messages. Updates issued before a program is attached are dropped.
type ProgramSink struct {
	mu  sync.RWMutex
	out sender
}

var (
	_ view.Sink          = (*ProgramSink)(nil)
	_ reconcile.Notifier = (*ProgramSink)(nil)
)

// NewSink returns an unattached sink.
func NewSink() *ProgramSink {
	return &ProgramSink{}
}

func (s *ProgramSink) attach(out sender) {
	s.mu.Lock()
	s.out = out
	s.mu.Unlock()
}

func (s *ProgramSink) send(msg tea.Msg) {
	s.mu.RLock()
	out := s.out
	s.mu.RUnlock()
	if out != nil {
		out.Send(msg)
	}
}

func (s *ProgramSink) SetText(field view.FieldID, value string) {
	s.send(fieldTextMsg{field: field, value: value})
}

func (s *ProgramSink) SetClass(field view.FieldID, classes string) {
	s.send(fieldClassMsg{field: field, classes: classes})
}

func (s *ProgramSink) AppendLogEntry(entry activity.Entry) {
	s.send(logEntryMsg(entry))
}

func (s *ProgramSink) ClearLog() {
	s.send(logClearMsg{})
}

func (s *ProgramSink) ShowSettingsPanel() {
	s.send(panelMsg{visible: true})
}

func (s *ProgramSink) HideSettingsPanel() {
	s.send(panelMsg{visible: false})
}

// Notify raises the new-signal banner.
func (s *ProgramSink) Notify(total int) {
	s.send(notifyMsg{total: total})
}

// Messages

type fieldTextMsg struct {
	field view.FieldID
	value string
}

type fieldClassMsg struct {
	field   view.FieldID
	classes string
}

type logEntryMsg activity.Entry

type logClearMsg struct{}

type panelMsg struct {
	visible bool
}

type notifyMsg struct {
	total int
}

type bannerExpiredMsg struct {
	seq int
}
