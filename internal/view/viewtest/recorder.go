// Package viewtest provides an in-memory view.Sink for tests.
package viewtest

import (
	"sync"

	"github.com/five82/tickerboard/internal/activity"
	"github.com/five82/tickerboard/internal/view"
)

// Call kinds recorded by Recorder.
const (
	KindText  = "text"
	KindClass = "class"
	KindLog   = "log"
	KindClear = "clear"
	KindShow  = "show"
	KindHide  = "hide"
)

// Call is one recorded sink invocation.
type Call struct {
	Kind  string
	Field view.FieldID
	Value string
	Entry activity.Entry
}

// Recorder remembers every call and the latest text/class per field.
type Recorder struct {
	mu      sync.Mutex
	calls   []Call
	texts   map[view.FieldID]string
	classes map[view.FieldID]string
	log     []activity.Entry
	panel   bool
}

var _ view.Sink = (*Recorder)(nil)

func (r *Recorder) SetText(field view.FieldID, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.texts == nil {
		r.texts = make(map[view.FieldID]string)
	}
	r.texts[field] = value
	r.calls = append(r.calls, Call{Kind: KindText, Field: field, Value: value})
}

func (r *Recorder) SetClass(field view.FieldID, classes string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.classes == nil {
		r.classes = make(map[view.FieldID]string)
	}
	r.classes[field] = classes
	r.calls = append(r.calls, Call{Kind: KindClass, Field: field, Value: classes})
}

func (r *Recorder) AppendLogEntry(entry activity.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, entry)
	r.calls = append(r.calls, Call{Kind: KindLog, Value: entry.Message, Entry: entry})
}

func (r *Recorder) ClearLog() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = nil
	r.calls = append(r.calls, Call{Kind: KindClear})
}

func (r *Recorder) ShowSettingsPanel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panel = true
	r.calls = append(r.calls, Call{Kind: KindShow})
}

func (r *Recorder) HideSettingsPanel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panel = false
	r.calls = append(r.calls, Call{Kind: KindHide})
}

// Calls returns a copy of every recorded call in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	dup := make([]Call, len(r.calls))
	copy(dup, r.calls)
	return dup
}

// Reset forgets recorded calls but keeps the latest field state.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// Text returns the latest text for field.
func (r *Recorder) Text(field view.FieldID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.texts[field]
	return v, ok
}

// Class returns the latest classes for field.
func (r *Recorder) Class(field view.FieldID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.classes[field]
	return v, ok
}

// Log returns the log entries shown since the last ClearLog.
func (r *Recorder) Log() []activity.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	dup := make([]activity.Entry, len(r.log))
	copy(dup, r.log)
	return dup
}

// LogWith returns shown entries of the given severity.
func (r *Recorder) LogWith(sev activity.Severity) []activity.Entry {
	var out []activity.Entry
	for _, e := range r.Log() {
		if e.Severity == sev {
			out = append(out, e)
		}
	}
	return out
}

// PanelVisible reports whether the settings panel is shown.
func (r *Recorder) PanelVisible() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.panel
}
