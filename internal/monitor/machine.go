// Package monitor tracks whether the push channel is connected and whether
// active monitoring is on.
package monitor

import "errors"

// State is one of the three reachable machine states.
type State int

const (
	Disconnected State = iota
	ConnectedIdle
	ConnectedMonitoring
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case ConnectedIdle:
		return "connected-idle"
	case ConnectedMonitoring:
		return "connected-monitoring"
	default:
		return "unknown"
	}
}

// Flags is the two-flag view of a state. Monitoring implies Connected.
type Flags struct {
	Connected  bool
	Monitoring bool
}

// Flags returns the flag pair for s.
func (s State) Flags() Flags {
	return Flags{
		Connected:  s != Disconnected,
		Monitoring: s == ConnectedMonitoring,
	}
}

// Command rejections.
var (
	ErrNotConnected      = errors.New("not connected to server")
	ErrAlreadyMonitoring = errors.New("monitoring already active")
	ErrNotMonitoring     = errors.New("monitoring is not active")
)

// Transition describes a state change. Observers only see real changes.
type Transition struct {
	From State
	To   State
}

// Machine is owned by a single goroutine and is not safe for concurrent use.
type Machine struct {
	state     State
	observers []func(Transition)
}

// New returns a machine in Disconnected.
func New() *Machine {
	return &Machine{state: Disconnected}
}

// Observe registers fn for every subsequent transition.
func (m *Machine) Observe(fn func(Transition)) {
	if fn != nil {
		m.observers = append(m.observers, fn)
	}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Flags returns the current flag pair.
func (m *Machine) Flags() Flags {
	return m.state.Flags()
}

// Connect handles the transport's connect event.
func (m *Machine) Connect() {
	if m.state == Disconnected {
		m.set(ConnectedIdle)
	}
}

// Disconnect handles the transport's disconnect event from any state.
func (m *Machine) Disconnect() {
	m.set(Disconnected)
}

// RequestStart validates a user start command. The state does not change
// until ConfirmStart or a status frame reports monitoring active.
func (m *Machine) RequestStart() error {
	switch m.state {
	case Disconnected:
		return ErrNotConnected
	case ConnectedMonitoring:
		return ErrAlreadyMonitoring
	default:
		return nil
	}
}

// ConfirmStart moves Connected-Idle to Connected-Monitoring.
func (m *Machine) ConfirmStart() {
	if m.state == ConnectedIdle {
		m.set(ConnectedMonitoring)
	}
}

// RequestStop validates a user stop command.
func (m *Machine) RequestStop() error {
	switch m.state {
	case Disconnected:
		return ErrNotConnected
	case ConnectedIdle:
		return ErrNotMonitoring
	default:
		return nil
	}
}

// ConfirmStop moves Connected-Monitoring to Connected-Idle.
func (m *Machine) ConfirmStop() {
	if m.state == ConnectedMonitoring {
		m.set(ConnectedIdle)
	}
}

// ApplyStatus applies the server's monitoring flag. Ignored while
// Disconnected.
func (m *Machine) ApplyStatus(active bool) {
	if m.state == Disconnected {
		return
	}
	if active {
		m.ConfirmStart()
		return
	}
	m.ConfirmStop()
}

func (m *Machine) set(next State) {
	if next == m.state {
		return
	}
	t := Transition{From: m.state, To: next}
	m.state = next
	for _, fn := range m.observers {
		fn(t)
	}
}
