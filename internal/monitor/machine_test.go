package monitor

import (
	"errors"
	"testing"
)

type event struct {
	name  string
	apply func(*Machine)
}

var events = []event{
	{"connect", (*Machine).Connect},
	{"disconnect", (*Machine).Disconnect},
	{"start", func(m *Machine) {
		if m.RequestStart() == nil {
			m.ConfirmStart()
		}
	}},
	{"stop", func(m *Machine) {
		if m.RequestStop() == nil {
			m.ConfirmStop()
		}
	}},
	{"confirm-start", (*Machine).ConfirmStart},
	{"confirm-stop", (*Machine).ConfirmStop},
	{"status-active", func(m *Machine) { m.ApplyStatus(true) }},
	{"status-idle", func(m *Machine) { m.ApplyStatus(false) }},
}

// Every event sequence up to depth 5 keeps Monitoring => Connected.
func TestMachine_MonitoringImpliesConnected(t *testing.T) {
	var walk func(m *Machine, path []string, depth int)
	reached := make(map[State]bool)
	walk = func(m *Machine, path []string, depth int) {
		flags := m.Flags()
		reached[m.State()] = true
		if flags.Monitoring && !flags.Connected {
			t.Fatalf("monitoring without connection after %v", path)
		}
		if depth == 0 {
			return
		}
		for _, ev := range events {
			next := &Machine{state: m.state}
			ev.apply(next)
			walk(next, append(append([]string(nil), path...), ev.name), depth-1)
		}
	}
	walk(New(), nil, 5)

	for _, s := range []State{Disconnected, ConnectedIdle, ConnectedMonitoring} {
		if !reached[s] {
			t.Fatalf("state %s never reached", s)
		}
	}
}

func TestMachine_Transitions(t *testing.T) {
	tests := []struct {
		name  string
		start State
		event func(*Machine)
		want  State
	}{
		{"connect from disconnected", Disconnected, (*Machine).Connect, ConnectedIdle},
		{"connect while monitoring", ConnectedMonitoring, (*Machine).Connect, ConnectedMonitoring},
		{"disconnect while monitoring", ConnectedMonitoring, (*Machine).Disconnect, Disconnected},
		{"confirm start from idle", ConnectedIdle, (*Machine).ConfirmStart, ConnectedMonitoring},
		{"confirm start while disconnected", Disconnected, (*Machine).ConfirmStart, Disconnected},
		{"confirm stop from monitoring", ConnectedMonitoring, (*Machine).ConfirmStop, ConnectedIdle},
		{"status active while disconnected", Disconnected, func(m *Machine) { m.ApplyStatus(true) }, Disconnected},
		{"status idle while monitoring", ConnectedMonitoring, func(m *Machine) { m.ApplyStatus(false) }, ConnectedIdle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Machine{state: tt.start}
			tt.event(m)
			if got := m.State(); got != tt.want {
				t.Fatalf("state = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMachine_CommandRejections(t *testing.T) {
	m := New()
	if err := m.RequestStart(); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("RequestStart while disconnected = %v, want ErrNotConnected", err)
	}
	if m.State() != Disconnected {
		t.Fatalf("rejected start changed state to %s", m.State())
	}
	m.Connect()
	if err := m.RequestStop(); !errors.Is(err, ErrNotMonitoring) {
		t.Fatalf("RequestStop while idle = %v, want ErrNotMonitoring", err)
	}
	if err := m.RequestStart(); err != nil {
		t.Fatalf("RequestStart while idle = %v, want nil", err)
	}
	m.ConfirmStart()
	if err := m.RequestStart(); !errors.Is(err, ErrAlreadyMonitoring) {
		t.Fatalf("RequestStart while monitoring = %v, want ErrAlreadyMonitoring", err)
	}
}

func TestMachine_ObserversSeeOnlyChanges(t *testing.T) {
	m := New()
	var seen []Transition
	m.Observe(func(tr Transition) { seen = append(seen, tr) })

	m.Connect()
	m.Connect()
	m.ApplyStatus(true)
	m.ApplyStatus(true)
	m.Disconnect()
	m.Disconnect()

	want := []Transition{
		{Disconnected, ConnectedIdle},
		{ConnectedIdle, ConnectedMonitoring},
		{ConnectedMonitoring, Disconnected},
	}
	if len(seen) != len(want) {
		t.Fatalf("transitions = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("transition[%d] = %v, want %v", i, seen[i], want[i])
		}
	}
}
