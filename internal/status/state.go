package status

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/bashchat/bashchatd/internal/bus"
)

// State is the connection lifecycle state. There is exactly one live
// socket, so this machine doubles as the re-entrancy guard for Connect:
// a transition out of Closed succeeds for exactly one caller.
type State string

const (
	Closed     State = "CLOSED"
	Connecting State = "CONNECTING"
	Open       State = "OPEN"
)

var validTransitions = map[State][]State{
	Closed:     {Connecting},
	Connecting: {Open, Closed},
	Open:       {Closed},
}

// Machine tracks and enforces connection state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a machine starting in Closed.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{current: Closed, bus: b}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns an error if the
// transition is not allowed from the current state.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		from := m.current
		m.mu.Unlock()
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	from := m.current
	m.current = to
	m.mu.Unlock()

	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:      bus.KindConnStatusChanged,
			Timestamp: time.Now(),
			Payload:   StatusChange{From: from, To: to},
		})
	}
	return nil
}

// Reset forces the machine back to Closed regardless of the current state.
// Used by Close, which must succeed from anywhere.
func (m *Machine) Reset() {
	m.mu.Lock()
	from := m.current
	m.current = Closed
	m.mu.Unlock()

	if from != Closed && m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:      bus.KindConnStatusChanged,
			Timestamp: time.Now(),
			Payload:   StatusChange{From: from, To: Closed},
		})
	}
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	From State
	To   State
}
