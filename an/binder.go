package an

import (
	"sync"

	"xcvrswitch.dev/porttable"
)

// Binder owns the mapping from port index to the currently-bound AN state
// machine. It is the one place allowed to rebind a port's machine (spec
// §4.6: "directly writing the port's AN state is forbidden" — everything
// else goes through the restart/mode switcher, which itself only talks to
// a Binder).
type Binder struct {
	mu       sync.Mutex
	machines map[porttable.PortIndex]*StateMachine
}

// NewBinder creates an empty binder.
func NewBinder() *Binder {
	return &Binder{machines: make(map[porttable.PortIndex]*StateMachine)}
}

// Get returns the state machine currently bound to port, if any.
func (b *Binder) Get(port porttable.PortIndex) (*StateMachine, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sm, ok := b.machines[port]
	return sm, ok
}

// Bind replaces (or sets) the state machine bound to port.
func (b *Binder) Bind(port porttable.PortIndex, sm *StateMachine) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.machines[port] = sm
}

// Unbind removes any state machine bound to port.
func (b *Binder) Unbind(port porttable.PortIndex) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.machines, port)
}
