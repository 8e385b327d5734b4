package an

import (
	"sync"

	"xcvrswitch.dev/porttable"
)

// State is a state-machine state. StateDisabled (0) is shared by both
// clause tables: a freshly-started SM always begins there (spec §4.6 step
// 2: "Start a new SM instance in state DISABLED").
type State int

const StateDisabled State = 0

// Action runs when ev is valid in the machine's current state. It returns
// the next state, or an error that aborts the in-flight event chain
// (spec §4.4: "Abort the chain on the first non-OK status").
type Action func(sm *StateMachine, ev Event) (State, error)

// Table maps (state, event) to the action run for it. An (state, event)
// pair with no entry is a no-op: the event is simply not meaningful in
// that state, matching how table-driven SM frameworks silently drop
// irrelevant events rather than erroring.
type Table map[State]map[Event]Action

// StateMachine is a single port's bound Clause 37 or Clause 73 instance.
// This is the "small owned engine per port" spec §9 calls for in place of
// the out-of-scope generic framework: the dispatch loop here is grounded
// on driver/mjolnir/driver.go's runProgram status-polling loop (poll a
// status byte, switch into the matching action, repeat).
type StateMachine struct {
	// mu is the state-machine lock (spec §5): transitions run with it
	// held, exposed to action callbacks via the *StateMachine receiver
	// rather than a separate borrowed token.
	mu sync.Mutex

	Port   porttable.PortIndex
	SmType porttable.AnSmType

	table Table
	state State

	// PendingConfig is the configuration carried by the most recent
	// AN_CONFIG_REQ/AN_DISABLE_REQ dispatch (spec §4.6 step 4); action
	// callbacks read it under the SM lock they already hold.
	PendingConfig ConfigEvent

	// OnLinkUp, if set, runs (still under the SM lock) when the machine
	// reaches its terminal "good"/link-up state, letting callers compute
	// the HCD outcome (C8) without the SM engine itself depending on it.
	OnLinkUp func(sm *StateMachine)
}

// ConfigEvent is the payload of an AN_CONFIG_REQ/AN_DISABLE_REQ dispatch
// (spec §4.6 step 4: "Emit AN_CONFIG_REQ carrying (an_mode, base_page,
// next_pages)").
type ConfigEvent struct {
	AutonegMode porttable.AutonegMode
	BasePage    uint64
	NextPages   []uint64
}

// Configure stores cfg as PendingConfig and dispatches ev (normally
// EventAnConfigReq or EventAnDisableReq).
func (sm *StateMachine) Configure(ev Event, cfg ConfigEvent) error {
	sm.mu.Lock()
	sm.PendingConfig = cfg
	sm.mu.Unlock()
	return sm.Dispatch(ev)
}

// New starts a state machine for port, bound to smType, in StateDisabled.
func New(port porttable.PortIndex, smType porttable.AnSmType, table Table) *StateMachine {
	return &StateMachine{
		Port:   port,
		SmType: smType,
		table:  table,
		state:  StateDisabled,
	}
}

// State returns the current state.
func (sm *StateMachine) State() State {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.state
}

// Dispatch runs ev against the current state under the SM lock. It
// returns the error from the action, if any; the caller (the event
// dispatcher, C5) is responsible for aborting further event delivery in
// this chain on a non-nil return.
func (sm *StateMachine) Dispatch(ev Event) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	actions, ok := sm.table[sm.state]
	if !ok {
		return nil
	}
	action, ok := actions[ev]
	if !ok {
		return nil
	}
	next, err := action(sm, ev)
	if err != nil {
		return err
	}
	sm.state = next
	return nil
}

// Stop is called by the restart/mode switcher (C7) before discarding a
// bound SM (spec §4.6 step 2: "stop the current SM").
func (sm *StateMachine) Stop() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.state = StateDisabled
}
