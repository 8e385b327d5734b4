package an

import "xcvrswitch.dev/porttable"

// Clause 73 (backplane KR/CR) states, ordered the way spec §4.4's event
// list implies the standard's own state ordering runs.
const (
	C73Disabled State = iota
	C73AbilityDetect
	C73AcknowledgeDetect
	C73CompleteAcknowledge
	C73NextPageWait
	C73AnGoodCheck
	C73AnGood
	C73TransmitDisable
)

// NewClause73 starts a Clause 73 state machine for port.
func NewClause73(port porttable.PortIndex) *StateMachine {
	return New(port, porttable.AnSmC73, clause73Table)
}

var clause73Table = buildClause73Table()

func buildClause73Table() Table {
	t := Table{
		C73Disabled: {
			EventAnConfigReq: func(sm *StateMachine, _ Event) (State, error) {
				return C73AbilityDetect, nil
			},
		},
		C73AbilityDetect: {
			EventAbilityDetect:      stay,
			EventAcknowledgeDetect:  toState(C73AcknowledgeDetect),
		},
		C73AcknowledgeDetect: {
			EventAcknowledgeDetect:   stay,
			EventCompleteAcknowledge: toState(C73CompleteAcknowledge),
		},
		C73CompleteAcknowledge: {
			EventCompleteAcknowledge: stay,
			EventNextPageWait:        toState(C73NextPageWait),
		},
		C73NextPageWait: {
			EventNextPageWait: stay,
			EventAnGoodCheck:  toState(C73AnGoodCheck),
		},
		C73AnGoodCheck: {
			EventAnGoodCheck: stay,
			EventAnGood:      c73LinkUp,
		},
		C73AnGood: {
			EventTransmitDisable: toState(C73TransmitDisable),
		},
		C73TransmitDisable: {},
	}
	addDisableFromAnyState(t, C73Disabled)
	return t
}

func c73LinkUp(sm *StateMachine, _ Event) (State, error) {
	if sm.OnLinkUp != nil {
		sm.OnLinkUp(sm)
	}
	return C73AnGood, nil
}

func stay(sm *StateMachine, _ Event) (State, error) {
	return sm.state, nil
}

func toState(s State) Action {
	return func(sm *StateMachine, _ Event) (State, error) {
		return s, nil
	}
}

// addDisableFromAnyState wires EventAnDisableReq from every state already
// present in t back to disabled, matching spec §4.6 step 2: disabling the
// currently-bound SM is always possible regardless of its state.
func addDisableFromAnyState(t Table, disabled State) {
	disable := toState(disabled)
	for state, actions := range t {
		if state == disabled {
			continue
		}
		actions[EventAnDisableReq] = disable
	}
}
