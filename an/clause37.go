package an

import "xcvrswitch.dev/porttable"

// Clause 37 (SGMII/1000BASE-X) states, ordered per spec §4.4's
// {AnEnable, AnRestart, DisableLinkOk, AbilityDetect, CompleteAcknowledge,
// NextPageWait, IdleDetect, LinkOk} event list.
const (
	C37Disabled State = iota
	C37AnEnable
	C37AnRestart
	C37AbilityDetect
	C37CompleteAcknowledge
	C37GoodCheck // Reached via EventGoodCheckC37, never EventAnGoodCheck (OQ2 fix).
	C37IdleDetect
	C37LinkOk
)

// NewClause37 starts a Clause 37 state machine for port.
func NewClause37(port porttable.PortIndex) *StateMachine {
	return New(port, porttable.AnSmC37, clause37Table)
}

var clause37Table = buildClause37Table()

func buildClause37Table() Table {
	t := Table{
		C37Disabled: {
			EventAnConfigReq: toState(C37AnEnable),
		},
		C37AnEnable: {
			EventAnEnable:  stay,
			EventAnRestart: toState(C37AnRestart),
		},
		C37AnRestart: {
			EventAnRestart:     stay,
			EventDisableLinkOk: toState(C37AbilityDetect),
		},
		C37AbilityDetect: {
			EventAbilityDetect:       stay,
			EventCompleteAcknowledge: toState(C37CompleteAcknowledge),
		},
		C37CompleteAcknowledge: {
			EventCompleteAcknowledge: stay,
			EventGoodCheckC37:        toState(C37GoodCheck),
		},
		C37GoodCheck: {
			EventGoodCheckC37: stay,
			EventIdleDetect:   toState(C37IdleDetect),
		},
		C37IdleDetect: {
			EventIdleDetect: stay,
			EventLinkOk:     c37LinkUp,
		},
		C37LinkOk: {},
	}
	addDisableFromAnyState(t, C37Disabled)
	return t
}

func c37LinkUp(sm *StateMachine, _ Event) (State, error) {
	if sm.OnLinkUp != nil {
		sm.OnLinkUp(sm)
	}
	return C37LinkOk, nil
}
