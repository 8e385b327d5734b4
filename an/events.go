// Package an implements the autonegotiation dispatcher (C5), configuration
// validator (C6), restart/mode switcher (C7), HCD/next-page interpreter
// (C8) and timer scaler (C9) described in spec §4.4-§4.9, plus the small
// generic state-machine engine (sm.go) that spec §1/§9 treats as an
// out-of-scope external collaborator but which this standalone module must
// still provide (see SPEC_FULL.md, SUPPLEMENTED FEATURES #2).
package an

import "xcvrswitch.dev/porttable"

// Event is a tagged event variant delivered to a per-port state machine.
type Event int

const (
	EventNone Event = iota

	// Clause 73 events, in the exact dispatch order of spec §4.4.
	EventAbilityDetect
	EventAcknowledgeDetect
	EventCompleteAcknowledge
	EventNextPageWait
	EventAnGoodCheck
	EventAnGood
	EventTransmitDisable

	// Clause 37 events, in the exact dispatch order of spec §4.4.
	// AbilityDetect and CompleteAcknowledge are the same event identifiers
	// as Clause 73's (both clauses reach an analogous ability-exchange
	// state); EventGoodCheckC37 is deliberately its own identifier and
	// never aliases EventAnGoodCheck (spec §9 Open Question 2 / REDESIGN
	// FLAG: the two clauses must not share that event ID).
	EventAnEnable
	EventAnRestart
	EventDisableLinkOk
	EventGoodCheckC37
	EventIdleDetect
	EventLinkOk

	// Config-path events driven by the restart/mode switcher (C7), not by
	// the interrupt dispatcher.
	EventAnDisableReq
	EventAnConfigReq
)

func (e Event) String() string {
	switch e {
	case EventAbilityDetect:
		return "AbilityDetect"
	case EventAcknowledgeDetect:
		return "AcknowledgeDetect"
	case EventCompleteAcknowledge:
		return "CompleteAcknowledge"
	case EventNextPageWait:
		return "NextPageWait"
	case EventAnGoodCheck:
		return "AnGoodCheck"
	case EventAnGood:
		return "AnGood"
	case EventTransmitDisable:
		return "TransmitDisable"
	case EventAnEnable:
		return "AnEnable"
	case EventAnRestart:
		return "AnRestart"
	case EventDisableLinkOk:
		return "DisableLinkOk"
	case EventGoodCheckC37:
		return "GoodCheckC37"
	case EventIdleDetect:
		return "IdleDetect"
	case EventLinkOk:
		return "LinkOk"
	case EventAnDisableReq:
		return "AnDisableReq"
	case EventAnConfigReq:
		return "AnConfigReq"
	default:
		return "EventNone"
	}
}

// ipBit pairs an interrupt-pending bit position with the event it
// produces. Order within the slice is the dispatch order spec §4.4
// mandates: "several bits can be pending simultaneously; the standard's
// state ordering dictates the event ordering".
type ipBit struct {
	bit   uint32
	event Event
}

// clause73Bits is the ordered {AbilityDetect, AcknowledgeDetect,
// CompleteAcknowledge, NextPageWait, AnGoodCheck, AnGood, TransmitDisable}
// table from spec §4.4.
var clause73Bits = []ipBit{
	{1 << 0, EventAbilityDetect},
	{1 << 1, EventAcknowledgeDetect},
	{1 << 2, EventCompleteAcknowledge},
	{1 << 3, EventNextPageWait},
	{1 << 4, EventAnGoodCheck},
	{1 << 5, EventAnGood},
	{1 << 6, EventTransmitDisable},
}

// clause37Bits is the ordered {AnEnable, AnRestart, DisableLinkOk,
// AbilityDetect, CompleteAcknowledge, NextPageWait, IdleDetect, LinkOk}
// table from spec §4.4. The bit conventionally named "NextPageWait" here
// produces EventGoodCheckC37, never EventAnGoodCheck (OQ2 fix).
var clause37Bits = []ipBit{
	{1 << 0, EventAnEnable},
	{1 << 1, EventAnRestart},
	{1 << 2, EventDisableLinkOk},
	{1 << 3, EventAbilityDetect},
	{1 << 4, EventCompleteAcknowledge},
	{1 << 5, EventGoodCheckC37},
	{1 << 6, EventIdleDetect},
	{1 << 7, EventLinkOk},
}

// InterruptMask returns the full set of IP bits belonging to smType, used
// to build the AN interrupt mask that must match the bound SM type (spec
// §3 invariant, §4.6 step 3).
func InterruptMask(smType porttable.AnSmType) uint32 {
	var mask uint32
	switch smType {
	case porttable.AnSmC73:
		for _, b := range clause73Bits {
			mask |= b.bit
		}
	case porttable.AnSmC37:
		for _, b := range clause37Bits {
			mask |= b.bit
		}
	}
	return mask
}
