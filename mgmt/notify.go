package mgmt

import "xcvrswitch.dev/porttable"

// ChangeBits is the upward signal set composed from a module-bit change
// (spec §4.3: "compose the upward signal set (MODPRES, RXLOS, TXFAULT)").
type ChangeBits uint32

const (
	ChangeModPres ChangeBits = 1 << iota
	ChangeRXLoss
	ChangeTXFault
)

// Notifier is the upward event sink: an API-level change notification
// (gated on eth_mode != DISABLED) and an application-level event (always
// emitted when the engine decides to notify). Both are out-of-scope
// external collaborators (spec §1: "the logical event-delivery fabric");
// the engine only needs this narrow interface into it.
type Notifier interface {
	NotifyXcvrChange(port porttable.PortIndex, bits ChangeBits)
	XcvrStateEvent(port porttable.PortIndex, bits ChangeBits)
}

// NopNotifier discards every event; used where a caller has not wired an
// event fabric yet.
type NopNotifier struct{}

func (NopNotifier) NotifyXcvrChange(porttable.PortIndex, ChangeBits) {}
func (NopNotifier) XcvrStateEvent(porttable.PortIndex, ChangeBits)   {}
