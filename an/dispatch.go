// C5: the AN event dispatcher.
package an

import "xcvrswitch.dev/porttable"

// IPUnmasker re-arms hardware interrupt-pending bits after they have been
// consumed. Implemented by the platform facade under the register lock
// (spec §5).
type IPUnmasker interface {
	UnmaskIPBits(port porttable.PortIndex, bits uint32) error
}

// Dispatcher is C5: it decodes an AN interrupt-pending mask into the
// ordered events spec §4.4 requires and feeds them to the lane's bound
// state machine.
type Dispatcher struct {
	Table    *porttable.Table
	Binder   *Binder
	Unmasker IPUnmasker
}

// NewDispatcher builds a Dispatcher over table and binder.
func NewDispatcher(table *porttable.Table, binder *Binder, unmasker IPUnmasker) *Dispatcher {
	return &Dispatcher{Table: table, Binder: binder, Unmasker: unmasker}
}

// Dispatch handles one interrupt notification for (epl, lane), an ip
// being the AN interrupt-pending bits observed for that lane (spec §4.4).
// If no port owns the lane the mask is still re-armed but no events are
// delivered ("drop silently (still re-arm the mask)").
func (d *Dispatcher) Dispatch(epl, lane int, anIP uint32) error {
	lanes, defined := d.Table.LanesOf(epl)
	if lane < 0 || lane > 3 || !defined[lane] {
		return d.rearm(invalidPortFallback, anIP)
	}
	port := lanes[lane]

	sm, bound := d.Binder.Get(port)
	if !bound || sm.SmType == porttable.AnSmNone {
		return d.rearm(port, anIP)
	}

	var bits []ipBit
	switch sm.SmType {
	case porttable.AnSmC73:
		bits = clause73Bits
	case porttable.AnSmC37:
		bits = clause37Bits
	}

	// recognised is every bit in anIP that belongs to the bound clause's
	// table, whether or not its event was actually delivered before an
	// abort. An abort stops event *delivery*, not mask re-arming (spec
	// §7: "interrupt-path errors abort the current event chain ... but
	// still re-arm the hardware mask").
	var recognised uint32
	var firstErr error
	aborted := false
	for _, b := range bits {
		if anIP&b.bit == 0 {
			continue
		}
		recognised |= b.bit
		if aborted {
			continue
		}
		if err := sm.Dispatch(b.event); err != nil {
			firstErr = err
			aborted = true
		}
	}

	if rerr := d.rearm(port, recognised); rerr != nil && firstErr == nil {
		firstErr = rerr
	}
	return firstErr
}

const invalidPortFallback = porttable.PortIndex(-1)

func (d *Dispatcher) rearm(port porttable.PortIndex, bits uint32) error {
	if d.Unmasker == nil || bits == 0 {
		return nil
	}
	return d.Unmasker.UnmaskIPBits(port, bits)
}
