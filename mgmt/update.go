package mgmt

import (
	"xcvrswitch.dev/platform"
	"xcvrswitch.dev/porttable"
)

// candidatePorts builds the port list update-state iterates (spec §4.3):
// interrupt-pending translation when available and interrupt-triggered,
// otherwise every SFP+/QSFP_LANE0 port.
func (e *Engine) candidatePorts(interrupt bool) []porttable.PortIndex {
	if interrupt {
		if pr, ok := e.Facade.(platform.IntrPendingReader); ok {
			hwIDs, err := pr.GetPortIntrPending(0)
			if err == nil {
				out := make([]porttable.PortIndex, 0, len(hwIDs))
				for _, id := range hwIDs {
					idx, found := e.Table.PortIndexByHwResourceID(id)
					if !found {
						e.MismatchCount++
						continue
					}
					out = append(out, idx)
				}
				return out
			}
			e.Log.logf("mgmt: get_port_intr_pending: %v", err)
		}
	}

	var out []porttable.PortIndex
	for i, cfg := range e.Table.Configs {
		if cfg.IntfType == porttable.IntfSFPP || cfg.IntfType == porttable.IntfQSFPLane0 {
			out = append(out, porttable.PortIndex(i))
		}
	}
	return out
}

// updateState implements §4.3's update-state algorithm. force emits the
// change notification for every candidate port even when no valid bit
// changed; the EEPROM read and config chain still run only for a port whose
// PRESENT/ENABLE/RXLOS/TXFAULT bits changed. force is used by the one-time
// synchronous sweeps (mgmt_xcvr_initialize, mgmt_enable_interrupt).
func (e *Engine) updateState(interrupt, force bool) {
	candidates := e.candidatePorts(interrupt)
	if len(candidates) == 0 {
		return
	}

	e.busMu.Lock()
	defer e.busMu.Unlock()

	hwIDs := make([]int, len(candidates))
	for i, idx := range candidates {
		hwIDs[i] = e.Table.Configs[idx].HwResourceID
	}

	if bs, ok := e.Facade.(platform.BusSelector); ok {
		if err := bs.SelectBus(platform.BusI2C, hwIDs[0]); err != nil {
			// Logged, not fatal: lock release order is preserved via defer.
			e.Log.logf("mgmt: select_bus: %v", err)
		}
	}

	reader, ok := e.Facade.(platform.BulkStateReader)
	if !ok {
		return
	}
	valid, state, err := reader.GetPortXcvrState(hwIDs)
	if err != nil {
		e.Log.logf("mgmt: get_port_xcvr_state: %v", err)
		return
	}

	for i, idx := range candidates {
		rec := &e.Table.Xcvr[idx]
		v := porttable.ModBit(valid[i])
		newBits := porttable.ModBit(state[i])
		xor := (rec.ModState ^ newBits) & v
		if xor == 0 && !force {
			continue
		}

		notify := false
		if xor&porttable.ModPresent != 0 {
			rec.ResetAbsent()
			notify = true
		}
		if xor&porttable.ModEnable != 0 {
			rec.AnEnabled = false
			rec.ConfigRetries = 0
			notify = true
		}
		if xor&(porttable.ModRXLoss|porttable.ModTXFault) != 0 {
			notify = true
		}
		if xor&porttable.ModIntr != 0 {
			e.Log.logf("mgmt: port %d INTR bit toggled", idx)
		}

		// Persist every valid bit except INTR: logged, never latched.
		persistMask := v &^ porttable.ModIntr
		rec.ModState = (rec.ModState &^ persistMask) | (newBits & persistMask)
		rec.Present = rec.ModState&porttable.ModPresent != 0

		if notify && rec.Present && rec.ModState&porttable.ModEnable != 0 {
			if err := e.readAndValidateEEPROM(idx, false); err == nil {
				_ = e.updateSerDes(idx)
				rec.ConfigRetries = porttable.MaxConfigRetry
				if cfgErr := e.configureSfppXcvr(idx); cfgErr == nil {
					rec.ConfigRetries = 0
				}
			}
		}

		if notify || force {
			e.emitChange(idx, xor)
		}
	}
}

// emitChange composes the upward signal set and fans it out per §4.3's
// QSFP breakout/multi-lane rules.
func (e *Engine) emitChange(idx porttable.PortIndex, xor porttable.ModBit) {
	var bits ChangeBits
	if xor&porttable.ModPresent != 0 {
		bits |= ChangeModPres
	}
	if xor&porttable.ModRXLoss != 0 {
		bits |= ChangeRXLoss
	}
	if xor&porttable.ModTXFault != 0 {
		bits |= ChangeTXFault
	}

	cfg := e.Table.Configs[idx]
	rec := &e.Table.Xcvr[idx]
	e.Notifier.XcvrStateEvent(idx, bits)

	if cfg.IntfType != porttable.IntfQSFPLane0 {
		if rec.EthMode != porttable.EthDisabled {
			e.Notifier.NotifyXcvrChange(idx, bits)
		}
		return
	}

	lanes, defined := e.Table.LanesOf(cfg.EPL)
	if isBreakoutMode(defined) {
		for lane, ok := range defined {
			if !ok {
				continue
			}
			p := lanes[lane]
			if e.Table.Xcvr[p].EthMode != porttable.EthDisabled {
				e.Notifier.NotifyXcvrChange(p, bits)
			}
		}
		return
	}

	// Multi-lane mode: emit once per lane 0..3, all on the lane-0 port.
	for lane := 0; lane < 4; lane++ {
		if rec.EthMode != porttable.EthDisabled {
			e.Notifier.NotifyXcvrChange(idx, bits)
		}
	}
}
