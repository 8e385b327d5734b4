package mgmt

import "xcvrswitch.dev/porttable"

// SerDesApplier applies the SerDes TX equalization configuration; its
// numerical training tables are an out-of-scope external collaborator
// (spec §1), so this package only needs the narrow entry points
// update-SerDes calls.
type SerDesApplier interface {
	ApplySingleLane(port porttable.PortIndex, mode porttable.EthMode) error
	ApplyMultiLane(epl int, mode porttable.EthMode) error
}

// updateSerDes implements §4.3's update-SerDes: single-lane config for
// SFP+, a once-per-EPL multi-lane config for a multi-lane QSFP_LANE0, or
// a per-lane single-lane config fan-out for a 4×1 QSFP_LANE0.
func (e *Engine) updateSerDes(idx porttable.PortIndex) error {
	if e.SerDes == nil {
		return nil
	}
	cfg := e.Table.Configs[idx]
	rec := &e.Table.Xcvr[idx]

	if !cfg.IntfType.IsQSFPLane() {
		return e.SerDes.ApplySingleLane(idx, rec.EthMode)
	}
	if cfg.IntfType != porttable.IntfQSFPLane0 {
		return nil // lanes 1-3 are configured as part of lane 0's fan-out.
	}

	lanes, defined := e.Table.LanesOf(cfg.EPL)
	if isBreakoutMode(defined) {
		var firstErr error
		for lane, ok := range defined {
			if !ok {
				continue
			}
			p := lanes[lane]
			if err := e.SerDes.ApplySingleLane(p, e.Table.Xcvr[p].EthMode); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
	return e.SerDes.ApplyMultiLane(cfg.EPL, rec.EthMode)
}

// isBreakoutMode reports whether an EPL is running as four independent
// 1-lane ports (any of lanes 1-3 defined as their own port-index) rather
// than a single multi-lane channel.
func isBreakoutMode(defined [4]bool) bool {
	return defined[1] || defined[2] || defined[3]
}
