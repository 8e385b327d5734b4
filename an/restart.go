// C7: the AN restart / mode switcher, the single entry point spec §4.6
// requires for live mode switches ("directly writing the port's AN state
// is forbidden").
package an

import "xcvrswitch.dev/porttable"

// expectedSMType derives the SM type a new (eth_mode, an_mode) request
// requires, and whether the port is currently ready for it (spec §4.6
// step 1).
func expectedSMType(ethMode porttable.EthMode, anMode porttable.AutonegMode) (smType porttable.AnSmType, ready bool) {
	switch anMode {
	case porttable.AutonegClause73:
		return porttable.AnSmC73, ethMode == porttable.EthAN73
	case porttable.AutonegClause37, porttable.AutonegSGMII:
		ready = ethMode == porttable.Eth1000BaseX || ethMode == porttable.EthSGMII
		return porttable.AnSmC37, ready
	default:
		return porttable.AnSmNone, false
	}
}

// Restart implements an_restart_on_new_config (spec §4.6). ext is the
// port's AN extension record (caller holds the switch protection token
// around the call); onLinkUp, if non-nil, is installed on a freshly
// started state machine so the caller can react to the HCD outcome (C8)
// without this package depending on it.
func Restart(ext *porttable.ANPortExt, binder *Binder, port porttable.PortIndex, ethMode porttable.EthMode, anMode porttable.AutonegMode, basePage uint64, nextPages []uint64, onLinkUp func(*StateMachine)) error {
	expected, ready := expectedSMType(ethMode, anMode)
	if !ready {
		return nil
	}

	if ext.AnSmType != expected {
		if ext.AnSmType != porttable.AnSmNone {
			if cur, bound := binder.Get(port); bound {
				// Disable the old config, not the new one, then stop.
				_ = cur.Configure(EventAnDisableReq, ConfigEvent{
					AutonegMode: ext.AutonegMode,
					BasePage:    ext.BasePage,
					NextPages:   ext.NextPages,
				})
				cur.Stop()
			}
		}

		var sm *StateMachine
		switch expected {
		case porttable.AnSmC73:
			sm = NewClause73(port)
		case porttable.AnSmC37:
			sm = NewClause37(port)
		}
		sm.OnLinkUp = onLinkUp
		binder.Bind(port, sm)
		ext.AnSmType = expected
	}

	ext.AnInterruptMask = InterruptMask(expected)

	sm, bound := binder.Get(port)
	if !bound {
		return nil
	}
	ext.AutonegMode = anMode
	ext.BasePage = basePage
	ext.SetNextPages(nextPages)
	return sm.Configure(EventAnConfigReq, ConfigEvent{
		AutonegMode: anMode,
		BasePage:    basePage,
		NextPages:   ext.NextPages,
	})
}
