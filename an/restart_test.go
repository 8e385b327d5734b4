package an

import (
	"testing"

	"xcvrswitch.dev/porttable"
)

// TestRestartLiveClause73ToClause37Switch is scenario S4: a port currently
// bound to Clause 73 gets an_restart_on_new_config(CLAUSE_37, 1000BASE_X).
// Expect one AN_DISABLE_REQ carrying the *old* config, the SM stopped and
// replaced, the interrupt mask set to the C37 template, and one
// AN_CONFIG_REQ carrying the new config.
func TestRestartLiveClause73ToClause37Switch(t *testing.T) {
	const port = porttable.PortIndex(0)
	binder := NewBinder()

	ext := &porttable.ANPortExt{}
	oldBasePage := uint64(0xABCD)
	oldNextPages := []uint64{0x1111}
	if err := Restart(ext, binder, port, porttable.EthAN73, porttable.AutonegClause73, oldBasePage, oldNextPages, nil); err != nil {
		t.Fatalf("initial C73 restart: %v", err)
	}
	if ext.AnSmType != porttable.AnSmC73 {
		t.Fatalf("AnSmType = %v, want C73", ext.AnSmType)
	}
	oldSM, bound := binder.Get(port)
	if !bound {
		t.Fatalf("port not bound after initial restart")
	}

	newBasePage := uint64(0x2222)
	newNextPages := []uint64{0x3333}
	if err := Restart(ext, binder, port, porttable.Eth1000BaseX, porttable.AutonegClause37, newBasePage, newNextPages, nil); err != nil {
		t.Fatalf("switch to C37: %v", err)
	}

	if ext.AnSmType != porttable.AnSmC37 {
		t.Fatalf("AnSmType = %v, want C37 after switch", ext.AnSmType)
	}
	if oldSM.State() != C73Disabled {
		t.Fatalf("old SM state = %v, want disabled (AN_DISABLE_REQ with the old config must have stopped it)", oldSM.State())
	}

	newSM, bound := binder.Get(port)
	if !bound {
		t.Fatalf("port not bound to a new SM after switch")
	}
	if newSM == oldSM {
		t.Fatalf("restart reused the old SM instance, want a fresh one started in DISABLED")
	}
	if newSM.SmType != porttable.AnSmC37 {
		t.Fatalf("new SM type = %v, want C37", newSM.SmType)
	}

	wantMask := InterruptMask(porttable.AnSmC37)
	if ext.AnInterruptMask != wantMask {
		t.Fatalf("AnInterruptMask = %#x, want C37 template %#x", ext.AnInterruptMask, wantMask)
	}

	if ext.BasePage != newBasePage {
		t.Fatalf("ext.BasePage = %#x, want new config %#x committed by AN_CONFIG_REQ", ext.BasePage, newBasePage)
	}
	if len(ext.NextPages) != 1 || ext.NextPages[0]&^porttable.NextPageBit != newNextPages[0] {
		t.Fatalf("ext.NextPages = %v, want new next pages %v", ext.NextPages, newNextPages)
	}

	// The new SM must have advanced out of DISABLED in response to the
	// AN_CONFIG_REQ dispatched at the end of Restart, not still be sitting
	// idle in it.
	if newSM.State() == C37Disabled {
		t.Fatalf("new SM still in C37Disabled, want it to have advanced on AN_CONFIG_REQ")
	}
}

// TestRestartNotReadyIsNoop checks step 1 of spec §4.6: a request whose
// eth_mode does not match the readiness condition for its an_mode leaves
// the port's AN state untouched.
func TestRestartNotReadyIsNoop(t *testing.T) {
	const port = porttable.PortIndex(0)
	binder := NewBinder()
	ext := &porttable.ANPortExt{}

	// CLAUSE_73 requires eth_mode = AN_73; EthDisabled is not ready.
	if err := Restart(ext, binder, port, porttable.EthDisabled, porttable.AutonegClause73, 0, nil, nil); err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if ext.AnSmType != porttable.AnSmNone {
		t.Fatalf("AnSmType = %v, want NONE (not-ready request must not bind anything)", ext.AnSmType)
	}
	if _, bound := binder.Get(port); bound {
		t.Fatalf("port bound after a not-ready restart request")
	}
}
