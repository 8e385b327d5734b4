package porttable

import "testing"

func TestResetAbsentInvariants(t *testing.T) {
	var rec TransceiverRecord
	for i := range rec.Eeprom {
		rec.Eeprom[i] = 0x42
	}
	rec.Type = TypeSFPSR
	rec.CableLength = 5
	rec.EepromReadRetries = 3
	rec.ConfigRetries = 2
	rec.EepromBaseValid = true
	rec.EepromExtValid = true

	rec.ResetAbsent()

	for i, b := range rec.Eeprom {
		if b != 0xFF {
			t.Fatalf("Eeprom[%d] = %#x after ResetAbsent, want 0xFF (spec invariant 1)", i, b)
		}
	}
	if rec.Type != TypeNotPresent {
		t.Fatalf("Type = %v after ResetAbsent, want NOT_PRESENT", rec.Type)
	}
	if rec.CableLength != 0 {
		t.Fatalf("CableLength = %d after ResetAbsent, want 0", rec.CableLength)
	}
	if rec.EepromReadRetries != 0 || rec.ConfigRetries != 0 {
		t.Fatalf("retry counters not zeroed by ResetAbsent")
	}
	if rec.EepromBaseValid || rec.EepromExtValid {
		t.Fatalf("checksum verdicts not cleared by ResetAbsent")
	}
}

func TestSetNextPagesNPBitInvariant(t *testing.T) {
	var ext ANPortExt
	ext.SetNextPages([]uint64{0x1, 0x2, 0x3})
	for i, p := range ext.NextPages {
		last := i == len(ext.NextPages)-1
		hasNP := p&NextPageBit != 0
		if hasNP == last {
			t.Fatalf("page %d: NP bit set=%v, want set=%v (spec: every page but the last has NP set)", i, hasNP, !last)
		}
	}
}

func TestSetNextPagesSinglePage(t *testing.T) {
	var ext ANPortExt
	ext.SetNextPages([]uint64{0x7})
	if len(ext.NextPages) != 1 {
		t.Fatalf("len = %d, want 1", len(ext.NextPages))
	}
	if ext.NextPages[0]&NextPageBit != 0 {
		t.Fatalf("the only page must not carry the NP bit")
	}
}

func qsfpConfigs() []PortConfig {
	return []PortConfig{
		{PortID: 1, IntfType: IntfSFPP, HwResourceID: 10},
		{PortID: 2, IntfType: IntfQSFPLane0, EPL: 5, HwResourceID: 20},
		{PortID: 3, IntfType: IntfQSFPLane1, EPL: 5, HwResourceID: 21},
		{PortID: 4, IntfType: IntfQSFPLane2, EPL: 5, HwResourceID: 22},
		{PortID: 5, IntfType: IntfQSFPLane3, EPL: 5, HwResourceID: 23},
	}
}

func TestLanesOf(t *testing.T) {
	table := NewTable(qsfpConfigs())
	lanes, defined := table.LanesOf(5)
	for i := 0; i < 4; i++ {
		if !defined[i] {
			t.Fatalf("lane %d not defined, want defined", i)
		}
	}
	if lanes[0] != 1 || lanes[1] != 2 || lanes[2] != 3 || lanes[3] != 4 {
		t.Fatalf("lanes = %v, want [1 2 3 4]", lanes)
	}
	if _, defined := table.LanesOf(999); defined[0] || defined[1] || defined[2] || defined[3] {
		t.Fatalf("unknown EPL should have no defined lanes")
	}
}

func TestEepromOwnerRedirectsToLane0(t *testing.T) {
	table := NewTable(qsfpConfigs())
	for _, lane := range []PortIndex{2, 3, 4} {
		owner, err := table.EepromOwner(lane)
		if err != nil {
			t.Fatalf("EepromOwner(%d): %v", lane, err)
		}
		if owner != 1 {
			t.Fatalf("EepromOwner(%d) = %d, want 1 (lane 0)", lane, owner)
		}
	}
	owner, err := table.EepromOwner(0)
	if err != nil || owner != 0 {
		t.Fatalf("EepromOwner(0) = (%d, %v), want (0, nil) for a non-QSFP-lane port", owner, err)
	}
}

func TestEepromOwnerInvalidPort(t *testing.T) {
	table := NewTable(qsfpConfigs())
	if _, err := table.EepromOwner(PortIndex(table.Len() + 10)); err == nil {
		t.Fatalf("EepromOwner should reject out-of-range ports")
	}
}

func TestPortIndexByHwResourceID(t *testing.T) {
	table := NewTable(qsfpConfigs())
	idx, ok := table.PortIndexByHwResourceID(21)
	if !ok || idx != 2 {
		t.Fatalf("PortIndexByHwResourceID(21) = (%d, %v), want (2, true)", idx, ok)
	}
	if _, ok := table.PortIndexByHwResourceID(9999); ok {
		t.Fatalf("PortIndexByHwResourceID should not resolve an unknown id")
	}
}

func TestNewTableAppliesInitialEthMode(t *testing.T) {
	configs := []PortConfig{{PortID: 1, IntfType: IntfSFPP, InitialEthMode: Eth1000BaseKX}}
	table := NewTable(configs)
	if table.Xcvr[0].EthMode != Eth1000BaseKX {
		t.Fatalf("EthMode = %v, want 1000BASE_KX from InitialEthMode", table.Xcvr[0].EthMode)
	}
	if table.Xcvr[0].Present || table.Xcvr[0].Type != TypeNotPresent {
		t.Fatalf("freshly built record should start absent/NOT_PRESENT")
	}
}
