package an

import (
	"testing"

	"xcvrswitch.dev/porttable"
)

func TestHCDToEthModeTotal(t *testing.T) {
	// HCDToEthMode must be total: even values outside the defined HCD
	// range map to something (DISABLED), never panic.
	for h := HCD(-1); h <= HCDIncompatible+1; h++ {
		_ = HCDToEthMode(h)
	}
}

func TestHCDToEthModeBijectionOnDefinedHCDs(t *testing.T) {
	defined := []HCD{HCDKX, HCD10KR, HCD40CR4, HCD40KR4, HCD100KR4, HCD100CR4, HCD25KR, HCD25CR}
	seen := make(map[porttable.EthMode]HCD)
	for _, h := range defined {
		mode := HCDToEthMode(h)
		if mode == porttable.EthDisabled {
			t.Fatalf("HCD %v unexpectedly maps to DISABLED", h)
		}
		if prior, ok := seen[mode]; ok {
			t.Fatalf("HCD %v and %v both map to %v: not a bijection", h, prior, mode)
		}
		seen[mode] = h
	}
}

func TestHCDUndefinedValuesMapToDisabled(t *testing.T) {
	for _, h := range []HCD{HCDKX4, HCD100CR10, HCD100KP4, HCDIncompatible} {
		if mode := HCDToEthMode(h); mode != porttable.EthDisabled {
			t.Fatalf("HCD %v maps to %v, want DISABLED", h, mode)
		}
	}
}

// buildOUIPages constructs an OUI-tagged message next-page followed by its
// unformatted extended-technology-ability page, using the same bit
// positions ScanFor25GExtTechAbility decodes (spec §4.7).
func buildOUIPages(oui uint32, extraUnformattedBits uint64) (msg, unformatted uint64) {
	msg = 1 << 12 // message-page marker
	msg |= uint64(oddMessageCodeOUITag)
	msg |= uint64((oui>>2)&0x7FF) << 32
	msg |= uint64((oui>>13)&0x7FF) << 16

	unformatted = uint64(unformattedExtTechAbility)
	unformatted |= uint64(oui&0x3) << 9
	unformatted |= extraUnformattedBits
	return msg, unformatted
}

func TestScanFor25GExtTechAbility(t *testing.T) {
	const oui = 0x123456
	msg, unformatted := buildOUIPages(oui, extTechBit25GKR1)
	pages := []uint64{msg, unformatted}

	page, idx, found := ScanFor25GExtTechAbility(pages, oui)
	if !found {
		t.Fatalf("ScanFor25GExtTechAbility: not found, want found")
	}
	if idx != 1 {
		t.Fatalf("idx = %d, want 1", idx)
	}
	if page != unformatted {
		t.Fatalf("page = %#x, want %#x", page, unformatted)
	}
	cr1, kr1 := Supports25G(page)
	if cr1 || !kr1 {
		t.Fatalf("Supports25G = (cr1=%v, kr1=%v), want (false, true)", cr1, kr1)
	}
}

func TestScanFor25GExtTechAbilityOUIMismatch(t *testing.T) {
	msg, unformatted := buildOUIPages(0xABCDEF, extTechBit25GCR1)
	pages := []uint64{msg, unformatted}
	if _, _, found := ScanFor25GExtTechAbility(pages, 0x000001); found {
		t.Fatalf("ScanFor25GExtTechAbility matched a non-matching OUI")
	}
}

func TestVerifyEEENegotiation(t *testing.T) {
	const (
		eeeBit1000BaseKX = 1 << 0
		eeeBit10GBaseKR  = 1 << 1
	)
	msg := uint64(1<<12) | oddMessageCodeEEE
	body10G := uint64(eeeBit10GBaseKR)
	pages := []uint64{msg, body10G}

	if !VerifyEEENegotiation(pages, porttable.AutonegClause73, true) {
		t.Fatalf("VerifyEEENegotiation(10G) = false, want true")
	}
	if VerifyEEENegotiation(pages, porttable.AutonegClause73, false) {
		t.Fatalf("VerifyEEENegotiation(1G) over a 10G-only advertisement should be false")
	}
	if VerifyEEENegotiation(pages, porttable.AutonegClause37, true) {
		t.Fatalf("VerifyEEENegotiation outside Clause 73 should always be false")
	}
}

func TestGetMaxSpeedAbilityAndModeC37IsAlways1G(t *testing.T) {
	speed, lane := GetMaxSpeedAbilityAndMode(porttable.AutonegClause37, 0, nil, 0, 0)
	if speed != 1000 || lane != LaneModeSingle {
		t.Fatalf("C37 GetMaxSpeedAbilityAndMode = (%d,%v), want (1000, SINGLE)", speed, lane)
	}
}

// TestGetMaxSpeedAbilityAndMode25GViaNextPageOnly is scenario S5: base page
// advertises 10GBASE-KR only, but a next-page-carried 25G extended-tech
// ability (matching OUI, bit 21 set) still yields 25000/SINGLE.
func TestGetMaxSpeedAbilityAndMode25GViaNextPageOnly(t *testing.T) {
	const oui = 0x00F00D
	basePage := basePageWithAbility(uint32(porttable.Speed10GBaseKR))
	msg, unformatted := buildOUIPages(oui, extTechBit25GKR1)

	speed, lane := GetMaxSpeedAbilityAndMode(porttable.AutonegClause73, basePage, []uint64{msg, unformatted}, porttable.Speed10GBaseKR, oui)
	if speed != 25000 || lane != LaneModeSingle {
		t.Fatalf("GetMaxSpeedAbilityAndMode = (%d,%v), want (25000, SINGLE)", speed, lane)
	}
}

func TestGetMaxSpeedAbilityAndModePriority(t *testing.T) {
	cases := []struct {
		name     string
		ability  porttable.Speed
		wantMbps int
		wantLane LaneMode
	}{
		{"100G wins over 40G", porttable.Speed100GBaseKR4 | porttable.Speed40GBaseKR4, 100000, LaneModeQuad},
		{"40G wins over 25G", porttable.Speed40GBaseCR4 | porttable.Speed25GBaseCR, 40000, LaneModeQuad},
		{"25G wins over 10G", porttable.Speed25GBaseKR | porttable.Speed10GBaseKR, 25000, LaneModeSingle},
		{"10G wins over 1G", porttable.Speed10GBaseKR | porttable.Speed1000BaseKX, 10000, LaneModeSingle},
		{"1G only", porttable.Speed1000BaseKX, 1000, LaneModeSingle},
		{"nothing advertised", 0, 0, LaneModeSingle},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			page := basePageWithAbility(uint32(c.ability))
			speed, lane := GetMaxSpeedAbilityAndMode(porttable.AutonegClause73, page, nil, c.ability, 0)
			if speed != c.wantMbps || lane != c.wantLane {
				t.Fatalf("GetMaxSpeedAbilityAndMode = (%d,%v), want (%d,%v)", speed, lane, c.wantMbps, c.wantLane)
			}
		})
	}
}

func TestGetMaxSpeedAbilityAndModeSynthesizesFromDeclaredWhenBasePageZero(t *testing.T) {
	declared := porttable.Speed25GBaseKR // port not 40G/100G capable
	speed, lane := GetMaxSpeedAbilityAndMode(porttable.AutonegClause73, 0, nil, declared, 0)
	if speed != 25000 || lane != LaneModeSingle {
		t.Fatalf("GetMaxSpeedAbilityAndMode(base_page=0) = (%d,%v), want (25000, SINGLE)", speed, lane)
	}
}
