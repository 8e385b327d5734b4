// C8: the HCD / next-page interpreter, plus the §4.8 max-speed/lane-mode
// picker that consumes it.
package an

import "xcvrswitch.dev/porttable"

// HCD is the Clause 73 "Highest Common Denominator" technology code.
type HCD int

const (
	HCDKX HCD = iota
	HCDKX4
	HCD10KR
	HCD40CR4
	HCD40KR4
	HCD100CR10
	HCD100KR4
	HCD100CR4
	HCD100KP4
	HCD25KR
	HCD25CR
	HCDIncompatible
)

// String names every HCD for debug logging, including the ones that map
// to DISABLED (spec §4.7: "KX4, 100_CR10, 100_KP4, INCOMPATIBLE have
// human-readable debug names but map to DISABLED").
func (h HCD) String() string {
	switch h {
	case HCDKX:
		return "1000BASE-KX"
	case HCDKX4:
		return "10GBASE-KX4"
	case HCD10KR:
		return "10GBASE-KR"
	case HCD40CR4:
		return "40GBASE-CR4"
	case HCD40KR4:
		return "40GBASE-KR4"
	case HCD100CR10:
		return "100GBASE-CR10"
	case HCD100KR4:
		return "100GBASE-KR4"
	case HCD100CR4:
		return "100GBASE-CR4"
	case HCD100KP4:
		return "100GBASE-KP4"
	case HCD25KR:
		return "25GBASE-KR"
	case HCD25CR:
		return "25GBASE-CR"
	default:
		return "INCOMPATIBLE"
	}
}

// HCDToEthMode maps a Clause 73 HCD code to an ethernet mode (spec §4.7).
// It is total: every HCD value, including ones not in the table, maps to
// some EthMode.
func HCDToEthMode(h HCD) porttable.EthMode {
	switch h {
	case HCDKX:
		return porttable.Eth1000BaseKX
	case HCD10KR:
		return porttable.Eth10GBaseKR
	case HCD40CR4:
		return porttable.Eth40GBaseCR4
	case HCD40KR4:
		return porttable.Eth40GBaseKR4
	case HCD100KR4:
		return porttable.Eth100GBaseKR4
	case HCD100CR4:
		return porttable.Eth100GBaseCR4
	case HCD25KR:
		return porttable.Eth25GBaseKR
	case HCD25CR:
		return porttable.Eth25GBaseCR
	default: // KX4, 100_CR10, 100_KP4, INCOMPATIBLE.
		return porttable.EthDisabled
	}
}

// Next-page message codes (Annex 28C / the 25G Ethernet Consortium
// extension of it).
const (
	oddMessageCodeOUITag     = 5  // "message next-page" carrying an OUI tag.
	oddMessageCodeEEE        = 20 // EEE advertisement message.
	unformattedExtTechAbility = 0x3
)

func isMessagePage(page uint64) bool {
	return page&(1<<12) != 0
}

func messageCode(page uint64) uint32 {
	return uint32(page) & 0x7FF
}

func bitsRange(v uint64, lo, hi uint) uint32 {
	width := hi - lo + 1
	mask := uint64(1)<<width - 1
	return uint32((v >> lo) & mask)
}

// ScanFor25GExtTechAbility walks pages (a received partner next-page
// sequence) looking for an OUI-tagged message next-page immediately
// followed by an unformatted next-page whose bits [8:0] equal the
// Extended Technology Ability code 0x3 (spec §4.7). On a match whose
// reconstructed 24-bit OUI equals wantOUI, it returns that unformatted
// page and its index.
func ScanFor25GExtTechAbility(pages []uint64, wantOUI uint32) (page uint64, idx int, found bool) {
	for i := 0; i+1 < len(pages); i++ {
		msg := pages[i]
		if !isMessagePage(msg) || messageCode(msg) != oddMessageCodeOUITag {
			continue
		}
		unformatted := pages[i+1]
		if isMessagePage(unformatted) {
			continue
		}
		if bitsRange(unformatted, 0, 8) != unformattedExtTechAbility {
			continue
		}
		oui := bitsRange(unformatted, 9, 10) |
			bitsRange(msg, 32, 42)<<2 |
			bitsRange(msg, 16, 26)<<13
		if oui != wantOUI {
			continue
		}
		return unformatted, i + 1, true
	}
	return 0, 0, false
}

// Ext-tech-ability page bits (spec §4.7).
const (
	extTechBit25GCR1 = 1 << 20
	extTechBit25GKR1 = 1 << 21
)

// Supports25G reports 25GBASE-CR1/KR1 support signalled by an extended
// technology ability page found by ScanFor25GExtTechAbility.
func Supports25G(extTechPage uint64) (cr1, kr1 bool) {
	return extTechPage&extTechBit25GCR1 != 0, extTechPage&extTechBit25GKR1 != 0
}

// VerifyEEENegotiation walks partnerPages for an EEE advertisement message
// next-page (only meaningful under Clause 73, spec §4.7) followed by an
// unformatted page whose ability bit for is10G (10GBASE-KR) or !is10G
// (1000BASE-KX) is set.
func VerifyEEENegotiation(partnerPages []uint64, anMode porttable.AutonegMode, is10G bool) bool {
	if anMode != porttable.AutonegClause73 {
		return false
	}
	const (
		eeeBit1000BaseKX = 1 << 0
		eeeBit10GBaseKR  = 1 << 1
	)
	want := eeeBit1000BaseKX
	if is10G {
		want = eeeBit10GBaseKR
	}
	for i := 0; i+1 < len(partnerPages); i++ {
		msg := partnerPages[i]
		if !isMessagePage(msg) || messageCode(msg) != oddMessageCodeEEE {
			continue
		}
		body := partnerPages[i+1]
		if isMessagePage(body) {
			continue
		}
		if bitsRange(body, 0, 10)&uint32(want) != 0 {
			return true
		}
	}
	return false
}

// LaneMode is the SerDes fan-out width a negotiated speed requires.
type LaneMode int

const (
	LaneModeSingle LaneMode = iota
	LaneModeQuad
)

// GetMaxSpeedAbilityAndMode implements §4.8: given the negotiation mode,
// base page, received next pages, the port's declared capabilities and
// the configured 25G next-page OUI, return the negotiated max speed (in
// Mbps) and lane mode.
func GetMaxSpeedAbilityAndMode(anMode porttable.AutonegMode, basePage uint64, nextPages []uint64, declared porttable.Speed, oui uint32) (maxSpeedMbps int, lane LaneMode) {
	if anMode != porttable.AutonegClause73 {
		return 1000, LaneModeSingle
	}

	var ability uint32
	if basePage == 0 {
		// Synthesize from the port's own multilane capability; speeds the
		// port cannot run are already absent from declared, so this is a
		// no-op mask rather than a special case.
		ability = uint32(declared) & uint32(SupportedAbilityMask)
	} else {
		ability = AbilityField(basePage) & uint32(SupportedAbilityMask)
	}

	_, _, has25GNextPage := ScanFor25GExtTechAbility(nextPages, oui)

	switch {
	case ability&uint32(porttable.Speed100GBaseKR4|porttable.Speed100GBaseCR4) != 0:
		return 100000, LaneModeQuad
	case ability&uint32(porttable.Speed40GBaseKR4|porttable.Speed40GBaseCR4) != 0:
		return 40000, LaneModeQuad
	case ability&uint32(porttable.Speed25GBaseKR|porttable.Speed25GBaseCR) != 0 || has25GNextPage:
		return 25000, LaneModeSingle
	case ability&uint32(porttable.Speed10GBaseKR) != 0:
		return 10000, LaneModeSingle
	case ability&uint32(porttable.Speed1000BaseKX) != 0:
		// 2.5 Gbps SerDes rate carrier; negotiated speed reported as 1G.
		return 1000, LaneModeSingle
	default:
		return 0, LaneModeSingle
	}
}
