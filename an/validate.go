// C6: the AN configuration validator.
package an

import (
	"fmt"

	"xcvrswitch.dev/porttable"
	"xcvrswitch.dev/xcvrerr"
)

// AbilityShift is the bit offset of the 16-bit ability field within a
// Clause 73 base page. The low byte carries the eight speeds this driver
// recognises (porttable.Speed); the high byte is reserved/vendor bits that
// are always masked off.
const AbilityShift = 21

// SupportedAbilityMask is the set of Clause 73 ability bits this driver
// understands: {1000BASE-KX, 10GBASE-KR, 25GBASE-KR, 25GBASE-CR,
// 40GBASE-KR4, 40GBASE-CR4, 100GBASE-KR4, 100GBASE-CR4} (spec §4.5).
const SupportedAbilityMask porttable.Speed = porttable.Speed1000BaseKX |
	porttable.Speed10GBaseKR | porttable.Speed25GBaseKR | porttable.Speed25GBaseCR |
	porttable.Speed40GBaseKR4 | porttable.Speed40GBaseCR4 |
	porttable.Speed100GBaseKR4 | porttable.Speed100GBaseCR4

// DebugLog is called with a debug-level message; nil is a valid no-op
// logger.
type DebugLog func(format string, args ...any)

func (l DebugLog) logf(format string, args ...any) {
	if l != nil {
		l(format, args...)
	}
}

// AbilityField extracts the 16-bit ability field from a Clause 73 base
// page.
func AbilityField(basePage uint64) uint32 {
	return uint32(basePage>>AbilityShift) & 0xFFFF
}

// speedNames orders porttable.Speed bits for diagnostics.
var speedNames = []struct {
	bit  porttable.Speed
	name string
}{
	{porttable.Speed1000BaseKX, "1000BASE-KX"},
	{porttable.Speed10GBaseKR, "10GBASE-KR"},
	{porttable.Speed25GBaseKR, "25GBASE-KR"},
	{porttable.Speed25GBaseCR, "25GBASE-CR"},
	{porttable.Speed40GBaseKR4, "40GBASE-KR4"},
	{porttable.Speed40GBaseCR4, "40GBASE-CR4"},
	{porttable.Speed100GBaseKR4, "100GBASE-KR4"},
	{porttable.Speed100GBaseCR4, "100GBASE-CR4"},
}

// ValidateBasePage validates a Clause 73 base page's ability field against
// declared, the port's declared capability set (spec §4.5). It is
// idempotent: validating an already-cleaned base page returns it
// unchanged (spec §8: "validate_base_page is idempotent").
func ValidateBasePage(basePage uint64, declared porttable.Speed, log DebugLog) (uint64, error) {
	ability := AbilityField(basePage)
	cleanMask := uint32(SupportedAbilityMask)

	unsupportedBits := ability &^ cleanMask
	if unsupportedBits != 0 {
		log.logf("AN config validator: masking unsupported ability bits %#x", unsupportedBits)
	}
	cleaned := ability & cleanMask
	if cleaned == 0 {
		return basePage, fmt.Errorf("an: base page ability field empty after masking: %w", xcvrerr.ErrUnsupported)
	}

	for _, sn := range speedNames {
		if porttable.Speed(cleaned)&sn.bit == 0 {
			continue
		}
		if declared&sn.bit == 0 {
			return basePage, xcvrerr.Unsupported(fmt.Sprintf("an: port cannot advertise %s", sn.name))
		}
	}

	out := basePage &^ (uint64(0xFFFF) << AbilityShift)
	out |= uint64(cleaned) << AbilityShift
	return out, nil
}
