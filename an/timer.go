// C9: the AN timer scaler and the link-fail-inhibit timer APIs built on it.
package an

import (
	"fmt"
	"sync"

	"xcvrswitch.dev/porttable"
	"xcvrswitch.dev/xcvrerr"
)

// GetTimeScale converts a desired microsecond timeout into the hardware's
// (timescale, count) pair (spec §4.9). scale starts at 1 and is multiplied
// by 10 on every rejected timescale, so count is computed against
// successively coarser resolutions until it fits under max.
func GetTimeScale(usec, max int) (timescale, count, effectiveUsec int, err error) {
	scale := 1
	for ts := 2; ts <= 7; ts++ {
		c := usec / scale
		if c < max {
			return ts, c, scale * c, nil
		}
		scale *= 10
	}
	return 0, 0, 0, fmt.Errorf("an: no timescale fits %dus under max %d: %w", usec, max, xcvrerr.ErrInvalidArgument)
}

// LinkInhibitTimerRange returns the valid millisecond range for the
// link-fail-inhibit timer APIs: 1..511, widened to 1..1023 when
// allowOutSpec (the anTimerAllowOutSpec config option) is set.
func LinkInhibitTimerRange(allowOutSpec bool) (min, max int) {
	if allowOutSpec {
		return 1, 1023
	}
	return 1, 511
}

// ComputeLinkInhibitTimer validates ms against LinkInhibitTimerRange and
// converts it to a (timescale, count) pair via GetTimeScale. ms == 0 means
// "use the hardware default": useDefault is true and timescale/count are
// unused. This backs both an_73_set_link_inhibit_timer and its _kx variant
// (spec §6); the two differ only in which register the caller writes the
// result to, which is this package's caller's concern, not this
// computation's.
func ComputeLinkInhibitTimer(ms int, allowOutSpec bool, hwMaxCount int) (timescale, count int, useDefault bool, err error) {
	if ms == 0 {
		return 0, 0, true, nil
	}
	min, max := LinkInhibitTimerRange(allowOutSpec)
	if ms < min || ms > max {
		return 0, 0, false, fmt.Errorf("an: link inhibit timer %dms outside [%d,%d]: %w", ms, min, max, xcvrerr.ErrInvalidArgument)
	}
	ts, c, _, err := GetTimeScale(ms*1000, hwMaxCount)
	if err != nil {
		return 0, 0, false, err
	}
	return ts, c, false, nil
}

// Link-fail-inhibit timer register field layout: this package's own, since
// spec §6 names the two setters but never a register map for them. Bits
// 0-2 hold the timescale, bits 3-22 the count, bit 23 the use-default flag.
const (
	linkInhibitTimescaleShift = 0
	linkInhibitTimescaleMask  = uint32(0x7) << linkInhibitTimescaleShift
	linkInhibitCountShift     = 3
	linkInhibitCountMask      = uint32(0xFFFFF) << linkInhibitCountShift
	linkInhibitUseDefaultBit  = uint32(1) << 23
)

// LinkInhibitTimerAddr and LinkInhibitTimerKXAddr are this package's own
// register addresses for the two variants spec §6 names
// (an_73_set_link_inhibit_timer / _kx); the KX register exists because
// 10GBASE-KX4 defines its own link-fail-inhibit timer separate from the
// general Clause 73 one.
const (
	LinkInhibitTimerAddr   uint32 = 0x1004
	LinkInhibitTimerKXAddr uint32 = 0x1008
)

// DefaultLinkInhibitHWMaxCount bounds the (timescale, count) search done by
// GetTimeScale/ComputeLinkInhibitTimer when the caller has no
// board-specific maximum count to pass instead.
const DefaultLinkInhibitHWMaxCount = 1 << 20

// setLinkInhibitTimer is the shared read-modify-write shape behind
// SetLinkInhibitTimer and SetLinkInhibitTimerKX: compute the (timescale,
// count) pair via ComputeLinkInhibitTimer, then fold it into addr under
// regLock, mirroring SetIgnoreNonce's register-lock-scoped RMW (spec §5).
func setLinkInhibitTimer(regs RegisterAccessor, regLock *sync.Mutex, port porttable.PortIndex, addr uint32, ms int, allowOutSpec bool, hwMaxCount int) error {
	ts, count, useDefault, err := ComputeLinkInhibitTimer(ms, allowOutSpec, hwMaxCount)
	if err != nil {
		return err
	}

	regLock.Lock()
	defer regLock.Unlock()
	v, err := regs.ReadRegister(port, addr)
	if err != nil {
		return fmt.Errorf("an: read link inhibit timer port=%d addr=%#x: %w", port, addr, err)
	}
	if useDefault {
		v |= linkInhibitUseDefaultBit
	} else {
		v &^= linkInhibitUseDefaultBit
		v &^= linkInhibitTimescaleMask | linkInhibitCountMask
		v |= uint32(ts)<<linkInhibitTimescaleShift | uint32(count)<<linkInhibitCountShift
	}
	if err := regs.WriteRegister(port, addr, v); err != nil {
		return fmt.Errorf("an: write link inhibit timer port=%d addr=%#x: %w", port, addr, err)
	}
	return nil
}

// SetLinkInhibitTimer implements an_73_set_link_inhibit_timer (spec §6)
// against LinkInhibitTimerAddr.
func SetLinkInhibitTimer(regs RegisterAccessor, regLock *sync.Mutex, port porttable.PortIndex, ms int, allowOutSpec bool, hwMaxCount int) error {
	return setLinkInhibitTimer(regs, regLock, port, LinkInhibitTimerAddr, ms, allowOutSpec, hwMaxCount)
}

// SetLinkInhibitTimerKX implements an_73_set_link_inhibit_timer_kx (spec
// §6): identical computation and RMW shape to SetLinkInhibitTimer, against
// the separate 10GBASE-KX4 register.
func SetLinkInhibitTimerKX(regs RegisterAccessor, regLock *sync.Mutex, port porttable.PortIndex, ms int, allowOutSpec bool, hwMaxCount int) error {
	return setLinkInhibitTimer(regs, regLock, port, LinkInhibitTimerKXAddr, ms, allowOutSpec, hwMaxCount)
}
