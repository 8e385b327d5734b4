package an

import (
	"sync"
	"testing"

	"xcvrswitch.dev/porttable"
)

// regKey addresses one register of one port in fakeRegisters.
type regKey struct {
	port porttable.PortIndex
	addr uint32
}

// fakeRegisters is a minimal RegisterAccessor backed by a plain map keyed
// by (port, addr), for exercising register-level setters without a
// platform facade.
type fakeRegisters struct {
	mu   sync.Mutex
	regs map[regKey]uint32
}

func newFakeRegisters() *fakeRegisters {
	return &fakeRegisters{regs: make(map[regKey]uint32)}
}

func (f *fakeRegisters) ReadRegister(port porttable.PortIndex, addr uint32) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.regs[regKey{port, addr}], nil
}

func (f *fakeRegisters) WriteRegister(port porttable.PortIndex, addr uint32, val uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regs[regKey{port, addr}] = val
	return nil
}

func TestSetIgnoreNonceSetsAndClearsOnlyItsBit(t *testing.T) {
	regs := newFakeRegisters()
	var lock sync.Mutex
	const other = 1 << 4
	regs.regs[regKey{0, AN73CfgAddr}] = other

	if err := SetIgnoreNonce(regs, &lock, 0, AN73CfgAddr, true); err != nil {
		t.Fatalf("SetIgnoreNonce(true): %v", err)
	}
	v, _ := regs.ReadRegister(0, AN73CfgAddr)
	if v&AN73CfgIgnoreNonceMatchBit == 0 {
		t.Fatalf("IgnoreNonceMatch bit not set: %#x", v)
	}
	if v&other == 0 {
		t.Fatalf("SetIgnoreNonce(true) clobbered an unrelated bit: %#x", v)
	}

	if err := SetIgnoreNonce(regs, &lock, 0, AN73CfgAddr, false); err != nil {
		t.Fatalf("SetIgnoreNonce(false): %v", err)
	}
	v, _ = regs.ReadRegister(0, AN73CfgAddr)
	if v&AN73CfgIgnoreNonceMatchBit != 0 {
		t.Fatalf("IgnoreNonceMatch bit still set after SetIgnoreNonce(false): %#x", v)
	}
	if v&other == 0 {
		t.Fatalf("SetIgnoreNonce(false) clobbered an unrelated bit: %#x", v)
	}
}

func TestSetIgnoreNonceIsolatesPorts(t *testing.T) {
	regs := newFakeRegisters()
	var lock sync.Mutex

	if err := SetIgnoreNonce(regs, &lock, 1, AN73CfgAddr, true); err != nil {
		t.Fatalf("SetIgnoreNonce port=1: %v", err)
	}
	v, _ := regs.ReadRegister(2, AN73CfgAddr)
	if v&AN73CfgIgnoreNonceMatchBit != 0 {
		t.Fatalf("SetIgnoreNonce on port 1 leaked into port 2's read: %#x", v)
	}
}

func TestSetLinkInhibitTimerUseDefaultOnZero(t *testing.T) {
	regs := newFakeRegisters()
	var lock sync.Mutex
	regs.regs[regKey{0, LinkInhibitTimerAddr}] = uint32(5)<<linkInhibitTimescaleShift | uint32(7)<<linkInhibitCountShift

	if err := SetLinkInhibitTimer(regs, &lock, 0, 0, false, DefaultLinkInhibitHWMaxCount); err != nil {
		t.Fatalf("SetLinkInhibitTimer(0): %v", err)
	}
	v, _ := regs.ReadRegister(0, LinkInhibitTimerAddr)
	if v&linkInhibitUseDefaultBit == 0 {
		t.Fatalf("use-default bit not set: %#x", v)
	}
}

func TestSetLinkInhibitTimerRejectsOutOfRange(t *testing.T) {
	regs := newFakeRegisters()
	var lock sync.Mutex
	if err := SetLinkInhibitTimer(regs, &lock, 0, 9999, false, DefaultLinkInhibitHWMaxCount); err == nil {
		t.Fatalf("SetLinkInhibitTimer(9999ms) with allowOutSpec=false should fail")
	}
}

func TestSetLinkInhibitTimerAndKXUseSeparateRegisters(t *testing.T) {
	regs := newFakeRegisters()
	var lock sync.Mutex

	if err := SetLinkInhibitTimer(regs, &lock, 0, 100, false, DefaultLinkInhibitHWMaxCount); err != nil {
		t.Fatalf("SetLinkInhibitTimer: %v", err)
	}
	if err := SetLinkInhibitTimerKX(regs, &lock, 0, 200, false, DefaultLinkInhibitHWMaxCount); err != nil {
		t.Fatalf("SetLinkInhibitTimerKX: %v", err)
	}

	v, _ := regs.ReadRegister(0, LinkInhibitTimerAddr)
	vkx, _ := regs.ReadRegister(0, LinkInhibitTimerKXAddr)
	if v == vkx {
		t.Fatalf("SetLinkInhibitTimer and SetLinkInhibitTimerKX wrote the same encoding %#x to distinct registers; expected different ms to differ", v)
	}
}
