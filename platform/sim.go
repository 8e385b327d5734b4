package platform

import (
	"sync"

	"xcvrswitch.dev/porttable"
)

type simEepromKey struct {
	port porttable.PortIndex
	dev  int
}

// SimFacade is an in-memory facade implementing every optional
// capability, used by mgmt's tests and cmd/xcvrctl's default simulated
// mode. Unlike
// HWFacade it supports BulkStateReader/IntrPendingReader/IntrEnabler and
// Configure1000BaseTAutoneg, so tests can exercise the interrupt-driven
// update-state path as well as the enumerate-everything fallback.
type SimFacade struct {
	mu sync.Mutex

	valid   map[int]uint32
	state   map[int]uint32
	pending []int
	enabled map[int]bool

	eeprom map[simEepromKey][]byte

	rateControl map[porttable.PortIndex]byte
	phyAN       map[porttable.PortIndex]bool
	gpioDir     map[int]bool
	regs        map[porttable.PortIndex]map[uint32]uint32

	selectErr error
}

// NewSimFacade creates an empty simulated facade.
func NewSimFacade() *SimFacade {
	return &SimFacade{
		valid:       make(map[int]uint32),
		state:       make(map[int]uint32),
		enabled:     make(map[int]bool),
		eeprom:      make(map[simEepromKey][]byte),
		rateControl: make(map[porttable.PortIndex]byte),
		phyAN:       make(map[porttable.PortIndex]bool),
		gpioDir:     make(map[int]bool),
		regs:        make(map[porttable.PortIndex]map[uint32]uint32),
	}
}

// SetModState sets the valid/value bitsets GetPortXcvrState returns for
// hwResID.
func (s *SimFacade) SetModState(hwResID int, valid, state uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.valid[hwResID] = valid
	s.state[hwResID] = state
}

// QueueInterrupt appends hwResID to the pending-interrupt queue
// GetPortIntrPending drains.
func (s *SimFacade) QueueInterrupt(hwResID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, hwResID)
}

// SetSelectBusErr makes the next SelectBus calls fail with err (nil to
// clear), exercising the "select_bus errors are logged and do not abort"
// path.
func (s *SimFacade) SetSelectBusErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectErr = err
}

// SetEeprom installs the raw bytes read back by XcvrEepromRead/
// I2CWriteRead for (port, dev), indexed from byte 0.
func (s *SimFacade) SetEeprom(port porttable.PortIndex, dev int, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.eeprom[simEepromKey{port, dev}] = buf
}

// RateControlByte returns the last byte ConfigureSfppRateControl wrote
// for port.
func (s *SimFacade) RateControlByte(port porttable.PortIndex) (byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rateControl[port]
	return b, ok
}

// PHYAutonegEnabled returns the last value Configure1000BaseTAutoneg was
// called with for port.
func (s *SimFacade) PHYAutonegEnabled(port porttable.PortIndex) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.phyAN[port]
	return v, ok
}

func (s *SimFacade) SelectBus(kind BusKind, hwResID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectErr
}

func (s *SimFacade) I2CWriteRead(port porttable.PortIndex, dev, reg int, write []byte, readLen int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := simEepromKey{port, dev}
	buf := s.eeprom[key]
	if len(write) > 0 {
		buf = growTo(buf, reg+len(write))
		copy(buf[reg:], write)
		s.eeprom[key] = buf
	}
	if readLen == 0 {
		return nil, nil
	}
	out := make([]byte, readLen)
	if reg < len(buf) {
		copy(out, buf[reg:])
	}
	return out, nil
}

func (s *SimFacade) XcvrMemWrite(port porttable.PortIndex, dev, reg int, data []byte) error {
	_, err := s.I2CWriteRead(port, dev, reg, data, 0)
	return err
}

func (s *SimFacade) XcvrEepromRead(port porttable.PortIndex, dev, reg, length int) ([]byte, error) {
	return s.I2CWriteRead(port, dev, reg, nil, length)
}

func (s *SimFacade) GetPortXcvrState(hwResIDs []int) ([]uint32, []uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	valid := make([]uint32, len(hwResIDs))
	state := make([]uint32, len(hwResIDs))
	for i, id := range hwResIDs {
		valid[i] = s.valid[id]
		state[i] = s.state[id]
	}
	return valid, state, nil
}

func (s *SimFacade) GetPortIntrPending(cap int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cap <= 0 || cap > len(s.pending) {
		cap = len(s.pending)
	}
	out := append([]int(nil), s.pending[:cap]...)
	s.pending = s.pending[cap:]
	return out, nil
}

func (s *SimFacade) EnablePortIntr(hwResIDs []int, enable []bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range hwResIDs {
		s.enabled[id] = enable[i]
	}
	return nil
}

func (s *SimFacade) GpioSetDir(gpio int, output bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gpioDir[gpio] = output
	return nil
}

func (s *SimFacade) GpioUnmaskIntr(gpio int) error {
	return nil
}

func (s *SimFacade) ConfigureSfppRateControl(port porttable.PortIndex, rateByte byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateControl[port] = rateByte
	return nil
}

func (s *SimFacade) Configure1000BaseTAutoneg(port porttable.PortIndex, enable bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phyAN[port] = enable
	return nil
}

// ReadRegister / WriteRegister implement platform.RegisterAccessor (and
// structurally an.RegisterAccessor) for tests exercising
// an_73_set_ignore_nonce without real hardware.
func (s *SimFacade) ReadRegister(port porttable.PortIndex, addr uint32) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[port][addr], nil
}

func (s *SimFacade) WriteRegister(port porttable.PortIndex, addr uint32, val uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.regs[port]
	if !ok {
		m = make(map[uint32]uint32)
		s.regs[port] = m
	}
	m[addr] = val
	return nil
}

func growTo(buf []byte, n int) []byte {
	if len(buf) >= n {
		return buf
	}
	out := make([]byte, n)
	copy(out, buf)
	return out
}
