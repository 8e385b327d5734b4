// Package platform is the thin capability-typed facade over the board's
// I²C/GPIO/interrupt hardware library (spec §4.1). Every capability is its
// own small interface; a concrete Facade implements whichever subset the
// board actually exposes, and callers type-assert for the capability they
// need the way driver/clrc663.go's callers type-assert a Device for the
// register subset a given command needs.
package platform

import "xcvrswitch.dev/porttable"

// BusKind names which shared bus a select_bus call is binding.
type BusKind int

const (
	BusI2C BusKind = iota
	BusSPI
)

// BusSelector binds the shared I²C mux to hw_res_id before a read/write
// sequence (spec §4.1: select_bus). Callers hold the bus lock across both
// the select and the following I/O.
type BusSelector interface {
	SelectBus(kind BusKind, hwResID int) error
}

// I2CAccessor is byte-level I²C access to a transceiver's management
// interface.
type I2CAccessor interface {
	I2CWriteRead(port porttable.PortIndex, dev, reg int, write []byte, readLen int) ([]byte, error)
	XcvrMemWrite(port porttable.PortIndex, dev, reg int, data []byte) error
}

// EepromReader is the compound EEPROM read, respecting page boundaries
// (spec §4.1: xcvr_eeprom_read).
type EepromReader interface {
	XcvrEepromRead(port porttable.PortIndex, dev, reg, length int) ([]byte, error)
}

// BulkStateReader returns, per queried hardware-resource id, which bits
// are meaningful (valid) and their value (spec §4.1: get_port_xcvr_state).
type BulkStateReader interface {
	GetPortXcvrState(hwResIDs []int) (valid []uint32, state []uint32, err error)
}

// IntrPendingReader dequeues edge-triggered pending ports (spec §4.1:
// get_port_intr_pending).
type IntrPendingReader interface {
	GetPortIntrPending(cap int) (hwResIDs []int, err error)
}

// IntrEnabler programs per-port interrupt enable bits (spec §4.1:
// enable_port_intr).
type IntrEnabler interface {
	EnablePortIntr(hwResIDs []int, enable []bool) error
}

// GpioController drives the board's GPIO lines (spec §4.1: gpio_set_dir,
// gpio_unmask_intr).
type GpioController interface {
	GpioSetDir(gpio int, output bool) error
	GpioUnmaskIntr(gpio int) error
}

// SfppXcvrConfigurer performs the EEPROM rate-control/1000BASE-T AN byte
// writes configure_sfpp_xcvr needs (spec §4.3). It is its own capability,
// separate from I2CAccessor, because some boards expose raw I²C access
// without the higher-level SFP+ config sequencing (SUPPLEMENTED FEATURES
// #5 / Open Question 3).
type SfppXcvrConfigurer interface {
	ConfigureSfppRateControl(port porttable.PortIndex, rateByte byte) error
	Configure1000BaseTAutoneg(port porttable.PortIndex, enable bool) error
}

// RegisterAccessor is the narrow register read/modify/write capability the
// AN path needs under the register lock (spec §5, §6: AN_73_CFG.
// IgnoreNonceMatch). It mirrors an.RegisterAccessor structurally so a
// Facade value satisfies both without either package importing the other.
type RegisterAccessor interface {
	ReadRegister(port porttable.PortIndex, addr uint32) (uint32, error)
	WriteRegister(port porttable.PortIndex, addr uint32, val uint32) error
}

// Capability is a bitset describing which of the above interfaces a given
// Facade value implements.
type Capability uint32

const (
	CapSelectBus Capability = 1 << iota
	CapI2CAccess
	CapEepromRead
	CapBulkState
	CapIntrPending
	CapIntrEnable
	CapGpio
	CapConfigureSfppXcvr
	CapRegisterAccess
)

// Capabilities inspects f and returns the set of capabilities it
// implements. All capabilities are optional (spec §4.1: "missing
// capabilities degrade cleanly"); callers must check before using one.
func Capabilities(f any) Capability {
	var c Capability
	if _, ok := f.(BusSelector); ok {
		c |= CapSelectBus
	}
	if _, ok := f.(I2CAccessor); ok {
		c |= CapI2CAccess
	}
	if _, ok := f.(EepromReader); ok {
		c |= CapEepromRead
	}
	if _, ok := f.(BulkStateReader); ok {
		c |= CapBulkState
	}
	if _, ok := f.(IntrPendingReader); ok {
		c |= CapIntrPending
	}
	if _, ok := f.(IntrEnabler); ok {
		c |= CapIntrEnable
	}
	if _, ok := f.(GpioController); ok {
		c |= CapGpio
	}
	if _, ok := f.(SfppXcvrConfigurer); ok {
		c |= CapConfigureSfppXcvr
	}
	if _, ok := f.(RegisterAccessor); ok {
		c |= CapRegisterAccess
	}
	return c
}

// Has reports whether c contains every bit in want.
func (c Capability) Has(want Capability) bool {
	return c&want == want
}
