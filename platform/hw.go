//go:build linux

// HWFacade is the real board implementation of the platform facade,
// grounded on input/input.go's periph.io GPIO usage and
// driver/clrc663.go's register read/write-over-a-bus shape, generalized
// from a single fixed chip to the variable (dev, reg) addressing SFF-8472
// EEPROM access needs. Like wake.go's EventfdSemaphore, it depends on
// Linux-only primitives (go-gpiocdev's character-device ioctls), hence
// the build tag.
package platform

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
	"periph.io/x/conn/v3/i2c"
	"xcvrswitch.dev/porttable"
	"xcvrswitch.dev/xcvrerr"
)

// HWFacade implements BusSelector, I2CAccessor, EepromReader,
// GpioController and SfppXcvrConfigurer. It leaves BulkStateReader,
// IntrPendingReader and IntrEnabler unimplemented. Without
// IntrPendingReader the mgmt engine's update-state enumerates every
// SFP+/QSFP_LANE0 port; without BulkStateReader it then returns without
// reading any module state, so update-state detects no module-bit changes
// on this facade.
type HWFacade struct {
	bus          i2c.Bus
	muxAddr      uint16 // 0 disables the mux write (single shared bus).
	xcvrBaseAddr uint16 // SFF-8472 device-0 address; device 1 is xcvrBaseAddr+1.

	portIntr       *gpiocdev.Line
	portIntrOffset int
}

// NewHWFacade opens the board's I²C bus handle and, if chipPath is
// non-empty, requests the port-interrupt GPIO line, wiring onInterrupt to
// fire on every edge (spec §4.1 gpio_unmask_intr / §6
// mgmt_signal_interrupt).
func NewHWFacade(bus i2c.Bus, muxAddr, xcvrBaseAddr uint16, chipPath string, intrOffset int, onInterrupt func()) (*HWFacade, error) {
	h := &HWFacade{
		bus:          bus,
		muxAddr:      muxAddr,
		xcvrBaseAddr: xcvrBaseAddr,
	}
	if chipPath == "" {
		return h, nil
	}
	line, err := gpiocdev.RequestLine(chipPath, intrOffset,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) {
			if onInterrupt != nil {
				onInterrupt()
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("platform: request port interrupt line: %w", err)
	}
	h.portIntr = line
	h.portIntrOffset = intrOffset
	return h, nil
}

// Close releases the port-interrupt GPIO line, if one was opened.
func (h *HWFacade) Close() error {
	if h.portIntr == nil {
		return nil
	}
	return h.portIntr.Close()
}

// SelectBus writes the mux-select byte addressing hwResID's sub-bus
// (PCA954x-style mux), if a mux address was configured.
func (h *HWFacade) SelectBus(kind BusKind, hwResID int) error {
	if kind != BusI2C {
		return xcvrerr.Unsupported("platform: only I2C bus select is implemented")
	}
	if h.muxAddr == 0 {
		return nil
	}
	sel := byte(1 << uint(hwResID%8))
	if err := h.bus.Tx(h.muxAddr, []byte{sel}, nil); err != nil {
		return fmt.Errorf("platform: select_bus mux write hw_res_id=%d: %w", hwResID, xcvrerr.ErrI2cBusFailure)
	}
	return nil
}

func (h *HWFacade) deviceAddr(dev int) uint16 {
	return h.xcvrBaseAddr + uint16(dev)
}

// I2CWriteRead writes reg (and any payload) then reads readLen bytes back,
// the SFF-8472 convention of addressing a register by writing its offset
// before reading.
func (h *HWFacade) I2CWriteRead(port porttable.PortIndex, dev, reg int, write []byte, readLen int) ([]byte, error) {
	wbuf := append([]byte{byte(reg)}, write...)
	var rbuf []byte
	if readLen > 0 {
		rbuf = make([]byte, readLen)
	}
	if err := h.bus.Tx(h.deviceAddr(dev), wbuf, rbuf); err != nil {
		return nil, fmt.Errorf("platform: i2c_write_read port=%d dev=%d reg=%d: %w", port, dev, reg, xcvrerr.ErrI2cBusFailure)
	}
	return rbuf, nil
}

// XcvrMemWrite writes data starting at reg.
func (h *HWFacade) XcvrMemWrite(port porttable.PortIndex, dev, reg int, data []byte) error {
	_, err := h.I2CWriteRead(port, dev, reg, data, 0)
	return err
}

// XcvrEepromRead is the compound read the mgmt task's EEPROM read and
// retry sweep use; SFF-8472/8436 pages never span more than 256
// bytes so no page-boundary splitting is needed here.
func (h *HWFacade) XcvrEepromRead(port porttable.PortIndex, dev, reg, length int) ([]byte, error) {
	return h.I2CWriteRead(port, dev, reg, nil, length)
}

// ConfigureSfppRateControl writes rateByte to both the RX and TX rate
// control offsets (spec §4.3: "both RX and TX rate control").
func (h *HWFacade) ConfigureSfppRateControl(port porttable.PortIndex, rateByte byte) error {
	const offRXRateControl = 110
	const offTXRateControl = 118
	if err := h.XcvrMemWrite(port, 1, offRXRateControl, []byte{rateByte}); err != nil {
		return err
	}
	return h.XcvrMemWrite(port, 1, offTXRateControl, []byte{rateByte})
}

// Configure1000BaseTAutoneg is out of scope for this board: 1000BASE-T AN
// enable/disable lives in the external PHY driver (spec §1 non-goal list),
// so this reports unsupported rather than silently doing nothing.
func (h *HWFacade) Configure1000BaseTAutoneg(port porttable.PortIndex, enable bool) error {
	return xcvrerr.Unsupported("platform: 1000BASE-T PHY AN control requires the external PHY driver")
}

// GpioSetDir rejects attempts to reconfigure the port-interrupt line's
// direction: go-gpiocdev fixes direction at request time, and that line
// is always input.
func (h *HWFacade) GpioSetDir(gpio int, output bool) error {
	if h.portIntr != nil && gpio == h.portIntrOffset && output {
		return xcvrerr.Unsupported("platform: port interrupt gpio is input-only")
	}
	return nil
}

// GpioUnmaskIntr is a no-op: go-gpiocdev re-arms its edge watch
// automatically after delivering each event.
func (h *HWFacade) GpioUnmaskIntr(gpio int) error {
	return nil
}
