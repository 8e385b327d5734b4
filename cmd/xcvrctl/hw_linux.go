//go:build linux

// Wires the real board platform facade (platform.HWFacade over a periph.io
// I²C bus plus a go-gpiocdev port-interrupt line) and the eventfd-backed
// wake semaphore for --hw, paralleling seedhammer's platform_rpi.go /
// platform_dummy.go build-tag split between the real board and the
// simulated path.
package main

import (
	"fmt"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"xcvrswitch.dev/mgmt"
	"xcvrswitch.dev/platform"
)

// newHWHandles opens busName (the empty string selects periph's default
// I²C bus) and wires a real platform facade plus eventfd semaphore over
// it. onInterrupt fires on every edge of the gpiochip/intrOffset line
// when chipPath is non-empty (spec §4.1 gpio_unmask_intr); closeFn
// releases the GPIO line, the eventfd and the I²C bus in that order.
func newHWHandles(busName string, muxAddr, xcvrAddr uint16, chipPath string, intrOffset int, onInterrupt func()) (facade any, sem mgmt.WakeSemaphore, closeFn func(), err error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, nil, fmt.Errorf("xcvrctl: periph host init: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("xcvrctl: open i2c bus %q: %w", busName, err)
	}
	hwFacade, err := platform.NewHWFacade(bus, muxAddr, xcvrAddr, chipPath, intrOffset, onInterrupt)
	if err != nil {
		bus.Close()
		return nil, nil, nil, err
	}
	eventfdSem, err := platform.NewEventfdSemaphore()
	if err != nil {
		hwFacade.Close()
		bus.Close()
		return nil, nil, nil, err
	}
	return hwFacade, eventfdSem, func() {
		hwFacade.Close()
		eventfdSem.Close()
		bus.Close()
	}, nil
}
