// Command xcvrctl is the transceiver/autonegotiation diagnostic CLI spec
// §6's mgmt_dump_port upward API needs a presentation for (SPEC_FULL.md
// SUPPLEMENTED FEATURES #1). It drives an in-process simulated switch by
// default, drives a real board with --hw, or fetches the same dump text
// from a live switch's diagnostic console over a serial line (--serial),
// grounded on
// cmd/controller/main.go's run() error shape and driver/mjolnir/device.go's
// tarm/serial dial pattern.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/tarm/serial"

	"xcvrswitch.dev/config"
	"xcvrswitch.dev/mgmt"
	"xcvrswitch.dev/platform"
	"xcvrswitch.dev/porttable"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "xcvrctl: %v\n", err)
		os.Exit(2)
	}
}

func run() error {
	cfg := config.Default()
	fs := pflag.NewFlagSet("xcvrctl", pflag.ExitOnError)
	configFile := fs.String("config", "", "Optional YAML config file (overrides flag defaults).")
	serialDev := fs.String("serial", "", "Fetch the dump from a live switch's diagnostic console on this serial device instead of simulating one.")
	port := fs.Int("port", -1, "Dump only this port index; -1 dumps every port.")
	hw := fs.Bool("hw", false, "Drive a real board instead of the simulator (requires linux): opens --i2c-bus and, if --gpiochip is set, the port-interrupt line on it.")
	i2cBus := fs.String("i2c-bus", "", "periph.io I2C bus name to open for --hw (empty selects the host's default bus).")
	muxAddr := fs.Uint16("mux-addr", 0, "I2C mux 7-bit address for --hw; 0 disables the mux select write (single shared bus).")
	xcvrAddr := fs.Uint16("xcvr-addr", 0x50, "SFF-8472 EEPROM device-0 I2C address for --hw.")
	gpiochip := fs.String("gpiochip", "", "gpiochip device path for the port-interrupt line under --hw; empty skips GPIO wiring.")
	config.RegisterFlags(fs, &cfg)
	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}
	if *configFile != "" {
		fileCfg, err := config.LoadFile(*configFile)
		if err != nil {
			return err
		}
		cfg = fileCfg
	}

	if *serialDev != "" {
		return dumpOverSerial(*serialDev, *port)
	}
	if *hw {
		return dumpReal(cfg, *port, *i2cBus, *muxAddr, *xcvrAddr, *gpiochip)
	}
	return dumpSimulated(cfg, *port)
}

// dumpOverSerial dials the switch's management UART and requests a
// mgmt_dump_port-style diagnostic dump, the same request/response framing
// role tarm/serial plays for driver/tmc2209/uart.go elsewhere in the pack.
func dumpOverSerial(dev string, port int) error {
	c := &serial.Config{Name: dev, Baud: 115200, ReadTimeout: 2 * time.Second}
	s, err := serial.OpenPort(c)
	if err != nil {
		return fmt.Errorf("xcvrctl: open %s: %w", dev, err)
	}
	defer s.Close()

	if _, err := fmt.Fprintf(s, "DUMP %d\n", port); err != nil {
		return fmt.Errorf("xcvrctl: write dump request: %w", err)
	}
	r := bufio.NewReader(s)
	for {
		line, err := r.ReadString('\n')
		if len(line) > 0 {
			fmt.Print(line)
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("xcvrctl: read dump response: %w", err)
		}
	}
}

// dumpSimulated builds an in-process switch over platform.SimFacade,
// drives mgmt_init/mgmt_xcvr_initialize on a small sample port table, and
// prints mgmt_dump_port for the requested port(s).
func dumpSimulated(cfg config.Config, port int) error {
	table := porttable.NewTable(sampleConfigs())
	facade := platform.NewSimFacade()
	sem := platform.NewChanSemaphore()

	e := mgmt.NewEngine(table, facade, sem, time.Duration(cfg.XcvrPollPeriodMsec)*time.Millisecond)
	e.Init()
	defer e.Stop()
	e.XcvrInitialize()

	return printDumps(e, table, port)
}

// dumpReal wires the real board facade (platform.HWFacade over a periph.io
// I2C bus, plus go-gpiocdev's port-interrupt line) and the eventfd-backed
// wake semaphore via --hw, drives mgmt_init/mgmt_enable_interrupt on the
// sample port table, and prints mgmt_dump_port for the requested port(s).
// It is the real-hardware twin of dumpSimulated, the way
// cmd/controller/platform_rpi.go is seedhammer's real-hardware twin of
// platform_dummy.go.
func dumpReal(cfg config.Config, port int, i2cBus string, muxAddr, xcvrAddr uint16, gpiochip string) error {
	table := porttable.NewTable(sampleConfigs())

	// eng is assigned once the engine exists; the GPIO event handler is
	// wired before that, so it closes over this pointer rather than the
	// engine itself.
	var eng *mgmt.Engine
	facade, sem, closeHW, err := newHWHandles(i2cBus, muxAddr, xcvrAddr, gpiochip, cfg.GpioPortIntr, func() {
		if eng != nil {
			eng.SignalInterrupt()
		}
	})
	if err != nil {
		return err
	}
	defer closeHW()

	e := mgmt.NewEngine(table, facade, sem, time.Duration(cfg.XcvrPollPeriodMsec)*time.Millisecond)
	eng = e
	e.Init()
	defer e.Stop()
	if err := e.EnableInterrupt(cfg.GpioPortIntr); err != nil {
		fmt.Fprintf(os.Stderr, "xcvrctl: enable_interrupt: %v\n", err)
	}

	return printDumps(e, table, port)
}

// printDumps prints mgmt_dump_port for port, or every port in table when
// port is negative.
func printDumps(e *mgmt.Engine, table *porttable.Table, port int) error {
	if port >= 0 {
		dump, err := e.DumpPort(porttable.PortIndex(port))
		if err != nil {
			return err
		}
		fmt.Print(dump)
		return nil
	}
	for i := 0; i < table.Len(); i++ {
		dump, err := e.DumpPort(porttable.PortIndex(i))
		if err != nil {
			return err
		}
		fmt.Print(dump)
	}
	return nil
}

// sampleConfigs is a small illustrative port table: two SFP+ ports and one
// 4-lane QSFP (breakout) EPL.
func sampleConfigs() []porttable.PortConfig {
	return []porttable.PortConfig{
		{PortID: 1, IntfType: porttable.IntfSFPP, HwResourceID: 1, DeclaredCapabilities: porttable.Speed10GBaseKR},
		{PortID: 2, IntfType: porttable.IntfSFPP, HwResourceID: 2, DeclaredCapabilities: porttable.Speed10GBaseKR},
		{PortID: 3, IntfType: porttable.IntfQSFPLane0, EPL: 1, HwResourceID: 3, DeclaredCapabilities: porttable.Speed100GBaseKR4 | porttable.Speed40GBaseKR4 | porttable.Speed25GBaseKR},
		{PortID: 4, IntfType: porttable.IntfQSFPLane1, EPL: 1, HwResourceID: 4, DeclaredCapabilities: porttable.Speed25GBaseKR},
		{PortID: 5, IntfType: porttable.IntfQSFPLane2, EPL: 1, HwResourceID: 5, DeclaredCapabilities: porttable.Speed25GBaseKR},
		{PortID: 6, IntfType: porttable.IntfQSFPLane3, EPL: 1, HwResourceID: 6, DeclaredCapabilities: porttable.Speed25GBaseKR},
	}
}
