// Upward API entry points from spec §6 that do not belong to the engine's
// own wake/sweep machinery (engine.go) or the retry/update algorithms
// (retry.go, update.go): mgmt_init, mgmt_xcvr_initialize,
// mgmt_enable_interrupt, mgmt_get_transceiver_type,
// mgmt_notify_eth_mode_change, mgmt_config_sfpp_xcvr_autoneg and
// mgmt_dump_port. Each spec function took an explicit sw switch handle;
// here that handle is the Engine receiver itself (spec §9: "rewrite as an
// array owned by the switch" — the switch IS the Engine in this module).
package mgmt

import (
	"fmt"
	"strings"

	"xcvrswitch.dev/an"
	"xcvrswitch.dev/eeprom"
	"xcvrswitch.dev/platform"
	"xcvrswitch.dev/porttable"
	"xcvrswitch.dev/xcvrerr"
)

// Init implements mgmt_init (spec §6): starts the background task if
// PollPeriod > 0; a zero poll period means "polling disabled" and mgmt
// relies entirely on explicit signals and synchronous calls.
func (e *Engine) Init() {
	if e.PollPeriod > 0 {
		e.Start()
	}
}

// XcvrInitialize implements mgmt_xcvr_initialize (spec §6): a one-time
// synchronous state+EEPROM sweep over every port, independent of
// enable_mgmt.
func (e *Engine) XcvrInitialize() {
	e.forcedSweep()
}

// EnableInterrupt implements mgmt_enable_interrupt (spec §6): programs the
// facade's per-port interrupt enables and the port-interrupt GPIO, runs one
// forced update sweep, then sets enable_mgmt. gpio < 0 means "no
// gpioPortIntr configured" (spec §6 config: "GPIO number ... or
// undefined"), in which case the GPIO step is skipped.
func (e *Engine) EnableInterrupt(gpio int) error {
	var firstErr error
	if en, ok := e.Facade.(platform.IntrEnabler); ok {
		hwIDs := make([]int, 0, e.Table.Len())
		enable := make([]bool, 0, e.Table.Len())
		for _, cfg := range e.Table.Configs {
			hwIDs = append(hwIDs, cfg.HwResourceID)
			enable = append(enable, true)
		}
		if err := en.EnablePortIntr(hwIDs, enable); err != nil {
			e.Log.logf("mgmt: enable_port_intr: %v", err)
			firstErr = err
		}
	}
	if gpio >= 0 {
		if gp, ok := e.Facade.(platform.GpioController); ok {
			if err := gp.GpioSetDir(gpio, false); err != nil {
				e.Log.logf("mgmt: gpio_set_dir: %v", err)
			}
			if err := gp.GpioUnmaskIntr(gpio); err != nil {
				e.Log.logf("mgmt: gpio_unmask_intr: %v", err)
			}
		}
	}
	e.forcedSweep()
	e.stateMu.Lock()
	e.enableMgmt = true
	e.stateMu.Unlock()
	return firstErr
}

// GetTransceiverType implements mgmt_get_transceiver_type (spec §6):
// redirects QSFP_LANE1..3 queries to lane 0, per the EEPROM-cache-ownership
// invariant (spec §3).
func (e *Engine) GetTransceiverType(port porttable.PortIndex) (porttable.XcvrType, int, error) {
	owner, err := e.Table.EepromOwner(port)
	if err != nil {
		return porttable.TypeNotPresent, 0, err
	}
	rec := &e.Table.Xcvr[owner]
	return rec.Type, rec.CableLength, nil
}

// NotifyEthModeChange implements mgmt_notify_eth_mode_change (spec §6):
// updates the cached eth_mode, re-applies SerDes TX config, and, for SFP+
// ports with a module present, either reconfigures inline (when polling is
// disabled, so no background sweep exists to do it) or schedules the
// config-retry sequence for the background sweep to pick up.
func (e *Engine) NotifyEthModeChange(port porttable.PortIndex, mode porttable.EthMode) error {
	e.swTok.Lock()
	defer e.swTok.Unlock()

	if int(port) < 0 || int(port) >= e.Table.Len() {
		return xcvrerr.ErrInvalidPort
	}
	rec := &e.Table.Xcvr[port]
	rec.EthMode = mode

	if err := e.updateSerDes(port); err != nil {
		e.Log.logf("mgmt: update_serdes on eth_mode change port=%d: %v", port, err)
	}

	cfg := e.Table.Configs[port]
	if cfg.IntfType != porttable.IntfSFPP || !rec.Present {
		return nil
	}

	if e.PollPeriod <= 0 {
		return e.configureSfppXcvr(port)
	}
	rec.ConfigRetries = porttable.MaxConfigRetry
	e.SignalPollingThread()
	return nil
}

// ConfigSfppXcvrAutoneg implements mgmt_config_sfpp_xcvr_autoneg (spec §6):
// records the administratively desired 1000BASE-T AN state and schedules a
// background config retry to apply it; unsupported when polling is
// disabled, since there is no background sweep to schedule onto.
func (e *Engine) ConfigSfppXcvrAutoneg(port porttable.PortIndex, enable bool) error {
	if e.PollPeriod <= 0 {
		return xcvrerr.Unsupported("mgmt: config_sfpp_xcvr_autoneg requires polling to be enabled")
	}
	if int(port) < 0 || int(port) >= e.Table.Len() {
		return xcvrerr.ErrInvalidPort
	}
	e.swTok.Lock()
	rec := &e.Table.Xcvr[port]
	rec.DesiredAnEnabled = enable
	rec.ConfigRetries = porttable.MaxConfigRetry
	e.swTok.Unlock()
	e.SignalPollingThread()
	return nil
}

// DumpPort implements mgmt_dump_port (spec §6, §7: "the diagnostic dump
// command prints every cached field").
func (e *Engine) DumpPort(port porttable.PortIndex) (string, error) {
	if int(port) < 0 || int(port) >= e.Table.Len() {
		return "", xcvrerr.ErrInvalidPort
	}
	cfg := e.Table.Configs[port]
	rec := &e.Table.Xcvr[port]
	ext := &e.Table.An[port]

	var b strings.Builder
	fmt.Fprintf(&b, "port %d (hw_res_id=%d epl=%d intf=%v):\n", port, cfg.HwResourceID, cfg.EPL, cfg.IntfType)
	fmt.Fprintf(&b, "  mod_state=%#x present=%v disabled=%v\n", rec.ModState, rec.Present, rec.Disabled)
	fmt.Fprintf(&b, "  eth_mode=%v an_enabled=%v desired_an_enabled=%v\n", rec.EthMode, rec.AnEnabled, rec.DesiredAnEnabled)
	fmt.Fprintf(&b, "  type=%v cable_length=%dm\n", rec.Type, rec.CableLength)
	fmt.Fprintf(&b, "  eeprom_base_valid=%v eeprom_ext_valid=%v\n", rec.EepromBaseValid, rec.EepromExtValid)
	fmt.Fprintf(&b, "  eeprom_read_retries=%d config_retries=%d\n", rec.EepromReadRetries, rec.ConfigRetries)
	fmt.Fprintf(&b, "  dual_rate=%v 1000base_t=%v\n", eeprom.Is10G1GDualRate(rec.Eeprom[:]), eeprom.Is1000BaseT(rec.Eeprom[:]))
	fmt.Fprintf(&b, "  an_sm_type=%v an_interrupt_mask=%#x autoneg_mode=%v\n", ext.AnSmType, ext.AnInterruptMask, ext.AutonegMode)
	fmt.Fprintf(&b, "  base_page=%#x next_pages=%d partner_next_pages=%d\n", ext.BasePage, len(ext.NextPages), len(ext.PartnerNextPages))
	fmt.Fprintf(&b, "  negotiated_eee_enabled=%v\n", ext.NegotiatedEEEEnabled)
	return b.String(), nil
}

// AN73SetIgnoreNonce implements an_73_set_ignore_nonce (spec §6):
// register-lock-scoped read-modify-write of AN_73_CFG.IgnoreNonceMatch.
// Unsupported on facades that don't implement register access (e.g. a
// board facade without a register map wired in).
func (e *Engine) AN73SetIgnoreNonce(port porttable.PortIndex, ignore bool) error {
	regs, ok := e.Facade.(platform.RegisterAccessor)
	if !ok {
		return xcvrerr.Unsupported("mgmt: an_73_set_ignore_nonce requires a register-accessing facade")
	}
	return an.SetIgnoreNonce(regs, &e.regLock, port, an.AN73CfgAddr, ignore)
}

// AN73SetLinkInhibitTimer implements an_73_set_link_inhibit_timer (spec
// §6): ms == 0 requests the hardware default; otherwise ms is validated
// against an.LinkInhibitTimerRange(e.AnTimerAllowOutSpec).
func (e *Engine) AN73SetLinkInhibitTimer(port porttable.PortIndex, ms int) error {
	regs, ok := e.Facade.(platform.RegisterAccessor)
	if !ok {
		return xcvrerr.Unsupported("mgmt: an_73_set_link_inhibit_timer requires a register-accessing facade")
	}
	return an.SetLinkInhibitTimer(regs, &e.regLock, port, ms, e.AnTimerAllowOutSpec, an.DefaultLinkInhibitHWMaxCount)
}

// AN73SetLinkInhibitTimerKX implements an_73_set_link_inhibit_timer_kx
// (spec §6): identical validation and RMW shape to
// AN73SetLinkInhibitTimer, against the separate 10GBASE-KX4 register.
func (e *Engine) AN73SetLinkInhibitTimerKX(port porttable.PortIndex, ms int) error {
	regs, ok := e.Facade.(platform.RegisterAccessor)
	if !ok {
		return xcvrerr.Unsupported("mgmt: an_73_set_link_inhibit_timer_kx requires a register-accessing facade")
	}
	return an.SetLinkInhibitTimerKX(regs, &e.regLock, port, ms, e.AnTimerAllowOutSpec, an.DefaultLinkInhibitHWMaxCount)
}
