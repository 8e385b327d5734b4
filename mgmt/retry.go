package mgmt

import (
	"xcvrswitch.dev/eeprom"
	"xcvrswitch.dev/platform"
	"xcvrswitch.dev/porttable"
	"xcvrswitch.dev/xcvrerr"
)

// retryEepromReadSweep implements §4.3's retry-eeprom-read sweep: every
// port with a positive retry counter is decremented and retried; a
// success zeroes the counter and chains into update-SerDes only (no XCVR
// config on this path — that is retry-config's job).
func (e *Engine) retryEepromReadSweep() {
	for i := 0; i < e.Table.Len(); i++ {
		idx := porttable.PortIndex(i)
		rec := &e.Table.Xcvr[idx]
		if rec.EepromReadRetries <= 0 {
			continue
		}
		rec.EepromReadRetries--
		if err := e.readAndValidateEEPROM(idx, true); err != nil {
			continue
		}
		_ = e.updateSerDes(idx)
	}
}

// retryConfigSweep implements §4.3's retry-config sweep: every SFP+ port
// with a valid base EEPROM and a positive config-retry counter is
// decremented and reconfigured; a final failure (counter reaches 0) is
// logged, not retried further.
func (e *Engine) retryConfigSweep() {
	for i := 0; i < e.Table.Len(); i++ {
		idx := porttable.PortIndex(i)
		if e.Table.Configs[i].IntfType != porttable.IntfSFPP {
			continue
		}
		rec := &e.Table.Xcvr[idx]
		if !rec.EepromBaseValid || rec.ConfigRetries <= 0 {
			continue
		}
		rec.ConfigRetries--
		if err := e.configureSfppXcvr(idx); err != nil {
			if rec.ConfigRetries == 0 {
				e.Log.logf("mgmt: config retry exhausted for port %d: %v", idx, err)
			}
			continue
		}
		rec.ConfigRetries = 0
	}
}

// configureSfppXcvr implements §4.3's configure-sfpp-xcvr policy.
func (e *Engine) configureSfppXcvr(idx porttable.PortIndex) error {
	rec := &e.Table.Xcvr[idx]
	if rec.ModState&porttable.ModEnable == 0 {
		return nil
	}

	cfgr, ok := e.Facade.(platform.SfppXcvrConfigurer)
	if !ok {
		return xcvrerr.Unsupported("mgmt: facade has no SFP+ config capability")
	}

	if eeprom.Is10G1GDualRate(rec.Eeprom[:]) {
		rateByte := byte(0x08)
		switch rec.EthMode {
		case porttable.EthDisabled, porttable.EthSGMII, porttable.Eth1000BaseX, porttable.Eth1000BaseKX:
			rateByte = 0x00
		}
		if err := cfgr.ConfigureSfppRateControl(idx, rateByte); err != nil {
			return err
		}
	}

	if eeprom.Is1000BaseT(rec.Eeprom[:]) && rec.DesiredAnEnabled != rec.AnEnabled {
		if err := cfgr.Configure1000BaseTAutoneg(idx, rec.DesiredAnEnabled); err != nil {
			return err
		}
		rec.AnEnabled = rec.DesiredAnEnabled
	}
	return nil
}
