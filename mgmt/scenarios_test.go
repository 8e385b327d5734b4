package mgmt

import (
	"errors"
	"testing"

	"xcvrswitch.dev/platform"
	"xcvrswitch.dev/porttable"
)

// recordingSerDes counts ApplySingleLane/ApplyMultiLane calls for the
// end-to-end scenario tests.
type recordingSerDes struct {
	singleLaneCalls int
	lastEthMode     porttable.EthMode

	multiLaneCalls int
	lastEPL        int
	lastMultiMode  porttable.EthMode
}

func (r *recordingSerDes) ApplySingleLane(port porttable.PortIndex, mode porttable.EthMode) error {
	r.singleLaneCalls++
	r.lastEthMode = mode
	return nil
}

func (r *recordingSerDes) ApplyMultiLane(epl int, mode porttable.EthMode) error {
	r.multiLaneCalls++
	r.lastEPL = epl
	r.lastMultiMode = mode
	return nil
}

// recordingNotifier counts the upward XcvrStateEvent/NotifyXcvrChange
// calls the scenarios in spec §8 assert on.
type recordingNotifier struct {
	stateEvents  int
	changeEvents int
}

func (r *recordingNotifier) NotifyXcvrChange(porttable.PortIndex, ChangeBits) { r.changeEvents++ }
func (r *recordingNotifier) XcvrStateEvent(porttable.PortIndex, ChangeBits)   { r.stateEvents++ }

// buildSFPEeprom returns a base-page buffer with a valid checksum and the
// identifier/compliance bits the eeprom package decodes. dualRate and
// thousandBaseT toggle the two capability bits configure-sfpp-xcvr reads.
func buildSFPEeprom(tenGSR, dualRate, thousandBaseT bool) []byte {
	buf := make([]byte, 256)
	buf[0] = 0x03 // identifierSFP
	buf[2] = 0x00 // connector: not the DAC copper-pigtail code
	if tenGSR {
		buf[3] = 1 << 4 // compliance10GBaseSR
	}
	if thousandBaseT {
		buf[6] = 1 << 3 // ethCompliance1000BaseT
	}
	if dualRate {
		buf[13] = 1 << 2 // rateIDDualRate
	}
	var sum byte
	for _, b := range buf[:63] {
		sum += b
	}
	buf[63] = sum
	return buf
}

// buildQSFPEeprom returns a valid-checksum QSFP lower-page buffer
// (identifier 0x0D, SR4: no copper-pigtail connector, no OM3 length).
func buildQSFPEeprom() []byte {
	buf := make([]byte, 256)
	buf[0] = 0x0D // identifierQSFPPlus
	buf[2] = 0x00
	var sum byte
	for _, b := range buf[:63] {
		sum += b
	}
	buf[63] = sum
	return buf
}

func sfppTable(ethMode porttable.EthMode) (*porttable.Table, porttable.PortIndex) {
	t := porttable.NewTable([]porttable.PortConfig{
		{PortID: 1, IntfType: porttable.IntfSFPP, EPL: 0, HwResourceID: 10, InitialEthMode: ethMode},
	})
	return t, porttable.PortIndex(0)
}

func newTestEngine(table *porttable.Table, facade any) (*Engine, *recordingSerDes, *recordingNotifier) {
	e := NewEngine(table, facade, nil, 0)
	sd := &recordingSerDes{}
	notif := &recordingNotifier{}
	e.SerDes = sd
	e.Notifier = notif
	return e, sd, notif
}

// TestScenarioS1ModuleInsertionSFPPOptical is S1: a present+enabled optical
// SFP+ with a valid, non-dual-rate, non-1000BASE-T EEPROM. Expect one
// MODPRES XCVR event, SerDes reconfigured once, and config_retries == 0
// after a single configure_sfpp_xcvr call that issues no I²C writes.
func TestScenarioS1ModuleInsertionSFPPOptical(t *testing.T) {
	table, port := sfppTable(porttable.EthSGMII)
	facade := platform.NewSimFacade()
	facade.SetModState(10, uint32(porttable.ModPresent|porttable.ModEnable), uint32(porttable.ModPresent|porttable.ModEnable))
	facade.SetEeprom(port, 0, buildSFPEeprom(true, false, false))

	e, sd, notif := newTestEngine(table, facade)

	e.updateState(false, false)

	rec := &table.Xcvr[port]
	if !rec.Present {
		t.Fatalf("Present = false, want true")
	}
	if rec.Type != porttable.TypeSFPSR {
		t.Fatalf("Type = %v, want SFP_SR", rec.Type)
	}
	if rec.ConfigRetries != 0 {
		t.Fatalf("ConfigRetries = %d, want 0 (single configure_sfpp_xcvr call should have succeeded immediately)", rec.ConfigRetries)
	}
	if sd.singleLaneCalls != 1 {
		t.Fatalf("SerDes single-lane calls = %d, want 1", sd.singleLaneCalls)
	}
	if notif.changeEvents != 1 {
		t.Fatalf("NotifyXcvrChange calls = %d, want 1 (one MODPRES XCVR event)", notif.changeEvents)
	}
	if notif.stateEvents != 1 {
		t.Fatalf("XcvrStateEvent calls = %d, want 1", notif.stateEvents)
	}
	if _, ok := facade.RateControlByte(port); ok {
		t.Fatalf("RateControlByte written, want no I²C writes for a non-dual-rate optical module")
	}
}

// TestScenarioS2ModuleInsertion1000BaseTWithAN is S2: a 1G copper SFP whose
// EEPROM identifies 1000BASE-T, with AN administratively requested.
// Expect configure_sfpp_xcvr to call the PHY's 1000BASE-T AN enable with
// enable=true, and an_enabled to flip to true.
func TestScenarioS2ModuleInsertion1000BaseTWithAN(t *testing.T) {
	table, port := sfppTable(porttable.EthSGMII)
	facade := platform.NewSimFacade()
	facade.SetModState(10, uint32(porttable.ModPresent|porttable.ModEnable), uint32(porttable.ModPresent|porttable.ModEnable))
	facade.SetEeprom(port, 0, buildSFPEeprom(false, false, true))

	e, _, _ := newTestEngine(table, facade)

	// AN requested administratively before the module is reconciled, the
	// way mgmt_config_sfpp_xcvr_autoneg would have recorded it.
	table.Xcvr[port].DesiredAnEnabled = true

	e.updateState(false, false)

	rec := &table.Xcvr[port]
	if rec.Type != porttable.TypeSFP1000T {
		t.Fatalf("Type = %v, want SFP_1000T", rec.Type)
	}
	if !rec.AnEnabled {
		t.Fatalf("AnEnabled = false, want true")
	}
	en, ok := facade.PHYAutonegEnabled(port)
	if !ok {
		t.Fatalf("Configure1000BaseTAutoneg was never called")
	}
	if !en {
		t.Fatalf("Configure1000BaseTAutoneg called with enable=false, want true")
	}
}

// flakyEepromFacade wraps a SimFacade and fails the first N
// XcvrEepromRead calls, then delegates normally; it otherwise satisfies
// every capability SimFacade does (BusSelector, BulkStateReader, ...) by
// embedding it, exercising the background retry sweeps scenario S3
// requires without needing a real I²C bus.
type flakyEepromFacade struct {
	*platform.SimFacade
	failuresLeft int
}

func (f *flakyEepromFacade) XcvrEepromRead(port porttable.PortIndex, dev, reg, length int) ([]byte, error) {
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return nil, errors.New("i2c: transient bus error")
	}
	return f.SimFacade.XcvrEepromRead(port, dev, reg, length)
}

// TestScenarioS3TransientEEPROMReadFailure is S3: the first EEPROM read
// fails, arming eeprom_read_retries = 4; three more poll-cycle retries
// fail, decrementing without success; the fourth retry succeeds and
// update-SerDes runs exactly once.
func TestScenarioS3TransientEEPROMReadFailure(t *testing.T) {
	table, port := sfppTable(porttable.EthSGMII)
	sim := platform.NewSimFacade()
	sim.SetEeprom(port, 0, buildSFPEeprom(true, false, false))
	facade := &flakyEepromFacade{SimFacade: sim, failuresLeft: 4}

	e, sd, _ := newTestEngine(table, facade)
	rec := &table.Xcvr[port]

	if err := e.readAndValidateEEPROM(port, false); err == nil {
		t.Fatalf("first read unexpectedly succeeded")
	}
	if rec.EepromReadRetries != porttable.MaxEepromReadRetry {
		t.Fatalf("EepromReadRetries = %d, want %d after the first failure", rec.EepromReadRetries, porttable.MaxEepromReadRetry)
	}
	if sd.singleLaneCalls != 0 {
		t.Fatalf("SerDes called before any successful read")
	}

	// Three more poll cycles still fail (facade.failuresLeft started at 4:
	// one consumed above, three more here).
	for i := 0; i < 3; i++ {
		e.retryEepromReadSweep()
	}
	if rec.EepromReadRetries != porttable.MaxEepromReadRetry-3 {
		t.Fatalf("EepromReadRetries = %d after 3 failed retries, want %d", rec.EepromReadRetries, porttable.MaxEepromReadRetry-3)
	}
	if sd.singleLaneCalls != 0 {
		t.Fatalf("SerDes called before the retry sweep succeeded")
	}

	// Fourth retry: the facade stops failing, so this read succeeds.
	e.retryEepromReadSweep()
	if rec.EepromReadRetries != 0 {
		t.Fatalf("EepromReadRetries = %d, want 0 after the successful retry", rec.EepromReadRetries)
	}
	if rec.Type != porttable.TypeSFPSR {
		t.Fatalf("Type = %v, want SFP_SR once the read succeeds", rec.Type)
	}
	if sd.singleLaneCalls != 1 {
		t.Fatalf("SerDes single-lane calls = %d, want exactly 1", sd.singleLaneCalls)
	}
}

// TestScenarioQSFPBreakoutNotifiesOncePerDefinedLane exercises the §8
// boundary case: a QSFP_LANE0 port running in 4×1 breakout mode fires the
// API-level notification exactly once per defined lane-port whose
// eth_mode != DISABLED, and the application-level event exactly once.
func TestScenarioQSFPBreakoutNotifiesOncePerDefinedLane(t *testing.T) {
	table := porttable.NewTable([]porttable.PortConfig{
		{PortID: 1, IntfType: porttable.IntfQSFPLane0, EPL: 5, HwResourceID: 20, InitialEthMode: porttable.EthSGMII},
		{PortID: 2, IntfType: porttable.IntfQSFPLane1, EPL: 5, HwResourceID: 21, InitialEthMode: porttable.EthSGMII},
		{PortID: 3, IntfType: porttable.IntfQSFPLane2, EPL: 5, HwResourceID: 22, InitialEthMode: porttable.EthDisabled},
		{PortID: 4, IntfType: porttable.IntfQSFPLane3, EPL: 5, HwResourceID: 23, InitialEthMode: porttable.EthSGMII},
	})
	facade := platform.NewSimFacade()
	lane0 := porttable.PortIndex(0)
	facade.SetModState(20, uint32(porttable.ModPresent|porttable.ModEnable), uint32(porttable.ModPresent|porttable.ModEnable))
	facade.SetEeprom(lane0, 0, buildQSFPEeprom())

	e, _, notif := newTestEngine(table, facade)
	e.updateState(false, false)

	if notif.stateEvents != 1 {
		t.Fatalf("XcvrStateEvent calls = %d, want 1", notif.stateEvents)
	}
	// Lanes 0,1,3 have eth_mode != DISABLED; lane 2 is disabled and must
	// not receive a notification.
	if notif.changeEvents != 3 {
		t.Fatalf("NotifyXcvrChange calls = %d, want 3 (one per enabled defined lane)", notif.changeEvents)
	}
}

// TestScenarioQSFPMultiLaneNotifiesFourTimesOnLane0 exercises the
// complementary §8 boundary case to the breakout test above: a QSFP_LANE0
// port whose EPL has no lanes 1-3 defined runs in multi-lane mode, not
// breakout, so update-SerDes takes the ApplyMultiLane branch (mgmt/serdes.go)
// once, and emitChange's multi-lane fan-out (mgmt/update.go) notifies
// exactly once per loop iteration 0..3, all on the lane-0 port index.
func TestScenarioQSFPMultiLaneNotifiesFourTimesOnLane0(t *testing.T) {
	table := porttable.NewTable([]porttable.PortConfig{
		{PortID: 1, IntfType: porttable.IntfQSFPLane0, EPL: 5, HwResourceID: 20, InitialEthMode: porttable.EthSGMII},
	})
	facade := platform.NewSimFacade()
	lane0 := porttable.PortIndex(0)
	facade.SetModState(20, uint32(porttable.ModPresent|porttable.ModEnable), uint32(porttable.ModPresent|porttable.ModEnable))
	facade.SetEeprom(lane0, 0, buildQSFPEeprom())

	e, sd, notif := newTestEngine(table, facade)
	e.updateState(false, false)

	if notif.stateEvents != 1 {
		t.Fatalf("XcvrStateEvent calls = %d, want 1", notif.stateEvents)
	}
	if notif.changeEvents != 4 {
		t.Fatalf("NotifyXcvrChange calls = %d, want 4 (once per lane 0..3, all on lane 0)", notif.changeEvents)
	}
	if sd.multiLaneCalls != 1 {
		t.Fatalf("SerDes multi-lane calls = %d, want 1 (ApplyMultiLane, not the breakout fan-out)", sd.multiLaneCalls)
	}
	if sd.singleLaneCalls != 0 {
		t.Fatalf("SerDes single-lane calls = %d, want 0 in multi-lane mode", sd.singleLaneCalls)
	}
	if sd.lastEPL != 5 {
		t.Fatalf("ApplyMultiLane epl = %d, want 5", sd.lastEPL)
	}
	if sd.lastMultiMode != porttable.EthSGMII {
		t.Fatalf("ApplyMultiLane mode = %v, want EthSGMII", sd.lastMultiMode)
	}
}
