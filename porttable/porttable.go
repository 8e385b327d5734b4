// Package porttable holds the per-switch port table: the per-port-index
// transceiver record and autonegotiation extension described in spec §3,
// plus the EPL-lane-to-port-index fan-out map (spec §9, "Fan-out over QSFP
// lanes").
//
// Records are addressed by PortIndex, a small integer handle into an array
// owned by the switch (spec §9: "model it as ... index handles (not
// pointers)"), never by pointer.
package porttable

import "xcvrswitch.dev/xcvrerr"

// PortIndex addresses a row of the port table.
type PortIndex int

const invalidIndex PortIndex = -1

// IntfType is the physical interface kind a port config declares.
type IntfType int

const (
	IntfOther IntfType = iota
	IntfSFPP
	IntfQSFPLane0
	IntfQSFPLane1
	IntfQSFPLane2
	IntfQSFPLane3
)

func (t IntfType) IsQSFPLane() bool {
	return t == IntfQSFPLane0 || t == IntfQSFPLane1 || t == IntfQSFPLane2 || t == IntfQSFPLane3
}

func (t IntfType) String() string {
	switch t {
	case IntfSFPP:
		return "SFPP"
	case IntfQSFPLane0:
		return "QSFP_LANE0"
	case IntfQSFPLane1:
		return "QSFP_LANE1"
	case IntfQSFPLane2:
		return "QSFP_LANE2"
	case IntfQSFPLane3:
		return "QSFP_LANE3"
	default:
		return "OTHER"
	}
}

// ModBit is a bit within TransceiverRecord.ModState.
type ModBit uint32

const (
	ModPresent ModBit = 1 << iota
	ModEnable
	ModRXLoss
	ModTXFault
	ModIntr
)

// EthMode is the current negotiated or administratively set ethernet mode.
type EthMode int

const (
	EthDisabled EthMode = iota
	EthSGMII
	Eth1000BaseX
	Eth1000BaseKX
	EthAN73
	Eth10GBaseKR
	Eth25GBaseKR
	Eth25GBaseCR
	Eth40GBaseKR4
	Eth40GBaseCR4
	Eth100GBaseKR4
	Eth100GBaseCR4
)

func (m EthMode) String() string {
	switch m {
	case EthDisabled:
		return "DISABLED"
	case EthSGMII:
		return "SGMII"
	case Eth1000BaseX:
		return "1000BASE_X"
	case Eth1000BaseKX:
		return "1000BASE_KX"
	case EthAN73:
		return "AN_73"
	case Eth10GBaseKR:
		return "10GBASE_KR"
	case Eth25GBaseKR:
		return "25GBASE_KR"
	case Eth25GBaseCR:
		return "25GBASE_CR"
	case Eth40GBaseKR4:
		return "40GBASE_KR4"
	case Eth40GBaseCR4:
		return "40GBASE_CR4"
	case Eth100GBaseKR4:
		return "100GBASE_KR4"
	case Eth100GBaseCR4:
		return "100GBASE_CR4"
	default:
		return "UNKNOWN_ETH_MODE"
	}
}

// Speed bits used both for PortConfig.DeclaredCapabilities and for the
// Clause 73 ability field (spec §4.5/§4.8).
type Speed uint32

const (
	Speed1000BaseKX Speed = 1 << iota
	Speed10GBaseKR
	Speed25GBaseKR
	Speed25GBaseCR
	Speed40GBaseKR4
	Speed40GBaseCR4
	Speed100GBaseKR4
	Speed100GBaseCR4
)

// XcvrType is the module identity as decoded from the EEPROM (spec §4.2).
type XcvrType int

const (
	TypeNotPresent XcvrType = iota
	TypeUnknown
	TypeSFPSR
	TypeSFPLR
	TypeSFP1000T
	TypeSFPDAC
	TypeSFPAOC
	TypeQSFPSR4
	TypeQSFPCR4
	TypeQSFPAOC
)

func (t XcvrType) String() string {
	switch t {
	case TypeNotPresent:
		return "NOT_PRESENT"
	case TypeSFPSR:
		return "SFP_SR"
	case TypeSFPLR:
		return "SFP_LR"
	case TypeSFP1000T:
		return "SFP_1000T"
	case TypeSFPDAC:
		return "SFP_DAC"
	case TypeSFPAOC:
		return "SFP_AOC"
	case TypeQSFPSR4:
		return "QSFP_SR4"
	case TypeQSFPCR4:
		return "QSFP_CR4"
	case TypeQSFPAOC:
		return "QSFP_AOC"
	default:
		return "UNKNOWN"
	}
}

// CacheSize is the number of bytes cached from the module EEPROM (a single
// SFF-8472/SFF-8436 lower page).
const CacheSize = 256

// Retry budgets (spec §4.3, exercised by scenario S3: "eeprom_read_retries
// = 4" after the first failed read).
const (
	MaxEepromReadRetry = 4
	MaxConfigRetry     = 4
)

// PortConfig is immutable for the session (spec §3).
type PortConfig struct {
	PortID               int
	IntfType             IntfType
	EPL                  int
	HwResourceID         int
	DeclaredCapabilities Speed
	InitialEthMode       EthMode
}

// TransceiverRecord is the per-port-index transceiver state (spec §3).
type TransceiverRecord struct {
	ModState ModBit
	Present  bool

	EthMode   EthMode
	AnEnabled bool

	// DesiredAnEnabled is the administratively requested 1000BASE-T AN
	// state (set by mgmt_config_sfpp_xcvr_autoneg); configure-sfpp-xcvr
	// reconciles AnEnabled to it.
	DesiredAnEnabled bool

	Type        XcvrType
	CableLength int // metres

	Eeprom          [CacheSize]byte
	EepromBaseValid bool
	EepromExtValid  bool

	EepromReadRetries int
	ConfigRetries     int

	Disabled bool
}

// ResetAbsent puts the record into the ¬present invariant state (spec §3,
// §8 invariant 1): cache wiped to 0xFF, type NOT_PRESENT, length 0, retry
// counters zeroed. Only the caller's own record is ever touched (spec §9
// Open Question 1).
func (r *TransceiverRecord) ResetAbsent() {
	for i := range r.Eeprom {
		r.Eeprom[i] = 0xFF
	}
	r.Type = TypeNotPresent
	r.CableLength = 0
	r.EepromReadRetries = 0
	r.ConfigRetries = 0
	r.EepromBaseValid = false
	r.EepromExtValid = false
}

// AnSmType identifies which AN state machine a port is currently bound to.
type AnSmType int

const (
	AnSmNone AnSmType = iota
	AnSmC37
	AnSmC73
)

func (t AnSmType) String() string {
	switch t {
	case AnSmC37:
		return "C37"
	case AnSmC73:
		return "C73"
	default:
		return "NONE"
	}
}

// AutonegMode is the mode requested of an_restart_on_new_config (spec §4.6).
type AutonegMode int

const (
	AutonegSGMII AutonegMode = iota
	AutonegClause37
	AutonegClause73
)

func (m AutonegMode) String() string {
	switch m {
	case AutonegClause37:
		return "CLAUSE_37"
	case AutonegClause73:
		return "CLAUSE_73"
	default:
		return "SGMII"
	}
}

// NextPageBit is the position of the "next page follows" bit within a
// 64-bit next-page word (Annex 28C framing).
const NextPageBit = 1 << 15

// ANPortExt is the per-port autonegotiation extension (spec §3).
type ANPortExt struct {
	AnSmType        AnSmType
	AnInterruptMask uint32

	BasePage    uint64
	NextPages   []uint64
	AutonegMode AutonegMode

	PartnerNextPages []uint64

	NegotiatedEEEEnabled bool
}

// SetNextPages stores an ordered next-page sequence, setting the next-page
// bit on every word but the last (spec §3 invariant: "Every next-page word
// set has the next-page bit set on every word except the last").
func (e *ANPortExt) SetNextPages(pages []uint64) {
	out := make([]uint64, len(pages))
	copy(out, pages)
	for i := range out {
		if i == len(out)-1 {
			out[i] &^= NextPageBit
		} else {
			out[i] |= NextPageBit
		}
	}
	e.NextPages = out
}

// Table is the switch-owned array of port configs, transceiver records and
// AN extensions, indexed by PortIndex, plus the EPL-lane fan-out map.
type Table struct {
	Configs  []PortConfig
	Xcvr     []TransceiverRecord
	An       []ANPortExt
	laneMap  map[int][4]PortIndex
}

// NewTable builds a port table from the immutable per-session configs.
// Indices are assigned in input order; the EPL-lane map is derived from
// each config's EPL and IntfType.
func NewTable(configs []PortConfig) *Table {
	t := &Table{
		Configs: append([]PortConfig(nil), configs...),
		Xcvr:    make([]TransceiverRecord, len(configs)),
		An:      make([]ANPortExt, len(configs)),
		laneMap: make(map[int][4]PortIndex),
	}
	for i := range t.Xcvr {
		t.Xcvr[i].ResetAbsent()
		t.Xcvr[i].EthMode = t.Configs[i].InitialEthMode
	}
	for idx, cfg := range t.Configs {
		if !cfg.IntfType.IsQSFPLane() {
			continue
		}
		lanes, ok := t.laneMap[cfg.EPL]
		if !ok {
			lanes = [4]PortIndex{invalidIndex, invalidIndex, invalidIndex, invalidIndex}
		}
		lane := laneOf(cfg.IntfType)
		lanes[lane] = PortIndex(idx)
		t.laneMap[cfg.EPL] = lanes
	}
	return t
}

func laneOf(t IntfType) int {
	switch t {
	case IntfQSFPLane0:
		return 0
	case IntfQSFPLane1:
		return 1
	case IntfQSFPLane2:
		return 2
	case IntfQSFPLane3:
		return 3
	default:
		return 0
	}
}

// LanesOf returns the port-index of each of the four lanes belonging to
// epl; an undefined lane has index -1 and defined[lane] false, per spec §9 "expose it as a method
// lanes_of(epl) -> [Option<PortIndex>; 4]".
func (t *Table) LanesOf(epl int) (lanes [4]PortIndex, defined [4]bool) {
	for i := range lanes {
		lanes[i] = invalidIndex
	}
	raw, ok := t.laneMap[epl]
	if !ok {
		return lanes, defined
	}
	lanes = raw
	for i, idx := range lanes {
		defined[i] = idx != invalidIndex
	}
	return lanes, defined
}

// Len returns the number of port-index rows in the table.
func (t *Table) Len() int { return len(t.Configs) }

// EepromOwner returns the port-index that owns the EEPROM cache for idx:
// itself, unless idx is a QSFP lane 1-3, in which case queries redirect to
// that EPL's lane 0 (spec §3 invariant: "Only the port-index holding
// QSFP_LANE0 owns the EEPROM cache; queries on LANE1..3 redirect to LANE0").
func (t *Table) EepromOwner(idx PortIndex) (PortIndex, error) {
	if int(idx) < 0 || int(idx) >= len(t.Configs) {
		return invalidIndex, xcvrerr.ErrInvalidPort
	}
	cfg := t.Configs[idx]
	switch cfg.IntfType {
	case IntfQSFPLane1, IntfQSFPLane2, IntfQSFPLane3:
		lanes, defined := t.LanesOf(cfg.EPL)
		if !defined[0] {
			return invalidIndex, xcvrerr.ErrNotFound
		}
		return lanes[0], nil
	default:
		return idx, nil
	}
}

// PortIndexByHwResourceID resolves a hardware-resource id back to a port
// index, used by the interrupt-pending translation in mgmt's update-state
// (spec §4.3). Returns ok=false, never an error, so callers can count
// mismatches as a diagnostic rather than abort the sweep (spec §7).
func (t *Table) PortIndexByHwResourceID(hwResID int) (PortIndex, bool) {
	for i, cfg := range t.Configs {
		if cfg.HwResourceID == hwResID {
			return PortIndex(i), true
		}
	}
	return invalidIndex, false
}
