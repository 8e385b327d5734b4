// Package eeprom decodes the cached SFF-8472 (SFP/SFP+) and SFF-8436
// (QSFP) lower-page EEPROM layout into the fields the transceiver
// management engine needs (spec §4.2). Every function here is pure: no
// I/O, no locking, just byte-buffer decoding so it can be unit tested
// without a bus.
package eeprom

import "xcvrswitch.dev/porttable"

// Byte offsets within the cached lower page (SFF-8472 table 3.1 / SFF-8436
// table 7-3; QSFP and SFP share the offsets this package reads).
const (
	offIdentifier = 0  // Physical device identifier.
	offConnector  = 2
	off10GCompliance = 3
	offEthCompliance = 6  // 1000BASE-T lives here per SFF-8472 table 3.4.
	offRateID     = 13 // SFF-8472 "Rate Identifier"; bit 0x04 ~ dual-rate capable (table 3.17).
	offLength9u   = 14
	offLengthOM3  = 19
	offLengthCu   = 18
	offVendorName = 20
	offBaseCsum   = 63 // Covers bytes 0..62.
	offExtStart   = 64
	offExtCsum    = 95 // Covers bytes 64..94.
)

const (
	identifierSFP  = 0x03
	identifierQSFP = 0x0C
	identifierQSFPPlus = 0x0D

	ethCompliance1000BaseT = 1 << 3
	compliance10GBaseSR    = 1 << 4
	compliance10GBaseLR    = 1 << 5

	rateIDDualRate = 1 << 2 // Table 3.17: dual-rate 1G/10G select supported.

	connectorCopperPigtail = 0x21 // DAC/AOC style connector code.
)

// IsBaseCsumValid reports whether the base-page checksum (byte 63, sum of
// bytes 0..62 mod 256) matches.
func IsBaseCsumValid(buf []byte) bool {
	if len(buf) <= offBaseCsum {
		return false
	}
	return checksum(buf[:offBaseCsum]) == buf[offBaseCsum]
}

// IsExtCsumValid reports whether the extended-ID checksum (byte 95, sum of
// bytes 64..94 mod 256) matches.
func IsExtCsumValid(buf []byte) bool {
	if len(buf) <= offExtCsum {
		return false
	}
	return checksum(buf[offExtStart:offExtCsum]) == buf[offExtCsum]
}

func checksum(b []byte) byte {
	var sum byte
	for _, v := range b {
		sum += v
	}
	return sum
}

// GetType decodes the module identity. A module with an invalid base
// checksum is UNKNOWN, never a specific type. A valid base checksum with an
// identifier byte other than SFP, QSFP or QSFP+ is UNKNOWN as well, so a
// valid base checksum alone does not rule out UNKNOWN.
func GetType(buf []byte) porttable.XcvrType {
	if len(buf) <= offBaseCsum || allFF(buf) {
		return porttable.TypeNotPresent
	}
	if !IsBaseCsumValid(buf) {
		return porttable.TypeUnknown
	}
	switch buf[offIdentifier] {
	case identifierSFP:
		if buf[offConnector] == connectorCopperPigtail {
			return porttable.TypeSFPDAC
		}
		if Is1000BaseT(buf) {
			return porttable.TypeSFP1000T
		}
		switch {
		case buf[off10GCompliance]&compliance10GBaseLR != 0:
			return porttable.TypeSFPLR
		case buf[off10GCompliance]&compliance10GBaseSR != 0:
			return porttable.TypeSFPSR
		default:
			return porttable.TypeSFPAOC
		}
	case identifierQSFP, identifierQSFPPlus:
		if buf[offConnector] == connectorCopperPigtail {
			return porttable.TypeQSFPCR4
		}
		if buf[offLengthOM3] > 0 {
			return porttable.TypeQSFPAOC
		}
		return porttable.TypeQSFPSR4
	default:
		return porttable.TypeUnknown
	}
}

func allFF(buf []byte) bool {
	for _, b := range buf {
		if b != 0xFF {
			return false
		}
	}
	return true
}

// GetLength returns the cable length in metres; 0 for optical modules or
// when unknown (spec §4.2).
func GetLength(buf []byte) int {
	if len(buf) <= offLengthCu {
		return 0
	}
	switch GetType(buf) {
	case porttable.TypeSFPDAC, porttable.TypeQSFPCR4:
		return int(buf[offLengthCu])
	case porttable.TypeSFPAOC, porttable.TypeQSFPAOC:
		return int(buf[off10GCompliance+1]) // Active-cable length field, whole metres.
	default:
		return 0
	}
}

// Is1000BaseT reports the 1000BASE-T compliance bit (SFF-8472 table 3.4).
func Is1000BaseT(buf []byte) bool {
	if len(buf) <= offEthCompliance {
		return false
	}
	return buf[offEthCompliance]&ethCompliance1000BaseT != 0
}

// Is10G1GDualRate reports the dual-rate (1G/10G) capability bit (SFF-8472
// table 3.17).
func Is10G1GDualRate(buf []byte) bool {
	if len(buf) <= offRateID {
		return false
	}
	return buf[offRateID]&rateIDDualRate != 0
}
