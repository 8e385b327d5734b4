package mgmt

import (
	"xcvrswitch.dev/eeprom"
	"xcvrswitch.dev/platform"
	"xcvrswitch.dev/porttable"
	"xcvrswitch.dev/xcvrerr"
)

// readAndValidateEEPROM implements §4.3's read-and-validate-EEPROM: a
// single bulk read, parsed into the owning port's cache on success. On a
// first-attempt failure (retry == false) it arms the retry counter for
// the background sweep to pick up; a retry-attempt failure (retry ==
// true) leaves the counter to its caller, which has already decremented
// it, and leaves the type UNKNOWN.
func (e *Engine) readAndValidateEEPROM(idx porttable.PortIndex, retry bool) error {
	owner, err := e.Table.EepromOwner(idx)
	if err != nil {
		return err
	}
	rec := &e.Table.Xcvr[owner]

	reader, ok := e.Facade.(platform.EepromReader)
	if !ok {
		return xcvrerr.Unsupported("mgmt: facade has no EEPROM read capability")
	}

	buf, err := reader.XcvrEepromRead(owner, 0, 0, porttable.CacheSize)
	if err != nil {
		if !retry {
			rec.EepromReadRetries = porttable.MaxEepromReadRetry
		}
		return err
	}

	n := copy(rec.Eeprom[:], buf)
	for i := n; i < len(rec.Eeprom); i++ {
		rec.Eeprom[i] = 0xFF
	}
	rec.EepromBaseValid = eeprom.IsBaseCsumValid(rec.Eeprom[:])
	rec.EepromExtValid = rec.EepromBaseValid && eeprom.IsExtCsumValid(rec.Eeprom[:])
	rec.Type = eeprom.GetType(rec.Eeprom[:])
	rec.CableLength = eeprom.GetLength(rec.Eeprom[:])
	rec.EepromReadRetries = 0
	return nil
}
