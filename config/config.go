// Package config holds the five configuration fields spec §6 names
// ("Configuration recognised") plus the debug bit-flag categories spec §7
// names ("structured logs under MOD_STATE_DEBUG, MOD_TYPE_DEBUG,
// MOD_INTR_DEBUG categories"). It supports both a YAML file
// (gopkg.in/yaml.v3, grounded on samoyed/src/deviceid.go's
// yaml.Unmarshal-into-a-typed-struct shape) and pflag command-line flags
// (grounded on samoyed/cmd/direwolf/main.go and intel-PerfSpect/cmd/*'s
// spf13/pflag usage) over the same struct.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// DebugFlags is the CFG_DBG_* bitset spec §6/§7 describes.
type DebugFlags uint32

const (
	// DebugModState gates the MOD_STATE_DEBUG category: logging of
	// mod_state bit transitions in update-state.
	DebugModState DebugFlags = 1 << iota
	// DebugModType gates MOD_TYPE_DEBUG: EEPROM type/length decode logging.
	DebugModType
	// DebugModIntr gates MOD_INTR_DEBUG: AN interrupt-pending bit logging.
	DebugModIntr
)

// Has reports whether d contains every bit in want.
func (d DebugFlags) Has(want DebugFlags) bool { return d&want == want }

// GpioPortIntrUndefined is the sentinel for "no gpioPortIntr configured"
// (spec §6: "GPIO number used for port interrupts, or undefined").
const GpioPortIntrUndefined = -1

// Config holds the fields named in spec §6.
type Config struct {
	XcvrPollPeriodMsec  int        `yaml:"xcvrPollPeriodMsec"`
	GpioPortIntr        int        `yaml:"gpioPortIntr"`
	AnTimerAllowOutSpec bool       `yaml:"anTimerAllowOutSpec"`
	AutoNeg25GNxtPgOui  uint32     `yaml:"autoNeg25GNxtPgOui"`
	Debug               DebugFlags `yaml:"debug"`
}

// Default returns the configuration a switch starts with absent any file
// or flags: polling enabled at 1s (spec §5 "default 1s"), no configured
// interrupt GPIO, spec-range timers, no 25G OUI filtering, no debug.
func Default() Config {
	return Config{
		XcvrPollPeriodMsec: 1000,
		GpioPortIntr:       GpioPortIntrUndefined,
	}
}

// RegisterFlags binds fs's flags to c's fields, following samoyed's
// direwolf main.go pattern of one pflag.*P call per option; fs.Parse is
// left to the caller so cmd/xcvrctl can add its own flags first.
func RegisterFlags(fs *pflag.FlagSet, c *Config) {
	fs.IntVar(&c.XcvrPollPeriodMsec, "poll-period", c.XcvrPollPeriodMsec, "Transceiver poll period in milliseconds; 0 disables the management task.")
	fs.IntVar(&c.GpioPortIntr, "gpio-port-intr", c.GpioPortIntr, "GPIO line number for port interrupts; -1 for none.")
	fs.BoolVar(&c.AnTimerAllowOutSpec, "an-timer-allow-out-spec", c.AnTimerAllowOutSpec, "Widen the link-fail-inhibit timer's valid range to the hardware maximum.")
	fs.Uint32Var(&c.AutoNeg25GNxtPgOui, "autoneg-25g-oui", c.AutoNeg25GNxtPgOui, "Expected OUI in the 25G next-page extended-technology-ability message.")
	fs.Uint32Var((*uint32)(&c.Debug), "debug", uint32(c.Debug), "Debug category bitmask (1=mod_state 2=mod_type 4=mod_intr).")
}

// LoadFile reads and unmarshals a YAML config file over Default(), the same
// "unmarshal onto a typed struct" shape as samoyed's deviceid.go.
func LoadFile(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return c, nil
}
