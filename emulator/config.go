package emulator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ezrec/pulseos/memory"
	"github.com/ezrec/pulseos/sched"
)

// DEFAULT_CLOCK is the default pulse period.
const DEFAULT_CLOCK = 10 * time.Millisecond

// Config is the machine configuration.
//
//	sections = 3
//	quantum = 6
//	clock = "10ms"
//	verbose = false
//	cores = "/var/tmp/pulseos"
//	listen = "localhost:6502"
type Config struct {
	Sections int           `toml:"sections"` // Memory size, in sections.
	Quantum  int           `toml:"quantum"`  // Time slice, in cycles.
	Clock    time.Duration `toml:"clock"`    // Pulse period.
	Verbose  bool          `toml:"verbose"`
	Cores    string        `toml:"cores"`  // Core dump directory, if any.
	Listen   string        `toml:"listen"` // Status server address, if any.
}

// DefaultConfig returns the default machine configuration.
func DefaultConfig() Config {
	return Config{
		Sections: memory.SECTION_COUNT,
		Quantum:  sched.DEFAULT_QUANTUM,
		Clock:    DEFAULT_CLOCK,
	}
}

// Validate checks the configuration values.
func (cfg Config) Validate() (err error) {
	var errs []error
	if cfg.Sections < 1 {
		errs = append(errs, fmt.Errorf("%w: sections %d", ErrConfig, cfg.Sections))
	}
	if cfg.Quantum < 1 {
		errs = append(errs, fmt.Errorf("%w: quantum %d", ErrConfig, cfg.Quantum))
	}
	if cfg.Clock <= 0 {
		errs = append(errs, fmt.Errorf("%w: clock %v", ErrConfig, cfg.Clock))
	}
	err = errors.Join(errs...)
	return
}

// decoded finishes a TOML decode: unknown keys are rejected.
func decoded(cfg Config, md toml.MetaData, err error) (Config, error) {
	if err != nil {
		return cfg, err
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for n, key := range undecoded {
			keys[n] = key.String()
		}
		return cfg, fmt.Errorf("%w: %v", ErrConfigKey, strings.Join(keys, ", "))
	}

	return cfg, cfg.Validate()
}

// ParseConfig decodes a TOML configuration over the defaults.
func ParseConfig(text string) (cfg Config, err error) {
	cfg = DefaultConfig()
	md, err := toml.Decode(text, &cfg)
	return decoded(cfg, md, err)
}

// LoadConfig decodes a TOML configuration file over the defaults.
func LoadConfig(path string) (cfg Config, err error) {
	cfg = DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	return decoded(cfg, md, err)
}
