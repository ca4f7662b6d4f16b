// Package config resolves CLI settings from defaults, WHISTLE_*
// environment variables and explicitly set flags, in that order.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix marks environment variables read as settings:
// WHISTLE_MAX_DIAGNOSTICS sets max_diagnostics.
const EnvPrefix = "WHISTLE_"

// Mode is a tri-state switch used by --color and --ui.
type Mode string

const (
	ModeAuto Mode = "auto"
	ModeOn   Mode = "on"
	ModeOff  Mode = "off"
)

// Settings holds the resolved CLI configuration.
type Settings struct {
	Color          Mode          `koanf:"color"`
	Quiet          bool          `koanf:"quiet"`
	Timings        bool          `koanf:"timings"`
	MaxDiagnostics int           `koanf:"max_diagnostics"`
	LogLevel       string        `koanf:"log_level"`
	UI             Mode          `koanf:"ui"`
	CacheDir       string        `koanf:"cache_dir"`
	NoCache        bool          `koanf:"no_cache"`
	Timeout        time.Duration `koanf:"timeout"`
}

// Defaults returns the settings used when nothing overrides them.
func Defaults() Settings {
	return Settings{
		Color:          ModeAuto,
		MaxDiagnostics: 100,
		LogLevel:       "warn",
		UI:             ModeAuto,
	}
}

func defaultMap() map[string]any {
	d := Defaults()
	return map[string]any{
		"color":           string(d.Color),
		"quiet":           d.Quiet,
		"timings":         d.Timings,
		"max_diagnostics": d.MaxDiagnostics,
		"log_level":       d.LogLevel,
		"ui":              string(d.UI),
		"cache_dir":       d.CacheDir,
		"no_cache":        d.NoCache,
		"timeout":         d.Timeout.String(),
	}
}

// Load layers defaults, environment and flags. Only flags the user set
// explicitly take part, so a flag default never shadows an env value.
// flags may be nil.
func Load(flags *pflag.FlagSet) (Settings, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultMap(), "."), nil); err != nil {
		return Settings{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return Settings{}, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return Settings{}, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return Settings{}, fmt.Errorf("unable to decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate normalises mode strings and rejects unknown values.
func (s *Settings) Validate() error {
	var err error
	if s.Color, err = ParseMode("color", string(s.Color)); err != nil {
		return err
	}
	if s.UI, err = ParseMode("ui", string(s.UI)); err != nil {
		return err
	}
	if s.MaxDiagnostics < 0 {
		return fmt.Errorf("invalid max_diagnostics %d (must be >= 0)", s.MaxDiagnostics)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("invalid timeout %s (must be >= 0)", s.Timeout)
	}
	if _, err := ParseLevel(s.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseMode accepts auto|on|off, case-insensitively. Empty means auto.
func ParseMode(name, value string) (Mode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return ModeAuto, nil
	case "on":
		return ModeOn, nil
	case "off":
		return ModeOff, nil
	default:
		return "", fmt.Errorf("invalid --%s value %q (expected auto|on|off)", name, value)
	}
}

// Resolve turns a Mode into a decision, consulting auto when needed.
func (m Mode) Resolve(auto func() bool) bool {
	switch m {
	case ModeOn:
		return true
	case ModeOff:
		return false
	default:
		return auto != nil && auto()
	}
}
