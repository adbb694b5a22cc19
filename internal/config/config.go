package config

import (
	"fmt"
	"time"
)

// Grid modes.
const (
	GridExact    = "exact"
	GridDoubling = "doubling"
)

// Defaults applied when neither a settings file, the environment nor a flag
// provides a value.
const (
	DefaultTemplate      = "_template.html"
	DefaultFallbackURL   = "https://vsoch.github.io/40-avocados/"
	DefaultNumber        = 40
	DefaultCheckTimeout  = 10 * time.Second
	DefaultGridMode      = GridExact
	DefaultServePort     = 1313
	DefaultDebounceDelay = 500 * time.Millisecond
)

// Settings holds the run-wide options around a generation run. The things
// themselves come from the configuration file passed on the command line.
type Settings struct {
	Template      string        `mapstructure:"template"`
	FallbackURL   string        `mapstructure:"fallback_url"`
	DefaultNumber int           `mapstructure:"default_number"`
	GridMode      string        `mapstructure:"grid_mode"`
	CheckTimeout  time.Duration `mapstructure:"check_timeout"`
	LinkBase      string        `mapstructure:"link_base"`
	Verbose       bool          `mapstructure:"verbose"`
}

// Default returns Settings populated with the built-in defaults.
func Default() Settings {
	return Settings{
		Template:      DefaultTemplate,
		FallbackURL:   DefaultFallbackURL,
		DefaultNumber: DefaultNumber,
		GridMode:      DefaultGridMode,
		CheckTimeout:  DefaultCheckTimeout,
	}
}

// Validate reports settings that cannot drive a run.
func (s Settings) Validate() error {
	if s.Template == "" {
		return fmt.Errorf("template path must not be empty")
	}
	if s.GridMode != GridExact && s.GridMode != GridDoubling {
		return fmt.Errorf("unknown grid mode %q (want %q or %q)", s.GridMode, GridExact, GridDoubling)
	}
	if s.CheckTimeout <= 0 {
		return fmt.Errorf("check timeout must be positive, got %s", s.CheckTimeout)
	}
	return nil
}
