package client

import (
	"fmt"
	"os"

	"github.com/trytouca/touca-go/pkg/touca/platform"
)

// Config holds the capture SDK's configuration surface (spec §6,
// "Client configuration"). Canonical option names match the spec;
// TOUCA_* environment variables, when present, override their
// corresponding explicit field.
type Config struct {
	APIKey  string `yaml:"api_key"`
	APIURL  string `yaml:"api_url"`
	Team    string `yaml:"team"`
	Suite   string `yaml:"suite"`
	Version string `yaml:"version"`

	// Offline skips auth and submit entirely; captures still work.
	// Unset (nil) means false. A pointer distinguishes "not set"
	// from "explicitly set to false" the same way Concurrency does,
	// so Merge can override a saved true back to false.
	Offline *bool `yaml:"offline,omitempty"`

	// Concurrency selects shared selection (spec §4.3) when true or nil
	// (the documented default), and per-caller selection when explicitly
	// false. A pointer distinguishes "not set" from "set to false" the
	// way viper's config-file binding does.
	Concurrency *bool `yaml:"concurrency,omitempty"`
}

// offlineEnabled returns cfg's effective offline setting, defaulting
// to false when unset.
func (cfg Config) offlineEnabled() bool {
	return cfg.Offline != nil && *cfg.Offline
}

// concurrencyEnabled returns cfg's effective concurrency setting,
// defaulting to true when unset.
func (cfg Config) concurrencyEnabled() bool {
	return cfg.Concurrency == nil || *cfg.Concurrency
}

// applyEnvOverrides overwrites cfg's fields from TOUCA_API_KEY,
// TOUCA_API_URL, and TOUCA_TEST_VERSION when set, per spec §6.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TOUCA_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("TOUCA_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("TOUCA_TEST_VERSION"); v != "" {
		cfg.Version = v
	}
}

// resolved is the fully reconciled configuration a Client is built
// from: api_url parsed, team/suite/version merged and conflict-checked.
type resolved struct {
	Config
	Address platform.Address
}

// Resolve validates cfg, applies environment overrides, and merges the
// api_url's trailing `/@/team/suite/version` path (if any) against the
// explicit team/suite/version fields. A merge conflict is a
// config_error (spec §4.6).
func Resolve(cfg Config) (resolved, error) {
	applyEnvOverrides(&cfg)

	if cfg.APIURL == "" {
		if cfg.offlineEnabled() {
			return resolved{Config: cfg}, nil
		}
		return resolved{}, fmt.Errorf("%w: api_url is required unless offline", platform.ErrConfig)
	}

	addr, err := platform.ParseAddress(cfg.APIURL)
	if err != nil {
		return resolved{}, err
	}

	team, suite, version, err := platform.Reconcile(addr, cfg.Team, cfg.Suite, cfg.Version)
	if err != nil {
		return resolved{}, err
	}
	cfg.Team, cfg.Suite, cfg.Version = team, suite, version

	return resolved{Config: cfg, Address: addr}, nil
}
