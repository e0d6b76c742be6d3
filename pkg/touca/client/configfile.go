package client

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfigFile reads a Config from a YAML file at path, matching the
// capture client's canonical option names (spec §6). A missing file is
// treated as an empty Config rather than an error, mirroring how the
// reference SDK treats an absent local config as "use defaults".
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfigFile persists cfg to path as YAML, creating or truncating
// the file.
func SaveConfigFile(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	return nil
}

// Merge overlays override's non-zero fields onto base, used to combine
// a saved local config with explicit call-site overrides before
// Resolve applies environment variables (spec §6's precedence:
// explicit config, then environment).
func Merge(base, override Config) Config {
	out := base
	if override.APIKey != "" {
		out.APIKey = override.APIKey
	}
	if override.APIURL != "" {
		out.APIURL = override.APIURL
	}
	if override.Team != "" {
		out.Team = override.Team
	}
	if override.Suite != "" {
		out.Suite = override.Suite
	}
	if override.Version != "" {
		out.Version = override.Version
	}
	if override.Offline != nil {
		out.Offline = override.Offline
	}
	if override.Concurrency != nil {
		out.Concurrency = override.Concurrency
	}
	return out
}
