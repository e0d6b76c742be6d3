package client

import (
	"path/filepath"
	"testing"
)

func TestConfigFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	want := Config{APIKey: "secret", APIURL: "https://api.touca.io", Team: "acme"}

	if err := SaveConfigFile(path, want); err != nil {
		t.Fatalf("SaveConfigFile: %v", err)
	}
	got, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if got.APIKey != want.APIKey || got.APIURL != want.APIURL || got.Team != want.Team {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestConfigFileMissingIsEmpty(t *testing.T) {
	cfg, err := LoadConfigFile(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("expected missing file to be treated as empty config, got %v", err)
	}
	if cfg != (Config{}) {
		t.Fatalf("expected zero-value config, got %+v", cfg)
	}
}

func TestMergeOverridesNonZeroFields(t *testing.T) {
	base := Config{APIKey: "base-key", Team: "acme", Suite: "students"}
	override := Config{APIKey: "override-key"}
	merged := Merge(base, override)
	if merged.APIKey != "override-key" || merged.Team != "acme" || merged.Suite != "students" {
		t.Fatalf("unexpected merge result: %+v", merged)
	}
}

// TestMergeCanOverrideOfflineToFalse pins that an explicit
// Offline:false override takes effect even when the base config was
// saved with Offline:true — Offline is a *bool for exactly this reason,
// matching Concurrency's existing pointer pattern.
func TestMergeCanOverrideOfflineToFalse(t *testing.T) {
	base := Config{Offline: boolPtr(true)}
	override := Config{Offline: boolPtr(false)}
	merged := Merge(base, override)
	if merged.offlineEnabled() {
		t.Fatalf("expected explicit Offline:false override to take effect, got %+v", merged)
	}
}
