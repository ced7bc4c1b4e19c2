package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultsApplyWhenUnset(t *testing.T) {
	cfg := DefaultRunConfig()

	if got := cfg.GetChunkSize(); got != DefaultChunkSize {
		t.Fatalf("chunk size: got %d", got)
	}
	if got := cfg.GetExpectedYear(); got != DefaultExpectedYear {
		t.Fatalf("expected year: got %d", got)
	}
	if got := cfg.GetMaxTripDistanceMiles(); got != DefaultMaxDistance {
		t.Fatalf("max distance: got %g", got)
	}
	if got := cfg.GetDBPath(); got != DefaultDBPath {
		t.Fatalf("db path: got %q", got)
	}
	if got := cfg.GetAuditPath(); got != DefaultAuditPath {
		t.Fatalf("audit path: got %q", got)
	}
}

func TestLoadRunConfigPartialFile(t *testing.T) {
	path := writeConfig(t, `{"chunk_size": 5000, "expected_year": 2020}`)

	cfg, err := LoadRunConfig(path)
	if err != nil {
		t.Fatalf("LoadRunConfig failed: %v", err)
	}
	if got := cfg.GetChunkSize(); got != 5000 {
		t.Fatalf("chunk size: got %d", got)
	}
	if got := cfg.GetExpectedYear(); got != 2020 {
		t.Fatalf("expected year: got %d", got)
	}
	// Unset fields fall back to defaults.
	if got := cfg.GetMaxTripDistanceMiles(); got != DefaultMaxDistance {
		t.Fatalf("max distance: got %g", got)
	}
	if got := cfg.GetDBPath(); got != DefaultDBPath {
		t.Fatalf("db path: got %q", got)
	}
}

func TestLoadRunConfigRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name     string
		contents string
	}{
		{"zero chunk size", `{"chunk_size": 0}`},
		{"negative chunk size", `{"chunk_size": -5}`},
		{"year too early", `{"expected_year": 1999}`},
		{"year too late", `{"expected_year": 2101}`},
		{"zero max distance", `{"max_trip_distance_miles": 0}`},
		{"empty db path", `{"db_path": ""}`},
		{"empty audit path", `{"audit_path": ""}`},
		{"malformed json", `{"chunk_size": `},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.contents)
			if _, err := LoadRunConfig(path); err == nil {
				t.Fatal("expected load to fail")
			}
		})
	}
}

func TestLoadRunConfigRequiresJSONExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := LoadRunConfig(path); err == nil {
		t.Fatal("expected non-json extension to be rejected")
	}
}

func TestLoadRunConfigMissingFile(t *testing.T) {
	if _, err := LoadRunConfig(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected missing file to fail")
	}
}
