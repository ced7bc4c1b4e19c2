// Package config loads the JSON run configuration for the load
// pipeline. Fields omitted from the file keep their defaults, so partial
// configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Defaults applied when a field is absent from the config file.
const (
	DefaultChunkSize    = 100000
	DefaultExpectedYear = 2019
	DefaultMaxDistance  = 100.0
	DefaultDBPath       = "trip_data.db"
	DefaultAuditPath    = "excluded_rows.csv"
)

// RunConfig holds the tunable parameters of a load run. Pointer fields
// distinguish "not set" from explicit zero values.
type RunConfig struct {
	// ChunkSize is the maximum rows per ingest batch.
	ChunkSize *int `json:"chunk_size,omitempty"`

	// ExpectedYear is the dataset year used by the out-of-range-year rule.
	ExpectedYear *int `json:"expected_year,omitempty"`

	// MaxTripDistanceMiles is the extreme-distance threshold. Distances
	// strictly above it are rejected.
	MaxTripDistanceMiles *float64 `json:"max_trip_distance_miles,omitempty"`

	// DBPath is the SQLite database file.
	DBPath *string `json:"db_path,omitempty"`

	// AuditPath is the rejected-rows CSV file.
	AuditPath *string `json:"audit_path,omitempty"`
}

func (c *RunConfig) GetChunkSize() int {
	if c.ChunkSize != nil {
		return *c.ChunkSize
	}
	return DefaultChunkSize
}

func (c *RunConfig) GetExpectedYear() int {
	if c.ExpectedYear != nil {
		return *c.ExpectedYear
	}
	return DefaultExpectedYear
}

func (c *RunConfig) GetMaxTripDistanceMiles() float64 {
	if c.MaxTripDistanceMiles != nil {
		return *c.MaxTripDistanceMiles
	}
	return DefaultMaxDistance
}

func (c *RunConfig) GetDBPath() string {
	if c.DBPath != nil {
		return *c.DBPath
	}
	return DefaultDBPath
}

func (c *RunConfig) GetAuditPath() string {
	if c.AuditPath != nil {
		return *c.AuditPath
	}
	return DefaultAuditPath
}

// Validate rejects configurations the pipeline cannot run with.
func (c *RunConfig) Validate() error {
	if c.ChunkSize != nil && *c.ChunkSize < 1 {
		return fmt.Errorf("chunk_size must be at least 1, got %d", *c.ChunkSize)
	}
	if c.ExpectedYear != nil && (*c.ExpectedYear < 2000 || *c.ExpectedYear > 2100) {
		return fmt.Errorf("expected_year %d out of range [2000, 2100]", *c.ExpectedYear)
	}
	if c.MaxTripDistanceMiles != nil && *c.MaxTripDistanceMiles <= 0 {
		return fmt.Errorf("max_trip_distance_miles must be positive, got %g", *c.MaxTripDistanceMiles)
	}
	if c.DBPath != nil && *c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.AuditPath != nil && *c.AuditPath == "" {
		return fmt.Errorf("audit_path must not be empty")
	}
	return nil
}

// DefaultRunConfig returns a config with all fields unset; the Get*
// accessors supply the defaults.
func DefaultRunConfig() *RunConfig {
	return &RunConfig{}
}

// LoadRunConfig reads and validates a JSON config file.
func LoadRunConfig(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultRunConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
