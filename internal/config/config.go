// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and VACANCY_* environment variables on top.
// - Validation errors wrap ErrInvalidConfig; loading errors wrap ErrLoadConfig.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreNATS   = "nats"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// PopulationFile points at the YAML or JSON candidate/slot roster.
	PopulationFile string `koanf:"population_file"`

	// QuotaPolicy is reject or truncate.
	QuotaPolicy string `koanf:"quota_policy"`

	// Store selects the preference backend: memory, sqlite or nats.
	Store string `koanf:"store"`

	// SQLitePath is the local cache file. When set, published revisions are
	// recorded there whatever the Store is.
	SQLitePath string `koanf:"sqlite_path"`

	// NATS settings for the nats store and the assignment sink.
	NATSURL               string `koanf:"nats_url"`
	NATSPreferencesBucket string `koanf:"nats_preferences_bucket"`
	NATSAssignmentBucket  string `koanf:"nats_assignment_bucket"`
	NATSAssignmentPrefix  string `koanf:"nats_assignment_prefix"`

	// Publication pipeline.
	PublishQueueSize     int `koanf:"publish_queue_size"`
	PublishMaxAttempts   int `koanf:"publish_max_attempts"`
	PublishBackoffBaseMS int `koanf:"publish_backoff_base_ms"`
	PublishBackoffMaxMS  int `koanf:"publish_backoff_max_ms"`

	// MaxRosterLimit caps GET /candidates?limit.
	MaxRosterLimit int `koanf:"max_roster_limit"`

	// VerifyInvariants checks every recompute against the allocation invariants.
	VerifyInvariants bool `koanf:"verify_invariants"`

	// Tracing writes OpenTelemetry spans to stdout or TracingOutput.
	TracingEnabled bool   `koanf:"tracing_enabled"`
	TracingOutput  string `koanf:"tracing_output"`
}

// New creates a Config with defaults. The context is reserved for loaders
// that need it.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		QuotaPolicy:           "reject",
		Store:                 StoreMemory,
		NATSURL:               "nats://127.0.0.1:4222",
		NATSPreferencesBucket: "vacancy-preferences",
		NATSAssignmentBucket:  "vacancy-assignments",
		NATSAssignmentPrefix:  "assignment",
		PublishQueueSize:      16,
		PublishMaxAttempts:    0,
		PublishBackoffBaseMS:  100,
		PublishBackoffMaxMS:   10_000,
		MaxRosterLimit:        500,
	}
}

// PublishBackoff returns the publication retry bounds as durations.
func (c *Config) PublishBackoff() (base, maxDelay time.Duration) {
	return time.Duration(c.PublishBackoffBaseMS) * time.Millisecond,
		time.Duration(c.PublishBackoffMaxMS) * time.Millisecond
}

// Validate checks the values Load cannot type-check.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.QuotaPolicy) {
	case "", "reject", "truncate":
	default:
		return fmt.Errorf("%w: quota_policy %q is not reject or truncate", ErrInvalidConfig, c.QuotaPolicy)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q is not text or json", ErrInvalidConfig, c.LogFormat)
	}
	switch c.Store {
	case StoreMemory:
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: store sqlite needs sqlite_path", ErrInvalidConfig)
		}
	case StoreNATS:
		if c.NATSURL == "" || c.NATSPreferencesBucket == "" {
			return fmt.Errorf("%w: store nats needs nats_url and nats_preferences_bucket", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	}
	if c.PublishQueueSize <= 0 {
		return fmt.Errorf("%w: publish_queue_size must be positive", ErrInvalidConfig)
	}
	if c.PublishMaxAttempts < 0 {
		return fmt.Errorf("%w: publish_max_attempts must not be negative", ErrInvalidConfig)
	}
	if c.PublishBackoffBaseMS <= 0 || c.PublishBackoffMaxMS < c.PublishBackoffBaseMS {
		return fmt.Errorf("%w: publish backoff needs 0 < base <= max", ErrInvalidConfig)
	}
	if c.MaxRosterLimit <= 0 {
		return fmt.Errorf("%w: max_roster_limit must be positive", ErrInvalidConfig)
	}
	return nil
}
