// Package simulation replays random preference edits through the change
// coordinator concurrently and checks that every replay converges on the
// assignment a single offline pass produces.
package simulation

import (
	"fmt"
	"runtime"
	"time"
)

// Default simulation parameters.
const (
	DefaultCandidates  = 200
	DefaultSlots       = 12
	DefaultMaxCapacity = 8
	DefaultEdits       = 2000
	DefaultOrders      = 4
	DefaultInvalidRate = 0.1
	defaultTimeout     = time.Minute
)

// Config holds configuration for a simulation run.
type Config struct {
	Candidates  int           // Number of candidates to generate
	Slots       int           // Number of slots to generate
	MaxCapacity int           // Upper bound for a slot's capacity
	Edits       int           // Number of preference edits in the script
	Orders      int           // Number of concurrent replays
	Workers     int           // Concurrent submitters per replay
	InvalidRate float64       // Share of edits deliberately over quota
	Seed        uint64        // Seed for population and script
	Timeout     time.Duration // Bound for a single replay
}

// DefaultConfig returns a moderately sized run.
func DefaultConfig() Config {
	return Config{
		Candidates:  DefaultCandidates,
		Slots:       DefaultSlots,
		MaxCapacity: DefaultMaxCapacity,
		Edits:       DefaultEdits,
		Orders:      DefaultOrders,
		Workers:     runtime.NumCPU(),
		InvalidRate: DefaultInvalidRate,
		Seed:        1,
		Timeout:     defaultTimeout,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case c.Candidates < 1:
		return fmt.Errorf("%w: candidates must be positive", ErrInvalidConfig)
	case c.Slots < 1:
		return fmt.Errorf("%w: slots must be positive", ErrInvalidConfig)
	case c.MaxCapacity < 1:
		return fmt.Errorf("%w: max capacity must be positive", ErrInvalidConfig)
	case c.Edits < 0:
		return fmt.Errorf("%w: edits must not be negative", ErrInvalidConfig)
	case c.Orders < 1:
		return fmt.Errorf("%w: orders must be positive", ErrInvalidConfig)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	case c.InvalidRate < 0 || c.InvalidRate > 1:
		return fmt.Errorf("%w: invalid rate must be within [0,1]", ErrInvalidConfig)
	}
	return nil
}

// Edit is one scripted preference submission.
type Edit struct {
	Seq       int      `json:"seq"`
	Candidate string   `json:"candidate"`
	Slots     []string `json:"slots"`
}

// Replay summarises one concurrent replay.
type Replay struct {
	Order      int           `json:"order"`
	Accepted   int           `json:"accepted"`
	Rejected   int           `json:"rejected"`
	Recomputes int64         `json:"recomputes"`
	Coalesced  int64         `json:"coalesced"`
	Version    int64         `json:"version"`
	Published  int64         `json:"published"`
	Digest     string        `json:"digest"`
	Duration   time.Duration `json:"duration"`
}

// Report holds the outcome of a run.
type Report struct {
	Candidates int           `json:"candidates"`
	Slots      int           `json:"slots"`
	Capacity   int           `json:"capacity"`
	Edits      int           `json:"edits"`
	Expected   string        `json:"expected_digest"`
	Assigned   int           `json:"assigned"`
	Unassigned int           `json:"unassigned"`
	Replays    []Replay      `json:"replays"`
	Duration   time.Duration `json:"duration"`
}
