// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
	"strings"
)

// Candidate competes for a slot. Rank 1 is the most favored; a zero rank
// means the rank is to be derived from Score.
type Candidate struct {
	ID         string  `json:"id" yaml:"id"`
	Name       string  `json:"name,omitempty" yaml:"name"`
	NationalID string  `json:"national_id,omitempty" yaml:"national_id"`
	Rank       int     `json:"rank" yaml:"rank"`
	Score      float64 `json:"score" yaml:"score"`
}

// Slot is a capacity-limited placement.
type Slot struct {
	ID         string `json:"id" yaml:"id"`
	Department string `json:"department,omitempty" yaml:"department"`
	Capacity   int    `json:"capacity" yaml:"capacity"`
}

// Population is the load-time input: every candidate and every slot.
type Population struct {
	Candidates []Candidate `json:"candidates" yaml:"candidates"`
	Slots      []Slot      `json:"slots" yaml:"slots"`
}

// Validate checks structural rules that do not depend on ranking: ids are
// present and unique, capacities are non-negative and scores are finite.
func (p Population) Validate() error {
	seen := make(map[string]struct{}, len(p.Candidates))
	for i, c := range p.Candidates {
		if strings.TrimSpace(c.ID) == "" {
			return fmt.Errorf("%w: candidate #%d has an empty id", ErrInvalidPopulation, i)
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("%w: duplicate candidate id %q", ErrInvalidPopulation, c.ID)
		}
		if math.IsNaN(c.Score) || math.IsInf(c.Score, 0) {
			return fmt.Errorf("%w: candidate %q has a non-finite score", ErrInvalidPopulation, c.ID)
		}
		if c.Rank < 0 {
			return fmt.Errorf("%w: candidate %q has negative rank %d", ErrInvalidRank, c.ID, c.Rank)
		}
		seen[c.ID] = struct{}{}
	}

	slots := make(map[string]struct{}, len(p.Slots))
	for i, s := range p.Slots {
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("%w: slot #%d has an empty id", ErrInvalidPopulation, i)
		}
		if _, dup := slots[s.ID]; dup {
			return fmt.Errorf("%w: duplicate slot id %q", ErrInvalidPopulation, s.ID)
		}
		if s.Capacity < 0 {
			return fmt.Errorf("%w: slot %q has negative capacity %d", ErrInvalidPopulation, s.ID, s.Capacity)
		}
		slots[s.ID] = struct{}{}
	}
	return nil
}

// Capacities returns slot id -> capacity.
func (p Population) Capacities() map[string]int {
	out := make(map[string]int, len(p.Slots))
	for _, s := range p.Slots {
		out[s.ID] = s.Capacity
	}
	return out
}
