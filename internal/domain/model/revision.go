package model

import (
	"time"

	"github.com/google/uuid"
)

// Revision is one committed assignment. Version increases by one for every
// commit; Generation is the highest edit generation the assignment reflects.
type Revision struct {
	ID         string     `json:"id"`
	Version    int64      `json:"version"`
	Generation uint64     `json:"generation"`
	Reason     string     `json:"reason"`
	Digest     string     `json:"digest"`
	Assignment Assignment `json:"assignment"`
	ComputedAt time.Time  `json:"computed_at"`
}

// NewRevision stamps a fresh id and digest on assignment.
func NewRevision(version int64, generation uint64, reason string, assignment Assignment, at time.Time) Revision {
	return Revision{
		ID:         uuid.NewString(),
		Version:    version,
		Generation: generation,
		Reason:     reason,
		Digest:     assignment.Digest(),
		Assignment: assignment,
		ComputedAt: at.UTC(),
	}
}

// Newer reports whether r supersedes other.
func (r Revision) Newer(other Revision) bool { return r.Version > other.Version }
