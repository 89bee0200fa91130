package model

import (
	"errors"
	"fmt"
)

// Sentinel error kinds shared across the allocation domain. Callers use errors.Is.
var (
	ErrInvalidPreferenceList = errors.New("invalid preference list")
	ErrUnknownCandidate      = errors.New("unknown candidate")
	ErrUnknownSlot           = errors.New("unknown slot")
	ErrRankCollision         = errors.New("rank collision")
	ErrInvalidRank           = errors.New("invalid rank")
	ErrInvalidPopulation     = errors.New("invalid population")
	ErrPublication           = errors.New("assignment publication failed")
	ErrInvariantViolation    = errors.New("assignment invariant violated")
)

// PreferenceError explains why a preference list was rejected. It unwraps to
// ErrInvalidPreferenceList and, for unknown slots, to ErrUnknownSlot as well.
type PreferenceError struct {
	CandidateID string
	Rank        int
	Quota       int
	Slot        string
	Reason      string
	unknownSlot bool
}

// NewQuotaError reports a list longer than the rank-derived quota.
func NewQuotaError(candidateID string, rank, quota, length int) *PreferenceError {
	return &PreferenceError{
		CandidateID: candidateID,
		Rank:        rank,
		Quota:       quota,
		Reason:      fmt.Sprintf("%d preferences submitted but rank %d allows at most %d", length, rank, quota),
	}
}

// NewDuplicateSlotError reports a slot listed more than once.
func NewDuplicateSlotError(candidateID, slot string) *PreferenceError {
	return &PreferenceError{
		CandidateID: candidateID,
		Slot:        slot,
		Reason:      fmt.Sprintf("slot %q listed more than once", slot),
	}
}

// NewUnknownSlotError reports a slot that is not part of the population.
func NewUnknownSlotError(candidateID, slot string) *PreferenceError {
	return &PreferenceError{
		CandidateID: candidateID,
		Slot:        slot,
		Reason:      fmt.Sprintf("slot %q does not exist", slot),
		unknownSlot: true,
	}
}

func (e *PreferenceError) Error() string {
	return fmt.Sprintf("%s for candidate %q: %s", ErrInvalidPreferenceList, e.CandidateID, e.Reason)
}

// Unwrap exposes the sentinel kinds.
func (e *PreferenceError) Unwrap() []error {
	if e.unknownSlot {
		return []error{ErrInvalidPreferenceList, ErrUnknownSlot}
	}
	return []error{ErrInvalidPreferenceList}
}
