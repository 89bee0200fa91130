// Package types contains read-side shapes shared by the coordinator and the API.
package types

// RosterEntry is one row of the rank-ordered candidate roster.
type RosterEntry struct {
	Rank        int      `json:"rank"`
	CandidateID string   `json:"candidate_id"`
	Name        string   `json:"name,omitempty"`
	NationalID  string   `json:"national_id,omitempty"`
	Score       float64  `json:"score"`
	Preferences []string `json:"preferences"`
	// Slot is empty when no slot is available to the candidate.
	Slot string `json:"slot,omitempty"`
}

// SlotView is one row of the vacancy board.
type SlotView struct {
	SlotID     string `json:"slot_id"`
	Department string `json:"department,omitempty"`
	Capacity   int    `json:"capacity"`
	Occupied   int    `json:"occupied"`
	Remaining  int    `json:"remaining"`
}

// CandidateView is the detailed view of a single candidate.
type CandidateView struct {
	RosterEntry
	Quota int `json:"quota"`
	// Available lists, per slot, the seats not taken by better-ranked candidates.
	Available []SlotView `json:"available"`
}

// Stats summarises the coordinator.
type Stats struct {
	State            string `json:"state"`
	Candidates       int    `json:"candidates"`
	Slots            int    `json:"slots"`
	TotalCapacity    int    `json:"total_capacity"`
	Assigned         int    `json:"assigned"`
	Unassigned       int    `json:"unassigned"`
	WithPreferences  int    `json:"with_preferences"`
	Version          int64  `json:"version"`
	Generation       uint64 `json:"generation"`
	Digest           string `json:"digest"`
	Recomputes       int64  `json:"recomputes"`
	CoalescedEdits   int64  `json:"coalesced_edits"`
	RejectedEdits    int64  `json:"rejected_edits"`
	PublishedVersion int64  `json:"published_version"`
	QueueDepth       int    `json:"queue_depth"`
	QuotaPolicy      string `json:"quota_policy"`
}
