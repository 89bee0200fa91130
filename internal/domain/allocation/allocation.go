// Package allocation assigns slots to candidates by serial dictatorship:
// candidates are visited best rank first and each takes the first listed slot
// that still has a free seat.
package allocation

import (
	"github.com/okian/vacancy/internal/domain/model"
)

// Input is everything a pass depends on.
type Input struct {
	// Order lists candidate ids best rank first.
	Order       []string
	Preferences map[string]model.PreferenceList
	Capacities  map[string]int
}

// Result is the outcome of one pass.
type Result struct {
	Assignment model.Assignment
	// Occupancy counts assigned candidates per slot.
	Occupancy map[string]int
	// Unassigned lists candidates without a slot, best rank first.
	Unassigned []string
}

// Allocate runs one pass. It is pure: the same Input always yields the same
// Result, and it never fails. Slots missing from Capacities have no seats.
func Allocate(in Input) Result {
	res := Result{
		Assignment: make(model.Assignment, len(in.Order)),
		Occupancy:  make(map[string]int, len(in.Capacities)),
	}
	for _, id := range in.Order {
		placed := false
		for _, slot := range in.Preferences[id] {
			if res.Occupancy[slot] < in.Capacities[slot] {
				res.Assignment[id] = slot
				res.Occupancy[slot]++
				placed = true
				break
			}
		}
		if !placed {
			res.Unassigned = append(res.Unassigned, id)
		}
	}
	return res
}

// Clone deep-copies the input so a pass can run outside the writer's lock.
func (in Input) Clone() Input {
	out := Input{
		Order:       make([]string, len(in.Order)),
		Preferences: make(map[string]model.PreferenceList, len(in.Preferences)),
		Capacities:  make(map[string]int, len(in.Capacities)),
	}
	copy(out.Order, in.Order)
	for id, l := range in.Preferences {
		out.Preferences[id] = l.Clone()
	}
	for s, c := range in.Capacities {
		out.Capacities[s] = c
	}
	return out
}
