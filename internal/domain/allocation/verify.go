package allocation

import (
	"errors"
	"fmt"

	"github.com/okian/vacancy/internal/domain/model"
)

// Verify checks a against in: no slot over capacity, every assigned slot is
// on the holder's list, and no candidate is passed over for a slot they rank
// higher unless that slot is full of better-ranked candidates. The returned
// error wraps model.ErrInvariantViolation and lists every problem found.
func Verify(in Input, a model.Assignment) error {
	var errs []error
	rank := make(map[string]int, len(in.Order))
	for i, id := range in.Order {
		rank[id] = i + 1
	}

	counts := make(map[string]int)
	for id, slot := range a {
		if _, ok := rank[id]; !ok {
			errs = append(errs, fmt.Errorf("candidate %q is assigned but not ranked", id))
			continue
		}
		if !in.Preferences[id].Contains(slot) {
			errs = append(errs, fmt.Errorf("candidate %q holds %q which is not on its list", id, slot))
		}
		counts[slot]++
	}
	for slot, n := range counts {
		if c := in.Capacities[slot]; n > c {
			errs = append(errs, fmt.Errorf("slot %q holds %d candidates but capacity is %d", slot, n, c))
		}
	}

	// worst[slot] is the worst rank holding slot.
	worst := make(map[string]int)
	for id, slot := range a {
		if r, ok := rank[id]; ok && r > worst[slot] {
			worst[slot] = r
		}
	}
	for _, id := range in.Order {
		held, assigned := a[id]
		for _, slot := range in.Preferences[id] {
			if assigned && slot == held {
				break
			}
			if counts[slot] < in.Capacities[slot] {
				errs = append(errs, fmt.Errorf("candidate %q prefers %q which has a free seat", id, slot))
				continue
			}
			if worst[slot] > rank[id] {
				errs = append(errs, fmt.Errorf("candidate %q was displaced from %q by a worse rank", id, slot))
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", model.ErrInvariantViolation, errors.Join(errs...))
}
