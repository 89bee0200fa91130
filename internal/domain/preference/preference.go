// Package preference keeps each candidate's ordered slot wishlist.
package preference

import (
	"sort"
	"sync"

	"github.com/okian/vacancy/internal/domain/model"
)

// Ranker resolves a candidate's current rank.
type Ranker interface {
	RankOf(id string) (int, error)
}

// MaxPreferences is the quota for a rank: the candidate ranked r may list at
// most r slots.
func MaxPreferences(rank int) int {
	if rank < 1 {
		return 0
	}
	return rank
}

// Store holds the committed preference lists. It is safe for concurrent use,
// but the Ranker it consults must not change during a call.
type Store struct {
	mu     sync.RWMutex
	slots  map[string]struct{}
	ranks  Ranker
	policy Policy
	lists  map[string]model.PreferenceList
}

// New creates a store validating against slots and ranks.
func New(slots []model.Slot, ranks Ranker, opts ...Option) *Store {
	s := &Store{
		slots:  make(map[string]struct{}, len(slots)),
		ranks:  ranks,
		policy: PolicyReject,
		lists:  make(map[string]model.PreferenceList),
	}
	for _, sl := range slots {
		s.slots[sl.ID] = struct{}{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the over-quota policy in effect.
func (s *Store) Policy() Policy { return s.policy }

// Validate checks a proposed list for id without storing it. It returns the
// list that would be committed, which differs from the input only when the
// truncate policy shortened it.
func (s *Store) Validate(id string, slots []string) (model.PreferenceList, error) {
	list, _, err := s.check(id, slots, s.policy == PolicyTruncate)
	return list, err
}

func (s *Store) check(id string, slots []string, truncate bool) (model.PreferenceList, bool, error) {
	rank, err := s.ranks.RankOf(id)
	if err != nil {
		return nil, false, err
	}

	seen := make(map[string]struct{}, len(slots))
	for _, slot := range slots {
		if _, ok := s.slots[slot]; !ok {
			return nil, false, model.NewUnknownSlotError(id, slot)
		}
		if _, dup := seen[slot]; dup {
			return nil, false, model.NewDuplicateSlotError(id, slot)
		}
		seen[slot] = struct{}{}
	}

	list := model.PreferenceList(slots).Clone()
	quota := MaxPreferences(rank)
	if list.Len() <= quota {
		return list, false, nil
	}
	if !truncate {
		return nil, false, model.NewQuotaError(id, rank, quota, list.Len())
	}
	return list.Truncate(quota), true, nil
}

// Commit stores a list previously returned by Validate. An empty list
// withdraws the candidate's preferences.
func (s *Store) Commit(id string, list model.PreferenceList) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if list.Len() == 0 {
		delete(s.lists, id)
		return
	}
	s.lists[id] = list.Clone()
}

// Set validates and commits in one step.
func (s *Store) Set(id string, slots []string) (model.PreferenceList, error) {
	list, err := s.Validate(id, slots)
	if err != nil {
		return nil, err
	}
	s.Commit(id, list)
	return list, nil
}

// Of returns a copy of id's list, possibly empty.
func (s *Store) Of(id string) model.PreferenceList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lists[id].Clone()
}

// ClearAll empties every list.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists = make(map[string]model.PreferenceList)
}

// Len returns the number of candidates with a non-empty list.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lists)
}

// Snapshot returns a deep copy of every non-empty list.
func (s *Store) Snapshot() map[string]model.PreferenceList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.PreferenceList, len(s.lists))
	for id, l := range s.lists {
		out[id] = l.Clone()
	}
	return out
}

// Restore replaces the store content with persisted lists. Lists naming an
// unknown candidate, an unknown slot or a duplicate are skipped and reported.
// Lists over quota are truncated regardless of policy, since ranks may have
// changed since they were written.
func (s *Store) Restore(lists map[string]model.PreferenceList) (truncated []string, skipped []error) {
	ids := make([]string, 0, len(lists))
	for id := range lists {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	next := make(map[string]model.PreferenceList, len(lists))
	for _, id := range ids {
		list, cut, err := s.check(id, lists[id], true)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		if cut {
			truncated = append(truncated, id)
		}
		if list.Len() > 0 {
			next[id] = list
		}
	}

	s.mu.Lock()
	s.lists = next
	s.mu.Unlock()
	return truncated, skipped
}

// Enforce re-applies the quota to id after a rank change. It returns the
// resulting list and whether it was shortened.
func (s *Store) Enforce(id string) (model.PreferenceList, bool, error) {
	rank, err := s.ranks.RankOf(id)
	if err != nil {
		return nil, false, err
	}
	quota := MaxPreferences(rank)

	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.lists[id]
	if list.Len() <= quota {
		return list.Clone(), false, nil
	}
	list = list.Truncate(quota)
	if list.Len() == 0 {
		delete(s.lists, id)
	} else {
		s.lists[id] = list
	}
	return list.Clone(), true, nil
}
