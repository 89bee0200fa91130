// Package ranking holds the total order over candidates.
//
// Ranks are dense: the best candidate is 1 and the worst is Len(). A Model is
// not safe for concurrent use; the coordinator serialises access.
package ranking

import (
	"fmt"
	"sort"

	"github.com/okian/vacancy/internal/domain/model"
)

// Model maps candidates to unique positive ranks.
type Model struct {
	order []string       // order[i] holds rank i+1
	rank  map[string]int // id -> rank
}

// New builds the rank model from the loaded candidates.
//
// When every candidate has rank 0 the ranks are derived from score, highest
// first, ties broken by id ascending. Otherwise every rank must be positive
// and unique. Gaps are allowed and compacted to 1..N keeping the order.
func New(candidates []model.Candidate) (*Model, error) {
	derive := true
	for _, c := range candidates {
		if c.Rank != 0 {
			derive = false
			break
		}
	}

	sorted := make([]model.Candidate, len(candidates))
	copy(sorted, candidates)

	if derive {
		sort.SliceStable(sorted, func(i, j int) bool {
			return less(sorted[i].Score, sorted[i].ID, sorted[j].Score, sorted[j].ID)
		})
	} else {
		byRank := make(map[int]string, len(sorted))
		for _, c := range sorted {
			if c.Rank <= 0 {
				return nil, fmt.Errorf("%w: candidate %q has rank %d", model.ErrInvalidRank, c.ID, c.Rank)
			}
			if other, taken := byRank[c.Rank]; taken {
				return nil, fmt.Errorf("%w: candidates %q and %q share rank %d", model.ErrRankCollision, other, c.ID, c.Rank)
			}
			byRank[c.Rank] = c.ID
		}
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Rank < sorted[j].Rank })
	}

	m := &Model{
		order: make([]string, 0, len(sorted)),
		rank:  make(map[string]int, len(sorted)),
	}
	for _, c := range sorted {
		if _, dup := m.rank[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate candidate id %q", model.ErrInvalidPopulation, c.ID)
		}
		m.order = append(m.order, c.ID)
		m.rank[c.ID] = len(m.order)
	}
	return m, nil
}

// less orders by score descending, then id ascending.
func less(aScore float64, aID string, bScore float64, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

// RankOf returns the rank of id.
func (m *Model) RankOf(id string) (int, error) {
	r, ok := m.rank[id]
	if !ok {
		return 0, fmt.Errorf("%w: %q", model.ErrUnknownCandidate, id)
	}
	return r, nil
}

// Has reports whether id is ranked.
func (m *Model) Has(id string) bool {
	_, ok := m.rank[id]
	return ok
}

// Len returns the number of ranked candidates.
func (m *Model) Len() int { return len(m.order) }

// Order returns candidate ids best first. The slice is a copy.
func (m *Model) Order() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Move puts id at newRank. Candidates between the old and the new position
// shift by one so ranks stay dense. It returns every id whose rank changed,
// best first; moving to the current rank changes nothing.
func (m *Model) Move(id string, newRank int) ([]string, error) {
	old, ok := m.rank[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownCandidate, id)
	}
	if newRank < 1 || newRank > len(m.order) {
		return nil, fmt.Errorf("%w: %d is outside 1..%d", model.ErrInvalidRank, newRank, len(m.order))
	}
	if newRank == old {
		return nil, nil
	}

	from, to := old-1, newRank-1
	if from < to {
		copy(m.order[from:to], m.order[from+1:to+1])
	} else {
		copy(m.order[to+1:from+1], m.order[to:from])
	}
	m.order[to] = id

	lo, hi := min(from, to), max(from, to)
	changed := make([]string, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		m.rank[m.order[i]] = i + 1
		changed = append(changed, m.order[i])
	}
	return changed, nil
}

// Clone returns an independent copy.
func (m *Model) Clone() *Model {
	c := &Model{
		order: m.Order(),
		rank:  make(map[string]int, len(m.rank)),
	}
	for id, r := range m.rank {
		c.rank[id] = r
	}
	return c
}
