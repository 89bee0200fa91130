// Package ledger tracks slot capacity and the candidates occupying each slot.
package ledger

import (
	"sort"
	"sync"

	"github.com/okian/vacancy/internal/domain/model"
	"github.com/okian/vacancy/internal/domain/types"
)

// Ledger is rebuilt from each committed assignment. Safe for concurrent use.
type Ledger struct {
	mu        sync.RWMutex
	slots     []model.Slot // sorted by id
	index     map[string]int
	occupants map[string][]string // slot -> candidates, best rank first
}

// New creates a ledger for slots with no occupants.
func New(slots []model.Slot) *Ledger {
	sorted := make([]model.Slot, len(slots))
	copy(sorted, slots)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	l := &Ledger{
		slots:     sorted,
		index:     make(map[string]int, len(sorted)),
		occupants: make(map[string][]string, len(sorted)),
	}
	for i, s := range sorted {
		l.index[s.ID] = i
	}
	return l
}

// Apply replaces the occupant sets with those of a. order lists candidates
// best first and fixes the order of each occupant list.
func (l *Ledger) Apply(a model.Assignment, order []string) {
	next := make(map[string][]string, len(l.slots))
	for _, id := range order {
		if slot, ok := a[id]; ok {
			next[slot] = append(next[slot], id)
		}
	}
	l.mu.Lock()
	l.occupants = next
	l.mu.Unlock()
}

// Has reports whether slot exists.
func (l *Ledger) Has(slot string) bool {
	_, ok := l.index[slot]
	return ok
}

// Slots returns the slots in id order.
func (l *Ledger) Slots() []model.Slot {
	out := make([]model.Slot, len(l.slots))
	copy(out, l.slots)
	return out
}

// Capacity returns the capacity of slot, 0 when unknown.
func (l *Ledger) Capacity(slot string) int {
	i, ok := l.index[slot]
	if !ok {
		return 0
	}
	return l.slots[i].Capacity
}

// TotalCapacity sums every slot's capacity.
func (l *Ledger) TotalCapacity() int {
	total := 0
	for _, s := range l.slots {
		total += s.Capacity
	}
	return total
}

// Occupied returns the number of candidates holding slot.
func (l *Ledger) Occupied(slot string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.occupants[slot])
}

// Remaining returns the free seats of slot.
func (l *Ledger) Remaining(slot string) int {
	return max(l.Capacity(slot)-l.Occupied(slot), 0)
}

// Occupants returns the candidates holding slot, best rank first.
func (l *Ledger) Occupants(slot string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	occ := l.occupants[slot]
	out := make([]string, len(occ))
	copy(out, occ)
	return out
}

// Board returns one vacancy row per slot in id order.
func (l *Ledger) Board() []types.SlotView {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rows := make([]types.SlotView, 0, len(l.slots))
	for _, s := range l.slots {
		n := len(l.occupants[s.ID])
		rows = append(rows, types.SlotView{
			SlotID:     s.ID,
			Department: s.Department,
			Capacity:   s.Capacity,
			Occupied:   n,
			Remaining:  max(s.Capacity-n, 0),
		})
	}
	return rows
}

// AvailableFor returns, per slot, the seats not held by candidates ranked
// strictly better than rank. rankOf resolves an occupant's rank.
func (l *Ledger) AvailableFor(rank int, rankOf func(id string) int) []types.SlotView {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rows := make([]types.SlotView, 0, len(l.slots))
	for _, s := range l.slots {
		better := 0
		for _, id := range l.occupants[s.ID] {
			if rankOf(id) < rank {
				better++
			}
		}
		rows = append(rows, types.SlotView{
			SlotID:     s.ID,
			Department: s.Department,
			Capacity:   s.Capacity,
			Occupied:   better,
			Remaining:  max(s.Capacity-better, 0),
		})
	}
	return rows
}
