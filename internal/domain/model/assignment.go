package model

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/zeebo/xxh3"
)

// Assignment maps candidate id to slot id. A candidate absent from the map
// is unassigned (∅).
type Assignment map[string]string

// SlotOf returns the slot held by candidate, or "" and false.
func (a Assignment) SlotOf(candidate string) (string, bool) {
	s, ok := a[candidate]
	return s, ok
}

// Occupants returns the candidates holding slot, sorted by id.
func (a Assignment) Occupants(slot string) []string {
	var out []string
	for c, s := range a {
		if s == slot {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// Counts returns slot id -> number of occupants.
func (a Assignment) Counts() map[string]int {
	out := make(map[string]int)
	for _, s := range a {
		out[s]++
	}
	return out
}

// Clone returns an independent copy. The clone of nil is an empty map.
func (a Assignment) Clone() Assignment {
	out := make(Assignment, len(a))
	for c, s := range a {
		out[c] = s
	}
	return out
}

// Equal reports whether both assignments hold the same pairs.
func (a Assignment) Equal(other Assignment) bool {
	if len(a) != len(other) {
		return false
	}
	for c, s := range a {
		if o, ok := other[c]; !ok || o != s {
			return false
		}
	}
	return true
}

// Digest hashes the assignment independent of map iteration order. Equal
// assignments always produce equal digests.
func (a Assignment) Digest() string {
	keys := make([]string, 0, len(a))
	for c := range a {
		keys = append(keys, c)
	}
	sort.Strings(keys)

	h := xxh3.New()
	var lenBuf [8]byte
	write := func(s string) {
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(s)))
		_, _ = h.Write(lenBuf[:])
		_, _ = h.WriteString(s)
	}
	for _, c := range keys {
		write(c)
		write(a[c])
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
