package model

// PreferenceList is a candidate's ordered wishlist of slot ids, best first.
// The zero value is an empty list, which means "no preference".
type PreferenceList []string

// Len returns the number of listed slots.
func (p PreferenceList) Len() int { return len(p) }

// IndexOf returns the position of slot in the list or -1.
func (p PreferenceList) IndexOf(slot string) int {
	for i, s := range p {
		if s == slot {
			return i
		}
	}
	return -1
}

// Contains reports whether slot is listed.
func (p PreferenceList) Contains(slot string) bool { return p.IndexOf(slot) >= 0 }

// Clone returns an independent copy; a nil or empty list clones to nil.
func (p PreferenceList) Clone() PreferenceList {
	if len(p) == 0 {
		return nil
	}
	out := make(PreferenceList, len(p))
	copy(out, p)
	return out
}

// Truncate returns a copy holding at most n entries.
func (p PreferenceList) Truncate(n int) PreferenceList {
	if n < 0 {
		n = 0
	}
	if len(p) <= n {
		return p.Clone()
	}
	return p[:n].Clone()
}

// Equal reports element-wise equality; nil and empty are equal.
func (p PreferenceList) Equal(other PreferenceList) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}
