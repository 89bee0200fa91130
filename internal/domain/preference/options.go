package preference

import (
	"fmt"
	"strings"
)

// Policy decides what happens to a list longer than the candidate's quota.
type Policy string

// Supported quota policies.
const (
	PolicyReject   Policy = "reject"
	PolicyTruncate Policy = "truncate"
)

// ParsePolicy maps a configuration string to a Policy. Empty means reject.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyReject:
		return PolicyReject, nil
	case PolicyTruncate:
		return PolicyTruncate, nil
	default:
		return "", fmt.Errorf("unknown quota policy %q", s)
	}
}

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithPolicy sets the over-quota policy.
func WithPolicy(p Policy) Option {
	return func(s *Store) {
		if p != "" {
			s.policy = p
		}
	}
}
