package worker

import (
	rand "math/rand/v2"
	"time"
)

const defaultBackoffMultiplier = 3.0

// jitterBackoff returns the next retry delay using decorrelated jitter:
// next = min(cap, base + rand[0, prev*mult-base)). A non-positive prev
// starts at base.
func jitterBackoff(prev, base time.Duration, mult float64, capDur time.Duration, rng *rand.Rand) time.Duration {
	if base <= 0 {
		base = 50 * time.Millisecond
	}
	if mult < 1.0 {
		mult = 1.0
	}
	if capDur > 0 && capDur < base {
		return capDur
	}
	if prev <= 0 {
		return base
	}

	span := time.Duration(float64(prev)*mult) - base
	if span <= 0 {
		span = base
	}
	var jitter int64
	if rng != nil {
		jitter = rng.Int64N(int64(span))
	} else {
		jitter = rand.Int64N(int64(span)) //nolint:gosec // non-crypto backoff jitter
	}
	next := base + time.Duration(jitter)
	if capDur > 0 && next > capDur {
		return capDur
	}
	return next
}

// newRetryRNG returns a seeded generator, or nil for seed 0 so the package
// generator is used.
//
//nolint:gosec
func newRetryRNG(seed int64) *rand.Rand {
	if seed == 0 {
		return nil
	}
	s1 := uint64(seed)
	return rand.New(rand.NewPCG(s1, s1^0x9e3779b97f4a7c15))
}
