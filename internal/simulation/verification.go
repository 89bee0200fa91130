package simulation

import (
	"errors"
	"fmt"

	"github.com/okian/vacancy/internal/domain/allocation"
	"github.com/okian/vacancy/internal/domain/model"
	"github.com/okian/vacancy/internal/domain/preference"
	"github.com/okian/vacancy/internal/domain/ranking"
)

// Expected applies script one edit at a time without any concurrency and
// returns the input and result a coordinator must converge on. Rejected
// edits are counted, not returned as errors.
func Expected(pop model.Population, script []Edit) (allocation.Input, allocation.Result, int, error) {
	ranks, err := ranking.New(pop.Candidates)
	if err != nil {
		return allocation.Input{}, allocation.Result{}, 0, err
	}
	prefs := preference.New(pop.Slots, ranks)

	rejected := 0
	for _, e := range script {
		if _, err := prefs.Set(e.Candidate, e.Slots); err != nil {
			if !errors.Is(err, model.ErrInvalidPreferenceList) {
				return allocation.Input{}, allocation.Result{}, 0, err
			}
			rejected++
		}
	}

	in := allocation.Input{
		Order:       ranks.Order(),
		Preferences: prefs.Snapshot(),
		Capacities:  pop.Capacities(),
	}
	return in, allocation.Allocate(in), rejected, nil
}

// Check verifies one replay's final revision against the offline input and
// the expected digest.
func Check(in allocation.Input, expected string, rev model.Revision) error { //nolint:gocritic // hugeParam
	if err := allocation.Verify(in, rev.Assignment); err != nil {
		return err
	}
	if rev.Digest != expected {
		return fmt.Errorf("%w: digest %s, expected %s", ErrDiverged, rev.Digest, expected)
	}
	return nil
}

// Converged reports whether every replay ended on the same digest.
func Converged(replays []Replay) bool {
	for i := 1; i < len(replays); i++ {
		if replays[i].Digest != replays[0].Digest {
			return false
		}
	}
	return true
}
