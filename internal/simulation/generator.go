package simulation

import (
	"fmt"
	"math"
	rand "math/rand/v2"
	"sort"

	"github.com/okian/vacancy/internal/domain/model"
	"github.com/okian/vacancy/internal/domain/ranking"
)

// Score distribution buckets, from most to least common.
const (
	avgScoreMin    = 60.0
	avgScoreRange  = 20.0
	highScoreMin   = 80.0
	highScoreRange = 15.0
	lowScoreMin    = 30.0
	lowScoreRange  = 30.0
	topScoreMin    = 95.0
	topScoreRange  = 5.0
	scoreBuckets   = 8
	scorePrecision = 1000
	nationalIDMax  = 10_000_000_000
	seedMixer      = 0x9e3779b97f4a7c15
)

var departments = []string{ //nolint:gochecknoglobals // fixed display data
	"Amazonas", "Chocó", "Guainía", "Guaviare", "La Guajira", "Putumayo", "Vaupés", "Vichada",
}

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^seedMixer)) //nolint:gosec // simulation only
}

// GeneratePopulation creates slots with random capacities and candidates
// with scores only, so ranks are derived by score.
func GeneratePopulation(cfg Config, rng *rand.Rand) model.Population {
	pop := model.Population{
		Slots:      make([]model.Slot, cfg.Slots),
		Candidates: make([]model.Candidate, cfg.Candidates),
	}
	for i := range pop.Slots {
		pop.Slots[i] = model.Slot{
			ID:         fmt.Sprintf("slot-%03d", i+1),
			Department: departments[i%len(departments)],
			Capacity:   1 + rng.IntN(cfg.MaxCapacity),
		}
	}
	for i := range pop.Candidates {
		pop.Candidates[i] = model.Candidate{
			ID:         fmt.Sprintf("cand-%05d", i+1),
			Name:       fmt.Sprintf("Candidate %d", i+1),
			NationalID: fmt.Sprintf("%010d", rng.Int64N(nationalIDMax)),
			Score:      variedScore(rng),
		}
	}
	return pop
}

func variedScore(rng *rand.Rand) float64 {
	var s float64
	switch rng.IntN(scoreBuckets) {
	case 0, 1, 2:
		s = avgScoreMin + rng.Float64()*avgScoreRange
	case 3, 4:
		s = highScoreMin + rng.Float64()*highScoreRange
	case 5, 6:
		s = lowScoreMin + rng.Float64()*lowScoreRange
	default:
		s = topScoreMin + rng.Float64()*topScoreRange
	}
	return math.Round(s*scorePrecision) / scorePrecision
}

// GenerateScript produces cfg.Edits submissions. Most lists fit the
// candidate's quota; about cfg.InvalidRate of them do not, either by
// exceeding the quota or by repeating a slot.
func GenerateScript(cfg Config, pop model.Population, rng *rand.Rand) ([]Edit, error) {
	ranks, err := ranking.New(pop.Candidates)
	if err != nil {
		return nil, err
	}
	slotIDs := make([]string, len(pop.Slots))
	for i, s := range pop.Slots {
		slotIDs[i] = s.ID
	}

	script := make([]Edit, cfg.Edits)
	for i := range script {
		c := pop.Candidates[rng.IntN(len(pop.Candidates))]
		rank, err := ranks.RankOf(c.ID)
		if err != nil {
			return nil, err
		}
		quota := min(rank, len(slotIDs))

		var slots []string
		switch {
		case rng.Float64() >= cfg.InvalidRate:
			slots = pick(rng, slotIDs, rng.IntN(quota+1))
		case rank < len(slotIDs):
			slots = pick(rng, slotIDs, rank+1)
		default:
			slots = pick(rng, slotIDs, 1)
			slots = append(slots, slots[0])
		}
		script[i] = Edit{Seq: i, Candidate: c.ID, Slots: slots}
	}
	return script, nil
}

func pick(rng *rand.Rand, ids []string, n int) []string {
	if n == 0 {
		return []string{}
	}
	perm := rng.Perm(len(ids))
	out := make([]string, n)
	for i := range out {
		out[i] = ids[perm[i]]
	}
	return out
}

// Interleave returns a random permutation of script that keeps every
// candidate's own edits in their original order.
func Interleave(script []Edit, rng *rand.Rand) []Edit {
	keys := make([]float64, len(script))
	for i := range keys {
		keys[i] = rng.Float64()
	}

	byCandidate := make(map[string][]int)
	for i, e := range script {
		byCandidate[e.Candidate] = append(byCandidate[e.Candidate], i)
	}
	sorted := make([]float64, len(script))
	for _, idx := range byCandidate {
		ks := make([]float64, len(idx))
		for j, i := range idx {
			ks[j] = keys[i]
		}
		sort.Float64s(ks)
		for j, i := range idx {
			sorted[i] = ks[j]
		}
	}

	out := make([]Edit, len(script))
	copy(out, script)
	sort.SliceStable(out, func(a, b int) bool { return sorted[out[a].Seq] < sorted[out[b].Seq] })
	return out
}
