package simulation

import (
	"context"
	"testing"
	"time"

	"github.com/okian/vacancy/internal/domain/model"
	"github.com/okian/vacancy/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func smallConfig() Config {
	return Config{
		Candidates:  30,
		Slots:       4,
		MaxCapacity: 3,
		Edits:       150,
		Orders:      3,
		Workers:     4,
		InvalidRate: 0.2,
		Seed:        7,
		Timeout:     30 * time.Second,
	}
}

func TestConfig_Validate(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		cfg := DefaultConfig()

		Convey("It should be valid", func() {
			So(cfg.Validate(), ShouldBeNil)
		})

		Convey("It should reject a zero candidate count", func() {
			cfg.Candidates = 0
			So(cfg.Validate(), ShouldWrap, ErrInvalidConfig)
		})

		Convey("It should reject an invalid rate above one", func() {
			cfg.InvalidRate = 1.5
			So(cfg.Validate(), ShouldWrap, ErrInvalidConfig)
		})

		Convey("It should reject zero workers", func() {
			cfg.Workers = 0
			So(cfg.Validate(), ShouldWrap, ErrInvalidConfig)
		})
	})
}

func TestGenerator(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		cfg := smallConfig()

		Convey("The same seed should yield the same population", func() {
			a := GeneratePopulation(cfg, newRNG(cfg.Seed))
			b := GeneratePopulation(cfg, newRNG(cfg.Seed))
			So(a, ShouldResemble, b)
		})

		Convey("The population should be valid and sized by the config", func() {
			pop := GeneratePopulation(cfg, newRNG(cfg.Seed))
			So(pop.Validate(), ShouldBeNil)
			So(pop.Candidates, ShouldHaveLength, cfg.Candidates)
			So(pop.Slots, ShouldHaveLength, cfg.Slots)
			for _, s := range pop.Slots {
				So(s.Capacity, ShouldBeBetweenOrEqual, 1, cfg.MaxCapacity)
			}
			So(pop.Candidates[0].ID, ShouldEqual, "cand-00001")
			So(pop.Slots[0].ID, ShouldEqual, "slot-001")
		})

		Convey("A script without invalid edits should be fully accepted", func() {
			cfg.InvalidRate = 0
			rng := newRNG(cfg.Seed)
			pop := GeneratePopulation(cfg, rng)
			script, err := GenerateScript(cfg, pop, rng)
			So(err, ShouldBeNil)
			So(script, ShouldHaveLength, cfg.Edits)

			_, _, rejected, err := Expected(pop, script)
			So(err, ShouldBeNil)
			So(rejected, ShouldEqual, 0)
		})

		Convey("A script of only invalid edits should be fully rejected", func() {
			cfg.InvalidRate = 1
			rng := newRNG(cfg.Seed)
			pop := GeneratePopulation(cfg, rng)
			script, err := GenerateScript(cfg, pop, rng)
			So(err, ShouldBeNil)

			in, res, rejected, err := Expected(pop, script)
			So(err, ShouldBeNil)
			So(rejected, ShouldEqual, cfg.Edits)
			So(res.Assignment, ShouldBeEmpty)
			So(res.Unassigned, ShouldHaveLength, len(in.Order))
		})
	})
}

func TestInterleave(t *testing.T) {
	Convey("Given a script touching the same candidates repeatedly", t, func() {
		script := []Edit{
			{Seq: 0, Candidate: "a", Slots: []string{"x"}},
			{Seq: 1, Candidate: "b", Slots: []string{"x"}},
			{Seq: 2, Candidate: "a", Slots: []string{"y"}},
			{Seq: 3, Candidate: "c"},
			{Seq: 4, Candidate: "b", Slots: []string{"y"}},
			{Seq: 5, Candidate: "a"},
		}

		Convey("Every interleaving should be a permutation preserving per-candidate order", func() {
			rng := newRNG(3)
			for range 20 {
				out := Interleave(script, rng)
				So(out, ShouldHaveLength, len(script))

				last := map[string]int{}
				seen := map[int]bool{}
				for _, e := range out {
					prev, ok := last[e.Candidate]
					if ok {
						So(e.Seq, ShouldBeGreaterThan, prev)
					}
					last[e.Candidate] = e.Seq
					seen[e.Seq] = true
				}
				So(seen, ShouldHaveLength, len(script))
			}
		})
	})
}

func TestCheck(t *testing.T) {
	Convey("Given the offline result for a generated script", t, func() {
		cfg := smallConfig()
		rng := newRNG(cfg.Seed)
		pop := GeneratePopulation(cfg, rng)
		script, err := GenerateScript(cfg, pop, rng)
		So(err, ShouldBeNil)
		in, res, _, err := Expected(pop, script)
		So(err, ShouldBeNil)
		expected := res.Assignment.Digest()

		Convey("A matching revision should pass", func() {
			rev := model.NewRevision(1, 1, "simulation", res.Assignment, time.Now())
			So(Check(in, expected, rev), ShouldBeNil)
		})

		Convey("A different digest should be reported as divergence", func() {
			rev := model.NewRevision(1, 1, "simulation", res.Assignment, time.Now())
			rev.Digest = "0000"
			So(Check(in, expected, rev), ShouldWrap, ErrDiverged)
		})

		Convey("An assignment outside the lists should be an invariant violation", func() {
			bad := res.Assignment.Clone()
			bad[in.Order[0]] = "slot-unknown"
			rev := model.NewRevision(1, 1, "simulation", bad, time.Now())
			So(Check(in, expected, rev), ShouldWrap, model.ErrInvariantViolation)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a small simulation", t, func() {
		cfg := smallConfig()

		Convey("Every replay should converge on the offline assignment", func() {
			report, err := Run(context.Background(), cfg)
			So(err, ShouldBeNil)
			So(report.Replays, ShouldHaveLength, cfg.Orders)
			So(Converged(report.Replays), ShouldBeTrue)
			So(report.Assigned+report.Unassigned, ShouldEqual, cfg.Candidates)
			for _, r := range report.Replays {
				So(r.Digest, ShouldEqual, report.Expected)
				So(r.Accepted+r.Rejected, ShouldEqual, cfg.Edits)
				So(r.Version, ShouldBeGreaterThanOrEqualTo, 1)
			}
		})

		Convey("An invalid configuration should fail fast", func() {
			cfg.Orders = 0
			_, err := Run(context.Background(), cfg)
			So(err, ShouldWrap, ErrInvalidConfig)
		})
	})
}
