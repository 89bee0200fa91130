package allocation_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/okian/vacancy/internal/domain/allocation"
	"github.com/okian/vacancy/internal/domain/model"
	"github.com/okian/vacancy/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestAllocateScenarios(t *testing.T) {
	Convey("Given slot X with one seat", t, func() {
		in := allocation.Input{
			Order:      []string{"A", "B"},
			Capacities: map[string]int{"X": 1},
			Preferences: map[string]model.PreferenceList{
				"A": {"X"},
				"B": {"X"},
			},
		}

		Convey("When both candidates want X", func() {
			res := allocation.Allocate(in)

			Convey("Then the better rank gets it", func() {
				So(res.Assignment, ShouldResemble, model.Assignment{"A": "X"})
				So(res.Unassigned, ShouldResemble, []string{"B"})
				So(res.Occupancy["X"], ShouldEqual, 1)
			})
		})

		Convey("When A withdraws", func() {
			in.Preferences["A"] = nil
			res := allocation.Allocate(in)

			Convey("Then B moves into X", func() {
				So(res.Assignment, ShouldResemble, model.Assignment{"B": "X"})
				So(res.Unassigned, ShouldResemble, []string{"A"})
			})
		})
	})

	Convey("Given slot Y with two seats and three candidates", t, func() {
		in := allocation.Input{
			Order:      []string{"r1", "r2", "r3"},
			Capacities: map[string]int{"Y": 2},
			Preferences: map[string]model.PreferenceList{
				"r1": {"Y"}, "r2": {"Y"}, "r3": {"Y"},
			},
		}
		res := allocation.Allocate(in)

		Convey("Then ranks 1 and 2 fill Y", func() {
			So(res.Assignment, ShouldResemble, model.Assignment{"r1": "Y", "r2": "Y"})
			So(res.Unassigned, ShouldResemble, []string{"r3"})
		})
	})

	Convey("Given a candidate whose first choice is full", t, func() {
		in := allocation.Input{
			Order:      []string{"a", "b"},
			Capacities: map[string]int{"x": 1, "y": 1, "z": 0},
			Preferences: map[string]model.PreferenceList{
				"a": {"x"},
				"b": {"z", "x", "y"},
			},
		}
		res := allocation.Allocate(in)

		Convey("Then it falls through to the next listed slot", func() {
			So(res.Assignment["b"], ShouldEqual, "y")
			So(res.Unassigned, ShouldBeEmpty)
		})
	})

	Convey("Given no input at all", t, func() {
		res := allocation.Allocate(allocation.Input{})

		Convey("Then the assignment is empty", func() {
			So(res.Assignment, ShouldBeEmpty)
			So(res.Unassigned, ShouldBeEmpty)
		})
	})
}

func randomInput(rng *rand.Rand, candidates, slots int) allocation.Input {
	in := allocation.Input{
		Capacities:  make(map[string]int, slots),
		Preferences: make(map[string]model.PreferenceList, candidates),
	}
	slotIDs := make([]string, slots)
	for i := range slotIDs {
		slotIDs[i] = fmt.Sprintf("s%02d", i)
		in.Capacities[slotIDs[i]] = rng.Intn(4)
	}
	for i := 0; i < candidates; i++ {
		id := fmt.Sprintf("c%03d", i)
		in.Order = append(in.Order, id)
		n := rng.Intn(min(i+1, slots) + 1)
		perm := rng.Perm(slots)[:n]
		list := make(model.PreferenceList, 0, n)
		for _, p := range perm {
			list = append(list, slotIDs[p])
		}
		in.Preferences[id] = list
	}
	return in
}

func TestAllocateProperties(t *testing.T) {
	Convey("Given random populations", t, func() {
		rng := rand.New(rand.NewSource(7)) //nolint:gosec // reproducible fixtures

		for round := 0; round < 50; round++ {
			in := randomInput(rng, 1+rng.Intn(40), 1+rng.Intn(8))
			res := allocation.Allocate(in)

			So(allocation.Verify(in, res.Assignment), ShouldBeNil)

			again := allocation.Allocate(in.Clone())
			So(again.Assignment.Equal(res.Assignment), ShouldBeTrue)
			So(again.Assignment.Digest(), ShouldEqual, res.Assignment.Digest())
			So(len(res.Assignment)+len(res.Unassigned), ShouldEqual, len(in.Order))
		}
	})
}

func TestVerify(t *testing.T) {
	Convey("Given a valid input", t, func() {
		in := allocation.Input{
			Order:      []string{"a", "b", "c"},
			Capacities: map[string]int{"x": 1, "y": 1},
			Preferences: map[string]model.PreferenceList{
				"a": {"x"}, "b": {"x", "y"}, "c": {"y"},
			},
		}

		Convey("When the capacity is exceeded", func() {
			err := allocation.Verify(in, model.Assignment{"a": "x", "b": "x", "c": "y"})
			Convey("Then verification fails", func() {
				So(errors.Is(err, model.ErrInvariantViolation), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "capacity")
			})
		})

		Convey("When a slot is not on the holder's list", func() {
			err := allocation.Verify(in, model.Assignment{"a": "y"})
			Convey("Then verification fails", func() {
				So(err.Error(), ShouldContainSubstring, "not on its list")
			})
		})

		Convey("When a worse rank displaces a better one", func() {
			err := allocation.Verify(in, model.Assignment{"b": "x", "c": "y"})
			Convey("Then verification fails", func() {
				So(err.Error(), ShouldContainSubstring, "displaced")
			})
		})

		Convey("When a preferred slot is left free", func() {
			err := allocation.Verify(in, model.Assignment{"a": "x"})
			Convey("Then verification fails", func() {
				So(err.Error(), ShouldContainSubstring, "free seat")
			})
		})

		Convey("When the pass output is checked", func() {
			err := allocation.Verify(in, allocation.Allocate(in).Assignment)
			Convey("Then it holds", func() {
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestEngine(t *testing.T) {
	Convey("Given an engine with verification", t, func() {
		engine := allocation.NewEngine(allocation.WithVerify(true))
		in := allocation.Input{
			Order:       []string{"a", "b"},
			Capacities:  map[string]int{"x": 1},
			Preferences: map[string]model.PreferenceList{"a": {"x"}, "b": {"x"}},
		}

		Convey("When recomputing everything", func() {
			res, err := engine.RecomputeAll(context.Background(), in, "initial")
			Convey("Then it matches the pure pass", func() {
				So(err, ShouldBeNil)
				So(res.Assignment.Equal(allocation.Allocate(in).Assignment), ShouldBeTrue)
			})
		})

		Convey("When a single candidate changes", func() {
			res, err := engine.OnPreferenceOrRankChange(context.Background(), in, "b")
			Convey("Then a full recompute runs", func() {
				So(err, ShouldBeNil)
				So(res.Assignment, ShouldResemble, model.Assignment{"a": "x"})
			})
		})

		Convey("When the candidate is unknown", func() {
			_, err := engine.OnPreferenceOrRankChange(context.Background(), in, "ghost")
			Convey("Then it is reported", func() {
				So(errors.Is(err, model.ErrUnknownCandidate), ShouldBeTrue)
			})
		})
	})
}
