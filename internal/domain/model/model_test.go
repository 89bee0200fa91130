package model

import (
	"errors"
	"math"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPopulationValidate(t *testing.T) {
	Convey("Given a population", t, func() {
		p := Population{
			Candidates: []Candidate{{ID: "ana", Rank: 1}, {ID: "bo", Rank: 2}},
			Slots:      []Slot{{ID: "north", Capacity: 1}, {ID: "south", Capacity: 0}},
		}

		Convey("When it is well formed", func() {
			Convey("Then it validates", func() {
				So(p.Validate(), ShouldBeNil)
				So(p.Capacities(), ShouldResemble, map[string]int{"north": 1, "south": 0})
			})
		})

		Convey("When a candidate id repeats", func() {
			p.Candidates = append(p.Candidates, Candidate{ID: "ana"})
			Convey("Then it is rejected", func() {
				So(errors.Is(p.Validate(), ErrInvalidPopulation), ShouldBeTrue)
			})
		})

		Convey("When a slot id is blank", func() {
			p.Slots = append(p.Slots, Slot{ID: "  "})
			Convey("Then it is rejected", func() {
				So(errors.Is(p.Validate(), ErrInvalidPopulation), ShouldBeTrue)
			})
		})

		Convey("When a slot has negative capacity", func() {
			p.Slots[0].Capacity = -1
			Convey("Then it is rejected", func() {
				So(errors.Is(p.Validate(), ErrInvalidPopulation), ShouldBeTrue)
			})
		})

		Convey("When a score is NaN", func() {
			p.Candidates[0].Score = math.NaN()
			Convey("Then it is rejected", func() {
				So(errors.Is(p.Validate(), ErrInvalidPopulation), ShouldBeTrue)
			})
		})

		Convey("When a rank is negative", func() {
			p.Candidates[1].Rank = -3
			Convey("Then it is an invalid rank", func() {
				So(errors.Is(p.Validate(), ErrInvalidRank), ShouldBeTrue)
			})
		})
	})
}

func TestPreferenceList(t *testing.T) {
	Convey("Given a preference list", t, func() {
		p := PreferenceList{"a", "b", "c"}

		Convey("Then lookups work", func() {
			So(p.Len(), ShouldEqual, 3)
			So(p.IndexOf("b"), ShouldEqual, 1)
			So(p.IndexOf("z"), ShouldEqual, -1)
			So(p.Contains("c"), ShouldBeTrue)
		})

		Convey("Then truncation copies", func() {
			short := p.Truncate(2)
			So(short, ShouldResemble, PreferenceList{"a", "b"})
			short[0] = "x"
			So(p[0], ShouldEqual, "a")
			So(p.Truncate(10).Equal(p), ShouldBeTrue)
			So(p.Truncate(0), ShouldBeNil)
			So(p.Truncate(-1), ShouldBeNil)
		})

		Convey("Then nil and empty are equal", func() {
			So(PreferenceList(nil).Equal(PreferenceList{}), ShouldBeTrue)
			So(PreferenceList{}.Clone(), ShouldBeNil)
		})
	})
}

func TestAssignment(t *testing.T) {
	Convey("Given an assignment", t, func() {
		a := Assignment{"ana": "north", "bo": "north", "cy": "south"}

		Convey("Then it can be queried", func() {
			s, ok := a.SlotOf("cy")
			So(ok, ShouldBeTrue)
			So(s, ShouldEqual, "south")
			_, ok = a.SlotOf("dee")
			So(ok, ShouldBeFalse)
			So(a.Occupants("north"), ShouldResemble, []string{"ana", "bo"})
			So(a.Counts(), ShouldResemble, map[string]int{"north": 2, "south": 1})
		})

		Convey("Then clones are independent and equal", func() {
			c := a.Clone()
			So(c.Equal(a), ShouldBeTrue)
			c["dee"] = "south"
			So(c.Equal(a), ShouldBeFalse)
			So(a, ShouldHaveLength, 3)
		})

		Convey("Then the digest depends only on content", func() {
			rebuilt := Assignment{}
			rebuilt["cy"] = "south"
			rebuilt["bo"] = "north"
			rebuilt["ana"] = "north"
			So(rebuilt.Digest(), ShouldEqual, a.Digest())

			moved := a.Clone()
			moved["ana"] = "south"
			So(moved.Digest(), ShouldNotEqual, a.Digest())
			So(Assignment{"ab": "c"}.Digest(), ShouldNotEqual, Assignment{"a": "bc"}.Digest())
		})
	})
}

func TestRevision(t *testing.T) {
	Convey("Given two revisions", t, func() {
		at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
		r1 := NewRevision(1, 4, "initial", Assignment{"ana": "north"}, at)
		r2 := NewRevision(2, 9, "preferences", Assignment{"ana": "north"}, at)

		Convey("Then each has its own id and a shared digest", func() {
			So(r1.ID, ShouldNotEqual, r2.ID)
			So(r1.Digest, ShouldEqual, r2.Digest)
			So(r1.ComputedAt.Location(), ShouldEqual, time.UTC)
			So(r2.Newer(r1), ShouldBeTrue)
			So(r1.Newer(r2), ShouldBeFalse)
		})
	})
}

func TestPreferenceError(t *testing.T) {
	Convey("Given preference errors", t, func() {
		Convey("Then quota errors explain the limit", func() {
			err := NewQuotaError("ana", 2, 2, 3)
			So(errors.Is(err, ErrInvalidPreferenceList), ShouldBeTrue)
			So(errors.Is(err, ErrUnknownSlot), ShouldBeFalse)
			So(err.Error(), ShouldContainSubstring, "rank 2 allows at most 2")
		})

		Convey("Then unknown slot errors match both kinds", func() {
			err := NewUnknownSlotError("ana", "mars")
			So(errors.Is(err, ErrInvalidPreferenceList), ShouldBeTrue)
			So(errors.Is(err, ErrUnknownSlot), ShouldBeTrue)
		})

		Convey("Then duplicates name the slot", func() {
			err := NewDuplicateSlotError("ana", "north")
			So(err.Slot, ShouldEqual, "north")
			So(err.Error(), ShouldContainSubstring, "more than once")
		})
	})
}
