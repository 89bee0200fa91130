package ranking_test

import (
	"errors"
	"testing"

	"github.com/okian/vacancy/internal/domain/model"
	"github.com/okian/vacancy/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNew(t *testing.T) {
	Convey("Given candidates with supplied ranks", t, func() {
		cands := []model.Candidate{
			{ID: "c", Rank: 30},
			{ID: "a", Rank: 10},
			{ID: "b", Rank: 20},
		}

		Convey("When the model is built", func() {
			m, err := ranking.New(cands)

			Convey("Then ranks are compacted in order", func() {
				So(err, ShouldBeNil)
				So(m.Order(), ShouldResemble, []string{"a", "b", "c"})
				r, err := m.RankOf("c")
				So(err, ShouldBeNil)
				So(r, ShouldEqual, 3)
				So(m.Len(), ShouldEqual, 3)
				So(m.Has("b"), ShouldBeTrue)
				So(m.Has("z"), ShouldBeFalse)
			})
		})

		Convey("When two candidates share a rank", func() {
			cands[2].Rank = 30
			_, err := ranking.New(cands)

			Convey("Then loading fails with a collision", func() {
				So(errors.Is(err, model.ErrRankCollision), ShouldBeTrue)
			})
		})

		Convey("When one rank is missing", func() {
			cands[0].Rank = 0
			_, err := ranking.New(cands)

			Convey("Then loading fails with an invalid rank", func() {
				So(errors.Is(err, model.ErrInvalidRank), ShouldBeTrue)
			})
		})
	})

	Convey("Given candidates with only scores", t, func() {
		m, err := ranking.New([]model.Candidate{
			{ID: "low", Score: 10},
			{ID: "tie-b", Score: 50},
			{ID: "tie-a", Score: 50},
			{ID: "top", Score: 99.5},
		})

		Convey("Then ranks follow score descending and id ascending", func() {
			So(err, ShouldBeNil)
			So(m.Order(), ShouldResemble, []string{"top", "tie-a", "tie-b", "low"})
		})
	})

	Convey("Given an unknown candidate", t, func() {
		m, _ := ranking.New([]model.Candidate{{ID: "a", Rank: 1}})
		_, err := m.RankOf("ghost")

		Convey("Then RankOf reports it", func() {
			So(errors.Is(err, model.ErrUnknownCandidate), ShouldBeTrue)
		})
	})
}

func TestMove(t *testing.T) {
	Convey("Given five ranked candidates", t, func() {
		m, err := ranking.New([]model.Candidate{
			{ID: "a", Rank: 1}, {ID: "b", Rank: 2}, {ID: "c", Rank: 3}, {ID: "d", Rank: 4}, {ID: "e", Rank: 5},
		})
		So(err, ShouldBeNil)

		Convey("When d moves up to rank 2", func() {
			changed, err := m.Move("d", 2)

			Convey("Then b and c shift down", func() {
				So(err, ShouldBeNil)
				So(m.Order(), ShouldResemble, []string{"a", "d", "b", "c", "e"})
				So(changed, ShouldResemble, []string{"d", "b", "c"})
				r, _ := m.RankOf("c")
				So(r, ShouldEqual, 4)
			})
		})

		Convey("When a moves down to rank 4", func() {
			changed, err := m.Move("a", 4)

			Convey("Then b, c and d shift up", func() {
				So(err, ShouldBeNil)
				So(m.Order(), ShouldResemble, []string{"b", "c", "d", "a", "e"})
				So(changed, ShouldResemble, []string{"b", "c", "d", "a"})
			})
		})

		Convey("When a candidate moves to its own rank", func() {
			changed, err := m.Move("c", 3)

			Convey("Then nothing changes", func() {
				So(err, ShouldBeNil)
				So(changed, ShouldBeEmpty)
			})
		})

		Convey("When the target rank is out of range", func() {
			_, err0 := m.Move("c", 0)
			_, err6 := m.Move("c", 6)

			Convey("Then the move is rejected", func() {
				So(errors.Is(err0, model.ErrInvalidRank), ShouldBeTrue)
				So(errors.Is(err6, model.ErrInvalidRank), ShouldBeTrue)
				So(m.Order(), ShouldResemble, []string{"a", "b", "c", "d", "e"})
			})
		})

		Convey("When a clone is moved", func() {
			c := m.Clone()
			_, err := c.Move("e", 1)
			So(err, ShouldBeNil)

			Convey("Then the original is untouched", func() {
				So(m.Order(), ShouldResemble, []string{"a", "b", "c", "d", "e"})
				So(c.Order()[0], ShouldEqual, "e")
			})
		})
	})
}
