package preference_test

import (
	"errors"
	"testing"

	"github.com/okian/vacancy/internal/domain/model"
	"github.com/okian/vacancy/internal/domain/preference"
	"github.com/okian/vacancy/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func newStore(opts ...preference.Option) (*preference.Store, *ranking.Model) {
	ranks, err := ranking.New([]model.Candidate{
		{ID: "first", Rank: 1},
		{ID: "second", Rank: 2},
		{ID: "third", Rank: 3},
	})
	So(err, ShouldBeNil)
	slots := []model.Slot{{ID: "x", Capacity: 1}, {ID: "y", Capacity: 2}, {ID: "z", Capacity: 1}}
	return preference.New(slots, ranks, opts...), ranks
}

func TestMaxPreferences(t *testing.T) {
	Convey("The quota equals the rank", t, func() {
		So(preference.MaxPreferences(1), ShouldEqual, 1)
		So(preference.MaxPreferences(7), ShouldEqual, 7)
		So(preference.MaxPreferences(0), ShouldEqual, 0)
	})
}

func TestSet(t *testing.T) {
	Convey("Given a store with the reject policy", t, func() {
		store, _ := newStore()
		So(store.Policy(), ShouldEqual, preference.PolicyReject)

		Convey("When a list exactly at quota is set", func() {
			list, err := store.Set("second", []string{"y", "x"})

			Convey("Then it is accepted", func() {
				So(err, ShouldBeNil)
				So(list, ShouldResemble, model.PreferenceList{"y", "x"})
				So(store.Of("second"), ShouldResemble, model.PreferenceList{"y", "x"})
			})
		})

		Convey("When a list one over quota is set", func() {
			_, err := store.Set("second", []string{"y", "x", "z"})

			Convey("Then it is rejected citing the quota", func() {
				So(errors.Is(err, model.ErrInvalidPreferenceList), ShouldBeTrue)
				var perr *model.PreferenceError
				So(errors.As(err, &perr), ShouldBeTrue)
				So(perr.Quota, ShouldEqual, 2)
				So(err.Error(), ShouldContainSubstring, "at most 2")
			})
		})

		Convey("When a rejected edit follows an accepted one", func() {
			_, err := store.Set("third", []string{"z"})
			So(err, ShouldBeNil)
			_, err = store.Set("third", []string{"z", "z"})

			Convey("Then the prior list is unchanged", func() {
				So(errors.Is(err, model.ErrInvalidPreferenceList), ShouldBeTrue)
				So(store.Of("third"), ShouldResemble, model.PreferenceList{"z"})
			})
		})

		Convey("When a slot is unknown", func() {
			_, err := store.Set("third", []string{"mars"})

			Convey("Then both error kinds match", func() {
				So(errors.Is(err, model.ErrInvalidPreferenceList), ShouldBeTrue)
				So(errors.Is(err, model.ErrUnknownSlot), ShouldBeTrue)
			})
		})

		Convey("When the candidate is unknown", func() {
			_, err := store.Set("ghost", nil)

			Convey("Then it is reported", func() {
				So(errors.Is(err, model.ErrUnknownCandidate), ShouldBeTrue)
			})
		})

		Convey("When an empty list is set", func() {
			_, _ = store.Set("first", []string{"x"})
			_, err := store.Set("first", []string{})

			Convey("Then the candidate withdraws", func() {
				So(err, ShouldBeNil)
				So(store.Of("first"), ShouldBeEmpty)
				So(store.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the caller mutates its input afterwards", func() {
			in := []string{"x", "y"}
			_, err := store.Set("second", in)
			So(err, ShouldBeNil)
			in[0] = "z"

			Convey("Then the stored list is unaffected", func() {
				So(store.Of("second"), ShouldResemble, model.PreferenceList{"x", "y"})
			})
		})
	})

	Convey("Given a store with the truncate policy", t, func() {
		store, _ := newStore(preference.WithPolicy(preference.PolicyTruncate))

		Convey("When a list over quota is set", func() {
			list, err := store.Set("first", []string{"z", "x"})

			Convey("Then it keeps the first quota entries", func() {
				So(err, ShouldBeNil)
				So(list, ShouldResemble, model.PreferenceList{"z"})
			})
		})

		Convey("When a list has duplicates", func() {
			_, err := store.Set("third", []string{"x", "x"})

			Convey("Then it is still rejected", func() {
				So(errors.Is(err, model.ErrInvalidPreferenceList), ShouldBeTrue)
			})
		})
	})
}

func TestClearSnapshotRestore(t *testing.T) {
	Convey("Given a store with lists", t, func() {
		store, ranks := newStore()
		_, _ = store.Set("first", []string{"x"})
		_, _ = store.Set("third", []string{"z", "y"})

		Convey("When a snapshot is taken and cleared", func() {
			snap := store.Snapshot()
			store.ClearAll()

			Convey("Then the snapshot survives and the store is empty", func() {
				So(snap, ShouldHaveLength, 2)
				So(store.Len(), ShouldEqual, 0)
				So(store.Of("third"), ShouldBeEmpty)
			})
		})

		Convey("When persisted lists are restored", func() {
			truncated, skipped := store.Restore(map[string]model.PreferenceList{
				"first":  {"x", "y"},
				"second": {"mars"},
				"ghost":  {"x"},
				"third":  {"y"},
			})

			Convey("Then bad lists are skipped and long lists truncated", func() {
				So(truncated, ShouldResemble, []string{"first"})
				So(skipped, ShouldHaveLength, 2)
				So(store.Of("first"), ShouldResemble, model.PreferenceList{"x"})
				So(store.Of("second"), ShouldBeEmpty)
				So(store.Of("third"), ShouldResemble, model.PreferenceList{"y"})
			})
		})

		Convey("When third is promoted to rank 1", func() {
			_, err := ranks.Move("third", 1)
			So(err, ShouldBeNil)
			list, cut, err := store.Enforce("third")

			Convey("Then its list is cut to the new quota", func() {
				So(err, ShouldBeNil)
				So(cut, ShouldBeTrue)
				So(list, ShouldResemble, model.PreferenceList{"z"})
			})

			Convey("And a candidate within quota is untouched", func() {
				list, cut, err := store.Enforce("first")
				So(err, ShouldBeNil)
				So(cut, ShouldBeFalse)
				So(list, ShouldResemble, model.PreferenceList{"x"})
			})
		})
	})
}

func TestParsePolicy(t *testing.T) {
	Convey("Policies parse case-insensitively", t, func() {
		p, err := preference.ParsePolicy(" Truncate ")
		So(err, ShouldBeNil)
		So(p, ShouldEqual, preference.PolicyTruncate)
		p, err = preference.ParsePolicy("")
		So(err, ShouldBeNil)
		So(p, ShouldEqual, preference.PolicyReject)
		_, err = preference.ParsePolicy("lottery")
		So(err, ShouldNotBeNil)
	})
}
