package types_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/pegsync/internal/domain/model"
	types "github.com/okian/pegsync/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAllocationResultJSON(t *testing.T) {
	Convey("Given an allocation result", t, func() {
		res := types.AllocationResult{
			Mode: model.ModeFair,
			Allocation: model.Allocation{
				{ParticipantID: "a", ParticipantName: "Ann", Slot: 1},
			},
			FairnessScore: 86,
			Rating:        "good",
		}

		Convey("When encoded", func() {
			raw, err := json.Marshal(res)

			Convey("Then it uses snake_case keys and omits false guest flags", func() {
				So(err, ShouldBeNil)
				So(string(raw), ShouldEqual,
					`{"mode":"fair","allocation":[{"participant_id":"a","participant_name":"Ann","slot":1}],"fairness_score":86,"rating":"good"}`)
			})
		})
	})
}

func TestDistributionReportJSON(t *testing.T) {
	Convey("Given a distribution report", t, func() {
		rep := types.DistributionReport{ParticipantID: "a", Slots: map[int]int{1: 2, 2: 0}}

		Convey("When encoded", func() {
			raw, err := json.Marshal(rep)

			Convey("Then slot numbers become object keys", func() {
				So(err, ShouldBeNil)
				So(string(raw), ShouldEqual, `{"participant_id":"a","slots":{"1":2,"2":0}}`)
			})
		})
	})
}
