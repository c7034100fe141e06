package chain

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"options-dashboard/internal/models"
)

// Counts below zero in generated data stand for "not reported".
const missing = -1

// recordsGen generates one side of a chain on a 5-point strike grid
// starting at 50. Strikes repeat across sides so the join has work to do.
func recordsGen() gopter.Gen {
	return gen.SliceOfN(30, gen.IntRange(missing, 5000)).Map(func(counts []int) []models.OptionRecord {
		records := make([]models.OptionRecord, 0, len(counts)/2)
		for i := 0; i+1 < len(counts); i += 2 {
			records = append(records, models.OptionRecord{
				Strike:       float64(50 + 5*((i/2+counts[i+1]+1)%40)),
				Volume:       count(counts[i]),
				OpenInterest: count(counts[i+1]),
			})
		}
		return records
	})
}

func count(v int) *int64 {
	if v < 0 {
		return nil
	}
	return models.Int64(int64(v))
}

func properties() *gopter.Properties {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())
	return gopter.NewProperties(parameters)
}

// Property: whenever both sides of a strike are reported with a positive
// total, the call and put shares add up to 100.
func TestProperty_PercentSharesSumTo100(t *testing.T) {
	props := properties()

	props.Property("call% + put% == 100 when defined", prop.ForAll(
		func(calls, puts []models.OptionRecord) bool {
			table, err := Transform(calls, puts, 0, 1000)
			if err != nil {
				return len(calls) == 0 && len(puts) == 0
			}
			for _, r := range table.Rows {
				if !sharesConsistent(r.CallVolume, r.PutVolume, r.CallVolPct, r.PutVolPct) {
					return false
				}
				if !sharesConsistent(r.CallOI, r.PutOI, r.CallOIPct, r.PutOIPct) {
					return false
				}
			}
			return true
		},
		recordsGen(),
		recordsGen(),
	))

	props.TestingRun(t)
}

func sharesConsistent(call, put *int64, callPct, putPct *float64) bool {
	defined := call != nil && put != nil && *call+*put > 0
	if !defined {
		return callPct == nil && putPct == nil
	}
	if callPct == nil || putPct == nil {
		return false
	}
	if math.IsNaN(*callPct) || math.IsNaN(*putPct) {
		return false
	}
	return math.Abs(*callPct+*putPct-100) < 1e-9
}

// Property: every row lies within the requested bounds and strikes strictly
// ascend.
func TestProperty_RowsWithinBoundsAndAscending(t *testing.T) {
	props := properties()

	props.Property("rows in [min, max] and sorted", prop.ForAll(
		func(calls, puts []models.OptionRecord, lo, width float64) bool {
			hi := lo + width
			table, err := Transform(calls, puts, lo, hi)
			if err != nil {
				return true
			}
			for i, r := range table.Rows {
				if r.Strike < lo || r.Strike > hi {
					return false
				}
				if i > 0 && table.Rows[i-1].Strike >= r.Strike {
					return false
				}
			}
			return true
		},
		recordsGen(),
		recordsGen(),
		gen.Float64Range(0, 300),
		gen.Float64Range(0, 150),
	))

	props.TestingRun(t)
}

// Property: max pain is a strike reporting both OI sides and no such row has
// a smaller |callOI - putOI|. It is unset only when no row has both sides.
func TestProperty_MaxPainIsMinimal(t *testing.T) {
	props := properties()

	props.Property("max pain attains the minimum imbalance", prop.ForAll(
		func(calls, puts []models.OptionRecord) bool {
			table, err := Transform(calls, puts, 0, 1000)
			if err != nil {
				return true
			}
			m := Derive(table, 0)
			if m.MaxPain == nil {
				for _, r := range table.Rows {
					if r.CallOI != nil && r.PutOI != nil {
						return false
					}
				}
				return true
			}

			var painRow *models.StrikeRow
			for i := range table.Rows {
				if table.Rows[i].Strike == *m.MaxPain {
					painRow = &table.Rows[i]
				}
			}
			if painRow == nil || painRow.CallOI == nil || painRow.PutOI == nil {
				return false
			}

			best := math.Abs(float64(painRow.NetOI()))
			for _, r := range table.Rows {
				if r.CallOI == nil || r.PutOI == nil {
					continue
				}
				if math.Abs(float64(r.NetOI())) < best {
					return false
				}
			}
			return true
		},
		recordsGen(),
		recordsGen(),
	))

	props.TestingRun(t)
}

// Property: vol trigger sits at or above spot and the support wall at or
// below it, and both are the nearest such strikes.
func TestProperty_TriggerAboveSpotAboveWall(t *testing.T) {
	props := properties()

	props.Property("volTrigger >= spot >= supportWall", prop.ForAll(
		func(calls, puts []models.OptionRecord, spot float64) bool {
			table, err := Transform(calls, puts, 0, 1000)
			if err != nil {
				return true
			}
			m := Derive(table, spot)

			if m.VolTrigger != nil && *m.VolTrigger < spot {
				return false
			}
			if m.SupportWall != nil && *m.SupportWall > spot {
				return false
			}
			if m.VolTrigger != nil && m.SupportWall != nil && *m.VolTrigger < *m.SupportWall {
				return false
			}

			for _, r := range table.Rows {
				if r.Strike >= spot && (m.VolTrigger == nil || r.Strike < *m.VolTrigger) {
					return false
				}
				if r.Strike <= spot && (m.SupportWall == nil || r.Strike > *m.SupportWall) {
					return false
				}
			}
			return true
		},
		recordsGen(),
		recordsGen(),
		gen.Float64Range(1, 300),
	))

	props.TestingRun(t)
}

// Property: an unknown spot never produces trigger or wall levels.
func TestProperty_UnknownSpotHasNoLevels(t *testing.T) {
	props := properties()

	props.Property("spot <= 0 leaves trigger and wall unset", prop.ForAll(
		func(calls []models.OptionRecord, spot float64) bool {
			table, err := Transform(calls, nil, 0, 1000)
			if err != nil {
				return true
			}
			m := Derive(table, spot)
			// Calls only, so no row reports put OI.
			return m.VolTrigger == nil && m.SupportWall == nil && m.MaxPain == nil
		},
		recordsGen(),
		gen.Float64Range(-500, 0),
	))

	props.TestingRun(t)
}
