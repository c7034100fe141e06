package chain

import (
	"math"

	"github.com/montanaflynn/stats"

	"options-dashboard/internal/models"
)

// Derive computes the chart overlay levels for table at the given spot.
//
// MaxPain is the strike with the smallest |callOI - putOI| among rows that
// report open interest on both sides; ties go to the lower strike and it
// stays nil when no row has both. VolTrigger is the lowest strike at or above spot and SupportWall
// the highest strike at or below it; both stay nil when spot <= 0.
func Derive(table *models.ChainTable, spot float64) models.DerivedMetrics {
	var m models.DerivedMetrics
	if table.Len() == 0 {
		return m
	}

	best := math.Inf(1)
	for _, r := range table.Rows {
		if r.CallOI == nil || r.PutOI == nil {
			continue
		}
		if diff := math.Abs(float64(r.NetOI())); diff < best {
			best = diff
			m.MaxPain = models.Float64(r.Strike)
		}
	}

	if spot <= 0 || math.IsNaN(spot) {
		return m
	}

	for _, r := range table.Rows {
		if r.Strike >= spot && (m.VolTrigger == nil || r.Strike < *m.VolTrigger) {
			m.VolTrigger = models.Float64(r.Strike)
		}
		if r.Strike <= spot && (m.SupportWall == nil || r.Strike > *m.SupportWall) {
			m.SupportWall = models.Float64(r.Strike)
		}
	}

	return m
}

// Summarize totals volume and open interest over the reported values.
// PutCallRatio is nil when there is no call volume.
func Summarize(table *models.ChainTable) models.Summary {
	var callVol, putVol, callOI, putOI stats.Float64Data
	if table != nil {
		for _, r := range table.Rows {
			callVol = appendReported(callVol, r.CallVolume)
			putVol = appendReported(putVol, r.PutVolume)
			callOI = appendReported(callOI, r.CallOI)
			putOI = appendReported(putOI, r.PutOI)
		}
	}

	s := models.Summary{
		TotalCallVolume: total(callVol),
		TotalPutVolume:  total(putVol),
		TotalCallOI:     total(callOI),
		TotalPutOI:      total(putOI),
	}
	if s.TotalCallVolume > 0 {
		s.PutCallRatio = models.Float64(float64(s.TotalPutVolume) / float64(s.TotalCallVolume))
	}
	return s
}

func appendReported(data stats.Float64Data, v *int64) stats.Float64Data {
	if v == nil {
		return data
	}
	return append(data, float64(*v))
}

// total returns the sum of data; stats.Sum errors only on empty input.
func total(data stats.Float64Data) int64 {
	sum, err := stats.Sum(data)
	if err != nil {
		return 0
	}
	return int64(math.Round(sum))
}
