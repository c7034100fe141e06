// Package chain turns raw per-strike option records into the strike table
// shown on the dashboard and derives the overlay levels drawn on the charts.
package chain

import (
	"math"
	"sort"

	apperrors "options-dashboard/internal/errors"
	"options-dashboard/internal/models"
)

// Transform joins calls and puts on strike, keeps strikes within
// [strikeMin, strikeMax] and computes the call/put percentage shares.
//
// It returns ErrNoData when both inputs are empty and ErrNoStrikesInRange
// when no strike survives the filter. Non-finite strikes never survive it.
// A strike listed more than once on the same side keeps the last record.
func Transform(calls, puts []models.OptionRecord, strikeMin, strikeMax float64) (*models.ChainTable, error) {
	if len(calls) == 0 && len(puts) == 0 {
		return nil, apperrors.ErrNoData
	}

	rows := make(map[float64]*models.StrikeRow, len(calls)+len(puts))
	row := func(strike float64) *models.StrikeRow {
		r, ok := rows[strike]
		if !ok {
			r = &models.StrikeRow{Strike: strike}
			rows[strike] = r
		}
		return r
	}

	for _, c := range calls {
		r := row(c.Strike)
		r.CallVolume = c.Volume
		r.CallOI = c.OpenInterest
	}
	for _, p := range puts {
		r := row(p.Strike)
		r.PutVolume = p.Volume
		r.PutOI = p.OpenInterest
	}

	table := &models.ChainTable{StrikeMin: strikeMin, StrikeMax: strikeMax}
	for strike, r := range rows {
		if !(strike >= strikeMin && strike <= strikeMax) || math.IsInf(strike, 0) {
			continue
		}
		r.CallVolPct, r.PutVolPct = shares(r.CallVolume, r.PutVolume)
		r.CallOIPct, r.PutOIPct = shares(r.CallOI, r.PutOI)
		table.Rows = append(table.Rows, *r)
	}

	if len(table.Rows) == 0 {
		return nil, apperrors.ErrNoStrikesInRange
	}

	sort.Slice(table.Rows, func(i, j int) bool {
		return table.Rows[i].Strike < table.Rows[j].Strike
	})

	return table, nil
}

// shares returns the call and put percentage of call+put. Both are nil
// unless both sides are reported and their sum is positive.
func shares(call, put *int64) (*float64, *float64) {
	if call == nil || put == nil {
		return nil, nil
	}
	total := *call + *put
	if total <= 0 {
		return nil, nil
	}
	callPct := float64(*call) / float64(total) * 100
	return models.Float64(callPct), models.Float64(100 - callPct)
}
