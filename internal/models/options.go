package models

import "time"

// OptionRecord represents one strike's call or put data.
// A nil Volume or OpenInterest means the provider did not report it,
// which is different from a reported zero.
type OptionRecord struct {
	Strike       float64 `json:"strike"`
	Volume       *int64  `json:"volume,omitempty"`
	OpenInterest *int64  `json:"open_interest,omitempty"`
}

// OptionChain is a provider snapshot of one expiry's call and put records.
type OptionChain struct {
	Ticker    string         `json:"ticker"`
	Expiry    string         `json:"expiry"`
	Calls     []OptionRecord `json:"calls"`
	Puts      []OptionRecord `json:"puts"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// IsEmpty returns true if neither side carries any records.
func (c *OptionChain) IsEmpty() bool {
	return c == nil || (len(c.Calls) == 0 && len(c.Puts) == 0)
}

// StrikeRow is the outer join of the call and put records sharing a strike.
// Percentage shares are nil when undefined.
type StrikeRow struct {
	Strike     float64  `json:"strike"`
	CallVolume *int64   `json:"call_volume,omitempty"`
	PutVolume  *int64   `json:"put_volume,omitempty"`
	CallVolPct *float64 `json:"call_vol_pct,omitempty"`
	PutVolPct  *float64 `json:"put_vol_pct,omitempty"`
	CallOI     *int64   `json:"call_oi,omitempty"`
	PutOI      *int64   `json:"put_oi,omitempty"`
	CallOIPct  *float64 `json:"call_oi_pct,omitempty"`
	PutOIPct   *float64 `json:"put_oi_pct,omitempty"`
}

// NetOI returns call OI minus put OI, counting a missing side as zero.
func (r StrikeRow) NetOI() int64 {
	return Value(r.CallOI) - Value(r.PutOI)
}

// ChainTable is the strike-filtered, ascending sequence of rows.
type ChainTable struct {
	StrikeMin float64     `json:"strike_min"`
	StrikeMax float64     `json:"strike_max"`
	Rows      []StrikeRow `json:"rows"`
}

// Len returns the number of rows.
func (t *ChainTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Strikes returns the strikes of the table in order.
func (t *ChainTable) Strikes() []float64 {
	if t == nil {
		return nil
	}
	strikes := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		strikes[i] = r.Strike
	}
	return strikes
}

// DerivedMetrics holds the overlay levels computed from a table and a spot price.
type DerivedMetrics struct {
	MaxPain     *float64 `json:"max_pain,omitempty"`
	VolTrigger  *float64 `json:"vol_trigger,omitempty"`
	SupportWall *float64 `json:"support_wall,omitempty"`
}

// Summary holds chain-wide aggregates.
type Summary struct {
	TotalCallVolume int64    `json:"total_call_volume"`
	TotalPutVolume  int64    `json:"total_put_volume"`
	TotalCallOI     int64    `json:"total_call_oi"`
	TotalPutOI      int64    `json:"total_put_oi"`
	PutCallRatio    *float64 `json:"put_call_ratio,omitempty"`
}

// DisplayRow is the string rendering of a StrikeRow.
type DisplayRow struct {
	Strike     string `json:"strike"`
	CallVolume string `json:"call_volume"`
	PutVolume  string `json:"put_volume"`
	CallVolPct string `json:"call_vol_pct"`
	PutVolPct  string `json:"put_vol_pct"`
	CallOI     string `json:"call_oi"`
	PutOI      string `json:"put_oi"`
	CallOIPct  string `json:"call_oi_pct"`
	PutOIPct   string `json:"put_oi_pct"`
}

// DisplayHeaders are the column headers matching DisplayRow.Cells.
var DisplayHeaders = []string{
	"Strike", "Call Vol", "Put Vol", "Call Vol %", "Put Vol %",
	"Call OI", "Put OI", "Call OI %", "Put OI %",
}

// Cells returns the row's values in DisplayHeaders order.
func (d DisplayRow) Cells() []string {
	return []string{
		d.Strike, d.CallVolume, d.PutVolume, d.CallVolPct, d.PutVolPct,
		d.CallOI, d.PutOI, d.CallOIPct, d.PutOIPct,
	}
}
