package chain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "options-dashboard/internal/errors"
	"options-dashboard/internal/models"
)

func rec(strike float64, volume, oi int64) models.OptionRecord {
	return models.OptionRecord{Strike: strike, Volume: models.Int64(volume), OpenInterest: models.Int64(oi)}
}

func TestTransform_Scenario(t *testing.T) {
	calls := []models.OptionRecord{rec(100, 50, 200), rec(105, 10, 40)}
	puts := []models.OptionRecord{rec(100, 50, 100), rec(105, 90, 60)}

	table, err := Transform(calls, puts, 100, 105)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	assert.Equal(t, 100.0, table.Rows[0].Strike)
	assert.InDelta(t, 50.0, *table.Rows[0].CallVolPct, 1e-9)
	assert.InDelta(t, 50.0, *table.Rows[0].PutVolPct, 1e-9)

	assert.Equal(t, 105.0, table.Rows[1].Strike)
	assert.InDelta(t, 10.0, *table.Rows[1].CallVolPct, 1e-9)
	assert.InDelta(t, 90.0, *table.Rows[1].PutVolPct, 1e-9)

	m := Derive(table, 0)
	require.NotNil(t, m.MaxPain)
	assert.Equal(t, 105.0, *m.MaxPain)
	assert.Nil(t, m.VolTrigger)
	assert.Nil(t, m.SupportWall)
}

func TestTransform_Errors(t *testing.T) {
	_, err := Transform(nil, nil, 0, 1000)
	assert.ErrorIs(t, err, apperrors.ErrNoData)

	_, err = Transform([]models.OptionRecord{rec(50, 1, 1)}, nil, 100, 200)
	assert.ErrorIs(t, err, apperrors.ErrNoStrikesInRange)
}

func TestTransform_OuterJoin(t *testing.T) {
	calls := []models.OptionRecord{rec(90, 5, 5), rec(100, 1, 1)}
	puts := []models.OptionRecord{rec(110, 7, 7), rec(100, 3, 3)}

	table, err := Transform(calls, puts, 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, []float64{90, 100, 110}, table.Strikes())

	// Call-only strike keeps its call data and has no shares.
	assert.Equal(t, int64(5), *table.Rows[0].CallVolume)
	assert.Nil(t, table.Rows[0].PutVolume)
	assert.Nil(t, table.Rows[0].CallVolPct)
	assert.Nil(t, table.Rows[0].PutVolPct)

	// Put-only strike.
	assert.Nil(t, table.Rows[2].CallVolume)
	assert.Equal(t, int64(7), *table.Rows[2].PutOI)
	assert.Nil(t, table.Rows[2].CallOIPct)

	assert.InDelta(t, 25.0, *table.Rows[1].CallVolPct, 1e-9)
}

func TestTransform_UndefinedShares(t *testing.T) {
	calls := []models.OptionRecord{
		rec(100, 0, 0),
		{Strike: 105, Volume: nil, OpenInterest: models.Int64(10)},
	}
	puts := []models.OptionRecord{rec(100, 0, 5), rec(105, 4, 10)}

	table, err := Transform(calls, puts, 100, 105)
	require.NoError(t, err)

	// 0/0 volume is undefined, never NaN.
	assert.Nil(t, table.Rows[0].CallVolPct)
	assert.Nil(t, table.Rows[0].PutVolPct)
	assert.InDelta(t, 0.0, *table.Rows[0].CallOIPct, 1e-9)
	assert.InDelta(t, 100.0, *table.Rows[0].PutOIPct, 1e-9)

	// Missing call volume leaves the volume shares undefined.
	assert.Nil(t, table.Rows[1].CallVolPct)
	assert.InDelta(t, 50.0, *table.Rows[1].CallOIPct, 1e-9)
}

func TestTransform_DuplicateStrikeLastWins(t *testing.T) {
	calls := []models.OptionRecord{rec(100, 1, 1), rec(100, 9, 9)}

	table, err := Transform(calls, nil, 0, 200)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, int64(9), *table.Rows[0].CallVolume)
}

func TestTransform_InclusiveBounds(t *testing.T) {
	calls := []models.OptionRecord{rec(99.5, 1, 1), rec(100, 1, 1), rec(105, 1, 1), rec(105.5, 1, 1)}

	table, err := Transform(calls, nil, 100, 105)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 105}, table.Strikes())
	assert.Equal(t, 100.0, table.StrikeMin)
	assert.Equal(t, 105.0, table.StrikeMax)
}

func TestTransform_NonFiniteStrikes(t *testing.T) {
	calls := []models.OptionRecord{rec(math.NaN(), 1, 1), rec(math.Inf(1), 1, 1), rec(105, 1, 1), rec(150, 1, 1)}
	puts := []models.OptionRecord{rec(math.NaN(), 2, 2), rec(math.Inf(-1), 2, 2)}

	table, err := Transform(calls, puts, 100, 110)
	require.NoError(t, err)
	assert.Equal(t, []float64{105}, table.Strikes())

	_, err = Transform([]models.OptionRecord{rec(math.NaN(), 1, 1), rec(150, 1, 1)}, nil, 100, 110)
	assert.ErrorIs(t, err, apperrors.ErrNoStrikesInRange)
}

func TestParseStrikeRange(t *testing.T) {
	tests := []struct {
		in     string
		lo, hi float64
		ok     bool
	}{
		{"150-200", 150, 200, true},
		{" 150 - 200 ", 150, 200, true},
		{"100.5-101.5", 100.5, 101.5, true},
		{"100-100", 100, 100, true},
		{"0-10", 0, 10, true},
		{"200-100", 0, 0, false},
		{"abc", 0, 0, false},
		{"100", 0, 0, false},
		{"100-", 0, 0, false},
		{"-100-200", 0, 0, false},
		{"1-2-3", 0, 0, false},
		{"NaN-200", 0, 0, false},
		{"100-Inf", 0, 0, false},
		{"", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			lo, hi, err := ParseStrikeRange(tt.in)
			if !tt.ok {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperrors.ErrInvalidRange)
				var verr *apperrors.ValidationError
				assert.ErrorAs(t, err, &verr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.lo, lo)
			assert.Equal(t, tt.hi, hi)
		})
	}
}

func TestDefaultStrikeRange(t *testing.T) {
	assert.Equal(t, "450-550", DefaultStrikeRange(500))
	assert.Equal(t, "91-111", DefaultStrikeRange(101.7))
	assert.Equal(t, GenericStrikeRange, DefaultStrikeRange(0))
	assert.Equal(t, GenericStrikeRange, DefaultStrikeRange(-3))
	assert.Equal(t, "80-120", StrikeRangeAround(100, 20, "x"))
}

func TestFormatStrikeRange(t *testing.T) {
	assert.Equal(t, "150-200", FormatStrikeRange(150, 200))
	assert.Equal(t, "100.5-101", FormatStrikeRange(100.5, 101))
	assert.Equal(t, "90.0-110.0", FormatStrikeBounds(90, 110))
	assert.Equal(t, "100.5-101.0", FormatStrikeBounds(100.5, 101))
}

func TestFormatRows(t *testing.T) {
	table := &models.ChainTable{Rows: []models.StrikeRow{
		{
			Strike:     100.25,
			CallVolume: models.Int64(1200),
			PutVolume:  nil,
			CallVolPct: models.Float64(33.333),
			PutVolPct:  models.Float64(66.667),
			CallOI:     models.Int64(0),
		},
	}}

	rows := FormatRows(table)
	require.Len(t, rows, 1)
	assert.Equal(t, "100.3", rows[0].Strike)
	assert.Equal(t, "1200", rows[0].CallVolume)
	assert.Equal(t, Placeholder, rows[0].PutVolume)
	assert.Equal(t, "33.3", rows[0].CallVolPct)
	assert.Equal(t, "66.7", rows[0].PutVolPct)
	assert.Equal(t, "0", rows[0].CallOI)
	assert.Equal(t, Placeholder, rows[0].PutOI)
	assert.Equal(t, Placeholder, rows[0].CallOIPct)

	assert.Len(t, rows[0].Cells(), len(models.DisplayHeaders))
	assert.Nil(t, FormatRows(nil))
}

func TestFormatOneDecimal(t *testing.T) {
	assert.Equal(t, "100.0", FormatOneDecimal(100))
	assert.Equal(t, "0.1", FormatOneDecimal(0.05))
	assert.Equal(t, "-0.1", FormatOneDecimal(-0.05))
	assert.Equal(t, "50.0", FormatOneDecimal(49.96))
}

func TestDerive(t *testing.T) {
	table := &models.ChainTable{Rows: []models.StrikeRow{
		{Strike: 95, CallOI: models.Int64(10), PutOI: models.Int64(30)},
		{Strike: 100, CallOI: models.Int64(20), PutOI: models.Int64(5)},
		{Strike: 105, CallOI: models.Int64(8)},
		{Strike: 110, CallOI: models.Int64(50), PutOI: models.Int64(42)},
	}}

	m := Derive(table, 101)
	require.NotNil(t, m.MaxPain)
	// |10-30|=20, |20-5|=15, |50-42|=8; 105 has no put OI.
	assert.Equal(t, 110.0, *m.MaxPain)
	assert.Equal(t, 105.0, *m.VolTrigger)
	assert.Equal(t, 100.0, *m.SupportWall)

	// Spot on a strike is both trigger and wall.
	m = Derive(table, 100)
	assert.Equal(t, 100.0, *m.VolTrigger)
	assert.Equal(t, 100.0, *m.SupportWall)

	// Spot outside the table.
	m = Derive(table, 200)
	assert.Nil(t, m.VolTrigger)
	assert.Equal(t, 110.0, *m.SupportWall)
	m = Derive(table, 50)
	assert.Equal(t, 95.0, *m.VolTrigger)
	assert.Nil(t, m.SupportWall)

	tied := &models.ChainTable{Rows: []models.StrikeRow{
		{Strike: 95, CallOI: models.Int64(7), PutOI: models.Int64(2)},
		{Strike: 100, CallOI: models.Int64(2), PutOI: models.Int64(7)},
	}}
	assert.Equal(t, 95.0, *Derive(tied, 0).MaxPain)

	empty := Derive(&models.ChainTable{}, 100)
	assert.Nil(t, empty.MaxPain)
	assert.Nil(t, Derive(nil, 100).MaxPain)
}

func TestSummarize(t *testing.T) {
	table := &models.ChainTable{Rows: []models.StrikeRow{
		{Strike: 100, CallVolume: models.Int64(100), PutVolume: models.Int64(50), CallOI: models.Int64(1000)},
		{Strike: 105, CallVolume: models.Int64(300), PutOI: models.Int64(70)},
	}}

	s := Summarize(table)
	assert.Equal(t, int64(400), s.TotalCallVolume)
	assert.Equal(t, int64(50), s.TotalPutVolume)
	assert.Equal(t, int64(1000), s.TotalCallOI)
	assert.Equal(t, int64(70), s.TotalPutOI)
	require.NotNil(t, s.PutCallRatio)
	assert.InDelta(t, 0.125, *s.PutCallRatio, 1e-9)

	s = Summarize(&models.ChainTable{Rows: []models.StrikeRow{{Strike: 1, PutVolume: models.Int64(3)}}})
	assert.Nil(t, s.PutCallRatio)
	assert.Equal(t, int64(3), s.TotalPutVolume)

	assert.Equal(t, models.Summary{}, Summarize(nil))
}

func TestDerive_MaxPainNeedsBothSides(t *testing.T) {
	calls := []models.OptionRecord{
		{Strike: 100, OpenInterest: models.Int64(500)},
		{Strike: 105, OpenInterest: models.Int64(3)},
	}
	puts := []models.OptionRecord{
		{Strike: 100, OpenInterest: models.Int64(450)},
	}

	table, err := Transform(calls, puts, 100, 105)
	require.NoError(t, err)

	m := Derive(table, 0)
	require.NotNil(t, m.MaxPain)
	assert.Equal(t, 100.0, *m.MaxPain, "a one-sided strike must not win on its small OI")

	oneSided, err := Transform(calls, nil, 100, 105)
	require.NoError(t, err)
	assert.Nil(t, Derive(oneSided, 0).MaxPain)
}
