package chain

import (
	"strconv"

	"github.com/shopspring/decimal"

	"options-dashboard/internal/models"
)

// Placeholder is rendered for missing counts and undefined percentages.
const Placeholder = "-"

// FormatRows renders the table for display: strike and percentages to one
// decimal place, counts as integers.
func FormatRows(table *models.ChainTable) []models.DisplayRow {
	if table == nil {
		return nil
	}

	out := make([]models.DisplayRow, len(table.Rows))
	for i, r := range table.Rows {
		out[i] = models.DisplayRow{
			Strike:     FormatOneDecimal(r.Strike),
			CallVolume: formatCount(r.CallVolume),
			PutVolume:  formatCount(r.PutVolume),
			CallVolPct: formatPct(r.CallVolPct),
			PutVolPct:  formatPct(r.PutVolPct),
			CallOI:     formatCount(r.CallOI),
			PutOI:      formatCount(r.PutOI),
			CallOIPct:  formatPct(r.CallOIPct),
			PutOIPct:   formatPct(r.PutOIPct),
		}
	}
	return out
}

// FormatOneDecimal rounds half away from zero to one decimal place.
func FormatOneDecimal(v float64) string {
	return decimal.NewFromFloat(v).Round(1).StringFixed(1)
}

func formatCount(v *int64) string {
	if v == nil {
		return Placeholder
	}
	return strconv.FormatInt(*v, 10)
}

func formatPct(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return FormatOneDecimal(*v)
}
