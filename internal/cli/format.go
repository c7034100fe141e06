package cli

import (
	"fmt"
	"math"
	"time"

	"options-dashboard/internal/chain"
	"options-dashboard/internal/models"
	"options-dashboard/pkg/utils"
)

// FormatLevel formats an optional strike level to one decimal place.
func FormatLevel(v *float64) string {
	if v == nil {
		return chain.Placeholder
	}
	return chain.FormatOneDecimal(*v)
}

// FormatSpot formats the underlying price, or "n/a" when unknown.
func FormatSpot(spot float64) string {
	if spot <= 0 || math.IsNaN(spot) || math.IsInf(spot, 0) {
		return "n/a"
	}
	return utils.FormatPrice(spot)
}

// FormatOptionalRatio formats an optional ratio to two decimals.
func FormatOptionalRatio(v *float64) string {
	if v == nil {
		return chain.Placeholder
	}
	return utils.FormatRatio(*v)
}

// DaysToExpiry returns whole calendar days from now's date to the expiry
// date. Both are compared as UTC dates.
func DaysToExpiry(expiry string, now time.Time) (int, error) {
	t, err := models.ParseExpiry(expiry)
	if err != nil {
		return 0, err
	}
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(t.Sub(today).Hours() / 24), nil
}

// FormatExpiryLabel appends the days to expiry, e.g. "2024-06-21 (20d)".
func FormatExpiryLabel(expiry string, now time.Time) string {
	days, err := DaysToExpiry(expiry, now)
	switch {
	case err != nil:
		return expiry
	case days == 0:
		return expiry + " (today)"
	case days < 0:
		return expiry + " (expired)"
	}
	return fmt.Sprintf("%s (%dd)", expiry, days)
}

// tableRows renders display rows as CLI cells with a trailing net OI column.
func tableRows(table *models.ChainTable, output *Output) [][]string {
	display := chain.FormatRows(table)
	rows := make([][]string, len(display))
	for i, d := range display {
		net := table.Rows[i].NetOI()
		rows[i] = append(d.Cells(), output.Signed(utils.FormatCount(net), float64(net)))
	}
	return rows
}

// tableHeaders matches tableRows.
func tableHeaders() []string {
	return append(append([]string(nil), models.DisplayHeaders...), "Net OI")
}
