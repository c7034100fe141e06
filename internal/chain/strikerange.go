package chain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "options-dashboard/internal/errors"
)

// DefaultRangePercent is the half-width of the default strike window around spot.
const DefaultRangePercent = 10.0

// GenericStrikeRange is used when the spot price is unknown.
const GenericStrikeRange = "100-200"

// ParseStrikeRange parses "<min>-<max>". Whitespace around the numbers is
// allowed; both bounds must be finite, non-negative and min <= max.
func ParseStrikeRange(s string) (float64, float64, error) {
	invalid := func(msg string) error {
		return apperrors.NewValidationError("range", s, msg, apperrors.ErrInvalidRange)
	}

	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return 0, 0, invalid("expected <min>-<max>")
	}

	lo, err := parseBound(parts[0])
	if err != nil {
		return 0, 0, invalid(err.Error())
	}
	hi, err := parseBound(parts[1])
	if err != nil {
		return 0, 0, invalid(err.Error())
	}
	if lo > hi {
		return 0, 0, invalid("min exceeds max")
	}

	return lo, hi, nil
}

func parseBound(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("missing bound")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return v, nil
}

// DefaultStrikeRange returns spot -/+ 10% truncated to whole strikes, or the
// generic range when spot is unknown.
func DefaultStrikeRange(spot float64) string {
	return StrikeRangeAround(spot, DefaultRangePercent, GenericStrikeRange)
}

// StrikeRangeAround returns spot -/+ pct% truncated to whole strikes, or
// fallback when spot <= 0.
func StrikeRangeAround(spot, pct float64, fallback string) string {
	if spot <= 0 || math.IsNaN(spot) || math.IsInf(spot, 0) {
		return fallback
	}
	lo := int64(math.Max(0, spot*(100-pct)/100))
	hi := int64(spot * (100 + pct) / 100)
	return fmt.Sprintf("%d-%d", lo, hi)
}

// FormatStrikeBounds renders parsed bounds as decimals, e.g. "90.0-110.0".
func FormatStrikeBounds(lo, hi float64) string {
	return decimalString(lo) + "-" + decimalString(hi)
}

// decimalString keeps the shortest form but always shows a fraction.
func decimalString(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// FormatStrikeRange renders bounds the way users type them.
func FormatStrikeRange(lo, hi float64) string {
	return strconv.FormatFloat(lo, 'f', -1, 64) + "-" + strconv.FormatFloat(hi, 'f', -1, 64)
}
