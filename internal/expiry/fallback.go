package expiry

import (
	"time"

	"options-dashboard/internal/models"
)

// ThirdFriday returns the third Friday of the given month in UTC.
func ThirdFriday(year int, month time.Month) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(time.Friday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+14)
}

// FallbackCandidates returns monthly third-Friday candidates used when a
// provider lists no expiries. For i in 1..months the month of today+30*i
// days is taken; a third Friday already behind today is replaced by the
// following month's.
func FallbackCandidates(today time.Time, months int) []string {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	out := make([]string, 0, months)
	for i := 1; i <= months; i++ {
		future := day.AddDate(0, 0, 30*i)
		friday := ThirdFriday(future.Year(), future.Month())
		if friday.Before(day) {
			next := time.Date(future.Year(), future.Month()+1, 1, 0, 0, 0, 0, time.UTC)
			friday = ThirdFriday(next.Year(), next.Month())
		}
		out = append(out, models.FormatExpiry(friday))
	}
	return out
}
