// Package models provides domain models for the options dashboard.
package models

import "time"

// ExpiryLayout is the layout of an ExpiryDate string.
const ExpiryLayout = "2006-01-02"

// OptionSide distinguishes calls from puts.
type OptionSide string

const (
	SideCall OptionSide = "CALL"
	SidePut  OptionSide = "PUT"
)

// ParseSide parses a loosely formatted option side ("call", "C", "puts", ...).
func ParseSide(s string) (OptionSide, bool) {
	switch s {
	case "CALL", "call", "Call", "C", "c", "CALLS", "calls":
		return SideCall, true
	case "PUT", "put", "Put", "P", "p", "PUTS", "puts":
		return SidePut, true
	}
	return "", false
}

// ParseExpiry parses an ExpiryDate string.
func ParseExpiry(s string) (time.Time, error) {
	return time.Parse(ExpiryLayout, s)
}

// FormatExpiry formats a time as an ExpiryDate string in its own location.
func FormatExpiry(t time.Time) string {
	return t.Format(ExpiryLayout)
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 {
	return &v
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}

// Value dereferences p, returning zero for nil.
func Value[T int64 | float64](p *T) T {
	if p == nil {
		return 0
	}
	return *p
}
