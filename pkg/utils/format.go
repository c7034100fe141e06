// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatCount formats an integer with thousands separators.
func FormatCount(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatPrice formats a price in dollars with thousands separators.
func FormatPrice(price float64) string {
	if price < 0 {
		return "-$" + printer.Sprintf("%.2f", -price)
	}
	return "$" + printer.Sprintf("%.2f", price)
}

// FormatRatio formats a ratio such as put/call.
func FormatRatio(r float64) string {
	return fmt.Sprintf("%.2f", r)
}

// NormalizeTicker trims and upper-cases a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
