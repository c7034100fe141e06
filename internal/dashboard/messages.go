package dashboard

import "fmt"

// UnavailableMessage is shown when no usable expiry could be resolved.
func UnavailableMessage(ticker string) string {
	return fmt.Sprintf("Unable to fetch options data for %s. This could be due to:\n"+
		"- Invalid ticker symbol\n"+
		"- No options available for this stock\n"+
		"- Temporary API issues\n"+
		"\n"+
		"Please try:\n"+
		"- Checking the ticker symbol spelling\n"+
		"- Using a different ticker (e.g., SPY, AAPL, TSLA)\n"+
		"- Refreshing the page in a few minutes", ticker)
}

// NoDataMessage is shown when the chosen expiry has no records at all.
func NoDataMessage(ticker, expiry string) string {
	return fmt.Sprintf("No options data available for %s on %s", ticker, expiry)
}

// NoStrikesMessage is shown when no strike falls in the requested range.
func NoStrikesMessage(ticker, strikeRange string) string {
	return fmt.Sprintf("No options found in strike range %s for %s", strikeRange, ticker)
}

// InvalidRangeMessage is shown for a malformed strike range.
const InvalidRangeMessage = "Invalid strike range format. Please use format like '150-200'"

// FetchErrorMessage is shown when the provider fails to return the chain.
func FetchErrorMessage(err error) string {
	return fmt.Sprintf("Error fetching data: %v", err)
}

// InfoMessage describes the data being shown.
func InfoMessage(ticker, expiry, strikeRange string) string {
	return fmt.Sprintf("Showing options data for %s expiring %s with strikes %s", ticker, expiry, strikeRange)
}
