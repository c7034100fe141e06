package provider

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"

	apperrors "options-dashboard/internal/errors"
	"options-dashboard/internal/models"
)

// fixtureRowDTO is one line of <TICKER>.csv. Volume and open interest are
// kept as strings so that a blank cell stays distinguishable from zero.
type fixtureRowDTO struct {
	Expiry       string `csv:"expiry"`
	Side         string `csv:"side"`
	Strike       string `csv:"strike"`
	Volume       string `csv:"volume"`
	OpenInterest string `csv:"open_interest"`
}

// fixturePriceDTO is one line of prices.csv.
type fixturePriceDTO struct {
	Ticker string `csv:"ticker"`
	Price  string `csv:"price"`
}

// FixtureProvider reads option chains from CSV files in a directory:
// <TICKER>.csv with columns expiry,side,strike,volume,open_interest and an
// optional prices.csv with columns ticker,price. Files are read on every call.
type FixtureProvider struct {
	dir    string
	logger zerolog.Logger
}

// NewFixtureProvider creates a fixture provider rooted at dir.
func NewFixtureProvider(dir string, logger zerolog.Logger) *FixtureProvider {
	return &FixtureProvider{dir: dir, logger: logger}
}

// Name returns the provider name.
func (f *FixtureProvider) Name() string {
	return "fixture"
}

// Expiries returns the distinct expiries found in the ticker's file.
func (f *FixtureProvider) Expiries(ctx context.Context, ticker string) (expiries []string, err error) {
	start := time.Now()
	defer func() { err = observe(f.logger, f.Name(), "expiries", ticker, start, err) }()

	static, err := f.load(ticker)
	if err != nil {
		return nil, err
	}
	return static.Expiries(ctx, ticker)
}

// OptionChain returns the records of one expiry.
func (f *FixtureProvider) OptionChain(ctx context.Context, ticker, expiry string) (chain *models.OptionChain, err error) {
	start := time.Now()
	defer func() { err = observe(f.logger, f.Name(), "option_chain", ticker, start, err) }()

	static, err := f.load(ticker)
	if err != nil {
		return nil, err
	}
	return static.OptionChain(ctx, ticker, expiry)
}

// Price returns the ticker's price from prices.csv, or 0 when absent.
func (f *FixtureProvider) Price(ctx context.Context, ticker string) (price float64, err error) {
	start := time.Now()
	defer func() { err = observe(f.logger, f.Name(), "price", ticker, start, err) }()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	prices, err := f.loadPrices()
	if err != nil {
		return 0, err
	}
	return prices[ticker], nil
}

// load parses the ticker file into a static snapshot. A missing file is an
// empty catalog.
func (f *FixtureProvider) load(ticker string) (*StaticProvider, error) {
	data := StaticData{
		Expiries: map[string][]string{ticker: {}},
		Chains:   map[string]map[string]*models.OptionChain{ticker: {}},
	}

	if ticker == "" || strings.ContainsAny(ticker, `/\.`) {
		return NewStaticProvider(f.Name(), data), nil
	}

	file, err := os.Open(filepath.Join(f.dir, ticker+".csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return NewStaticProvider(f.Name(), data), nil
		}
		return nil, fmt.Errorf("failed to open fixture: %w", err)
	}
	defer file.Close()

	var rows []*fixtureRowDTO
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, apperrors.NewDataError("fixture", ticker, "failed to parse csv", err)
	}

	chains := data.Chains[ticker]
	for i, row := range rows {
		expiry := strings.TrimSpace(row.Expiry)
		if _, err := models.ParseExpiry(expiry); err != nil {
			return nil, rowError(ticker, i, fmt.Sprintf("invalid expiry %q", row.Expiry), nil)
		}

		side, ok := models.ParseSide(strings.TrimSpace(row.Side))
		if !ok {
			return nil, rowError(ticker, i, fmt.Sprintf("invalid side %q", row.Side), nil)
		}

		strike, err := strconv.ParseFloat(strings.TrimSpace(row.Strike), 64)
		if err != nil || math.IsNaN(strike) || math.IsInf(strike, 0) || strike <= 0 {
			return nil, rowError(ticker, i, fmt.Sprintf("invalid strike %q", row.Strike), nil)
		}

		volume, err := parseOptionalCount(row.Volume)
		if err != nil {
			return nil, rowError(ticker, i, "invalid volume", err)
		}
		oi, err := parseOptionalCount(row.OpenInterest)
		if err != nil {
			return nil, rowError(ticker, i, "invalid open_interest", err)
		}

		chain, ok := chains[expiry]
		if !ok {
			chain = &models.OptionChain{Ticker: ticker, Expiry: expiry}
			chains[expiry] = chain
			data.Expiries[ticker] = append(data.Expiries[ticker], expiry)
		}

		record := models.OptionRecord{Strike: strike, Volume: volume, OpenInterest: oi}
		if side == models.SideCall {
			chain.Calls = append(chain.Calls, record)
		} else {
			chain.Puts = append(chain.Puts, record)
		}
	}

	return NewStaticProvider(f.Name(), data), nil
}

func (f *FixtureProvider) loadPrices() (map[string]float64, error) {
	prices := make(map[string]float64)

	file, err := os.Open(filepath.Join(f.dir, "prices.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return prices, nil
		}
		return nil, fmt.Errorf("failed to open prices: %w", err)
	}
	defer file.Close()

	var rows []*fixturePriceDTO
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse prices.csv: %w", err)
	}

	for _, row := range rows {
		price, err := strconv.ParseFloat(strings.TrimSpace(row.Price), 64)
		if err != nil {
			continue
		}
		prices[strings.ToUpper(strings.TrimSpace(row.Ticker))] = price
	}
	return prices, nil
}

// rowError reports a malformed fixture row by its 1-based file line.
func rowError(ticker string, index int, message string, err error) error {
	return apperrors.NewDataError("fixture", ticker, fmt.Sprintf("line %d: %s", index+2, message), err)
}

// parseOptionalCount parses a count cell; blank means not reported.
func parseOptionalCount(s string) (*int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return nil, nil
	}
	// Some exports write counts as floats ("1200.0").
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%q is not a number", s)
	}
	if v < 0 {
		return nil, fmt.Errorf("%q is negative", s)
	}
	return models.Int64(int64(v)), nil
}
