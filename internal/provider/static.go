package provider

import (
	"context"
	"sort"
	"time"

	"options-dashboard/internal/models"
)

// StaticData is an in-memory market data snapshot keyed by upper-case ticker.
type StaticData struct {
	// Expiries lists the catalog per ticker. When a ticker has no entry the
	// catalog is derived from the keys of Chains.
	Expiries map[string][]string
	// Chains maps ticker -> expiry -> chain.
	Chains map[string]map[string]*models.OptionChain
	Prices map[string]float64
}

// StaticProvider serves a StaticData snapshot. It backs the fixture provider
// and is used directly in tests.
type StaticProvider struct {
	name string
	data StaticData
	now  func() time.Time
}

// NewStaticProvider creates a provider over data.
func NewStaticProvider(name string, data StaticData) *StaticProvider {
	return &StaticProvider{name: name, data: data, now: time.Now}
}

// Name returns the provider name.
func (s *StaticProvider) Name() string {
	return s.name
}

// Expiries returns the listed expiries for ticker in ascending order.
func (s *StaticProvider) Expiries(ctx context.Context, ticker string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if listed, ok := s.data.Expiries[ticker]; ok {
		out := append([]string(nil), listed...)
		sort.Strings(out)
		return out, nil
	}

	out := make([]string, 0, len(s.data.Chains[ticker]))
	for expiry := range s.data.Chains[ticker] {
		out = append(out, expiry)
	}
	sort.Strings(out)
	return out, nil
}

// OptionChain returns a copy of the stored chain, or an empty chain when
// nothing is stored for the pair.
func (s *StaticProvider) OptionChain(ctx context.Context, ticker, expiry string) (*models.OptionChain, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &models.OptionChain{Ticker: ticker, Expiry: expiry, FetchedAt: s.now()}
	if chain, ok := s.data.Chains[ticker][expiry]; ok && chain != nil {
		out.Calls = append([]models.OptionRecord(nil), chain.Calls...)
		out.Puts = append([]models.OptionRecord(nil), chain.Puts...)
	}
	return out, nil
}

// Price returns the stored price, or 0 when unknown.
func (s *StaticProvider) Price(ctx context.Context, ticker string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.data.Prices[ticker], nil
}
