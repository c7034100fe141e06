package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	pmodels "github.com/polygon-io/client-go/rest/models"
	"github.com/rs/zerolog"

	apperrors "options-dashboard/internal/errors"
	"options-dashboard/internal/models"
)

// PolygonProvider implements Provider against the Polygon.io REST API.
type PolygonProvider struct {
	client  *polygon.Client
	timeout time.Duration
	logger  zerolog.Logger
	now     func() time.Time
}

// PolygonConfig holds configuration for the Polygon provider.
type PolygonConfig struct {
	APIKey  string
	Timeout time.Duration
	Logger  zerolog.Logger
}

// NewPolygonProvider creates a new Polygon provider.
func NewPolygonProvider(cfg PolygonConfig) *PolygonProvider {
	return &PolygonProvider{
		client:  polygon.New(cfg.APIKey),
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
		now:     time.Now,
	}
}

// Name returns the provider name.
func (p *PolygonProvider) Name() string {
	return "polygon"
}

// Expiries lists the distinct expiration dates of unexpired contracts.
func (p *PolygonProvider) Expiries(ctx context.Context, ticker string) (expiries []string, err error) {
	start := time.Now()
	defer func() { err = observe(p.logger, p.Name(), "expiries", ticker, start, err) }()

	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	params := pmodels.ListOptionsContractsParams{}.
		WithUnderlyingTicker(pmodels.EQ, ticker).
		WithExpired(false).
		WithLimit(1000)

	seen := make(map[string]struct{})
	iter := p.client.ListOptionsContracts(ctx, params)
	for iter.Next() {
		expiry := models.FormatExpiry(time.Time(iter.Item().ExpirationDate))
		seen[expiry] = struct{}{}
	}
	if err := iter.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to list contracts")
	}

	expiries = make([]string, 0, len(seen))
	for expiry := range seen {
		expiries = append(expiries, expiry)
	}
	sort.Strings(expiries)
	return expiries, nil
}

// OptionChain reads the chain snapshot for one expiry.
func (p *PolygonProvider) OptionChain(ctx context.Context, ticker, expiry string) (chain *models.OptionChain, err error) {
	start := time.Now()
	defer func() { err = observe(p.logger, p.Name(), "option_chain", ticker, start, err) }()

	day, err := models.ParseExpiry(expiry)
	if err != nil {
		return nil, fmt.Errorf("invalid expiry %q: %w", expiry, err)
	}

	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	params := pmodels.ListOptionsChainParams{UnderlyingAsset: ticker}.
		WithExpirationDate(pmodels.EQ, pmodels.Date(day)).
		WithLimit(250)

	chain = &models.OptionChain{Ticker: ticker, Expiry: expiry, FetchedAt: p.now()}
	iter := p.client.ListOptionsChainSnapshot(ctx, params)
	for iter.Next() {
		snap := iter.Item()
		record := models.OptionRecord{
			Strike:       snap.Details.StrikePrice,
			Volume:       models.Int64(int64(snap.Day.Volume)),
			OpenInterest: models.Int64(int64(snap.OpenInterest)),
		}
		switch strings.ToLower(snap.Details.ContractType) {
		case "call":
			chain.Calls = append(chain.Calls, record)
		case "put":
			chain.Puts = append(chain.Puts, record)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to read chain snapshot")
	}
	return chain, nil
}

// Price returns the previous session close.
func (p *PolygonProvider) Price(ctx context.Context, ticker string) (price float64, err error) {
	start := time.Now()
	defer func() { err = observe(p.logger, p.Name(), "price", ticker, start, err) }()

	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	res, err := p.client.GetPreviousCloseAgg(ctx, &pmodels.GetPreviousCloseAggParams{Ticker: ticker})
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get previous close")
	}
	if len(res.Results) == 0 {
		return 0, nil
	}
	return res.Results[0].Close, nil
}
