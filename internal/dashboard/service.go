// Package dashboard runs the fetch, transform and derive pipeline shared by
// the HTTP and terminal front ends.
package dashboard

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"options-dashboard/internal/chain"
	"options-dashboard/internal/config"
	apperrors "options-dashboard/internal/errors"
	"options-dashboard/internal/expiry"
	"options-dashboard/internal/logging"
	"options-dashboard/internal/models"
	"options-dashboard/internal/provider"
	"options-dashboard/pkg/utils"
)

// Request holds the user's selection. Empty fields take defaults.
type Request struct {
	Ticker string `schema:"ticker" json:"ticker"`
	Expiry string `schema:"expiry" json:"expiry"`
	Range  string `schema:"range" json:"range"`
}

// Page is everything the dashboard shows for one request. Error and Info
// carry user-facing messages; Table is nil whenever Error is set.
type Page struct {
	Ticker   string                `json:"ticker"`
	Expiry   string                `json:"expiry,omitempty"`
	Range    string                `json:"range,omitempty"`
	Expiries []string              `json:"expiries"`
	Spot     float64               `json:"spot,omitempty"`
	Error    string                `json:"error,omitempty"`
	Info     string                `json:"info,omitempty"`
	Table    *models.ChainTable    `json:"table,omitempty"`
	Rows     []models.DisplayRow   `json:"rows,omitempty"`
	Metrics  models.DerivedMetrics `json:"metrics"`
	Summary  *models.Summary       `json:"summary,omitempty"`
}

// HasTable reports whether the page has rows to render.
func (p *Page) HasTable() bool {
	return p.Table.Len() > 0
}

// Snapshot is one expiry's filtered table with its overlay levels.
type Snapshot struct {
	Ticker  string                `json:"ticker"`
	Expiry  string                `json:"expiry"`
	Spot    float64               `json:"spot,omitempty"`
	Table   *models.ChainTable    `json:"table"`
	Metrics models.DerivedMetrics `json:"metrics"`
}

// Service builds dashboard pages and chart snapshots.
type Service struct {
	provider provider.Provider
	resolver *expiry.Resolver
	cfg      config.DashboardConfig
	logger   zerolog.Logger
}

// NewService creates a dashboard service.
func NewService(p provider.Provider, resolver *expiry.Resolver, cfg config.DashboardConfig, logger zerolog.Logger) *Service {
	if cfg.DefaultTicker == "" {
		cfg.DefaultTicker = "SPY"
	}
	if cfg.DefaultRange == "" {
		cfg.DefaultRange = chain.GenericStrikeRange
	}
	if cfg.RangePercent <= 0 {
		cfg.RangePercent = chain.DefaultRangePercent
	}

	return &Service{
		provider: p,
		resolver: resolver,
		cfg:      cfg,
		logger:   logger.With().Str("component", "dashboard").Logger(),
	}
}

// Provider returns the market data provider behind the service.
func (s *Service) Provider() provider.Provider {
	return s.provider
}

// DefaultTicker returns the ticker used when a request names none.
func (s *Service) DefaultTicker() string {
	return s.cfg.DefaultTicker
}

// Expiries resolves the usable expiries for ticker.
func (s *Service) Expiries(ctx context.Context, ticker string) []string {
	return s.resolver.Resolve(ctx, s.ticker(ticker))
}

// Page resolves defaults for req, fetches the chain once and builds the
// table, metrics and summary. Failures become messages on the page.
func (s *Service) Page(ctx context.Context, req Request) *Page {
	start := time.Now()
	page := &Page{Ticker: s.ticker(req.Ticker), Range: req.Range}
	logger := logging.WithTicker(logging.FromContextOr(ctx, s.logger), page.Ticker)

	page.Expiries = s.resolver.Resolve(ctx, page.Ticker)
	if len(page.Expiries) == 0 {
		page.Error = UnavailableMessage(page.Ticker)
		return page
	}

	page.Spot = s.spot(ctx, page.Ticker, logger)

	page.Expiry = req.Expiry
	if !contains(page.Expiries, page.Expiry) {
		page.Expiry = page.Expiries[0]
	}

	if page.Range == "" {
		page.Range = s.DefaultRange(page.Spot)
	}

	lo, hi, err := chain.ParseStrikeRange(page.Range)
	if err != nil {
		page.Error = InvalidRangeMessage
		return page
	}

	snapshot, err := s.fetch(ctx, page.Ticker, page.Expiry, lo, hi, page.Spot)
	if err != nil {
		page.Error = s.describe(err, page.Ticker, page.Expiry, chain.FormatStrikeRange(lo, hi))
		logger.Warn().Err(err).Str("expiry", page.Expiry).Msg("Dashboard has no table")
		return page
	}

	page.Table = snapshot.Table
	page.Rows = chain.FormatRows(snapshot.Table)
	page.Metrics = snapshot.Metrics
	summary := chain.Summarize(snapshot.Table)
	page.Summary = &summary
	page.Info = InfoMessage(page.Ticker, page.Expiry, chain.FormatStrikeBounds(lo, hi))

	logger.Debug().
		Str("expiry", page.Expiry).
		Int("rows", snapshot.Table.Len()).
		Dur("duration", time.Since(start)).
		Msg("Dashboard built")
	return page
}

// Snapshot fetches one expiry's table for the chart endpoints without
// resolving expiries. strikeRange must be present and well formed.
func (s *Service) Snapshot(ctx context.Context, ticker, expiryDate, strikeRange string) (*Snapshot, error) {
	lo, hi, err := chain.ParseStrikeRange(strikeRange)
	if err != nil {
		return nil, err
	}

	ticker = s.ticker(ticker)
	logger := logging.WithTicker(logging.FromContextOr(ctx, s.logger), ticker)
	spot := s.spot(ctx, ticker, logger)

	return s.fetch(ctx, ticker, expiryDate, lo, hi, spot)
}

// DefaultRange returns the configured window around spot.
func (s *Service) DefaultRange(spot float64) string {
	return chain.StrikeRangeAround(spot, s.cfg.RangePercent, s.cfg.DefaultRange)
}

// describe converts a pipeline error into the text shown to users.
func (s *Service) describe(err error, ticker, expiryDate, strikeRange string) string {
	switch {
	case apperrors.Is(err, apperrors.ErrNoData):
		return NoDataMessage(ticker, expiryDate)
	case apperrors.Is(err, apperrors.ErrNoStrikesInRange):
		return NoStrikesMessage(ticker, strikeRange)
	case apperrors.Is(err, apperrors.ErrInvalidRange):
		return InvalidRangeMessage
	default:
		return FetchErrorMessage(err)
	}
}

func (s *Service) fetch(ctx context.Context, ticker, expiryDate string, lo, hi, spot float64) (*Snapshot, error) {
	oc, err := s.provider.OptionChain(ctx, ticker, expiryDate)
	if err != nil {
		return nil, err
	}

	table, err := chain.Transform(oc.Calls, oc.Puts, lo, hi)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Ticker:  ticker,
		Expiry:  expiryDate,
		Spot:    spot,
		Table:   table,
		Metrics: chain.Derive(table, spot),
	}, nil
}

// spot returns the underlying price, or 0 when the provider cannot say.
func (s *Service) spot(ctx context.Context, ticker string, logger zerolog.Logger) float64 {
	price, err := s.provider.Price(ctx, ticker)
	if err != nil {
		logger.Debug().Err(err).Msg("Spot price unavailable")
		return 0
	}
	if price < 0 {
		return 0
	}
	return price
}

func (s *Service) ticker(t string) string {
	t = utils.NormalizeTicker(t)
	if t == "" {
		return s.cfg.DefaultTicker
	}
	return t
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
