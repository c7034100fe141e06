// Package provider provides market data provider interfaces and implementations.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"options-dashboard/internal/config"
	apperrors "options-dashboard/internal/errors"
	"options-dashboard/internal/logging"
	"options-dashboard/internal/models"
)

// Provider defines the interface for option market data.
type Provider interface {
	// Name returns the provider identifier used in logs and errors.
	Name() string

	// Expiries returns the provider's expiry catalog for a ticker as
	// ExpiryDate strings. An empty catalog is not an error.
	Expiries(ctx context.Context, ticker string) ([]string, error)

	// OptionChain returns the call and put records for one expiry.
	// Either side may be empty.
	OptionChain(ctx context.Context, ticker, expiry string) (*models.OptionChain, error)

	// Price returns the last price of the underlying. A value <= 0 means unknown.
	Price(ctx context.Context, ticker string) (float64, error)
}

// New creates the provider selected by cfg.Name.
func New(cfg config.ProviderConfig, creds config.Credentials, logger zerolog.Logger) (Provider, error) {
	logger = logger.With().Str("component", "provider").Str("provider", cfg.Name).Logger()

	switch cfg.Name {
	case config.ProviderYahoo:
		return NewYahooProvider(YahooConfig{
			BaseURL: cfg.YahooBaseURL,
			Timeout: cfg.Timeout,
			Logger:  logger,
		}), nil
	case config.ProviderPolygon:
		if creds.Polygon.APIKey == "" {
			return nil, fmt.Errorf("%w: polygon api key not set", apperrors.ErrConfigInvalid)
		}
		return NewPolygonProvider(PolygonConfig{
			APIKey:  creds.Polygon.APIKey,
			Timeout: cfg.Timeout,
			Logger:  logger,
		}), nil
	case config.ProviderFixture:
		return NewFixtureProvider(cfg.FixtureDir, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownProvider, cfg.Name)
	}
}

// observe logs one provider call and wraps a failure as a ProviderError.
func observe(logger zerolog.Logger, provider, operation, ticker string, start time.Time, err error) error {
	logging.LogAPICall(logger, provider, operation, time.Since(start), err)
	if err == nil {
		return nil
	}
	if apperrors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", apperrors.ErrTimeout, err)
	}
	return apperrors.NewProviderError(provider, operation, ticker, err)
}

// withTimeout bounds ctx by d when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
