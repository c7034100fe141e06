// Package expiry resolves the list of usable option expiries for a ticker.
package expiry

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"options-dashboard/internal/logging"
	"options-dashboard/internal/models"
	"options-dashboard/internal/provider"
	"options-dashboard/pkg/utils"
)

// Defaults used when Config leaves a field at zero.
const (
	DefaultMaxExpiries    = 12
	DefaultFallbackMonths = 6
	DefaultRetryDelay     = time.Second
)

var errEmptyCatalog = errors.New("empty expiry catalog")

// Config holds resolver limits.
type Config struct {
	MaxExpiries    int
	FallbackMonths int
	RetryDelay     time.Duration
}

// Resolver produces a bounded, verified list of expiries for a ticker.
type Resolver struct {
	provider provider.Provider
	cfg      Config
	logger   zerolog.Logger
	now      func() time.Time
}

// NewResolver creates a resolver over p.
func NewResolver(p provider.Provider, cfg Config, logger zerolog.Logger) *Resolver {
	if cfg.MaxExpiries <= 0 {
		cfg.MaxExpiries = DefaultMaxExpiries
	}
	if cfg.FallbackMonths <= 0 {
		cfg.FallbackMonths = DefaultFallbackMonths
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}

	return &Resolver{
		provider: p,
		cfg:      cfg,
		logger:   logger.With().Str("component", "expiry_resolver").Logger(),
		now:      time.Now,
	}
}

// WithClock replaces the clock used for fallback candidates.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Resolve returns up to MaxExpiries ascending expiries for which the
// provider has at least one call or put record. It never fails: provider
// errors and cancellation yield an empty list.
func (r *Resolver) Resolve(ctx context.Context, ticker string) []string {
	ticker = utils.NormalizeTicker(ticker)
	logger := logging.WithTicker(r.logger, ticker)

	candidates, err := r.catalog(ctx, ticker)
	if err != nil && ctx.Err() != nil {
		logger.Debug().Err(err).Msg("Expiry resolution cancelled")
		return []string{}
	}
	if len(candidates) == 0 {
		candidates = FallbackCandidates(r.now(), r.cfg.FallbackMonths)
		logger.Debug().Strs("candidates", candidates).Msg("Provider listed no expiries, probing monthly fallback")
	}

	valid := r.verify(ctx, ticker, normalize(candidates), logger)
	logger.Debug().Int("count", len(valid)).Msg("Expiries resolved")
	return valid
}

// catalog asks the provider for its expiry list, retrying once after
// RetryDelay when the first call fails or comes back empty.
func (r *Resolver) catalog(ctx context.Context, ticker string) ([]string, error) {
	retry := utils.SingleRetryConfig(r.cfg.RetryDelay)
	retry.RetryIf = func(error) bool { return ctx.Err() == nil }

	return utils.RetryWithResult(ctx, retry, func() ([]string, error) {
		expiries, err := r.provider.Expiries(ctx, ticker)
		if err != nil {
			r.logger.Debug().Err(err).Str("ticker", ticker).Msg("Expiry catalog request failed")
			return nil, err
		}
		if len(expiries) == 0 {
			return nil, errEmptyCatalog
		}
		return expiries, nil
	})
}

// verify probes candidates in order and keeps those with data, stopping at
// the cap.
func (r *Resolver) verify(ctx context.Context, ticker string, candidates []string, logger zerolog.Logger) []string {
	valid := make([]string, 0, r.cfg.MaxExpiries)
	for _, expiry := range candidates {
		if len(valid) >= r.cfg.MaxExpiries {
			break
		}
		if ctx.Err() != nil {
			return []string{}
		}

		chain, err := r.provider.OptionChain(ctx, ticker, expiry)
		if err != nil {
			logger.Debug().Err(err).Str("expiry", expiry).Msg("Dropping expiry, probe failed")
			continue
		}
		if chain.IsEmpty() {
			logger.Debug().Str("expiry", expiry).Msg("Dropping expiry, no records")
			continue
		}
		valid = append(valid, expiry)
	}
	return valid
}

// normalize drops malformed dates, de-duplicates and sorts ascending.
func normalize(candidates []string) []string {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, err := models.ParseExpiry(c); err != nil {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
