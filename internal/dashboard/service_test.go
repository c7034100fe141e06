package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-dashboard/internal/config"
	apperrors "options-dashboard/internal/errors"
	"options-dashboard/internal/expiry"
	"options-dashboard/internal/models"
	"options-dashboard/internal/provider"
)

func rec(strike float64, volume, oi int64) models.OptionRecord {
	return models.OptionRecord{Strike: strike, Volume: models.Int64(volume), OpenInterest: models.Int64(oi)}
}

func testData() provider.StaticData {
	return provider.StaticData{
		Chains: map[string]map[string]*models.OptionChain{
			"SPY": {
				"2024-06-21": {
					Calls: []models.OptionRecord{rec(95, 10, 100), rec(100, 50, 200), rec(105, 10, 40), rec(130, 1, 1)},
					Puts:  []models.OptionRecord{rec(95, 30, 20), rec(100, 50, 100), rec(105, 90, 60)},
				},
				"2024-07-19": {
					Calls: []models.OptionRecord{rec(100, 5, 5)},
				},
			},
		},
		Prices: map[string]float64{"SPY": 101.5},
	}
}

// countingProvider wraps a provider and counts chain fetches.
type countingProvider struct {
	provider.Provider
	chainCalls int
	chainErr   error
}

func (c *countingProvider) OptionChain(ctx context.Context, ticker, expiryDate string) (*models.OptionChain, error) {
	c.chainCalls++
	if c.chainErr != nil && expiryDate == "2024-06-21" {
		return nil, c.chainErr
	}
	return c.Provider.OptionChain(ctx, ticker, expiryDate)
}

func newTestService(p provider.Provider) *Service {
	resolver := expiry.NewResolver(p, expiry.Config{MaxExpiries: 12, FallbackMonths: 6}, zerolog.Nop())
	return NewService(p, resolver, config.DashboardConfig{DefaultTicker: "SPY", DefaultRange: "100-200", RangePercent: 10}, zerolog.Nop())
}

func TestPage_Defaults(t *testing.T) {
	svc := newTestService(provider.NewStaticProvider("static", testData()))

	page := svc.Page(context.Background(), Request{})
	require.Empty(t, page.Error)

	assert.Equal(t, "SPY", page.Ticker)
	assert.Equal(t, []string{"2024-06-21", "2024-07-19"}, page.Expiries)
	assert.Equal(t, "2024-06-21", page.Expiry)
	assert.Equal(t, 101.5, page.Spot)
	// 101.5 * 0.9 = 91.35, 101.5 * 1.1 = 111.65
	assert.Equal(t, "91-111", page.Range)

	require.True(t, page.HasTable())
	assert.Equal(t, []float64{95, 100, 105}, page.Table.Strikes())
	assert.Len(t, page.Rows, 3)
	assert.Equal(t, "Showing options data for SPY expiring 2024-06-21 with strikes 91.0-111.0", page.Info)

	require.NotNil(t, page.Metrics.MaxPain)
	assert.Equal(t, 105.0, *page.Metrics.MaxPain)
	assert.Equal(t, 105.0, *page.Metrics.VolTrigger)
	assert.Equal(t, 100.0, *page.Metrics.SupportWall)

	require.NotNil(t, page.Summary)
	assert.Equal(t, int64(70), page.Summary.TotalCallVolume)
	assert.Equal(t, int64(170), page.Summary.TotalPutVolume)
}

func TestPage_FetchesChainOnce(t *testing.T) {
	p := &countingProvider{Provider: provider.NewStaticProvider("static", testData())}
	svc := newTestService(p)
	resolverProbes := len(svc.Expiries(context.Background(), "SPY"))
	p.chainCalls = 0

	page := svc.Page(context.Background(), Request{Ticker: "spy", Expiry: "2024-06-21", Range: "90-110"})
	require.Empty(t, page.Error)
	assert.Equal(t, resolverProbes+1, p.chainCalls, "resolver probes plus a single page fetch")
}

func TestPage_UnknownExpiryUsesFirst(t *testing.T) {
	svc := newTestService(provider.NewStaticProvider("static", testData()))

	page := svc.Page(context.Background(), Request{Ticker: "SPY", Expiry: "2030-01-01", Range: "90-110"})
	assert.Equal(t, "2024-06-21", page.Expiry)

	page = svc.Page(context.Background(), Request{Ticker: "SPY", Expiry: "2024-07-19", Range: "90-110"})
	assert.Equal(t, "2024-07-19", page.Expiry)
	assert.Equal(t, []float64{100}, page.Table.Strikes())
}

func TestPage_NoExpiries(t *testing.T) {
	svc := newTestService(provider.NewStaticProvider("static", provider.StaticData{}))

	page := svc.Page(context.Background(), Request{Ticker: "zzzz"})
	assert.Equal(t, UnavailableMessage("ZZZZ"), page.Error)
	assert.Contains(t, page.Error, "Unable to fetch options data for ZZZZ. This could be due to:\n- Invalid ticker symbol")
	assert.Empty(t, page.Expiries)
	assert.False(t, page.HasTable())
}

func TestPage_InvalidRange(t *testing.T) {
	svc := newTestService(provider.NewStaticProvider("static", testData()))

	page := svc.Page(context.Background(), Request{Ticker: "SPY", Range: "200-100"})
	assert.Equal(t, InvalidRangeMessage, page.Error)
	assert.Equal(t, "200-100", page.Range)
	assert.False(t, page.HasTable())
}

func TestPage_NoStrikesInRange(t *testing.T) {
	svc := newTestService(provider.NewStaticProvider("static", testData()))

	page := svc.Page(context.Background(), Request{Ticker: "SPY", Range: "500-600"})
	assert.Equal(t, "No options found in strike range 500-600 for SPY", page.Error)
	assert.Empty(t, page.Info)
}

func TestPage_SpotUnknownUsesGenericRange(t *testing.T) {
	data := testData()
	data.Prices = nil
	svc := newTestService(provider.NewStaticProvider("static", data))

	page := svc.Page(context.Background(), Request{Ticker: "SPY"})
	assert.Equal(t, "100-200", page.Range)
	assert.Equal(t, []float64{100, 105, 130}, page.Table.Strikes())
	assert.Nil(t, page.Metrics.VolTrigger)
	assert.Nil(t, page.Metrics.SupportWall)
}

func TestPage_ProviderError(t *testing.T) {
	p := &countingProvider{
		Provider: provider.NewStaticProvider("static", testData()),
		chainErr: errors.New("connection reset"),
	}
	// The resolver drops 2024-06-21 since its probe fails, so ask for it via
	// Snapshot which skips resolution.
	svc := newTestService(p)
	_, err := svc.Snapshot(context.Background(), "SPY", "2024-06-21", "90-110")
	require.Error(t, err)
	assert.Equal(t, "Error fetching data: connection reset", svc.describe(err, "SPY", "2024-06-21", "90-110"))
}

func TestSnapshot(t *testing.T) {
	svc := newTestService(provider.NewStaticProvider("static", testData()))
	ctx := context.Background()

	snap, err := svc.Snapshot(ctx, "spy", "2024-06-21", "95-105")
	require.NoError(t, err)
	assert.Equal(t, "SPY", snap.Ticker)
	assert.Equal(t, 101.5, snap.Spot)
	assert.Equal(t, 3, snap.Table.Len())
	assert.Equal(t, 105.0, *snap.Metrics.MaxPain)

	_, err = svc.Snapshot(ctx, "SPY", "2024-06-21", "abc")
	assert.ErrorIs(t, err, apperrors.ErrInvalidRange)

	_, err = svc.Snapshot(ctx, "SPY", "2024-06-21", "500-600")
	assert.ErrorIs(t, err, apperrors.ErrNoStrikesInRange)

	_, err = svc.Snapshot(ctx, "SPY", "2031-01-17", "95-105")
	assert.ErrorIs(t, err, apperrors.ErrNoData)
}

func TestDescribe(t *testing.T) {
	svc := newTestService(provider.NewStaticProvider("static", provider.StaticData{}))

	assert.Equal(t, "No options data available for SPY on 2024-06-21",
		svc.describe(apperrors.ErrNoData, "SPY", "2024-06-21", "1-2"))
	assert.Equal(t, InvalidRangeMessage,
		svc.describe(apperrors.NewValidationError("range", "x", "bad", apperrors.ErrInvalidRange), "SPY", "", ""))
}

func TestPage_CancelledContext(t *testing.T) {
	svc := newTestService(provider.NewStaticProvider("static", testData()))
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	page := svc.Page(ctx, Request{Ticker: "SPY"})
	assert.Equal(t, UnavailableMessage("SPY"), page.Error)
}
