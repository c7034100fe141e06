package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	apperrors "options-dashboard/internal/errors"
	"options-dashboard/internal/models"
)

const (
	yahooDefaultBaseURL = "https://query2.finance.yahoo.com"
	yahooCookieURL      = "https://fc.yahoo.com"
	yahooUserAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// YahooProvider implements Provider against the Yahoo Finance options API.
type YahooProvider struct {
	client    *resty.Client
	cookieURL string
	logger    zerolog.Logger

	// Session state for the crumb-protected endpoint. Not a data cache.
	mu    sync.Mutex
	crumb string
}

// YahooConfig holds configuration for the Yahoo provider.
type YahooConfig struct {
	BaseURL string
	// CookieURL primes the session cookie; empty skips priming.
	CookieURL string
	Timeout   time.Duration
	Logger    zerolog.Logger
}

// NewYahooProvider creates a new Yahoo provider.
func NewYahooProvider(cfg YahooConfig) *YahooProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = yahooDefaultBaseURL
		if cfg.CookieURL == "" {
			cfg.CookieURL = yahooCookieURL
		}
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("User-Agent", yahooUserAgent).
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &YahooProvider{
		client:    client,
		cookieURL: cfg.CookieURL,
		logger:    cfg.Logger,
	}
}

// yahooOptionsResponse mirrors the v7 options payload.
type yahooOptionsResponse struct {
	OptionChain struct {
		Result []yahooOptionResult `json:"result"`
		Error  *yahooError         `json:"error"`
	} `json:"optionChain"`
	Finance struct {
		Error *yahooError `json:"error"`
	} `json:"finance"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type yahooOptionResult struct {
	UnderlyingSymbol string           `json:"underlyingSymbol"`
	ExpirationDates  []int64          `json:"expirationDates"`
	Quote            yahooQuote       `json:"quote"`
	Options          []yahooOptionSet `json:"options"`
}

type yahooQuote struct {
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
}

type yahooOptionSet struct {
	ExpirationDate int64           `json:"expirationDate"`
	Calls          []yahooContract `json:"calls"`
	Puts           []yahooContract `json:"puts"`
}

type yahooContract struct {
	Strike       float64  `json:"strike"`
	Volume       *float64 `json:"volume"`
	OpenInterest *float64 `json:"openInterest"`
}

// Name returns the provider name.
func (y *YahooProvider) Name() string {
	return "yahoo"
}

// Expiries returns the listed expiration dates for ticker.
func (y *YahooProvider) Expiries(ctx context.Context, ticker string) (expiries []string, err error) {
	start := time.Now()
	defer func() { err = observe(y.logger, y.Name(), "expiries", ticker, start, err) }()

	result, err := y.fetchOptions(ctx, ticker, 0)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return []string{}, nil
	}

	expiries = make([]string, 0, len(result.ExpirationDates))
	for _, ts := range result.ExpirationDates {
		expiries = append(expiries, models.FormatExpiry(time.Unix(ts, 0).UTC()))
	}
	return expiries, nil
}

// OptionChain returns the calls and puts for one expiry. An expiry the
// provider does not list yields an empty chain.
func (y *YahooProvider) OptionChain(ctx context.Context, ticker, expiry string) (chain *models.OptionChain, err error) {
	start := time.Now()
	defer func() { err = observe(y.logger, y.Name(), "option_chain", ticker, start, err) }()

	day, err := models.ParseExpiry(expiry)
	if err != nil {
		return nil, fmt.Errorf("invalid expiry %q: %w", expiry, err)
	}

	result, err := y.fetchOptions(ctx, ticker, day.Unix())
	if err != nil {
		return nil, err
	}

	chain = &models.OptionChain{Ticker: ticker, Expiry: expiry, FetchedAt: time.Now()}
	if result == nil {
		return chain, nil
	}

	for _, set := range result.Options {
		if models.FormatExpiry(time.Unix(set.ExpirationDate, 0).UTC()) != expiry {
			continue
		}
		chain.Calls = append(chain.Calls, convertYahooContracts(set.Calls)...)
		chain.Puts = append(chain.Puts, convertYahooContracts(set.Puts)...)
	}
	return chain, nil
}

// Price returns the regular market price, or 0 when Yahoo reports none.
func (y *YahooProvider) Price(ctx context.Context, ticker string) (price float64, err error) {
	start := time.Now()
	defer func() { err = observe(y.logger, y.Name(), "price", ticker, start, err) }()

	result, err := y.fetchOptions(ctx, ticker, 0)
	if err != nil {
		return 0, err
	}
	if result == nil || result.Quote.RegularMarketPrice == nil {
		return 0, nil
	}
	return math.Round(*result.Quote.RegularMarketPrice*100) / 100, nil
}

// fetchOptions calls /v7/finance/options/{ticker}. A zero date asks for the
// nearest expiry. A nil result means Yahoo knows nothing about the ticker.
func (y *YahooProvider) fetchOptions(ctx context.Context, ticker string, date int64) (*yahooOptionResult, error) {
	req := y.client.R().SetContext(ctx)
	if crumb := y.sessionCrumb(ctx); crumb != "" {
		req.SetQueryParam("crumb", crumb)
	}
	if date > 0 {
		req.SetQueryParam("date", strconv.FormatInt(date, 10))
	}

	resp, err := req.Get("/v7/finance/options/" + url.PathEscape(ticker))
	if err != nil {
		return nil, fmt.Errorf("options request failed: %w", err)
	}

	switch {
	case resp.StatusCode() >= http.StatusInternalServerError:
		return nil, apperrors.Wrapf(apperrors.ErrProviderUnavailable, "options request failed with status %d", resp.StatusCode())
	case resp.StatusCode() == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode() == http.StatusUnauthorized:
		y.resetCrumb()
		return nil, fmt.Errorf("options request unauthorized (status %d)", resp.StatusCode())
	case resp.IsError():
		return nil, fmt.Errorf("options request failed with status %d", resp.StatusCode())
	}

	var payload yahooOptionsResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode options response: %w", err)
	}

	if e := payload.OptionChain.Error; e != nil {
		return nil, fmt.Errorf("yahoo error %s: %s", e.Code, e.Description)
	}
	if e := payload.Finance.Error; e != nil {
		return nil, fmt.Errorf("yahoo error %s: %s", e.Code, e.Description)
	}
	if len(payload.OptionChain.Result) == 0 {
		return nil, nil
	}
	return &payload.OptionChain.Result[0], nil
}

// sessionCrumb returns the crumb for the current cookie session, fetching
// one on first use. Failure leaves the crumb empty; the request is still
// attempted since some deployments do not require it.
func (y *YahooProvider) sessionCrumb(ctx context.Context) string {
	y.mu.Lock()
	defer y.mu.Unlock()

	if y.crumb != "" {
		return y.crumb
	}

	if y.cookieURL != "" {
		// fc.yahoo.com answers 404 but sets the session cookie.
		_, _ = y.client.R().SetContext(ctx).Get(y.cookieURL)
	}

	resp, err := y.client.R().
		SetContext(ctx).
		SetHeader("Accept", "text/plain").
		Get("/v1/test/getcrumb")
	if err != nil || resp.IsError() {
		y.logger.Debug().Err(err).Msg("Yahoo crumb unavailable")
		return ""
	}

	crumb := strings.TrimSpace(resp.String())
	if crumb == "" || strings.ContainsAny(crumb, "<{") {
		return ""
	}
	y.crumb = crumb
	return crumb
}

func (y *YahooProvider) resetCrumb() {
	y.mu.Lock()
	y.crumb = ""
	y.mu.Unlock()
}

func convertYahooContracts(contracts []yahooContract) []models.OptionRecord {
	records := make([]models.OptionRecord, 0, len(contracts))
	for _, c := range contracts {
		records = append(records, models.OptionRecord{
			Strike:       c.Strike,
			Volume:       floatCount(c.Volume),
			OpenInterest: floatCount(c.OpenInterest),
		})
	}
	return records
}

func floatCount(v *float64) *int64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return models.Int64(int64(*v))
}
