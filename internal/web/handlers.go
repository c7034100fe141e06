package web

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"options-dashboard/internal/dashboard"
	apperrors "options-dashboard/internal/errors"
	"options-dashboard/internal/logging"
	"options-dashboard/internal/models"
	"options-dashboard/internal/provider"
	"options-dashboard/internal/resilience"
)

// Plain-text responses of the chart endpoints.
const (
	MissingRangeMessage = "Missing strike range parameter"
	NoChartDataMessage  = "No data available"
	ChartFailedMessage  = "Failed to generate chart"
)

type chartKind string

const (
	chartGEX     chartKind = "gex"
	chartHeatmap chartKind = "heatmap"
)

// dashboardView is the template data for the dashboard page.
type dashboardView struct {
	*dashboard.Page
	Headers      []string
	CurrentPrice string
	HeatmapURI   template.URL
	GEXURL       string
	PutCallRatio string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContextOr(r.Context(), s.logger)

	var req dashboard.Request
	if err := s.decoder.Decode(&req, r.URL.Query()); err != nil {
		logger.Debug().Err(err).Msg("Ignoring malformed query")
	}

	page := s.service.Page(r.Context(), req)
	view := dashboardView{Page: page, Headers: models.DisplayHeaders, CurrentPrice: "n/a"}
	if page.Spot > 0 {
		view.CurrentPrice = strconv.FormatFloat(page.Spot, 'f', -1, 64)
	}

	if page.HasTable() {
		view.GEXURL = chartURL("/gex_chart", page.Ticker, page.Expiry, page.Range)
		if page.Summary != nil && page.Summary.PutCallRatio != nil {
			view.PutCallRatio = strconv.FormatFloat(*page.Summary.PutCallRatio, 'f', 2, 64)
		}

		img, err := s.renderer.Heatmap(page.Table)
		if err != nil {
			logger.Error().Err(err).Msg("Heatmap rendering failed")
		} else {
			view.HeatmapURI = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(img))
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, view); err != nil {
		logger.Error().Err(err).Msg("Template execution failed")
	}
}

// handleChart serves one chart kind as PNG for /{kind}/{ticker}/{expiry}?range=.
func (s *Server) handleChart(kind chartKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logging.WithOperation(logging.FromContextOr(r.Context(), s.logger), string(kind))
		vars := mux.Vars(r)

		strikeRange := r.URL.Query().Get("range")
		if strikeRange == "" {
			http.Error(w, MissingRangeMessage, http.StatusBadRequest)
			return
		}

		snap, err := s.service.Snapshot(r.Context(), vars["ticker"], vars["expiry"], strikeRange)
		switch {
		case err == nil:
		case apperrors.Is(err, apperrors.ErrInvalidRange):
			http.Error(w, dashboard.InvalidRangeMessage, http.StatusBadRequest)
			return
		case apperrors.Is(err, apperrors.ErrNoData), apperrors.Is(err, apperrors.ErrNoStrikesInRange):
			http.Error(w, NoChartDataMessage, http.StatusNotFound)
			return
		default:
			logger.Warn().Err(err).Msg("Chart data fetch failed")
			http.Error(w, fmt.Sprintf("Error: %v", err), http.StatusInternalServerError)
			return
		}

		var img []byte
		if kind == chartHeatmap {
			img, err = s.renderer.Heatmap(snap.Table)
		} else {
			img, err = s.renderer.GEX(snap.Table, snap.Metrics, snap.Spot)
		}
		if err != nil {
			logger.Error().Err(err).Str("chart", string(kind)).Msg("Chart rendering failed")
			http.Error(w, ChartFailedMessage, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(img)))
		_, _ = w.Write(img)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.health.Check(r.Context())

	status := http.StatusOK
	if health.Status == resilience.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(health)
}

// ProviderCheck reports the provider unhealthy when listing ticker's
// expiries fails and degraded when it lists none.
func ProviderCheck(p provider.Provider, ticker string) resilience.HealthCheck {
	return func(ctx context.Context) resilience.ComponentHealth {
		health := resilience.ComponentHealth{
			Details: map[string]interface{}{"provider": p.Name(), "ticker": ticker},
		}

		expiries, err := p.Expiries(ctx, ticker)
		switch {
		case err != nil:
			health.Status = resilience.HealthStatusUnhealthy
			health.Message = err.Error()
			var perr *apperrors.ProviderError
			if apperrors.As(err, &perr) {
				health.Details["operation"] = perr.Operation
			}
			health.Details["timeout"] = apperrors.Is(err, apperrors.ErrTimeout)
		case len(expiries) == 0:
			health.Status = resilience.HealthStatusDegraded
			health.Message = fmt.Sprintf("No expiries listed for %s", ticker)
		default:
			health.Status = resilience.HealthStatusHealthy
			health.Message = fmt.Sprintf("%d expiries listed for %s", len(expiries), ticker)
		}
		return health
	}
}

func chartURL(prefix, ticker, expiryDate, strikeRange string) string {
	return prefix + "/" + url.PathEscape(ticker) + "/" + url.PathEscape(expiryDate) + "?range=" + url.QueryEscape(strikeRange)
}
