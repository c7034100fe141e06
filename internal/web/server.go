// Package web serves the dashboard page and the chart images over HTTP.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/rs/zerolog"

	"options-dashboard/internal/charts"
	"options-dashboard/internal/config"
	"options-dashboard/internal/dashboard"
	"options-dashboard/internal/resilience"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server is the dashboard HTTP server.
type Server struct {
	cfg      config.ServerConfig
	service  *dashboard.Service
	renderer *charts.Renderer
	health   *resilience.HealthChecker
	logger   zerolog.Logger

	tmpl    *template.Template
	decoder *schema.Decoder
	router  *mux.Router
}

// NewServer wires the routes. The provider behind service is registered as
// a health component.
func NewServer(cfg config.ServerConfig, service *dashboard.Service, renderer *charts.Renderer, logger zerolog.Logger) (*Server, error) {
	tmpl, err := template.New("dashboard.html").ParseFS(templateFS, "templates/dashboard.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	health := resilience.NewHealthChecker(resilience.DefaultHealthCheckerConfig())
	health.Register("provider", ProviderCheck(service.Provider(), service.DefaultTicker()))

	s := &Server{
		cfg:      cfg,
		service:  service,
		renderer: renderer,
		health:   health,
		logger:   logger.With().Str("component", "web").Logger(),
		tmpl:     tmpl,
		decoder:  decoder,
		router:   mux.NewRouter(),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.HandleFunc("/", s.handleDashboard).Methods(http.MethodGet)
	s.router.HandleFunc("/gex_chart/{ticker}/{expiry}", s.handleChart(chartGEX)).Methods(http.MethodGet)
	s.router.HandleFunc("/heatmap/{ticker}/{expiry}", s.handleChart(chartHeatmap)).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
}

// Handler returns the router wrapped in the request middleware.
func (s *Server) Handler() http.Handler {
	return s.withRequestContext(s.logRequests(s.recoverPanics(s.router)))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("Dashboard listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info().Msg("Shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
