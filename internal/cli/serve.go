package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"options-dashboard/internal/web"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web dashboard",
		Long: `Serve the options chain dashboard over HTTP.

Routes:
  /                               dashboard page (?ticker=&expiry=&range=)
  /gex_chart/{ticker}/{expiry}    GEX-style chart PNG (?range=min-max)
  /heatmap/{ticker}/{expiry}      volume heatmap PNG (?range=min-max)
  /healthz                        JSON health report

Stops gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.ready(); err != nil {
				return err
			}

			cfg := app.Config.Server
			if addr != "" {
				cfg.Addr = addr
			}

			srv, err := web.NewServer(cfg, app.Service, app.Renderer, app.Logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			output := NewOutput(cmd)
			if !output.IsJSON() {
				output.Info("Options dashboard on http://%s (provider: %s)", displayAddr(cfg.Addr), app.Service.Provider().Name())
			}
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, e.g. :5050)")
	return cmd
}

// displayAddr turns ":5050" into "localhost:5050" for the banner.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
