package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"options-dashboard/internal/dashboard"
	"options-dashboard/pkg/utils"
)

// Chart kinds accepted by the chart command.
const (
	ChartKindGEX     = "gex"
	ChartKindHeatmap = "heatmap"
)

func newChainCmd(app *App) *cobra.Command {
	var expiryFlag, rangeFlag string

	cmd := &cobra.Command{
		Use:   "chain <ticker>",
		Short: "Show the options chain for one expiry",
		Long: `Resolve expiries for the ticker, fetch the chosen expiry and print call/put
volume and open interest per strike, the overlay levels and chain totals.

The expiry defaults to the nearest usable expiry and the strike range to
10% either side of the current price.`,
		Example: `  dashboard chain SPY
  dashboard chain AAPL --expiry 2024-06-21 --range 180-220
  dashboard chain TSLA --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.ready(); err != nil {
				return err
			}
			output := NewOutput(cmd)

			page := app.Service.Page(cmd.Context(), dashboard.Request{
				Ticker: args[0],
				Expiry: expiryFlag,
				Range:  rangeFlag,
			})

			if output.IsJSON() {
				if err := output.JSON(page); err != nil {
					return err
				}
				if page.Error != "" {
					return errors.New(page.Error)
				}
				return nil
			}

			if page.Error != "" {
				return errors.New(page.Error)
			}
			renderPage(output, page)
			return nil
		},
	}

	cmd.Flags().StringVarP(&expiryFlag, "expiry", "e", "", "expiry date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&rangeFlag, "range", "r", "", "strike range, e.g. 150-200")

	return cmd
}

func renderPage(output *Output, page *dashboard.Page) {
	output.Bold("Options Chain Dashboard for %s", page.Ticker)
	output.Printf("Current Price: %s\n", FormatSpot(page.Spot))
	output.Info("%s", page.Info)
	if FormatSpot(page.Spot) == "n/a" {
		output.Warning("Current price unavailable: Vol Trigger and Y Wall are not computed")
	}
	output.Println()

	output.Table(tableHeaders(), tableRows(page.Table, output))
	output.Println()

	pairs := [][2]string{
		{"Max Pain", FormatLevel(page.Metrics.MaxPain)},
		{"Vol Trigger", FormatLevel(page.Metrics.VolTrigger)},
		{"Y Wall", FormatLevel(page.Metrics.SupportWall)},
	}
	if s := page.Summary; s != nil {
		pairs = append(pairs,
			[2]string{"Total Call Vol", utils.FormatCount(s.TotalCallVolume)},
			[2]string{"Total Put Vol", utils.FormatCount(s.TotalPutVolume)},
			[2]string{"Total Call OI", utils.FormatCount(s.TotalCallOI)},
			[2]string{"Total Put OI", utils.FormatCount(s.TotalPutOI)},
			[2]string{"Put/Call Ratio", FormatOptionalRatio(s.PutCallRatio)},
		)
	}
	output.KeyValues(pairs)
}

func newExpiriesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "expiries <ticker>",
		Short: "List usable option expiries",
		Long: `List the expiries that currently carry option data for the ticker,
nearest first. Falls back to probing monthly expiries when the provider
does not publish an expiry list.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.ready(); err != nil {
				return err
			}
			output := NewOutput(cmd)
			ticker := utils.NormalizeTicker(args[0])

			expiries := app.Service.Expiries(cmd.Context(), ticker)
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"ticker":   ticker,
					"expiries": expiries,
				})
			}

			if len(expiries) == 0 {
				return errors.New(dashboard.UnavailableMessage(ticker))
			}

			now := time.Now()
			output.Bold("Expiries for %s", ticker)
			for _, e := range expiries {
				output.Printf("  %s\n", FormatExpiryLabel(e, now))
			}
			return nil
		},
	}
}

func newChartCmd(app *App) *cobra.Command {
	var kind, expiryFlag, rangeFlag, out string

	cmd := &cobra.Command{
		Use:   "chart <ticker>",
		Short: "Render the GEX or heatmap chart to a PNG file",
		Example: `  dashboard chart SPY --kind gex --out spy-gex.png
  dashboard chart SPY --kind heatmap --expiry 2024-06-21 --range 500-560 --out spy-heat.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind != ChartKindGEX && kind != ChartKindHeatmap {
				return fmt.Errorf("unknown chart kind %q (use %s or %s)", kind, ChartKindGEX, ChartKindHeatmap)
			}
			if err := app.ready(); err != nil {
				return err
			}
			output := NewOutput(cmd)

			page := app.Service.Page(cmd.Context(), dashboard.Request{
				Ticker: args[0],
				Expiry: expiryFlag,
				Range:  rangeFlag,
			})
			if page.Error != "" {
				return errors.New(page.Error)
			}

			img, err := renderChart(app, kind, page)
			if err != nil {
				return fmt.Errorf("rendering %s chart: %w", kind, err)
			}
			if err := os.WriteFile(out, img, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"ticker": page.Ticker,
					"expiry": page.Expiry,
					"range":  page.Range,
					"kind":   kind,
					"file":   out,
					"bytes":  len(img),
				})
			}
			output.Success("✓ Wrote %s chart for %s %s (strikes %s) to %s",
				kind, page.Ticker, page.Expiry, page.Range, output.Paint(out, color.Bold))
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", ChartKindGEX, "chart kind: gex or heatmap")
	cmd.Flags().StringVarP(&expiryFlag, "expiry", "e", "", "expiry date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&rangeFlag, "range", "r", "", "strike range, e.g. 150-200")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output PNG file")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func renderChart(app *App, kind string, page *dashboard.Page) ([]byte, error) {
	if kind == ChartKindHeatmap {
		return app.Renderer.Heatmap(page.Table)
	}
	return app.Renderer.GEX(page.Table, page.Metrics, page.Spot)
}
