package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Options Dashboard Configuration

[server]
# Listen address (the PORT environment variable overrides the port)
addr = ":5050"
read_timeout = "30s"
# Chain fetches are slow; keep the write timeout generous
write_timeout = "120s"
shutdown_timeout = "10s"

[provider]
# Market data provider: "yahoo", "polygon" or "fixture"
name = "yahoo"
# Per-call HTTP timeout
timeout = "30s"
# Directory of <TICKER>.csv and prices.csv files for the fixture provider
# fixture_dir = "/path/to/fixtures"

[resolver]
# Maximum number of expiries offered in the expiry selector
max_expiries = 12
# Number of monthly third-Friday candidates used when the provider lists none
fallback_months = 6
# Delay before the single retry of the expiry catalog request
retry_delay = "1s"

[dashboard]
default_ticker = "SPY"
# Strike range used when the spot price is unknown
default_range = "100-200"
# Default strike range is spot +/- this percentage
range_percent = 10.0

[charts]
gex_width = 1600
gex_height = 1200
heatmap_cell_width = 150
heatmap_row_height = 220
heatmap_max_width = 2400

[logging]
# Log level: debug, info, warn, error
level = "info"
console = true
# Rotating log file
file = false
max_size = 100
max_backups = 7
max_age = 30
`

const credentialsTemplate = `# Options Dashboard Credentials
# Keep this file private (mode 0600).

[polygon]
# Polygon.io API key, required when [provider] name = "polygon"
api_key = ""
`

func createTemplate(configDir, name, content string, perm os.FileMode) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name)
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return fmt.Errorf("writing %s template: %w", name, err)
	}

	return nil
}
