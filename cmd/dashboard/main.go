// Command dashboard serves and prints options chain dashboards.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"options-dashboard/internal/cli"
)

func main() {
	// A .env file is optional; real environment variables take precedence.
	_ = godotenv.Load()

	os.Exit(cli.Execute())
}
