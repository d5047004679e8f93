// Command server runs the invoice API.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	app := &cli.App{
		Name:   "invoice-api",
		Usage:  "multi-tenant invoicing REST API",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply the store schema and exit",
				Action: migrateOnly,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
