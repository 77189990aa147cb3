// Command seed provisions the QuietSpotter PostgreSQL schema and loads the
// demo fixtures: three contributors, five venues, and their report history.
//
// Usage:
//
//	go run ./cmd/seed \
//	  -database-url postgres://localhost/quietspotter?sslmode=disable \
//	  -trigger
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/quietspotter/quietspotter/internal/repository"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	databaseURL := flag.String("database-url", os.Getenv("DATABASE_URL"), "postgres connection string")
	withTrigger := flag.Bool("trigger", false, "install the aggregate-maintaining trigger (AGGREGATION_MODE=trigger deployments)")
	verbose := flag.Bool("v", false, "log connection details")
	flag.Parse()

	if *databaseURL == "" {
		flag.Usage()
		return fmt.Errorf("missing -database-url (or DATABASE_URL)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	out := io.Discard
	if *verbose {
		out = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(out, nil))

	repo, err := repository.OpenPostgres(ctx, *databaseURL, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.EnsureSchema(ctx, *withTrigger); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	if err := repository.Seed(ctx, repo); err != nil {
		return err
	}

	locations, err := repo.ListLocations(ctx)
	if err != nil {
		return err
	}
	reports, err := repo.ListReports(ctx)
	if err != nil {
		return err
	}
	users, err := repo.ListUsers(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("seeded %d users, %d locations, %d reports (trigger=%v)\n",
		len(users), len(locations), len(reports), *withTrigger)
	for _, loc := range locations {
		fmt.Printf("  %-22s avg=%d reports=%d\n", loc.Name, loc.AverageNoiseLevel, loc.TotalReports)
	}
	return nil
}
