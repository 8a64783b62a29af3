package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/orderledger/internal/app"
	"github.com/jafarshop/orderledger/internal/config"
	"github.com/jafarshop/orderledger/internal/domain"
)

func main() {
	state := flag.String("state", "", "only rows shipped to this state")
	product := flag.String("product", "", "only rows of this product")
	limit := flag.Int("limit", 100, "maximum rows to print")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	view, err := a.Ledger.Get(ctx, domain.RowFilter{State: *state, Product: *product})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load ledger: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("📋 Ledger version %d, %d row(s), updated %s\n\n", view.Version, view.Total, view.UpdatedAt.Format(time.RFC3339))

	for i, r := range view.Rows {
		if i >= *limit {
			fmt.Printf("... %d more\n", len(view.Rows)-*limit)
			break
		}
		ts := "-"
		if r.HasTimestamp() {
			ts = r.OrderedAt.Format(domain.TimestampLayout)
		}
		fmt.Printf("%-14s %s  %s x%d  %s/%s  %s", r.Key, ts, r.Product, r.Quantity, r.City, r.State, r.Status)
		if r.TrackingCode != "" {
			fmt.Printf("  %s", r.TrackingCode)
		}
		fmt.Println()
	}

	if len(view.Rows) == 0 {
		fmt.Println("❌ No ledger rows found.")
		fmt.Println("\nRun a sync first: go run cmd/sync-once/main.go")
	} else {
		fmt.Printf("\n✅ Found %d row(s)\n", len(view.Rows))
	}
}
