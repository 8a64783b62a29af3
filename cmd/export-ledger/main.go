package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jafarshop/orderledger/internal/app"
	"github.com/jafarshop/orderledger/internal/config"
	"github.com/jafarshop/orderledger/internal/export"
)

func main() {
	path := "ledger.xlsx"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

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

	l, err := a.Repos.Ledger.Get(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load ledger: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", path, err)
		os.Exit(1)
	}
	defer f.Close()

	if err := export.Write(f, l); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Export failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Wrote %d row(s) of ledger version %d to %s\n", len(l.Rows), l.Version, path)
}
