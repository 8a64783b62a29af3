package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jafarshop/orderledger/internal/app"
	"github.com/jafarshop/orderledger/internal/config"
	"github.com/jafarshop/orderledger/internal/domain"
	"github.com/jafarshop/orderledger/internal/service"
)

func main() {
	// Optional row keys ("<order id>:<line index>"); none pushes every row with a code
	var req service.TrackingRequest
	for _, k := range os.Args[1:] {
		req.Keys = append(req.Keys, domain.RowKey(k))
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

	fmt.Println("🚚 Pushing tracking codes to Shopify...")

	rep, err := a.Ledger.PushTracking(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Tracking push failed: %v\n", err)
		os.Exit(1)
	}

	for _, r := range rep.Results {
		mark := "✅"
		if !r.OK {
			mark = "❌"
		}
		fmt.Printf("%s order %d  %s", mark, r.OrderID, r.TrackingCode)
		if r.Error != "" {
			fmt.Printf("  (%s)", r.Error)
		}
		fmt.Println()
	}
	fmt.Printf("\nPushed: %d, failed: %d, skipped (no code): %d\n", rep.Pushed, rep.Failed, rep.Skipped)
	if rep.Failed > 0 {
		os.Exit(2)
	}
}
