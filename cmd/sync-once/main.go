package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jafarshop/orderledger/internal/app"
	"github.com/jafarshop/orderledger/internal/config"
	"github.com/jafarshop/orderledger/internal/service"
)

func main() {
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

	fmt.Println("🔄 Syncing Shopify orders into the ledger...")

	job := a.Jobs.RunNow(ctx, "cli")
	out, _ := json.MarshalIndent(job, "", "  ")
	fmt.Println(string(out))

	if job.State != service.JobSucceeded {
		fmt.Fprintf(os.Stderr, "❌ Sync failed: %s\n", job.Error)
		os.Exit(1)
	}
	if job.Result != nil && job.Result.Empty {
		fmt.Printf("ℹ️  %s\n", job.Result.Message)
		return
	}
	for _, w := range job.Result.Warnings {
		fmt.Printf("⚠️  %s\n", w)
	}
	fmt.Printf("✅ Ledger at version %d with %d row(s)\n", job.Result.Version, job.Result.Rows)
}
