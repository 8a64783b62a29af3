package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jafarshop/orderledger/internal/config"
	"github.com/jafarshop/orderledger/internal/domain"
	"github.com/jafarshop/orderledger/internal/orders"
	"github.com/jafarshop/orderledger/internal/shopify"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/get-order/main.go <shopify_order_id> [--json]")
		fmt.Println("Example: go run cmd/get-order/main.go 6349083345108")
		os.Exit(1)
	}

	orderID, err := strconv.ParseInt(strings.TrimSpace(os.Args[1]), 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Order ID must be numeric: %v\n", err)
		os.Exit(1)
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

	// Create Shopify client
	client := shopify.NewClient(cfg.Shopify, logger)

	fmt.Printf("🔍 Fetching order from Shopify: %d\n\n", orderID)

	order, err := client.GetOrder(context.Background(), orderID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to fetch order: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) > 2 && os.Args[2] == "--json" {
		out, _ := json.MarshalIndent(order, "", "  ")
		fmt.Println(string(out))
		return
	}

	fmt.Printf("Order %d\n", order.ID)
	fmt.Printf("  Created: %s\n", order.CreatedAt)
	fmt.Printf("  Financial Status: %s\n", order.FinancialStatus)
	fmt.Printf("  Fulfillment Status: %s\n", domain.StrValue(order.FulfillmentStatus))
	fmt.Printf("  Line Items: %d\n", len(order.LineItems))

	if !cfg.Ledger.AllowedPaymentStates.Contains(order.FinancialStatus) {
		fmt.Printf("\n⚠️  Payment state %q is not allowed; this order is left out of the ledger.\n", order.FinancialStatus)
		return
	}

	fmt.Println("\nLedger rows:")
	for _, r := range orders.NormalizeOrder(*order, orders.Options{DefaultStatus: cfg.Ledger.DefaultStatus}) {
		fmt.Printf("  [%s] %s", r.Key, r.Product)
		if r.Variant != "" {
			fmt.Printf(" / %s", r.Variant)
		}
		fmt.Printf(" x%d  %s, %s  (%s)\n", r.Quantity, r.City, r.State, r.Status)
	}
}
