package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/jafarshop/orderledger/internal/api/middleware"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/hash-key/main.go <viewer|editor> [api_key]")
		fmt.Println("Without api_key a random key is generated.")
		os.Exit(1)
	}

	role := strings.ToLower(strings.TrimSpace(os.Args[1]))
	if role != middleware.RoleViewer && role != middleware.RoleEditor {
		fmt.Fprintf(os.Stderr, "❌ Role must be %q or %q\n", middleware.RoleViewer, middleware.RoleEditor)
		os.Exit(1)
	}

	apiKey := ""
	if len(os.Args) > 2 {
		apiKey = strings.TrimSpace(os.Args[2])
	}
	if apiKey == "" {
		apiKey = strings.ReplaceAll(uuid.New().String(), "-", "")
	}

	hash, err := middleware.HashAPIKey(apiKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to hash key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("API key (give to the dashboard user): %s\n", apiKey)
	fmt.Printf("DASHBOARD_KEYS entry:                 %s:%s\n", role, hash)
	fmt.Println("\nSeparate multiple entries with ';'.")
}
