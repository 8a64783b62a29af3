package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jafarshop/orderledger/internal/domain"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string
	Database    DatabaseConfig
	Shopify     ShopifyConfig
	Sheets      SheetsConfig
	Ledger      LedgerConfig
	Redis       RedisConfig
	Sync        SyncConfig
	// DASHBOARD_KEYS: "role:bcrypt-hash;role:bcrypt-hash". Empty disables auth.
	DashboardKeys []DashboardKey
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type ShopifyConfig struct {
	ShopDomain      string
	AccessToken     string
	APIVersion      string
	WebhookSecret   string // SHOPIFY_WEBHOOK_SECRET: verify incoming webhooks (X-Shopify-Hmac-Sha256)
	MaxPages        int
	PageSize        int
	FinancialStatus string // optional server-side financial_status filter
	Timeout         time.Duration
	RetryMax        int
	RetryInitial    time.Duration
	NotifyCustomer  bool
}

// SheetsConfig addresses the spreadsheet holding the shipments, stock and ledger tabs
type SheetsConfig struct {
	SpreadsheetID   string
	CredentialsJSON string // GOOGLE_SERVICE_ACCOUNT_JSON (inline) or read from GOOGLE_APPLICATION_CREDENTIALS
	LedgerTab       string
	ShipmentsTab    string
	StockTab        string
	CSVBaseURL      string
	WriteMode       string // upsert | overwrite
}

type LedgerConfig struct {
	AllowedPaymentStates domain.PaymentStates
	DefaultStatus        string
	Store                string // postgres | memory
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type SyncConfig struct {
	Interval time.Duration // 0 disables the scheduler
	Timeout  time.Duration
}

// DashboardKey is one configured API key hash and the role it grants
type DashboardKey struct {
	Role string
	Hash string
}

const (
	WriteModeUpsert    = "upsert"
	WriteModeOverwrite = "overwrite"
	StorePostgres      = "postgres"
	StoreMemory        = "memory"
)

func Load() (*Config, error) {
	// .env values do not override variables already set in the environment
	_ = godotenv.Load(".env")

	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var errs []string
	intVal := func(key string, def int) int {
		raw := getEnvOrViper(key, strconv.Itoa(def))
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s must be an integer, got %q", key, raw))
			return def
		}
		return n
	}
	durVal := func(key string, def time.Duration) time.Duration {
		raw := getEnvOrViper(key, def.String())
		d, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s must be a duration, got %q", key, raw))
			return def
		}
		return d
	}
	boolVal := func(key string, def bool) bool {
		raw := getEnvOrViper(key, strconv.FormatBool(def))
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s must be a boolean, got %q", key, raw))
			return def
		}
		return b
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		LogLevel:    getEnvOrViper("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "orderledger"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Shopify: ShopifyConfig{
			ShopDomain:      strings.TrimSpace(getEnvOrViper("SHOPIFY_SHOP_DOMAIN", "")),
			AccessToken:     strings.TrimSpace(getEnvOrViper("SHOPIFY_ACCESS_TOKEN", "")),
			APIVersion:      getEnvOrViper("SHOPIFY_API_VERSION", "2023-10"),
			WebhookSecret:   strings.TrimSpace(getEnvOrViper("SHOPIFY_WEBHOOK_SECRET", "")),
			MaxPages:        intVal("SHOPIFY_MAX_PAGES", 4),
			PageSize:        intVal("SHOPIFY_PAGE_SIZE", 250),
			FinancialStatus: strings.TrimSpace(getEnvOrViper("SHOPIFY_FINANCIAL_STATUS", "")),
			Timeout:         durVal("SHOPIFY_TIMEOUT", 30*time.Second),
			RetryMax:        intVal("SHOPIFY_RETRY_MAX", 3),
			RetryInitial:    durVal("SHOPIFY_RETRY_INITIAL", 500*time.Millisecond),
			NotifyCustomer:  boolVal("SHOPIFY_NOTIFY_CUSTOMER", true),
		},
		Sheets: SheetsConfig{
			SpreadsheetID:   strings.TrimSpace(getEnvOrViper("SHEETS_SPREADSHEET_ID", "")),
			CredentialsJSON: strings.TrimSpace(getEnvOrViper("GOOGLE_SERVICE_ACCOUNT_JSON", "")),
			LedgerTab:       getEnvOrViper("SHEETS_LEDGER_TAB", "Pedidos Shopify"),
			ShipmentsTab:    getEnvOrViper("SHEETS_SHIPMENTS_TAB", "Pedidos"),
			StockTab:        getEnvOrViper("SHEETS_STOCK_TAB", "Estoque"),
			CSVBaseURL:      strings.TrimSuffix(getEnvOrViper("SHEETS_CSV_BASE_URL", "https://docs.google.com"), "/"),
			WriteMode:       strings.ToLower(getEnvOrViper("SHEETS_WRITE_MODE", WriteModeUpsert)),
		},
		Ledger: LedgerConfig{
			AllowedPaymentStates: domain.ParsePaymentStates(getEnvOrViper("LEDGER_ALLOWED_PAYMENT_STATES", "paid,partially_paid")),
			DefaultStatus:        getEnvOrViper("LEDGER_DEFAULT_STATUS", domain.DefaultStatusLabel),
			Store:                strings.ToLower(getEnvOrViper("LEDGER_STORE", StorePostgres)),
		},
		Redis: RedisConfig{
			Enabled:  boolVal("REDIS_ENABLED", false),
			Addr:     getEnvOrViper("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrViper("REDIS_PASSWORD", ""),
			DB:       intVal("REDIS_DB", 0),
			TTL:      durVal("CACHE_TTL", 60*time.Second),
		},
		Sync: SyncConfig{
			Interval: durVal("SYNC_INTERVAL", 0),
			Timeout:  durVal("SYNC_TIMEOUT", 2*time.Minute),
		},
	}

	if cfg.Sheets.CredentialsJSON == "" {
		if path := strings.TrimSpace(getEnvOrViper("GOOGLE_APPLICATION_CREDENTIALS", "")); path != "" {
			raw, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read GOOGLE_APPLICATION_CREDENTIALS: %w", err)
			}
			cfg.Sheets.CredentialsJSON = string(raw)
		}
	}

	keys, err := ParseDashboardKeys(getEnvOrViper("DASHBOARD_KEYS", ""))
	if err != nil {
		errs = append(errs, err.Error())
	}
	cfg.DashboardKeys = keys

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and value ranges
func (c *Config) Validate() error {
	if c.Shopify.ShopDomain == "" {
		return fmt.Errorf("SHOPIFY_SHOP_DOMAIN is required")
	}
	if c.Shopify.AccessToken == "" {
		return fmt.Errorf("SHOPIFY_ACCESS_TOKEN is required")
	}
	if c.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("SHEETS_SPREADSHEET_ID is required")
	}
	if c.Shopify.MaxPages < 1 {
		return fmt.Errorf("SHOPIFY_MAX_PAGES must be at least 1")
	}
	if c.Shopify.PageSize < 1 || c.Shopify.PageSize > 250 {
		return fmt.Errorf("SHOPIFY_PAGE_SIZE must be between 1 and 250")
	}
	if c.Shopify.RetryMax < 0 {
		return fmt.Errorf("SHOPIFY_RETRY_MAX must not be negative")
	}
	if c.Sheets.WriteMode != WriteModeUpsert && c.Sheets.WriteMode != WriteModeOverwrite {
		return fmt.Errorf("SHEETS_WRITE_MODE must be %q or %q", WriteModeUpsert, WriteModeOverwrite)
	}
	if c.Ledger.Store != StorePostgres && c.Ledger.Store != StoreMemory {
		return fmt.Errorf("LEDGER_STORE must be %q or %q", StorePostgres, StoreMemory)
	}
	if len(c.Ledger.AllowedPaymentStates) == 0 {
		return fmt.Errorf("LEDGER_ALLOWED_PAYMENT_STATES must list at least one state")
	}
	if !domain.IsValidStatus(c.Ledger.DefaultStatus) {
		return fmt.Errorf("LEDGER_DEFAULT_STATUS %q is not a ledger status", c.Ledger.DefaultStatus)
	}
	return nil
}

// ParseDashboardKeys parses "role:hash;role:hash". bcrypt hashes contain '$' but no ';'.
func ParseDashboardKeys(raw string) ([]DashboardKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var keys []DashboardKey
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		role, hash, ok := strings.Cut(entry, ":")
		role = strings.ToLower(strings.TrimSpace(role))
		hash = strings.TrimSpace(hash)
		if !ok || hash == "" {
			return nil, fmt.Errorf("DASHBOARD_KEYS entry %q must be role:hash", entry)
		}
		if role != "viewer" && role != "editor" {
			return nil, fmt.Errorf("DASHBOARD_KEYS role %q must be viewer or editor", role)
		}
		keys = append(keys, DashboardKey{Role: role, Hash: hash})
	}
	return keys, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}
