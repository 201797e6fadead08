package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/constants"
)

// UnrealizedPricePolicy selects which observed price values the remaining
// position after matching.
type UnrealizedPricePolicy string

const (
	// PriceLatestAny uses the most recent price across both buys and sells.
	PriceLatestAny UnrealizedPricePolicy = "latest_any"
	// PriceLatestSell uses the most recent sell price only.
	PriceLatestSell UnrealizedPricePolicy = "latest_sell"
)

type Config struct {
	// HTTP server settings
	ListenAddr string
	APIKey     string
	RateLimit  float64
	DevMode    bool

	// Redis settings
	RedisAddr     string
	RedisPassword string
	ReportTTL     time.Duration
	PriceTTL      time.Duration

	// ClickHouse settings
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// Price API settings
	PriceAPIURL  string
	HTTPTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// AI settings
	OpenRouterAPIKey string
	OpenRouterModel  string

	// Analysis tuning
	NetFlowQtyEpsilon     decimal.Decimal
	NetFlowUSDEpsilon     decimal.Decimal
	DustEpsilon           decimal.Decimal
	ImbalanceRatio        decimal.Decimal
	SanityPnLThresholdUSD decimal.Decimal
	UnrealizedPolicy      UnrealizedPricePolicy

	// Asset classification. Defaults come from the well-known Solana sets
	// in internal/constants; each can be replaced wholesale through env.
	ReferenceAssets    map[string]bool
	USDStableAssets    map[string]bool
	ExchangeCurrencies map[string]bool
}

func Load() *Config {
	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
		APIKey:     getEnv("API_KEY", ""),
		RateLimit:  getFloatEnv("RATE_LIMIT", 10),
		DevMode:    getBoolEnv("DEV_MODE", false),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		ReportTTL:     getDurationEnv("REPORT_TTL", 24*time.Hour),
		PriceTTL:      getDurationEnv("PRICE_TTL", 5*time.Minute),

		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "pnl"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		PriceAPIURL:  getEnv("PRICE_API_URL", "https://lite-api.jup.ag/price/v2"),
		HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 30*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 5),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", 2*time.Second),

		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterModel:  getEnv("OPENROUTER_MODEL", "openai/gpt-4o-mini"),

		NetFlowQtyEpsilon:     getDecimalEnv("NET_FLOW_QTY_EPSILON", "0.001"),
		NetFlowUSDEpsilon:     getDecimalEnv("NET_FLOW_USD_EPSILON", "0.01"),
		DustEpsilon:           getDecimalEnv("DUST_EPSILON", "0.000000000000000001"),
		ImbalanceRatio:        getDecimalEnv("IMBALANCE_RATIO", "0.10"),
		SanityPnLThresholdUSD: getDecimalEnv("SANITY_PNL_THRESHOLD_USD", "100000000"),
		UnrealizedPolicy:      UnrealizedPricePolicy(getEnv("UNREALIZED_PRICE_POLICY", string(PriceLatestAny))),

		ReferenceAssets:    getMintSetEnv("REFERENCE_ASSETS", constants.ReferenceAssets),
		USDStableAssets:    getMintSetEnv("USD_STABLE_ASSETS", constants.USDStableAssets),
		ExchangeCurrencies: getMintSetEnv("EXCHANGE_CURRENCIES", constants.ExchangeCurrencies),
	}
}

// IsReferenceAsset reports whether the mint is a configured quote currency
// (USD stable, SOL, or an SOL liquid staking token).
func (c *Config) IsReferenceAsset(mint string) bool {
	return c.ReferenceAssets[mint]
}

// IsUSDStable reports whether the mint is a configured USD-pegged token.
func (c *Config) IsUSDStable(mint string) bool {
	return c.USDStableAssets[mint]
}

// IsExchangeCurrency reports whether the mint is excluded from portfolio
// position rollups.
func (c *Config) IsExchangeCurrency(mint string) bool {
	return c.ExchangeCurrencies[mint]
}

// Validate catches misconfiguration before the pipeline runs with it.
func (c *Config) Validate() error {
	if c.NetFlowQtyEpsilon.IsNegative() || c.NetFlowUSDEpsilon.IsNegative() {
		return fmt.Errorf("net flow epsilons must be non-negative")
	}
	if !c.DustEpsilon.IsPositive() {
		return fmt.Errorf("dust epsilon must be positive")
	}
	switch c.UnrealizedPolicy {
	case PriceLatestAny, PriceLatestSell:
	default:
		return fmt.Errorf("unknown unrealized price policy %q", c.UnrealizedPolicy)
	}
	if len(c.ReferenceAssets) == 0 {
		return fmt.Errorf("reference asset set must not be empty")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// getMintSetEnv reads a comma-separated mint list from env, falling back to
// the default symbol map's keys when unset.
func getMintSetEnv(key string, defaults map[string]string) map[string]bool {
	set := make(map[string]bool)
	if val := os.Getenv(key); val != "" {
		for _, mint := range strings.Split(val, ",") {
			if mint = strings.TrimSpace(mint); mint != "" {
				set[mint] = true
			}
		}
		return set
	}
	for mint := range defaults {
		set[mint] = true
	}
	return set
}

func getDecimalEnv(key, defaultVal string) decimal.Decimal {
	if val := os.Getenv(key); val != "" {
		if d, err := decimal.NewFromString(val); err == nil {
			return d
		}
	}
	d, _ := decimal.NewFromString(defaultVal)
	return d
}
