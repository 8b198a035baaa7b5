// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/simaogato/fundlens-backend/internal/domain"
)

// Config holds application configuration
type Config struct {
	DBDriver   string // "postgres" or "sqlite"
	DBConnStr  string
	GRPCAddr   string
	HTTPAddr   string
	APIToken   string
	LogLevel   string
	LogPretty  bool
	Engine     Engine
	StartDelay int // seconds to wait for the database container, 0 disables
}

// Engine holds the tolerances and fallbacks of the valuation engine
// It is passed into each component at construction, never read from globals
type Engine struct {
	// DailyMaxGapDays bounds how old the 1-day comparison price may be
	DailyMaxGapDays int
	// FiveDayTargetDays is the nominal offset of the weekly comparison
	FiveDayTargetDays int
	// FiveDayMinDays and FiveDayMaxDays bound the weekly comparison window
	FiveDayMinDays int
	FiveDayMaxDays int

	// DefaultRates maps FROM:TO to the last-resort rate used when no observation exists
	DefaultRates map[string]decimal.Decimal
	// FallbackRate is used for pairs absent from DefaultRates
	FallbackRate decimal.Decimal

	// DefaultBaseCurrency is assigned to funds created without one
	DefaultBaseCurrency string

	// BackfillBatchSize is the number of rows fetched per backfill page
	BackfillBatchSize int
	// BackfillWorkers bounds how many funds are backfilled concurrently
	BackfillWorkers int

	// OwnershipTolerancePct is the allowed deviation of summed ownership from 100
	OwnershipTolerancePct decimal.Decimal
}

// DefaultEngine returns the engine settings of the reference deployment
func DefaultEngine() Engine {
	return Engine{
		DailyMaxGapDays:     14,
		FiveDayTargetDays:   domain.FiveDayTargetDays,
		FiveDayMinDays:      3,
		FiveDayMaxDays:      10,
		DefaultRates:        map[string]decimal.Decimal{domain.PairKey("USD", "CAD"): decimal.RequireFromString("1.35")},
		FallbackRate:        decimal.RequireFromString("1.35"),
		DefaultBaseCurrency: "CAD",
		BackfillBatchSize:   500,
		BackfillWorkers:     4,

		OwnershipTolerancePct: decimal.RequireFromString("0.01"),
	}
}

// DefaultRate returns the configured last-resort rate for a pair
func (e Engine) DefaultRate(from, to string) decimal.Decimal {
	if rate, ok := e.DefaultRates[domain.PairKey(from, to)]; ok {
		return rate
	}
	return e.FallbackRate
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	engine, err := loadEngine()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBConnStr:  getEnv("DB_CONN_STR", ""),
		GRPCAddr:   getEnv("GRPC_ADDR", ":8080"),
		HTTPAddr:   getEnv("HTTP_ADDR", ":8081"),
		APIToken:   getEnv("API_TOKEN", "dev-token"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogPretty:  getEnvAsBool("LOG_PRETTY", false),
		StartDelay: getEnvAsInt("DB_START_DELAY", 0),
		Engine:     engine,
	}

	if cfg.DBConnStr == "" {
		cfg.DBConnStr = defaultConnString(cfg.DBDriver)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if configuration is consistent
func (c *Config) Validate() error {
	if c.DBDriver != "postgres" && c.DBDriver != "sqlite" {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	return c.Engine.Validate()
}

// Validate checks the engine tolerances
func (e Engine) Validate() error {
	if e.DailyMaxGapDays < 1 {
		return fmt.Errorf("daily max gap must be at least 1 day, got %d", e.DailyMaxGapDays)
	}
	if e.FiveDayMinDays < 1 || e.FiveDayMinDays > e.FiveDayMaxDays {
		return fmt.Errorf("invalid five-day window [%d, %d]", e.FiveDayMinDays, e.FiveDayMaxDays)
	}
	if !e.FallbackRate.IsPositive() {
		return fmt.Errorf("fallback rate must be positive, got %s", e.FallbackRate)
	}
	for pair, rate := range e.DefaultRates {
		if !rate.IsPositive() {
			return fmt.Errorf("default rate for %s must be positive, got %s", pair, rate)
		}
	}
	if e.BackfillBatchSize < 1 {
		return fmt.Errorf("backfill batch size must be positive, got %d", e.BackfillBatchSize)
	}
	if e.BackfillWorkers < 1 {
		return fmt.Errorf("backfill workers must be positive, got %d", e.BackfillWorkers)
	}
	return nil
}

func loadEngine() (Engine, error) {
	e := DefaultEngine()

	e.DailyMaxGapDays = getEnvAsInt("LOOKBACK_DAILY_MAX_GAP_DAYS", e.DailyMaxGapDays)
	e.FiveDayTargetDays = getEnvAsInt("LOOKBACK_FIVE_DAY_TARGET_DAYS", e.FiveDayTargetDays)
	e.FiveDayMinDays = getEnvAsInt("LOOKBACK_FIVE_DAY_MIN_DAYS", e.FiveDayMinDays)
	e.FiveDayMaxDays = getEnvAsInt("LOOKBACK_FIVE_DAY_MAX_DAYS", e.FiveDayMaxDays)
	e.DefaultBaseCurrency = getEnv("DEFAULT_BASE_CURRENCY", e.DefaultBaseCurrency)
	e.BackfillBatchSize = getEnvAsInt("BACKFILL_BATCH_SIZE", e.BackfillBatchSize)
	e.BackfillWorkers = getEnvAsInt("BACKFILL_WORKERS", e.BackfillWorkers)

	if v := os.Getenv("FALLBACK_EXCHANGE_RATE"); v != "" {
		rate, err := decimal.NewFromString(v)
		if err != nil {
			return e, fmt.Errorf("invalid FALLBACK_EXCHANGE_RATE: %w", err)
		}
		e.FallbackRate = rate
	}

	// DEFAULT_EXCHANGE_RATES="USD:CAD=1.35,EUR:CAD=1.47"
	if v := os.Getenv("DEFAULT_EXCHANGE_RATES"); v != "" {
		rates, err := ParseDefaultRates(v)
		if err != nil {
			return e, err
		}
		e.DefaultRates = rates
	}

	return e, nil
}

// ParseDefaultRates parses a comma-separated list of FROM:TO=rate entries
func ParseDefaultRates(s string) (map[string]decimal.Decimal, error) {
	rates := make(map[string]decimal.Decimal)
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		pair, value, ok := strings.Cut(item, "=")
		if !ok || !strings.Contains(pair, ":") {
			return nil, fmt.Errorf("invalid default exchange rate entry %q", item)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid default exchange rate for %s: %w", pair, err)
		}
		rates[strings.ToUpper(strings.TrimSpace(pair))] = rate
	}
	return rates, nil
}

func defaultConnString(driver string) string {
	if driver == "sqlite" {
		return getEnv("SQLITE_PATH", "fundlens.db")
	}

	// Build it from individual vars (Docker friendly)
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_NAME", "fundlens"),
	)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
