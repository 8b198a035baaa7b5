package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/fundlens-test.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "/tmp/fundlens-test.db", cfg.DBConnStr)
	assert.Equal(t, 14, cfg.Engine.DailyMaxGapDays)
	assert.Equal(t, 3, cfg.Engine.FiveDayMinDays)
	assert.Equal(t, 10, cfg.Engine.FiveDayMaxDays)
	assert.True(t, cfg.Engine.DefaultRate("USD", "CAD").Equal(decimal.RequireFromString("1.35")))
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("LOOKBACK_DAILY_MAX_GAP_DAYS", "7")
	t.Setenv("BACKFILL_WORKERS", "2")
	t.Setenv("FALLBACK_EXCHANGE_RATE", "1.10")
	t.Setenv("DEFAULT_EXCHANGE_RATES", "usd:cad=1.36, EUR:CAD=1.47")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Contains(t, cfg.DBConnStr, "host=db")
	assert.Equal(t, 7, cfg.Engine.DailyMaxGapDays)
	assert.Equal(t, 2, cfg.Engine.BackfillWorkers)
	assert.True(t, cfg.Engine.DefaultRate("USD", "CAD").Equal(decimal.RequireFromString("1.36")))
	assert.True(t, cfg.Engine.DefaultRate("EUR", "CAD").Equal(decimal.RequireFromString("1.47")))
	assert.True(t, cfg.Engine.DefaultRate("GBP", "CAD").Equal(decimal.RequireFromString("1.10")))
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")

	_, err := Load()
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}

func TestEngine_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *Engine)
		errMsg string
	}{
		{name: "defaults are valid", mutate: func(e *Engine) {}},
		{name: "zero daily gap", mutate: func(e *Engine) { e.DailyMaxGapDays = 0 }, errMsg: "daily max gap"},
		{name: "inverted five-day window", mutate: func(e *Engine) { e.FiveDayMinDays = 11 }, errMsg: "invalid five-day window"},
		{name: "non-positive fallback", mutate: func(e *Engine) { e.FallbackRate = decimal.Zero }, errMsg: "fallback rate"},
		{name: "non-positive default", mutate: func(e *Engine) {
			e.DefaultRates = map[string]decimal.Decimal{"USD:CAD": decimal.NewFromInt(-1)}
		}, errMsg: "default rate for USD:CAD"},
		{name: "zero workers", mutate: func(e *Engine) { e.BackfillWorkers = 0 }, errMsg: "backfill workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := DefaultEngine()
			tt.mutate(&e)
			err := e.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.errMsg)
			}
		})
	}
}

func TestParseDefaultRates_Invalid(t *testing.T) {
	_, err := ParseDefaultRates("USDCAD=1.3")
	assert.ErrorContains(t, err, "invalid default exchange rate entry")

	_, err = ParseDefaultRates("USD:CAD=abc")
	assert.ErrorContains(t, err, "invalid default exchange rate for USD:CAD")
}
