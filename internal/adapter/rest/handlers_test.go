package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/fundlens-backend/internal/adapter/repository/sqlite"
	"github.com/simaogato/fundlens-backend/internal/config"
	"github.com/simaogato/fundlens-backend/internal/domain"
	"github.com/simaogato/fundlens-backend/internal/usecase/currency"
	"github.com/simaogato/fundlens-backend/internal/usecase/ledger"
	"github.com/simaogato/fundlens-backend/internal/usecase/ownership"
	"github.com/simaogato/fundlens-backend/internal/usecase/pnl"
	"github.com/simaogato/fundlens-backend/internal/usecase/valuation"
)

var today = time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)

type fixture struct {
	handler   http.Handler
	funds     domain.FundRepository
	positions domain.PositionRepository
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := sqlite.NewDB(sqlite.MemoryPath)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))
	t.Cleanup(func() { db.Close() })

	log := zerolog.Nop()
	engine := config.DefaultEngine()

	fundRepo := sqlite.NewFundRepository(db)
	positionRepo := sqlite.NewPositionRepository(db)
	contributionRepo := sqlite.NewContributionRepository(db)
	rates := currency.NewRateResolver(sqlite.NewExchangeRateRepository(db), engine, log)

	valuationService := valuation.NewValuationService(fundRepo, positionRepo, currency.NewConverter(rates), log)
	owners := ownership.NewEngine(contributionRepo, valuationService, engine, log)

	handler := NewHandler(
		pnl.NewPnLService(positionRepo, engine, log),
		valuationService,
		owners,
		ledger.NewLedgerService(fundRepo, contributionRepo, owners, log),
		currency.NewBackfillService(fundRepo, positionRepo, rates, engine, log),
		log,
	)

	return &fixture{
		handler:   NewServer(":0", handler, log).Handler(),
		funds:     fundRepo,
		positions: positionRepo,
	}
}

func (f *fixture) fund(t *testing.T, base string) uuid.UUID {
	t.Helper()
	fund := &domain.Fund{ID: uuid.New(), Name: "Family", BaseCurrency: base}
	require.NoError(t, f.funds.Create(context.Background(), fund))
	return fund.ID
}

func (f *fixture) position(t *testing.T, fundID uuid.UUID, ticker, currency string, daysBefore int, price string) {
	t.Helper()
	require.NoError(t, f.positions.Add(context.Background(), &domain.PositionSnapshot{
		ID:         uuid.New(),
		FundID:     fundID,
		Ticker:     ticker,
		Shares:     decimal.NewFromInt(10),
		Price:      decimal.RequireFromString(price),
		CostBasis:  decimal.NewFromInt(1000),
		Currency:   currency,
		ObservedAt: today.AddDate(0, 0, -daysBefore).Add(16 * time.Hour),
	}))
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	f := setup(t)
	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetPnL_NullsInsufficientHistory(t *testing.T) {
	f := setup(t)
	fundID := f.fund(t, "CAD")
	f.position(t, fundID, "AAPL", "USD", 1, "110")
	f.position(t, fundID, "AAPL", "USD", 0, "120")

	rec := f.do(t, http.MethodGet, "/api/funds/"+fundID.String()+"/pnl/aapl", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, "100", raw["daily_pnl"])
	assert.Equal(t, "2024-06-13", raw["daily_prev_date"])

	value, present := raw["five_day_pnl"]
	assert.True(t, present, "null fields are serialized")
	assert.Nil(t, value)
	assert.Equal(t, false, raw["five_day_approximate"])
}

func TestListPnL(t *testing.T) {
	f := setup(t)
	fundID := f.fund(t, "CAD")
	f.position(t, fundID, "MSFT", "USD", 0, "400")
	f.position(t, fundID, "AAPL", "USD", 0, "120")

	rec := f.do(t, http.MethodGet, "/api/funds/"+fundID.String()+"/pnl", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var reports []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reports))
	require.Len(t, reports, 2)
	assert.Equal(t, "AAPL", reports[0]["ticker"])
	assert.Equal(t, "MSFT", reports[1]["ticker"])
}

func TestErrorStatuses(t *testing.T) {
	f := setup(t)
	fundID := f.fund(t, "CAD")
	unset := f.fund(t, "")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"bad fund id", http.MethodGet, "/api/funds/nope/pnl", "", http.StatusBadRequest},
		{"unknown ticker", http.MethodGet, "/api/funds/" + fundID.String() + "/pnl/TSLA", "", http.StatusNotFound},
		{"base currency unset", http.MethodGet, "/api/funds/" + unset.String() + "/value", "", http.StatusConflict},
		{"backfill without base currency", http.MethodPost, "/api/funds/" + unset.String() + "/backfill", "", http.StatusConflict},
		{"malformed body", http.MethodPost, "/api/funds/" + fundID.String() + "/contributions", "{", http.StatusBadRequest},
		{"bad amount", http.MethodPost, "/api/funds/" + fundID.String() + "/contributions", `{"contributor":"a","amount":"x"}`, http.StatusBadRequest},
		{"non-positive amount", http.MethodPost, "/api/funds/" + fundID.String() + "/contributions", `{"contributor":"a","amount":"0"}`, http.StatusBadRequest},
		{"unknown fund", http.MethodPost, "/api/funds/" + uuid.NewString() + "/contributions", `{"contributor":"a","amount":"5"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestContributionsAndOwnership(t *testing.T) {
	f := setup(t)
	fundID := f.fund(t, "CAD")
	base := "/api/funds/" + fundID.String()

	rec := f.do(t, http.MethodPost, base+"/contributions", `{"contributor":"alice","amount":"1000","recorded_at":"2024-06-01T10:00:00Z"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, base+"/contributions", `{"contributor":"bob","amount":"3000","type":"contribution","recorded_at":"2024-06-02T10:00:00Z"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, base+"/ownership", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stakes []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stakes))
	require.Len(t, stakes, 2)
	assert.Equal(t, "alice", stakes[0]["contributor"])
	assert.Equal(t, "25.0000", stakes[0]["pct_of_fund"])
	assert.Equal(t, "bob", stakes[1]["contributor"])
	assert.Equal(t, "75.0000", stakes[1]["pct_of_fund"])
	assert.Equal(t, "3000.00", stakes[1]["value"])
}

func TestBackfillAndValue(t *testing.T) {
	f := setup(t)
	fundID := f.fund(t, "CAD")
	f.position(t, fundID, "SHOP", "CAD", 0, "90")
	base := "/api/funds/" + fundID.String()

	rec := f.do(t, http.MethodPost, base+"/backfill", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, float64(1), result["updated"])

	rec = f.do(t, http.MethodGet, base+"/value", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var value struct {
		Total    string `json:"total"`
		Holdings []struct {
			RateSource string `json:"rate_source"`
			Stored     bool   `json:"stored"`
		} `json:"holdings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &value))
	assert.Equal(t, "900", value.Total)
	require.Len(t, value.Holdings, 1)
	assert.Equal(t, "IDENTITY", value.Holdings[0].RateSource)
	assert.True(t, value.Holdings[0].Stored)
}
