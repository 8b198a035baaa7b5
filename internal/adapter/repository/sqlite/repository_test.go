package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/fundlens-backend/internal/domain"
)

var day0 = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(MemoryPath)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))

	t.Cleanup(func() { db.Close() })
	return db
}

func seedFund(t *testing.T, db *DB, base string) *domain.Fund {
	t.Helper()

	fund := &domain.Fund{ID: uuid.New(), Name: "Family", BaseCurrency: base}
	require.NoError(t, NewFundRepository(db).Create(context.Background(), fund))
	return fund
}

func addSnapshot(t *testing.T, repo domain.PositionRepository, fundID uuid.UUID, ticker string, day, hour int, price string) *domain.PositionSnapshot {
	t.Helper()

	p := &domain.PositionSnapshot{
		ID:         uuid.New(),
		FundID:     fundID,
		Ticker:     ticker,
		Shares:     decimal.NewFromInt(10),
		Price:      decimal.RequireFromString(price),
		CostBasis:  decimal.NewFromInt(1000),
		Currency:   "USD",
		ObservedAt: day0.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour),
	}
	require.NoError(t, repo.Add(context.Background(), p))
	return p
}

func TestMigrate_IsRepeatable(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, db.Migrate(context.Background()))
}

func TestFundRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewFundRepository(db)

	unset := seedFund(t, db, "")
	seedFund(t, db, "USD")

	got, err := repo.GetByID(ctx, unset.ID)
	require.NoError(t, err)
	assert.Equal(t, "Family", got.Name)
	assert.False(t, got.HasBaseCurrency())

	require.NoError(t, repo.SetBaseCurrency(ctx, unset.ID, "CAD"))
	got, err = repo.GetByID(ctx, unset.ID)
	require.NoError(t, err)
	assert.Equal(t, "CAD", got.BaseCurrency)

	funds, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, funds, 2)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	err = repo.SetBaseCurrency(ctx, uuid.New(), "CAD")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPositionRepository_RoundTripAndOrdering(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewPositionRepository(db)
	fund := seedFund(t, db, "CAD")

	late := addSnapshot(t, repo, fund.ID, "AAPL", 1, 17, "102.5")
	early := addSnapshot(t, repo, fund.ID, "AAPL", 1, 9, "101")
	first := addSnapshot(t, repo, fund.ID, "AAPL", 0, 16, "100.123456789")
	addSnapshot(t, repo, fund.ID, "MSFT", 0, 16, "400")

	history, err := repo.ListHistory(ctx, fund.ID, "AAPL")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, first.ID, history[0].ID)
	assert.Equal(t, early.ID, history[1].ID)
	assert.Equal(t, late.ID, history[2].ID)
	assert.True(t, history[0].Price.Equal(decimal.RequireFromString("100.123456789")))
	assert.True(t, history[2].ObservedAt.Equal(late.ObservedAt))
	assert.Nil(t, history[0].Converted)

	all, err := repo.ListByFund(ctx, fund.ID)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestPositionRepository_ListRangeIsHalfOpenByDay(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewPositionRepository(db)
	fund := seedFund(t, db, "CAD")

	for day := 0; day < 6; day++ {
		addSnapshot(t, repo, fund.ID, "AAPL", day, 23, "100")
	}

	got, err := repo.ListRange(ctx, fund.ID, "AAPL", day0.AddDate(0, 0, 2), day0.AddDate(0, 0, 5).Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, day0.AddDate(0, 0, 2), got[0].Day())
	assert.Equal(t, day0.AddDate(0, 0, 4), got[2].Day())
}

func TestPositionRepository_SaveConversionOnlyOnce(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewPositionRepository(db)
	fund := seedFund(t, db, "CAD")

	p1 := addSnapshot(t, repo, fund.ID, "AAPL", 1, 16, "120")
	p0 := addSnapshot(t, repo, fund.ID, "AAPL", 0, 16, "110")

	pending, err := repo.ListUnconverted(ctx, fund.ID, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, p0.ID, pending[0].ID, "oldest observation first")

	rateAt := day0.Add(12 * time.Hour)
	values := &domain.ConvertedValues{
		TotalValueBase: decimal.RequireFromString("1430"),
		CostBasisBase:  decimal.RequireFromString("1300"),
		PnLBase:        decimal.RequireFromString("130"),
		ExchangeRate:   decimal.RequireFromString("1.30"),
		RateSource:     domain.RateSourceExact,
		RateObservedAt: &rateAt,
	}

	ok, err := repo.SaveConversion(ctx, p0.ID, values)
	require.NoError(t, err)
	assert.True(t, ok)

	changed := *values
	changed.TotalValueBase = decimal.NewFromInt(1)
	ok, err = repo.SaveConversion(ctx, p0.ID, &changed)
	require.NoError(t, err)
	assert.False(t, ok)

	pending, err = repo.ListUnconverted(ctx, fund.ID, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, p1.ID, pending[0].ID)

	history, err := repo.ListHistory(ctx, fund.ID, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, history[0].Converted)
	assert.True(t, history[0].Converted.TotalValueBase.Equal(decimal.NewFromInt(1430)))
	assert.Equal(t, domain.RateSourceExact, history[0].Converted.RateSource)
	require.NotNil(t, history[0].Converted.RateObservedAt)
	assert.True(t, history[0].Converted.RateObservedAt.Equal(rateAt))
}

func TestExchangeRateRepository_LatestAtOrBefore(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewExchangeRateRepository(db)

	add := func(rate string, at time.Time) {
		require.NoError(t, repo.Add(ctx, &domain.ExchangeRateObservation{
			ID: uuid.New(), FromCurrency: "USD", ToCurrency: "CAD",
			Rate: decimal.RequireFromString(rate), ObservedAt: at,
		}))
	}
	add("1.30", day0.Add(10*time.Hour))
	add("1.31", day0.AddDate(0, 0, 1).Add(10*time.Hour))

	got, err := repo.LatestAtOrBefore(ctx, "USD", "CAD", domain.EndOfDay(day0))
	require.NoError(t, err)
	assert.True(t, got.Rate.Equal(decimal.RequireFromString("1.30")))

	got, err = repo.LatestAtOrBefore(ctx, "USD", "CAD", day0.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.True(t, got.Rate.Equal(decimal.RequireFromString("1.31")))

	_, err = repo.LatestAtOrBefore(ctx, "USD", "CAD", day0)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = repo.LatestAtOrBefore(ctx, "EUR", "CAD", day0.AddDate(0, 0, 5))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestContributionRepository_OrderedByTime(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewContributionRepository(db)
	fund := seedFund(t, db, "CAD")

	later := &domain.ContributionRecord{
		ID: uuid.New(), FundID: fund.ID, Contributor: "bob",
		Amount: decimal.NewFromInt(3000), Type: domain.ContributionTypeContribution, RecordedAt: day0.AddDate(0, 0, 1),
	}
	earlier := &domain.ContributionRecord{
		ID: uuid.New(), FundID: fund.ID, Contributor: "alice",
		Amount: decimal.RequireFromString("1000.50"), Type: domain.ContributionTypeWithdrawal, RecordedAt: day0,
	}
	require.NoError(t, repo.Add(ctx, later))
	require.NoError(t, repo.Add(ctx, earlier))

	records, err := repo.ListByFund(ctx, fund.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, earlier.ID, records[0].ID)
	assert.Equal(t, domain.ContributionTypeWithdrawal, records[0].Type)
	assert.True(t, records[0].Amount.Equal(decimal.RequireFromString("1000.50")))
	assert.True(t, records[0].RecordedAt.Equal(day0))
}
