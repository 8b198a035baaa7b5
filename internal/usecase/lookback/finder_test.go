package lookback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/fundlens-backend/internal/config"
	"github.com/simaogato/fundlens-backend/internal/domain"
	"github.com/simaogato/fundlens-backend/internal/mocks"
)

var asOf = time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)

// at builds a snapshot observed daysBefore the as-of day
func at(daysBefore int, price string) *domain.PositionSnapshot {
	return &domain.PositionSnapshot{
		ID:         uuid.New(),
		Ticker:     "AAPL",
		Shares:     decimal.NewFromInt(10),
		Price:      decimal.RequireFromString(price),
		Currency:   "USD",
		ObservedAt: asOf.AddDate(0, 0, -daysBefore).Add(16 * time.Hour),
	}
}

func TestSelect_NearestBefore(t *testing.T) {
	w := DailyWindow(config.DefaultEngine())

	tests := []struct {
		name     string
		history  []*domain.PositionSnapshot
		wantNil  bool
		wantDays int
		wantPx   string
	}{
		{
			name:    "no history",
			history: nil,
			wantNil: true,
		},
		{
			name:     "previous day",
			history:  []*domain.PositionSnapshot{at(3, "98"), at(1, "100"), at(0, "105")},
			wantDays: 1,
			wantPx:   "100",
		},
		{
			name:     "skips a long weekend",
			history:  []*domain.PositionSnapshot{at(4, "99"), at(0, "105")},
			wantDays: 4,
			wantPx:   "99",
		},
		{
			name:    "same day only is not a comparison",
			history: []*domain.PositionSnapshot{at(0, "105")},
			wantNil: true,
		},
		{
			name:     "exactly at max gap",
			history:  []*domain.PositionSnapshot{at(14, "90")},
			wantDays: 14,
			wantPx:   "90",
		},
		{
			name:    "fifteen day gap is outside tolerance",
			history: []*domain.PositionSnapshot{at(15, "90"), at(0, "105")},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(tt.history, asOf, 1, w)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantDays, got.PeriodDays)
			assert.True(t, got.Price.Equal(decimal.RequireFromString(tt.wantPx)), "price %s", got.Price)
		})
	}
}

func TestSelect_ClosestToTarget(t *testing.T) {
	w := FiveDayWindow(config.DefaultEngine())

	tests := []struct {
		name     string
		history  []*domain.PositionSnapshot
		wantNil  bool
		wantDays int
	}{
		{
			name:     "exact target",
			history:  []*domain.PositionSnapshot{at(8, "1"), at(5, "2"), at(4, "3"), at(0, "4")},
			wantDays: 5,
		},
		{
			name:     "equidistant candidates prefer the earlier date",
			history:  []*domain.PositionSnapshot{at(8, "1"), at(6, "2"), at(4, "3"), at(0, "4")},
			wantDays: 6,
		},
		{
			name:     "closer later candidate wins",
			history:  []*domain.PositionSnapshot{at(8, "1"), at(4, "3"), at(0, "4")},
			wantDays: 4,
		},
		{
			name:     "stale but inside window",
			history:  []*domain.PositionSnapshot{at(9, "1"), at(0, "4")},
			wantDays: 9,
		},
		{
			name:    "too recent",
			history: []*domain.PositionSnapshot{at(2, "1"), at(1, "2"), at(0, "4")},
			wantNil: true,
		},
		{
			name:    "too old",
			history: []*domain.PositionSnapshot{at(11, "1"), at(0, "4")},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(tt.history, asOf, 5, w)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantDays, got.PeriodDays)
			assert.Equal(t, asOf.AddDate(0, 0, -tt.wantDays), got.Date)
		})
	}
}

func TestSelect_SameDayDuplicatesUseLatestTimestamp(t *testing.T) {
	early := at(1, "99")
	early.ObservedAt = asOf.AddDate(0, 0, -1).Add(9 * time.Hour)
	late := at(1, "101")

	got := Select([]*domain.PositionSnapshot{late, early}, asOf, 1, DailyWindow(config.DefaultEngine()))

	require.NotNil(t, got)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(101)))
}

func TestFinder_Find_SingleRangeQuery(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.PositionRepository)
	finder := NewFinder(repo, zerolog.Nop())

	fundID := uuid.New()
	w := FiveDayWindow(config.DefaultEngine())
	from := asOf.AddDate(0, 0, -10)

	repo.On("ListRange", ctx, fundID, "AAPL", from, asOf).
		Return([]*domain.PositionSnapshot{at(6, "100"), at(4, "102")}, nil).Once()

	got, err := finder.Find(ctx, fundID, "AAPL", asOf.Add(15*time.Hour), 5, w)

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 6, got.PeriodDays)
	repo.AssertExpectations(t)
}

func TestFinder_Find_NoneWithinWindow(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.PositionRepository)
	finder := NewFinder(repo, zerolog.Nop())

	fundID := uuid.New()
	w := DailyWindow(config.DefaultEngine())
	repo.On("ListRange", ctx, fundID, "AAPL", asOf.AddDate(0, 0, -14), asOf).
		Return([]*domain.PositionSnapshot{}, nil)

	got, err := finder.Find(ctx, fundID, "AAPL", asOf, 1, w)

	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestFinder_Find_RepositoryError(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.PositionRepository)
	finder := NewFinder(repo, zerolog.Nop())

	fundID := uuid.New()
	repo.On("ListRange", ctx, fundID, "AAPL", asOf.AddDate(0, 0, -14), asOf).
		Return(nil, errors.New("timeout"))

	got, err := finder.Find(ctx, fundID, "AAPL", asOf, 1, DailyWindow(config.DefaultEngine()))

	assert.Nil(t, got)
	assert.ErrorContains(t, err, "timeout")
}
