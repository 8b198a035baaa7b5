package currency

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simaogato/fundlens-backend/internal/domain"
)

var one = decimal.NewFromInt(1)

// RateSource resolves the rate effective for a pair on a day
type RateSource interface {
	Resolve(ctx context.Context, from, to string, day time.Time) (Rate, error)
}

// Converter converts position values into a fund base currency
type Converter struct {
	Rates RateSource
}

// NewConverter creates a new Converter instance
func NewConverter(rates RateSource) *Converter {
	return &Converter{Rates: rates}
}

// Convert returns the base-currency values of a snapshot
// Same currency is an identity conversion and performs no rate lookup
func (c *Converter) Convert(ctx context.Context, position *domain.PositionSnapshot, baseCurrency string) (*domain.ConvertedValues, error) {
	if position.Currency == baseCurrency {
		return &domain.ConvertedValues{
			TotalValueBase: position.MarketValue(),
			CostBasisBase:  position.CostBasis,
			PnLBase:        position.UnrealizedPnL(),
			ExchangeRate:   one,
			RateSource:     domain.RateSourceIdentity,
		}, nil
	}

	rate, err := c.Rates.Resolve(ctx, position.Currency, baseCurrency, position.Day())
	if err != nil {
		return nil, err
	}

	return Apply(position, rate), nil
}

// Apply converts a snapshot with an already-resolved rate
func Apply(position *domain.PositionSnapshot, rate Rate) *domain.ConvertedValues {
	total := position.MarketValue().Mul(rate.Value)
	cost := position.CostBasis.Mul(rate.Value)

	return &domain.ConvertedValues{
		TotalValueBase: total,
		CostBasisBase:  cost,
		PnLBase:        total.Sub(cost),
		ExchangeRate:   rate.Value,
		RateSource:     rate.Source,
		RateObservedAt: rate.ObservedAt,
	}
}

// memoRates caches resolved rates by pair and day for the lifetime of one backfill run
type memoRates struct {
	next  RateSource
	cache map[string]Rate
}

func newMemoRates(next RateSource) *memoRates {
	return &memoRates{next: next, cache: make(map[string]Rate)}
}

func (m *memoRates) Resolve(ctx context.Context, from, to string, day time.Time) (Rate, error) {
	key := domain.PairKey(from, to) + "@" + domain.DayOf(day).Format(domain.DateLayout)
	if rate, ok := m.cache[key]; ok {
		return rate, nil
	}

	rate, err := m.next.Resolve(ctx, from, to, day)
	if err != nil {
		return Rate{}, err
	}
	m.cache[key] = rate
	return rate, nil
}
