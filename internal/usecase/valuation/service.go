package valuation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/simaogato/fundlens-backend/internal/domain"
	"github.com/simaogato/fundlens-backend/internal/usecase/currency"
	"github.com/simaogato/fundlens-backend/internal/usecase/positions"
)

// Holding is one open position valued in the fund base currency
type Holding struct {
	Ticker      string
	Currency    string
	MarketValue decimal.Decimal // position currency
	ValueBase   decimal.Decimal
	RateSource  domain.RateSource
	Stored      bool // the value came from the pre-converted columns
}

// FundValuation represents the calculated value of a fund
type FundValuation struct {
	FundID       uuid.UUID
	BaseCurrency string
	Total        decimal.Decimal
	Holdings     []Holding
	Estimated    bool // at least one holding used the default exchange rate
}

// ValuationService values funds from their current holdings
type ValuationService struct {
	FundRepo     domain.FundRepository
	PositionRepo domain.PositionRepository
	Converter    *currency.Converter

	log zerolog.Logger
}

// NewValuationService creates a new ValuationService instance
func NewValuationService(
	fundRepo domain.FundRepository,
	positionRepo domain.PositionRepository,
	converter *currency.Converter,
	log zerolog.Logger,
) *ValuationService {
	return &ValuationService{
		FundRepo:     fundRepo,
		PositionRepo: positionRepo,
		Converter:    converter,
		log:          log.With().Str("service", "valuation").Logger(),
	}
}

// FundValue calculates the current value of a fund
// Logic:
//   - Resolve the current open position of every ticker
//   - Use the stored base-currency value when the row was backfilled
//   - Otherwise convert on the fly with the same rate chain as the backfill
//   - Total: sum of every holding in base currency
func (s *ValuationService) FundValue(ctx context.Context, fundID uuid.UUID) (*FundValuation, error) {
	fund, err := s.FundRepo.GetByID(ctx, fundID)
	if err != nil {
		return nil, err
	}
	if !fund.HasBaseCurrency() {
		return nil, fmt.Errorf("fund %s: %w", fundID, domain.ErrBaseCurrencyUnset)
	}

	snapshots, err := s.PositionRepo.ListByFund(ctx, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions for fund %s: %w", fundID, err)
	}

	return s.value(ctx, fund, snapshots)
}

// MarketMovement returns the base-currency gain or loss of a fund's holdings over
// (from, to]. Each pair of consecutive snapshots of a ticker credits the price
// change on the shares held at the earlier one; changes in share count are trades
// against cash and do not count. Funds without a base currency report zero.
func (s *ValuationService) MarketMovement(ctx context.Context, fundID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	if !to.After(from) {
		return decimal.Zero, nil
	}

	fund, err := s.FundRepo.GetByID(ctx, fundID)
	if err != nil {
		return decimal.Zero, err
	}
	if !fund.HasBaseCurrency() {
		s.log.Debug().Str("fund", fundID.String()).Msg("No base currency, market movement unavailable")
		return decimal.Zero, nil
	}

	snapshots, err := s.PositionRepo.ListByFund(ctx, fundID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load positions for fund %s: %w", fundID, err)
	}

	movement := decimal.Zero
	for _, history := range positions.GroupByTicker(snapshots) {
		var prev *domain.PositionSnapshot
		for _, snap := range positions.Dedupe(history) {
			if snap.ObservedAt.After(to) {
				break
			}
			if snap.Shares.IsNegative() {
				return decimal.Zero, domain.NewInvariantError(snap.FundID, snap.Ticker, snap.Day(), "negative shares "+snap.Shares.String())
			}
			if prev != nil && !prev.IsClosed() && snap.ObservedAt.After(from) {
				step, err := s.repricing(ctx, prev, snap, fund.BaseCurrency)
				if err != nil {
					return decimal.Zero, err
				}
				movement = movement.Add(step)
			}
			prev = snap
		}
	}

	return movement, nil
}

// repricing is the change in value of the shares held at prev between prev and next
func (s *ValuationService) repricing(ctx context.Context, prev, next *domain.PositionSnapshot, base string) (decimal.Decimal, error) {
	before, err := s.unitValue(ctx, prev, base)
	if err != nil {
		return decimal.Zero, err
	}
	after, err := s.unitValue(ctx, next, base)
	if err != nil {
		return decimal.Zero, err
	}
	return prev.Shares.Mul(after.Sub(before)), nil
}

// unitValue is the base-currency value of one share at the snapshot's price and day
func (s *ValuationService) unitValue(ctx context.Context, snap *domain.PositionSnapshot, base string) (decimal.Decimal, error) {
	values := snap.Converted
	if values == nil {
		var err error
		values, err = s.Converter.Convert(ctx, snap, base)
		if err != nil {
			return decimal.Zero, err
		}
	}
	return snap.Price.Mul(values.ExchangeRate), nil
}

func (s *ValuationService) value(ctx context.Context, fund *domain.Fund, snapshots []*domain.PositionSnapshot) (*FundValuation, error) {
	result := &FundValuation{
		FundID:       fund.ID,
		BaseCurrency: fund.BaseCurrency,
		Total:        decimal.Zero,
		Holdings:     make([]Holding, 0),
	}

	for _, history := range positions.GroupByTicker(snapshots) {
		current, err := positions.ResolveLatest(history)
		if err != nil {
			return nil, err
		}
		if current == nil {
			continue
		}

		holding := Holding{
			Ticker:      current.Ticker,
			Currency:    current.Currency,
			MarketValue: current.MarketValue(),
		}

		values := current.Converted
		if values != nil {
			holding.Stored = true
		} else {
			values, err = s.Converter.Convert(ctx, current, fund.BaseCurrency)
			if err != nil {
				return nil, err
			}
		}

		holding.ValueBase = values.TotalValueBase
		holding.RateSource = values.RateSource
		if values.Estimated() {
			result.Estimated = true
		}

		result.Total = result.Total.Add(holding.ValueBase)
		result.Holdings = append(result.Holdings, holding)
	}

	sort.Slice(result.Holdings, func(i, j int) bool {
		return result.Holdings[i].Ticker < result.Holdings[j].Ticker
	})
	return result, nil
}
