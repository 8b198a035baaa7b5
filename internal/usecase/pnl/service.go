package pnl

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/simaogato/fundlens-backend/internal/config"
	"github.com/simaogato/fundlens-backend/internal/domain"
	"github.com/simaogato/fundlens-backend/internal/usecase/lookback"
	"github.com/simaogato/fundlens-backend/internal/usecase/positions"
)

var hundred = decimal.NewFromInt(100)

// PnLService computes per-position valuation and lookback P&L
type PnLService struct {
	PositionRepo domain.PositionRepository
	Resolver     *positions.Resolver
	Finder       *lookback.Finder

	daily   lookback.Window
	fiveDay lookback.Window
	target  int
	log     zerolog.Logger
}

// NewPnLService creates a new PnLService instance
func NewPnLService(positionRepo domain.PositionRepository, cfg config.Engine, log zerolog.Logger) *PnLService {
	return &PnLService{
		PositionRepo: positionRepo,
		Resolver:     positions.NewResolver(positionRepo, log),
		Finder:       lookback.NewFinder(positionRepo, log),
		daily:        lookback.DailyWindow(cfg),
		fiveDay:      lookback.FiveDayWindow(cfg),
		target:       cfg.FiveDayTargetDays,
		log:          log.With().Str("service", "pnl").Logger(),
	}
}

// Compute returns the P&L report of one open position
// Missing history degrades to NULL lookback fields; an unknown or closed ticker is ErrNotFound
func (s *PnLService) Compute(ctx context.Context, fundID uuid.UUID, ticker string) (*domain.PnLReport, error) {
	current, err := s.Resolver.Latest(ctx, fundID, ticker)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("no open position for %s in fund %s: %w", ticker, fundID, domain.ErrNotFound)
	}

	daily, err := s.Finder.Find(ctx, fundID, ticker, current.Day(), 1, s.daily)
	if err != nil {
		return nil, err
	}
	fiveDay, err := s.Finder.Find(ctx, fundID, ticker, current.Day(), s.target, s.fiveDay)
	if err != nil {
		return nil, err
	}

	return BuildReport(current, daily, fiveDay), nil
}

// ComputeFund returns the P&L report of every open position of a fund, sorted by ticker
// The fund history is loaded once and the lookbacks run in memory
func (s *PnLService) ComputeFund(ctx context.Context, fundID uuid.UUID) ([]*domain.PnLReport, error) {
	snapshots, err := s.PositionRepo.ListByFund(ctx, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions for fund %s: %w", fundID, err)
	}

	reports := make([]*domain.PnLReport, 0)
	for ticker, history := range positions.GroupByTicker(snapshots) {
		current, err := positions.ResolveLatest(history)
		if err != nil {
			s.log.Error().Err(err).Str("fund", fundID.String()).Str("ticker", ticker).Msg("Corrupt position history")
			return nil, err
		}
		if current == nil {
			continue
		}

		daily := lookback.Select(history, current.Day(), 1, s.daily)
		fiveDay := lookback.Select(history, current.Day(), s.target, s.fiveDay)
		reports = append(reports, BuildReport(current, daily, fiveDay))
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Ticker < reports[j].Ticker
	})
	return reports, nil
}

// BuildReport applies the P&L formulas to the current snapshot and its comparison prices
// Logic:
//   - lookback P&L = (current price - comparison price) * shares, NULL without a comparison
//   - lookback % = (current - comparison) / comparison * 100, NULL when comparison price is 0
//   - total unrealized = shares * price - cost basis
//   - return % = unrealized / cost basis * 100, 0 when cost basis is 0
func BuildReport(current *domain.PositionSnapshot, daily, fiveDay *lookback.Match) *domain.PnLReport {
	unrealized := current.UnrealizedPnL()

	report := &domain.PnLReport{
		FundID:             current.FundID,
		Ticker:             current.Ticker,
		Currency:           current.Currency,
		Shares:             current.Shares,
		CurrentPrice:       current.Price,
		CurrentDate:        current.Day(),
		CostBasis:          current.CostBasis,
		MarketValue:        current.MarketValue(),
		TotalUnrealizedPnL: unrealized,
		ReturnPct:          decimal.Zero,
	}

	if current.CostBasis.IsPositive() {
		report.ReturnPct = unrealized.Div(current.CostBasis).Mul(hundred)
	}

	if daily != nil {
		report.DailyPnL, report.DailyPnLPct = change(current, daily.Price)
		report.DailyPrevDate = dayPtr(daily.Date)
	}

	if fiveDay != nil {
		report.FiveDayPnL, report.FiveDayPnLPct = change(current, fiveDay.Price)
		report.FiveDayPrevDate = dayPtr(fiveDay.Date)
		days := fiveDay.PeriodDays
		report.FiveDayPeriodDays = &days
	}

	return report
}

func change(current *domain.PositionSnapshot, prevPrice decimal.Decimal) (decimal.NullDecimal, decimal.NullDecimal) {
	diff := current.Price.Sub(prevPrice)
	amount := decimal.NewNullDecimal(diff.Mul(current.Shares))

	if prevPrice.IsZero() {
		return amount, decimal.NullDecimal{}
	}
	return amount, decimal.NewNullDecimal(diff.Div(prevPrice).Mul(hundred))
}

func dayPtr(t time.Time) *time.Time {
	return &t
}
