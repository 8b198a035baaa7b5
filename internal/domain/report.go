package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FiveDayTargetDays is the nominal span of the weekly lookback window
const FiveDayTargetDays = 5

// PnLReport is the valuation of one open position with its lookback P&L
// NULL lookback fields (Valid=false) mean "insufficient history", never zero
type PnLReport struct {
	FundID       uuid.UUID
	Ticker       string
	Currency     string
	Shares       decimal.Decimal
	CurrentPrice decimal.Decimal
	CurrentDate  time.Time
	CostBasis    decimal.Decimal
	MarketValue  decimal.Decimal

	DailyPnL      decimal.NullDecimal
	DailyPnLPct   decimal.NullDecimal
	DailyPrevDate *time.Time

	FiveDayPnL        decimal.NullDecimal
	FiveDayPnLPct     decimal.NullDecimal
	FiveDayPrevDate   *time.Time
	FiveDayPeriodDays *int // calendar days actually spanned

	TotalUnrealizedPnL decimal.Decimal
	ReturnPct          decimal.Decimal // 0 when cost basis is zero
}

// FiveDayApproximate reports a five-day figure computed over a span other than five days
func (r *PnLReport) FiveDayApproximate() bool {
	return r.FiveDayPeriodDays != nil && *r.FiveDayPeriodDays != FiveDayTargetDays
}

// Stake is one contributor's current share of a fund
type Stake struct {
	Contributor     string
	Units           decimal.Decimal
	PctOfFund       decimal.Decimal // 0-100
	NetContribution decimal.Decimal
	Value           decimal.Decimal // share of the current fund value, base currency
}
