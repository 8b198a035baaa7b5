package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PositionSnapshot is one observation of a holding for a (fund, ticker, day)
// Snapshots are append-only; only the Converted annotation is ever filled in later
type PositionSnapshot struct {
	ID         uuid.UUID
	FundID     uuid.UUID
	Ticker     string
	Shares     decimal.Decimal // >= 0, zero means the position is closed
	Price      decimal.Decimal // per-share market price as of ObservedAt
	CostBasis  decimal.Decimal // total cost of the held shares
	Currency   string          // currency of Price and CostBasis
	ObservedAt time.Time
	Converted  *ConvertedValues // nil until backfilled
}

// Validate ensures the snapshot adheres to domain rules
// Numeric violations are reported as InvariantError so callers can locate the row
func (p *PositionSnapshot) Validate() error {
	if p.Ticker == "" {
		return errors.New("position ticker cannot be empty")
	}
	if p.Currency == "" {
		return errors.New("position currency cannot be empty")
	}
	if p.ObservedAt.IsZero() {
		return errors.New("position observation timestamp cannot be empty")
	}

	if p.Shares.IsNegative() {
		return NewInvariantError(p.FundID, p.Ticker, p.Day(), "negative shares "+p.Shares.String())
	}
	if p.Price.IsNegative() {
		return NewInvariantError(p.FundID, p.Ticker, p.Day(), "negative price "+p.Price.String())
	}
	if p.CostBasis.IsNegative() {
		return NewInvariantError(p.FundID, p.Ticker, p.Day(), "negative cost basis "+p.CostBasis.String())
	}

	return nil
}

// Day returns the calendar day of the observation
func (p *PositionSnapshot) Day() time.Time {
	return DayOf(p.ObservedAt)
}

// IsClosed reports whether the snapshot represents a fully closed position
func (p *PositionSnapshot) IsClosed() bool {
	return p.Shares.IsZero()
}

// MarketValue is shares * price in the position currency
func (p *PositionSnapshot) MarketValue() decimal.Decimal {
	return p.Shares.Mul(p.Price)
}

// UnrealizedPnL is market value minus cost basis in the position currency
func (p *PositionSnapshot) UnrealizedPnL() decimal.Decimal {
	return p.MarketValue().Sub(p.CostBasis)
}

// IsConverted reports whether the base-currency annotation has been written
func (p *PositionSnapshot) IsConverted() bool {
	return p.Converted != nil
}
