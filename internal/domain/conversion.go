package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateSource records which tier of the rate fallback chain produced a conversion
type RateSource string

const (
	RateSourceIdentity RateSource = "IDENTITY" // position currency == base currency
	RateSourceExact    RateSource = "EXACT"    // observation on the position day
	RateSourcePrior    RateSource = "PRIOR"    // latest observation before the position day
	RateSourceDefault  RateSource = "DEFAULT"  // no observation at all, configured default used
)

// ConvertedValues are the base-currency annotations written onto a PositionSnapshot
type ConvertedValues struct {
	TotalValueBase decimal.Decimal
	CostBasisBase  decimal.Decimal
	PnLBase        decimal.Decimal
	ExchangeRate   decimal.Decimal
	RateSource     RateSource
	RateObservedAt *time.Time // nil for IDENTITY and DEFAULT
}

// Estimated reports a low-confidence conversion that used the default rate
func (c *ConvertedValues) Estimated() bool {
	return c.RateSource == RateSourceDefault
}

// Valid reports whether s is a known rate source
func (s RateSource) Valid() bool {
	switch s {
	case RateSourceIdentity, RateSourceExact, RateSourcePrior, RateSourceDefault:
		return true
	}
	return false
}
