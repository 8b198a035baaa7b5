package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned by repositories when a lookup matches no row
	ErrNotFound = errors.New("not found")

	// ErrBaseCurrencyUnset is returned when pre-conversion runs for a fund without a base currency
	ErrBaseCurrencyUnset = errors.New("fund base currency is not set")

	// ErrInvariantViolation marks upstream data corruption that must not be silently repaired
	ErrInvariantViolation = errors.New("invariant violation")
)

// InvariantError carries enough context to locate the corrupt row
type InvariantError struct {
	FundID uuid.UUID
	Ticker string
	Date   time.Time
	Reason string
}

func (e *InvariantError) Error() string {
	msg := "invariant violation: " + e.Reason
	if e.FundID != uuid.Nil {
		msg += fmt.Sprintf(" (fund=%s", e.FundID)
		if e.Ticker != "" {
			msg += " ticker=" + e.Ticker
		}
		if !e.Date.IsZero() {
			msg += " date=" + e.Date.Format(DateLayout)
		}
		msg += ")"
	}
	return msg
}

// Is lets errors.Is(err, ErrInvariantViolation) match any InvariantError
func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariantViolation
}

// NewInvariantError builds an InvariantError for a fund/ticker/day
func NewInvariantError(fundID uuid.UUID, ticker string, date time.Time, reason string) *InvariantError {
	return &InvariantError{
		FundID: fundID,
		Ticker: ticker,
		Date:   date,
		Reason: reason,
	}
}
