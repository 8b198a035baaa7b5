package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FundRepository defines the interface for fund persistence operations
type FundRepository interface {
	// GetByID retrieves a fund by its ID, wrapping ErrNotFound when missing
	GetByID(ctx context.Context, id uuid.UUID) (*Fund, error)

	// List retrieves every fund ordered by name
	List(ctx context.Context) ([]*Fund, error)

	// Create creates a new fund
	Create(ctx context.Context, fund *Fund) error

	// SetBaseCurrency assigns the base currency of a fund
	SetBaseCurrency(ctx context.Context, id uuid.UUID, currency string) error
}

// PositionRepository defines the interface for the append-only position history
// Ordering for every List method is (observation day, observed_at, id) ascending
type PositionRepository interface {
	// Add appends a snapshot
	Add(ctx context.Context, snapshot *PositionSnapshot) error

	// ListHistory retrieves every snapshot for a (fund, ticker)
	ListHistory(ctx context.Context, fundID uuid.UUID, ticker string) ([]*PositionSnapshot, error)

	// ListRange retrieves snapshots whose day is in [from, to) in a single round trip
	ListRange(ctx context.Context, fundID uuid.UUID, ticker string, from, to time.Time) ([]*PositionSnapshot, error)

	// ListByFund retrieves every snapshot of a fund
	ListByFund(ctx context.Context, fundID uuid.UUID) ([]*PositionSnapshot, error)

	// ListUnconverted retrieves up to limit snapshots whose base-currency values are unset
	ListUnconverted(ctx context.Context, fundID uuid.UUID, limit int) ([]*PositionSnapshot, error)

	// SaveConversion writes the base-currency values of one snapshot if they are still unset
	// Returns false when the row was already converted (no-op)
	SaveConversion(ctx context.Context, id uuid.UUID, values *ConvertedValues) (bool, error)
}

// ExchangeRateRepository defines the interface for the append-only rate log
type ExchangeRateRepository interface {
	// Add appends an observation
	Add(ctx context.Context, rate *ExchangeRateObservation) error

	// LatestAtOrBefore retrieves the most recent observation for a pair at or before at
	// Returns an error wrapping ErrNotFound when the pair has no such observation
	LatestAtOrBefore(ctx context.Context, from, to string, at time.Time) (*ExchangeRateObservation, error)
}

// ContributionRepository defines the interface for the contributor ledger
type ContributionRepository interface {
	// Add appends a ledger record
	Add(ctx context.Context, record *ContributionRecord) error

	// ListByFund retrieves the ledger of a fund ordered by (recorded_at, id)
	ListByFund(ctx context.Context, fundID uuid.UUID) ([]*ContributionRecord, error)
}
