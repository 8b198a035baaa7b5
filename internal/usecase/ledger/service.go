package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/simaogato/fundlens-backend/internal/domain"
)

// RecordInput represents the input for appending a ledger entry
type RecordInput struct {
	FundID      uuid.UUID
	Contributor string
	Amount      decimal.Decimal
	RecordedAt  time.Time // optional, defaults to now
}

// Invalidator drops derived state that depends on a fund ledger
type Invalidator interface {
	Invalidate(fundID uuid.UUID)
}

// LedgerService handles contribution and withdrawal recording
type LedgerService struct {
	FundRepo         domain.FundRepository
	ContributionRepo domain.ContributionRepository
	Invalidator      Invalidator

	now func() time.Time
	log zerolog.Logger
}

// NewLedgerService creates a new LedgerService instance
func NewLedgerService(
	fundRepo domain.FundRepository,
	contributionRepo domain.ContributionRepository,
	invalidator Invalidator,
	log zerolog.Logger,
) *LedgerService {
	return &LedgerService{
		FundRepo:         fundRepo,
		ContributionRepo: contributionRepo,
		Invalidator:      invalidator,
		now:              time.Now,
		log:              log.With().Str("service", "ledger").Logger(),
	}
}

// RecordContribution appends a CONTRIBUTION entry
func (s *LedgerService) RecordContribution(ctx context.Context, input RecordInput) (*domain.ContributionRecord, error) {
	return s.record(ctx, input, domain.ContributionTypeContribution)
}

// RecordWithdrawal appends a WITHDRAWAL entry
// The amount is not capped at the contributor's net contribution; overdrawing
// simply moves the contributor out of the ownership report
func (s *LedgerService) RecordWithdrawal(ctx context.Context, input RecordInput) (*domain.ContributionRecord, error) {
	return s.record(ctx, input, domain.ContributionTypeWithdrawal)
}

// Record appends an entry of the given type
func (s *LedgerService) Record(ctx context.Context, input RecordInput, typ domain.ContributionType) (*domain.ContributionRecord, error) {
	switch typ {
	case domain.ContributionTypeContribution, domain.ContributionTypeWithdrawal:
		return s.record(ctx, input, typ)
	}
	return nil, errors.New("contribution type must be CONTRIBUTION or WITHDRAWAL")
}

// record validates and appends one entry
// Logic:
//  1. Verify the fund exists
//  2. Build and validate the record (amount is stored as an absolute value)
//  3. Append it and drop the memoized ownership projection of the fund
func (s *LedgerService) record(ctx context.Context, input RecordInput, typ domain.ContributionType) (*domain.ContributionRecord, error) {
	if _, err := s.FundRepo.GetByID(ctx, input.FundID); err != nil {
		return nil, err
	}

	recordedAt := input.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = s.now()
	}

	record := &domain.ContributionRecord{
		ID:          uuid.New(),
		FundID:      input.FundID,
		Contributor: strings.TrimSpace(input.Contributor),
		Amount:      input.Amount,
		Type:        typ,
		RecordedAt:  recordedAt.UTC(),
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	if err := s.ContributionRepo.Add(ctx, record); err != nil {
		return nil, err
	}

	if s.Invalidator != nil {
		s.Invalidator.Invalidate(input.FundID)
	}

	s.log.Info().
		Str("fund", input.FundID.String()).
		Str("contributor", record.Contributor).
		Str("type", string(typ)).
		Str("amount", record.Amount.String()).
		Msg("Ledger entry recorded")

	return record, nil
}
