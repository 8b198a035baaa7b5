package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/fundlens-backend/internal/domain"
)

// contributionRepository implements domain.ContributionRepository
type contributionRepository struct {
	db *DB
}

// NewContributionRepository creates a new contribution repository
func NewContributionRepository(db *DB) domain.ContributionRepository {
	return &contributionRepository{db: db}
}

// Add appends a ledger record
func (r *contributionRepository) Add(ctx context.Context, record *domain.ContributionRecord) error {
	query := `
		INSERT INTO contributions (id, fund_id, contributor, amount, type, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.FundID,
		record.Contributor,
		record.Amount.String(),
		string(record.Type),
		record.RecordedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert contribution: %w", err)
	}

	return nil
}

// ListByFund retrieves the ledger of a fund in the order it must be folded
func (r *contributionRepository) ListByFund(ctx context.Context, fundID uuid.UUID) ([]*domain.ContributionRecord, error) {
	query := `
		SELECT id, fund_id, contributor, amount, type, recorded_at
		FROM contributions
		WHERE fund_id = $1
		ORDER BY recorded_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contributions: %w", err)
	}
	defer rows.Close()

	records := make([]*domain.ContributionRecord, 0)
	for rows.Next() {
		var rec domain.ContributionRecord
		var amountStr string

		if err := rows.Scan(&rec.ID, &rec.FundID, &rec.Contributor, &amountStr, &rec.Type, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		rec.RecordedAt = rec.RecordedAt.UTC()

		// Parse amount (NUMERIC)
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount: %w", err)
		}
		rec.Amount = amount

		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contributions: %w", err)
	}

	return records, nil
}
