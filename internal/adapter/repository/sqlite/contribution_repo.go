package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/fundlens-backend/internal/domain"
)

type contributionRepository struct {
	db *DB
}

// NewContributionRepository creates a new contribution repository
func NewContributionRepository(db *DB) domain.ContributionRepository {
	return &contributionRepository{db: db}
}

func (r *contributionRepository) Add(ctx context.Context, record *domain.ContributionRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contributions (id, fund_id, contributor, amount, type, recorded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID, record.FundID, record.Contributor, record.Amount.String(), string(record.Type), toNanos(record.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert contribution: %w", err)
	}
	return nil
}

func (r *contributionRepository) ListByFund(ctx context.Context, fundID uuid.UUID) ([]*domain.ContributionRecord, error) {
	query := `
		SELECT id, fund_id, contributor, amount, type, recorded_at
		FROM contributions
		WHERE fund_id = ?
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
		var recordedAt int64

		if err := rows.Scan(&rec.ID, &rec.FundID, &rec.Contributor, &amountStr, &rec.Type, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		rec.RecordedAt = fromNanos(recordedAt)

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
