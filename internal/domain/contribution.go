package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContributionType represents the direction of a ledger entry
type ContributionType string

const (
	ContributionTypeContribution ContributionType = "CONTRIBUTION"
	ContributionTypeWithdrawal   ContributionType = "WITHDRAWAL"
)

// ContributionRecord is one append-only entry in a fund's contributor ledger
type ContributionRecord struct {
	ID          uuid.UUID
	FundID      uuid.UUID
	Contributor string          // investor identity, independent of dashboard logins
	Amount      decimal.Decimal // ABSOLUTE VALUE (Always Positive), in the fund base currency
	Type        ContributionType
	RecordedAt  time.Time
}

// Validate ensures the record adheres to domain rules
// Returns an error if validation fails
func (c *ContributionRecord) Validate() error {
	if strings.TrimSpace(c.Contributor) == "" {
		return errors.New("contributor cannot be empty")
	}

	if c.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("contribution amount must be positive (absolute value)")
	}

	if c.Type != ContributionTypeContribution && c.Type != ContributionTypeWithdrawal {
		return errors.New("contribution type must be CONTRIBUTION or WITHDRAWAL")
	}

	if c.RecordedAt.IsZero() {
		return errors.New("contribution timestamp cannot be empty")
	}

	return nil
}

// SignedAmount returns the amount as a net-contribution delta
func (c *ContributionRecord) SignedAmount() decimal.Decimal {
	if c.Type == ContributionTypeWithdrawal {
		return c.Amount.Neg()
	}
	return c.Amount
}

// NetContributions sums CONTRIBUTION minus WITHDRAWAL amounts per contributor
func NetContributions(records []*ContributionRecord) map[string]decimal.Decimal {
	net := make(map[string]decimal.Decimal)
	for _, rec := range records {
		net[rec.Contributor] = net[rec.Contributor].Add(rec.SignedAmount())
	}
	return net
}
