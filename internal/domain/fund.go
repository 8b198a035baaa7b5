package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Fund represents an investment fund in the domain layer
// Every position value and ownership figure is expressed in the fund's BaseCurrency
type Fund struct {
	ID           uuid.UUID
	Name         string
	BaseCurrency string // ISO 4217 code, empty until assigned
}

// Validate ensures the fund adheres to domain rules
// Returns an error if validation fails
func (f *Fund) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return errors.New("fund name cannot be empty")
	}

	if f.BaseCurrency != "" && len(f.BaseCurrency) != 3 {
		return errors.New("fund base currency must be a 3-letter code")
	}

	return nil
}

// HasBaseCurrency reports whether pre-conversion can run for this fund
func (f *Fund) HasBaseCurrency() bool {
	return f.BaseCurrency != ""
}
