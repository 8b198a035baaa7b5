// Package mocks holds testify mocks of the domain repositories shared by usecase tests.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/simaogato/fundlens-backend/internal/domain"
)

// FundRepository is a mock implementation of domain.FundRepository
type FundRepository struct {
	mock.Mock
}

func (m *FundRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Fund, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Fund), args.Error(1)
}

func (m *FundRepository) List(ctx context.Context) ([]*domain.Fund, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Fund), args.Error(1)
}

func (m *FundRepository) Create(ctx context.Context, fund *domain.Fund) error {
	args := m.Called(ctx, fund)
	return args.Error(0)
}

func (m *FundRepository) SetBaseCurrency(ctx context.Context, id uuid.UUID, currency string) error {
	args := m.Called(ctx, id, currency)
	return args.Error(0)
}

// PositionRepository is a mock implementation of domain.PositionRepository
type PositionRepository struct {
	mock.Mock
}

func (m *PositionRepository) Add(ctx context.Context, snapshot *domain.PositionSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *PositionRepository) ListHistory(ctx context.Context, fundID uuid.UUID, ticker string) ([]*domain.PositionSnapshot, error) {
	args := m.Called(ctx, fundID, ticker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PositionSnapshot), args.Error(1)
}

func (m *PositionRepository) ListRange(ctx context.Context, fundID uuid.UUID, ticker string, from, to time.Time) ([]*domain.PositionSnapshot, error) {
	args := m.Called(ctx, fundID, ticker, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PositionSnapshot), args.Error(1)
}

func (m *PositionRepository) ListByFund(ctx context.Context, fundID uuid.UUID) ([]*domain.PositionSnapshot, error) {
	args := m.Called(ctx, fundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PositionSnapshot), args.Error(1)
}

func (m *PositionRepository) ListUnconverted(ctx context.Context, fundID uuid.UUID, limit int) ([]*domain.PositionSnapshot, error) {
	args := m.Called(ctx, fundID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PositionSnapshot), args.Error(1)
}

func (m *PositionRepository) SaveConversion(ctx context.Context, id uuid.UUID, values *domain.ConvertedValues) (bool, error) {
	args := m.Called(ctx, id, values)
	return args.Bool(0), args.Error(1)
}

// ExchangeRateRepository is a mock implementation of domain.ExchangeRateRepository
type ExchangeRateRepository struct {
	mock.Mock
}

func (m *ExchangeRateRepository) Add(ctx context.Context, rate *domain.ExchangeRateObservation) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

func (m *ExchangeRateRepository) LatestAtOrBefore(ctx context.Context, from, to string, at time.Time) (*domain.ExchangeRateObservation, error) {
	args := m.Called(ctx, from, to, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeRateObservation), args.Error(1)
}

// ContributionRepository is a mock implementation of domain.ContributionRepository
type ContributionRepository struct {
	mock.Mock
}

func (m *ContributionRepository) Add(ctx context.Context, record *domain.ContributionRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *ContributionRepository) ListByFund(ctx context.Context, fundID uuid.UUID) ([]*domain.ContributionRecord, error) {
	args := m.Called(ctx, fundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ContributionRecord), args.Error(1)
}
