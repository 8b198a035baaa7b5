// Package app wires repositories and services from configuration.
// Both the server and the CLI build their object graph here.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/simaogato/fundlens-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/fundlens-backend/internal/adapter/repository/sqlite"
	"github.com/simaogato/fundlens-backend/internal/config"
	"github.com/simaogato/fundlens-backend/internal/domain"
	"github.com/simaogato/fundlens-backend/internal/usecase/currency"
	"github.com/simaogato/fundlens-backend/internal/usecase/ledger"
	"github.com/simaogato/fundlens-backend/internal/usecase/ownership"
	"github.com/simaogato/fundlens-backend/internal/usecase/pnl"
	"github.com/simaogato/fundlens-backend/internal/usecase/seeder"
	"github.com/simaogato/fundlens-backend/internal/usecase/valuation"
)

// Repositories groups the storage ports of one database
type Repositories struct {
	Funds         domain.FundRepository
	Positions     domain.PositionRepository
	Rates         domain.ExchangeRateRepository
	Contributions domain.ContributionRepository

	closer io.Closer
}

// Close releases the underlying database handle
func (r *Repositories) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// OpenRepositories connects to the configured driver and applies the schema
func OpenRepositories(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Repositories, error) {
	if cfg.StartDelay > 0 {
		log.Info().Int("seconds", cfg.StartDelay).Msg("Waiting for database")
		select {
		case <-time.After(time.Duration(cfg.StartDelay) * time.Second):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	switch cfg.DBDriver {
	case "postgres":
		db, err := postgres.NewDB(cfg.DBConnStr)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &Repositories{
			Funds:         postgres.NewFundRepository(db),
			Positions:     postgres.NewPositionRepository(db),
			Rates:         postgres.NewExchangeRateRepository(db),
			Contributions: postgres.NewContributionRepository(db),
			closer:        db,
		}, nil

	case "sqlite":
		db, err := sqlite.NewDB(cfg.DBConnStr)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &Repositories{
			Funds:         sqlite.NewFundRepository(db),
			Positions:     sqlite.NewPositionRepository(db),
			Rates:         sqlite.NewExchangeRateRepository(db),
			Contributions: sqlite.NewContributionRepository(db),
			closer:        db,
		}, nil
	}

	return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
}

// Services is the use-case layer built on one set of repositories
type Services struct {
	Rates     *currency.RateResolver
	Backfill  *currency.BackfillService
	PnL       *pnl.PnLService
	Valuation *valuation.ValuationService
	Ownership *ownership.Engine
	Ledger    *ledger.LedgerService
	Seeder    *seeder.BaseCurrencySeeder
}

// NewServices builds every service; the ledger invalidates the ownership memo on write
func NewServices(repos *Repositories, engine config.Engine, log zerolog.Logger) *Services {
	rates := currency.NewRateResolver(repos.Rates, engine, log)
	valuationService := valuation.NewValuationService(repos.Funds, repos.Positions, currency.NewConverter(rates), log)
	ownershipEngine := ownership.NewEngine(repos.Contributions, valuationService, engine, log)

	return &Services{
		Rates:     rates,
		Backfill:  currency.NewBackfillService(repos.Funds, repos.Positions, rates, engine, log),
		PnL:       pnl.NewPnLService(repos.Positions, engine, log),
		Valuation: valuationService,
		Ownership: ownershipEngine,
		Ledger:    ledger.NewLedgerService(repos.Funds, repos.Contributions, ownershipEngine, log),
		Seeder:    seeder.NewBaseCurrencySeeder(repos.Funds, engine.DefaultBaseCurrency, log),
	}
}
