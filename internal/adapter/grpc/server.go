package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/simaogato/fundlens-backend/internal/adapter/view"
	"github.com/simaogato/fundlens-backend/internal/domain"
	"github.com/simaogato/fundlens-backend/internal/usecase/currency"
	"github.com/simaogato/fundlens-backend/internal/usecase/ledger"
	"github.com/simaogato/fundlens-backend/internal/usecase/ownership"
	"github.com/simaogato/fundlens-backend/internal/usecase/pnl"
	"github.com/simaogato/fundlens-backend/internal/usecase/valuation"
)

var _ ValuationServiceServer = (*Server)(nil)

// Server implements the ValuationService gRPC server
type Server struct {
	PnLService       *pnl.PnLService
	ValuationService *valuation.ValuationService
	OwnershipEngine  *ownership.Engine
	LedgerService    *ledger.LedgerService
	BackfillService  *currency.BackfillService
}

// NewServer creates a new gRPC server instance
func NewServer(
	pnlService *pnl.PnLService,
	valuationService *valuation.ValuationService,
	ownershipEngine *ownership.Engine,
	ledgerService *ledger.LedgerService,
	backfillService *currency.BackfillService,
) *Server {
	return &Server{
		PnLService:       pnlService,
		ValuationService: valuationService,
		OwnershipEngine:  ownershipEngine,
		LedgerService:    ledgerService,
		BackfillService:  backfillService,
	}
}

// GetPnL handles the GetPnL RPC
func (s *Server) GetPnL(ctx context.Context, req *GetPnLRequest) (*GetPnLResponse, error) {
	fundID, err := parseFundID(req.FundId)
	if err != nil {
		return nil, err
	}

	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" {
		return nil, status.Error(codes.InvalidArgument, "ticker is required")
	}

	report, err := s.PnLService.Compute(ctx, fundID, ticker)
	if err != nil {
		return nil, mapError(err)
	}

	return &GetPnLResponse{Report: view.NewPnLReport(report)}, nil
}

// ListPnL handles the ListPnL RPC
func (s *Server) ListPnL(ctx context.Context, req *ListPnLRequest) (*ListPnLResponse, error) {
	fundID, err := parseFundID(req.FundId)
	if err != nil {
		return nil, err
	}

	reports, err := s.PnLService.ComputeFund(ctx, fundID)
	if err != nil {
		return nil, mapError(err)
	}

	return &ListPnLResponse{Reports: view.NewPnLReports(reports)}, nil
}

// GetFundValue handles the GetFundValue RPC
func (s *Server) GetFundValue(ctx context.Context, req *GetFundValueRequest) (*GetFundValueResponse, error) {
	fundID, err := parseFundID(req.FundId)
	if err != nil {
		return nil, err
	}

	value, err := s.ValuationService.FundValue(ctx, fundID)
	if err != nil {
		return nil, mapError(err)
	}

	return &GetFundValueResponse{Value: view.NewFundValue(value)}, nil
}

// GetOwnership handles the GetOwnership RPC
func (s *Server) GetOwnership(ctx context.Context, req *GetOwnershipRequest) (*GetOwnershipResponse, error) {
	fundID, err := parseFundID(req.FundId)
	if err != nil {
		return nil, err
	}

	stakes, err := s.OwnershipEngine.Ownership(ctx, fundID)
	if err != nil {
		return nil, mapError(err)
	}

	return &GetOwnershipResponse{Stakes: view.NewStakes(stakes)}, nil
}

// RecordContribution handles the RecordContribution RPC
func (s *Server) RecordContribution(ctx context.Context, req *RecordContributionRequest) (*RecordContributionResponse, error) {
	fundID, err := parseFundID(req.FundId)
	if err != nil {
		return nil, err
	}

	// Parse amount from string to decimal
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid amount format: %v", err)
	}

	input := ledger.RecordInput{
		FundID:      fundID,
		Contributor: req.Contributor,
		Amount:      amount,
	}
	if req.RecordedAt != nil {
		if err := req.RecordedAt.CheckValid(); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid recorded_at: %v", err)
		}
		input.RecordedAt = req.RecordedAt.AsTime()
	}

	typ := domain.ContributionType(strings.ToUpper(strings.TrimSpace(req.Type)))
	if typ == "" {
		typ = domain.ContributionTypeContribution
	}

	record, err := s.LedgerService.Record(ctx, input, typ)
	if err != nil {
		return nil, mapError(err)
	}

	return &RecordContributionResponse{
		ContributionId: record.ID.String(),
		RecordedAt:     timestamppb.New(record.RecordedAt),
	}, nil
}

// Backfill handles the Backfill RPC
func (s *Server) Backfill(ctx context.Context, req *BackfillRequest) (*BackfillResponse, error) {
	fundIDs := make([]uuid.UUID, 0, len(req.FundIds))
	for _, raw := range req.FundIds {
		fundID, err := parseFundID(raw)
		if err != nil {
			return nil, err
		}
		fundIDs = append(fundIDs, fundID)
	}

	if len(fundIDs) == 0 {
		funds, err := s.BackfillService.FundRepo.List(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		for _, fund := range funds {
			fundIDs = append(fundIDs, fund.ID)
		}
	}

	results, err := s.BackfillService.BackfillAll(ctx, fundIDs)
	if err != nil {
		return nil, mapError(err)
	}

	updated := make(map[string]int64, len(results))
	for fundID, n := range results {
		updated[fundID.String()] = int64(n)
	}
	return &BackfillResponse{Updated: updated}, nil
}

func parseFundID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid fund_id format: %v", err)
	}
	return id, nil
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrBaseCurrencyUnset):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrInvariantViolation):
		return status.Error(codes.DataLoss, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	errorMsg := err.Error()

	// Map common validation errors to InvalidArgument
	if strings.Contains(errorMsg, "must be") ||
		strings.Contains(errorMsg, "cannot be") ||
		strings.Contains(errorMsg, "invalid") {
		return status.Error(codes.InvalidArgument, errorMsg)
	}

	// Default to Internal error for unknown errors
	return status.Error(codes.Internal, errorMsg)
}
