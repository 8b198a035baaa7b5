package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/simaogato/fundlens-backend/internal/adapter/view"
	"github.com/simaogato/fundlens-backend/internal/domain"
	"github.com/simaogato/fundlens-backend/internal/usecase/currency"
	"github.com/simaogato/fundlens-backend/internal/usecase/ledger"
	"github.com/simaogato/fundlens-backend/internal/usecase/ownership"
	"github.com/simaogato/fundlens-backend/internal/usecase/pnl"
	"github.com/simaogato/fundlens-backend/internal/usecase/valuation"
)

// Handler handles fund HTTP requests
type Handler struct {
	pnlService       *pnl.PnLService
	valuationService *valuation.ValuationService
	ownershipEngine  *ownership.Engine
	ledgerService    *ledger.LedgerService
	backfillService  *currency.BackfillService
	log              zerolog.Logger
}

// NewHandler creates a new fund handler
func NewHandler(
	pnlService *pnl.PnLService,
	valuationService *valuation.ValuationService,
	ownershipEngine *ownership.Engine,
	ledgerService *ledger.LedgerService,
	backfillService *currency.BackfillService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		pnlService:       pnlService,
		valuationService: valuationService,
		ownershipEngine:  ownershipEngine,
		ledgerService:    ledgerService,
		backfillService:  backfillService,
		log:              log.With().Str("handler", "funds").Logger(),
	}
}

// RegisterRoutes registers all fund routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/funds/{fundID}", func(r chi.Router) {
		r.Get("/pnl", h.HandleListPnL)            // Every open position
		r.Get("/pnl/{ticker}", h.HandleGetPnL)    // One position
		r.Get("/value", h.HandleGetValue)         // Current value in base currency
		r.Get("/ownership", h.HandleGetOwnership) // Contributor stakes
		r.Post("/contributions", h.HandleRecord)  // Append a ledger entry
		r.Post("/backfill", h.HandleBackfill)     // Convert stored snapshots
	})
}

// recordRequest is the body of POST /contributions
type recordRequest struct {
	Contributor string     `json:"contributor"`
	Amount      string     `json:"amount"`
	Type        string     `json:"type"`
	RecordedAt  *time.Time `json:"recorded_at"`
}

type recordResponse struct {
	ContributionID string    `json:"contribution_id"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// HandleListPnL returns the P&L of every open position of a fund
func (h *Handler) HandleListPnL(w http.ResponseWriter, r *http.Request) {
	fundID, ok := h.fundID(w, r)
	if !ok {
		return
	}

	reports, err := h.pnlService.ComputeFund(r.Context(), fundID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, view.NewPnLReports(reports))
}

// HandleGetPnL returns the P&L of one position
func (h *Handler) HandleGetPnL(w http.ResponseWriter, r *http.Request) {
	fundID, ok := h.fundID(w, r)
	if !ok {
		return
	}

	ticker := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "ticker")))
	report, err := h.pnlService.Compute(r.Context(), fundID, ticker)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, view.NewPnLReport(report))
}

// HandleGetValue returns the current fund value
func (h *Handler) HandleGetValue(w http.ResponseWriter, r *http.Request) {
	fundID, ok := h.fundID(w, r)
	if !ok {
		return
	}

	value, err := h.valuationService.FundValue(r.Context(), fundID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, view.NewFundValue(value))
}

// HandleGetOwnership returns every contributor stake
func (h *Handler) HandleGetOwnership(w http.ResponseWriter, r *http.Request) {
	fundID, ok := h.fundID(w, r)
	if !ok {
		return
	}

	stakes, err := h.ownershipEngine.Ownership(r.Context(), fundID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, view.NewStakes(stakes))
}

// HandleRecord appends a contribution or withdrawal
func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	fundID, ok := h.fundID(w, r)
	if !ok {
		return
	}

	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid amount format")
		return
	}

	input := ledger.RecordInput{
		FundID:      fundID,
		Contributor: req.Contributor,
		Amount:      amount,
	}
	if req.RecordedAt != nil {
		input.RecordedAt = *req.RecordedAt
	}

	typ := domain.ContributionType(strings.ToUpper(strings.TrimSpace(req.Type)))
	if typ == "" {
		typ = domain.ContributionTypeContribution
	}

	record, err := h.ledgerService.Record(r.Context(), input, typ)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, recordResponse{
		ContributionID: record.ID.String(),
		RecordedAt:     record.RecordedAt,
	})
}

// HandleBackfill converts the fund's unconverted snapshots
func (h *Handler) HandleBackfill(w http.ResponseWriter, r *http.Request) {
	fundID, ok := h.fundID(w, r)
	if !ok {
		return
	}

	updated, err := h.backfillService.Backfill(r.Context(), fundID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"fund_id": fundID.String(),
		"updated": updated,
	})
}

// Helper methods

func (h *Handler) fundID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "fundID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid fund id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps domain errors to HTTP statuses
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrBaseCurrencyUnset):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvariantViolation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case strings.Contains(err.Error(), "must be") || strings.Contains(err.Error(), "cannot be"):
		status = http.StatusBadRequest
	}

	if status >= http.StatusInternalServerError || status == http.StatusUnprocessableEntity {
		h.log.Error().Err(err).Int("status", status).Msg("Request failed")
	}
	h.writeError(w, status, err.Error())
}
