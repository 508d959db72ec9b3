package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/writeflow/backend/internal/models"
	"github.com/writeflow/backend/internal/schema"
	"github.com/writeflow/backend/internal/services"
)

// BidRegistry is the bid operations the handler exposes.
type BidRegistry interface {
	Place(ctx context.Context, taskID, writerID uuid.UUID, amount decimal.Decimal, proposal string) (*models.Bid, error)
	ForTask(ctx context.Context, taskID uuid.UUID) ([]*models.Bid, error)
	ForWriter(ctx context.Context, writerID uuid.UUID) ([]*models.Bid, error)
	Withdraw(ctx context.Context, bidID, writerID uuid.UUID) error
}

// BidResolver approves and rejects bids.
type BidResolver interface {
	Approve(ctx context.Context, bidID uuid.UUID) (*services.Resolution, error)
	Reject(ctx context.Context, bidID uuid.UUID) (*models.Bid, error)
}

// BidHandler serves bid placement and resolution endpoints.
type BidHandler struct {
	Bids     BidRegistry
	Resolver BidResolver
	Logger   *slog.Logger
}

func NewBidHandler(bids BidRegistry, resolver BidResolver, log *slog.Logger) *BidHandler {
	if log == nil {
		log = slog.Default()
	}
	return &BidHandler{Bids: bids, Resolver: resolver, Logger: log}
}

// --- POST /api/v1/tasks/{id}/bids ---

type placeBidRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Proposal string          `json:"proposal"`
}

func (h *BidHandler) Place(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	taskID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req placeBidRequest
	if !decodeJSON(w, r, h.Logger, schema.BidPlace, &req) {
		return
	}
	bid, err := h.Bids.Place(r.Context(), taskID, caller.ID, req.Amount, req.Proposal)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, bid)
}

// --- GET /api/v1/tasks/{id}/bids ---

func (h *BidHandler) ForTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	bids, err := h.Bids.ForTask(r.Context(), taskID)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, bids)
}

// --- GET /api/v1/bids/mine ---

func (h *BidHandler) Mine(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	bids, err := h.Bids.ForWriter(r.Context(), caller.ID)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, bids)
}

// --- DELETE /api/v1/bids/{id} ---

func (h *BidHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	bidID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Bids.Withdraw(r.Context(), bidID, caller.ID); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- POST /api/v1/bids/{id}/approve ---

func (h *BidHandler) Approve(w http.ResponseWriter, r *http.Request) {
	bidID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res, err := h.Resolver.Approve(r.Context(), bidID)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// --- POST /api/v1/bids/{id}/reject ---

func (h *BidHandler) Reject(w http.ResponseWriter, r *http.Request) {
	bidID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	bid, err := h.Resolver.Reject(r.Context(), bidID)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, bid)
}
