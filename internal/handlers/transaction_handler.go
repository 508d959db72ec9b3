package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/writeflow/backend/internal/models"
	"github.com/writeflow/backend/internal/schema"
)

// Wallet is the wallet transaction engine as seen by the API.
type Wallet interface {
	Apply(ctx context.Context, req models.TransactionRequest) (*models.Transaction, error)
	List(ctx context.Context, f models.TransactionFilter) (*models.TransactionPage, error)
	Balance(ctx context.Context, writerID uuid.UUID) (decimal.Decimal, error)
	Reconcile(ctx context.Context, writerID uuid.UUID) (*models.Reconciliation, error)
}

// TransactionHandler serves wallet and ledger endpoints.
type TransactionHandler struct {
	Wallet Wallet
	Logger *slog.Logger
}

func NewTransactionHandler(wallet Wallet, log *slog.Logger) *TransactionHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TransactionHandler{Wallet: wallet, Logger: log}
}

// --- POST /api/v1/transactions ---

type createTransactionRequest struct {
	WriterID    uuid.UUID              `json:"writer_id"`
	Amount      decimal.Decimal        `json:"amount"`
	Type        models.TransactionType `json:"type"`
	Description string                 `json:"description"`
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if !decodeJSON(w, r, h.Logger, schema.TransactionNew, &req) {
		return
	}
	tx, err := h.Wallet.Apply(r.Context(), models.TransactionRequest{
		WriterID:    req.WriterID,
		Amount:      req.Amount,
		Type:        req.Type,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// --- GET /api/v1/transactions?writer_id=&type=&start_date=&end_date=&page=&limit= ---

// List returns a page of the ledger. Writers only ever see their own entries.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	f, err := parseTransactionFilter(r)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	if !caller.IsAdmin() {
		f.WriterID = &caller.ID
	}
	page, err := h.Wallet.List(r.Context(), f)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// --- GET /api/v1/wallet ---

type walletResponse struct {
	WriterID uuid.UUID       `json:"writer_id"`
	Balance  decimal.Decimal `json:"balance"`
}

func (h *TransactionHandler) Balance(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	bal, err := h.Wallet.Balance(r.Context(), caller.ID)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, walletResponse{WriterID: caller.ID, Balance: bal})
}

// --- GET /api/v1/writers/{id}/reconciliation ---

func (h *TransactionHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	writerID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	rec, err := h.Wallet.Reconcile(r.Context(), writerID)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func parseTransactionFilter(r *http.Request) (models.TransactionFilter, error) {
	q := r.URL.Query()
	var f models.TransactionFilter
	if v := q.Get("writer_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, models.Validationf("invalid writer_id")
		}
		f.WriterID = &id
	}
	if v := q.Get("type"); v != "" {
		tt, err := models.ParseTransactionType(v)
		if err != nil {
			return f, err
		}
		f.Type = &tt
	}
	var err error
	if f.From, err = parseDate(q.Get("start_date"), false); err != nil {
		return f, models.Validationf("invalid start_date")
	}
	if f.To, err = parseDate(q.Get("end_date"), true); err != nil {
		return f, models.Validationf("invalid end_date")
	}
	if f.Page, err = parseInt(q.Get("page")); err != nil {
		return f, models.Validationf("invalid page")
	}
	if f.Limit, err = parseInt(q.Get("limit")); err != nil {
		return f, models.Validationf("invalid limit")
	}
	return f, nil
}

// parseDate accepts RFC 3339 or a plain YYYY-MM-DD. A plain end date covers
// the whole day.
func parseDate(v string, endOfDay bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func parseInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
