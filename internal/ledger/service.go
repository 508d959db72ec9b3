package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/writeflow/backend/internal/models"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Service is the wallet transaction engine. Every balance change is paired
// with exactly one appended Transaction in the same unit of work.
type Service interface {
	// Apply runs the transaction in its own unit of work.
	Apply(ctx context.Context, req models.TransactionRequest) (*models.Transaction, error)
	// ApplyTx runs inside the caller's unit of work.
	ApplyTx(ctx context.Context, tx pgx.Tx, req models.TransactionRequest) (*models.Transaction, error)
	List(ctx context.Context, f models.TransactionFilter) (*models.TransactionPage, error)
	Balance(ctx context.Context, writerID uuid.UUID) (decimal.Decimal, error)
	Reconcile(ctx context.Context, writerID uuid.UUID) (*models.Reconciliation, error)
}

type service struct {
	uow          TxRunner
	accounts     AccountRepo
	transactions TransactionRepo
	log          *slog.Logger
}

func NewService(uow TxRunner, accounts AccountRepo, transactions TransactionRepo, log *slog.Logger) Service {
	if log == nil {
		log = slog.Default()
	}
	return &service{uow: uow, accounts: accounts, transactions: transactions, log: log}
}

var _ Service = (*service)(nil)

func (s *service) Apply(ctx context.Context, req models.TransactionRequest) (*models.Transaction, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var out *models.Transaction
	err := s.uow.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		out, err = s.ApplyTx(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("transaction applied",
		"transaction_id", out.ID, "writer_id", out.WriterID, "type", out.Type, "amount", out.Amount.StringFixed(2))
	return out, nil
}

// ApplyTx locks the writer row, checks the resulting balance and writes the
// new balance and the ledger entry. Concurrent calls for the same writer
// serialize on the row lock.
func (s *service) ApplyTx(ctx context.Context, tx pgx.Tx, req models.TransactionRequest) (*models.Transaction, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	acc, err := s.accounts.GetByIDForUpdate(ctx, tx, req.WriterID)
	if err != nil {
		return nil, err
	}
	if acc.Role != models.RoleWriter {
		return nil, models.NotFoundf("writer %s not found", req.WriterID)
	}

	delta := req.Type.Signed(req.Amount)
	balance := acc.WalletBalance.Add(delta)
	if balance.IsNegative() {
		return nil, fmt.Errorf("%w: balance %s cannot cover %s %s",
			models.ErrInsufficientFunds, acc.WalletBalance.StringFixed(2), strings.ToLower(string(req.Type)), req.Amount.StringFixed(2))
	}
	if balance.GreaterThan(models.MaxAmount) {
		return nil, models.Validationf("balance %s plus %s would exceed the wallet limit of %s",
			acc.WalletBalance.StringFixed(2), req.Amount.StringFixed(2), models.MaxAmount.StringFixed(2))
	}
	if err := s.accounts.UpdateBalance(ctx, tx, acc.ID, balance); err != nil {
		return nil, err
	}
	entry := &models.Transaction{
		ID:          uuid.New(),
		WriterID:    acc.ID,
		Amount:      delta,
		Type:        req.Type,
		Description: req.Description,
	}
	if err := s.transactions.CreateTx(ctx, tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) List(ctx context.Context, f models.TransactionFilter) (*models.TransactionPage, error) {
	if f.Page == 0 {
		f.Page = DefaultPage
	}
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	if f.Page < 1 {
		return nil, models.Validationf("page must be at least 1")
	}
	if f.Limit < 1 || f.Limit > MaxLimit {
		return nil, models.Validationf("limit must be between 1 and %d", MaxLimit)
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, models.Validationf("start date must not be after end date")
	}
	data, total, err := s.transactions.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &models.TransactionPage{
		Data:       data,
		Total:      total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: (total + f.Limit - 1) / f.Limit,
	}, nil
}

func (s *service) Balance(ctx context.Context, writerID uuid.UUID) (decimal.Decimal, error) {
	acc, err := s.accounts.GetByID(ctx, writerID)
	if err != nil {
		return decimal.Zero, err
	}
	return acc.WalletBalance, nil
}

// Reconcile compares the stored balance with the ledger sum. The two reads
// are not taken under one snapshot, so a transaction committing in between
// can produce a transient mismatch.
func (s *service) Reconcile(ctx context.Context, writerID uuid.UUID) (*models.Reconciliation, error) {
	acc, err := s.accounts.GetByID(ctx, writerID)
	if err != nil {
		return nil, err
	}
	sum, err := s.transactions.SumByWriter(ctx, writerID)
	if err != nil {
		return nil, err
	}
	rec := &models.Reconciliation{
		WriterID:       writerID,
		Balance:        acc.WalletBalance,
		TransactionSum: sum,
		Balanced:       acc.WalletBalance.Equal(sum),
	}
	if !rec.Balanced {
		s.log.Warn("wallet out of balance", "writer_id", writerID,
			"balance", rec.Balance.StringFixed(2), "transaction_sum", rec.TransactionSum.StringFixed(2))
	}
	return rec, nil
}

func validateRequest(req models.TransactionRequest) error {
	if req.WriterID == uuid.Nil {
		return models.Validationf("writer id is required")
	}
	if _, err := models.ParseTransactionType(string(req.Type)); err != nil {
		return err
	}
	if strings.TrimSpace(req.Description) == "" {
		return models.Validationf("description is required")
	}
	return models.ValidateAmount("amount", req.Amount)
}
