package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/writeflow/backend/internal/models"
)

// TxRunner opens a unit of work. repository.UnitOfWork satisfies it.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}

// AccountRepo is the slice of the account store the ledger needs.
type AccountRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Account, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance decimal.Decimal) error
}

// TransactionRepo is the append-only ledger store.
type TransactionRepo interface {
	CreateTx(ctx context.Context, tx pgx.Tx, t *models.Transaction) error
	List(ctx context.Context, f models.TransactionFilter) ([]*models.Transaction, int, error)
	SumByWriter(ctx context.Context, writerID uuid.UUID) (decimal.Decimal, error)
}
