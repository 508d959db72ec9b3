package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/writeflow/backend/internal/models"
)

// TxRunner opens a unit of work. Everything fn does through tx commits
// together or not at all.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}

// TaskRepo is the task store used by the registry, the resolver and review.
type TaskRepo interface {
	Create(ctx context.Context, tx pgx.Tx, t *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Task, error)
	GetByIDForShare(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Task, error)
	Update(ctx context.Context, tx pgx.Tx, t *models.Task) error
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	List(ctx context.Context, status *models.TaskStatus) ([]*models.Task, error)
	ListAvailable(ctx context.Context, now time.Time) ([]*models.Task, error)
}

// BidRepo is the bid store.
type BidRepo interface {
	Create(ctx context.Context, tx pgx.Tx, b *models.Bid) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Bid, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Bid, error)
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*models.Bid, error)
	ListByWriter(ctx context.Context, writerID uuid.UUID) ([]*models.Bid, error)
	CountByTask(ctx context.Context, tx pgx.Tx, taskID uuid.UUID) (int, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, b *models.Bid) error
	RejectPending(ctx context.Context, tx pgx.Tx, taskID, keep uuid.UUID) ([]*models.Bid, error)
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// SubmissionRepo is the submission store.
type SubmissionRepo interface {
	Create(ctx context.Context, tx pgx.Tx, s *models.Submission) error
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Submission, error)
	UpdateReview(ctx context.Context, tx pgx.Tx, s *models.Submission) error
	List(ctx context.Context, taskID, writerID *uuid.UUID) ([]*models.Submission, error)
}

// Payer credits a writer inside an open unit of work. ledger.Service satisfies it.
type Payer interface {
	ApplyTx(ctx context.Context, tx pgx.Tx, req models.TransactionRequest) (*models.Transaction, error)
}
