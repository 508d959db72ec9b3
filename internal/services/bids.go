package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/writeflow/backend/internal/models"
	"github.com/writeflow/backend/internal/notification"
)

// BidService is the bid registry.
type BidService struct {
	uow      TxRunner
	tasks    TaskRepo
	bids     BidRepo
	notifier notification.Notifier
	log      *slog.Logger
}

func NewBidService(uow TxRunner, tasks TaskRepo, bids BidRepo, notifier notification.Notifier, log *slog.Logger) *BidService {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &BidService{uow: uow, tasks: tasks, bids: bids, notifier: notifier, log: log}
}

// Place records a PENDING bid. The task row is share-locked so a concurrent
// approval cannot assign the task between the status check and the insert.
// A second bid by the same writer hits the bids_task_writer_key constraint.
func (s *BidService) Place(ctx context.Context, taskID, writerID uuid.UUID, amount decimal.Decimal, proposal string) (*models.Bid, error) {
	if err := models.ValidateAmount("amount", amount); err != nil {
		return nil, err
	}
	proposal = strings.TrimSpace(proposal)
	if proposal == "" {
		return nil, models.Validationf("proposal is required")
	}
	b := &models.Bid{
		ID:       uuid.New(),
		TaskID:   taskID,
		WriterID: writerID,
		Amount:   amount,
		Proposal: proposal,
		Status:   models.BidStatusPending,
	}
	var task *models.Task
	err := s.uow.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		t, err := s.tasks.GetByIDForShare(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if t.Status != models.TaskStatusOpen {
			return models.Statef("task %s is %s and not accepting bids", t.ID, t.Status)
		}
		task = t
		return s.bids.Create(ctx, tx, b)
	})
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "bid placed", "bid_id", b.ID, "task_id", taskID, "writer_id", writerID)
	s.notifier.Notify(ctx, notification.Event{
		Kind: notification.KindBidPlaced, TaskID: task.ID, TaskTitle: task.Title, BidID: &b.ID, Amount: b.Amount,
	})
	return b, nil
}

func (s *BidService) ForTask(ctx context.Context, taskID uuid.UUID) ([]*models.Bid, error) {
	if _, err := s.tasks.GetByID(ctx, taskID); err != nil {
		return nil, err
	}
	return s.bids.ListByTask(ctx, taskID)
}

func (s *BidService) ForWriter(ctx context.Context, writerID uuid.UUID) ([]*models.Bid, error) {
	return s.bids.ListByWriter(ctx, writerID)
}

// Withdraw deletes a writer's own PENDING bid.
func (s *BidService) Withdraw(ctx context.Context, bidID, writerID uuid.UUID) error {
	err := s.uow.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		b, err := s.bids.GetByIDForUpdate(ctx, tx, bidID)
		if err != nil {
			return err
		}
		if b.WriterID != writerID {
			return models.Forbiddenf("bid %s belongs to another writer", bidID)
		}
		if b.Status != models.BidStatusPending {
			return models.Statef("bid %s is %s and can no longer be withdrawn", bidID, b.Status)
		}
		return s.bids.Delete(ctx, tx, bidID)
	})
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "bid withdrawn", "bid_id", bidID, "writer_id", writerID)
	return nil
}
