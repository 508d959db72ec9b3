package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/writeflow/backend/internal/models"
	"github.com/writeflow/backend/internal/notification"
)

// SubmissionService handles delivered work and pays the writer when it is
// accepted.
type SubmissionService struct {
	uow         TxRunner
	tasks       TaskRepo
	bids        BidRepo
	submissions SubmissionRepo
	payer       Payer
	notifier    notification.Notifier
	log         *slog.Logger
	now         func() time.Time
}

func NewSubmissionService(uow TxRunner, tasks TaskRepo, bids BidRepo, submissions SubmissionRepo, payer Payer, notifier notification.Notifier, log *slog.Logger) *SubmissionService {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &SubmissionService{
		uow: uow, tasks: tasks, bids: bids, submissions: submissions,
		payer: payer, notifier: notifier, log: log, now: time.Now,
	}
}

// Submit records work for a task assigned to writerID. The first submission
// moves the task to IN_PROGRESS.
func (s *SubmissionService) Submit(ctx context.Context, writerID, taskID uuid.UUID, fileURL, notes string) (*models.Submission, error) {
	fileURL = strings.TrimSpace(fileURL)
	if fileURL == "" {
		return nil, models.Validationf("file url is required")
	}
	sub := &models.Submission{
		ID:       uuid.New(),
		TaskID:   taskID,
		WriterID: writerID,
		FileURL:  fileURL,
		Notes:    strings.TrimSpace(notes),
		Status:   models.SubmissionPending,
	}
	var task *models.Task
	err := s.uow.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		t, err := s.tasks.GetByIDForUpdate(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if t.AssignedWriterID == nil || *t.AssignedWriterID != writerID {
			return models.Forbiddenf("task %s is not assigned to writer %s", taskID, writerID)
		}
		switch t.Status {
		case models.TaskStatusAssigned:
			if err := t.Start(); err != nil {
				return err
			}
			if err := s.tasks.Update(ctx, tx, t); err != nil {
				return err
			}
		case models.TaskStatusInProgress:
		default:
			return models.Statef("task %s is %s and does not accept submissions", taskID, t.Status)
		}
		task = t
		return s.submissions.Create(ctx, tx, sub)
	})
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "submission received", "submission_id", sub.ID, "task_id", taskID, "writer_id", writerID)
	s.notifier.Notify(ctx, notification.Event{
		Kind: notification.KindSubmissionReceived, TaskID: task.ID, TaskTitle: task.Title, SubmissionID: &sub.ID,
	})
	return sub, nil
}

// Review resolves a PENDING submission. Approval completes the task and
// credits the approved bid amount to the writer in the same unit of work. A
// rejected submission leaves the task IN_PROGRESS for a revision.
func (s *SubmissionService) Review(ctx context.Context, submissionID uuid.UUID, approved bool) (*models.Submission, error) {
	var (
		sub    *models.Submission
		task   *models.Task
		payout decimal.Decimal
	)
	err := s.uow.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		sub, err = s.submissions.GetByIDForUpdate(ctx, tx, submissionID)
		if err != nil {
			return err
		}
		if err := sub.Review(approved, s.now().UTC()); err != nil {
			return err
		}
		task, err = s.tasks.GetByIDForUpdate(ctx, tx, sub.TaskID)
		if err != nil {
			return err
		}
		if approved {
			if payout, err = s.completeAndPay(ctx, tx, task, sub); err != nil {
				return err
			}
		}
		return s.submissions.UpdateReview(ctx, tx, sub)
	})
	if err != nil {
		return nil, err
	}

	ev := notification.Event{
		Kind: notification.KindSubmissionRejected, TaskID: task.ID, TaskTitle: task.Title,
		SubmissionID: &sub.ID, WriterID: &sub.WriterID,
	}
	if approved {
		ev.Kind, ev.Amount = notification.KindSubmissionApproved, payout
	}
	s.log.InfoContext(ctx, "submission reviewed", "submission_id", sub.ID, "status", sub.Status, "payout", payout.StringFixed(2))
	s.notifier.Notify(ctx, ev)
	return sub, nil
}

func (s *SubmissionService) completeAndPay(ctx context.Context, tx pgx.Tx, task *models.Task, sub *models.Submission) (decimal.Decimal, error) {
	if err := task.Complete(); err != nil {
		return decimal.Zero, err
	}
	bids, err := s.bids.ListByTask(ctx, task.ID)
	if err != nil {
		return decimal.Zero, err
	}
	var winning *models.Bid
	for _, b := range bids {
		if b.Status == models.BidStatusApproved {
			winning = b
			break
		}
	}
	if winning == nil || winning.WriterID != sub.WriterID {
		return decimal.Zero, models.Statef("task %s has no approved bid from writer %s", task.ID, sub.WriterID)
	}
	if err := s.tasks.Update(ctx, tx, task); err != nil {
		return decimal.Zero, err
	}
	_, err = s.payer.ApplyTx(ctx, tx, models.TransactionRequest{
		WriterID:    sub.WriterID,
		Amount:      winning.Amount,
		Type:        models.TransactionEarning,
		Description: fmt.Sprintf("Payment for task: %s", task.Title),
	})
	if err != nil {
		return decimal.Zero, err
	}
	return winning.Amount, nil
}

func (s *SubmissionService) ForWriter(ctx context.Context, writerID uuid.UUID) ([]*models.Submission, error) {
	return s.submissions.List(ctx, nil, &writerID)
}

func (s *SubmissionService) ForTask(ctx context.Context, taskID uuid.UUID) ([]*models.Submission, error) {
	if _, err := s.tasks.GetByID(ctx, taskID); err != nil {
		return nil, err
	}
	return s.submissions.List(ctx, &taskID, nil)
}

func (s *SubmissionService) All(ctx context.Context) ([]*models.Submission, error) {
	return s.submissions.List(ctx, nil, nil)
}
