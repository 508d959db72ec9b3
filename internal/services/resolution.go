package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/writeflow/backend/internal/models"
	"github.com/writeflow/backend/internal/notification"
)

// Resolution is the outcome of approving a bid.
type Resolution struct {
	Bid      *models.Bid   `json:"bid"`
	Task     *models.Task  `json:"task"`
	Rejected []*models.Bid `json:"rejected"`
}

// Resolver approves and rejects bids. Approval assigns the task and rejects
// every other pending bid in one unit of work.
type Resolver struct {
	uow      TxRunner
	tasks    TaskRepo
	bids     BidRepo
	notifier notification.Notifier
	log      *slog.Logger
}

func NewResolver(uow TxRunner, tasks TaskRepo, bids BidRepo, notifier notification.Notifier, log *slog.Logger) *Resolver {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{uow: uow, tasks: tasks, bids: bids, notifier: notifier, log: log}
}

// Approve assigns the bid's task to its writer.
//
// The task row is locked before any bid row. A concurrent approval on the
// same task blocks on that lock and then sees the task ASSIGNED, so exactly
// one approval wins and the other gets a state error.
func (r *Resolver) Approve(ctx context.Context, bidID uuid.UUID) (*Resolution, error) {
	var res Resolution
	err := r.uow.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		found, err := r.bids.GetByID(ctx, bidID)
		if err != nil {
			return err
		}
		task, err := r.tasks.GetByIDForUpdate(ctx, tx, found.TaskID)
		if err != nil {
			return err
		}
		if task.Status != models.TaskStatusOpen {
			return models.Statef("task %s is already %s", task.ID, task.Status)
		}
		bid, err := r.bids.GetByIDForUpdate(ctx, tx, bidID)
		if err != nil {
			return err
		}
		if err := bid.Approve(); err != nil {
			return err
		}
		if err := task.Assign(bid.WriterID); err != nil {
			return err
		}
		if err := r.bids.UpdateStatus(ctx, tx, bid); err != nil {
			return err
		}
		if err := r.tasks.Update(ctx, tx, task); err != nil {
			return err
		}
		rejected, err := r.bids.RejectPending(ctx, tx, task.ID, bid.ID)
		if err != nil {
			return err
		}
		res = Resolution{Bid: bid, Task: task, Rejected: rejected}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.InfoContext(ctx, "bid approved",
		"bid_id", res.Bid.ID, "task_id", res.Task.ID, "writer_id", res.Bid.WriterID, "rejected_bids", len(res.Rejected))
	t, b := res.Task, res.Bid
	events := []notification.Event{
		{Kind: notification.KindBidApproved, TaskID: t.ID, TaskTitle: t.Title, BidID: &b.ID, WriterID: &b.WriterID, Amount: b.Amount},
		{Kind: notification.KindTaskAssigned, TaskID: t.ID, TaskTitle: t.Title, BidID: &b.ID, Amount: b.Amount},
	}
	r.notifier.Notify(ctx, append(events, rejectionEvents(t, res.Rejected)...)...)
	return &res, nil
}

// Reject turns down a single PENDING bid.
func (r *Resolver) Reject(ctx context.Context, bidID uuid.UUID) (*models.Bid, error) {
	var bid *models.Bid
	err := r.uow.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		b, err := r.bids.GetByIDForUpdate(ctx, tx, bidID)
		if err != nil {
			return err
		}
		if err := b.Reject(); err != nil {
			return err
		}
		bid = b
		return r.bids.UpdateStatus(ctx, tx, b)
	})
	if err != nil {
		return nil, err
	}
	r.log.InfoContext(ctx, "bid rejected", "bid_id", bid.ID, "task_id", bid.TaskID)

	ev := notification.Event{
		Kind: notification.KindBidRejected, TaskID: bid.TaskID, BidID: &bid.ID, WriterID: &bid.WriterID, Amount: bid.Amount,
	}
	if t, err := r.tasks.GetByID(ctx, bid.TaskID); err == nil {
		ev.TaskTitle = t.Title
	}
	r.notifier.Notify(ctx, ev)
	return bid, nil
}
