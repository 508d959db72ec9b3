package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/writeflow/backend/internal/models"
	"github.com/writeflow/backend/internal/notification"
)

// TaskService is the task registry.
type TaskService struct {
	uow      TxRunner
	tasks    TaskRepo
	bids     BidRepo
	notifier notification.Notifier
	log      *slog.Logger
	now      func() time.Time
}

func NewTaskService(uow TxRunner, tasks TaskRepo, bids BidRepo, notifier notification.Notifier, log *slog.Logger) *TaskService {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &TaskService{uow: uow, tasks: tasks, bids: bids, notifier: notifier, log: log, now: time.Now}
}

// Create publishes a new OPEN task and tells active writers about it.
func (s *TaskService) Create(ctx context.Context, spec models.TaskSpec) (*models.Task, error) {
	if err := s.validateSpec(spec); err != nil {
		return nil, err
	}
	t := &models.Task{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(spec.Title),
		Description: strings.TrimSpace(spec.Description),
		Subject:     strings.TrimSpace(spec.Subject),
		Pages:       spec.Pages,
		Budget:      spec.Budget,
		Deadline:    spec.Deadline.UTC(),
		Status:      models.TaskStatusOpen,
	}
	err := s.uow.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.tasks.Create(ctx, tx, t)
	})
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "task created", "task_id", t.ID, "budget", t.Budget.StringFixed(2))
	s.notifier.Notify(ctx, notification.Event{
		Kind: notification.KindTaskPublished, TaskID: t.ID, TaskTitle: t.Title, Amount: t.Budget,
	})
	return t, nil
}

func (s *TaskService) Get(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	return s.tasks.GetByID(ctx, id)
}

// List returns tasks newest first, optionally limited to one status.
func (s *TaskService) List(ctx context.Context, status *models.TaskStatus) ([]*models.Task, error) {
	if status != nil {
		if _, err := models.ParseTaskStatus(string(*status)); err != nil {
			return nil, err
		}
	}
	return s.tasks.List(ctx, status)
}

// ListAvailable returns OPEN tasks that can still be bid on.
func (s *TaskService) ListAvailable(ctx context.Context) ([]*models.Task, error) {
	return s.tasks.ListAvailable(ctx, s.now())
}

// Update applies the edits in p. A status in the patch may only cancel the
// task; assignment and completion go through the resolver and review.
func (s *TaskService) Update(ctx context.Context, id uuid.UUID, p models.TaskPatch) (*models.Task, error) {
	if err := s.validatePatch(p); err != nil {
		return nil, err
	}
	cancel := p.Status != nil
	var (
		task     *models.Task
		rejected []*models.Bid
	)
	err := s.uow.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		t, err := s.tasks.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if t.Status.IsTerminal() {
			return models.Statef("task %s is %s and can no longer be edited", t.ID, t.Status)
		}
		applyPatch(t, p)
		if cancel {
			rejected, err = s.cancelTx(ctx, tx, t)
			if err != nil {
				return err
			}
		} else if err := s.tasks.Update(ctx, tx, t); err != nil {
			return err
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	if cancel {
		s.afterCancel(ctx, task, rejected)
	}
	return task, nil
}

// Cancel moves a non-terminal task to CANCELLED and rejects its pending bids.
func (s *TaskService) Cancel(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var (
		task     *models.Task
		rejected []*models.Bid
	)
	err := s.uow.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		t, err := s.tasks.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		rejected, err = s.cancelTx(ctx, tx, t)
		task = t
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterCancel(ctx, task, rejected)
	return task, nil
}

func (s *TaskService) cancelTx(ctx context.Context, tx pgx.Tx, t *models.Task) ([]*models.Bid, error) {
	if err := t.Cancel(); err != nil {
		return nil, err
	}
	if err := s.tasks.Update(ctx, tx, t); err != nil {
		return nil, err
	}
	return s.bids.RejectPending(ctx, tx, t.ID, uuid.Nil)
}

func (s *TaskService) afterCancel(ctx context.Context, t *models.Task, rejected []*models.Bid) {
	s.log.InfoContext(ctx, "task cancelled", "task_id", t.ID, "rejected_bids", len(rejected))
	s.notifier.Notify(ctx, rejectionEvents(t, rejected)...)
}

// Delete removes a task that has never been bid on. Tasks with bids must be
// cancelled instead.
func (s *TaskService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.uow.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := s.tasks.GetByIDForUpdate(ctx, tx, id); err != nil {
			return err
		}
		n, err := s.bids.CountByTask(ctx, tx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return models.Conflictf("task %s has %d bid(s); cancel it instead", id, n)
		}
		return s.tasks.Delete(ctx, tx, id)
	})
}

func (s *TaskService) validateSpec(spec models.TaskSpec) error {
	switch {
	case strings.TrimSpace(spec.Title) == "":
		return models.Validationf("title is required")
	case strings.TrimSpace(spec.Description) == "":
		return models.Validationf("description is required")
	case strings.TrimSpace(spec.Subject) == "":
		return models.Validationf("subject is required")
	case spec.Pages < 1:
		return models.Validationf("pages must be at least 1")
	}
	if err := models.ValidateAmount("budget", spec.Budget); err != nil {
		return err
	}
	return s.validateDeadline(spec.Deadline)
}

func (s *TaskService) validatePatch(p models.TaskPatch) error {
	for field, v := range map[string]*string{"title": p.Title, "description": p.Description, "subject": p.Subject} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return models.Validationf("%s must not be empty", field)
		}
	}
	if p.Pages != nil && *p.Pages < 1 {
		return models.Validationf("pages must be at least 1")
	}
	if p.Budget != nil {
		if err := models.ValidateAmount("budget", *p.Budget); err != nil {
			return err
		}
	}
	if p.Deadline != nil {
		if err := s.validateDeadline(*p.Deadline); err != nil {
			return err
		}
	}
	if p.Status != nil && *p.Status != models.TaskStatusCancelled {
		return models.Validationf("status can only be changed to %s", models.TaskStatusCancelled)
	}
	return nil
}

func (s *TaskService) validateDeadline(d time.Time) error {
	if !d.After(s.now()) {
		return models.Validationf("deadline must be in the future")
	}
	return nil
}

func applyPatch(t *models.Task, p models.TaskPatch) {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Subject != nil {
		t.Subject = strings.TrimSpace(*p.Subject)
	}
	if p.Pages != nil {
		t.Pages = *p.Pages
	}
	if p.Budget != nil {
		t.Budget = *p.Budget
	}
	if p.Deadline != nil {
		t.Deadline = p.Deadline.UTC()
	}
}

func rejectionEvents(t *models.Task, rejected []*models.Bid) []notification.Event {
	events := make([]notification.Event, 0, len(rejected))
	for _, b := range rejected {
		events = append(events, notification.Event{
			Kind: notification.KindBidRejected, TaskID: t.ID, TaskTitle: t.Title,
			BidID: &b.ID, WriterID: &b.WriterID, Amount: b.Amount,
		})
	}
	return events
}
