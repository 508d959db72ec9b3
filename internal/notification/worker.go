package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/writeflow/backend/internal/models"
)

// QueueName is the River queue notification jobs run on.
const QueueName = "notifications"

// NotifyArgs is the River job carrying one event.
type NotifyArgs struct {
	Event Event `json:"event"`
}

func (NotifyArgs) Kind() string { return "notify" }

// InsertOpts gives notification jobs a single attempt. A failed delivery is
// logged and discarded.
func (NotifyArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: QueueName, MaxAttempts: 1}
}

// Recipients resolves who an event is delivered to.
type Recipients interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	ListActiveByRole(ctx context.Context, role models.Role) ([]*models.Account, error)
}

// Worker renders and sends notifications.
type Worker struct {
	river.WorkerDefaults[NotifyArgs]
	recipients Recipients
	templates  *TemplateStore
	sender     Sender
	log        *slog.Logger
}

func NewWorker(recipients Recipients, templates *TemplateStore, sender Sender, log *slog.Logger) *Worker {
	if templates == nil {
		templates = NewTemplateStore()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Worker{recipients: recipients, templates: templates, sender: sender, log: log}
}

func (w *Worker) Work(ctx context.Context, job *river.Job[NotifyArgs]) error {
	if err := w.Deliver(ctx, job.Args.Event); err != nil {
		w.log.WarnContext(ctx, "notification failed", "job_id", job.ID, "kind", job.Args.Event.Kind, "error", err)
		return river.JobCancel(err)
	}
	return nil
}

// Deliver sends ev to every recipient. It keeps going after a failed send and
// reports all failures together.
func (w *Worker) Deliver(ctx context.Context, ev Event) error {
	to, err := w.resolve(ctx, ev)
	if err != nil {
		return err
	}
	var errs []error
	for _, acc := range to {
		subject, body, err := w.templates.Render(TemplateData{Name: displayName(acc), Event: ev})
		if err != nil {
			return err
		}
		if err := w.sender.Send(ctx, Message{To: acc.Email, Subject: subject, Body: body}); err != nil {
			errs = append(errs, err)
			continue
		}
		w.log.DebugContext(ctx, "notification sent", "kind", ev.Kind, "to", acc.Email)
	}
	return errors.Join(errs...)
}

func (w *Worker) resolve(ctx context.Context, ev Event) ([]*models.Account, error) {
	if ev.WriterID != nil {
		acc, err := w.recipients.GetByID(ctx, *ev.WriterID)
		if err != nil {
			return nil, fmt.Errorf("resolve writer %s: %w", *ev.WriterID, err)
		}
		if !acc.IsActive {
			return nil, nil
		}
		return []*models.Account{acc}, nil
	}
	list, err := w.recipients.ListActiveByRole(ctx, ev.Kind.Audience())
	if err != nil {
		return nil, fmt.Errorf("resolve %s recipients: %w", ev.Kind.Audience(), err)
	}
	return list, nil
}

func displayName(acc *models.Account) string {
	if name := strings.TrimSpace(acc.FirstName + " " + acc.LastName); name != "" {
		return name
	}
	return acc.Email
}
