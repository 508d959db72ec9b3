// Package notification delivers best-effort messages about marketplace
// events. Events are enqueued after the state change has committed and are
// attempted once; a lost message is never retried.
package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/writeflow/backend/internal/models"
)

type Kind string

const (
	KindTaskPublished      Kind = "task.published"
	KindTaskAssigned       Kind = "task.assigned"
	KindBidPlaced          Kind = "bid.placed"
	KindBidApproved        Kind = "bid.approved"
	KindBidRejected        Kind = "bid.rejected"
	KindSubmissionReceived Kind = "submission.received"
	KindSubmissionApproved Kind = "submission.approved"
	KindSubmissionRejected Kind = "submission.rejected"
)

// Audience is who receives an event when it is not addressed to one writer.
func (k Kind) Audience() models.Role {
	switch k {
	case KindTaskPublished:
		return models.RoleWriter
	default:
		return models.RoleAdmin
	}
}

// Event is the plain payload handed to the notifier after a commit.
// WriterID addresses a single writer; when nil the event goes to Kind's audience.
type Event struct {
	Kind         Kind            `json:"kind"`
	TaskID       uuid.UUID       `json:"task_id"`
	TaskTitle    string          `json:"task_title"`
	BidID        *uuid.UUID      `json:"bid_id,omitempty"`
	SubmissionID *uuid.UUID      `json:"submission_id,omitempty"`
	WriterID     *uuid.UUID      `json:"writer_id,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
}

// Notifier accepts events after a successful state transition. It never
// reports failure to the caller.
type Notifier interface {
	Notify(ctx context.Context, events ...Event)
}

// Message is a rendered notification for one recipient.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Nop drops every event.
type Nop struct{}

func (Nop) Notify(context.Context, ...Event) {}
