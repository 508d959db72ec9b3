package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "OPEN"
	TaskStatusAssigned   TaskStatus = "ASSIGNED"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

// ParseTaskStatus accepts only the closed set of task statuses.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch st := TaskStatus(s); st {
	case TaskStatusOpen, TaskStatusAssigned, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return st, nil
	default:
		return "", Validationf("unknown task status %q", s)
	}
}

// IsTerminal reports whether no further transitions are possible.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

// HasWriter reports whether a task in this status must carry an assigned writer.
func (s TaskStatus) HasWriter() bool {
	switch s {
	case TaskStatusAssigned, TaskStatusInProgress, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

type Task struct {
	ID               uuid.UUID       `json:"id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Subject          string          `json:"subject"`
	Pages            int             `json:"pages"`
	Budget           decimal.Decimal `json:"budget"`
	Deadline         time.Time       `json:"deadline"`
	Status           TaskStatus      `json:"status"`
	AssignedWriterID *uuid.UUID      `json:"assigned_writer_id,omitempty"`
	BidCount         int             `json:"bid_count"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Consistent reports whether the assigned-writer invariant holds.
func (t *Task) Consistent() bool {
	return (t.AssignedWriterID != nil) == t.Status.HasWriter()
}

// Assign moves an OPEN task to ASSIGNED for writerID.
func (t *Task) Assign(writerID uuid.UUID) error {
	if t.Status != TaskStatusOpen {
		return Statef("task %s is %s, not OPEN", t.ID, t.Status)
	}
	id := writerID
	t.Status = TaskStatusAssigned
	t.AssignedWriterID = &id
	return nil
}

// Start moves an ASSIGNED task to IN_PROGRESS.
func (t *Task) Start() error {
	if t.Status != TaskStatusAssigned {
		return Statef("task %s is %s, not ASSIGNED", t.ID, t.Status)
	}
	t.Status = TaskStatusInProgress
	return nil
}

// Complete moves an ASSIGNED or IN_PROGRESS task to COMPLETED.
func (t *Task) Complete() error {
	switch t.Status {
	case TaskStatusAssigned, TaskStatusInProgress:
		t.Status = TaskStatusCompleted
		return nil
	default:
		return Statef("task %s is %s and cannot be completed", t.ID, t.Status)
	}
}

// Cancel moves any non-terminal task to CANCELLED and drops the assignment.
func (t *Task) Cancel() error {
	if t.Status.IsTerminal() {
		return Statef("task %s is already %s", t.ID, t.Status)
	}
	t.Status = TaskStatusCancelled
	t.AssignedWriterID = nil
	return nil
}

// TaskSpec is the input for creating a task.
type TaskSpec struct {
	Title       string
	Description string
	Subject     string
	Pages       int
	Budget      decimal.Decimal
	Deadline    time.Time
}

// TaskPatch carries optional edits. Status is only honoured for CANCELLED.
type TaskPatch struct {
	Title       *string
	Description *string
	Subject     *string
	Pages       *int
	Budget      *decimal.Decimal
	Deadline    *time.Time
	Status      *TaskStatus
}
