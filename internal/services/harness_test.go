package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/writeflow/backend/internal/ledger"
	"github.com/writeflow/backend/internal/memstore"
	"github.com/writeflow/backend/internal/models"
	"github.com/writeflow/backend/internal/notification"
)

// ---------------------------------------------------------------------------
// Test harness: every service wired to one in-memory store.
// ---------------------------------------------------------------------------

type harness struct {
	store       *memstore.Store
	events      *notification.Recorder
	tasks       *TaskService
	bids        *BidService
	resolver    *Resolver
	submissions *SubmissionService
	ledger      ledger.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memstore.New()
	rec := &notification.Recorder{}
	led := ledger.NewService(store, store.Accounts(), store.Transactions(), nil)
	return &harness{
		store:       store,
		events:      rec,
		tasks:       NewTaskService(store, store.Tasks(), store.Bids(), rec, nil),
		bids:        NewBidService(store, store.Tasks(), store.Bids(), rec, nil),
		resolver:    NewResolver(store, store.Tasks(), store.Bids(), rec, nil),
		submissions: NewSubmissionService(store, store.Tasks(), store.Bids(), store.Submissions(), led, rec, nil),
		ledger:      led,
	}
}

func (h *harness) writer(t *testing.T) uuid.UUID {
	t.Helper()
	return h.store.AddAccount(models.Account{Email: uuid.NewString() + "@example.com", Role: models.RoleWriter, IsActive: true}).ID
}

func (h *harness) task(t *testing.T, budget string) *models.Task {
	t.Helper()
	task, err := h.tasks.Create(context.Background(), models.TaskSpec{
		Title:       "Essay on the Roman Republic",
		Description: "2000 words, APA",
		Subject:     "History",
		Pages:       8,
		Budget:      dec(budget),
		Deadline:    time.Now().Add(72 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func (h *harness) bid(t *testing.T, taskID, writerID uuid.UUID, amount string) *models.Bid {
	t.Helper()
	b, err := h.bids.Place(context.Background(), taskID, writerID, dec(amount), "I can do this")
	if err != nil {
		t.Fatalf("place bid: %v", err)
	}
	return b
}

func (h *harness) bidStatus(t *testing.T, id uuid.UUID) models.BidStatus {
	t.Helper()
	b, err := h.store.Bids().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get bid: %v", err)
	}
	return b.Status
}

func (h *harness) taskNow(t *testing.T, id uuid.UUID) *models.Task {
	t.Helper()
	task, err := h.tasks.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	return task
}

// assertTaskInvariants checks that the writer is set exactly in the assigned
// states and that an approved bid excludes pending ones.
func (h *harness) assertTaskInvariants(t *testing.T, taskID uuid.UUID) {
	t.Helper()
	task := h.taskNow(t, taskID)
	if !task.Consistent() {
		t.Fatalf("task %s is %s with writer %v", task.ID, task.Status, task.AssignedWriterID)
	}
	bids, _ := h.store.Bids().ListByTask(context.Background(), taskID)
	approved, pending := 0, 0
	for _, b := range bids {
		switch b.Status {
		case models.BidStatusApproved:
			approved++
		case models.BidStatusPending:
			pending++
		}
	}
	if approved > 1 || (approved == 1 && pending > 0) {
		t.Fatalf("task %s has %d approved and %d pending bids", taskID, approved, pending)
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }
