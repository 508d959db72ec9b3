package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/writeflow/backend/internal/models"
)

type Tasks struct{ s *Store }

func (s *Store) Tasks() *Tasks { return &Tasks{s: s} }

func (r *Tasks) Create(ctx context.Context, _ pgx.Tx, t *models.Task) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("tasks.Create"); err != nil {
		return err
	}
	if _, ok := s.tasks[t.ID]; ok {
		return models.Conflictf("create task: duplicate id %s", t.ID)
	}
	if !t.Consistent() {
		return models.Statef("create task: constraint tasks_assignment_consistent rejected the change")
	}
	t.CreatedAt = s.now()
	t.UpdatedAt = t.CreatedAt
	t.BidCount = 0
	s.tasks[t.ID] = copyTask(t)
	return nil
}

func (r *Tasks) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, models.NotFoundf("task %s not found", id)
	}
	return s.withCount(t), nil
}

func (r *Tasks) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Task, error) {
	t, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.BidCount = 0
	return t, nil
}

func (r *Tasks) GetByIDForShare(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Task, error) {
	return r.GetByIDForUpdate(ctx, tx, id)
}

func (r *Tasks) Update(ctx context.Context, _ pgx.Tx, t *models.Task) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("tasks.Update"); err != nil {
		return err
	}
	cur, ok := s.tasks[t.ID]
	if !ok {
		return models.NotFoundf("task %s not found", t.ID)
	}
	if !t.Consistent() {
		return models.Statef("update task: constraint tasks_assignment_consistent rejected the change")
	}
	t.CreatedAt = cur.CreatedAt
	t.UpdatedAt = s.now()
	s.tasks[t.ID] = copyTask(t)
	return nil
}

func (r *Tasks) Delete(ctx context.Context, _ pgx.Tx, id uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return models.NotFoundf("task %s not found", id)
	}
	for _, b := range s.bids {
		if b.TaskID == id {
			return models.Conflictf("delete task: row is still referenced (bids_task_id_fkey)")
		}
	}
	for _, sub := range s.submissions {
		if sub.TaskID == id {
			return models.Conflictf("delete task: row is still referenced (submissions_task_id_fkey)")
		}
	}
	delete(s.tasks, id)
	return nil
}

func (r *Tasks) List(ctx context.Context, status *models.TaskStatus) ([]*models.Task, error) {
	return r.filter(func(t models.Task) bool { return status == nil || t.Status == *status }), nil
}

func (r *Tasks) ListAvailable(ctx context.Context, now time.Time) ([]*models.Task, error) {
	return r.filter(func(t models.Task) bool {
		return t.Status == models.TaskStatusOpen && t.Deadline.After(now)
	}), nil
}

func (r *Tasks) filter(keep func(models.Task) bool) []*models.Task {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := []*models.Task{}
	for _, t := range s.tasks {
		if keep(t) {
			list = append(list, s.withCount(t))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list
}

// withCount must be called with mu held.
func (s *Store) withCount(t models.Task) *models.Task {
	out := copyTask(&t)
	for _, b := range s.bids {
		if b.TaskID == t.ID {
			out.BidCount++
		}
	}
	return &out
}

func copyTask(t *models.Task) models.Task {
	out := *t
	out.AssignedWriterID = uuidPtr(t.AssignedWriterID)
	return out
}
