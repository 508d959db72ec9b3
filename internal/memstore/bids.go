package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/writeflow/backend/internal/models"
)

type Bids struct{ s *Store }

func (s *Store) Bids() *Bids { return &Bids{s: s} }

func (r *Bids) Create(ctx context.Context, _ pgx.Tx, b *models.Bid) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("bids.Create"); err != nil {
		return err
	}
	if _, ok := s.tasks[b.TaskID]; !ok {
		return models.Conflictf("create bid: row is still referenced (bids_task_id_fkey)")
	}
	for _, other := range s.bids {
		if other.TaskID == b.TaskID && other.WriterID == b.WriterID {
			return models.Conflictf("create bid: duplicate value violates bids_task_writer_key")
		}
	}
	b.CreatedAt = s.now()
	b.UpdatedAt = b.CreatedAt
	s.bids[b.ID] = *b
	return nil
}

func (r *Bids) GetByID(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bids[id]
	if !ok {
		return nil, models.NotFoundf("bid %s not found", id)
	}
	return &b, nil
}

func (r *Bids) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*models.Bid, error) {
	return r.GetByID(ctx, id)
}

func (r *Bids) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*models.Bid, error) {
	return r.filter(func(b models.Bid) bool { return b.TaskID == taskID }), nil
}

func (r *Bids) ListByWriter(ctx context.Context, writerID uuid.UUID) ([]*models.Bid, error) {
	return r.filter(func(b models.Bid) bool { return b.WriterID == writerID }), nil
}

func (r *Bids) CountByTask(ctx context.Context, _ pgx.Tx, taskID uuid.UUID) (int, error) {
	return len(r.filter(func(b models.Bid) bool { return b.TaskID == taskID })), nil
}

func (r *Bids) UpdateStatus(ctx context.Context, _ pgx.Tx, b *models.Bid) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("bids.UpdateStatus"); err != nil {
		return err
	}
	cur, ok := s.bids[b.ID]
	if !ok {
		return models.NotFoundf("bid %s not found", b.ID)
	}
	if b.Status == models.BidStatusApproved {
		for _, other := range s.bids {
			if other.ID != b.ID && other.TaskID == cur.TaskID && other.Status == models.BidStatusApproved {
				return models.Conflictf("update bid: duplicate value violates bids_one_approved_per_task")
			}
		}
	}
	cur.Status = b.Status
	cur.UpdatedAt = s.now()
	b.UpdatedAt = cur.UpdatedAt
	s.bids[b.ID] = cur
	return nil
}

func (r *Bids) RejectPending(ctx context.Context, _ pgx.Tx, taskID, keep uuid.UUID) ([]*models.Bid, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("bids.RejectPending"); err != nil {
		return nil, err
	}
	rejected := []*models.Bid{}
	for id, b := range s.bids {
		if b.TaskID != taskID || id == keep || b.Status != models.BidStatusPending {
			continue
		}
		b.Status = models.BidStatusRejected
		b.UpdatedAt = s.now()
		s.bids[id] = b
		out := b
		rejected = append(rejected, &out)
	}
	return rejected, nil
}

func (r *Bids) Delete(ctx context.Context, _ pgx.Tx, id uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bids[id]; !ok {
		return models.NotFoundf("bid %s not found", id)
	}
	delete(s.bids, id)
	return nil
}

func (r *Bids) filter(keep func(models.Bid) bool) []*models.Bid {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := []*models.Bid{}
	for _, b := range s.bids {
		if keep(b) {
			out := b
			list = append(list, &out)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list
}
