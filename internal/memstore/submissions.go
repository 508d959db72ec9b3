package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/writeflow/backend/internal/models"
)

type Submissions struct{ s *Store }

func (s *Store) Submissions() *Submissions { return &Submissions{s: s} }

func (r *Submissions) Create(ctx context.Context, _ pgx.Tx, sub *models.Submission) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("submissions.Create"); err != nil {
		return err
	}
	if _, ok := s.tasks[sub.TaskID]; !ok {
		return models.Conflictf("create submission: row is still referenced (submissions_task_id_fkey)")
	}
	sub.SubmittedAt = s.now()
	s.submissions[sub.ID] = *sub
	return nil
}

func (r *Submissions) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*models.Submission, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[id]
	if !ok {
		return nil, models.NotFoundf("submission %s not found", id)
	}
	return &sub, nil
}

func (r *Submissions) UpdateReview(ctx context.Context, _ pgx.Tx, sub *models.Submission) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("submissions.UpdateReview"); err != nil {
		return err
	}
	cur, ok := s.submissions[sub.ID]
	if !ok {
		return models.NotFoundf("submission %s not found", sub.ID)
	}
	cur.Status = sub.Status
	cur.ReviewedAt = sub.ReviewedAt
	s.submissions[sub.ID] = cur
	return nil
}

func (r *Submissions) List(ctx context.Context, taskID, writerID *uuid.UUID) ([]*models.Submission, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := []*models.Submission{}
	for _, sub := range s.submissions {
		if (taskID == nil || sub.TaskID == *taskID) && (writerID == nil || sub.WriterID == *writerID) {
			out := sub
			list = append(list, &out)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SubmittedAt.After(list[j].SubmittedAt) })
	return list, nil
}
