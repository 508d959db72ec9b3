package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/writeflow/backend/internal/models"
)

const submissionColumns = `id, task_id, writer_id, file_url, notes, status, submitted_at, reviewed_at`

type SubmissionRepo struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepo(pool *pgxpool.Pool) *SubmissionRepo {
	return &SubmissionRepo{pool: pool}
}

func scanSubmission(row rowScanner) (*models.Submission, error) {
	var s models.Submission
	if err := row.Scan(&s.ID, &s.TaskID, &s.WriterID, &s.FileURL, &s.Notes, &s.Status, &s.SubmittedAt, &s.ReviewedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubmissionRepo) Create(ctx context.Context, tx pgx.Tx, s *models.Submission) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO submissions (id, task_id, writer_id, file_url, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING submitted_at
	`, s.ID, s.TaskID, s.WriterID, s.FileURL, s.Notes, s.Status).Scan(&s.SubmittedAt)
	return classify("create submission", err)
}

func (r *SubmissionRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Submission, error) {
	s, err := scanSubmission(tx.QueryRow(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, classify("lock submission", notFound(err, "submission", id))
	}
	return s, nil
}

func (r *SubmissionRepo) UpdateReview(ctx context.Context, tx pgx.Tx, s *models.Submission) error {
	tag, err := tx.Exec(ctx, `UPDATE submissions SET status = $2, reviewed_at = $3 WHERE id = $1`, s.ID, s.Status, s.ReviewedAt)
	if err != nil {
		return classify("review submission", err)
	}
	if tag.RowsAffected() == 0 {
		return models.NotFoundf("submission %s not found", s.ID)
	}
	return nil
}

// List returns submissions newest first. Nil filters match everything.
func (r *SubmissionRepo) List(ctx context.Context, taskID, writerID *uuid.UUID) ([]*models.Submission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+submissionColumns+` FROM submissions
		WHERE ($1::uuid IS NULL OR task_id = $1) AND ($2::uuid IS NULL OR writer_id = $2)
		ORDER BY submitted_at DESC
	`, taskID, writerID)
	if err != nil {
		return nil, classify("list submissions", err)
	}
	defer rows.Close()
	list := []*models.Submission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, classify("scan submission", err)
		}
		list = append(list, s)
	}
	return list, classify("iterate submissions", rows.Err())
}
