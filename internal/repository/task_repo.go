package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/writeflow/backend/internal/models"
)

const taskColumns = `
	t.id, t.title, t.description, t.subject, t.pages, t.budget, t.deadline, t.status,
	t.assigned_writer_id, t.created_at, t.updated_at`

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner, withCount bool) (*models.Task, error) {
	var t models.Task
	dest := []any{&t.ID, &t.Title, &t.Description, &t.Subject, &t.Pages, &t.Budget, &t.Deadline, &t.Status,
		&t.AssignedWriterID, &t.CreatedAt, &t.UpdatedAt}
	if withCount {
		dest = append(dest, &t.BidCount)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepo) Create(ctx context.Context, tx pgx.Tx, t *models.Task) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO tasks (id, title, description, subject, pages, budget, deadline, status, assigned_writer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, t.ID, t.Title, t.Description, t.Subject, t.Pages, t.Budget, t.Deadline, t.Status, t.AssignedWriterID).Scan(&t.CreatedAt, &t.UpdatedAt)
	return classify("create task", err)
}

func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`, (SELECT count(*) FROM bids b WHERE b.task_id = t.id)
		FROM tasks t WHERE t.id = $1
	`, id)
	t, err := scanTask(row, true)
	if err != nil {
		return nil, classify("get task", notFound(err, "task", id))
	}
	return t, nil
}

// GetByIDForUpdate locks the task row for the rest of the transaction.
func (r *TaskRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Task, error) {
	t, err := scanTask(tx.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = $1 FOR UPDATE`, id), false)
	if err != nil {
		return nil, classify("lock task", notFound(err, "task", id))
	}
	return t, nil
}

// GetByIDForShare blocks concurrent writers of the task row (e.g. approval)
// while still allowing other bidders to proceed.
func (r *TaskRepo) GetByIDForShare(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Task, error) {
	t, err := scanTask(tx.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = $1 FOR SHARE`, id), false)
	if err != nil {
		return nil, classify("share-lock task", notFound(err, "task", id))
	}
	return t, nil
}

func (r *TaskRepo) Update(ctx context.Context, tx pgx.Tx, t *models.Task) error {
	err := tx.QueryRow(ctx, `
		UPDATE tasks SET title = $2, description = $3, subject = $4, pages = $5, budget = $6, deadline = $7,
			status = $8, assigned_writer_id = $9, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, t.ID, t.Title, t.Description, t.Subject, t.Pages, t.Budget, t.Deadline, t.Status, t.AssignedWriterID).Scan(&t.UpdatedAt)
	return classify("update task", notFound(err, "task", t.ID))
}

func (r *TaskRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return classify("delete task", err)
	}
	if tag.RowsAffected() == 0 {
		return models.NotFoundf("task %s not found", id)
	}
	return nil
}

// List returns tasks newest-first, optionally restricted to one status.
func (r *TaskRepo) List(ctx context.Context, status *models.TaskStatus) ([]*models.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`, (SELECT count(*) FROM bids b WHERE b.task_id = t.id)
		FROM tasks t
		WHERE ($1::text IS NULL OR t.status = $1)
		ORDER BY t.created_at DESC
	`, status)
	if err != nil {
		return nil, classify("list tasks", err)
	}
	return collectTasks(rows)
}

// ListAvailable returns OPEN tasks whose deadline is after now.
func (r *TaskRepo) ListAvailable(ctx context.Context, now time.Time) ([]*models.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`, (SELECT count(*) FROM bids b WHERE b.task_id = t.id)
		FROM tasks t
		WHERE t.status = 'OPEN' AND t.deadline > $1
		ORDER BY t.created_at DESC
	`, now)
	if err != nil {
		return nil, classify("list available tasks", err)
	}
	return collectTasks(rows)
}

func collectTasks(rows pgx.Rows) ([]*models.Task, error) {
	defer rows.Close()
	list := []*models.Task{}
	for rows.Next() {
		t, err := scanTask(rows, true)
		if err != nil {
			return nil, classify("scan task", err)
		}
		list = append(list, t)
	}
	return list, classify("iterate tasks", rows.Err())
}
