package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/writeflow/backend/internal/models"
)

const bidColumns = `id, task_id, writer_id, amount, proposal, status, created_at, updated_at`

type BidRepo struct {
	pool *pgxpool.Pool
}

func NewBidRepo(pool *pgxpool.Pool) *BidRepo {
	return &BidRepo{pool: pool}
}

func scanBid(row rowScanner) (*models.Bid, error) {
	var b models.Bid
	if err := row.Scan(&b.ID, &b.TaskID, &b.WriterID, &b.Amount, &b.Proposal, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts a bid. The (task_id, writer_id) unique constraint turns a
// concurrent duplicate into models.ErrConflict.
func (r *BidRepo) Create(ctx context.Context, tx pgx.Tx, b *models.Bid) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO bids (id, task_id, writer_id, amount, proposal, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, b.ID, b.TaskID, b.WriterID, b.Amount, b.Proposal, b.Status).Scan(&b.CreatedAt, &b.UpdatedAt)
	return classify("create bid", err)
}

func (r *BidRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	b, err := scanBid(r.pool.QueryRow(ctx, `SELECT `+bidColumns+` FROM bids WHERE id = $1`, id))
	if err != nil {
		return nil, classify("get bid", notFound(err, "bid", id))
	}
	return b, nil
}

func (r *BidRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Bid, error) {
	b, err := scanBid(tx.QueryRow(ctx, `SELECT `+bidColumns+` FROM bids WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, classify("lock bid", notFound(err, "bid", id))
	}
	return b, nil
}

func (r *BidRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*models.Bid, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+bidColumns+` FROM bids WHERE task_id = $1 ORDER BY created_at DESC`, taskID)
	if err != nil {
		return nil, classify("list task bids", err)
	}
	return collectBids(rows)
}

func (r *BidRepo) ListByWriter(ctx context.Context, writerID uuid.UUID) ([]*models.Bid, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+bidColumns+` FROM bids WHERE writer_id = $1 ORDER BY created_at DESC`, writerID)
	if err != nil {
		return nil, classify("list writer bids", err)
	}
	return collectBids(rows)
}

func (r *BidRepo) CountByTask(ctx context.Context, tx pgx.Tx, taskID uuid.UUID) (int, error) {
	var n int
	err := tx.QueryRow(ctx, `SELECT count(*) FROM bids WHERE task_id = $1`, taskID).Scan(&n)
	return n, classify("count bids", err)
}

func (r *BidRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, b *models.Bid) error {
	err := tx.QueryRow(ctx, `
		UPDATE bids SET status = $2, updated_at = now() WHERE id = $1 RETURNING updated_at
	`, b.ID, b.Status).Scan(&b.UpdatedAt)
	return classify("update bid", notFound(err, "bid", b.ID))
}

// RejectPending rejects every PENDING bid on the task other than keep and
// returns the rows it changed. Pass uuid.Nil to reject all of them.
func (r *BidRepo) RejectPending(ctx context.Context, tx pgx.Tx, taskID, keep uuid.UUID) ([]*models.Bid, error) {
	rows, err := tx.Query(ctx, `
		UPDATE bids SET status = 'REJECTED', updated_at = now()
		WHERE task_id = $1 AND id <> $2 AND status = 'PENDING'
		RETURNING `+bidColumns, taskID, keep)
	if err != nil {
		return nil, classify("reject pending bids", err)
	}
	return collectBids(rows)
}

func (r *BidRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, "DELETE FROM bids WHERE id = $1", id)
	if err != nil {
		return classify("delete bid", err)
	}
	if tag.RowsAffected() == 0 {
		return models.NotFoundf("bid %s not found", id)
	}
	return nil
}

func collectBids(rows pgx.Rows) ([]*models.Bid, error) {
	defer rows.Close()
	list := []*models.Bid{}
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, classify("scan bid", err)
		}
		list = append(list, b)
	}
	return list, classify("iterate bids", rows.Err())
}
