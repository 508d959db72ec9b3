package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/writeflow/backend/internal/models"
)

const transactionColumns = `id, writer_id, amount, type, description, created_at`

// TransactionRepo appends to and reads the wallet ledger. Rows are never
// updated or deleted; the transactions_no_mutation trigger enforces it.
type TransactionRepo struct {
	pool *pgxpool.Pool
}

func NewTransactionRepo(pool *pgxpool.Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// CreateTx inserts a ledger entry inside the given transaction.
func (r *TransactionRepo) CreateTx(ctx context.Context, tx pgx.Tx, t *models.Transaction) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO transactions (id, writer_id, amount, type, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, t.ID, t.WriterID, t.Amount, t.Type, t.Description).Scan(&t.CreatedAt)
	return classify("append transaction", err)
}

// List returns one page of entries matching f, newest first, and the total
// number of matching rows.
func (r *TransactionRepo) List(ctx context.Context, f models.TransactionFilter) ([]*models.Transaction, int, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.WriterID != nil {
		add("writer_id = $%d", *f.WriterID)
	}
	if f.Type != nil {
		add("type = $%d", *f.Type)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM transactions`+clause, args...).Scan(&total); err != nil {
		return nil, 0, classify("count transactions", err)
	}

	args = append(args, f.Limit, f.Offset())
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM transactions%s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d
	`, transactionColumns, clause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, classify("list transactions", err)
	}
	defer rows.Close()
	list := []*models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.WriterID, &t.Amount, &t.Type, &t.Description, &t.CreatedAt); err != nil {
			return nil, 0, classify("scan transaction", err)
		}
		list = append(list, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, classify("iterate transactions", err)
	}
	return list, total, nil
}

// SumByWriter returns the signed sum of a writer's entries.
func (r *TransactionRepo) SumByWriter(ctx context.Context, writerID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE writer_id = $1
	`, writerID).Scan(&sum)
	return sum, classify("sum transactions", err)
}
