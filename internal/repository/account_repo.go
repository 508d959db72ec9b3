package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/writeflow/backend/internal/models"
)

const accountColumns = `id, email, first_name, last_name, role, is_active, wallet_balance, created_at, updated_at`

// AccountRepo reads users and moves wallet balances. Profile writes belong to
// the user service.
type AccountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	if err := row.Scan(&a.ID, &a.Email, &a.FirstName, &a.LastName, &a.Role, &a.IsActive, &a.WalletBalance, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, classify("get account", notFound(err, "writer", id))
	}
	return a, nil
}

// GetByIDForUpdate locks the account row. Call within a transaction.
func (r *AccountRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Account, error) {
	a, err := scanAccount(tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, classify("lock account", notFound(err, "writer", id))
	}
	return a, nil
}

// UpdateBalance sets wallet_balance. Call after GetByIDForUpdate in the same tx.
func (r *AccountRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance decimal.Decimal) error {
	tag, err := tx.Exec(ctx, `UPDATE users SET wallet_balance = $2, updated_at = now() WHERE id = $1`, id, balance)
	if err != nil {
		return classify("update balance", err)
	}
	if tag.RowsAffected() == 0 {
		return models.NotFoundf("writer %s not found", id)
	}
	return nil
}

func (r *AccountRepo) ListActiveByRole(ctx context.Context, role models.Role) ([]*models.Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+accountColumns+` FROM users WHERE role = $1 AND is_active ORDER BY created_at
	`, role)
	if err != nil {
		return nil, classify("list accounts", err)
	}
	defer rows.Close()
	var list []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, classify("scan account", err)
		}
		list = append(list, a)
	}
	return list, classify("iterate accounts", rows.Err())
}
