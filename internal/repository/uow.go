package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UnitOfWork runs closures inside a single database transaction. Everything
// fn does through tx commits together or not at all.
type UnitOfWork struct {
	pool *pgxpool.Pool
}

func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{pool: pool}
}

// InTx runs fn at READ COMMITTED. Callers take row locks (FOR UPDATE / FOR SHARE)
// in task -> bid -> account order so concurrent units serialize on the rows
// they touch instead of deadlocking.
func (u *UnitOfWork) InTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	err := pgx.BeginTxFunc(ctx, u.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, tx)
	})
	return classify("unit of work", err)
}
