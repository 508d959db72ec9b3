package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/writeflow/backend/internal/models"
)

// Postgres SQLSTATE codes the store maps onto the business taxonomy.
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
	pgNumericOverflow      = "22003"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// classify turns a driver error into a business error or a StorageError.
// Business errors already produced by the core pass through unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if models.IsBusiness(err) || errors.Is(err, models.ErrStorage) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return models.Conflictf("%s: duplicate value violates %s", op, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return models.Conflictf("%s: row is still referenced (%s)", op, pgErr.ConstraintName)
		case pgCheckViolation:
			return models.Statef("%s: constraint %s rejected the change", op, pgErr.ConstraintName)
		case pgNumericOverflow:
			return models.Validationf("%s: value out of range", op)
		case pgSerializationFailure, pgDeadlockDetected:
			return &models.StorageError{Op: op, Retryable: true, Err: err}
		}
	}
	return &models.StorageError{Op: op, Retryable: pgconn.SafeToRetry(err), Err: err}
}

// notFound maps pgx.ErrNoRows to a NotFound error for the named entity.
func notFound(err error, entity string, id any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NotFoundf("%s %v not found", entity, id)
	}
	return err
}
