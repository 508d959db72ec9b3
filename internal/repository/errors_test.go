package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/writeflow/backend/internal/models"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"unique", &pgconn.PgError{Code: "23505", ConstraintName: "bids_task_writer_key"}, models.ErrConflict},
		{"foreign key", &pgconn.PgError{Code: "23503", ConstraintName: "bids_task_id_fkey"}, models.ErrConflict},
		{"check", &pgconn.PgError{Code: "23514", ConstraintName: "users_wallet_balance_check"}, models.ErrState},
		{"numeric overflow", &pgconn.PgError{Code: "22003", Message: "numeric field overflow"}, models.ErrValidation},
		{"serialization", &pgconn.PgError{Code: "40001"}, models.ErrStorage},
		{"deadlock", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "40P01"}), models.ErrStorage},
		{"other", errors.New("connection reset"), models.ErrStorage},
		{"business passthrough", models.Statef("task is ASSIGNED"), models.ErrState},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify("op", tc.err)
			if !errors.Is(got, tc.want) {
				t.Fatalf("classify(%v) = %v, want kind %v", tc.err, got, tc.want)
			}
		})
	}
	if classify("op", nil) != nil {
		t.Error("classify(nil) should be nil")
	}
}

func TestClassifyRetryable(t *testing.T) {
	if !models.IsRetryable(classify("commit", &pgconn.PgError{Code: "40001"})) {
		t.Error("serialization failure should be retryable")
	}
	if err := classify("append transaction", &pgconn.PgError{Code: "22003"}); errors.Is(err, models.ErrStorage) {
		t.Errorf("numeric overflow must not be a storage error, got %v", err)
	}
	if models.IsRetryable(classify("insert", &pgconn.PgError{Code: "23505"})) {
		t.Error("unique violation is a business error, not retryable")
	}
}

func TestNotFound(t *testing.T) {
	err := classify("get", notFound(pgx.ErrNoRows, "task", "abc"))
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	other := errors.New("boom")
	if notFound(other, "task", "abc") != other {
		t.Error("notFound should pass other errors through")
	}
}
