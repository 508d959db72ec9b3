package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/writeflow/backend/internal/models"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{models.Validationf("bad"), http.StatusBadRequest},
		{models.Forbiddenf("no"), http.StatusForbidden},
		{fmt.Errorf("get: %w", models.NotFoundf("task")), http.StatusNotFound},
		{models.Conflictf("dup"), http.StatusConflict},
		{models.Statef("closed"), http.StatusConflict},
		{models.ErrInsufficientFunds, http.StatusPaymentRequired},
		{&models.StorageError{Op: "commit", Retryable: true, Err: errors.New("serialization")}, http.StatusServiceUnavailable},
		{&models.StorageError{Op: "commit", Err: errors.New("disk full")}, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Errorf("%v: got %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestWriteError_HidesInternals(t *testing.T) {
	log := slog.New(slog.DiscardHandler)
	r := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)

	w := httptest.NewRecorder()
	writeError(w, r, log, &models.StorageError{Op: "insert", Retryable: true, Err: errors.New("deadlock detected")})
	if w.Code != http.StatusServiceUnavailable || w.Header().Get("Retry-After") != "1" {
		t.Fatalf("got %d, Retry-After %q", w.Code, w.Header().Get("Retry-After"))
	}
	if strings.Contains(w.Body.String(), "deadlock") {
		t.Errorf("storage detail leaked: %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	writeError(w, r, log, models.Statef("task is COMPLETED"))
	if w.Code != http.StatusConflict || !strings.Contains(w.Body.String(), "COMPLETED") {
		t.Errorf("business error should be reported as is, got %d %s", w.Code, w.Body.String())
	}
}

func TestParseTransactionFilter(t *testing.T) {
	q := url.Values{}
	q.Set("type", "BONUS")
	q.Set("start_date", "2026-03-01")
	q.Set("end_date", "2026-03-31")
	q.Set("page", "2")
	r := httptest.NewRequest(http.MethodGet, "/api/v1/transactions?"+q.Encode(), nil)

	f, err := parseTransactionFilter(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Type == nil || *f.Type != models.TransactionBonus || f.Page != 2 || f.Limit != 0 {
		t.Fatalf("unexpected filter %+v", f)
	}
	wantTo := time.Date(2026, 3, 31, 23, 59, 59, 999999999, time.UTC)
	if !f.To.Equal(wantTo) || !f.From.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("range = %v..%v", f.From, f.To)
	}

	for _, bad := range []string{"writer_id=nope", "type=REFUND", "start_date=yesterday", "page=x"} {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/transactions?"+bad, nil)
		if _, err := parseTransactionFilter(r); !errors.Is(err, models.ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", bad, err)
		}
	}
}
