package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/writeflow/backend/internal/auth"
	"github.com/writeflow/backend/internal/models"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type stubValidator struct {
	caller auth.Caller
	err    error
}

func (s *stubValidator) ValidateToken(_ context.Context, _ string) (auth.Caller, error) {
	return s.caller, s.err
}

// okHandler writes 200 and the caller role (for assertions).
var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if c, ok := CallerFromCtx(r.Context()); ok {
		w.Write([]byte(c.Role))
	}
})

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestAuthenticate_ValidToken(t *testing.T) {
	v := &stubValidator{caller: auth.Caller{ID: uuid.New(), Role: models.RoleWriter}}
	h := Authenticate(v)(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || rr.Body.String() != "WRITER" {
		t.Fatalf("got %d %q", rr.Code, rr.Body.String())
	}
}

func TestAuthenticate_Rejects(t *testing.T) {
	cases := map[string]struct {
		header string
		err    error
	}{
		"missing header": {"", nil},
		"not bearer":     {"Basic abc", nil},
		"invalid token":  {"Bearer abc", auth.ErrInvalidToken},
	}
	for name, tc := range cases {
		h := Authenticate(&stubValidator{err: tc.err})(okHandler)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", name, rr.Code)
		}
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(models.RoleAdmin)(okHandler)

	run := func(ctx context.Context) int {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil).WithContext(ctx))
		return rr.Code
	}
	if code := run(context.Background()); code != http.StatusUnauthorized {
		t.Errorf("no caller: expected 401, got %d", code)
	}
	if code := run(WithCaller(context.Background(), auth.Caller{ID: uuid.New(), Role: models.RoleWriter})); code != http.StatusForbidden {
		t.Errorf("writer: expected 403, got %d", code)
	}
	if code := run(WithCaller(context.Background(), auth.Caller{ID: uuid.New(), Role: models.RoleAdmin})); code != http.StatusOK {
		t.Errorf("admin: expected 200, got %d", code)
	}
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(quiet)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(errors.New("boom"))
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestRequestLogger_PassesStatus(t *testing.T) {
	h := RequestLogger(quiet)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rr.Code)
	}
}
