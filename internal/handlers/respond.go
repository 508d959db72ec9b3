package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/writeflow/backend/internal/auth"
	"github.com/writeflow/backend/internal/middleware"
	"github.com/writeflow/backend/internal/models"
	"github.com/writeflow/backend/internal/schema"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict), errors.Is(err, models.ErrState):
		return http.StatusConflict
	case errors.Is(err, models.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case models.IsRetryable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports err to the client. Infrastructure failures are logged
// and their details are not exposed.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		log.WarnContext(r.Context(), "transient storage failure", "path", r.URL.Path, "error", err)
		w.Header().Set("Retry-After", "1")
		msg = "temporarily unavailable, retry the request"
	case http.StatusInternalServerError:
		log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

var requestSchemas = schema.MustLoad()

// decodeJSON validates the body against the named request schema and then
// decodes it into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, log *slog.Logger, name string, v any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
		return false
	}
	if err := requestSchemas.Validate(name, body); err != nil {
		writeError(w, r, log, err)
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, r, log, models.Validationf("invalid request body: %v", err))
		return false
	}
	return true
}

// pathID parses the {name} path wildcard as a UUID.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func callerFrom(w http.ResponseWriter, r *http.Request) (auth.Caller, bool) {
	c, ok := middleware.CallerFromCtx(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
	}
	return c, ok
}
