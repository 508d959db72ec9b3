package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/writeflow/backend/internal/models"
	"github.com/writeflow/backend/internal/schema"
)

// SubmissionReview is the submission workflow as seen by the API.
type SubmissionReview interface {
	Submit(ctx context.Context, writerID, taskID uuid.UUID, fileURL, notes string) (*models.Submission, error)
	Review(ctx context.Context, submissionID uuid.UUID, approved bool) (*models.Submission, error)
	ForWriter(ctx context.Context, writerID uuid.UUID) ([]*models.Submission, error)
	ForTask(ctx context.Context, taskID uuid.UUID) ([]*models.Submission, error)
	All(ctx context.Context) ([]*models.Submission, error)
}

type SubmissionHandler struct {
	Submissions SubmissionReview
	Logger      *slog.Logger
}

func NewSubmissionHandler(submissions SubmissionReview, log *slog.Logger) *SubmissionHandler {
	if log == nil {
		log = slog.Default()
	}
	return &SubmissionHandler{Submissions: submissions, Logger: log}
}

// --- POST /api/v1/tasks/{id}/submissions ---

type submitRequest struct {
	FileURL string `json:"file_url"`
	Notes   string `json:"notes"`
}

func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	taskID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req submitRequest
	if !decodeJSON(w, r, h.Logger, schema.SubmissionCreate, &req) {
		return
	}
	sub, err := h.Submissions.Submit(r.Context(), caller.ID, taskID, req.FileURL, req.Notes)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// --- GET /api/v1/tasks/{id}/submissions ---

func (h *SubmissionHandler) ForTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	list, err := h.Submissions.ForTask(r.Context(), taskID)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// --- GET /api/v1/submissions ---

// List returns every submission to admins and a writer's own to writers.
func (h *SubmissionHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var (
		list []*models.Submission
		err  error
	)
	if caller.IsAdmin() {
		list, err = h.Submissions.All(r.Context())
	} else {
		list, err = h.Submissions.ForWriter(r.Context(), caller.ID)
	}
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// --- POST /api/v1/submissions/{id}/review ---

type reviewRequest struct {
	Approved bool `json:"approved"`
}

func (h *SubmissionHandler) Review(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req reviewRequest
	if !decodeJSON(w, r, h.Logger, schema.SubmissionReview, &req) {
		return
	}
	sub, err := h.Submissions.Review(r.Context(), id, req.Approved)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}
