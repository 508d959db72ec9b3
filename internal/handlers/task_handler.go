package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/writeflow/backend/internal/models"
	"github.com/writeflow/backend/internal/schema"
)

// TaskRegistry is the task operations the handler exposes.
type TaskRegistry interface {
	Create(ctx context.Context, spec models.TaskSpec) (*models.Task, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Task, error)
	List(ctx context.Context, status *models.TaskStatus) ([]*models.Task, error)
	ListAvailable(ctx context.Context) ([]*models.Task, error)
	Update(ctx context.Context, id uuid.UUID, p models.TaskPatch) (*models.Task, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TaskHandler serves /api/v1/tasks endpoints.
type TaskHandler struct {
	Tasks  TaskRegistry
	Logger *slog.Logger
}

func NewTaskHandler(tasks TaskRegistry, log *slog.Logger) *TaskHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TaskHandler{Tasks: tasks, Logger: log}
}

// --- POST /api/v1/tasks ---

type createTaskRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Subject     string          `json:"subject"`
	Pages       int             `json:"pages"`
	Budget      decimal.Decimal `json:"budget"`
	Deadline    time.Time       `json:"deadline"`
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if !decodeJSON(w, r, h.Logger, schema.TaskCreate, &req) {
		return
	}
	task, err := h.Tasks.Create(r.Context(), models.TaskSpec{
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		Pages:       req.Pages,
		Budget:      req.Budget,
		Deadline:    req.Deadline,
	})
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// --- GET /api/v1/tasks?status= ---

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *models.TaskStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := models.ParseTaskStatus(raw)
		if err != nil {
			writeError(w, r, h.Logger, err)
			return
		}
		status = &st
	}
	tasks, err := h.Tasks.List(r.Context(), status)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// --- GET /api/v1/tasks/available ---

func (h *TaskHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Tasks.ListAvailable(r.Context())
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// --- GET /api/v1/tasks/{id} ---

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	task, err := h.Tasks.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// --- PATCH /api/v1/tasks/{id} ---

type updateTaskRequest struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Subject     *string            `json:"subject"`
	Pages       *int               `json:"pages"`
	Budget      *decimal.Decimal   `json:"budget"`
	Deadline    *time.Time         `json:"deadline"`
	Status      *models.TaskStatus `json:"status"`
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req updateTaskRequest
	if !decodeJSON(w, r, h.Logger, schema.TaskUpdate, &req) {
		return
	}
	task, err := h.Tasks.Update(r.Context(), id, models.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		Pages:       req.Pages,
		Budget:      req.Budget,
		Deadline:    req.Deadline,
		Status:      req.Status,
	})
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// --- POST /api/v1/tasks/{id}/cancel ---

func (h *TaskHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	task, err := h.Tasks.Cancel(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// --- DELETE /api/v1/tasks/{id} ---

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Tasks.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
