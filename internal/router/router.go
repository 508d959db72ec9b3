package router

import (
	"log/slog"
	"net/http"

	"github.com/writeflow/backend/internal/handlers"
	"github.com/writeflow/backend/internal/middleware"
	"github.com/writeflow/backend/internal/models"
)

// Deps are the handlers and collaborators the route table is built from.
type Deps struct {
	Tokens      middleware.TokenValidator
	Tasks       *handlers.TaskHandler
	Bids        *handlers.BidHandler
	Ledger      *handlers.TransactionHandler
	Submissions *handlers.SubmissionHandler
	Logger      *slog.Logger
}

// New returns an http.Handler that serves the API under /api/v1.
func New(d Deps) http.Handler {
	authed := middleware.Authenticate(d.Tokens)
	admin := chain(authed, middleware.RequireRole(models.RoleAdmin))
	writer := chain(authed, middleware.RequireRole(models.RoleWriter))
	anyone := chain(authed, middleware.RequireRole(models.RoleAdmin, models.RoleWriter))

	mux := http.NewServeMux()
	base := "/api/v1"
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.Handle("POST "+base+"/tasks", admin(d.Tasks.Create))
	mux.Handle("GET "+base+"/tasks", anyone(d.Tasks.List))
	mux.Handle("GET "+base+"/tasks/available", anyone(d.Tasks.ListAvailable))
	mux.Handle("GET "+base+"/tasks/{id}", anyone(d.Tasks.Get))
	mux.Handle("PATCH "+base+"/tasks/{id}", admin(d.Tasks.Update))
	mux.Handle("POST "+base+"/tasks/{id}/cancel", admin(d.Tasks.Cancel))
	mux.Handle("DELETE "+base+"/tasks/{id}", admin(d.Tasks.Delete))

	mux.Handle("POST "+base+"/tasks/{id}/bids", writer(d.Bids.Place))
	mux.Handle("GET "+base+"/tasks/{id}/bids", admin(d.Bids.ForTask))
	mux.Handle("GET "+base+"/bids/mine", writer(d.Bids.Mine))
	mux.Handle("DELETE "+base+"/bids/{id}", writer(d.Bids.Withdraw))
	mux.Handle("POST "+base+"/bids/{id}/approve", admin(d.Bids.Approve))
	mux.Handle("POST "+base+"/bids/{id}/reject", admin(d.Bids.Reject))

	mux.Handle("POST "+base+"/transactions", admin(d.Ledger.Create))
	mux.Handle("GET "+base+"/transactions", anyone(d.Ledger.List))
	mux.Handle("GET "+base+"/wallet", writer(d.Ledger.Balance))
	mux.Handle("GET "+base+"/writers/{id}/reconciliation", admin(d.Ledger.Reconcile))

	mux.Handle("POST "+base+"/tasks/{id}/submissions", writer(d.Submissions.Submit))
	mux.Handle("GET "+base+"/tasks/{id}/submissions", admin(d.Submissions.ForTask))
	mux.Handle("GET "+base+"/submissions", anyone(d.Submissions.List))
	mux.Handle("POST "+base+"/submissions/{id}/review", admin(d.Submissions.Review))

	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	return middleware.Recoverer(log)(middleware.RequestLogger(log)(mux))
}

type wrapper func(http.HandlerFunc) http.Handler

// chain applies mws outermost first.
func chain(mws ...func(http.Handler) http.Handler) wrapper {
	return func(h http.HandlerFunc) http.Handler {
		var out http.Handler = h
		for i := len(mws) - 1; i >= 0; i-- {
			out = mws[i](out)
		}
		return out
	}
}
