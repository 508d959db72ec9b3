package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/writeflow/backend/internal/auth"
	"github.com/writeflow/backend/internal/handlers"
	"github.com/writeflow/backend/internal/ledger"
	"github.com/writeflow/backend/internal/memstore"
	"github.com/writeflow/backend/internal/models"
	"github.com/writeflow/backend/internal/notification"
	"github.com/writeflow/backend/internal/router"
	"github.com/writeflow/backend/internal/services"
)

type api struct {
	t      *testing.T
	srv    *httptest.Server
	tokens auth.Service
	store  *memstore.Store
	events *notification.Recorder
}

func newAPI(t *testing.T) *api {
	t.Helper()
	store := memstore.New()
	rec := &notification.Recorder{}
	tokens := auth.NewService("test-secret", time.Hour)

	led := ledger.NewService(store, store.Accounts(), store.Transactions(), nil)
	tasks := services.NewTaskService(store, store.Tasks(), store.Bids(), rec, nil)
	bids := services.NewBidService(store, store.Tasks(), store.Bids(), rec, nil)
	resolver := services.NewResolver(store, store.Tasks(), store.Bids(), rec, nil)
	subs := services.NewSubmissionService(store, store.Tasks(), store.Bids(), store.Submissions(), led, rec, nil)

	h := router.New(router.Deps{
		Tokens:      tokens,
		Tasks:       handlers.NewTaskHandler(tasks, nil),
		Bids:        handlers.NewBidHandler(bids, resolver, nil),
		Ledger:      handlers.NewTransactionHandler(led, nil),
		Submissions: handlers.NewSubmissionHandler(subs, nil),
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &api{t: t, srv: srv, tokens: tokens, store: store, events: rec}
}

func (a *api) account(role models.Role) auth.Caller {
	a.t.Helper()
	acc := a.store.AddAccount(models.Account{Email: uuid.NewString() + "@example.com", Role: role, IsActive: true})
	return auth.Caller{ID: acc.ID, Role: role}
}

// do sends body as JSON on behalf of caller and decodes the response into out
// when out is non-nil.
func (a *api) do(caller *auth.Caller, method, path string, body, out any) int {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, a.srv.URL+path, &buf)
	if err != nil {
		a.t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if caller != nil {
		tok, err := a.tokens.IssueToken(*caller)
		if err != nil {
			a.t.Fatal(err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		a.t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			a.t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (a *api) createTask(admin auth.Caller, budget string) models.Task {
	a.t.Helper()
	var task models.Task
	status := a.do(&admin, http.MethodPost, "/api/v1/tasks", map[string]any{
		"title":       "Lab report",
		"description": "Titration results",
		"subject":     "Chemistry",
		"pages":       4,
		"budget":      budget,
		"deadline":    time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
	}, &task)
	if status != http.StatusCreated {
		a.t.Fatalf("create task: status %d", status)
	}
	return task
}

func TestHealthz(t *testing.T) {
	a := newAPI(t)
	if status := a.do(nil, http.MethodGet, "/healthz", nil, nil); status != http.StatusOK {
		t.Fatalf("healthz: %d", status)
	}
}

func TestAuthAndRoles(t *testing.T) {
	a := newAPI(t)
	writer := a.account(models.RoleWriter)

	if status := a.do(nil, http.MethodGet, "/api/v1/tasks", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("no token: got %d, want 401", status)
	}
	if status := a.do(&writer, http.MethodPost, "/api/v1/tasks", map[string]any{"title": "x"}, nil); status != http.StatusForbidden {
		t.Errorf("writer creating task: got %d, want 403", status)
	}
	if status := a.do(&writer, http.MethodGet, "/api/v1/tasks/not-a-uuid", nil, nil); status != http.StatusBadRequest {
		t.Errorf("bad id: got %d, want 400", status)
	}
	if status := a.do(&writer, http.MethodGet, "/api/v1/tasks/"+uuid.NewString(), nil, nil); status != http.StatusNotFound {
		t.Errorf("unknown task: got %d, want 404", status)
	}
}

func TestBidToPayoutFlow(t *testing.T) {
	a := newAPI(t)
	admin := a.account(models.RoleAdmin)
	w1 := a.account(models.RoleWriter)
	w2 := a.account(models.RoleWriter)

	task := a.createTask(admin, "500")

	var b1, b2 models.Bid
	if s := a.do(&w1, http.MethodPost, "/api/v1/tasks/"+task.ID.String()+"/bids", map[string]any{"amount": "450", "proposal": "Fast turnaround"}, &b1); s != http.StatusCreated {
		t.Fatalf("place bid 1: %d", s)
	}
	if s := a.do(&w2, http.MethodPost, "/api/v1/tasks/"+task.ID.String()+"/bids", map[string]any{"amount": "480", "proposal": "PhD in chemistry"}, &b2); s != http.StatusCreated {
		t.Fatalf("place bid 2: %d", s)
	}
	if s := a.do(&w1, http.MethodPost, "/api/v1/tasks/"+task.ID.String()+"/bids", map[string]any{"amount": "400", "proposal": "again"}, nil); s != http.StatusConflict {
		t.Errorf("duplicate bid: got %d, want 409", s)
	}
	if s := a.do(&w1, http.MethodPost, "/api/v1/tasks/"+task.ID.String()+"/bids", map[string]any{"amount": "400", "bogus": true}, nil); s != http.StatusBadRequest {
		t.Errorf("unknown field: got %d, want 400", s)
	}

	var res services.Resolution
	if s := a.do(&admin, http.MethodPost, "/api/v1/bids/"+b1.ID.String()+"/approve", nil, &res); s != http.StatusOK {
		t.Fatalf("approve: %d", s)
	}
	if res.Task.Status != models.TaskStatusAssigned || *res.Task.AssignedWriterID != w1.ID {
		t.Fatalf("unexpected task after approve: %+v", res.Task)
	}
	if len(res.Rejected) != 1 || res.Rejected[0].ID != b2.ID {
		t.Fatalf("expected bid 2 auto-rejected, got %+v", res.Rejected)
	}
	if s := a.do(&admin, http.MethodPost, "/api/v1/bids/"+b2.ID.String()+"/approve", nil, nil); s != http.StatusConflict {
		t.Errorf("approve rejected bid: got %d, want 409", s)
	}

	if s := a.do(&w2, http.MethodPost, "/api/v1/tasks/"+task.ID.String()+"/submissions", map[string]any{"file_url": "https://files.example/r.pdf"}, nil); s != http.StatusForbidden {
		t.Errorf("submit by unassigned writer: got %d, want 403", s)
	}
	var sub models.Submission
	if s := a.do(&w1, http.MethodPost, "/api/v1/tasks/"+task.ID.String()+"/submissions", map[string]any{"file_url": "https://files.example/r.pdf"}, &sub); s != http.StatusCreated {
		t.Fatalf("submit: %d", s)
	}
	if s := a.do(&admin, http.MethodPost, "/api/v1/submissions/"+sub.ID.String()+"/review", map[string]any{}, nil); s != http.StatusBadRequest {
		t.Errorf("review without decision: got %d, want 400", s)
	}
	if s := a.do(&admin, http.MethodPost, "/api/v1/submissions/"+sub.ID.String()+"/review", map[string]any{"approved": true}, &sub); s != http.StatusOK {
		t.Fatalf("review: %d", s)
	}

	var wallet struct {
		Balance decimal.Decimal `json:"balance"`
	}
	if s := a.do(&w1, http.MethodGet, "/api/v1/wallet", nil, &wallet); s != http.StatusOK {
		t.Fatalf("wallet: %d", s)
	}
	if !wallet.Balance.Equal(decimal.RequireFromString("450")) {
		t.Errorf("balance = %s, want 450", wallet.Balance)
	}

	var page models.TransactionPage
	if s := a.do(&w1, http.MethodGet, "/api/v1/transactions?writer_id="+w2.ID.String(), nil, &page); s != http.StatusOK {
		t.Fatalf("list transactions: %d", s)
	}
	if page.Total != 1 || page.Data[0].WriterID != w1.ID || page.Data[0].Type != models.TransactionEarning {
		t.Errorf("writer should only see own ledger, got %+v", page)
	}

	if len(a.events.OfKind(notification.KindSubmissionApproved)) != 1 {
		t.Error("expected a submission.approved notification")
	}
}

func TestWalletTransactions(t *testing.T) {
	a := newAPI(t)
	admin := a.account(models.RoleAdmin)
	writer := a.account(models.RoleWriter)
	post := func(amount, typ string) int {
		return a.do(&admin, http.MethodPost, "/api/v1/transactions", map[string]any{
			"writer_id": writer.ID, "amount": amount, "type": typ, "description": "manual adjustment",
		}, nil)
	}

	if s := post("30", "BONUS"); s != http.StatusCreated {
		t.Fatalf("bonus: %d", s)
	}
	if s := post("50", "WITHDRAWAL"); s != http.StatusPaymentRequired {
		t.Errorf("overdraw: got %d, want 402", s)
	}
	if s := post("100000000000", "BONUS"); s != http.StatusBadRequest {
		t.Errorf("amount over the column limit: got %d, want 400", s)
	}
	if s := post("-5", "BONUS"); s != http.StatusBadRequest {
		t.Errorf("negative amount: got %d, want 400", s)
	}
	if s := post("5", "REFUND"); s != http.StatusBadRequest {
		t.Errorf("unknown type: got %d, want 400", s)
	}
	if s := a.do(&admin, http.MethodGet, "/api/v1/transactions?limit=500", nil, nil); s != http.StatusBadRequest {
		t.Errorf("limit over max: got %d, want 400", s)
	}

	var rec models.Reconciliation
	if s := a.do(&admin, http.MethodGet, "/api/v1/writers/"+writer.ID.String()+"/reconciliation", nil, &rec); s != http.StatusOK {
		t.Fatalf("reconcile: %d", s)
	}
	if !rec.Balanced || !rec.Balance.Equal(decimal.RequireFromString("30")) {
		t.Errorf("unexpected reconciliation %+v", rec)
	}
}
