//go:build integration

package repository_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	writeflow "github.com/writeflow/backend"
	"github.com/writeflow/backend/internal/ledger"
	"github.com/writeflow/backend/internal/models"
	"github.com/writeflow/backend/internal/repository"
	"github.com/writeflow/backend/internal/services"
)

// Run with: TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/repository/

type pgEnv struct {
	pool     *pgxpool.Pool
	uow      *repository.UnitOfWork
	tasks    *repository.TaskRepo
	bids     *repository.BidRepo
	accounts *repository.AccountRepo
	ledger   ledger.Service
	taskSvc  *services.TaskService
	bidSvc   *services.BidService
	resolver *services.Resolver
}

func newPgEnv(t *testing.T) *pgEnv {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	migrations, err := fs.Sub(writeflow.MigrationsFS, "migrations")
	if err != nil {
		t.Fatal(err)
	}
	if err := repository.RunMigrations(url, migrations); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	pool, err := repository.NewPool(ctx, url, repository.PoolOptions{MaxConns: 20})
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)

	uow := repository.NewUnitOfWork(pool)
	tasks := repository.NewTaskRepo(pool)
	bids := repository.NewBidRepo(pool)
	accounts := repository.NewAccountRepo(pool)
	return &pgEnv{
		pool: pool, uow: uow, tasks: tasks, bids: bids, accounts: accounts,
		ledger:   ledger.NewService(uow, accounts, repository.NewTransactionRepo(pool), nil),
		taskSvc:  services.NewTaskService(uow, tasks, bids, nil, nil),
		bidSvc:   services.NewBidService(uow, tasks, bids, nil, nil),
		resolver: services.NewResolver(uow, tasks, bids, nil, nil),
	}
}

func (e *pgEnv) writer(t *testing.T) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := e.pool.QueryRow(context.Background(),
		`INSERT INTO users (email, role) VALUES ($1, 'WRITER') RETURNING id`,
		uuid.NewString()+"@example.com").Scan(&id)
	if err != nil {
		t.Fatalf("insert writer: %v", err)
	}
	return id
}

func (e *pgEnv) openTask(t *testing.T) *models.Task {
	t.Helper()
	task, err := e.taskSvc.Create(context.Background(), models.TaskSpec{
		Title: "Case study", Description: "Supply chain", Subject: "Business", Pages: 5,
		Budget: decimal.RequireFromString("300"), Deadline: time.Now().Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func TestPostgres_ConcurrentApprovalsOnlyOneWins(t *testing.T) {
	env := newPgEnv(t)
	ctx := context.Background()
	task := env.openTask(t)

	const n = 8
	bidIDs := make([]uuid.UUID, n)
	for i := range bidIDs {
		b, err := env.bidSvc.Place(ctx, task.ID, env.writer(t), decimal.RequireFromString("250"), "proposal")
		if err != nil {
			t.Fatalf("place bid: %v", err)
		}
		bidIDs[i] = b.ID
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		stateErrs int
	)
	start := make(chan struct{})
	for _, id := range bidIDs {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			<-start
			_, err := env.resolver.Approve(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, models.ErrState):
				stateErrs++
			default:
				t.Errorf("approve %s: %v", id, err)
			}
		}(id)
	}
	close(start)
	wg.Wait()

	if wins != 1 || stateErrs != n-1 {
		t.Fatalf("wins=%d state errors=%d, want 1 and %d", wins, stateErrs, n-1)
	}
	var approved, pending int
	err := env.pool.QueryRow(ctx,
		`SELECT count(*) FILTER (WHERE status = 'APPROVED'), count(*) FILTER (WHERE status = 'PENDING')
		 FROM bids WHERE task_id = $1`, task.ID).Scan(&approved, &pending)
	if err != nil {
		t.Fatal(err)
	}
	if approved != 1 || pending != 0 {
		t.Errorf("approved=%d pending=%d after the race", approved, pending)
	}
	got, err := env.tasks.GetByID(ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.TaskStatusAssigned || !got.Consistent() {
		t.Errorf("task after race: %+v", got)
	}
}

func TestPostgres_ConstraintsMapToBusinessErrors(t *testing.T) {
	env := newPgEnv(t)
	ctx := context.Background()
	task := env.openTask(t)
	writer := env.writer(t)

	first, err := env.bidSvc.Place(ctx, task.ID, writer, decimal.RequireFromString("200"), "first")
	if err != nil {
		t.Fatal(err)
	}
	dup := *first
	dup.ID = uuid.New()
	err = env.uow.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return env.bids.Create(ctx, tx, &dup)
	})
	if !errors.Is(err, models.ErrConflict) {
		t.Errorf("duplicate (task, writer) bid: expected ErrConflict, got %v", err)
	}

	second, err := env.bidSvc.Place(ctx, task.ID, env.writer(t), decimal.RequireFromString("210"), "second")
	if err != nil {
		t.Fatal(err)
	}
	err = env.uow.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		for _, b := range []*models.Bid{first, second} {
			b.Status = models.BidStatusApproved
			if err := env.bids.UpdateStatus(ctx, tx, b); err != nil {
				return err
			}
		}
		return nil
	})
	if !errors.Is(err, models.ErrConflict) {
		t.Errorf("second approved bid: expected ErrConflict, got %v", err)
	}

	if err := env.taskSvc.Delete(ctx, task.ID); !errors.Is(err, models.ErrConflict) {
		t.Errorf("delete task with bids: expected ErrConflict, got %v", err)
	}

	huge := *task
	huge.ID = uuid.New()
	huge.Budget = decimal.RequireFromString("100000000000")
	err = env.uow.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return env.tasks.Create(ctx, tx, &huge)
	})
	if !errors.Is(err, models.ErrValidation) {
		t.Errorf("budget over NUMERIC(12,2): expected ErrValidation, got %v", err)
	}
}

func TestPostgres_LedgerIsAppendOnlyAndSerialized(t *testing.T) {
	env := newPgEnv(t)
	ctx := context.Background()
	writer := env.writer(t)

	const n = 20
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.ledger.Apply(ctx, models.TransactionRequest{
				WriterID: writer, Amount: decimal.RequireFromString("1.00"), Type: models.TransactionBonus, Description: "streak",
			})
			if err != nil {
				t.Errorf("apply: %v", err)
			}
		}()
	}
	wg.Wait()

	rec, err := env.ledger.Reconcile(ctx, writer)
	if err != nil {
		t.Fatal(err)
	}
	if !rec.Balanced || !rec.Balance.Equal(decimal.NewFromInt(n)) {
		t.Fatalf("after %d concurrent bonuses: %+v", n, rec)
	}

	if _, err := env.pool.Exec(ctx, `UPDATE transactions SET amount = 99 WHERE writer_id = $1`, writer); err == nil {
		t.Error("UPDATE on transactions should be rejected")
	}
	if _, err := env.pool.Exec(ctx, `DELETE FROM transactions WHERE writer_id = $1`, writer); err == nil {
		t.Error("DELETE on transactions should be rejected")
	}
}
