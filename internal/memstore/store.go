// Package memstore is an in-memory implementation of the repository
// contracts. Units of work are serialized and rolled back from a snapshot,
// which gives the same all-or-nothing behaviour as the Postgres store for a
// single process. It is a test double: the service, ledger and router tests
// run against it, and the server always uses the Postgres repositories.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/writeflow/backend/internal/models"
)

type Store struct {
	txMu sync.Mutex

	mu           sync.RWMutex
	epoch        time.Time
	tick         int64
	tasks        map[uuid.UUID]models.Task
	bids         map[uuid.UUID]models.Bid
	accounts     map[uuid.UUID]models.Account
	transactions []models.Transaction
	submissions  map[uuid.UUID]models.Submission
	faults       map[string]error
}

func New() *Store {
	return &Store{
		epoch:       time.Now().UTC(),
		tasks:       map[uuid.UUID]models.Task{},
		bids:        map[uuid.UUID]models.Bid{},
		accounts:    map[uuid.UUID]models.Account{},
		submissions: map[uuid.UUID]models.Submission{},
		faults:      map[string]error{},
	}
}

// InTx runs fn with exclusive access to the store. If fn fails every change it
// made is discarded. The tx handed to fn is nil; the repositories ignore it.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return &models.StorageError{Op: "begin", Err: err}
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx, nil); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// InjectFault makes the next call of op fail with err. Op names are
// "<entity>.<Method>", e.g. "bids.RejectPending".
func (s *Store) InjectFault(op string, err error) {
	s.mu.Lock()
	s.faults[op] = err
	s.mu.Unlock()
}

// fault must be called with mu held for writing.
func (s *Store) fault(op string) error {
	if err, ok := s.faults[op]; ok {
		delete(s.faults, op)
		return err
	}
	return nil
}

// now returns a strictly increasing timestamp so newest-first ordering is stable.
func (s *Store) now() time.Time {
	s.tick++
	return s.epoch.Add(time.Duration(s.tick) * time.Microsecond)
}

// AddAccount seeds a user. Zero ID and timestamps are filled in.
func (s *Store) AddAccount(a models.Account) models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = s.now()
	a.UpdatedAt = a.CreatedAt
	s.accounts[a.ID] = a
	return a
}

type snapshot struct {
	tasks        map[uuid.UUID]models.Task
	bids         map[uuid.UUID]models.Bid
	accounts     map[uuid.UUID]models.Account
	transactions []models.Transaction
	submissions  map[uuid.UUID]models.Submission
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		tasks:        cloneMap(s.tasks),
		bids:         cloneMap(s.bids),
		accounts:     cloneMap(s.accounts),
		transactions: append([]models.Transaction(nil), s.transactions...),
		submissions:  cloneMap(s.submissions),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = snap.tasks
	s.bids = snap.bids
	s.accounts = snap.accounts
	s.transactions = snap.transactions
	s.submissions = snap.submissions
}

func cloneMap[V any](m map[uuid.UUID]V) map[uuid.UUID]V {
	out := make(map[uuid.UUID]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func uuidPtr(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
