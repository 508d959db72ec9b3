package memstore

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/writeflow/backend/internal/models"
)

type Transactions struct{ s *Store }

func (s *Store) Transactions() *Transactions { return &Transactions{s: s} }

func (r *Transactions) CreateTx(ctx context.Context, _ pgx.Tx, t *models.Transaction) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("transactions.CreateTx"); err != nil {
		return err
	}
	if _, ok := s.accounts[t.WriterID]; !ok {
		return models.Conflictf("append transaction: row is still referenced (transactions_writer_id_fkey)")
	}
	t.CreatedAt = s.now()
	s.transactions = append(s.transactions, *t)
	return nil
}

// List walks the log backwards, which is newest first since entries are only appended.
func (r *Transactions) List(ctx context.Context, f models.TransactionFilter) ([]*models.Transaction, int, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*models.Transaction
	for i := len(s.transactions) - 1; i >= 0; i-- {
		t := s.transactions[i]
		switch {
		case f.WriterID != nil && t.WriterID != *f.WriterID,
			f.Type != nil && t.Type != *f.Type,
			f.From != nil && t.CreatedAt.Before(*f.From),
			f.To != nil && t.CreatedAt.After(*f.To):
			continue
		}
		matched = append(matched, &t)
	}
	total := len(matched)
	page := []*models.Transaction{}
	if off := f.Offset(); off < total {
		end := min(off+f.Limit, total)
		page = append(page, matched[off:end]...)
	}
	return page, total, nil
}

func (r *Transactions) SumByWriter(ctx context.Context, writerID uuid.UUID) (decimal.Decimal, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := decimal.Zero
	for _, t := range s.transactions {
		if t.WriterID == writerID {
			sum = sum.Add(t.Amount)
		}
	}
	return sum, nil
}
