package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/writeflow/backend/internal/models"
)

type Accounts struct{ s *Store }

func (s *Store) Accounts() *Accounts { return &Accounts{s: s} }

func (r *Accounts) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, models.NotFoundf("writer %s not found", id)
	}
	return &a, nil
}

func (r *Accounts) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*models.Account, error) {
	return r.GetByID(ctx, id)
}

func (r *Accounts) UpdateBalance(ctx context.Context, _ pgx.Tx, id uuid.UUID, balance decimal.Decimal) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("accounts.UpdateBalance"); err != nil {
		return err
	}
	a, ok := s.accounts[id]
	if !ok {
		return models.NotFoundf("writer %s not found", id)
	}
	if balance.IsNegative() {
		return models.Statef("update balance: constraint users_wallet_balance_check rejected the change")
	}
	a.WalletBalance = balance
	a.UpdatedAt = s.now()
	s.accounts[id] = a
	return nil
}

func (r *Accounts) ListActiveByRole(ctx context.Context, role models.Role) ([]*models.Account, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	var list []*models.Account
	for _, a := range s.accounts {
		if a.Role == role && a.IsActive {
			out := a
			list = append(list, &out)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}
