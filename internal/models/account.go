package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleWriter Role = "WRITER"
)

// Account is a platform user. Profile fields are owned by the user service;
// the core only reads them and moves WalletBalance.
type Account struct {
	ID            uuid.UUID       `json:"id"`
	Email         string          `json:"email"`
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	Role          Role            `json:"role"`
	IsActive      bool            `json:"is_active"`
	WalletBalance decimal.Decimal `json:"wallet_balance"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Reconciliation compares a wallet balance with the sum of its ledger.
type Reconciliation struct {
	WriterID       uuid.UUID       `json:"writer_id"`
	Balance        decimal.Decimal `json:"balance"`
	TransactionSum decimal.Decimal `json:"transaction_sum"`
	Balanced       bool            `json:"balanced"`
}

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleWriter:
		return r, nil
	default:
		return "", Validationf("unknown role %q", s)
	}
}
