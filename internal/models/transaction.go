package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionEarning    TransactionType = "EARNING"
	TransactionWithdrawal TransactionType = "WITHDRAWAL"
	TransactionBonus      TransactionType = "BONUS"
	TransactionPenalty    TransactionType = "PENALTY"
)

func ParseTransactionType(s string) (TransactionType, error) {
	switch tt := TransactionType(s); tt {
	case TransactionEarning, TransactionWithdrawal, TransactionBonus, TransactionPenalty:
		return tt, nil
	default:
		return "", Validationf("unknown transaction type %q", s)
	}
}

// Signed returns amount with the sign this type applies to a wallet.
func (t TransactionType) Signed(amount decimal.Decimal) decimal.Decimal {
	switch t {
	case TransactionWithdrawal, TransactionPenalty:
		return amount.Neg()
	default:
		return amount
	}
}

// Transaction is an append-only ledger row. Amount is signed.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	WriterID    uuid.UUID       `json:"writer_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TransactionRequest is the input of the wallet transaction engine. Amount is
// always supplied positive; Type decides the sign.
type TransactionRequest struct {
	WriterID    uuid.UUID
	Amount      decimal.Decimal
	Type        TransactionType
	Description string
}

type TransactionFilter struct {
	WriterID *uuid.UUID
	Type     *TransactionType
	From     *time.Time
	To       *time.Time
	Page     int
	Limit    int
}

// Offset is the number of rows skipped for the filter's page.
func (f TransactionFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type TransactionPage struct {
	Data       []*Transaction `json:"data"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}
