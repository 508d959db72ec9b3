package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BidStatus string

const (
	BidStatusPending  BidStatus = "PENDING"
	BidStatusApproved BidStatus = "APPROVED"
	BidStatusRejected BidStatus = "REJECTED"
)

type Bid struct {
	ID        uuid.UUID       `json:"id"`
	TaskID    uuid.UUID       `json:"task_id"`
	WriterID  uuid.UUID       `json:"writer_id"`
	Amount    decimal.Decimal `json:"amount"`
	Proposal  string          `json:"proposal"`
	Status    BidStatus       `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Approve moves a PENDING bid to APPROVED. Resolved bids are immutable.
func (b *Bid) Approve() error {
	if b.Status != BidStatusPending {
		return Statef("bid %s is %s, not PENDING", b.ID, b.Status)
	}
	b.Status = BidStatusApproved
	return nil
}

// Reject moves a PENDING bid to REJECTED.
func (b *Bid) Reject() error {
	if b.Status != BidStatusPending {
		return Statef("bid %s is %s, not PENDING", b.ID, b.Status)
	}
	b.Status = BidStatusRejected
	return nil
}
