package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus is the lifecycle state of a transfer record.
type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferCommitted TransferStatus = "committed"
	TransferFailed    TransferStatus = "failed"
)

// TransferKind distinguishes peer-to-peer transfers from the symmetric
// single-account paths.
type TransferKind string

const (
	KindTransfer   TransferKind = "transfer"
	KindDeposit    TransferKind = "deposit"
	KindWithdrawal TransferKind = "withdrawal"
)

// TransferRecord is one row of the append-only transfer log. A record is
// created pending and moved exactly once to committed or failed; terminal
// records are never mutated.
type TransferRecord struct {
	ID            string
	Kind          TransferKind
	SenderID      string
	ReceiverID    string
	Amount        decimal.Decimal
	Status        TransferStatus
	FailureReason string
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

// Terminal reports whether the record reached a final status.
func (t *TransferRecord) Terminal() bool {
	return t.Status == TransferCommitted || t.Status == TransferFailed
}

// Validate checks the transfer preconditions that never require storage:
// a positive amount and, for peer-to-peer transfers, distinct accounts.
func (t *TransferRecord) Validate() error {
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidTransfer
	}

	if t.Kind == KindTransfer && t.SenderID == t.ReceiverID {
		return ErrInvalidTransfer
	}

	return nil
}
