package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTransferRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		record  TransferRecord
		wantErr error
	}{
		{
			name:   "valid transfer",
			record: TransferRecord{Kind: KindTransfer, SenderID: "alice", ReceiverID: "bob", Amount: decimal.NewFromInt(10)},
		},
		{
			name:    "self transfer",
			record:  TransferRecord{Kind: KindTransfer, SenderID: "alice", ReceiverID: "alice", Amount: decimal.NewFromInt(10)},
			wantErr: ErrInvalidTransfer,
		},
		{
			name:    "zero amount",
			record:  TransferRecord{Kind: KindTransfer, SenderID: "alice", ReceiverID: "bob", Amount: decimal.Zero},
			wantErr: ErrInvalidTransfer,
		},
		{
			name:    "negative amount",
			record:  TransferRecord{Kind: KindTransfer, SenderID: "alice", ReceiverID: "bob", Amount: decimal.NewFromInt(-5)},
			wantErr: ErrInvalidTransfer,
		},
		{
			name:   "deposit has no sender",
			record: TransferRecord{Kind: KindDeposit, ReceiverID: "alice", Amount: decimal.NewFromInt(10)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if err != tt.wantErr {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestTransferRecordTerminal(t *testing.T) {
	now := time.Now().UTC()

	pending := TransferRecord{Status: TransferPending}
	if pending.Terminal() {
		t.Error("pending record should not be terminal")
	}

	committed := TransferRecord{Status: TransferCommitted, CompletedAt: &now}
	if !committed.Terminal() {
		t.Error("committed record should be terminal")
	}

	failed := TransferRecord{Status: TransferFailed, CompletedAt: &now}
	if !failed.Terminal() {
		t.Error("failed record should be terminal")
	}
}
