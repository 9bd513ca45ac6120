package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewAccount(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name           string
		id             string
		initialBalance decimal.Decimal
		wantErr        error
	}{
		{name: "valid zero balance", id: "alice", initialBalance: decimal.Zero},
		{name: "valid positive balance", id: "bob", initialBalance: decimal.NewFromInt(100)},
		{name: "negative initial balance", id: "carol", initialBalance: decimal.NewFromInt(-1), wantErr: ErrInvalidAmount},
		{name: "empty id", id: "", initialBalance: decimal.Zero, wantErr: ErrInvalidAccountID},
		{name: "id with spaces", id: "a b", initialBalance: decimal.Zero, wantErr: ErrInvalidAccountID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, err := NewAccount(tt.id, tt.initialBalance, now)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if acc.Version != 0 {
				t.Errorf("expected version 0, got %d", acc.Version)
			}

			if !acc.Balance.Equal(tt.initialBalance) {
				t.Errorf("expected balance %s, got %s", tt.initialBalance, acc.Balance)
			}

			if !acc.InitialBalance.Equal(tt.initialBalance) {
				t.Errorf("expected initial balance %s, got %s", tt.initialBalance, acc.InitialBalance)
			}
		})
	}
}

func TestAccountCanDebit(t *testing.T) {
	acc := &Account{ID: "alice", Balance: decimal.NewFromInt(100)}

	if !acc.CanDebit(decimal.NewFromInt(100)) {
		t.Error("debit to exactly zero should be allowed")
	}

	if acc.CanDebit(decimal.NewFromInt(101)) {
		t.Error("debit below zero should not be allowed")
	}
}

func TestAccountApplyDelta(t *testing.T) {
	acc := &Account{ID: "alice", Balance: decimal.NewFromInt(50)}

	got := acc.ApplyDelta(decimal.NewFromInt(-30))
	if !got.Equal(decimal.NewFromInt(20)) {
		t.Errorf("expected 20, got %s", got)
	}

	got = acc.ApplyDelta(decimal.NewFromInt(30))
	if !got.Equal(decimal.NewFromInt(80)) {
		t.Errorf("expected 80, got %s", got)
	}
}
