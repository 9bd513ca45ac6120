package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bankcore/internal/domain"
	"github.com/iho/bankcore/internal/usecase"
)

func TestTransferFromDomain(t *testing.T) {
	now := time.Now().UTC()
	completed := now.Add(time.Second)

	record := &domain.TransferRecord{
		ID:          "t-1",
		Kind:        domain.KindTransfer,
		SenderID:    "alice",
		ReceiverID:  "bob",
		Amount:      decimal.RequireFromString("100.50"),
		Status:      domain.TransferCommitted,
		CreatedAt:   now,
		CompletedAt: &completed,
	}

	resp := TransferFromDomain(record)

	assert.Equal(t, "t-1", resp.ID)
	assert.Equal(t, "transfer", resp.Kind)
	assert.Equal(t, "alice", resp.SenderID)
	assert.Equal(t, "bob", resp.ReceiverID)
	assert.Equal(t, "committed", resp.Status)
	assert.True(t, resp.Amount.Equal(decimal.RequireFromString("100.50")))
	require.NotNil(t, resp.CompletedAt)
	assert.Equal(t, completed, *resp.CompletedAt)
}

func TestTransferResponseOmitsEmptyParty(t *testing.T) {
	record := &domain.TransferRecord{
		ID:         "d-1",
		Kind:       domain.KindDeposit,
		ReceiverID: "alice",
		Amount:     decimal.NewFromInt(25),
		Status:     domain.TransferCommitted,
	}

	body, err := json.Marshal(TransferFromDomain(record))
	require.NoError(t, err)

	assert.NotContains(t, string(body), "sender_id")
	assert.NotContains(t, string(body), "failure_reason")
	assert.Contains(t, string(body), `"receiver_id":"alice"`)
}

func TestTransferResultFromUseCase(t *testing.T) {
	result := &usecase.TransferResult{
		Record: &domain.TransferRecord{
			ID:     "t-2",
			Kind:   domain.KindTransfer,
			Amount: decimal.NewFromInt(10),
			Status: domain.TransferCommitted,
		},
		SenderBalance:   decimal.NewFromInt(90),
		ReceiverBalance: decimal.NewFromInt(110),
	}

	resp := TransferResultFromUseCase(result)

	require.NotNil(t, resp.Transfer)
	assert.Equal(t, "t-2", resp.Transfer.ID)
	assert.True(t, resp.SenderBalance.Equal(decimal.NewFromInt(90)))
	assert.True(t, resp.ReceiverBalance.Equal(decimal.NewFromInt(110)))
}

func TestUserResponseHidesCredentials(t *testing.T) {
	user := &domain.User{
		ID:             "u-1",
		Username:       "alice",
		HashedPassword: "$2a$10$secret",
		CreatedAt:      time.Now().UTC(),
	}

	body, err := json.Marshal(UserFromDomain(user))
	require.NoError(t, err)

	assert.NotContains(t, string(body), "password")
	assert.NotContains(t, string(body), "secret")
	assert.Contains(t, string(body), `"username":"alice"`)
}

func TestAccountsFromDomain(t *testing.T) {
	now := time.Now().UTC()

	accounts := []*domain.Account{
		{ID: "a", Balance: decimal.NewFromInt(1), CreatedAt: now, UpdatedAt: now},
		{ID: "b", Balance: decimal.NewFromInt(2), Version: 3, CreatedAt: now, UpdatedAt: now},
	}

	resp := AccountsFromDomain(accounts)

	require.Len(t, resp, 2)
	assert.Equal(t, "a", resp[0].ID)
	assert.Equal(t, int64(3), resp[1].Version)
}
