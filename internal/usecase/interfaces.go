package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankcore/internal/domain"
)

// AccountStore is durable, concurrency-safe storage of account balances.
// Balances are mutated exclusively through CompareAndUpdate; no caller may
// write back a loaded copy unconditionally.
type AccountStore interface {
	// Create inserts a new account. Returns domain.ErrAccountExists if the
	// id is already present.
	Create(ctx context.Context, account *domain.Account) error

	// Get reads the current balance and version. No side effects.
	Get(ctx context.Context, id string) (*domain.Account, error)

	// CompareAndUpdate atomically applies delta to the balance if and only
	// if the stored version equals expectedVersion, incrementing the version
	// on success. The non-negative balance check happens inside the same
	// atomic step. Returns the new account state, or
	// domain.ErrVersionConflict, domain.ErrAccountNotFound,
	// domain.ErrInsufficientFunds.
	CompareAndUpdate(ctx context.Context, id string, expectedVersion int64, delta decimal.Decimal) (*domain.Account, error)

	// List lists accounts with pagination.
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// TransferLog is the append-only transfer record log, owned by the engine.
type TransferLog interface {
	Create(ctx context.Context, record *domain.TransferRecord) error
	MarkCommitted(ctx context.Context, id string, completedAt time.Time) error
	MarkFailed(ctx context.Context, id, reason string, completedAt time.Time) error
	GetByID(ctx context.Context, id string) (*domain.TransferRecord, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.TransferRecord, error)
}

// UserRepository defines persistence for registered users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// RegistrationStore writes a new user and the user's account as one atomic
// unit: either both rows land or neither does.
type RegistrationStore interface {
	CreateUserWithAccount(ctx context.Context, user *domain.User, account *domain.Account) error
}

// LedgerTotals is a snapshot of the aggregates the conservation check needs.
type LedgerTotals struct {
	TotalBalance    decimal.Decimal
	TotalInitial    decimal.Decimal
	DepositTotal    decimal.Decimal
	WithdrawalTotal decimal.Decimal
}

// LedgerRepository defines ledger-wide aggregate queries.
type LedgerRepository interface {
	Totals(ctx context.Context) (LedgerTotals, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Delete releases a key so a later request may claim it again.
	Delete(ctx context.Context, key string) error
}

// EngineMetrics receives transfer engine outcome counters. The engine
// tolerates a nil implementation.
type EngineMetrics interface {
	TransferCommitted(kind domain.TransferKind)
	TransferFailed(kind domain.TransferKind, reason string)
	RetryObserved()
	CompensationRun()
}
