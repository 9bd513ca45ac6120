package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/bankcore/internal/domain"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
)

// AccountStore implements usecase.AccountStore on top of a pgx pool.
type AccountStore struct {
	pool *pgxpool.Pool
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(pool *pgxpool.Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

// Create inserts a new account. Duplicate IDs map to domain.ErrAccountExists.
func (s *AccountStore) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, balance, initial_balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		account.ID,
		decimalToNumeric(account.Balance),
		decimalToNumeric(account.InitialBalance),
		account.Version,
		timeToPgTimestamptz(account.CreatedAt),
		timeToPgTimestamptz(account.UpdatedAt),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("%w: %s", domain.ErrAccountExists, account.ID)
		}

		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// Get retrieves an account by ID.
func (s *AccountStore) Get(ctx context.Context, id string) (*domain.Account, error) {
	query := `
		SELECT id, balance, initial_balance, version, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	account, err := scanAccount(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
		}

		return nil, fmt.Errorf("get account: %w", err)
	}

	return account, nil
}

// CompareAndUpdate applies delta to the balance only if the stored version
// still equals expectedVersion and the resulting balance is non-negative.
// The guards live in a single UPDATE so concurrent writers cannot interleave;
// when no row is updated, a follow-up read classifies the failure.
func (s *AccountStore) CompareAndUpdate(ctx context.Context, id string, expectedVersion int64, delta decimal.Decimal) (*domain.Account, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $3, version = version + 1, updated_at = $4
		WHERE id = $1 AND version = $2 AND balance + $3 >= 0
		RETURNING id, balance, initial_balance, version, created_at, updated_at
	`

	account, err := scanAccount(s.pool.QueryRow(ctx, query,
		id,
		expectedVersion,
		decimalToNumeric(delta),
		timeToPgTimestamptz(time.Now().UTC()),
	))
	if err == nil {
		return account, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("update account: %w", err)
	}

	return nil, s.classifyUpdateMiss(ctx, id, expectedVersion, delta)
}

// classifyUpdateMiss decides why the guarded UPDATE touched no row.
func (s *AccountStore) classifyUpdateMiss(ctx context.Context, id string, expectedVersion int64, delta decimal.Decimal) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if current.Version != expectedVersion {
		return fmt.Errorf("%w: account %s expected version %d, have %d",
			domain.ErrVersionConflict, id, expectedVersion, current.Version)
	}

	if current.Balance.Add(delta).IsNegative() {
		return fmt.Errorf("%w: account %s balance %s, delta %s",
			domain.ErrInsufficientFunds, id, current.Balance, delta)
	}

	// The row changed between the UPDATE and our read. Treat it as a
	// conflict so the caller retries with a fresh snapshot.
	return fmt.Errorf("%w: account %s", domain.ErrVersionConflict, id)
}

// List lists accounts ordered by ID with pagination.
func (s *AccountStore) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	query := `
		SELECT id, balance, initial_balance, version, created_at, updated_at
		FROM accounts
		ORDER BY id
		LIMIT $1 OFFSET $2
	`

	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account   domain.Account
		balance   pgtype.Numeric
		initial   pgtype.Numeric
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&account.ID,
		&balance,
		&initial,
		&account.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.Balance = numericToDecimal(balance)
	account.InitialBalance = numericToDecimal(initial)
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time

	return &account, nil
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
