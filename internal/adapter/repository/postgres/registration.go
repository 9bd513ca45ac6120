package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bankcore/internal/domain"
)

// Registrar implements usecase.RegistrationStore. The user row and the
// username-keyed account row are written in one transaction, so a registered
// user can never exist without its account.
type Registrar struct {
	pool *pgxpool.Pool
}

// NewRegistrar creates a new Registrar.
func NewRegistrar(pool *pgxpool.Pool) *Registrar {
	return &Registrar{pool: pool}
}

// CreateUserWithAccount inserts user and account atomically.
func (r *Registrar) CreateUserWithAccount(ctx context.Context, user *domain.User, account *domain.Account) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin registration: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, username, hashed_password, created_at)
		VALUES ($1, $2, $3, $4)
	`,
		user.ID,
		user.Username,
		user.HashedPassword,
		user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("%w: %s", domain.ErrUserExists, user.Username)
		}

		return fmt.Errorf("insert user: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO accounts (id, balance, initial_balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
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

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit registration: %w", err)
	}

	return nil
}
