package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/iho/bankcore/internal/domain"
	"github.com/iho/bankcore/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	pool    *pgxpool.Pool
	retrier *Retrier
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{
		pool:    pool,
		retrier: NewRetrier(zerolog.Nop()),
	}
}

// WithLogger attaches a logger to the repository's retry path.
func (r *LedgerRepository) WithLogger(logger zerolog.Logger) *LedgerRepository {
	r.retrier = NewRetrier(logger)
	return r
}

// Totals aggregates the balances and the committed external flows in one
// query so the conservation check sees a single consistent snapshot.
func (r *LedgerRepository) Totals(ctx context.Context) (usecase.LedgerTotals, error) {
	query := `
		SELECT
			(SELECT COALESCE(SUM(balance), 0) FROM accounts),
			(SELECT COALESCE(SUM(initial_balance), 0) FROM accounts),
			(SELECT COALESCE(SUM(amount), 0) FROM transfers WHERE kind = $1 AND status = $3),
			(SELECT COALESCE(SUM(amount), 0) FROM transfers WHERE kind = $2 AND status = $3)
	`

	var (
		balance    pgtype.Numeric
		initial    pgtype.Numeric
		deposits   pgtype.Numeric
		withdrawal pgtype.Numeric
	)

	// The aggregate can lose a serialization race against committing
	// transfers, so run it through the retrier.
	err := r.retrier.Retry(ctx, func() error {
		return r.pool.QueryRow(ctx, query,
			string(domain.KindDeposit),
			string(domain.KindWithdrawal),
			string(domain.TransferCommitted),
		).Scan(&balance, &initial, &deposits, &withdrawal)
	})
	if err != nil {
		return usecase.LedgerTotals{}, fmt.Errorf("ledger totals: %w", err)
	}

	return usecase.LedgerTotals{
		TotalBalance:    numericToDecimal(balance),
		TotalInitial:    numericToDecimal(initial),
		DepositTotal:    numericToDecimal(deposits),
		WithdrawalTotal: numericToDecimal(withdrawal),
	}, nil
}
