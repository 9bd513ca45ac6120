package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/bankcore/internal/domain"
)

const (
	defaultMaxAttempts = 5
	defaultRetryDelay  = 10 * time.Millisecond

	// compensationAlarmEvery controls how often a stuck compensation loop
	// escalates from warn to error logging.
	compensationAlarmEvery = 10
)

// EngineConfig tunes the transfer engine retry behavior.
type EngineConfig struct {
	// MaxAttempts bounds how many times a transfer is retried after a
	// version conflict before failing with ErrContention.
	MaxAttempts int
	// RetryDelay is the initial randomized delay between retries.
	RetryDelay time.Duration
	// Timeout caps the wall-clock time of a single Transfer, Deposit or
	// Withdraw call, surfacing as ErrTransferTimeout. Zero means the caller's
	// context is the only deadline. Compensation is not subject to it.
	Timeout time.Duration
}

// TransferResult carries the post-transfer balances and the log record.
type TransferResult struct {
	Record          *domain.TransferRecord
	SenderBalance   decimal.Decimal
	ReceiverBalance decimal.Decimal
}

// TransferEngine executes balance movements as all-or-nothing units on top
// of the account store's compare-and-update primitive. Concurrency safety
// comes entirely from per-account optimistic versioning; unrelated transfers
// never serialize against each other.
type TransferEngine struct {
	accounts    AccountStore
	log         TransferLog
	idGen       IDGenerator
	logger      zerolog.Logger
	metrics     EngineMetrics
	maxAttempts int
	retryDelay  time.Duration
	timeout     time.Duration
}

// NewTransferEngine creates a new TransferEngine. metrics may be nil.
func NewTransferEngine(
	accounts AccountStore,
	log TransferLog,
	idGen IDGenerator,
	logger zerolog.Logger,
	metrics EngineMetrics,
	cfg EngineConfig,
) *TransferEngine {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}

	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}

	if metrics == nil {
		metrics = nopEngineMetrics{}
	}

	return &TransferEngine{
		accounts:    accounts,
		log:         log,
		idGen:       idGen,
		logger:      logger,
		metrics:     metrics,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		timeout:     cfg.Timeout,
	}
}

// withDeadline applies the configured per-transfer deadline, if any.
func (e *TransferEngine) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, e.timeout)
}

// Transfer moves amount from sender to receiver. On return the system is in
// either the pre-transfer or post-transfer state, never partially applied.
func (e *TransferEngine) Transfer(ctx context.Context, senderID, receiverID string, amount decimal.Decimal) (*TransferResult, error) {
	ctx, cancel := e.withDeadline(ctx)
	defer cancel()

	rec := &domain.TransferRecord{
		ID:         e.idGen.Generate(),
		Kind:       domain.KindTransfer,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     amount,
		Status:     domain.TransferPending,
		CreatedAt:  time.Now().UTC(),
	}

	// Preconditions never touch account storage.
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	// Both parties must exist before the pending record is written: the log
	// carries foreign keys to accounts, so a record naming an unknown
	// account could never be inserted.
	if err := e.verifyAccounts(ctx, senderID, receiverID); err != nil {
		return nil, err
	}

	if err := e.log.Create(ctx, rec); err != nil {
		return nil, err
	}

	return e.run(ctx, rec, e.attemptTransfer)
}

// Deposit credits an account from outside the ledger.
func (e *TransferEngine) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (*TransferResult, error) {
	ctx, cancel := e.withDeadline(ctx)
	defer cancel()

	rec := &domain.TransferRecord{
		ID:         e.idGen.Generate(),
		Kind:       domain.KindDeposit,
		ReceiverID: accountID,
		Amount:     amount,
		Status:     domain.TransferPending,
		CreatedAt:  time.Now().UTC(),
	}

	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	if err := e.verifyAccounts(ctx, accountID); err != nil {
		return nil, err
	}

	if err := e.log.Create(ctx, rec); err != nil {
		return nil, err
	}

	return e.run(ctx, rec, e.attemptSingle)
}

// Withdraw debits an account to outside the ledger.
func (e *TransferEngine) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (*TransferResult, error) {
	ctx, cancel := e.withDeadline(ctx)
	defer cancel()

	rec := &domain.TransferRecord{
		ID:        e.idGen.Generate(),
		Kind:      domain.KindWithdrawal,
		SenderID:  accountID,
		Amount:    amount,
		Status:    domain.TransferPending,
		CreatedAt: time.Now().UTC(),
	}

	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	if err := e.verifyAccounts(ctx, accountID); err != nil {
		return nil, err
	}

	if err := e.log.Create(ctx, rec); err != nil {
		return nil, err
	}

	return e.run(ctx, rec, e.attemptSingle)
}

// verifyAccounts confirms each named account exists. No version is pinned
// here; the attempt functions re-read and CAS on whatever state they find.
func (e *TransferEngine) verifyAccounts(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if _, err := e.accounts.Get(ctx, id); err != nil {
			return lookupError(err, id)
		}
	}

	return nil
}

// run drives the bounded retry loop around a single attempt function.
// Version conflicts are a signal, not a failure: they trigger a re-read and
// a full retry behind a randomized delay, up to the attempt budget.
func (e *TransferEngine) run(
	ctx context.Context,
	rec *domain.TransferRecord,
	attempt func(context.Context, *domain.TransferRecord) (*TransferResult, error),
) (*TransferResult, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.retryDelay
	bo.MaxInterval = time.Second
	bo.MaxElapsedTime = 0

	for i := 0; i < e.maxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return nil, e.fail(ctx, rec, fmt.Errorf("%w: %v", domain.ErrTransferTimeout, err))
		}

		res, err := attempt(ctx, rec)
		if err == nil {
			e.commit(ctx, rec)
			return res, nil
		}

		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, e.fail(ctx, rec, err)
		}

		e.metrics.RetryObserved()

		if i == e.maxAttempts-1 {
			break
		}

		if serr := sleepCtx(ctx, bo.NextBackOff()); serr != nil {
			return nil, e.fail(ctx, rec, fmt.Errorf("%w: %v", domain.ErrTransferTimeout, serr))
		}
	}

	return nil, e.fail(ctx, rec, fmt.Errorf("%w: %d attempts", domain.ErrContention, e.maxAttempts))
}

type leg struct {
	accountID       string
	expectedVersion int64
	delta           decimal.Decimal
}

// attemptTransfer performs one optimistic attempt of a two-account transfer.
// Legs are applied in lexicographic account-id order so that opposing
// transfers over the same pair contend deterministically.
func (e *TransferEngine) attemptTransfer(ctx context.Context, rec *domain.TransferRecord) (*TransferResult, error) {
	sender, err := e.accounts.Get(ctx, rec.SenderID)
	if err != nil {
		return nil, lookupError(err, rec.SenderID)
	}

	receiver, err := e.accounts.Get(ctx, rec.ReceiverID)
	if err != nil {
		return nil, lookupError(err, rec.ReceiverID)
	}

	if !sender.CanDebit(rec.Amount) {
		return nil, fmt.Errorf("%w: account %s holds %s, transfer needs %s",
			domain.ErrInsufficientFunds, sender.ID, sender.Balance, rec.Amount)
	}

	first := leg{sender.ID, sender.Version, rec.Amount.Neg()}
	second := leg{receiver.ID, receiver.Version, rec.Amount}
	if second.accountID < first.accountID {
		first, second = second, first
	}

	firstState, err := e.accounts.CompareAndUpdate(ctx, first.accountID, first.expectedVersion, first.delta)
	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, domain.ErrVersionConflict) {
			return nil, fmt.Errorf("%w: %v", domain.ErrTransferTimeout, err)
		}

		return nil, err
	}

	secondState, err := e.accounts.CompareAndUpdate(ctx, second.accountID, second.expectedVersion, second.delta)
	if err != nil {
		// One leg is applied; conservation requires undoing it before
		// surfacing anything to the caller.
		e.compensate(ctx, rec, first.accountID, first.delta.Neg())

		switch {
		case errors.Is(err, domain.ErrVersionConflict):
			return nil, err
		case errors.Is(err, domain.ErrInsufficientFunds):
			return nil, err
		case ctx.Err() != nil:
			return nil, fmt.Errorf("%w: %v", domain.ErrTransferTimeout, err)
		default:
			return nil, fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
		}
	}

	res := &TransferResult{Record: rec}
	for _, state := range []*domain.Account{firstState, secondState} {
		switch state.ID {
		case rec.SenderID:
			res.SenderBalance = state.Balance
		case rec.ReceiverID:
			res.ReceiverBalance = state.Balance
		}
	}

	return res, nil
}

// attemptSingle performs one optimistic attempt of a deposit or withdrawal.
func (e *TransferEngine) attemptSingle(ctx context.Context, rec *domain.TransferRecord) (*TransferResult, error) {
	accountID := rec.ReceiverID
	delta := rec.Amount
	if rec.Kind == domain.KindWithdrawal {
		accountID = rec.SenderID
		delta = rec.Amount.Neg()
	}

	account, err := e.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, lookupError(err, accountID)
	}

	if rec.Kind == domain.KindWithdrawal && !account.CanDebit(rec.Amount) {
		return nil, fmt.Errorf("%w: account %s holds %s, withdrawal needs %s",
			domain.ErrInsufficientFunds, account.ID, account.Balance, rec.Amount)
	}

	state, err := e.accounts.CompareAndUpdate(ctx, accountID, account.Version, delta)
	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, domain.ErrVersionConflict) {
			return nil, fmt.Errorf("%w: %v", domain.ErrTransferTimeout, err)
		}

		return nil, err
	}

	res := &TransferResult{Record: rec}
	if rec.Kind == domain.KindWithdrawal {
		res.SenderBalance = state.Balance
	} else {
		res.ReceiverBalance = state.Balance
	}

	return res, nil
}

// compensate re-applies the inverse of an already-applied leg. It retries
// until it succeeds, detached from the caller's cancellation: abandoning it
// would leave the ledger with a debited-but-uncredited account.
func (e *TransferEngine) compensate(ctx context.Context, rec *domain.TransferRecord, accountID string, delta decimal.Decimal) {
	ctx = context.WithoutCancel(ctx)

	e.metrics.CompensationRun()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.retryDelay
	bo.MaxInterval = time.Second
	bo.MaxElapsedTime = 0

	attempts := 0
	op := func() error {
		attempts++

		account, err := e.accounts.Get(ctx, accountID)
		if err == nil {
			_, err = e.accounts.CompareAndUpdate(ctx, accountID, account.Version, delta)
		}

		if err != nil {
			evt := e.logger.Warn()
			if attempts%compensationAlarmEvery == 0 {
				evt = e.logger.Error()
			}

			evt.Err(err).
				Str("transfer_id", rec.ID).
				Str("account_id", accountID).
				Int("attempts", attempts).
				Msg("compensation not yet applied, retrying")

			return err
		}

		return nil
	}

	// Never returns an error: the backoff has no elapsed-time limit.
	_ = backoff.Retry(op, bo)

	e.logger.Warn().
		Str("transfer_id", rec.ID).
		Str("account_id", accountID).
		Str("delta", delta.String()).
		Int("attempts", attempts).
		Msg("compensated partially applied transfer")
}

// commit moves the record to its terminal committed state. The balances are
// already durable at this point, so a log failure is reported but does not
// fail the transfer.
func (e *TransferEngine) commit(ctx context.Context, rec *domain.TransferRecord) {
	now := time.Now().UTC()

	if err := e.log.MarkCommitted(context.WithoutCancel(ctx), rec.ID, now); err != nil {
		e.logger.Error().Err(err).Str("transfer_id", rec.ID).Msg("failed to mark transfer committed")
	}

	rec.Status = domain.TransferCommitted
	rec.CompletedAt = &now

	e.metrics.TransferCommitted(rec.Kind)
}

// fail moves the record to its terminal failed state and returns cause.
func (e *TransferEngine) fail(ctx context.Context, rec *domain.TransferRecord, cause error) error {
	now := time.Now().UTC()

	if err := e.log.MarkFailed(context.WithoutCancel(ctx), rec.ID, cause.Error(), now); err != nil {
		e.logger.Error().Err(err).Str("transfer_id", rec.ID).Msg("failed to mark transfer failed")
	}

	rec.Status = domain.TransferFailed
	rec.FailureReason = cause.Error()
	rec.CompletedAt = &now

	e.metrics.TransferFailed(rec.Kind, failureReason(cause))

	return cause
}

// failureReason maps an error to a low-cardinality metrics label.
func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrContention):
		return "contention"
	case errors.Is(err, domain.ErrTransferTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrTransferFailed):
		return "storage_failure"
	default:
		return "other"
	}
}

func lookupError(err error, accountID string) error {
	if errors.Is(err, domain.ErrAccountNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, accountID)
	}

	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type nopEngineMetrics struct{}

func (nopEngineMetrics) TransferCommitted(domain.TransferKind)      {}
func (nopEngineMetrics) TransferFailed(domain.TransferKind, string) {}
func (nopEngineMetrics) RetryObserved()                             {}
func (nopEngineMetrics) CompensationRun()                           {}
