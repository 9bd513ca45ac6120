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

	"github.com/iho/bankcore/internal/domain"
)

// TransferLog implements usecase.TransferLog.
type TransferLog struct {
	pool *pgxpool.Pool
}

// NewTransferLog creates a new TransferLog.
func NewTransferLog(pool *pgxpool.Pool) *TransferLog {
	return &TransferLog{pool: pool}
}

// Create inserts a pending transfer record.
func (l *TransferLog) Create(ctx context.Context, record *domain.TransferRecord) error {
	query := `
		INSERT INTO transfers (id, kind, sender_id, receiver_id, amount, status, failure_reason, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := l.pool.Exec(ctx, query,
		record.ID,
		string(record.Kind),
		nullableID(record.SenderID),
		nullableID(record.ReceiverID),
		decimalToNumeric(record.Amount),
		string(record.Status),
		nullableText(record.FailureReason),
		timeToPgTimestamptz(record.CreatedAt),
		timePtrToPgTimestamptz(record.CompletedAt),
	)
	if err != nil {
		// The sender/receiver foreign keys reject records naming unknown
		// accounts; surface that as the domain lookup failure.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode {
			return fmt.Errorf("%w: transfer %s references an unknown account", domain.ErrAccountNotFound, record.ID)
		}

		return fmt.Errorf("insert transfer: %w", err)
	}

	return nil
}

// MarkCommitted transitions a pending record to committed. Terminal records
// are immutable, so the transition guards on status.
func (l *TransferLog) MarkCommitted(ctx context.Context, id string, completedAt time.Time) error {
	return l.setTerminal(ctx, id, domain.TransferCommitted, "", completedAt)
}

// MarkFailed transitions a pending record to failed with a reason.
func (l *TransferLog) MarkFailed(ctx context.Context, id string, reason string, completedAt time.Time) error {
	return l.setTerminal(ctx, id, domain.TransferFailed, reason, completedAt)
}

func (l *TransferLog) setTerminal(ctx context.Context, id string, status domain.TransferStatus, reason string, completedAt time.Time) error {
	query := `
		UPDATE transfers
		SET status = $2, failure_reason = $3, completed_at = $4
		WHERE id = $1 AND status = $5
	`

	tag, err := l.pool.Exec(ctx, query,
		id,
		string(status),
		nullableText(reason),
		timeToPgTimestamptz(completedAt),
		string(domain.TransferPending),
	)
	if err != nil {
		return fmt.Errorf("update transfer status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s is not pending", domain.ErrTransferNotFound, id)
	}

	return nil
}

// GetByID retrieves a transfer record by ID.
func (l *TransferLog) GetByID(ctx context.Context, id string) (*domain.TransferRecord, error) {
	query := `
		SELECT id, kind, sender_id, receiver_id, amount, status, failure_reason, created_at, completed_at
		FROM transfers
		WHERE id = $1
	`

	record, err := scanTransfer(l.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTransferNotFound, id)
		}

		return nil, fmt.Errorf("get transfer: %w", err)
	}

	return record, nil
}

// ListByAccount lists records where the account is sender or receiver,
// newest first.
func (l *TransferLog) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.TransferRecord, error) {
	query := `
		SELECT id, kind, sender_id, receiver_id, amount, status, failure_reason, created_at, completed_at
		FROM transfers
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := l.pool.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var records []*domain.TransferRecord
	for rows.Next() {
		record, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func scanTransfer(row pgx.Row) (*domain.TransferRecord, error) {
	var (
		record      domain.TransferRecord
		kind        string
		status      string
		senderID    pgtype.Text
		receiverID  pgtype.Text
		amount      pgtype.Numeric
		reason      pgtype.Text
		createdAt   pgtype.Timestamptz
		completedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&record.ID,
		&kind,
		&senderID,
		&receiverID,
		&amount,
		&status,
		&reason,
		&createdAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Kind = domain.TransferKind(kind)
	record.Status = domain.TransferStatus(status)
	record.SenderID = senderID.String
	record.ReceiverID = receiverID.String
	record.Amount = numericToDecimal(amount)
	record.FailureReason = reason.String
	record.CreatedAt = createdAt.Time

	if completedAt.Valid {
		t := completedAt.Time
		record.CompletedAt = &t
	}

	return &record, nil
}

// nullableID maps the empty account side of deposits and withdrawals to NULL
// so the foreign key does not fire.
func nullableID(id string) pgtype.Text {
	return pgtype.Text{String: id, Valid: id != ""}
}

func nullableText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func timePtrToPgTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}

	return pgtype.Timestamptz{Time: *t, Valid: true}
}
