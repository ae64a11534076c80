package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/application"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
	"github.com/jackc/pgx/v5"
)

var _ application.PaymentStore = (*PaymentRepository)(nil)

// PaymentRepository stores payments and the notification ledger.
type PaymentRepository struct {
	db *DB
	q  Executor
}

func NewPaymentRepository(db *DB) *PaymentRepository {
	return &PaymentRepository{db: db, q: db.Pool}
}

func (r *PaymentRepository) withTx(tx pgx.Tx) *PaymentRepository {
	return &PaymentRepository{db: r.db, q: tx}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	m := toDBModel(payment)
	_, err := r.q.Exec(ctx, query,
		m.OrderID,
		m.GoalID,
		m.AmountCents,
		m.Currency,
		m.Status,
		m.DonorName,
		m.DonorEmail,
		m.DonorMessage,
		m.Anonymous,
		m.TransactionRef,
		m.ApprovalCode,
		m.VendorStatus,
		m.FailReason,
		m.CreatedAt,
		m.UpdatedAt,
		m.TerminalAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return domain.NewDuplicateOrderError(payment.OrderID)
		}
		return domain.NewStorageError("create payment", err)
	}

	return nil
}

// FindByOrderID retrieves a payment by order
func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1`

	row := r.q.QueryRow(ctx, query, orderID)
	return scanPayment(row, orderID)
}

// findByOrderIDForUpdate retrieves a payment with row-level lock
func (r *PaymentRepository) findByOrderIDForUpdate(ctx context.Context, orderID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1 FOR UPDATE`

	row := r.q.QueryRow(ctx, query, orderID)
	return scanPayment(row, orderID)
}

func (r *PaymentRepository) LedgerContains(ctx context.Context, orderID, transactionRef string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM notification_ledger WHERE order_id = $1 AND transaction_ref = $2
		)`, orderID, transactionRef).Scan(&exists)
	if err != nil {
		return false, domain.NewStorageError("ledger lookup", err)
	}
	return exists, nil
}

// ApplyTerminal locks the payment row, claims the ledger entry and moves
// the payment out of pending in one transaction.
func (r *PaymentRepository) ApplyTerminal(ctx context.Context, orderID string, outcome domain.Outcome) (*domain.Payment, error) {
	var applied *domain.Payment

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		txRepo := r.withTx(tx)

		payment, err := txRepo.findByOrderIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO notification_ledger (order_id, transaction_ref, status, applied_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (order_id, transaction_ref) DO NOTHING
		`, orderID, outcome.TransactionRef, string(outcome.Status), outcome.At)
		if err != nil {
			return domain.NewStorageError("insert ledger entry", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.NewAlreadyReconciledError(orderID, outcome.TransactionRef)
		}

		if err := payment.Resolve(outcome); err != nil {
			return err
		}

		if err := txRepo.updateTerminal(ctx, payment); err != nil {
			return err
		}

		applied = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	return applied, nil
}

// updateTerminal writes the terminal fields, guarded on the row still
// being pending.
func (r *PaymentRepository) updateTerminal(ctx context.Context, payment *domain.Payment) error {
	m := toDBModel(payment)
	tag, err := r.q.Exec(ctx, `
		UPDATE payments
		SET status = $1,
			transaction_ref = $2, approval_code = $3, vendor_status = $4, fail_reason = $5,
			updated_at = $6, terminal_at = $7
		WHERE order_id = $8 AND status = 'pending'
	`,
		m.Status,
		m.TransactionRef,
		m.ApprovalCode,
		m.VendorStatus,
		m.FailReason,
		m.UpdatedAt,
		m.TerminalAt,
		m.OrderID,
	)
	if err != nil {
		return domain.NewStorageError("update payment", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewAlreadyTerminalError(payment.OrderID, payment.Status)
	}
	return nil
}

func (r *PaymentRepository) Stats(ctx context.Context) (domain.PaymentStats, error) {
	rows, err := r.q.Query(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(amount_cents), 0)
		FROM payments
		GROUP BY status
	`)
	if err != nil {
		return domain.PaymentStats{}, domain.NewStorageError("payment stats", err)
	}
	defer rows.Close()

	stats := domain.PaymentStats{Counts: map[domain.PaymentStatus]int64{}}
	for rows.Next() {
		var (
			status string
			count  int64
			total  int64
		)
		if err := rows.Scan(&status, &count, &total); err != nil {
			return domain.PaymentStats{}, domain.NewStorageError("payment stats", err)
		}
		stats.Counts[domain.PaymentStatus(status)] = count
		if domain.PaymentStatus(status) == domain.StatusCompleted {
			stats.CompletedTotalCents = total
		}
	}
	if err := rows.Err(); err != nil {
		return domain.PaymentStats{}, domain.NewStorageError("payment stats", err)
	}

	return stats, nil
}

// FindStalePending lists pending payments created before the cutoff, oldest first.
func (r *PaymentRepository) FindStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = 'pending'
		  AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, createdBefore, limit)
	if err != nil {
		return nil, domain.NewStorageError("query stale payments", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Payment, error) {
		var m PaymentModel
		err := row.Scan(m.scanTargets()...)
		return toDomainModel(m), err
	})
	if err != nil {
		return nil, domain.NewStorageError("scan stale payments", err)
	}

	return results, nil
}

func (r *PaymentRepository) Ping(ctx context.Context) error {
	return r.db.Pool.Ping(ctx)
}

// scanPayment converts a database row into a domain Payment.
// Returns a not found error if the row doesn't exist.
func scanPayment(row pgx.Row, orderID string) (*domain.Payment, error) {
	var m PaymentModel
	err := row.Scan(m.scanTargets()...)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewPaymentNotFoundError(orderID)
		}
		return nil, domain.NewStorageError("scan payment", fmt.Errorf("order %s: %w", orderID, err))
	}
	return toDomainModel(m), nil
}
