package application

import (
	"context"
	"time"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
)

// PaymentReader is the read side of the payment store.
type PaymentReader interface {
	FindByOrderID(ctx context.Context, orderID string) (*domain.Payment, error)
	Stats(ctx context.Context) (domain.PaymentStats, error)
	FindStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.Payment, error)
}

// PaymentStore is the port for payment persistence.
//
// ApplyTerminal is the single atomic primitive the reconciler relies on: it
// records the ledger entry for (orderID, outcome.TransactionRef) and moves
// the payment out of pending as one unit. It returns ErrAlreadyReconciled
// when the ledger entry exists, ErrAlreadyTerminal when the payment has
// left pending, and ErrPaymentNotFound when no payment exists. In every
// error case nothing is written.
type PaymentStore interface {
	PaymentReader
	Create(ctx context.Context, payment *domain.Payment) error
	LedgerContains(ctx context.Context, orderID, transactionRef string) (bool, error)
	ApplyTerminal(ctx context.Context, orderID string, outcome domain.Outcome) (*domain.Payment, error)
	Ping(ctx context.Context) error
}

// AuditSink persists the notification audit trail.
type AuditSink interface {
	Record(ctx context.Context, rec domain.AuditRecord) error
}

type AlertKind string

const (
	AlertStorageTimeout  AlertKind = "STORAGE_TIMEOUT"
	AlertStorageFailure  AlertKind = "STORAGE_FAILURE"
	AlertReconcilerPanic AlertKind = "RECONCILER_PANIC"
	AlertStalePayments   AlertKind = "STALE_PENDING_PAYMENTS"
)

type Alert struct {
	Kind    AlertKind
	OrderID string
	Message string
	Err     error
}

// Alerter notifies operators of conditions that cannot be surfaced to the
// caller. Implementations must not block for long.
type Alerter interface {
	Alert(ctx context.Context, alert Alert)
}

// RateDecision is the result of a rate limiter check.
type RateDecision struct {
	Allowed    bool
	Window     string
	RetryAfter time.Duration
}

type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateDecision, error)
}
