package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"runtime/debug"
	"time"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/application"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/signing"
	"github.com/google/uuid"
)

// ReconcileResult is the logged disposition of one notification. Every
// result is acknowledged to the vendor.
type ReconcileResult string

const (
	ResultApplied            ReconcileResult = "APPLIED"
	ResultDuplicate          ReconcileResult = "DUPLICATE"
	ResultMissingOrderID     ReconcileResult = "MISSING_ORDER_ID"
	ResultSourceRejected     ReconcileResult = "SOURCE_REJECTED"
	ResultInvalidSignature   ReconcileResult = "INVALID_SIGNATURE"
	ResultNonTerminal        ReconcileResult = "NON_TERMINAL"
	ResultUnrecognizedStatus ReconcileResult = "UNRECOGNIZED_STATUS"
	ResultUnknownOrder       ReconcileResult = "UNKNOWN_ORDER"
	ResultAlreadyTerminal    ReconcileResult = "ALREADY_TERMINAL"
	ResultStorageUnavailable ReconcileResult = "STORAGE_UNAVAILABLE"
	ResultInternalError      ReconcileResult = "INTERNAL_ERROR"
)

const defaultStoreTimeout = 5 * time.Second

type WebhookReconciler struct {
	store        application.PaymentStore
	audit        application.AuditSink
	alerter      application.Alerter
	engine       *signing.Engine
	scope        signing.Scope
	storeTimeout time.Duration
	allowed      []netip.Prefix
	logger       *slog.Logger
	now          func() time.Time
}

type ReconcilerOption func(*WebhookReconciler)

// WithStoreTimeout bounds every storage call made while reconciling.
func WithStoreTimeout(d time.Duration) ReconcilerOption {
	return func(r *WebhookReconciler) {
		if d > 0 {
			r.storeTimeout = d
		}
	}
}

// WithAllowedSources restricts accepted notifications to the given
// networks. An empty list accepts every source.
func WithAllowedSources(prefixes []netip.Prefix) ReconcilerOption {
	return func(r *WebhookReconciler) { r.allowed = prefixes }
}

func WithReconcilerClock(now func() time.Time) ReconcilerOption {
	return func(r *WebhookReconciler) { r.now = now }
}

func NewWebhookReconciler(
	store application.PaymentStore,
	audit application.AuditSink,
	alerter application.Alerter,
	engine *signing.Engine,
	scope signing.Scope,
	logger *slog.Logger,
	opts ...ReconcilerOption,
) *WebhookReconciler {
	r := &WebhookReconciler{
		store:        store,
		audit:        audit,
		alerter:      alerter,
		engine:       engine,
		scope:        scope,
		storeTimeout: defaultStoreTimeout,
		logger:       logger,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile applies one vendor notification. It never returns an error and
// never panics: the caller acknowledges whatever the result.
func (r *WebhookReconciler) Reconcile(ctx context.Context, n domain.Notification) (result ReconcileResult) {
	// A delivery is a complete unit of work even if the sender hangs up.
	ctx = context.WithoutCancel(ctx)

	var detail string
	logger := r.logger.With(
		"order_id", n.OrderID(),
		"transaction_ref", n.TransactionRef(),
		"vendor_status", n.VendorStatus(),
	)

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("panic while reconciling notification",
				"panic", rec,
				"stack", string(debug.Stack()))
			r.alerter.Alert(ctx, application.Alert{
				Kind:    application.AlertReconcilerPanic,
				OrderID: n.OrderID(),
				Message: fmt.Sprintf("panic: %v", rec),
			})
			result = ResultInternalError
			detail = fmt.Sprint(rec)
		}
		r.record(ctx, n, result, detail, logger)
	}()

	if !r.sourceAllowed(n.SourceIP) {
		logger.Warn("notification from disallowed source", "source_ip", n.SourceIP)
		return ResultSourceRejected
	}

	orderID := n.OrderID()
	if orderID == "" {
		logger.Warn("notification without order id")
		return ResultMissingOrderID
	}
	transactionRef := n.TransactionRef()

	seen, err := withTimeout(ctx, r.storeTimeout, func(ctx context.Context) (bool, error) {
		return r.store.LedgerContains(ctx, orderID, transactionRef)
	})
	if err != nil {
		detail = err.Error()
		return r.storageFailure(ctx, orderID, "ledger lookup", err, logger)
	}
	if seen {
		logger.Info("duplicate notification ignored")
		return ResultDuplicate
	}

	ok, err := r.engine.VerifyFields(n.Fields, r.scope)
	if err != nil || !ok {
		if err != nil {
			detail = err.Error()
		}
		logger.Warn("notification signature rejected",
			"scope", r.scope.String(),
			"error", err)
		return ResultInvalidSignature
	}

	status, class := MapVendorStatus(n.VendorStatus())
	switch class {
	case StatusNonTerminal:
		logger.Info("non-terminal vendor status, nothing to apply")
		return ResultNonTerminal
	case StatusUnrecognized:
		logger.Warn("unrecognized vendor status, nothing to apply")
		return ResultUnrecognizedStatus
	}

	payment, err := withTimeout(ctx, r.storeTimeout, func(ctx context.Context) (*domain.Payment, error) {
		return r.store.FindByOrderID(ctx, orderID)
	})
	if errors.Is(err, domain.ErrPaymentNotFound) {
		logger.Info("notification for unknown order")
		return ResultUnknownOrder
	}
	if err != nil {
		detail = err.Error()
		return r.storageFailure(ctx, orderID, "payment lookup", err, logger)
	}
	if payment.Status.IsTerminal() {
		logger.Info("payment already terminal", "status", payment.Status)
		return ResultAlreadyTerminal
	}

	outcome := domain.Outcome{
		Status:         status,
		TransactionRef: transactionRef,
		ApprovalCode:   n.ApprovalCode(),
		VendorStatus:   n.VendorStatus(),
		FailReason:     n.FailReason(),
		At:             r.now(),
	}

	_, err = withTimeout(ctx, r.storeTimeout, func(ctx context.Context) (*domain.Payment, error) {
		return r.store.ApplyTerminal(ctx, orderID, outcome)
	})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrAlreadyReconciled):
		logger.Info("notification applied concurrently")
		return ResultDuplicate
	case errors.Is(err, domain.ErrAlreadyTerminal):
		logger.Info("payment reached terminal state concurrently")
		return ResultAlreadyTerminal
	case errors.Is(err, domain.ErrPaymentNotFound):
		return ResultUnknownOrder
	default:
		detail = err.Error()
		return r.storageFailure(ctx, orderID, "apply outcome", err, logger)
	}

	logger.Info("payment reconciled", "status", status)
	return ResultApplied
}

func (r *WebhookReconciler) sourceAllowed(ip string) bool {
	if len(r.allowed) == 0 {
		return true
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range r.allowed {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func (r *WebhookReconciler) storageFailure(ctx context.Context, orderID, op string, err error, logger *slog.Logger) ReconcileResult {
	kind := application.AlertStorageFailure
	if errors.Is(err, context.DeadlineExceeded) {
		kind = application.AlertStorageTimeout
	}
	logger.Error("storage unavailable while reconciling", "operation", op, "error", err)
	r.alerter.Alert(ctx, application.Alert{
		Kind:    kind,
		OrderID: orderID,
		Message: fmt.Sprintf("%s failed while reconciling notification", op),
		Err:     err,
	})
	return ResultStorageUnavailable
}

func (r *WebhookReconciler) record(ctx context.Context, n domain.Notification, result ReconcileResult, detail string, logger *slog.Logger) {
	if r.audit == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			logger.Error("panic while writing audit record", "panic", p)
		}
	}()

	rec := domain.AuditRecord{
		ID:             uuid.NewString(),
		OrderID:        n.OrderID(),
		TransactionRef: n.TransactionRef(),
		VendorStatus:   n.VendorStatus(),
		Outcome:        string(result),
		Detail:         detail,
		SourceIP:       n.SourceIP,
		Fields:         n.Fields.Clone(),
		ReceivedAt:     n.ReceivedAt,
	}
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = r.now()
	}

	_, err := withTimeout(ctx, r.storeTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.audit.Record(ctx, rec)
	})
	if err != nil {
		logger.Warn("failed to write audit record", "error", err)
	}
}

func withTimeout[T any](ctx context.Context, d time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return op(ctx)
}
