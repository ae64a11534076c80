package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/application"
)

// StaleMonitor reports payments that stay pending longer than expected,
// usually because the vendor's notification never arrived. It only
// observes: a payment leaves pending solely through reconciliation.
type StaleMonitor struct {
	payments   application.PaymentReader
	alerter    application.Alerter
	interval   time.Duration
	staleAfter time.Duration
	batchSize  int
	logger     *slog.Logger
	now        func() time.Time
}

func NewStaleMonitor(
	payments application.PaymentReader,
	alerter application.Alerter,
	interval time.Duration,
	staleAfter time.Duration,
	batchSize int,
	logger *slog.Logger,
) *StaleMonitor {
	return &StaleMonitor{
		payments:   payments,
		alerter:    alerter,
		interval:   interval,
		staleAfter: staleAfter,
		batchSize:  batchSize,
		logger:     logger,
		now:        time.Now,
	}
}

func (w *StaleMonitor) Start(ctx context.Context) {
	w.logger.Info("stale payment monitor started",
		"interval", w.interval,
		"stale_after", w.staleAfter)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	if _, err := w.Check(ctx); err != nil {
		w.logger.Error("stale payment check failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stale payment monitor stopping")
			return
		case <-ticker.C:
			if _, err := w.Check(ctx); err != nil {
				w.logger.Error("stale payment check failed", "error", err)
			}
		}
	}
}

// Check runs one pass and returns how many stale payments it found.
func (w *StaleMonitor) Check(ctx context.Context) (int, error) {
	cutoff := w.now().Add(-w.staleAfter)

	stale, err := w.payments.FindStalePending(ctx, cutoff, w.batchSize)
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	for _, p := range stale {
		w.logger.Warn("payment still pending",
			"order_id", p.OrderID,
			"goal_id", p.GoalID,
			"amount", p.Amount().String(),
			"created_at", p.CreatedAt,
			"age", w.now().Sub(p.CreatedAt).Round(time.Second))
	}

	w.alerter.Alert(ctx, application.Alert{
		Kind:    application.AlertStalePayments,
		Message: fmt.Sprintf("%d payment(s) pending for more than %s, oldest %s", len(stale), w.staleAfter, stale[0].OrderID),
	})

	return len(stale), nil
}
