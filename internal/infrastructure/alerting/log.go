// Package alerting delivers operator alerts.
package alerting

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/application"
)

var _ application.Alerter = (*LogAlerter)(nil)

// LogAlerter writes alerts as error records so the log pipeline can page
// on them. Repeats of the same kind and order within the quiet period are
// counted but not logged.
type LogAlerter struct {
	logger *slog.Logger
	quiet  time.Duration
	now    func() time.Time

	mu         sync.Mutex
	lastSent   map[alertKey]time.Time
	suppressed map[alertKey]int
}

type alertKey struct {
	kind    application.AlertKind
	orderID string
}

func NewLogAlerter(logger *slog.Logger, quiet time.Duration) *LogAlerter {
	return &LogAlerter{
		logger:     logger,
		quiet:      quiet,
		now:        time.Now,
		lastSent:   make(map[alertKey]time.Time),
		suppressed: make(map[alertKey]int),
	}
}

func (a *LogAlerter) Alert(ctx context.Context, alert application.Alert) {
	key := alertKey{alert.Kind, alert.OrderID}
	now := a.now()

	a.mu.Lock()
	if last, ok := a.lastSent[key]; ok && a.quiet > 0 && now.Sub(last) < a.quiet {
		a.suppressed[key]++
		a.mu.Unlock()
		return
	}
	repeats := a.suppressed[key]
	delete(a.suppressed, key)
	a.lastSent[key] = now
	a.mu.Unlock()

	attrs := []any{
		"alert_kind", string(alert.Kind),
		"message", alert.Message,
	}
	if alert.OrderID != "" {
		attrs = append(attrs, "order_id", alert.OrderID)
	}
	if alert.Err != nil {
		attrs = append(attrs, "error", alert.Err)
	}
	if repeats > 0 {
		attrs = append(attrs, "suppressed", repeats)
	}
	a.logger.ErrorContext(ctx, "ALERT", attrs...)
}
