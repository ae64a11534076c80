package alerting

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/application"
	"github.com/stretchr/testify/assert"
)

func TestLogAlerter_SuppressesRepeatsWithinQuietPeriod(t *testing.T) {
	var buf bytes.Buffer
	a := NewLogAlerter(slog.New(slog.NewTextHandler(&buf, nil)), time.Minute)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	alert := application.Alert{Kind: application.AlertStorageTimeout, OrderID: "ORD-1", Message: "ledger lookup failed"}

	a.Alert(context.Background(), alert)
	a.Alert(context.Background(), alert)
	a.Alert(context.Background(), alert)
	assert.Equal(t, 1, strings.Count(buf.String(), "ALERT"))

	now = now.Add(2 * time.Minute)
	a.Alert(context.Background(), alert)

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "ALERT"))
	assert.Contains(t, out, "suppressed=2")
	assert.Contains(t, out, "alert_kind=STORAGE_TIMEOUT")
	assert.Contains(t, out, "order_id=ORD-1")
}

func TestLogAlerter_DistinctOrdersAreNotSuppressed(t *testing.T) {
	var buf bytes.Buffer
	a := NewLogAlerter(slog.New(slog.NewTextHandler(&buf, nil)), time.Minute)

	a.Alert(context.Background(), application.Alert{Kind: application.AlertStorageFailure, OrderID: "ORD-1"})
	a.Alert(context.Background(), application.Alert{Kind: application.AlertStorageFailure, OrderID: "ORD-2"})

	assert.Equal(t, 2, strings.Count(buf.String(), "ALERT"))
}
