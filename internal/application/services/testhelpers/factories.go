package testhelpers

import (
	"context"
	"testing"
	"time"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/application"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/application/services"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/config"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/signing"
	"github.com/stretchr/testify/require"
)

const (
	StoreName    = "1100000001"
	SharedSecret = "test-shared-secret"
)

func Engine(t *testing.T) *signing.Engine {
	t.Helper()
	e, err := signing.NewEngine(SharedSecret, signing.Base64)
	require.NoError(t, err)
	return e
}

func OutboundScope() signing.Scope {
	return signing.MustScope("outbound", 1, config.DefaultOutboundFields, "hashExtended")
}

func NotificationScope() signing.Scope {
	return signing.MustScope("notification", 1, config.DefaultNotificationFields,
		"notification_hash", "response_hash", "hash")
}

func Warsaw(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Warsaw")
	require.NoError(t, err)
	return loc
}

func Profile(t *testing.T) services.RequestProfile {
	t.Helper()
	return services.RequestProfile{
		StoreName:       StoreName,
		GatewayURL:      "https://test.ipg-online.com/connect/gateway/processing",
		Currency:        "985",
		TxnType:         "sale",
		CheckoutOption:  "combinedpage",
		PaymentMethod:   "M",
		Location:        Warsaw(t),
		Limits:          domain.AmountLimits{Min: domain.MustParseAmount("1.00"), Max: domain.MustParseAmount("5000.00")},
		SuccessURL:      "https://example.org/platnosc/{order_id}/status?result=success",
		FailURL:         "https://example.org/platnosc/{order_id}/status?result=failure",
		NotificationURL: "https://api.example.org/api/payments/webhooks/fiserv/s2s",
	}
}

// CreatePendingPayment stores a pending payment for orderID.
func CreatePendingPayment(t *testing.T, store application.PaymentStore, orderID, amount string) *domain.Payment {
	t.Helper()
	p, err := domain.NewPayment(orderID, "goal-1", domain.MustParseAmount(amount), "985", domain.Donor{}, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), p))
	return p
}

// NotificationFields returns an unsigned notification body for orderID.
func NotificationFields(orderID, amount, status, transactionRef string) domain.Fields {
	return domain.Fields{
		domain.FieldOrderID:        orderID,
		domain.FieldChargeTotal:    amount,
		domain.FieldCurrency:       "985",
		domain.FieldStatus:         status,
		domain.FieldStoreName:      StoreName,
		domain.FieldTxnDateTime:    "2026:03:01-10:15:00",
		domain.FieldApprovalCode:   "Y:123456:0123456789:PPX :1234",
		domain.FieldTransactionRef: transactionRef,
	}
}

// SignedNotification signs fields with the notification scope.
func SignedNotification(t *testing.T, engine *signing.Engine, fields domain.Fields) domain.Notification {
	t.Helper()
	sig, err := engine.SignFields(fields, NotificationScope())
	require.NoError(t, err)
	return domain.Notification{
		Fields:     fields.With("notification_hash", sig),
		SourceIP:   "203.0.113.10",
		ReceivedAt: time.Now(),
	}
}
