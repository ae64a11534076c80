package handlers

import (
	"context"
	"log/slog"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/application/services"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
)

type Initiator interface {
	Initiate(ctx context.Context, cmd services.InitiateCommand) (*services.SignedRequest, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, n domain.Notification) services.ReconcileResult
}

type PaymentQuerier interface {
	FindByOrderID(ctx context.Context, orderID string) (*domain.Payment, error)
	Stats(ctx context.Context) (domain.PaymentStats, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers serves the payment endpoints.
type Handlers struct {
	initiator    Initiator
	reconciler   Reconciler
	query        PaymentQuerier
	store        Pinger
	trustProxy   bool
	maxBodyBytes int64
	logger       *slog.Logger
}

func NewHandlers(
	initiator Initiator,
	reconciler Reconciler,
	query PaymentQuerier,
	store Pinger,
	trustProxy bool,
	maxBodyBytes int64,
	logger *slog.Logger,
) *Handlers {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 64 << 10
	}
	return &Handlers{
		initiator:    initiator,
		reconciler:   reconciler,
		query:        query,
		store:        store,
		trustProxy:   trustProxy,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}
