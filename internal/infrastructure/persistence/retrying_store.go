// Package persistence holds store decorators shared by the storage drivers.
package persistence

import (
	"context"
	"errors"
	"log/slog"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/application"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/config"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
	"github.com/cenkalti/backoff/v4"
)

// RetryingStore retries Create on transient storage failures with
// exponential backoff. Every other call goes straight to the inner store:
// the webhook path bounds its own storage calls and never retries.
type RetryingStore struct {
	application.PaymentStore
	cfg    config.RetryConfig
	logger *slog.Logger
}

func NewRetryingStore(inner application.PaymentStore, cfg config.RetryConfig, logger *slog.Logger) *RetryingStore {
	return &RetryingStore{
		PaymentStore: inner,
		cfg:          cfg,
		logger:       logger,
	}
}

func (s *RetryingStore) Create(ctx context.Context, payment *domain.Payment) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := s.PaymentStore.Create(ctx, payment)
		if err == nil {
			return nil
		}

		// An earlier attempt committed but its acknowledgement was lost.
		if attempt > 1 && errors.Is(err, domain.ErrDuplicateOrder) {
			return nil
		}

		if !application.IsRetryable(err) {
			return backoff.Permanent(err)
		}

		s.logger.Warn("retrying payment persistence",
			"order_id", payment.OrderID,
			"attempt", attempt,
			"error", err)
		return err
	}

	return backoff.Retry(operation, s.policy(ctx))
}

func (s *RetryingStore) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.InitialInterval
	b.MaxInterval = s.cfg.MaxInterval
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.cfg.MaxRetries)), ctx)
}
