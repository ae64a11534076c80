package services

import (
	"context"
	"strings"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/application"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
)

type QueryService struct {
	payments application.PaymentReader
}

func NewQueryService(payments application.PaymentReader) *QueryService {
	return &QueryService{
		payments: payments,
	}
}

func (s *QueryService) FindByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	orderID = strings.TrimSpace(orderID)
	if !domain.ValidOrderID(orderID) {
		return nil, domain.NewInvalidOrderIDError(orderID)
	}
	return s.payments.FindByOrderID(ctx, orderID)
}

func (s *QueryService) Stats(ctx context.Context) (domain.PaymentStats, error) {
	return s.payments.Stats(ctx)
}
