package services_test

import (
	"context"
	"time"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/application"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/infrastructure/persistence/memory"
	"github.com/stretchr/testify/mock"
)

// stubStore delegates to an in-memory store unless an override is set.
type stubStore struct {
	*memory.Store

	CreateFn         func(ctx context.Context, payment *domain.Payment) error
	LedgerContainsFn func(ctx context.Context, orderID, transactionRef string) (bool, error)
	FindByOrderIDFn  func(ctx context.Context, orderID string) (*domain.Payment, error)
	ApplyTerminalFn  func(ctx context.Context, orderID string, outcome domain.Outcome) (*domain.Payment, error)

	creates int
}

func newStubStore() *stubStore {
	return &stubStore{Store: memory.NewStore()}
}

func (s *stubStore) Create(ctx context.Context, payment *domain.Payment) error {
	s.creates++
	if s.CreateFn != nil {
		return s.CreateFn(ctx, payment)
	}
	return s.Store.Create(ctx, payment)
}

func (s *stubStore) LedgerContains(ctx context.Context, orderID, transactionRef string) (bool, error) {
	if s.LedgerContainsFn != nil {
		return s.LedgerContainsFn(ctx, orderID, transactionRef)
	}
	return s.Store.LedgerContains(ctx, orderID, transactionRef)
}

func (s *stubStore) FindByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	if s.FindByOrderIDFn != nil {
		return s.FindByOrderIDFn(ctx, orderID)
	}
	return s.Store.FindByOrderID(ctx, orderID)
}

func (s *stubStore) ApplyTerminal(ctx context.Context, orderID string, outcome domain.Outcome) (*domain.Payment, error) {
	if s.ApplyTerminalFn != nil {
		return s.ApplyTerminalFn(ctx, orderID, outcome)
	}
	return s.Store.ApplyTerminal(ctx, orderID, outcome)
}

type mockAlerter struct {
	mock.Mock
}

func (m *mockAlerter) Alert(ctx context.Context, alert application.Alert) {
	m.Called(ctx, alert)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
