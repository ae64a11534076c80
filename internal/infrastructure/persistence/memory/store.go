// Package memory provides process-local implementations of the payment
// store and audit sink, for single-instance deployments and tests.
package memory

import (
	"context"
	"hash/maphash"
	"slices"
	"sync"
	"time"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/application"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
)

var _ application.PaymentStore = (*Store)(nil)

type ledgerKey struct {
	orderID        string
	transactionRef string
}

// lockStripes bounds the number of order mutexes regardless of how many
// orders the store has seen.
const lockStripes = 256

// Store keeps payments and the ledger in maps. Mutations of one order are
// serialized by a striped mutex so check-and-write is atomic per key.
type Store struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment
	ledger   map[ledgerKey]domain.LedgerEntry

	seed  maphash.Seed
	locks [lockStripes]sync.Mutex
}

func NewStore() *Store {
	return &Store{
		payments: make(map[string]*domain.Payment),
		ledger:   make(map[ledgerKey]domain.LedgerEntry),
		seed:     maphash.MakeSeed(),
	}
}

// lockFor returns the stripe guarding orderID. Distinct orders may share a
// stripe; the same order always maps to the same one.
func (s *Store) lockFor(orderID string) *sync.Mutex {
	return &s.locks[maphash.String(s.seed, orderID)%lockStripes]
}

func (s *Store) Create(ctx context.Context, payment *domain.Payment) error {
	if err := ctx.Err(); err != nil {
		return domain.NewStorageError("create payment", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payments[payment.OrderID]; exists {
		return domain.NewDuplicateOrderError(payment.OrderID)
	}
	s.payments[payment.OrderID] = clonePayment(payment)
	return nil
}

func (s *Store) FindByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewStorageError("find payment", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[orderID]
	if !ok {
		return nil, domain.NewPaymentNotFoundError(orderID)
	}
	return clonePayment(p), nil
}

func (s *Store) LedgerContains(ctx context.Context, orderID, transactionRef string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, domain.NewStorageError("ledger lookup", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.ledger[ledgerKey{orderID, transactionRef}]
	return ok, nil
}

func (s *Store) ApplyTerminal(ctx context.Context, orderID string, outcome domain.Outcome) (*domain.Payment, error) {
	l := s.lockFor(orderID)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, domain.NewStorageError("apply outcome", err)
	}

	s.mu.RLock()
	current, ok := s.payments[orderID]
	_, seen := s.ledger[ledgerKey{orderID, outcome.TransactionRef}]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.NewPaymentNotFoundError(orderID)
	}
	if seen {
		return nil, domain.NewAlreadyReconciledError(orderID, outcome.TransactionRef)
	}

	next := clonePayment(current)
	if err := next.Resolve(outcome); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.payments[orderID] = next
	s.ledger[ledgerKey{orderID, outcome.TransactionRef}] = domain.LedgerEntry{
		OrderID:        orderID,
		TransactionRef: outcome.TransactionRef,
		Status:         outcome.Status,
		AppliedAt:      outcome.At,
	}
	s.mu.Unlock()

	return clonePayment(next), nil
}

func (s *Store) Stats(ctx context.Context) (domain.PaymentStats, error) {
	if err := ctx.Err(); err != nil {
		return domain.PaymentStats{}, domain.NewStorageError("payment stats", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.PaymentStats{Counts: map[domain.PaymentStatus]int64{}}
	for _, p := range s.payments {
		stats.Counts[p.Status]++
		if p.Status == domain.StatusCompleted {
			stats.CompletedTotalCents += p.AmountCents
		}
	}
	return stats, nil
}

func (s *Store) FindStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewStorageError("query stale payments", err)
	}

	s.mu.RLock()
	var out []*domain.Payment
	for _, p := range s.payments {
		if p.Status == domain.StatusPending && p.CreatedAt.Before(createdBefore) {
			out = append(out, clonePayment(p))
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *domain.Payment) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Ledger returns a copy of the ledger entries of one order.
func (s *Store) Ledger(orderID string) []domain.LedgerEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.LedgerEntry
	for k, e := range s.ledger {
		if k.orderID == orderID {
			out = append(out, e)
		}
	}
	return out
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func clonePayment(p *domain.Payment) *domain.Payment {
	c := *p
	c.TransactionRef = cloneString(p.TransactionRef)
	c.ApprovalCode = cloneString(p.ApprovalCode)
	c.VendorStatus = cloneString(p.VendorStatus)
	c.FailReason = cloneString(p.FailReason)
	if p.TerminalAt != nil {
		t := *p.TerminalAt
		c.TerminalAt = &t
	}
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
