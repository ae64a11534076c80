package memory

import (
	"context"
	"sync"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/application"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
)

var _ application.AuditSink = (*AuditLog)(nil)

// AuditLog keeps the most recent audit records in a bounded ring.
type AuditLog struct {
	mu      sync.Mutex
	records []domain.AuditRecord
	next    int
	full    bool
}

func NewAuditLog(capacity int) *AuditLog {
	if capacity <= 0 {
		capacity = 1000
	}
	return &AuditLog{records: make([]domain.AuditRecord, capacity)}
}

func (a *AuditLog) Record(ctx context.Context, rec domain.AuditRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	rec.Fields = rec.Fields.Clone()
	a.records[a.next] = rec
	a.next = (a.next + 1) % len(a.records)
	if a.next == 0 {
		a.full = true
	}
	return nil
}

// Records returns the retained records, oldest first.
func (a *AuditLog) Records() []domain.AuditRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.full {
		return append([]domain.AuditRecord(nil), a.records[:a.next]...)
	}
	out := make([]domain.AuditRecord, 0, len(a.records))
	out = append(out, a.records[a.next:]...)
	return append(out, a.records[:a.next]...)
}
