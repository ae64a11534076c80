package postgres

import (
	"context"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/application"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
	"github.com/goccy/go-json"
)

var _ application.AuditSink = (*AuditRepository)(nil)

// AuditRepository appends to the webhook_audit table.
type AuditRepository struct {
	q Executor
}

func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{q: db.Pool}
}

func (r *AuditRepository) Record(ctx context.Context, rec domain.AuditRecord) error {
	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return err
	}

	_, err = r.q.Exec(ctx, `
		INSERT INTO webhook_audit (
			id, order_id, transaction_ref, vendor_status, outcome, detail, source_ip, fields, received_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		rec.ID,
		rec.OrderID,
		rec.TransactionRef,
		rec.VendorStatus,
		rec.Outcome,
		rec.Detail,
		rec.SourceIP,
		fields,
		rec.ReceivedAt,
	)
	if err != nil {
		return domain.NewStorageError("record audit", err)
	}
	return nil
}

// ListByOrderID returns the audit trail of one order, oldest first.
func (r *AuditRepository) ListByOrderID(ctx context.Context, orderID string) ([]domain.AuditRecord, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id::text, order_id, transaction_ref, vendor_status, outcome, detail, source_ip, fields, received_at
		FROM webhook_audit
		WHERE order_id = $1
		ORDER BY received_at ASC
	`, orderID)
	if err != nil {
		return nil, domain.NewStorageError("list audit", err)
	}
	defer rows.Close()

	var out []domain.AuditRecord
	for rows.Next() {
		var (
			rec domain.AuditRecord
			raw []byte
		)
		if err := rows.Scan(&rec.ID, &rec.OrderID, &rec.TransactionRef, &rec.VendorStatus,
			&rec.Outcome, &rec.Detail, &rec.SourceIP, &raw, &rec.ReceivedAt); err != nil {
			return nil, domain.NewStorageError("scan audit", err)
		}
		if err := json.Unmarshal(raw, &rec.Fields); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
