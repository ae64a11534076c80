package postgres

import (
	"time"
)

// PaymentModel mirrors a row of the payments table.
type PaymentModel struct {
	OrderID        string
	GoalID         string
	AmountCents    int64
	Currency       string
	Status         string
	DonorName      string
	DonorEmail     string
	DonorMessage   string
	Anonymous      bool
	TransactionRef *string
	ApprovalCode   *string
	VendorStatus   *string
	FailReason     *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	TerminalAt     *time.Time
}

const paymentColumns = `
	order_id, goal_id, amount_cents, currency, status,
	donor_name, donor_email, donor_message, anonymous,
	transaction_ref, approval_code, vendor_status, fail_reason,
	created_at, updated_at, terminal_at`

func (m *PaymentModel) scanTargets() []any {
	return []any{
		&m.OrderID, &m.GoalID, &m.AmountCents, &m.Currency, &m.Status,
		&m.DonorName, &m.DonorEmail, &m.DonorMessage, &m.Anonymous,
		&m.TransactionRef, &m.ApprovalCode, &m.VendorStatus, &m.FailReason,
		&m.CreatedAt, &m.UpdatedAt, &m.TerminalAt,
	}
}
