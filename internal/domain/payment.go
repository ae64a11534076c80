// Package domain holds the payment record, its lifecycle and the fields
// exchanged with the hosted payment page.
package domain

import (
	"regexp"
	"slices"
	"strings"
	"time"
)

// PaymentStatus represents the current state of a payment in its lifecycle
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusCompleted PaymentStatus = "completed"
	StatusFailed    PaymentStatus = "failed"
	StatusCancelled PaymentStatus = "cancelled"
)

var orderIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidOrderID reports whether id is safe to send as an order identifier.
func ValidOrderID(id string) bool {
	return orderIDPattern.MatchString(id)
}

func (s PaymentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

func (s PaymentStatus) Valid() bool {
	return s == StatusPending || s.IsTerminal()
}

type Payment struct {
	OrderID     string
	GoalID      string
	AmountCents int64
	Currency    string
	Status      PaymentStatus

	DonorName    string
	DonorEmail   string
	DonorMessage string
	Anonymous    bool

	TransactionRef *string
	ApprovalCode   *string
	VendorStatus   *string
	FailReason     *string

	CreatedAt  time.Time
	UpdatedAt  time.Time
	TerminalAt *time.Time
}

// Donor carries the optional payer details collected on initiation.
type Donor struct {
	Name      string
	Email     string
	Message   string
	Anonymous bool
}

func NewPayment(orderID, goalID string, amount Amount, currency string, donor Donor, now time.Time) (*Payment, error) {
	if orderID == "" {
		return nil, NewMissingRequiredFieldError("order_id")
	}
	if !ValidOrderID(orderID) {
		return nil, NewInvalidOrderIDError(orderID)
	}
	if goalID == "" {
		return nil, NewMissingRequiredFieldError("goal_id")
	}
	if currency == "" {
		return nil, NewMissingRequiredFieldError("currency")
	}
	if !amount.IsPositive() {
		return nil, NewInvalidAmountError(amount.String(), "amount must be positive")
	}

	return &Payment{
		OrderID:      orderID,
		GoalID:       goalID,
		AmountCents:  amount.Cents(),
		Currency:     currency,
		Status:       StatusPending,
		DonorName:    strings.TrimSpace(donor.Name),
		DonorEmail:   strings.TrimSpace(donor.Email),
		DonorMessage: donor.Message,
		Anonymous:    donor.Anonymous,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Outcome is a terminal result reported by the payment vendor.
type Outcome struct {
	Status         PaymentStatus
	TransactionRef string
	ApprovalCode   string
	VendorStatus   string
	FailReason     string
	At             time.Time
}

// Resolve moves a pending payment into the terminal state described by o.
func (p *Payment) Resolve(o Outcome) error {
	if err := p.transition(o.Status); err != nil {
		return err
	}

	p.TransactionRef = optional(o.TransactionRef)
	p.ApprovalCode = optional(o.ApprovalCode)
	p.VendorStatus = optional(o.VendorStatus)
	p.FailReason = optional(o.FailReason)
	p.UpdatedAt = o.At
	at := o.At
	p.TerminalAt = &at
	return nil
}

// CanTransitionTo reports whether the payment may move to target.
func (p *Payment) CanTransitionTo(target PaymentStatus) error {
	switch p.Status {
	case StatusPending:
		return p.allow(target, StatusCompleted, StatusFailed, StatusCancelled)
	case StatusCompleted, StatusFailed, StatusCancelled:
		return NewAlreadyTerminalError(p.OrderID, p.Status)
	}
	return NewInvalidTransitionError(p.Status, target)
}

func (p *Payment) transition(target PaymentStatus) error {
	if err := p.CanTransitionTo(target); err != nil {
		return err
	}
	p.Status = target
	return nil
}

func (p *Payment) allow(target PaymentStatus, allowed ...PaymentStatus) error {
	if slices.Contains(allowed, target) {
		return nil
	}
	return NewInvalidTransitionError(p.Status, target)
}

// Amount returns the stored amount as a two-decimal value.
func (p *Payment) Amount() Amount {
	return AmountFromCents(p.AmountCents)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
