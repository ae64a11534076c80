package services

import (
	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
	"github.com/shopspring/decimal"
)

type InitiateCommand struct {
	GoalID string
	Amount decimal.Decimal
	Donor  domain.Donor
}

// SignedRequest is everything the payer's browser needs to post the
// hosted payment form.
type SignedRequest struct {
	OrderID   string
	FormURL   string
	Fields    domain.Fields
	Canonical string
	Payment   *domain.Payment
}
