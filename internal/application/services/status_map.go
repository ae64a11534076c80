package services

import (
	"strings"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
)

// StatusClass says what a vendor status means for a pending payment.
type StatusClass int

const (
	StatusUnrecognized StatusClass = iota
	StatusNonTerminal
	StatusTerminal
)

type statusMapping struct {
	class  StatusClass
	status domain.PaymentStatus
}

var vendorStatuses = map[string]statusMapping{
	"APPROVED":  {StatusTerminal, domain.StatusCompleted},
	"DECLINED":  {StatusTerminal, domain.StatusFailed},
	"FAILED":    {StatusTerminal, domain.StatusFailed},
	"CANCELLED": {StatusTerminal, domain.StatusCancelled},
	"WAITING":   {StatusNonTerminal, domain.StatusPending},
}

// MapVendorStatus translates the vendor's status string. Matching ignores
// case and surrounding whitespace.
func MapVendorStatus(vendor string) (domain.PaymentStatus, StatusClass) {
	m, ok := vendorStatuses[strings.ToUpper(strings.TrimSpace(vendor))]
	if !ok {
		return "", StatusUnrecognized
	}
	return m.status, m.class
}
