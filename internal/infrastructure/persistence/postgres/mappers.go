package postgres

import (
	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
)

// toDomainModel: maps db model to domain entity
func toDomainModel(m PaymentModel) *domain.Payment {
	return &domain.Payment{
		OrderID:        m.OrderID,
		GoalID:         m.GoalID,
		AmountCents:    m.AmountCents,
		Currency:       m.Currency,
		Status:         domain.PaymentStatus(m.Status),
		DonorName:      m.DonorName,
		DonorEmail:     m.DonorEmail,
		DonorMessage:   m.DonorMessage,
		Anonymous:      m.Anonymous,
		TransactionRef: m.TransactionRef,
		ApprovalCode:   m.ApprovalCode,
		VendorStatus:   m.VendorStatus,
		FailReason:     m.FailReason,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		TerminalAt:     m.TerminalAt,
	}
}

// toDBModel: maps domain entity to db model
func toDBModel(p *domain.Payment) *PaymentModel {
	return &PaymentModel{
		OrderID:        p.OrderID,
		GoalID:         p.GoalID,
		AmountCents:    p.AmountCents,
		Currency:       p.Currency,
		Status:         string(p.Status),
		DonorName:      p.DonorName,
		DonorEmail:     p.DonorEmail,
		DonorMessage:   p.DonorMessage,
		Anonymous:      p.Anonymous,
		TransactionRef: p.TransactionRef,
		ApprovalCode:   p.ApprovalCode,
		VendorStatus:   p.VendorStatus,
		FailReason:     p.FailReason,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		TerminalAt:     p.TerminalAt,
	}
}
