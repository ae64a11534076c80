package rest

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
)

// PaymentView is the public representation of a payment. Donor details
// are never exposed.
type PaymentView struct {
	OrderID        string     `json:"order_id"`
	GoalID         string     `json:"goal_id"`
	Status         string     `json:"status"`
	Amount         string     `json:"amount"`
	Currency       string     `json:"currency"`
	TransactionRef string     `json:"transaction_ref,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	TerminalAt     *time.Time `json:"terminal_at,omitempty"`
}

func ToPaymentView(p *domain.Payment) PaymentView {
	view := PaymentView{
		OrderID:    p.OrderID,
		GoalID:     p.GoalID,
		Status:     string(p.Status),
		Amount:     p.Amount().String(),
		Currency:   p.Currency,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
		TerminalAt: p.TerminalAt,
	}
	if p.TransactionRef != nil {
		view.TransactionRef = *p.TransactionRef
	}
	return view
}

type StatsView struct {
	Pending        int64  `json:"pending"`
	Completed      int64  `json:"completed"`
	Failed         int64  `json:"failed"`
	Cancelled      int64  `json:"cancelled"`
	Total          int64  `json:"total"`
	CompletedTotal string `json:"completed_total"`
}

func ToStatsView(s domain.PaymentStats) StatsView {
	return StatsView{
		Pending:        s.Counts[domain.StatusPending],
		Completed:      s.Counts[domain.StatusCompleted],
		Failed:         s.Counts[domain.StatusFailed],
		Cancelled:      s.Counts[domain.StatusCancelled],
		Total:          s.Total(),
		CompletedTotal: domain.AmountFromCents(s.CompletedTotalCents).String(),
	}
}

// ClientIP returns the address of the caller. Forwarding headers are
// honored only behind a trusted proxy, and then only the rightmost
// X-Forwarded-For entry: the one that proxy appended. Entries to its left
// are supplied by the client.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Values("X-Forwarded-For"); len(fwd) > 0 {
			last := fwd[len(fwd)-1]
			if i := strings.LastIndexByte(last, ','); i >= 0 {
				last = last[i+1:]
			}
			if ip := strings.TrimSpace(last); ip != "" {
				return ip
			}
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
