package domain_test

import (
	"testing"
	"time"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendingPayment(t *testing.T) *domain.Payment {
	t.Helper()
	p, err := domain.NewPayment("ORD-1", "goal-1", domain.MustParseAmount("10.00"), "985", domain.Donor{}, time.Now())
	require.NoError(t, err)
	return p
}

func TestNewPayment(t *testing.T) {
	t.Run("creates pending payment", func(t *testing.T) {
		now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		p, err := domain.NewPayment("ORD-20260102-ab12cd34", "goal-7", domain.MustParseAmount("25.5"), "985",
			domain.Donor{Name: "  Ada ", Email: "ada@example.com"}, now)

		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, p.Status)
		assert.Equal(t, int64(2550), p.AmountCents)
		assert.Equal(t, "Ada", p.DonorName)
		assert.Equal(t, now, p.CreatedAt)
		assert.Equal(t, now, p.UpdatedAt)
		assert.Nil(t, p.TerminalAt)
	})

	t.Run("rejects order id with unsafe characters", func(t *testing.T) {
		_, err := domain.NewPayment("ORD 1|x", "goal-1", domain.MustParseAmount("1"), "985", domain.Donor{}, time.Now())
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("rejects empty goal", func(t *testing.T) {
		_, err := domain.NewPayment("ORD-1", "", domain.MustParseAmount("1"), "985", domain.Donor{}, time.Now())
		assert.ErrorIs(t, err, domain.ErrMissingRequired)
	})

	t.Run("rejects zero amount", func(t *testing.T) {
		_, err := domain.NewPayment("ORD-1", "goal-1", domain.MustParseAmount("0"), "985", domain.Donor{}, time.Now())
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})
}

func TestPayment_Resolve(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status domain.PaymentStatus
	}{
		{"completed", domain.StatusCompleted},
		{"failed", domain.StatusFailed},
		{"cancelled", domain.StatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPendingPayment(t)

			err := p.Resolve(domain.Outcome{Status: tt.status, TransactionRef: "84512", VendorStatus: "X", At: at})
			require.NoError(t, err)

			assert.Equal(t, tt.status, p.Status)
			require.NotNil(t, p.TransactionRef)
			assert.Equal(t, "84512", *p.TransactionRef)
			require.NotNil(t, p.TerminalAt)
			assert.Equal(t, at, *p.TerminalAt)
			assert.Equal(t, at, p.UpdatedAt)
			assert.Nil(t, p.ApprovalCode)
		})
	}
}

func TestPayment_TerminalStatesAreFinal(t *testing.T) {
	p := newPendingPayment(t)
	require.NoError(t, p.Resolve(domain.Outcome{Status: domain.StatusCompleted, At: time.Now()}))

	for _, target := range []domain.PaymentStatus{domain.StatusCompleted, domain.StatusFailed, domain.StatusCancelled, domain.StatusPending} {
		err := p.Resolve(domain.Outcome{Status: target, At: time.Now()})
		assert.ErrorIs(t, err, domain.ErrAlreadyTerminal)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeAlreadyTerminal))
	}
	assert.Equal(t, domain.StatusCompleted, p.Status)
}

func TestPayment_PendingCannotReenterPending(t *testing.T) {
	p := newPendingPayment(t)
	err := p.Resolve(domain.Outcome{Status: domain.StatusPending, At: time.Now()})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestValidOrderID(t *testing.T) {
	assert.True(t, domain.ValidOrderID("ORD-20260101-a1b2c3d4"))
	assert.True(t, domain.ValidOrderID("order_1"))
	assert.False(t, domain.ValidOrderID(""))
	assert.False(t, domain.ValidOrderID("ORD|1"))
	assert.False(t, domain.ValidOrderID("ORD 1"))
}

func TestAmount(t *testing.T) {
	t.Run("formats with two decimals", func(t *testing.T) {
		assert.Equal(t, "10.00", domain.MustParseAmount("10").String())
		assert.Equal(t, "10.50", domain.MustParseAmount("10.5").String())
		assert.Equal(t, "0.01", domain.AmountFromCents(1).String())
	})

	t.Run("converts to cents", func(t *testing.T) {
		assert.Equal(t, int64(1050), domain.MustParseAmount("10.50").Cents())
	})

	t.Run("accepts trailing zeros beyond two places", func(t *testing.T) {
		a, err := domain.ParseAmount("10.000")
		require.NoError(t, err)
		assert.Equal(t, "10.00", a.String())
	})

	t.Run("rejects more than two decimal places", func(t *testing.T) {
		_, err := domain.ParseAmount("10.005")
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := domain.ParseAmount("ten")
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})
}

func TestAmountLimits_Check(t *testing.T) {
	limits := domain.AmountLimits{Min: domain.MustParseAmount("1.00"), Max: domain.MustParseAmount("5000.00")}

	tests := []struct {
		amount  string
		wantErr bool
	}{
		{"1.00", false},
		{"5000.00", false},
		{"250.75", false},
		{"0.99", true},
		{"0", true},
		{"-5", true},
		{"5000.01", true},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			err := limits.Check(domain.MustParseAmount(tt.amount))
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidAmount)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFields_With(t *testing.T) {
	base := domain.Fields{"a": "1"}
	next := base.With("b", "2")

	assert.Equal(t, domain.Fields{"a": "1"}, base)
	assert.Equal(t, domain.Fields{"a": "1", "b": "2"}, next)
}
