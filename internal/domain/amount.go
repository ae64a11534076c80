package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value with at most two decimal places.
type Amount struct {
	value decimal.Decimal
}

// NewAmount validates d and returns it as an Amount.
func NewAmount(d decimal.Decimal) (Amount, error) {
	if !d.Equal(d.Round(2)) {
		return Amount{}, NewInvalidAmountError(d.String(), "amount has more than two decimal places")
	}
	return Amount{value: d.Round(2)}, nil
}

// ParseAmount parses a decimal string such as "10" or "10.50".
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, NewInvalidAmountError(s, "amount is not a number")
	}
	return NewAmount(d)
}

func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func AmountFromCents(cents int64) Amount {
	return Amount{value: decimal.New(cents, -2)}
}

// String renders the amount with exactly two decimals, e.g. "10.00".
func (a Amount) String() string {
	return a.value.StringFixed(2)
}

func (a Amount) Cents() int64 {
	return a.value.Shift(2).IntPart()
}

func (a Amount) IsPositive() bool {
	return a.value.IsPositive()
}

func (a Amount) Decimal() decimal.Decimal {
	return a.value
}

func (a Amount) LessThan(b Amount) bool {
	return a.value.LessThan(b.value)
}

func (a Amount) GreaterThan(b Amount) bool {
	return a.value.GreaterThan(b.value)
}

// AmountLimits bounds the amounts accepted on initiation.
type AmountLimits struct {
	Min Amount
	Max Amount
}

func (l AmountLimits) Check(a Amount) error {
	if !a.IsPositive() {
		return NewInvalidAmountError(a.String(), "amount must be positive")
	}
	if a.LessThan(l.Min) {
		return NewInvalidAmountError(a.String(), fmt.Sprintf("amount is below the minimum of %s", l.Min))
	}
	if a.GreaterThan(l.Max) {
		return NewInvalidAmountError(a.String(), fmt.Sprintf("amount exceeds the maximum of %s", l.Max))
	}
	return nil
}
