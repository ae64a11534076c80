package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeInvalidAmount       = "INVALID_AMOUNT"
	ErrCodeMissingRequired     = "MISSING_REQUIRED_FIELD"
	ErrCodeConfiguration       = "CONFIGURATION_ERROR"
	ErrCodeMissingSigningField = "MISSING_SIGNING_FIELD"
	ErrCodeVerification        = "VERIFICATION_FAILURE"
	ErrCodeUnknownOrder        = "UNKNOWN_ORDER"
	ErrCodeAlreadyTerminal     = "ALREADY_TERMINAL"
	ErrCodeAlreadyReconciled   = "ALREADY_RECONCILED"
	ErrCodeInvalidTransition   = "INVALID_TRANSITION"
	ErrCodePaymentNotFound     = "PAYMENT_NOT_FOUND"
	ErrCodeDuplicateOrder      = "DUPLICATE_ORDER"
	ErrCodeStorage             = "STORAGE_ERROR"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrMissingRequired     = errors.New("missing required field")
	ErrConfiguration       = errors.New("invalid configuration")
	ErrMissingSigningField = errors.New("missing signing field")
	ErrVerification        = errors.New("signature verification failed")
	ErrUnknownOrder        = errors.New("unknown order")
	ErrAlreadyTerminal     = errors.New("payment already terminal")
	ErrAlreadyReconciled   = errors.New("notification already applied")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrDuplicateOrder      = errors.New("order id already exists")
	ErrStorage             = errors.New("storage failure")
)

func NewValidationError(message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: message,
		Err:     ErrValidation,
	}
}

func NewInvalidOrderIDError(id string) *DomainError {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("order id %q contains characters outside [A-Za-z0-9_-]", id),
		Err:     ErrValidation,
	}
}

func NewInvalidAmountError(amount, reason string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidAmount,
		Message: fmt.Sprintf("invalid amount %s: %s", amount, reason),
		Err:     ErrInvalidAmount,
	}
}

func NewMissingRequiredFieldError(field string) *DomainError {
	return &DomainError{
		Code:    ErrCodeMissingRequired,
		Message: fmt.Sprintf("%s is required", field),
		Err:     ErrMissingRequired,
	}
}

func NewConfigurationError(message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeConfiguration,
		Message: message,
		Err:     ErrConfiguration,
	}
}

func NewMissingSigningFieldError(field string) *DomainError {
	return &DomainError{
		Code:    ErrCodeMissingSigningField,
		Message: fmt.Sprintf("signing field %s is missing or empty", field),
		Err:     ErrMissingSigningField,
	}
}

func NewVerificationError(orderID string) *DomainError {
	return &DomainError{
		Code:    ErrCodeVerification,
		Message: fmt.Sprintf("notification signature for order %s does not verify", orderID),
		Err:     ErrVerification,
	}
}

func NewUnknownOrderError(orderID string) *DomainError {
	return &DomainError{
		Code:    ErrCodeUnknownOrder,
		Message: fmt.Sprintf("no payment exists for order %s", orderID),
		Err:     ErrUnknownOrder,
	}
}

func NewAlreadyTerminalError(orderID string, status PaymentStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeAlreadyTerminal,
		Message: fmt.Sprintf("payment %s is already %s", orderID, status),
		Err:     ErrAlreadyTerminal,
	}
}

func NewAlreadyReconciledError(orderID, transactionRef string) *DomainError {
	return &DomainError{
		Code:    ErrCodeAlreadyReconciled,
		Message: fmt.Sprintf("notification %s/%s was already applied", orderID, transactionRef),
		Err:     ErrAlreadyReconciled,
	}
}

func NewInvalidTransitionError(from, to PaymentStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
		Err:     ErrInvalidTransition,
	}
}

func NewPaymentNotFoundError(orderID string) *DomainError {
	return &DomainError{
		Code:    ErrCodePaymentNotFound,
		Message: fmt.Sprintf("payment with order id %s not found", orderID),
		Err:     ErrPaymentNotFound,
	}
}

func NewDuplicateOrderError(orderID string) *DomainError {
	return &DomainError{
		Code:    ErrCodeDuplicateOrder,
		Message: fmt.Sprintf("payment with order id %s already exists", orderID),
		Err:     ErrDuplicateOrder,
	}
}

func NewStorageError(op string, err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeStorage,
		Message: fmt.Sprintf("storage %s failed", op),
		Err:     errors.Join(ErrStorage, err),
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
