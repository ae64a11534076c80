package application

import (
	"context"
	"errors"
	"net/http"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
)

// ErrorCategory represents the nature of an error for retry logic
type ErrorCategory string

const (
	CategoryTransient      ErrorCategory = "TRANSIENT"
	CategoryPermanent      ErrorCategory = "PERMANENT"
	CategoryBusinessRule   ErrorCategory = "BUSINESS_RULE"
	CategoryClientError    ErrorCategory = "CLIENT_ERROR"
	CategoryInfrastructure ErrorCategory = "INFRASTRUCTURE"
)

// CategorizeError determines error category for retry and logging purposes
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	// Caller gave up; retrying cannot help
	if errors.Is(err, context.Canceled) {
		return CategoryPermanent
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTransient
	}

	if errors.Is(err, domain.ErrInvalidAmount) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrMissingRequired) ||
		errors.Is(err, domain.ErrPaymentNotFound) {
		return CategoryClientError
	}

	if errors.Is(err, domain.ErrAlreadyTerminal) ||
		errors.Is(err, domain.ErrAlreadyReconciled) ||
		errors.Is(err, domain.ErrInvalidTransition) ||
		errors.Is(err, domain.ErrDuplicateOrder) ||
		errors.Is(err, domain.ErrUnknownOrder) ||
		errors.Is(err, domain.ErrVerification) {
		return CategoryBusinessRule
	}

	if errors.Is(err, domain.ErrConfiguration) ||
		errors.Is(err, domain.ErrMissingSigningField) {
		return CategoryPermanent
	}

	if svcErr, ok := IsServiceError(err); ok {
		switch svcErr.Code {
		case ErrCodeInvalidInput, ErrCodeRateLimited:
			return CategoryClientError
		case ErrCodeTimeout:
			return CategoryTransient
		default:
			return CategoryInfrastructure
		}
	}

	if errors.Is(err, domain.ErrStorage) {
		return CategoryInfrastructure
	}

	// Default: Transient (safe fallback)
	return CategoryTransient
}

// IsRetryable returns true if the error category suggests retry
func IsRetryable(err error) bool {
	category := CategorizeError(err)
	return category == CategoryTransient || category == CategoryInfrastructure
}

// ToHTTPStatus maps error to appropriate HTTP status code
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.HTTPStatus
	}

	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrMissingRequired):
		return http.StatusBadRequest

	case errors.Is(err, domain.ErrPaymentNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrDuplicateOrder),
		errors.Is(err, domain.ErrAlreadyTerminal),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict

	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}

	// Default to 500
	return http.StatusInternalServerError
}

// ToErrorCode clear error code for API responses
func ToErrorCode(err error) string {
	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.Code
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeTimeout
	}

	return ErrCodeInternal
}
