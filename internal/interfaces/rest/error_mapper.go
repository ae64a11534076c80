package rest

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/application"
	"github.com/goccy/go-json"
)

type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// BuildErrorResponse maps an error onto its HTTP status and body. Messages
// of internal failures are not exposed.
func BuildErrorResponse(err error) (int, ErrorResponse) {
	statusCode := application.ToHTTPStatus(err)

	message := err.Error()
	if svcErr, ok := application.IsServiceError(err); ok {
		message = svcErr.Message
		if statusCode < http.StatusInternalServerError && svcErr.Err != nil {
			message = svcErr.Err.Error()
		}
	} else if statusCode >= http.StatusInternalServerError {
		message = "An internal error occurred"
	}

	return statusCode, ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    application.ToErrorCode(err),
			Message: message,
		},
	}
}

// WriteError maps application errors to HTTP responses
func WriteError(w http.ResponseWriter, err error, logger *slog.Logger) {
	statusCode, response := BuildErrorResponse(err)

	if statusCode >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", "status", statusCode, "error", err)
	}

	if svcErr, ok := application.IsServiceError(err); ok && svcErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(svcErr.RetryAfter.Seconds()+0.5)))
	}

	WriteJSON(w, statusCode, response, logger)
}

func WriteJSON(w http.ResponseWriter, statusCode int, body any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil && logger != nil {
		logger.Warn("failed to write response body", "error", err)
	}
}
