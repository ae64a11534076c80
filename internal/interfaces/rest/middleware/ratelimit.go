package middleware

import (
	"log/slog"
	"net/http"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/application"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/interfaces/rest"
)

// RateLimit rejects callers over their quota with 429. A limiter failure
// lets the request through.
func RateLimit(limiter application.RateLimiter, trustProxy bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := rest.ClientIP(r, trustProxy)

			decision, err := limiter.Allow(r.Context(), ip)
			if err != nil {
				logger.Warn("rate limiter unavailable, allowing request", "client_ip", ip, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !decision.Allowed {
				logger.Info("rate limit exceeded",
					"client_ip", ip,
					"window", decision.Window,
					"retry_after", decision.RetryAfter)
				rest.WriteError(w, application.NewRateLimitedError(decision.Window, decision.RetryAfter), logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
