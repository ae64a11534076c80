package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/application"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/interfaces/rest/middleware"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/swaggo/swag"
)

const WebhookPath = "/api/payments/webhooks/fiserv/s2s"

type RouterOptions struct {
	// Limiter throttles initiation per client. Nil disables it.
	Limiter        application.RateLimiter
	Spec           *openapi3.T
	RequestTimeout time.Duration
}

// NewRouter wires the endpoints and their middleware. The webhook route
// is never subject to the request timeout: a notification is reconciled
// to completion before it is acknowledged.
func NewRouter(h *Handlers, opts RouterOptions, logger *slog.Logger) (http.Handler, error) {
	timeout := func(next http.Handler) http.Handler { return next }
	if opts.RequestTimeout > 0 {
		timeout = middleware.Timeout(opts.RequestTimeout)
	}

	validate := func(next http.Handler) http.Handler { return next }
	if opts.Spec != nil {
		v, err := middleware.OpenAPIValidator(opts.Spec, logger)
		if err != nil {
			return nil, err
		}
		validate = v
	}

	initiate := validate(http.HandlerFunc(h.InitiatePayment))
	if opts.Limiter != nil {
		initiate = middleware.RateLimit(opts.Limiter, h.trustProxy, logger)(initiate)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/payments/initiate", timeout(initiate))
	mux.Handle("POST "+WebhookPath, http.HandlerFunc(h.ReceiveNotification))
	mux.Handle("GET /api/payments/stats", timeout(http.HandlerFunc(h.GetPaymentStats)))
	mux.Handle("GET /api/payments/{orderID}/status", timeout(validate(http.HandlerFunc(h.GetPaymentStatus))))
	mux.Handle("GET /health", timeout(http.HandlerFunc(h.Health)))
	mux.HandleFunc("GET /docs/doc.json", serveDoc(logger))

	handler := middleware.Recovery(logger)(mux)
	handler = middleware.Logging(logger)(handler)
	return handler, nil
}

func serveDoc(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc()
		if err != nil {
			logger.Warn("api document not registered", "error", err)
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	}
}
