package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/application"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/interfaces/rest"
	"github.com/oapi-codegen/runtime"
)

// GetPaymentStatus handles GET /api/payments/{orderID}/status.
func (h *Handlers) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	var orderID string
	err := runtime.BindStyledParameterWithOptions("simple", "orderID", r.PathValue("orderID"), &orderID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		rest.WriteError(w, application.NewInvalidInputError(err), h.logger)
		return
	}

	payment, err := h.query.FindByOrderID(r.Context(), orderID)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.ToPaymentView(payment), h.logger)
}

func (h *Handlers) GetPaymentStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.query.Stats(r.Context())
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.WriteJSON(w, http.StatusOK, rest.ToStatsView(stats), h.logger)
}

type healthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", "error", err)
		rest.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Storage: "unreachable"}, h.logger)
		return
	}
	rest.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Storage: "ok"}, h.logger)
}
