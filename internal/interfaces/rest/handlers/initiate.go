package handlers

import (
	"errors"
	"net/http"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/application"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/application/services"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/interfaces/rest"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

type InitiateRequest struct {
	GoalID     string           `json:"goal_id"`
	Amount     *decimal.Decimal `json:"amount"`
	DonorName  string           `json:"donor_name"`
	DonorEmail string           `json:"donor_email"`
	Message    string           `json:"message"`
	Anonymous  bool             `json:"anonymous"`
}

type InitiateResponse struct {
	OrderID  string            `json:"order_id"`
	FormURL  string            `json:"form_url"`
	FormData map[string]string `json:"form_data"`
}

// InitiatePayment handles POST /api/payments/initiate.
func (h *Handlers) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req InitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, application.NewInvalidInputError(errors.New("request body is not valid JSON")), h.logger)
		return
	}
	if req.Amount == nil {
		rest.WriteError(w, domain.NewMissingRequiredFieldError("amount"), h.logger)
		return
	}

	signed, err := h.initiator.Initiate(r.Context(), services.InitiateCommand{
		GoalID: req.GoalID,
		Amount: *req.Amount,
		Donor: domain.Donor{
			Name:      req.DonorName,
			Email:     req.DonorEmail,
			Message:   req.Message,
			Anonymous: req.Anonymous,
		},
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, InitiateResponse{
		OrderID:  signed.OrderID,
		FormURL:  signed.FormURL,
		FormData: signed.Fields,
	}, h.logger)
}
