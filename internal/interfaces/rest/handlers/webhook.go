package handlers

import (
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/interfaces/rest"
	"github.com/goccy/go-json"
)

type ackResponse struct {
	Status string `json:"status"`
}

// ReceiveNotification handles the vendor's server-to-server notification.
// The vendor retries anything but 200, so every delivery is acknowledged
// once it has been reconciled, whatever the result.
func (h *Handlers) ReceiveNotification(w http.ResponseWriter, r *http.Request) {
	n := domain.Notification{
		Fields:     h.readNotificationFields(w, r),
		SourceIP:   rest.ClientIP(r, h.trustProxy),
		ReceivedAt: time.Now(),
	}

	result := h.reconciler.Reconcile(r.Context(), n)
	h.logger.Info("notification acknowledged",
		"order_id", n.OrderID(),
		"result", string(result),
		"source_ip", n.SourceIP)

	rest.WriteJSON(w, http.StatusOK, ackResponse{Status: "OK"}, h.logger)
}

// readNotificationFields accepts form-encoded bodies and flat JSON objects.
// An unreadable body yields no fields.
func (h *Handlers) readNotificationFields(w http.ResponseWriter, r *http.Request) domain.Fields {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	fields := domain.Fields{}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			h.logger.Warn("cannot read notification body", "error", err)
			return fields
		}
		var raw map[string]any
		if err := json.Unmarshal(body, &raw); err != nil {
			h.logger.Warn("notification body is not a JSON object", "error", err)
			return fields
		}
		for k, v := range raw {
			if s, ok := v.(string); ok {
				fields[k] = s
			}
		}
		return fields
	}

	if err := r.ParseForm(); err != nil {
		h.logger.Warn("cannot parse notification form", "error", err)
		return fields
	}
	for k, v := range r.PostForm {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	return fields
}
