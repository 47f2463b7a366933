package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/saransh1220/album-market/internal/modules/order/domain"
	"github.com/saransh1220/album-market/internal/modules/order/infrastructure/payment/razorpay"
	"github.com/saransh1220/album-market/internal/shared/utils"
)

// WebhookHandler receives Razorpay payment webhooks.
type WebhookHandler struct {
	service OrderService
	secret  string
	logger  *slog.Logger
}

func NewWebhookHandler(service OrderService, secret string, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{service: service, secret: secret, logger: logger.With("component", "payment_webhook")}
}

// Handle handles POST /payments/webhook. Events that cannot apply are acknowledged
// with 200 so Razorpay stops redelivering them.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "unreadable body", nil)
		return
	}

	if err := razorpay.VerifySignature(body, r.Header.Get("X-Razorpay-Signature"), h.secret); err != nil {
		h.logger.Warn("webhook signature rejected", "remote", r.RemoteAddr)
		utils.WriteError(w, http.StatusUnauthorized, "invalid signature", nil)
		return
	}

	ev, err := razorpay.ParseEvent(body)
	if errors.Is(err, razorpay.ErrUnhandledEvent) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid webhook payload", err)
		return
	}

	order, err := h.service.HandlePaymentEvent(r.Context(), ev)
	switch {
	case err == nil:
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": string(order.Status)})
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrConflict):
		h.logger.Warn("webhook event ignored", "intent_id", ev.IntentID, "outcome", ev.Outcome, "error", err)
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
	default:
		h.logger.Error("webhook event failed", "intent_id", ev.IntentID, "error", err)
		utils.WriteError(w, http.StatusServiceUnavailable, "webhook not processed", nil)
	}
}
