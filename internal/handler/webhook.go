package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/analogous-app/analogous/internal/billing"
	"github.com/analogous-app/analogous/internal/service"
)

// maxWebhookBody caps Stripe webhook payloads at 64KB.
const maxWebhookBody = 65536

// WebhookHandler handles incoming webhook events from Stripe.
//
// Route:
//   - POST /webhooks/stripe -> HandleStripeWebhook
//
// This route is PUBLIC (no auth middleware) because Stripe calls it directly.
// Authentication is via the Stripe webhook signature verification.
type WebhookHandler struct {
	billing       billing.Service
	subscriptions service.SubscriptionService
	logger        *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
// billingService may be nil when Stripe is not configured.
func NewWebhookHandler(billingService billing.Service, subscriptions service.SubscriptionService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		billing:       billingService,
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// RegisterRoutes registers webhook routes on the provided mux.
// These routes are PUBLIC — no auth middleware.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhooks/stripe", h.HandleStripeWebhook)
}

// HandleStripeWebhook processes incoming Stripe webhook events.
//
// Signature verification gates all processing. A verified event is normalized
// into a domain billing event and applied by the subscription service, which
// owns replay detection and the state transitions. Processing failures return
// 500 so Stripe retries the delivery.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.billing == nil {
		h.logger.Warn("stripe webhook received but billing is not configured")
		w.WriteHeader(http.StatusOK)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	event, err := h.billing.VerifyWebhookSignature(body, signature)
	if err != nil {
		h.logger.Warn("webhook signature verification failed", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.logger.Info("stripe webhook received", "type", event.Type, "id", event.ID)

	billingEvent, err := h.billing.ParseEvent(event)
	if err != nil {
		h.logger.Error("failed to parse webhook event", "error", err, "type", event.Type, "id", event.ID)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := h.subscriptions.HandleEvent(r.Context(), billingEvent); err != nil {
		h.logger.Error("failed to process webhook event", "error", err, "type", event.Type, "id", event.ID)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
