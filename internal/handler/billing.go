package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/analogous-app/analogous/internal/service"
)

// BillingHandler exposes the subscription lifecycle intents.
//
// Routes (all require auth, {id} must be the authenticated account):
//   - POST /users/{id}/upgrade       -> HandleUpgrade
//   - POST /users/{id}/downgrade     -> HandleDowngrade
//   - POST /users/{id}/resume        -> HandleResume
//   - GET  /users/{id}/pricing-stats -> HandlePricingStats
type BillingHandler struct {
	subscriptions service.SubscriptionService
	logger        *slog.Logger
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(subscriptions service.SubscriptionService, logger *slog.Logger) *BillingHandler {
	return &BillingHandler{
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// RegisterRoutes registers billing routes behind the auth middleware.
func (h *BillingHandler) RegisterRoutes(mux *http.ServeMux, requireAccount func(http.Handler) http.Handler) {
	mux.Handle("POST /users/{id}/upgrade", requireAccount(http.HandlerFunc(h.HandleUpgrade)))
	mux.Handle("POST /users/{id}/downgrade", requireAccount(http.HandlerFunc(h.HandleDowngrade)))
	mux.Handle("POST /users/{id}/resume", requireAccount(http.HandlerFunc(h.HandleResume)))
	mux.Handle("GET /users/{id}/pricing-stats", requireAccount(http.HandlerFunc(h.HandlePricingStats)))
}

// HandleUpgrade starts a Scholar checkout and returns the URL to redirect to.
func (h *BillingHandler) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	account, ok := requireSelf(w, r, h.logger)
	if !ok {
		return
	}

	checkoutURL, err := h.subscriptions.Upgrade(r.Context(), account.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"checkout_url": checkoutURL})
}

// HandleDowngrade schedules cancel-at-period-end. The account keeps Scholar
// until the billing authority confirms the period is over.
func (h *BillingHandler) HandleDowngrade(w http.ResponseWriter, r *http.Request) {
	account, ok := requireSelf(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.subscriptions.Downgrade(r.Context(), account.ID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleResume clears a scheduled cancellation.
func (h *BillingHandler) HandleResume(w http.ResponseWriter, r *http.Request) {
	account, ok := requireSelf(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.subscriptions.Resume(r.Context(), account.ID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type pricingStatsResponse struct {
	Plan           string        `json:"plan"`
	UpcomingPlan   string        `json:"upcoming_plan,omitempty"`
	PlanCancelled  bool          `json:"plan_cancelled"`
	RenewalDate    *time.Time    `json:"renewal_date,omitempty"`
	RenewalPending bool          `json:"renewal_pending"`
	Usage          usageResponse `json:"usage"`
}

// HandlePricingStats summarizes plan, renewal and usage for the pricing page.
func (h *BillingHandler) HandlePricingStats(w http.ResponseWriter, r *http.Request) {
	account, ok := requireSelf(w, r, h.logger)
	if !ok {
		return
	}

	stats, err := h.subscriptions.PricingStats(r.Context(), account.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, pricingStatsResponse{
		Plan:           string(stats.Plan),
		UpcomingPlan:   string(stats.UpcomingPlan),
		PlanCancelled:  stats.PlanCancelled,
		RenewalDate:    stats.RenewalDate,
		RenewalPending: stats.RenewalPending,
		Usage: usageResponse{
			Plan:              string(stats.Usage.Plan),
			DailyUsed:         stats.Usage.DailyUsed,
			DailyLimit:        stats.Usage.DailyLimit,
			StoredUsed:        stats.Usage.StoredUsed,
			StoredLimit:       stats.Usage.StoredLimit,
			LifetimeGenerated: stats.Usage.LifetimeGenerated,
		},
	})
}
