package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/analogous-app/analogous/internal/billing"
	"github.com/analogous-app/analogous/internal/domain"
	"github.com/analogous-app/analogous/internal/metrics"
	"github.com/analogous-app/analogous/internal/repository"
	"github.com/analogous-app/analogous/internal/tzdate"
)

// optimisticRenewalWindow is the placeholder renewal horizon written on
// upgrade, replaced by the authority-confirmed date on the next webhook.
const optimisticRenewalWindow = 30 * 24 * time.Hour

// SubscriptionService drives the plan lifecycle.
//
// User intents (upgrade, downgrade, resume) write optimistic local state and
// ask the billing authority to act; webhook events carry the authority's
// absolute answer and overwrite whatever the optimistic writes guessed.
type SubscriptionService interface {
	// Upgrade starts a Scholar checkout and optimistically flips the plan.
	// Returns the checkout URL to redirect the user to.
	Upgrade(ctx context.Context, accountID uuid.UUID) (string, error)

	// Downgrade schedules cancel-at-period-end. The account keeps Scholar
	// until the authority confirms the period is over.
	Downgrade(ctx context.Context, accountID uuid.UUID) error

	// Resume clears a scheduled cancellation. Only valid while one is
	// pending; anything else is a payment-state error.
	Resume(ctx context.Context, accountID uuid.UUID) error

	// HandleEvent applies one verified billing authority event. Replayed
	// event IDs are acknowledged without reprocessing.
	HandleEvent(ctx context.Context, ev domain.BillingEvent) error

	// PricingStats summarizes plan, renewal and usage for the pricing page.
	PricingStats(ctx context.Context, accountID uuid.UUID) (*PricingStats, error)
}

// PricingStats is the read-model for the pricing/plan page.
type PricingStats struct {
	Plan           domain.Plan
	UpcomingPlan   domain.Plan
	PlanCancelled  bool
	RenewalDate    *time.Time
	RenewalPending bool
	Usage          UsageSummary
}

type subscriptionService struct {
	queries     repository.Querier
	billing     billing.Service // nil when Stripe is not configured
	entitlement EntitlementService
	resolver    *tzdate.Resolver
	baseURL     string
	logger      *slog.Logger
	now         func() time.Time
}

// NewSubscriptionService creates a new subscription service.
// billingService may be nil when Stripe is not configured (development mode).
func NewSubscriptionService(
	queries repository.Querier,
	billingService billing.Service,
	entitlement EntitlementService,
	resolver *tzdate.Resolver,
	baseURL string,
	logger *slog.Logger,
) SubscriptionService {
	return &subscriptionService{
		queries:     queries,
		billing:     billingService,
		entitlement: entitlement,
		resolver:    resolver,
		baseURL:     baseURL,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *subscriptionService) Upgrade(ctx context.Context, accountID uuid.UUID) (string, error) {
	const op = "subscription.upgrade"

	account, err := s.loadAccount(ctx, op, accountID)
	if err != nil {
		return "", err
	}
	if account.IsScholar() && !account.PlanCancelled {
		return "", domain.Conflict(op, "Account is already on the Scholar plan.")
	}
	if s.billing == nil {
		return "", domain.Errorf(domain.EPAYMENT, op, "Billing is not configured.")
	}

	customerID := account.StripeCustomerID
	if customerID == "" {
		customerID, err = s.billing.CreateCustomer(account.Email, account.DisplayName())
		if err != nil {
			return "", domain.Internal(err, op, "failed to create billing customer")
		}
		err = s.queries.SetStripeCustomerID(ctx, repository.SetStripeCustomerIDParams{
			ID:               accountID,
			StripeCustomerID: domain.ToNullString(customerID),
		})
		if err != nil {
			return "", domain.Internal(err, op, "failed to store billing customer id")
		}
	}

	checkoutURL, err := s.billing.CreateCheckoutSession(
		customerID,
		s.baseURL+"/pricing?upgraded=1",
		s.baseURL+"/pricing",
	)
	if err != nil {
		return "", domain.Internal(err, op, "failed to create checkout session")
	}

	// Optimistic flip: the renewal date is a local estimate until the
	// authority confirms, and renewal_pending marks it as such.
	estimated := s.resolver.LocalDate(account.Timezone, s.now().Add(optimisticRenewalWindow))
	state := billingState(account)
	state.Plan = domain.PlanScholar
	state.UpcomingPlan = ""
	state.PlanCancelled = false
	state.RenewalDate = &estimated
	state.RenewalPending = true
	if err := s.persistBillingState(ctx, accountID, state); err != nil {
		return "", domain.Internal(err, op, "failed to store optimistic upgrade")
	}

	s.logger.Info("upgrade initiated", "account_id", accountID, "customer_id", customerID)

	return checkoutURL, nil
}

func (s *subscriptionService) Downgrade(ctx context.Context, accountID uuid.UUID) error {
	const op = "subscription.downgrade"

	account, err := s.loadAccount(ctx, op, accountID)
	if err != nil {
		return err
	}
	if !account.IsScholar() || account.SubscriptionID == "" {
		return domain.SubscriptionNotFound(op)
	}
	if account.PlanCancelled {
		// Already scheduled; repeating the intent is a no-op.
		return nil
	}
	if s.billing == nil {
		return domain.Errorf(domain.EPAYMENT, op, "Billing is not configured.")
	}

	if err := s.billing.ScheduleCancel(account.SubscriptionID); err != nil {
		return domain.Internal(err, op, "failed to schedule cancellation")
	}

	state := billingState(account)
	state.PlanCancelled = true
	state.UpcomingPlan = domain.PlanCurious
	if err := s.persistBillingState(ctx, accountID, state); err != nil {
		return domain.Internal(err, op, "failed to store scheduled cancellation")
	}

	s.logger.Info("downgrade scheduled", "account_id", accountID, "subscription_id", account.SubscriptionID)

	return nil
}

func (s *subscriptionService) Resume(ctx context.Context, accountID uuid.UUID) error {
	const op = "subscription.resume"

	account, err := s.loadAccount(ctx, op, accountID)
	if err != nil {
		return err
	}
	if !account.PlanCancelled || account.SubscriptionID == "" {
		return domain.SubscriptionNotFound(op)
	}
	if s.billing == nil {
		return domain.Errorf(domain.EPAYMENT, op, "Billing is not configured.")
	}

	if err := s.billing.ClearScheduledCancel(account.SubscriptionID); err != nil {
		return domain.Internal(err, op, "failed to clear scheduled cancellation")
	}

	state := billingState(account)
	state.PlanCancelled = false
	state.UpcomingPlan = ""
	if err := s.persistBillingState(ctx, accountID, state); err != nil {
		return domain.Internal(err, op, "failed to store resumed subscription")
	}

	s.logger.Info("subscription resumed", "account_id", accountID, "subscription_id", account.SubscriptionID)

	return nil
}

func (s *subscriptionService) HandleEvent(ctx context.Context, ev domain.BillingEvent) error {
	const op = "subscription.handle_event"

	if ev.Type == domain.EventUnhandled {
		s.logger.Info("unhandled billing event acknowledged", "event_id", ev.ID)
		metrics.WebhookEvents.WithLabelValues("unhandled", "skipped").Inc()
		return nil
	}

	// Replay ledger: an event ID we have already processed is acknowledged
	// without touching state. State-level idempotency still covers replays
	// that arrive before this insert commits.
	if ev.ID != "" {
		inserted, err := s.queries.InsertWebhookEvent(ctx, repository.InsertWebhookEventParams{
			EventID:   ev.ID,
			EventType: string(ev.Type),
		})
		if err != nil {
			return domain.Internal(err, op, "failed to record webhook event")
		}
		if inserted == 0 {
			s.logger.Info("replayed billing event ignored", "event_id", ev.ID, "type", ev.Type)
			metrics.WebhookEvents.WithLabelValues(string(ev.Type), "replay").Inc()
			return nil
		}
	}

	row, err := s.findAccountForEvent(ctx, ev)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Not fatal: checkout for a deleted account, or an event for a
			// customer created outside this system.
			s.logger.Warn("billing event for unknown account", "event_id", ev.ID, "type", ev.Type, "customer_id", ev.CustomerID)
			metrics.WebhookEvents.WithLabelValues(string(ev.Type), "orphan").Inc()
			return nil
		}
		s.unrecordEvent(ctx, ev.ID)
		return domain.Internal(err, op, "failed to locate account for event")
	}
	account := accountFromRow(row)

	// Renewal dates are calendar dates in the user's zone.
	localized := ev
	if ev.PeriodEnd != nil {
		d := s.resolver.LocalDate(account.Timezone, *ev.PeriodEnd)
		localized.PeriodEnd = &d
	}
	if ev.PeriodStart != nil {
		d := s.resolver.LocalDate(account.Timezone, *ev.PeriodStart)
		localized.PeriodStart = &d
	}

	next := billingState(account).Apply(localized)
	if err := s.persistBillingState(ctx, account.ID, next); err != nil {
		s.unrecordEvent(ctx, ev.ID)
		return domain.Internal(err, op, "failed to apply billing event")
	}

	s.logger.Info("billing event applied",
		"event_id", ev.ID,
		"type", ev.Type,
		"account_id", account.ID,
		"plan", next.Plan,
		"plan_cancelled", next.PlanCancelled,
	)
	metrics.WebhookEvents.WithLabelValues(string(ev.Type), "applied").Inc()

	return nil
}

func (s *subscriptionService) PricingStats(ctx context.Context, accountID uuid.UUID) (*PricingStats, error) {
	const op = "subscription.pricing_stats"

	account, err := s.loadAccount(ctx, op, accountID)
	if err != nil {
		return nil, err
	}

	usage, err := s.entitlement.Usage(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return &PricingStats{
		Plan:           account.Plan,
		UpcomingPlan:   account.UpcomingPlan,
		PlanCancelled:  account.PlanCancelled,
		RenewalDate:    account.RenewalDate,
		RenewalPending: account.RenewalPending,
		Usage:          *usage,
	}, nil
}

func (s *subscriptionService) loadAccount(ctx context.Context, op string, accountID uuid.UUID) (*domain.Account, error) {
	row, err := s.queries.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "account", accountID.String())
		}
		return nil, domain.Internal(err, op, "failed to load account")
	}
	return accountFromRow(row), nil
}

// unrecordEvent removes an event from the replay ledger after a transient
// processing failure, so the authority's redelivery is not mistaken for a
// replay and the transition is not lost.
func (s *subscriptionService) unrecordEvent(ctx context.Context, eventID string) {
	if eventID == "" {
		return
	}
	if err := s.queries.DeleteWebhookEvent(ctx, eventID); err != nil {
		s.logger.Error("failed to unrecord webhook event", "event_id", eventID, "error", err)
	}
}

// findAccountForEvent resolves the account an event belongs to, preferring
// the subscription ID and falling back to the customer ID.
func (s *subscriptionService) findAccountForEvent(ctx context.Context, ev domain.BillingEvent) (repository.Account, error) {
	if ev.SubscriptionID != "" {
		row, err := s.queries.GetAccountBySubscriptionID(ctx, domain.ToNullString(ev.SubscriptionID))
		if err == nil {
			return row, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return repository.Account{}, err
		}
	}
	if ev.CustomerID != "" {
		return s.queries.GetAccountByStripeCustomerID(ctx, domain.ToNullString(ev.CustomerID))
	}
	return repository.Account{}, sql.ErrNoRows
}

func (s *subscriptionService) persistBillingState(ctx context.Context, accountID uuid.UUID, state domain.BillingState) error {
	return s.queries.UpdateBillingState(ctx, repository.UpdateBillingStateParams{
		ID:                    accountID,
		Plan:                  string(state.Plan),
		UpcomingPlan:          domain.ToNullString(string(state.UpcomingPlan)),
		PlanCancelled:         state.PlanCancelled,
		SubscriptionID:        domain.ToNullString(state.SubscriptionID),
		SubscriptionStartDate: domain.ToNullTime(state.SubscriptionStart),
		RenewalDate:           domain.ToNullTime(state.RenewalDate),
		RenewalPending:        state.RenewalPending,
	})
}

// billingState extracts the billing slice of an account.
func billingState(account *domain.Account) domain.BillingState {
	return domain.BillingState{
		Plan:              account.Plan,
		UpcomingPlan:      account.UpcomingPlan,
		PlanCancelled:     account.PlanCancelled,
		SubscriptionID:    account.SubscriptionID,
		SubscriptionStart: account.SubscriptionStartDate,
		RenewalDate:       account.RenewalDate,
		RenewalPending:    account.RenewalPending,
	}
}
