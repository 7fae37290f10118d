// Package billing provides Stripe integration for subscription management.
//
// Stripe is the billing authority: the values it reports through webhooks
// are absolute truth for plan, renewal date and cancellation state. This
// package only talks to the Stripe API and normalizes its payloads; the
// lifecycle transitions live in the domain package.
package billing

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/subscription"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/analogous-app/analogous/internal/domain"
)

// Service defines the interface for billing operations.
type Service interface {
	// CreateCustomer creates a new Stripe customer for the given email.
	CreateCustomer(email, name string) (string, error)

	// CreateCheckoutSession creates a Stripe Checkout session for the
	// Scholar plan. Returns the checkout URL to redirect the user to.
	CreateCheckoutSession(customerID, successURL, cancelURL string) (string, error)

	// ScheduleCancel sets a subscription to cancel at period end.
	// The user keeps the paid plan until the authority confirms.
	ScheduleCancel(subscriptionID string) error

	// ClearScheduledCancel removes the cancel_at_period_end flag.
	ClearScheduledCancel(subscriptionID string) error

	// VerifyWebhookSignature verifies the Stripe webhook signature and
	// returns the raw event. Processing must not proceed on error.
	VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error)

	// ParseEvent normalizes a verified Stripe event into a domain billing
	// event. Unrecognized types come back as EventUnhandled, never an error.
	ParseEvent(event stripe.Event) (domain.BillingEvent, error)
}

// stripeService is the concrete implementation of Service.
type stripeService struct {
	webhookSecret  string
	scholarPriceID string
}

// NewStripeService creates a new Stripe billing service.
//
// The secretKey authenticates Stripe API calls. The webhookSecret verifies
// incoming webhook signatures. scholarPriceID is the single paid price.
func NewStripeService(secretKey, webhookSecret, scholarPriceID string) Service {
	stripe.Key = secretKey

	return &stripeService{
		webhookSecret:  webhookSecret,
		scholarPriceID: scholarPriceID,
	}
}

func (s *stripeService) CreateCustomer(email, name string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	c, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create customer: %w", err)
	}
	return c.ID, nil
}

func (s *stripeService) CreateCheckoutSession(customerID, successURL, cancelURL string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.scholarPriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (s *stripeService) ScheduleCancel(subscriptionID string) error {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	_, err := subscription.Update(subscriptionID, params)
	if err != nil {
		return fmt.Errorf("stripe schedule cancel: %w", err)
	}
	return nil
}

func (s *stripeService) ClearScheduledCancel(subscriptionID string) error {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(false),
	}
	_, err := subscription.Update(subscriptionID, params)
	if err != nil {
		return fmt.Errorf("stripe clear scheduled cancel: %w", err)
	}
	return nil
}

func (s *stripeService) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("stripe webhook signature verification failed: %w", err)
	}
	return event, nil
}

func (s *stripeService) ParseEvent(event stripe.Event) (domain.BillingEvent, error) {
	ev := domain.BillingEvent{ID: event.ID}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return ev, fmt.Errorf("malformed checkout.session.completed payload: %w", err)
		}
		ev.Type = domain.EventCheckoutCompleted
		if sess.Customer != nil {
			ev.CustomerID = sess.Customer.ID
		}
		if sess.Subscription != nil {
			ev.SubscriptionID = sess.Subscription.ID
			ev.Status = domain.SubscriptionStatus(sess.Subscription.Status)
			ev.PeriodStart = unixDate(sess.Subscription.CurrentPeriodStart)
			ev.PeriodEnd = unixDate(sess.Subscription.CurrentPeriodEnd)
		}

	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return ev, fmt.Errorf("malformed %s payload: %w", event.Type, err)
		}
		switch event.Type {
		case "customer.subscription.created":
			ev.Type = domain.EventSubscriptionCreated
		case "customer.subscription.updated":
			ev.Type = domain.EventSubscriptionUpdated
		default:
			ev.Type = domain.EventSubscriptionDeleted
		}
		if sub.Customer != nil {
			ev.CustomerID = sub.Customer.ID
		}
		ev.SubscriptionID = sub.ID
		ev.Status = domain.SubscriptionStatus(sub.Status)
		ev.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
		ev.PeriodStart = unixDate(sub.CurrentPeriodStart)
		ev.PeriodEnd = unixDate(sub.CurrentPeriodEnd)
		ev.ScholarPrice = s.subscriptionHasScholarPrice(&sub)

	case "invoice.paid", "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return ev, fmt.Errorf("malformed %s payload: %w", event.Type, err)
		}
		if event.Type == "invoice.paid" {
			ev.Type = domain.EventInvoicePaid
		} else {
			ev.Type = domain.EventInvoicePaymentFailed
			// A null next_payment_attempt means Stripe has given up retrying
			// this invoice.
			ev.RetryExhausted = inv.NextPaymentAttempt == 0
		}
		if inv.Customer != nil {
			ev.CustomerID = inv.Customer.ID
		}
		if inv.Subscription != nil {
			ev.SubscriptionID = inv.Subscription.ID
		}
		ev.PeriodEnd = unixDate(inv.PeriodEnd)

	default:
		ev.Type = domain.EventUnhandled
	}

	return ev, nil
}

// subscriptionHasScholarPrice reports whether any line item is the paid price.
func (s *stripeService) subscriptionHasScholarPrice(sub *stripe.Subscription) bool {
	if sub.Items == nil {
		return false
	}
	for _, item := range sub.Items.Data {
		if item.Price != nil && item.Price.ID == s.scholarPriceID {
			return true
		}
	}
	return false
}

// unixDate converts a Stripe Unix timestamp to a time pointer, nil when unset.
func unixDate(ts int64) *time.Time {
	if ts == 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}
