// Package domain contains core business types and interfaces.
//
// This file defines billing events and the subscription lifecycle
// transitions. Transitions are pure: they take the current billing slice of
// an account plus one authority event and return the next slice. Every field
// an event carries is an absolute value, never a delta, so applying the same
// event twice (or late) converges on the same state.
package domain

import "time"

// SubscriptionStatus mirrors the billing authority's subscription status.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusUnpaid   SubscriptionStatus = "unpaid"
)

// BillingEventType identifies the kind of authority notification.
type BillingEventType string

const (
	EventCheckoutCompleted    BillingEventType = "checkout.session.completed"
	EventSubscriptionCreated  BillingEventType = "customer.subscription.created"
	EventSubscriptionUpdated  BillingEventType = "customer.subscription.updated"
	EventSubscriptionDeleted  BillingEventType = "customer.subscription.deleted"
	EventInvoicePaid          BillingEventType = "invoice.paid"
	EventInvoicePaymentFailed BillingEventType = "invoice.payment_failed"

	// EventUnhandled marks event types we receive but do not act on.
	// They are logged and acknowledged, never dropped silently.
	EventUnhandled BillingEventType = "unhandled"
)

// BillingEvent is the normalized form of an authority webhook notification.
// Fields are populated per type; absent fields are zero values.
type BillingEvent struct {
	ID   string // Authority event ID, used for the replay ledger
	Type BillingEventType

	CustomerID        string
	SubscriptionID    string
	Status            SubscriptionStatus
	CancelAtPeriodEnd bool
	PeriodEnd         *time.Time // Current period end, becomes the renewal date
	PeriodStart       *time.Time
	ScholarPrice      bool // Event's price maps to the paid plan

	// RetryExhausted is set on invoice.payment_failed when the authority
	// has no further payment attempt scheduled. While retries are pending
	// the account stays in a grace period.
	RetryExhausted bool
}

// BillingState is the billing slice of an account, the input and output of
// lifecycle transitions.
type BillingState struct {
	Plan              Plan
	UpcomingPlan      Plan
	PlanCancelled     bool
	SubscriptionID    string
	SubscriptionStart *time.Time
	RenewalDate       *time.Time
	RenewalPending    bool
}

// terminal reports whether a status ends the paid entitlement.
func terminal(status SubscriptionStatus) bool {
	return status == SubscriptionStatusCanceled || status == SubscriptionStatusUnpaid
}

// Apply returns the billing state after one authority event.
//
// The subscription ID is retained through termination so support can trace
// billing history. past_due keeps the paid plan: the authority retries the
// charge and emits a terminal status if it gives up.
func (s BillingState) Apply(ev BillingEvent) BillingState {
	switch ev.Type {
	case EventCheckoutCompleted:
		s.Plan = PlanScholar
		s.UpcomingPlan = ""
		s.PlanCancelled = false
		if ev.SubscriptionID != "" {
			s.SubscriptionID = ev.SubscriptionID
		}
		if ev.PeriodStart != nil {
			s.SubscriptionStart = ev.PeriodStart
		}
		if ev.PeriodEnd != nil {
			s.RenewalDate = ev.PeriodEnd
			s.RenewalPending = false
		}

	case EventSubscriptionCreated, EventSubscriptionUpdated:
		if ev.SubscriptionID != "" {
			s.SubscriptionID = ev.SubscriptionID
		}
		if terminal(ev.Status) {
			s.Plan = PlanCurious
			s.UpcomingPlan = ""
			s.PlanCancelled = false
			s.RenewalDate = nil
			s.RenewalPending = false
			break
		}
		s.Plan = PlanScholar
		s.PlanCancelled = ev.CancelAtPeriodEnd
		if ev.CancelAtPeriodEnd {
			s.UpcomingPlan = PlanCurious
		} else {
			s.UpcomingPlan = ""
		}
		if ev.PeriodStart != nil {
			s.SubscriptionStart = ev.PeriodStart
		}
		if ev.PeriodEnd != nil {
			s.RenewalDate = ev.PeriodEnd
			s.RenewalPending = false
		}

	case EventSubscriptionDeleted:
		s.Plan = PlanCurious
		s.UpcomingPlan = ""
		s.PlanCancelled = false
		s.RenewalDate = nil
		s.RenewalPending = false
		if ev.SubscriptionID != "" {
			s.SubscriptionID = ev.SubscriptionID
		}

	case EventInvoicePaid:
		// Re-affirm the paid plan. A failed-payment downgrade leaves
		// upcoming_plan at curious with the subscription retained;
		// deletion clears upcoming_plan, so a stale paid invoice cannot
		// resurrect a deleted subscription.
		if ev.SubscriptionID != "" && ev.SubscriptionID == s.SubscriptionID &&
			s.Plan == PlanCurious && s.UpcomingPlan == PlanCurious {
			s.Plan = PlanScholar
			if !s.PlanCancelled {
				s.UpcomingPlan = ""
			}
		}
		if ev.PeriodEnd != nil {
			s.RenewalDate = ev.PeriodEnd
			s.RenewalPending = false
		}

	case EventInvoicePaymentFailed:
		// While the authority still has retries scheduled this is a grace
		// period: no tier change. Once it gives up, the paid entitlement
		// ends. The subscription ID and renewal date are retained so a
		// later successful retry's invoice.paid can restore the plan.
		if ev.RetryExhausted {
			s.Plan = PlanCurious
			s.UpcomingPlan = PlanCurious
			s.RenewalPending = false
		}

	case EventUnhandled:
		// No state change.
	}

	return s
}
