// Package domain contains core business types and interfaces.
//
// This file defines the Account domain type and related types for
// authentication. These types are separate from the repository models so
// business logic never handles sql.Null* values directly.
package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Account represents a registered user of the platform.
//
// Entitlement, usage accounting and streak state all live on the account row.
// Billing fields (Plan, RenewalDate, PlanCancelled, SubscriptionID) are owned
// by the billing authority: webhook events overwrite them with absolute values
// and local writes are optimistic placeholders until the authority confirms.
type Account struct {
	ID                 uuid.UUID
	Email              string
	PasswordHash       string // Never expose this in API responses
	FirstName          string
	LastName           string
	OptInMarketing     bool
	OnboardingComplete bool

	// Billing
	Plan                  Plan
	UpcomingPlan          Plan // Plan taking effect at the next renewal
	PlanCancelled         bool // Cancel-at-period-end is scheduled
	StripeCustomerID      string
	SubscriptionID        string // Retained after termination for audit
	SubscriptionStartDate *time.Time
	RenewalDate           *time.Time
	RenewalPending        bool // RenewalDate is a local estimate, not authority-confirmed

	// Usage accounting
	DailyCount        int
	DailyResetDate    *time.Time // Local calendar date of the last reset
	LastActionTime    *time.Time
	LifetimeGenerated int

	// Streak
	CurrentStreak           int
	LongestStreak           int
	LastStreakDate          *time.Time // Local calendar date of last counted activity
	StreakResetAcknowledged bool

	Timezone  string // IANA zone ID, "UTC" when unset
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsScholar returns true if the account is on the paid plan.
func (a *Account) IsScholar() bool {
	return a.Plan == PlanScholar
}

// Limits returns the entitlement ceilings for the account's plan.
func (a *Account) Limits() PlanLimits {
	return GetPlanLimits(a.Plan)
}

// DisplayName returns the account's full name, or email if no name is set.
func (a *Account) DisplayName() string {
	if a.FirstName == "" && a.LastName == "" {
		return a.Email
	}
	if a.LastName == "" {
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// Session represents an authenticated session.
//
// Sessions are stored in the database with a hashed token.
// The raw token is only given to the client once (at login).
type Session struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	TokenHash string // SHA-256 hash of the session token
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// RegisterParams contains the validated parameters for account registration.
type RegisterParams struct {
	Email          string
	Password       string // Raw password, will be hashed by service
	FirstName      string
	LastName       string
	Timezone       string // Optional, defaults to UTC
	OptInMarketing bool
}

// LoginResult contains the result of a successful login.
type LoginResult struct {
	Account *Account
	Token   string // Raw session token (not hashed) - only returned once
}

// =============================================================================
// Conversion helpers from repository types
// =============================================================================

// NullStringValue safely extracts a string from sql.NullString.
func NullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// NullTimeValue safely extracts a time pointer from sql.NullTime.
func NullTimeValue(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}

// ToNullString converts a string to sql.NullString.
func ToNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// ToNullTime converts a time pointer to sql.NullTime.
func ToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
