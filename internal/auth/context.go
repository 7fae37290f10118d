// Package auth provides authentication context helpers.
//
// This package is designed to be imported by both middleware and handler
// packages without causing import cycles.
package auth

import (
	"context"
	"net/http"

	"github.com/analogous-app/analogous/internal/domain"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// accountContextKey is the key used to store the authenticated account in context.
	accountContextKey contextKey = "account"
)

// GetAccount retrieves the authenticated account from the context.
//
// Returns nil if no account is authenticated.
//
// Usage:
//
//	account := auth.GetAccount(r.Context())
//	if account == nil {
//	    // Handle unauthenticated request
//	}
func GetAccount(ctx context.Context) *domain.Account {
	account, ok := ctx.Value(accountContextKey).(*domain.Account)
	if !ok {
		return nil
	}
	return account
}

// GetAccountFromRequest retrieves the authenticated account from the request context.
//
// This is a convenience wrapper around GetAccount that takes the request directly.
func GetAccountFromRequest(r *http.Request) *domain.Account {
	return GetAccount(r.Context())
}

// SetAccount stores an account in the context.
//
// This is typically called by authentication middleware after validating
// a session token.
func SetAccount(ctx context.Context, account *domain.Account) context.Context {
	return context.WithValue(ctx, accountContextKey, account)
}
