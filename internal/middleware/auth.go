// Package middleware contains HTTP middleware for the Analogous API.
//
// Middleware functions follow the standard Go pattern of wrapping http.Handler.
// They are designed to be composed using a middleware stack approach.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/analogous-app/analogous/internal/auth"
	"github.com/analogous-app/analogous/internal/handler"
	"github.com/analogous-app/analogous/internal/service"
)

// =============================================================================
// Auth Middleware
// =============================================================================

// AuthMiddleware authenticates requests from their bearer session token.
type AuthMiddleware struct {
	accounts service.AccountService
	logger   *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
func NewAuthMiddleware(accounts service.AccountService, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		accounts: accounts,
		logger:   logger,
	}
}

// WithAccount attempts to load the account from the Authorization header.
//
// The request continues regardless of authentication status; handlers that
// need a user pair this with RequireAccount. An invalid or expired token is
// treated the same as no token at all.
func (m *AuthMiddleware) WithAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		account, err := m.accounts.Authenticate(r.Context(), token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.SetAccount(r.Context(), account)))
	})
}

// RequireAccount rejects unauthenticated requests with 401.
//
// Must run after WithAccount in the middleware chain.
func (m *AuthMiddleware) RequireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.GetAccount(r.Context()) == nil {
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the token from an "Authorization: Bearer ..." header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}

// =============================================================================
// Middleware Stack Helpers
// =============================================================================

// Stack composes multiple middleware functions into a single middleware.
//
// Middleware is applied in the order provided, meaning the first middleware
// in the slice is the outermost (runs first on request, last on response).
//
// Example:
//
//	stack := Stack(loggingMw, authMw.WithAccount, authMw.RequireAccount)
//	mux.Handle("GET /analogies", stack(listHandler))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// =============================================================================
// Compile-time checks
// =============================================================================

var (
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).WithAccount
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).RequireAccount
)
