package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/analogous-app/analogous/internal/auth"
	"github.com/analogous-app/analogous/internal/domain"
	"github.com/analogous-app/analogous/internal/service"
)

// AuthHandler handles signup, login and logout.
//
// Routes:
//   - POST /signup  -> HandleSignup
//   - POST /login   -> HandleLogin
//   - POST /logout  -> HandleLogout (requires auth)
//   - GET  /me      -> HandleMe (requires auth)
type AuthHandler struct {
	accounts service.AccountService
	logger   *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accounts service.AccountService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		logger:   logger,
	}
}

// RegisterRoutes registers the public auth routes on the provided mux.
// limitSignup and limitLogin wrap the handlers with per-IP rate limiting.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, limitSignup, limitLogin func(http.Handler) http.Handler) {
	mux.Handle("POST /signup", limitSignup(http.HandlerFunc(h.HandleSignup)))
	mux.Handle("POST /login", limitLogin(http.HandlerFunc(h.HandleLogin)))
}

// RegisterProtectedRoutes registers routes that need an authenticated account.
func (h *AuthHandler) RegisterProtectedRoutes(mux *http.ServeMux, requireAccount func(http.Handler) http.Handler) {
	mux.Handle("POST /logout", requireAccount(http.HandlerFunc(h.HandleLogout)))
	mux.Handle("GET /me", requireAccount(http.HandlerFunc(h.HandleMe)))
}

type signupRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Timezone       string `json:"timezone"`
	OptInMarketing bool   `json:"opt_in_marketing"`
}

type sessionResponse struct {
	Token   string      `json:"token"`
	Account accountView `json:"account"`
}

// HandleSignup creates a new account on the free plan and logs it in.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.accounts.Register(r.Context(), domain.RegisterParams{
		Email:          req.Email,
		Password:       req.Password,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Timezone:       req.Timezone,
		OptInMarketing: req.OptInMarketing,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.logger.Info("account created", "account_id", result.Account.ID)
	writeJSON(w, http.StatusCreated, sessionResponse{
		Token:   result.Token,
		Account: newAccountView(result.Account),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials and issues a session token.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Token:   result.Token,
		Account: newAccountView(result.Account),
	})
}

// HandleLogout invalidates the presented session token.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	if err := h.accounts.Logout(r.Context(), token); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the authenticated account.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	account := auth.GetAccountFromRequest(r)
	if account == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, newAccountView(account))
}

// bearerToken extracts the token from an "Authorization: Bearer ..." header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
