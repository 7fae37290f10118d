// Package handler contains the JSON API handlers for the Analogous backend.
//
// Every handler follows the same shape: a struct holding its services and a
// logger, a constructor, and a RegisterRoutes method that attaches routes to
// the mux. Error responses all flow through ErrorResponse so status mapping
// lives in one place.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/analogous-app/analogous/internal/auth"
	"github.com/analogous-app/analogous/internal/domain"
)

// maxRequestBody caps JSON request bodies. Topics and audiences are short
// strings; anything near this size is not a legitimate request.
const maxRequestBody = 1 << 20 // 1MB

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON decodes a request body into dst, rejecting unknown fields and
// oversized bodies. Returns a domain error suitable for ErrorResponse.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Invalid("", "Request body is required")
		}
		return domain.Invalid("", "Invalid JSON request body")
	}
	return nil
}

// pathUUID parses a UUID path parameter registered with the given name.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, domain.Invalid("", "Invalid ID in URL")
	}
	return id, nil
}

// requireSelf resolves the {id} path parameter and verifies it names the
// authenticated account. User-scoped routes never expose other accounts.
func requireSelf(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*domain.Account, bool) {
	account := auth.GetAccountFromRequest(r)
	if account == nil {
		UnauthorizedResponse(w, r, logger)
		return nil, false
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, logger, err)
		return nil, false
	}
	if id != account.ID {
		ForbiddenResponse(w, r, logger)
		return nil, false
	}
	return account, true
}

// accountView is the client-facing account representation.
// The password hash and Stripe identifiers never leave the server.
type accountView struct {
	ID                 uuid.UUID  `json:"id"`
	Email              string     `json:"email"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	Plan               string     `json:"plan"`
	UpcomingPlan       string     `json:"upcoming_plan,omitempty"`
	PlanCancelled      bool       `json:"plan_cancelled"`
	RenewalDate        *time.Time `json:"renewal_date,omitempty"`
	Timezone           string     `json:"timezone"`
	OnboardingComplete bool       `json:"onboarding_complete"`
	CreatedAt          time.Time  `json:"created_at"`
}

func newAccountView(a *domain.Account) accountView {
	return accountView{
		ID:                 a.ID,
		Email:              a.Email,
		FirstName:          a.FirstName,
		LastName:           a.LastName,
		Plan:               string(a.Plan),
		UpcomingPlan:       string(a.UpcomingPlan),
		PlanCancelled:      a.PlanCancelled,
		RenewalDate:        a.RenewalDate,
		Timezone:           a.Timezone,
		OnboardingComplete: a.OnboardingComplete,
		CreatedAt:          a.CreatedAt,
	}
}

// analogyView is the client-facing analogy representation.
type analogyView struct {
	ID               uuid.UUID             `json:"id"`
	Topic            string                `json:"topic"`
	Audience         string                `json:"audience"`
	Content          domain.AnalogyContent `json:"content"`
	ImageURLs        []string              `json:"image_urls"`
	StreakPopupShown bool                  `json:"streak_popup_shown"`
	CreatedAt        time.Time             `json:"created_at"`
}

func newAnalogyView(a *domain.Analogy) analogyView {
	return analogyView{
		ID:               a.ID,
		Topic:            a.Topic,
		Audience:         a.Audience,
		Content:          a.Content,
		ImageURLs:        a.ImageURLs,
		StreakPopupShown: a.StreakPopupShown,
		CreatedAt:        a.CreatedAt,
	}
}
