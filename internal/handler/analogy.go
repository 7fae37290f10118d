package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/analogous-app/analogous/internal/auth"
	"github.com/analogous-app/analogous/internal/domain"
	"github.com/analogous-app/analogous/internal/service"
)

// AnalogyHandler handles the generation pipeline and stored analogy reads.
//
// Routes (all require auth):
//   - POST   /analogies                  -> HandleGenerate
//   - GET    /analogies                  -> HandleList
//   - GET    /analogies/{id}             -> HandleGet
//   - POST   /analogies/{id}/regenerate  -> HandleRegenerate
//   - DELETE /analogies/{id}             -> HandleDelete
//   - PATCH  /analogies/{id}/streak-popup-shown -> HandleStreakPopupShown
//   - GET    /users/{id}/analogies-count -> HandleCount
//   - GET    /users/{id}/lifetime-analogies-count -> HandleLifetimeCount
//   - GET    /users/{id}/usage           -> HandleUsage
type AnalogyHandler struct {
	analogies    service.AnalogyService
	entitlements service.EntitlementService
	logger       *slog.Logger
}

// NewAnalogyHandler creates a new AnalogyHandler.
func NewAnalogyHandler(analogies service.AnalogyService, entitlements service.EntitlementService, logger *slog.Logger) *AnalogyHandler {
	return &AnalogyHandler{
		analogies:    analogies,
		entitlements: entitlements,
		logger:       logger,
	}
}

// RegisterRoutes registers analogy routes behind the auth middleware.
func (h *AnalogyHandler) RegisterRoutes(mux *http.ServeMux, requireAccount func(http.Handler) http.Handler) {
	mux.Handle("POST /analogies", requireAccount(http.HandlerFunc(h.HandleGenerate)))
	mux.Handle("GET /analogies", requireAccount(http.HandlerFunc(h.HandleList)))
	mux.Handle("GET /analogies/{id}", requireAccount(http.HandlerFunc(h.HandleGet)))
	mux.Handle("POST /analogies/{id}/regenerate", requireAccount(http.HandlerFunc(h.HandleRegenerate)))
	mux.Handle("DELETE /analogies/{id}", requireAccount(http.HandlerFunc(h.HandleDelete)))
	mux.Handle("PATCH /analogies/{id}/streak-popup-shown", requireAccount(http.HandlerFunc(h.HandleStreakPopupShown)))
	mux.Handle("GET /users/{id}/analogies-count", requireAccount(http.HandlerFunc(h.HandleCount)))
	mux.Handle("GET /users/{id}/lifetime-analogies-count", requireAccount(http.HandlerFunc(h.HandleLifetimeCount)))
	mux.Handle("GET /users/{id}/usage", requireAccount(http.HandlerFunc(h.HandleUsage)))
}

type generateRequest struct {
	Topic    string `json:"topic"`
	Audience string `json:"audience"`
}

type streakView struct {
	Current  int  `json:"current"`
	Longest  int  `json:"longest"`
	IsActive bool `json:"is_active"`
	WasReset bool `json:"was_reset"`
}

type generateResponse struct {
	Analogy         analogyView `json:"analogy"`
	Streak          streakView  `json:"streak"`
	ShowStreakPopup bool        `json:"show_streak_popup"`
}

func newGenerateResponse(result *domain.GenerateResult) generateResponse {
	return generateResponse{
		Analogy: newAnalogyView(result.Analogy),
		Streak: streakView{
			Current:  result.Streak.Current,
			Longest:  result.Streak.Longest,
			IsActive: result.Streak.IsActive,
			WasReset: result.Streak.WasReset,
		},
		ShowStreakPopup: result.ShowStreakPopup,
	}
}

// HandleGenerate runs the full generation pipeline for the authenticated account.
func (h *AnalogyHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	account := auth.GetAccountFromRequest(r)
	if account == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.analogies.Generate(r.Context(), domain.GenerateParams{
		AccountID: account.ID,
		Topic:     req.Topic,
		Audience:  req.Audience,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, newGenerateResponse(result))
}

// HandleRegenerate reruns the pipeline with a stored analogy's inputs.
// The result is a new analogy; the original is untouched.
func (h *AnalogyHandler) HandleRegenerate(w http.ResponseWriter, r *http.Request) {
	account := auth.GetAccountFromRequest(r)
	if account == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	analogyID, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.analogies.Regenerate(r.Context(), account.ID, analogyID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, newGenerateResponse(result))
}

// HandleGet returns one analogy owned by the authenticated account.
func (h *AnalogyHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	account := auth.GetAccountFromRequest(r)
	if account == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	analogyID, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	analogy, err := h.analogies.Get(r.Context(), account.ID, analogyID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newAnalogyView(analogy))
}

type listResponse struct {
	Analogies []analogyView `json:"analogies"`
	Limit     int           `json:"limit"`
	Offset    int           `json:"offset"`
}

// HandleList returns the account's analogies, newest first.
// Supports ?limit= and ?offset= query parameters.
func (h *AnalogyHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	account := auth.GetAccountFromRequest(r)
	if account == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	analogies, err := h.analogies.List(r.Context(), account.ID, limit, offset)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	views := make([]analogyView, 0, len(analogies))
	for i := range analogies {
		views = append(views, newAnalogyView(&analogies[i]))
	}
	writeJSON(w, http.StatusOK, listResponse{Analogies: views, Limit: limit, Offset: offset})
}

// HandleDelete removes an analogy, freeing storage quota.
func (h *AnalogyHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	account := auth.GetAccountFromRequest(r)
	if account == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	analogyID, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.analogies.Delete(r.Context(), account.ID, analogyID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleStreakPopupShown records that the client displayed the streak popup
// for an analogy, so reloading the page does not show it again.
func (h *AnalogyHandler) HandleStreakPopupShown(w http.ResponseWriter, r *http.Request) {
	account := auth.GetAccountFromRequest(r)
	if account == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	analogyID, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.analogies.MarkStreakPopupShown(r.Context(), account.ID, analogyID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleCount returns the number of stored analogies for the account.
func (h *AnalogyHandler) HandleCount(w http.ResponseWriter, r *http.Request) {
	account, ok := requireSelf(w, r, h.logger)
	if !ok {
		return
	}

	count, err := h.analogies.Count(r.Context(), account.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

// HandleLifetimeCount returns how many analogies the account has ever
// generated. Deletions do not reduce this number.
func (h *AnalogyHandler) HandleLifetimeCount(w http.ResponseWriter, r *http.Request) {
	account, ok := requireSelf(w, r, h.logger)
	if !ok {
		return
	}

	usage, err := h.entitlements.Usage(r.Context(), account.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"count": usage.LifetimeGenerated})
}

type usageResponse struct {
	Plan              string `json:"plan"`
	DailyUsed         int    `json:"daily_used"`
	DailyLimit        int    `json:"daily_limit"`
	StoredUsed        int    `json:"stored_used"`
	StoredLimit       int    `json:"stored_limit"`
	LifetimeGenerated int    `json:"lifetime_generated"`
}

// HandleUsage reports current consumption against the plan ceilings.
func (h *AnalogyHandler) HandleUsage(w http.ResponseWriter, r *http.Request) {
	account, ok := requireSelf(w, r, h.logger)
	if !ok {
		return
	}

	usage, err := h.entitlements.Usage(r.Context(), account.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, usageResponse{
		Plan:              string(usage.Plan),
		DailyUsed:         usage.DailyUsed,
		DailyLimit:        usage.DailyLimit,
		StoredUsed:        usage.StoredUsed,
		StoredLimit:       usage.StoredLimit,
		LifetimeGenerated: usage.LifetimeGenerated,
	})
}

// queryInt reads an integer query parameter, falling back on absence or junk.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
