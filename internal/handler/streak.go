package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/analogous-app/analogous/internal/service"
)

// StreakHandler exposes the streak engine.
//
// Routes (all require auth, {id} must be the authenticated account):
//   - GET  /users/{id}/streak      -> HandleGet
//   - POST /users/{id}/streak/ack  -> HandleAcknowledge
//   - GET  /users/{id}/streak-logs -> HandleLogs
type StreakHandler struct {
	streaks service.StreakService
	logger  *slog.Logger
}

// NewStreakHandler creates a new StreakHandler.
func NewStreakHandler(streaks service.StreakService, logger *slog.Logger) *StreakHandler {
	return &StreakHandler{
		streaks: streaks,
		logger:  logger,
	}
}

// RegisterRoutes registers streak routes behind the auth middleware.
func (h *StreakHandler) RegisterRoutes(mux *http.ServeMux, requireAccount func(http.Handler) http.Handler) {
	mux.Handle("GET /users/{id}/streak", requireAccount(http.HandlerFunc(h.HandleGet)))
	mux.Handle("POST /users/{id}/streak/ack", requireAccount(http.HandlerFunc(h.HandleAcknowledge)))
	mux.Handle("GET /users/{id}/streak-logs", requireAccount(http.HandlerFunc(h.HandleLogs)))
}

// HandleGet returns the streak after break detection. Reading is enough to
// persist a detected break, so clients always see corrected numbers.
func (h *StreakHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	account, ok := requireSelf(w, r, h.logger)
	if !ok {
		return
	}

	snapshot, err := h.streaks.Get(r.Context(), account.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, streakView{
		Current:  snapshot.Current,
		Longest:  snapshot.Longest,
		IsActive: snapshot.IsActive,
		WasReset: snapshot.WasReset,
	})
}

// HandleAcknowledge marks a detected streak break as seen.
func (h *StreakHandler) HandleAcknowledge(w http.ResponseWriter, r *http.Request) {
	account, ok := requireSelf(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.streaks.AcknowledgeReset(r.Context(), account.ID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type streakLogView struct {
	Date string `json:"date"` // YYYY-MM-DD in the user's local calendar
}

type streakLogsResponse struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Logs  []streakLogView `json:"logs"`
}

// HandleLogs lists activity days within one calendar month.
// Requires ?year= and ?month= query parameters.
func (h *StreakHandler) HandleLogs(w http.ResponseWriter, r *http.Request) {
	account, ok := requireSelf(w, r, h.logger)
	if !ok {
		return
	}

	year := queryInt(r, "year", 0)
	month := queryInt(r, "month", 0)

	entries, err := h.streaks.Logs(r.Context(), account.ID, year, time.Month(month))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	logs := make([]streakLogView, 0, len(entries))
	for _, entry := range entries {
		logs = append(logs, streakLogView{Date: entry.Date.Format("2006-01-02")})
	}
	writeJSON(w, http.StatusOK, streakLogsResponse{Year: year, Month: month, Logs: logs})
}
