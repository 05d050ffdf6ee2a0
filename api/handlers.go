package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"memory-match-server/auth"
	"memory-match-server/config"
	"memory-match-server/storage"
)

// Authenticator resolves a bearer token to a user id.
type Authenticator func(token string) (string, error)

// Handler holds dependencies for API handlers.
type Handler struct {
	Config       *config.Config
	Results      storage.ResultStore
	Authenticate Authenticator
}

// NewHandler creates a new API handler with the given dependencies.
// results and authenticate may be nil.
func NewHandler(cfg *config.Config, results storage.ResultStore, authenticate Authenticator) *Handler {
	return &Handler{
		Config:       cfg,
		Results:      results,
		Authenticate: authenticate,
	}
}

// extractUserID validates the Authorization header and returns the user ID, or empty string on failure.
func (h *Handler) extractUserID(r *http.Request) string {
	token := auth.BearerToken(r)
	if token == "" || h.Authenticate == nil {
		return ""
	}
	userID, err := h.Authenticate(token)
	if err != nil {
		slog.Debug("rejected bearer token", "tag", "api", "err", err)
		return ""
	}
	return userID
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// History returns the game history for the authenticated user.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID := h.extractUserID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "authorization required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	list := []storage.GameRecord{}
	if h.Results != nil {
		var err error
		list, err = h.Results.ListByUserID(r.Context(), userID, limit)
		if err != nil {
			slog.Error("ListByUserID", "tag", "api", "err", err)
			writeError(w, http.StatusInternalServerError, "failed to load history")
			return
		}
	}
	writeJSON(w, http.StatusOK, list)
}

// LeaderboardResponse is the JSON structure for /api/leaderboard.
type LeaderboardResponse struct {
	Entries          []storage.LeaderboardEntry `json:"entries"`
	CurrentUserEntry *storage.LeaderboardEntry  `json:"current_user_entry"`
}

// Leaderboard returns the global leaderboard with optional current user entry.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, offset = storage.ClampPage(limit, offset)

	entries := []storage.LeaderboardEntry{}
	if h.Results != nil {
		var err error
		entries, err = h.Results.ListLeaderboard(r.Context(), limit, offset)
		if err != nil {
			slog.Error("ListLeaderboard", "tag", "api", "err", err)
			writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
			return
		}
	}

	var currentUserEntry *storage.LeaderboardEntry
	authUserID := h.extractUserID(r)
	if authUserID != "" && h.Results != nil {
		inPage := false
		for i := range entries {
			if entries[i].UserID == authUserID {
				entries[i].IsCurrentUser = true
				inPage = true
				break
			}
		}
		if !inPage {
			cur, err := h.Results.GetLeaderboardEntryByUserID(r.Context(), authUserID)
			if err != nil {
				slog.Warn("GetLeaderboardEntryByUserID", "tag", "api", "err", err)
			} else if cur != nil {
				cur.IsCurrentUser = true
				currentUserEntry = cur
			}
		}
	}

	writeJSON(w, http.StatusOK, LeaderboardResponse{Entries: entries, CurrentUserEntry: currentUserEntry})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "tag", "api", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
