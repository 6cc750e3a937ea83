package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/inframonitor-backend/internal/middleware"
	"github.com/AnshRaj112/inframonitor-backend/internal/models"
	"github.com/AnshRaj112/inframonitor-backend/internal/services"
)

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	profile, err := h.Users.Profile(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", profile)
}

// UpdateProfile only touches name, profile and preferences; other fields in the body are ignored.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var patch models.ProfileUpdate
	if err := decode(r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.Users.UpdateProfile(r.Context(), middleware.UserFromContext(r.Context()).ID, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Profile updated successfully", user)
}

func (h *Handler) GetUserLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.Users.Leaderboard(r.Context(), queryInt(r, "limit"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", board)
}

func (h *Handler) GetUserOccurrences(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.Occurrences.ListByReporter(r.Context(), chi.URLParam(r, "id"),
		services.NewPageRequest(q.Get("page"), q.Get("limit"), services.DefaultPageSize))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success":    true,
		"data":       page.Occurrences,
		"pagination": page.Pagination,
	})
}
