package handlers

import (
	"net/http"
	"strconv"
)

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ov, err := h.Stats.Overview(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", ov)
}

func (h *Handler) GetStatsLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.Stats.Leaderboard(r.Context(), queryInt(r, "limit"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", board)
}

func (h *Handler) GetDashboardOverview(w http.ResponseWriter, r *http.Request) {
	d, err := h.Stats.DashboardOverview(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", d)
}

// queryInt returns 0 for missing or non-numeric values so services apply their defaults.
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}
