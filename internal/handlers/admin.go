package handlers

import (
	"context"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/inframonitor-backend/internal/apperr"
)

// IPBlocklist exposes the shared rate limiter's block list.
type IPBlocklist interface {
	IsBlocked(ctx context.Context, ip string) (bool, error)
	Unblock(ctx context.Context, ip string) error
}

// GetInsights returns daily activity and top contributors from the activity ledger.
func (h *Handler) GetInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.Insights.Insights(r.Context(), queryInt(r, "days"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", insights)
}

// UnblockIP handles DELETE /api/admin/blocked-ips/{ip}.
func (h *Handler) UnblockIP(w http.ResponseWriter, r *http.Request) {
	if h.Blocklist == nil {
		h.writeError(w, r, apperr.Unavailable("Rate limiting is not configured"))
		return
	}
	ip := chi.URLParam(r, "ip")
	if net.ParseIP(ip) == nil {
		h.writeError(w, r, apperr.Validation("Invalid IP address", apperr.FieldError{Field: "ip", Message: "ip must be a valid IP address"}))
		return
	}

	blocked, err := h.Blocklist.IsBlocked(r.Context(), ip)
	if err != nil {
		h.writeError(w, r, apperr.Internal("Failed to check block status", err))
		return
	}
	if !blocked {
		writeJSON(w, http.StatusOK, envelope{"success": true, "message": "IP address is not currently blocked"})
		return
	}
	if err := h.Blocklist.Unblock(r.Context(), ip); err != nil {
		h.writeError(w, r, apperr.Internal("Failed to unblock IP", err))
		return
	}
	h.logger().Infow("🔓 ip unblocked", "ip", ip)
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "IP address unblocked successfully", "ip_address": ip})
}
