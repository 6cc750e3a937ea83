package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/AnshRaj112/inframonitor-backend/internal/apperr"
	"github.com/AnshRaj112/inframonitor-backend/internal/services"
	"github.com/AnshRaj112/inframonitor-backend/internal/validation"
)

const maxJSONBody = 1 << 20

// HealthCheck pings one backing store.
type HealthCheck func(ctx context.Context) error

// Handler serves the REST API on top of the service layer.
type Handler struct {
	Occurrences   *services.OccurrenceService
	Confirmations *services.ConfirmationService
	Stats         *services.StatsService
	Users         *services.UserService
	Auth          *services.AuthService
	Notifications *services.NotificationService
	Hub           *services.NotificationHub
	Insights      *services.InsightsService
	Blocklist     IPBlocklist
	Checks        map[string]HealthCheck
	Production    bool
	Log           *zap.SugaredLogger
}

func (h *Handler) logger() *zap.SugaredLogger {
	if h.Log == nil {
		return zap.NewNop().Sugar()
	}
	return h.Log
}

type envelope map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, message string, data interface{}) {
	body := envelope{"success": true, "data": data}
	if message != "" {
		body["message"] = message
	}
	writeJSON(w, status, body)
}

// writeError maps err to its status and envelope. Internal causes are only
// echoed back outside production.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)
	body := envelope{"success": false, "message": apperr.Message(err)}
	if fields := apperr.Fields(err); len(fields) > 0 {
		body["errors"] = fields
	}
	if status == http.StatusInternalServerError {
		h.logger().Errorw("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		if !h.Production {
			body["stack"] = err.Error()
		}
	}
	writeJSON(w, status, body)
}

// decode reads a JSON body into dst and validates its struct tags.
func decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("Request body is required")
		}
		return apperr.Validation("Invalid JSON")
	}
	return validation.Struct(dst)
}

// decodeOptional accepts an empty body.
func decodeOptional(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Validation("Invalid JSON")
	}
	return validation.Struct(dst)
}

// NotFound is the catch-all for unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, envelope{
		"success": false,
		"message": "API route not found: " + r.Method + " " + r.URL.Path,
	})
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, envelope{
		"success": false,
		"message": "Method not allowed: " + r.Method + " " + strings.TrimSuffix(r.URL.Path, "/"),
	})
}
