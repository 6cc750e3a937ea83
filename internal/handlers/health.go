package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	apiVersion    = "1.0.0"
	healthTimeout = 2 * time.Second
)

// Health pings every configured store concurrently. Any failure turns the response into a 503.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]string, len(names))
	var g errgroup.Group
	for i, name := range names {
		i := i
		check := h.Checks[name]
		g.Go(func() error {
			if err := check(ctx); err != nil {
				results[i] = "down: " + err.Error()
				return nil
			}
			results[i] = "up"
			return nil
		})
	}
	_ = g.Wait()

	healthy := true
	stores := make(map[string]string, len(names))
	for i, name := range names {
		stores[name] = results[i]
		if results[i] != "up" {
			healthy = false
		}
	}

	status, message := http.StatusOK, "InfraMonitor API is running"
	if !healthy {
		status, message = http.StatusServiceUnavailable, "InfraMonitor API is degraded"
	}
	var notifications interface{}
	if h.Notifications != nil {
		notifications = h.Notifications.Stats()
	}
	writeJSON(w, status, envelope{
		"success":       healthy,
		"message":       message,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
		"version":       apiVersion,
		"stores":        stores,
		"notifications": notifications,
	})
}
