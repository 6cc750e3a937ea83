package middleware

import (
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/AnshRaj112/inframonitor-backend/pkg/clientip"
)

// Occurrence write rate limit: per-IP, different limits for auth vs anonymous.
// Auth: 30 req/min, burst 10. Anonymous: 6 req/min, burst 3.
const (
	writeAuthRPS   = 0.5
	writeAuthBurst = 10
	writeAnonRPS   = 0.1
	writeAnonBurst = 3
)

var (
	writeAuthLimiters = newKeyedLimiters(rate.Limit(writeAuthRPS), writeAuthBurst)
	writeAnonLimiters = newKeyedLimiters(rate.Limit(writeAnonRPS), writeAnonBurst)
)

// OccurrenceWriteRateLimit throttles reports, confirmations, edits and uploads.
// Reads pass through untouched. Only a token that resolves to a user earns the
// authenticated bucket; the resolved user is kept on the request so the auth
// middleware further down does not look it up again.
func OccurrenceWriteRateLimit(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			user := UserFromContext(r.Context())
			if user == nil && a != nil {
				if token := BearerToken(r); token != "" {
					if u, err := a.Authenticate(r.Context(), token); err == nil {
						user = u
						r = r.WithContext(WithUser(r.Context(), u))
					}
				}
			}

			ip := clientip.RealClientIP(r)
			limiters, limit := writeAnonLimiters, writeAnonBurst
			if user != nil {
				limiters, limit = writeAuthLimiters, writeAuthBurst
			}
			l := limiters.get(ip)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			if !l.Allow() {
				w.Header().Set("X-RateLimit-Remaining", "0")
				writeJSONError(w, http.StatusTooManyRequests, "Too many submissions. Please slow down.")
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(l.Tokens())))
			next.ServeHTTP(w, r)
		})
	}
}
