package routes

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/AnshRaj112/inframonitor-backend/internal/handlers"
	"github.com/AnshRaj112/inframonitor-backend/internal/metrics"
	"github.com/AnshRaj112/inframonitor-backend/internal/middleware"
	"github.com/AnshRaj112/inframonitor-backend/internal/models"
)

// Options controls the router-wide middleware stack.
type Options struct {
	AllowedOrigins []string
	AllowedHost    string
	Production     bool
	RedisLimit     *middleware.RedisRateLimit
	Log            *zap.SugaredLogger
}

// NewRouter builds the full HTTP stack.
// Production: SecurityHeaders → HostCheck → GlobalRateLimit → LoginRateLimit.
// Non-production: the Redis limiter only (fails open without Redis).
func NewRouter(h *handlers.Handler, auth middleware.Authenticator, opts Options) *chi.Mux {
	log := opts.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer(log))
	r.Use(middleware.RequestLogger(log))
	r.Use(metrics.Middleware)
	r.Use(middleware.CORS(opts.AllowedOrigins))

	if opts.Production {
		for _, mw := range middleware.ProductionSecurity(opts.AllowedHost) {
			r.Use(mw)
		}
		r.Use(middleware.LoginRateLimit)
	} else if opts.RedisLimit != nil {
		r.Use(opts.RedisLimit.Middleware)
	}

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	SetupRoutes(r, h, auth)
	return r
}

// SetupRoutes mounts every endpoint on r.
func SetupRoutes(r chi.Router, h *handlers.Handler, auth middleware.Authenticator) {
	requireAuth := middleware.Authenticate(auth)
	optionalAuth := middleware.OptionalAuthenticate(auth)

	r.Get("/health", h.Health)
	r.Handle("/metrics", metrics.Handler())
	r.With(requireAuth).Get("/ws/notifications", h.NotificationsSocket)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/occurrences", func(r chi.Router) {
			r.Use(middleware.OccurrenceWriteRateLimit(auth))
			r.Get("/", h.ListOccurrences)
			r.With(optionalAuth).Post("/", h.CreateOccurrence)
			r.Get("/{id}", h.GetOccurrence)
			r.With(requireAuth).Put("/{id}", h.UpdateOccurrence)
			r.With(requireAuth).Delete("/{id}", h.DeleteOccurrence)
			r.With(optionalAuth).Put("/{id}/confirm", h.ConfirmOccurrence)
			r.Get("/{id}/confirmations", h.ListConfirmations)
			r.With(requireAuth).Post("/{id}/images", h.UploadOccurrenceImage)
		})

		r.Route("/stats", func(r chi.Router) {
			r.Get("/", h.GetStats)
			r.Get("/leaderboard", h.GetStatsLeaderboard)
			r.Get("/overview", h.GetDashboardOverview)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(requireAuth).Get("/profile", h.GetProfile)
			r.With(requireAuth).Put("/profile", h.UpdateProfile)
			r.Get("/leaderboard", h.GetUserLeaderboard)
			r.Get("/{id}/occurrences", h.GetUserOccurrences)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.With(requireAuth).Get("/me", h.Me)
			r.With(requireAuth).Put("/change-password", h.ChangePassword)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth, middleware.Authorize(models.RoleAdmin))
			r.Get("/insights", h.GetInsights)
			r.Delete("/blocked-ips/{ip}", h.UnblockIP)
		})
	})
}
