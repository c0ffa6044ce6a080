package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lingopal-app/lingopal/internal/database"
	"github.com/lingopal-app/lingopal/internal/events"
	mw "github.com/lingopal-app/lingopal/internal/middleware"
)

// HandlerSet holds handler functions injected from main.go to avoid import cycles.
type HandlerSet struct {
	// Auth handlers
	Register http.HandlerFunc
	Login    http.HandlerFunc
	Refresh  http.HandlerFunc
	Logout   http.HandlerFunc

	// Translation history
	CreateHistoryRecord http.HandlerFunc

	// Learning content, keyed by language pair
	Eligibility        http.HandlerFunc
	GetSheet           http.HandlerFunc
	RegenerateSheet    http.HandlerFunc
	GetWordBank        http.HandlerFunc
	RegenerateWordBank http.HandlerFunc
	GetQuiz            http.HandlerFunc
	RegenerateQuiz     http.HandlerFunc
	SubmitAttempt      http.HandlerFunc

	// Coins
	AwardCoins http.HandlerFunc
	CoinStats  http.HandlerFunc

	// Auth middleware
	AuthMiddleware func(http.Handler) http.Handler

	// Per-user sliding-window guard on the regenerate endpoints
	GenerationGuard func(http.Handler) http.Handler
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	CORSAllowedOrigins []string
	AuthRateLimiter    func(http.Handler) http.Handler
}

func NewRouter(pool *pgxpool.Pool, natsClient *events.Client, cfg RouterConfig, h HandlerSet) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(mw.Logging)
	r.Use(mw.Recovery)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(mw.CORS(cfg.CORSAllowedOrigins)))

	// Liveness probe: always 200, no dependency checks
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})

	// Readiness probe: checks DB and NATS
	readinessHandler := func(w http.ResponseWriter, r *http.Request) {
		health := map[string]string{
			"status":   "healthy",
			"database": "healthy",
			"nats":     "healthy",
		}

		status := http.StatusOK

		if err := database.HealthCheck(r.Context(), pool); err != nil {
			health["database"] = "unhealthy"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}

		if natsClient != nil && !natsClient.Healthy() {
			health["nats"] = "unhealthy"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		} else if natsClient == nil {
			health["nats"] = "not configured"
		}

		JSON(w, status, health)
	}

	r.Get("/health/ready", readinessHandler)
	r.Get("/health", readinessHandler)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes (public), optionally rate-limited per IP
		r.Route("/auth", func(r chi.Router) {
			if cfg.AuthRateLimiter != nil {
				r.Use(cfg.AuthRateLimiter)
			}
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/refresh", h.Refresh)

			// Protected auth routes
			r.Group(func(r chi.Router) {
				r.Use(h.AuthMiddleware)
				r.Post("/logout", h.Logout)
			})
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Post("/history", h.CreateHistoryRecord)

			r.Route("/learning/{primaryLang}/{targetLang}", func(r chi.Router) {
				r.Get("/eligibility", h.Eligibility)
				r.Get("/sheet", h.GetSheet)
				r.Get("/wordbank", h.GetWordBank)
				r.Get("/quiz", h.GetQuiz)

				// Regeneration is the expensive path; it carries the
				// per-user sliding-window guard.
				r.Group(func(r chi.Router) {
					if h.GenerationGuard != nil {
						r.Use(h.GenerationGuard)
					}
					r.Post("/sheet/regenerate", h.RegenerateSheet)
					r.Post("/wordbank/regenerate", h.RegenerateWordBank)
					r.Post("/quiz/regenerate", h.RegenerateQuiz)
				})
			})

			r.Post("/quiz/attempts", h.SubmitAttempt)

			r.Route("/coins", func(r chi.Router) {
				r.Get("/", h.CoinStats)
				r.Post("/award", h.AwardCoins)
			})
		})
	})

	return r
}
