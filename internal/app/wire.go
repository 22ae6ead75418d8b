package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/volleyscore/scoreboard/internal/auth"
	"github.com/volleyscore/scoreboard/internal/guard"
	"github.com/volleyscore/scoreboard/internal/handler"
	"github.com/volleyscore/scoreboard/internal/media"
	"github.com/volleyscore/scoreboard/internal/metrics"
	"github.com/volleyscore/scoreboard/internal/projection"
	"github.com/volleyscore/scoreboard/internal/repository"
	"github.com/volleyscore/scoreboard/internal/scoreboard"
	"github.com/volleyscore/scoreboard/internal/scoring"
	"github.com/volleyscore/scoreboard/internal/service"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Store  repository.Store
	Logos  *media.LogoStore
	JWTMgr *auth.JWTManager
	Logger *slog.Logger

	// AuthEnabled guards the control surface with operator JWTs.
	AuthEnabled  bool
	PasswordHash []byte

	Rules        scoring.SetRules
	PollInterval time.Duration
	RateLimit    int
	RateWindow   time.Duration
	CORSOrigins  string

	Metrics        *metrics.Recorder
	MetricsHandler http.Handler

	// Now overrides the engine clock; nil uses the wall clock.
	Now func() time.Time
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Engine and read-side cache
	engine := scoreboard.NewEngine(deps.Store, deps.Rules, deps.Now)
	cache := projection.NewDisplayCache(projection.NewInMemoryStore(), deps.PollInterval)

	// Guards
	limiter := guard.NewRateLimiter(deps.RateLimit, deps.RateWindow)
	idem := guard.NewIdempotencyGuard(guard.DefaultIdempotencyTTL)
	lockout := guard.NewLockout()

	// Services
	matchSvc := service.NewMatchService(engine, cache, deps.Logos, limiter, idem, deps.Metrics, logger)
	authSvc := service.NewAuthService(deps.JWTMgr, deps.PasswordHash, lockout, logger)

	// Handlers
	matchHandler := handler.NewMatchHandler(matchSvc)
	teamHandler := handler.NewTeamHandler(matchSvc)
	authHandler := handler.NewAuthHandler(authSvc)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.Metrics(deps.Metrics))
	r.Use(handler.CORSWithOrigins(deps.CORSOrigins))

	// Health and metrics (no auth)
	r.Get("/health", handler.HealthHandler(deps.Store))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// Auth routes
	r.Post("/auth/login", authHandler.Login)
	r.With(auth.AuthenticateOperator(deps.JWTMgr, deps.AuthEnabled)).Get("/auth/session", authHandler.Session)

	// Stored images (no auth)
	r.Get("/uploads/{name}", teamHandler.ServeUpload)

	r.Route("/api", func(r chi.Router) {
		// Overlay reads (no auth)
		r.Get("/current-match", matchHandler.Current)
		r.Get("/current-match/display", matchHandler.CurrentDisplay)
		r.Get("/matches/{id}", matchHandler.Get)
		r.Get("/matches/{id}/display", matchHandler.Display)
		r.Get("/matches/{id}/audit", matchHandler.Audit)
		r.Get("/settings", teamHandler.GetSettings)

		// Operator control surface
		r.Group(func(r chi.Router) {
			r.Use(auth.AuthenticateOperator(deps.JWTMgr, deps.AuthEnabled))

			r.Post("/matches", matchHandler.Create)
			r.Post("/matches/import", matchHandler.Import)
			r.Get("/matches/{id}/export", matchHandler.Export)
			r.Patch("/matches/{id}", matchHandler.Update)
			r.Post("/matches/{id}/score", matchHandler.AdjustScore)
			r.Post("/matches/{id}/reset-set", matchHandler.ResetSet)
			r.Post("/matches/{id}/complete-set", matchHandler.CompleteSet)

			r.Patch("/game-state/{matchId}", matchHandler.UpdateGameState)

			r.Patch("/teams/{id}", teamHandler.UpdateTeam)
			r.Post("/teams/{id}/logo", teamHandler.UploadTeamLogo)

			r.Patch("/settings", teamHandler.UpdateSettings)
			r.Post("/settings/sponsor-logo", teamHandler.UploadSponsorLogo)
		})
	})

	return r
}
