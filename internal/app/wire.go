// Package app assembles the API server's dependency graph and routes.
package app

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chainquest/platform/internal/auth"
	"github.com/chainquest/platform/internal/catalog"
	"github.com/chainquest/platform/internal/engine"
	"github.com/chainquest/platform/internal/guard"
	"github.com/chainquest/platform/internal/handler"
	"github.com/chainquest/platform/internal/infra"
	"github.com/chainquest/platform/internal/projection"
	"github.com/chainquest/platform/internal/provider"
	"github.com/chainquest/platform/internal/repository"
	"github.com/chainquest/platform/internal/service"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Pool    *pgxpool.Pool
	Catalog *catalog.Catalog
	JWTMgr  *auth.JWTManager
	Hub     *infra.WSHub
	Logger  *slog.Logger

	// Randomness oracle config
	RandomOrgAPIKey     string
	OracleFailThreshold int

	// Ingest and projection tuning
	EventRateLimit        int
	AvailabilityCacheSize int

	// CORS allow-list; "*" or empty keeps the development default.
	CORSAllowedOrigins []string
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) (chi.Router, error) {
	pool := deps.Pool
	jwtMgr := deps.JWTMgr
	logger := deps.Logger

	// Randomness oracle behind a circuit breaker
	oracle := provider.NewRandomnessOracle(deps.RandomOrgAPIKey, logger)
	breaker := guard.NewCircuitBreaker(deps.OracleFailThreshold, 30*time.Second)
	guarded := provider.NewGuardedRandomSource(oracle, breaker)

	eng := engine.New(deps.Catalog, guarded)

	// Repositories
	stateRepo := repository.NewPlayerStateRepository()
	grantRepo := repository.NewGrantRepository()
	outboxRepo := repository.NewOutboxRepository()
	authUserRepo := repository.NewPgAuthUserRepository()

	// Guards and projections
	locks := guard.NewPlayerLocks()
	avail, err := projection.NewAvailabilityCache(deps.AvailabilityCacheSize)
	if err != nil {
		return nil, err
	}

	// Services
	var notify service.Notifier = service.NopNotifier{}
	if deps.Hub != nil {
		notify = deps.Hub
	}
	progSvc := service.NewProgressionService(pool, eng, stateRepo, grantRepo, outboxRepo, locks, avail, notify, logger)
	authSvc := service.NewAuthService(pool, authUserRepo, stateRepo, outboxRepo, jwtMgr)
	eventSvc := service.NewChainEventService(progSvc, guard.NewIdempotencyGuard(), logger)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	playerHandler := handler.NewPlayerHandler(progSvc)
	questHandler := handler.NewQuestHandler(progSvc, deps.Catalog)
	eventHandler := handler.NewEventHandler(eventSvc, guard.NewRateLimiter(deps.EventRateLimit, time.Minute))
	adminHandler := handler.NewAdminHandler(progSvc, deps.Catalog)
	rngHandler := handler.NewRNGHandler(guarded)
	wsHandler := handler.NewWSHandler(deps.Hub)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORS(deps.CORSAllowedOrigins))
	r.Use(handler.JSONContentType)

	// Health (no auth)
	r.Get("/health", handler.HealthHandler(pool))

	// Auth routes (no auth)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	// Player-authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.AuthenticatePlayer(jwtMgr))

		if deps.Hub != nil {
			r.Get("/ws", wsHandler.Connect)
		}

		r.Route("/players/me", func(r chi.Router) {
			r.Get("/", playerHandler.GetState)
			r.Get("/availability", playerHandler.GetAvailability)
			r.Get("/skills", playerHandler.GetSkills)
			r.Get("/relationships", playerHandler.GetRelationships)
			r.Post("/prestige", playerHandler.Prestige)
			r.Post("/skills/{branch}/upgrade", playerHandler.UpgradeSkill)
		})

		r.Route("/quests", func(r chi.Router) {
			r.Get("/", questHandler.List)
			r.Get("/{id}/state", questHandler.GetState)
			r.Post("/{id}/activate", questHandler.Activate)
			r.Post("/{id}/progress", questHandler.Progress)
			r.Post("/{id}/claim", questHandler.Claim)
		})
	})

	// Chain event ingestion (indexer sidecar, admin realm)
	r.Group(func(r chi.Router) {
		r.Use(auth.AuthenticateAdmin(jwtMgr))
		r.Use(auth.RequireRole(auth.IngestRoles()...))
		r.Post("/events/chain", eventHandler.Ingest)
	})

	// Admin routes
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.AuthenticateAdmin(jwtMgr))
		r.Get("/catalog/warnings", adminHandler.CatalogWarnings)
		r.Post("/rng/random", rngHandler.GetRandom)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(auth.WriteRoles()...))
			r.Post("/players/{id}/experience", adminHandler.GrantExperience)
			r.Post("/players/{id}/achievements", adminHandler.GrantAchievement)
		})
	})

	return r, nil
}
