package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/guildforge/guildforge-backend/api/controllers"
	"github.com/guildforge/guildforge-backend/api/middleware"
	"github.com/guildforge/guildforge-backend/internal/loot"
	"github.com/guildforge/guildforge-backend/internal/points"
	"github.com/guildforge/guildforge-backend/internal/ranking"
	"github.com/guildforge/guildforge-backend/internal/systems"
	"github.com/guildforge/guildforge-backend/pkg/config"
	"github.com/guildforge/guildforge-backend/pkg/db"
	"github.com/guildforge/guildforge-backend/pkg/logger"
)

type cachePinger interface {
	Ping(ctx context.Context) error
}

// NewRouter wires the HTTP surface: system configuration, the point ledger,
// loot distribution, and standings.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	database db.Pinger,
	cache cachePinger,
	systemsSvc systems.Service,
	pointsSvc points.Service,
	lootSvc loot.Service,
	rankingSvc ranking.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, database, cache))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/systems", func(r chi.Router) {
			r.Get("/", controllers.ListSystems(systemsSvc, logg))
			r.Get("/active", controllers.GetActiveSystem(systemsSvc, logg))
			r.Get("/{systemID}", controllers.GetSystem(systemsSvc, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireMutation(logg))
				r.Post("/", controllers.CreateSystem(systemsSvc, logg))
				r.Patch("/{systemID}", controllers.UpdateSystem(systemsSvc, logg))
				r.Post("/{systemID}/activate", controllers.ActivateSystem(systemsSvc, logg))
			})
		})

		r.Route("/points", func(r chi.Router) {
			r.Get("/{characterID}", controllers.GetAccount(pointsSvc, systemsSvc, logg))
			r.Get("/{characterID}/ledger", controllers.GetLedger(pointsSvc, systemsSvc, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireMutation(logg))
				r.Post("/award", controllers.AwardPoints(pointsSvc, systemsSvc, logg))
				r.Post("/award-bulk", controllers.AwardPointsBulk(pointsSvc, systemsSvc, logg))
				r.Post("/deduct", controllers.DeductPoints(pointsSvc, systemsSvc, logg))
			})
		})

		r.Route("/loot", func(r chi.Router) {
			r.Get("/", controllers.LootHistory(lootSvc, systemsSvc, logg))
			r.Get("/{lootID}", controllers.GetLootRecord(lootSvc, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireMutation(logg))
				r.Post("/", controllers.RecordLootDrop(lootSvc, systemsSvc, logg))
				r.Post("/{lootID}/distribute", controllers.DistributeLoot(lootSvc, logg))
			})
		})

		r.Get("/leaderboard", controllers.Leaderboard(rankingSvc, systemsSvc, logg))
	})

	return r
}
