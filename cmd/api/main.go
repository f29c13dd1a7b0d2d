package main

import (
	"context"
	"net/http"
	"os"

	"github.com/guildforge/guildforge-backend/api/routes"
	"github.com/guildforge/guildforge-backend/internal/loot"
	"github.com/guildforge/guildforge-backend/internal/points"
	"github.com/guildforge/guildforge-backend/internal/ranking"
	"github.com/guildforge/guildforge-backend/internal/systems"
	"github.com/guildforge/guildforge-backend/pkg/config"
	"github.com/guildforge/guildforge-backend/pkg/db"
	"github.com/guildforge/guildforge-backend/pkg/logger"
	"github.com/guildforge/guildforge-backend/pkg/metrics"
	"github.com/guildforge/guildforge-backend/pkg/migrate"
	"github.com/guildforge/guildforge-backend/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	systemsService, err := systems.NewService(systems.ServiceParams{
		DB:     dbClient,
		Repo:   systems.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create systems service", err)
		os.Exit(1)
	}

	pointsService, err := points.NewService(points.ServiceParams{
		DB:      dbClient,
		Repo:    points.NewRepository(dbClient.DB()),
		Systems: systemsService,
		Logger:  logg,
		Metrics: metrics.NewLedgerMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create points service", err)
		os.Exit(1)
	}

	lootService, err := loot.NewService(loot.ServiceParams{
		DB:     dbClient,
		Repo:   loot.NewRepository(dbClient.DB()),
		Points: pointsService,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create loot service", err)
		os.Exit(1)
	}

	rankingService, err := ranking.NewService(pointsService)
	if err != nil {
		logg.Error(context.Background(), "failed to create ranking service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, systemsService, pointsService, lootService, rankingService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
