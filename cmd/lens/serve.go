package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/cohortlens/internal/api"
	"github.com/Veraticus/cohortlens/internal/config"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analytics HTTP API",
		Long: `Start the HTTP API over the local database.

Stored-customer analyses are cached in Redis when redis.url (or REDIS_URL) is
set; without Redis the API still works, just uncached.`,
		RunE: runServe,
	}

	cmd.Flags().String("port", "", "port to listen on (default: $PORT or 8080)")
	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var cache api.ReportCache = api.NopCache{}
	if cfg.Redis.URL != "" {
		redisCache, err := api.NewRedisCache(ctx, cfg.Redis.URL, cfg.Redis.TTL)
		if err != nil {
			slog.Warn("Redis unavailable, continuing without report cache", "error", err)
		} else {
			defer func() { _ = redisCache.Close() }()
			cache = redisCache
			slog.Info("Report cache enabled", "ttl", cfg.Redis.TTL)
		}
	}

	server := api.NewServer(store, cache, api.Options{
		AllowOrigins: cfg.Server.AllowOrigins,
		Weights:      cfg.Weights,
		CLV:          cfg.CLV,
	})

	addr := ":" + cfg.Server.Port
	slog.Info("Starting API server", "addr", addr, "database", store.Path())
	return server.Run(ctx, addr)
}
