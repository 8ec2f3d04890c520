// Package bootstrap wires process-level dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"unajuda/internal/cache"
	"unajuda/internal/config"
	"unajuda/internal/database"
	"unajuda/internal/middleware"
	"unajuda/internal/observability"
	"unajuda/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedCatalog applies the built-in categories and badges.
	SeedCatalog bool
	// SeedDemo additionally generates demo users, questions and votes.
	SeedDemo bool
}

// Runtime is what InitRuntime hands back to a command.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client
	// ShutdownTracing flushes pending spans.
	ShutdownTracing func(context.Context) error
}

// InitRuntime sets up logging and tracing, connects to the database and
// Redis, and optionally seeds.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	middleware.InitMiddleware(cfg)
	slog.SetDefault(middleware.Logger)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "unajuda-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis is optional; a nil client means local-only realtime and no stats cache.
	var r *redis.Client
	if cfg.RedisURL != "" {
		cache.InitRedis(cfg.RedisURL)
		r = cache.GetClient()
	}

	if opts.SeedCatalog || opts.SeedDemo {
		seedOpts := seed.Options{Demo: opts.SeedDemo}
		if opts.SeedDemo {
			seedOpts = seed.DefaultOptions
			seedOpts.Demo = true
		}
		if err := seed.Run(ctx, db, seedOpts); err != nil {
			return nil, fmt.Errorf("seeding failed: %w", err)
		}
	}

	return &Runtime{DB: db, Redis: r, ShutdownTracing: shutdownTracing}, nil
}
