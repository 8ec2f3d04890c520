// Command migrate applies, inspects and rolls back the database schema.
//
//	migrate up             apply pending SQL migrations
//	migrate auto           run GORM AutoMigrate (development only unless allowed)
//	migrate status         list applied and pending migrations
//	migrate check          exit non-zero when migrations are pending
//	migrate down <version> roll back one migration
//	migrate catalog        upsert the built-in categories and badges
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"unajuda/internal/config"
	"unajuda/internal/database"
	"unajuda/internal/middleware"
	"unajuda/internal/seed"

	"gorm.io/gorm"
)

var errUsage = errors.New("usage: migrate <up|auto|status|check|down <version>|catalog>")

func main() {
	flag.Parse()
	slog.SetDefault(middleware.Logger)

	if err := run(context.Background(), flag.Args()); err != nil {
		slog.Error("migrate failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errUsage
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "up":
		if err := database.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations: %w", err)
		}
		slog.Info("sql migrations applied")
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		slog.Info("auto migrations applied")
	case "status":
		_, err := status(ctx, db, cfg)
		return err
	case "check":
		pending, err := status(ctx, db, cfg)
		if err != nil {
			return err
		}
		if pending > 0 {
			return fmt.Errorf("%d migration(s) pending", pending)
		}
	case "down":
		if len(args) < 2 {
			return errUsage
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		if err := database.RollbackMigration(ctx, db, version); err != nil {
			return fmt.Errorf("rollback %d: %w", version, err)
		}
		slog.Info("rolled back migration", slog.Int("version", version))
	case "catalog":
		if err := seed.Run(ctx, db, seed.Options{}); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
	default:
		return errUsage
	}

	return nil
}

func status(ctx context.Context, db *gorm.DB, cfg *config.Config) (int, error) {
	st, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return 0, fmt.Errorf("schema status: %w", err)
	}
	slog.Info("schema status",
		slog.String("mode", st.Mode),
		slog.String("env", st.Environment),
		slog.Bool("run_sql", st.WillRunSQL),
		slog.Bool("run_auto", st.WillRunAutoMigrate),
		slog.Int("applied", len(st.AppliedVersions)),
		slog.Int("pending", len(st.PendingMigrations)),
	)
	for _, m := range st.PendingMigrations {
		slog.Info("pending migration", slog.String("migration", m.String()))
	}
	return len(st.PendingMigrations), nil
}
