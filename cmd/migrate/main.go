// Command migrate applies the postgres schema used by STORE_BACKEND=postgres.
//
//	migrate [up|down|status|force <version>]
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/saturnino-fabrica-de-software/chamada/internal/config"
	"github.com/saturnino-fabrica-de-software/chamada/internal/database"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	action := "up"
	if len(args) > 0 {
		action = args[0]
	}

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	logger := config.NewLogger(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadStore()
	if err != nil {
		return err
	}
	if cfg.Backend != "postgres" {
		return fmt.Errorf("STORE_BACKEND=%s has no schema to migrate", cfg.Backend)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	db, err := database.Open(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	dbName, err := database.DatabaseName(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	migrator, err := database.NewMigrator(db, dbName, logger)
	if err != nil {
		return err
	}
	defer func() { _ = migrator.Close() }()

	switch action {
	case "up":
		if err := migrator.Up(); err != nil {
			return err
		}
	case "down":
		if err := migrator.Down(); err != nil {
			return err
		}
	case "force":
		if len(args) < 2 {
			return errors.New("force needs the target version")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		if err := migrator.Force(version); err != nil {
			return err
		}
	case "status", "version":
	default:
		return fmt.Errorf("unknown action %q (up, down, status, force <version>)", action)
	}

	st, err := migrator.Status()
	if err != nil {
		return err
	}
	logger.Info("schema",
		slog.String("database", dbName),
		slog.String("action", action),
		slog.Uint64("version", uint64(st.Version)),
		slog.Uint64("latest", uint64(st.Latest)),
		slog.Int("pending", st.Pending),
		slog.Bool("dirty", st.Dirty),
	)
	if st.Dirty {
		return fmt.Errorf("schema is dirty at version %d, fix it and run: migrate force %d", st.Version, st.Version)
	}
	return nil
}
