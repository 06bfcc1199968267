// Package backend selects the store implementation from configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saturnino-fabrica-de-software/chamada/internal/config"
	"github.com/saturnino-fabrica-de-software/chamada/internal/store"
	"github.com/saturnino-fabrica-de-software/chamada/internal/store/memstore"
	"github.com/saturnino-fabrica-de-software/chamada/internal/store/postgres"
	"github.com/saturnino-fabrica-de-software/chamada/internal/store/rtdb"
)

const (
	RTDB     = "rtdb"
	Postgres = "postgres"
	Memory   = "memory"
)

// Open builds the configured backend. An unreachable store is not an error:
// it is logged and the caller keeps running degraded until it recovers.
func Open(ctx context.Context, cfg config.Store, logger *slog.Logger) (store.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var s store.Store
	switch cfg.Backend {
	case RTDB:
		rc := rtdb.DefaultConfig()
		rc.BaseURL = cfg.RTDBURL
		rc.AuthToken = cfg.RTDBAuth
		rc.Timeout = cfg.Timeout
		s = rtdb.New(rtdb.NewClient(rc), logger)
	case Postgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("create pool: %w", err)
		}
		s = postgres.New(pool)
	case Memory:
		s = memstore.New()
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := s.Ping(pingCtx); err != nil {
		logger.Warn("store unreachable at startup, continuing degraded", "backend", cfg.Backend, "error", err)
	} else {
		logger.Info("store connected", "backend", cfg.Backend)
	}

	return s, nil
}
