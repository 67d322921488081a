// Package store opens the configured AccountStore backend.
package store

import (
	"context"
	"fmt"

	"github.com/goodow/moonauth/internal/store/core"
	"github.com/goodow/moonauth/internal/store/memory"
	"github.com/goodow/moonauth/internal/store/pg"
)

type Config struct {
	Driver string // "memory" | "postgres"
	DSN    string

	Postgres pg.Tuning
}

// Open returns the AccountStore for cfg.Driver. The memory driver is the
// default so a bare config boots without external services.
func Open(ctx context.Context, cfg Config) (core.AccountStore, error) {
	switch cfg.Driver {
	case "", "memory":
		return memory.New(), nil
	case "postgres", "pg":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("store: postgres driver requires a dsn")
		}
		return pg.New(ctx, cfg.DSN, cfg.Postgres)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
