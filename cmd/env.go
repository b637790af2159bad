package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pov-engine/internal/engine"
	"github.com/sells-group/pov-engine/internal/store"
	"github.com/sells-group/pov-engine/internal/version"
)

// env bundles the wired components a command needs.
type env struct {
	Store   store.Store
	Engine  *engine.Engine
	Manager *version.Manager
}

func (e *env) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv opens the configured store, runs migrations, and wires the engine
// and version manager.
func initEnv(ctx context.Context) (*env, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}

	eng := engine.New(cfg.Engine)
	return &env{
		Store:   st,
		Engine:  eng,
		Manager: version.NewManager(st, eng),
	}, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "pov.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
