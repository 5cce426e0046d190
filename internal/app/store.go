package app

import (
	"context"
	"fmt"

	"github.com/vk/plangraph/internal/ctxlog"
	"github.com/vk/plangraph/internal/inmemorystore"
	"github.com/vk/plangraph/internal/nodestore"
	"github.com/vk/plangraph/internal/pgstore"
	"github.com/vk/plangraph/internal/redisstore"
)

// openStore opens the configured backend, wrapped for tracing. The returned
// function releases its connections.
func (app *App) openStore(ctx context.Context) (nodestore.Store, func(), error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Opening node store.", "store", app.config.Store)

	var (
		store   nodestore.Store
		closeFn = func() {}
	)
	switch app.config.Store {
	case StoreMemory:
		mem, err := inmemorystore.LoadFile(app.config.TreePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("Tree fixture loaded.", "path", app.config.TreePath, "executions", mem.Len())
		store = mem

	case StorePostgres:
		pg, pool, err := pgstore.Connect(ctx, app.config.DSN)
		if err != nil {
			return nil, nil, err
		}
		store, closeFn = pg, pool.Close

	case StoreRedis:
		rs, client, err := redisstore.Connect(ctx, app.config.RedisAddr, redisstore.Options{})
		if err != nil {
			return nil, nil, err
		}
		store = rs
		closeFn = func() {
			if err := client.Close(); err != nil {
				logger.Warn("Closing redis client failed.", "error", err)
			}
		}

	default:
		return nil, nil, fmt.Errorf("unknown store %q", app.config.Store)
	}

	return nodestore.WithTracing(store, app.tracer), closeFn, nil
}
