package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vk/plangraph/internal/compiler"
	"github.com/vk/plangraph/internal/ctxlog"
	"github.com/vk/plangraph/internal/hcl"
	"github.com/vk/plangraph/internal/resolver"
	"github.com/vk/plangraph/internal/scheduler"
	"github.com/vk/plangraph/internal/treecache"
)

// Run executes the configured command.
func (app *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, app.logger)
	app.logger.Debug("App.Run method started.", "command", app.config.Command)

	app.healthCheckServer()
	defer func() {
		_ = app.closeHealthCheckServer()
	}()

	var err error
	switch app.config.Command {
	case CommandCompile:
		err = app.compile(ctx)
	case CommandResolve:
		err = app.resolve(ctx)
	default:
		err = fmt.Errorf("unknown command %q", app.config.Command)
	}

	app.logger.Debug("App.Run method finished.", "error", err)
	return err
}

type compileOutput struct {
	ExecutionOrder []string     `json:"execution_order"`
	Stages         [][]string   `json:"stages"`
	Edges          []edgeOutput `json:"edges"`
	Warnings       []string     `json:"warnings,omitempty"`
}

type edgeOutput struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (app *App) compile(ctx context.Context) error {
	sections, err := hcl.NewLoader().Load(ctx, app.config.PipelinePaths...)
	if err != nil {
		app.metrics.ObserveCompile(0, 0, err)
		return fmt.Errorf("failed to load pipeline: %w", err)
	}

	res, err := compiler.Compile(ctx, sections...)
	if err != nil {
		app.metrics.ObserveCompile(0, 0, err)
		return fmt.Errorf("failed to compile pipeline: %w", err)
	}
	app.metrics.ObserveCompile(res.Graph.Len(), len(res.Warnings), nil)
	app.logger.Info("Pipeline compiled.", "nodes", res.Graph.Len(), "warnings", len(res.Warnings))

	out := compileOutput{
		ExecutionOrder: res.ExecutionOrder,
		Stages:         scheduler.Stages(res),
		Edges:          []edgeOutput{},
	}
	for _, e := range res.Graph.Edges() {
		out.Edges = append(out.Edges, edgeOutput{From: e.From, To: e.To})
	}
	for _, w := range res.Warnings {
		out.Warnings = append(out.Warnings, w.String())
	}
	return app.writeJSON(out)
}

type resolveOutput struct {
	Path  string `json:"path"`
	Found bool   `json:"found"`
	Kind  string `json:"kind,omitempty"`
	Value any    `json:"value,omitempty"`
}

func (app *App) resolve(ctx context.Context) error {
	store, closeStore, err := app.openStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open node store: %w", err)
	}
	defer closeStore()

	r := resolver.New(app.config.Aliases)
	for _, expr := range app.config.Expressions {
		// Every expression is its own resolution call with its own cache.
		cache := treecache.New(store, treecache.WithObserver(app.metrics))

		start := time.Now()
		val, found, err := r.ResolveString(ctx, cache, app.config.Position, expr)
		app.metrics.ObserveResolve(found, err, time.Since(start))
		if err != nil {
			return fmt.Errorf("failed to resolve %q: %w", expr, err)
		}
		app.logger.Debug("Resolved expression.", "path", expr, "found", found, "cache", cache.Stats())

		out := resolveOutput{Path: expr, Found: found}
		if found {
			out.Kind = val.Kind.String()
			if out.Value, err = val.GoValue(ctx); err != nil {
				return fmt.Errorf("failed to render %q: %w", expr, err)
			}
		}
		if err := app.writeJSON(out); err != nil {
			return err
		}
	}
	return nil
}

func (app *App) writeJSON(v any) error {
	enc := json.NewEncoder(app.outW)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
