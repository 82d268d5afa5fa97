// Package app ties the injection pipeline together: type registration, the
// startup schema export and the per-tick injection pass.
package app

import (
	"context"
	"errors"
	"sync"

	"github.com/zeusync/sparrow/internal/config"
	"github.com/zeusync/sparrow/internal/core/events/bus"
	"github.com/zeusync/sparrow/internal/core/extras"
	"github.com/zeusync/sparrow/internal/core/inject"
	"github.com/zeusync/sparrow/internal/core/observability/log"
	"github.com/zeusync/sparrow/internal/core/observability/metrics"
	"github.com/zeusync/sparrow/internal/core/resolver"
	"github.com/zeusync/sparrow/internal/core/scene"
	"github.com/zeusync/sparrow/internal/core/schema/export"
	"github.com/zeusync/sparrow/internal/core/schema/registry"
	"github.com/zeusync/sparrow/internal/core/system"
)

// EventSchemaExported is published after every successful export. The
// payload is the export.Result.
const EventSchemaExported = "schema.exported"

const (
	SystemExportSchema  = "export_schema"
	SystemInjectExtras  = "inject_extras"
	SystemRegistryGauge = "registry_gauge"
)

type App struct {
	Config   config.Config
	Logger   log.Log
	Registry *registry.Registry
	Resolver *resolver.Resolver
	Parser   *extras.Parser
	Driver   *inject.Driver
	Exporter *export.Exporter
	Bus      bus.EventBus
	Metrics  *metrics.Metrics
	Systems  *system.Manager

	mu         sync.Mutex
	lastExport *export.Result
	lastRun    inject.Summary
}

func New(
	cfg config.Config,
	logger log.Log,
	reg *registry.Registry,
	res *resolver.Resolver,
	_ Catalog,
	parser *extras.Parser,
	driver *inject.Driver,
	exporter *export.Exporter,
	events bus.EventBus,
	m *metrics.Metrics,
) (*App, error) {
	a := &App{
		Config:   cfg,
		Logger:   logger.With(log.String("component", "app")),
		Registry: reg,
		Resolver: res,
		Parser:   parser,
		Driver:   driver,
		Exporter: exporter,
		Bus:      events,
		Metrics:  m,
		Systems:  system.NewManager(logger),
	}
	m.WatchResolver(res.Resolved, res.Unresolved)
	m.RegistryTypes.Set(float64(reg.Len()))

	err := errors.Join(
		a.Systems.Register(system.Func(SystemExportSchema, system.PhaseStartup, a.exportSchema)),
		a.Systems.Register(system.Func(SystemInjectExtras, system.PhaseExtras, a.injectExtras)),
		a.Systems.Register(system.Func(SystemRegistryGauge, system.PhasePost, a.registryGauge)),
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Startup runs the startup systems. A failed schema export is logged and
// counted but does not fail startup.
func (a *App) Startup(ctx context.Context, world *scene.World) error {
	return a.Systems.Startup(ctx, world)
}

// Update runs one tick and returns the summary of its injection pass.
func (a *App) Update(ctx context.Context, world *scene.World) (inject.Summary, error) {
	err := a.Systems.Update(ctx, world)
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastRun, err
}

// Export writes the schema document to the configured save path and
// publishes EventSchemaExported. Handler failures are logged only.
func (a *App) Export() (export.Result, error) {
	res, err := a.Exporter.Export(a.Config.SavePath)
	a.Metrics.ObserveExport(err)
	if err != nil {
		return res, err
	}
	a.mu.Lock()
	a.lastExport = &res
	a.mu.Unlock()

	ev := bus.NewEvent(EventSchemaExported, "app", res, map[string]any{"path": res.Path})
	if err := a.Bus.Publish(ev); err != nil {
		a.Logger.Warn("schema export handler failed", log.String("path", res.Path), log.Error(err))
	}
	return res, nil
}

// LastExport returns the most recent successful export.
func (a *App) LastExport() (export.Result, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastExport == nil {
		return export.Result{}, false
	}
	return *a.lastExport, true
}

func (a *App) exportSchema(context.Context, *scene.World) error {
	if _, err := a.Export(); err != nil {
		a.Logger.Error("startup schema export failed", log.String("path", a.Config.SavePath), log.Error(err))
	}
	return nil
}

func (a *App) injectExtras(_ context.Context, world *scene.World) error {
	sum := a.Driver.Run(world)
	a.mu.Lock()
	a.lastRun = sum
	a.mu.Unlock()
	return nil
}

func (a *App) registryGauge(context.Context, *scene.World) error {
	a.Metrics.RegistryTypes.Set(float64(a.Registry.Len()))
	return nil
}
