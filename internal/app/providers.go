package app

import (
	"github.com/zeusync/sparrow/internal/components"
	"github.com/zeusync/sparrow/internal/config"
	"github.com/zeusync/sparrow/internal/core/events/bus"
	"github.com/zeusync/sparrow/internal/core/extras"
	"github.com/zeusync/sparrow/internal/core/inject"
	"github.com/zeusync/sparrow/internal/core/observability/log"
	"github.com/zeusync/sparrow/internal/core/observability/metrics"
	"github.com/zeusync/sparrow/internal/core/resolver"
	"github.com/zeusync/sparrow/internal/core/schema/export"
	"github.com/zeusync/sparrow/internal/core/schema/registry"
)

// Catalog marks the point where the game types are registered. Anything
// that reads the registry contents takes it as a dependency.
type Catalog struct {
	Types int
}

func ProvideLogger(cfg config.Config) log.Log {
	return log.New(cfg.Level())
}

func ProvideRegistry() *registry.Registry {
	return registry.New()
}

func ProvideResolver(reg *registry.Registry, logger log.Log) (*resolver.Resolver, error) {
	return resolver.New(reg, logger)
}

// ProvideCatalog registers the game types. It needs the resolver so that
// node references bind to the entity descriptor.
func ProvideCatalog(reg *registry.Registry, _ *resolver.Resolver) (Catalog, error) {
	if err := components.Register(reg); err != nil {
		return Catalog{}, err
	}
	return Catalog{Types: reg.Len()}, nil
}

func ProvideParser(reg *registry.Registry, cfg config.Config, logger log.Log) *extras.Parser {
	return extras.NewParser(reg, logger, extras.Options{
		Ignore:         cfg.Ignore,
		Filter:         cfg.TypeFilter(),
		StrictExtended: cfg.StrictExtended,
	})
}

func ProvideMetrics() *metrics.Metrics {
	return metrics.New()
}

func ProvideBus(m *metrics.Metrics) bus.EventBus {
	b := bus.New()
	b.AddObserver(m)
	return b
}

func ProvideDriver(p *extras.Parser, res *resolver.Resolver, b bus.EventBus, m *metrics.Metrics, cfg config.Config, logger log.Log) *inject.Driver {
	return inject.NewDriver(p, res, b, m, logger, cfg.InjectOptions())
}

func ProvideExporter(reg *registry.Registry, cfg config.Config, logger log.Log) *export.Exporter {
	return export.New(reg, cfg.TypeFilter(), logger)
}
