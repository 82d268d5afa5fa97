//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/sparrow/internal/app"
	"github.com/zeusync/sparrow/internal/config"
)

var ProviderSet = wire.NewSet(
	app.ProvideLogger,
	app.ProvideRegistry,
	app.ProvideResolver,
	app.ProvideCatalog,
	app.ProvideParser,
	app.ProvideMetrics,
	app.ProvideBus,
	app.ProvideDriver,
	app.ProvideExporter,
	app.New,
)

func InitializeApp(cfg config.Config) (*app.App, error) {
	wire.Build(ProviderSet)
	return nil, nil
}
