//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"fermmon/internal"
	"fermmon/internal/controllers"
	"fermmon/internal/dispatch"
	"fermmon/internal/models"
	"fermmon/internal/persistence"
	"fermmon/internal/persistence/interfaces"
	"fermmon/internal/poller"
	"fermmon/internal/providers"
	"fermmon/internal/services"
	"fermmon/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewAlertConfigProvider,
		providers.NewLogProvider,
		models.NewFermentationStore,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		dispatch.NewNotifierProvider,
		wire.Bind(new(dispatch.Notifier), new(*dispatch.MultiNotifier)),
		dispatch.NewDispatcher,
		wire.Bind(new(dispatch.DispatcherInterface), new(*dispatch.Dispatcher)),
		services.NewFermentationService,
		wire.Bind(new(poller.Ingester), new(services.FermentationServiceInterface)),
		poller.NewPoller,
		wire.Bind(new(interfaces.PollerInterface), new(*poller.Poller)),
		wire.Bind(new(controllers.HydrometerLister), new(*poller.Poller)),

		persistence.NewZstdCompressor,
		persistence.NewFileManager,
		persistence.NewScheduler,
		controllers.NewApiController,
		controllers.NewHealthController,
		dispatch.NewTelegramBot,
		wire.Bind(new(controllers.TelegramReplier), new(*dispatch.TelegramNotifier)),
		controllers.NewTelegramController,
		internal.InitRoutes,
		internal.NewHandler,
		internal.NewApp,
	)

	return nil, nil
}
