//go:build wireinject
// +build wireinject

package di

import (
	"io"
	"pickme/internal"
	"pickme/internal/animator"
	"pickme/internal/console"
	"pickme/internal/controllers"
	"pickme/internal/gateway"
	"pickme/internal/mirror"
	"pickme/internal/providers"
	"pickme/internal/services"
	"pickme/internal/state"
	"pickme/internal/structures"

	wire "github.com/google/wire"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,
		providers.NewLocationProvider,

		mirror.NewZstdCompressor,
		mirror.NewMemoryMirror,
		mirror.NewMirror,
		mirror.NewFileManager,
		mirror.NewScheduler,

		state.NewStore,
		internal.ProvideView,
		internal.ProvidePayloadSource,

		gateway.NewHTTPTransport,
		gateway.NewGate,
		gateway.NewGateway,

		internal.ProvideTerminal,
		internal.ProvideInput,
		wire.Bind(new(io.Writer), new(*console.SyncWriter)),
		internal.ProvideFrameSink,
		animator.NewTimers,
		animator.NewAnimator,
		internal.ProvideSelectionReader,

		services.NewPreferences,
		console.NewRenderer,
		internal.ProvideRenderScheduler,
		internal.ProvideNotifier,
		services.NewSessionService,
		console.NewREPL,
		wire.Bind(new(internal.Console), new(*console.REPL)),

		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
