package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"pickme/internal/controllers"
	"pickme/internal/gateway"
	"pickme/internal/mirror/interfaces"
	"pickme/internal/providers"
	"pickme/internal/render"
	"pickme/internal/state"
	"pickme/internal/structures"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// Console is the interactive loop driving the session. Run returns when the
// operator quits or input ends.
type Console interface {
	Run(ctx context.Context) error
}

type App struct {
	WebServer *http.Server

	conf    *structures.Config
	logger  providers.Logger
	store   state.StoreInterface
	gateway gateway.GatewayInterface
	mirror  interfaces.SchedulerInterface
	render  render.SchedulerInterface
	console Console
}

func NewApp(healthController *controllers.HealthController, store state.StoreInterface, gw gateway.GatewayInterface, scheduler interfaces.SchedulerInterface, renderScheduler render.SchedulerInterface, console Console, conf *structures.Config, logger providers.Logger, router providers.RouterProviderInterface, metrics providers.MetricsProviderInterface) (*App, error) {
	// Inner mux: read-only API routes
	apiMux := http.NewServeMux()
	for _, route := range router.GetRoutes() {
		apiMux.Handle(route.Url, route.Handler)
	}

	instrumentedAPI := providers.MetricsMiddleware(metrics, logger, apiMux)

	// Outer mux: infrastructure + instrumented API
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/", instrumentedAPI)

	return &App{
		WebServer: &http.Server{
			Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		conf:    conf,
		logger:  logger,
		store:   store,
		gateway: gw,
		mirror:  scheduler,
		render:  renderScheduler,
		console: console,
	}, nil
}

// Run restores the mirror, bootstraps the state and blocks until the console
// exits, a termination signal arrives or the web server fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof(providers.TypeApp, "Starting %s", a.conf.AppName)
	if err := a.mirror.Restore(); err != nil {
		a.logger.Errorf(providers.TypeApp, "Restore error: %s", err)
	}

	snap := a.store.Bootstrap()
	a.logger.Infof(providers.TypeApp, "Loaded class %q with %d students", snap.State.CurrentClassID, len(snap.Students()))

	a.mirror.Init()
	a.render.Init()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	if a.conf.WebServer.Enabled {
		g.Go(func() error {
			a.logger.Infof(providers.TypeApp, "Listening HTTP clients on %s", a.WebServer.Addr)
			if err := a.WebServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return a.WebServer.Shutdown(shutdownCtx)
		})
	}
	g.Go(func() error {
		err := a.console.Run(gctx)
		stop()
		return err
	})

	runErr := g.Wait()
	if runErr != nil {
		a.logger.Errorf(providers.TypeApp, "Stopping after error: %s", runErr)
	}

	a.gateway.CancelAll()
	a.render.Stop()
	if err := a.mirror.Stop(); err != nil {
		a.logger.Errorf(providers.TypeApp, "Persist error: %s", err)
		if runErr == nil {
			runErr = err
		}
	}
	a.logger.Infof(providers.TypeApp, "gracefully stopped")
	return runErr
}
