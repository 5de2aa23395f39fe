package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"guildpulse/internal/bot"
	"guildpulse/internal/controllers"
	"guildpulse/internal/providers"
	"guildpulse/internal/scheduler/interfaces"
	"guildpulse/internal/structures"
)

// Session is the chat platform connection feeding the bot loop.
type Session interface {
	Open(ctx context.Context, sink bot.EventSink) error
	Close() error
}

// Loop is the single consumer of bot events.
type Loop interface {
	bot.EventSink
	Run(ctx context.Context) error
}

type App struct {
	WebServer  *http.Server
	conf       *structures.Config
	logger     providers.Logger
	scheduler  interfaces.SchedulerInterface
	dispatcher Loop
	session    Session
}

func NewApp(healthController *controllers.HealthController, scheduler interfaces.SchedulerInterface,
	dispatcher Loop, session Session, conf *structures.Config, logger providers.Logger,
	router providers.RouterProviderInterface, metrics providers.MetricsProviderInterface) *App {
	// Inner mux: API routes
	apiMux := http.NewServeMux()
	for _, route := range router.GetRoutes() {
		apiMux.Handle(route.Url, route.Handler)
	}
	api := gzhttp.GzipHandler(providers.MetricsMiddleware(metrics, apiMux))

	// Outer mux: infrastructure + instrumented API
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/", api)

	return &App{
		WebServer: &http.Server{
			Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:      providers.AccessLogMiddleware(logger, providers.CORSMiddleware(mux)),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		conf:       conf,
		logger:     logger,
		scheduler:  scheduler,
		dispatcher: dispatcher,
		session:    session,
	}
}

// Run restores the stores, connects the bot and serves the API until ctx
// is cancelled or the HTTP server fails. Stores are persisted on the way out.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof(providers.TypeApp, "Starting %s", a.conf.AppName)
	if err := a.scheduler.Restore(); err != nil {
		return err
	}

	loopCtx, stopLoop := context.WithCancel(context.Background())
	var loop sync.WaitGroup
	loop.Add(1)
	go func() {
		defer loop.Done()
		if err := a.dispatcher.Run(loopCtx); err != nil {
			a.logger.Errorf(providers.TypeBot, "Dispatcher error: %s", err)
		}
	}()
	stopBot := func() {
		stopLoop()
		loop.Wait()
	}

	if err := a.session.Open(loopCtx, a.dispatcher); err != nil {
		stopBot()
		return err
	}
	a.scheduler.Init()

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Infof(providers.TypeApp, "Listening HTTP clients on %s", a.WebServer.Addr)
		if err := a.WebServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Infof(providers.TypeApp, "Shutdown signal received")
	case err := <-serverErr:
		runErr = fmt.Errorf("server error: %w", err)
	}

	a.scheduler.Stop()
	if err := a.session.Close(); err != nil {
		a.logger.Warnf(providers.TypeBot, "Closing platform session: %s", err)
	}
	stopBot()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.WebServer.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, err)
	}
	if err := a.scheduler.Persist(); err != nil {
		runErr = errors.Join(runErr, err)
	}
	if runErr == nil {
		a.logger.Infof(providers.TypeApp, "gracefully stopped")
	}
	return runErr
}
