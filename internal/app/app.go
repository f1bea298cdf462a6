// Package app assembles the agent: the loopback callback server, the link
// listener, the session manager and the login controller, with one lifecycle
// owner for startup and shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ifitclub/ifit-agent/internal/api"
	"github.com/ifitclub/ifit-agent/internal/config"
	"github.com/ifitclub/ifit-agent/internal/deeplink"
	"github.com/ifitclub/ifit-agent/internal/handler"
	"github.com/ifitclub/ifit-agent/internal/login"
	"github.com/ifitclub/ifit-agent/internal/session"
	"github.com/ifitclub/ifit-agent/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server

	hub        *deeplink.Hub
	listener   *deeplink.Listener
	sessions   *session.Manager
	controller *login.Controller
	metrics    *observability.AuthMetrics

	// wake nudges the process loop after a callback lands. Buffered with
	// one slot so repeated nudges coalesce instead of blocking the
	// delivery path.
	wake chan struct{}
}

// NewApp wires the agent. launchURL is the URL the process was started
// with, or empty when it was started plainly.
func NewApp(infra Infrastructure, cfg *config.Config, notifier login.Notifier, nav login.Navigator, launchURL string) (*App, error) {
	parser := deeplink.NewParser(cfg.Link.Scheme)
	hub := deeplink.NewHub(launchURL)
	listener := deeplink.NewListener(parser, hub, infra.Logger())

	sessions := session.NewManager(infra.Store(), parser, infra.Logger())
	client := api.NewClient(cfg.API.BaseURL, sessions, cfg.API.Timeout.Duration)
	controller := login.NewController(
		sessions,
		client,
		infra.Store(),
		notifier,
		nav,
		infra.Logger(),
		cfg.Prefetch.ActivityPageSize,
	)

	metrics, err := observability.NewAuthMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	healthChecker := NewHealthChecker(sessions)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("ifit-agent"))
	router.Use(handler.LoggerMiddleware(infra.Logger()))

	a := &App{
		infra:      infra,
		config:     cfg,
		router:     router,
		hub:        hub,
		listener:   listener,
		sessions:   sessions,
		controller: controller,
		metrics:    metrics,
		wake:       make(chan struct{}, 1),
	}

	router.GET("/callback", handler.CallbackHandler(cfg.Link.Scheme, hub, func() {
		metrics.CallbacksReceived.Add(context.Background(), 1)
	}))
	router.GET("/health", healthChecker.Handler)
	router.GET("/metrics", observability.PrometheusHandler(infra.MetricsHandler()))

	a.server = &http.Server{
		Addr:         cfg.Callback.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Callback.ReadTimeout.Duration,
		WriteTimeout: cfg.Callback.WriteTimeout.Duration,
	}

	return a, nil
}

// Router exposes the gin engine for tests.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Sessions exposes the session manager for the CLI surfaces.
func (a *App) Sessions() *session.Manager {
	return a.sessions
}

// Run bootstraps the session, starts listening for callbacks and serves the
// loopback endpoint until ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	a.sessions.Bootstrap(ctx)
	a.sessions.CheckLaunchURL(a.hub)

	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()

	loopDone := make(chan struct{})
	go a.processLoop(loopCtx, loopDone)

	stopListening := a.listener.Start(func(res deeplink.Result) {
		a.sessions.SetPendingEvent(res)
		a.nudge()
	})
	defer stopListening()

	// The launch URL may already have parked an event before the loop
	// existed.
	a.nudge()

	errChan := make(chan error, 1)
	go func() {
		a.infra.Logger().Info("callback server starting",
			zap.String("address", a.config.Callback.Address()),
			zap.String("scheme", a.config.Link.Scheme),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("callback server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("agent failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("agent stopped by context")
	}

	stopLoop()
	<-loopDone

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

// processLoop serializes login processing: however many callbacks land,
// exactly one Process call runs at a time, and each drains the pending slot
// it finds.
func (a *App) processLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.wake:
		}

		for {
			outcome := a.controller.Process(ctx)
			if outcome == login.OutcomeNone {
				break
			}
			a.recordOutcome(ctx, outcome)
		}
	}
}

func (a *App) recordOutcome(ctx context.Context, outcome login.Outcome) {
	switch outcome {
	case login.OutcomeLoggedIn:
		a.metrics.RecordLogin(ctx, "committed")
	case login.OutcomeFailed:
		a.metrics.RecordLogin(ctx, "failed")
	}
}

func (a *App) nudge() {
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// Shutdown stops the listener, the callback server and the infrastructure.
func (a *App) Shutdown() error {
	a.infra.Logger().Info("agent shutting down...")

	a.listener.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- a.server.Shutdown(ctx)
	}()

	go func() {
		errs <- a.infra.Shutdown(ctx)
	}()

	err := errors.Join(<-errs, <-errs)
	if err != nil {
		a.infra.Logger().Error("shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("agent exited successfully")
	return nil
}
