package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ifitclub/ifit-agent/internal/config"
	"github.com/ifitclub/ifit-agent/internal/storage"
	"github.com/ifitclub/ifit-agent/pkg/observability"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

type Infrastructure interface {
	Store() storage.Store
	Logger() *zap.Logger
	MetricsHandler() http.Handler
	MeterProvider() *metric.MeterProvider

	Shutdown(ctx context.Context) error
}

type infrastructure struct {
	store          storage.Store
	logger         *zap.Logger
	metricsHandler http.Handler
	meterProvider  *metric.MeterProvider
}

var _ Infrastructure = &infrastructure{}

func NewInfrastructure(ctx context.Context, cfg config.Config) (*infrastructure, error) {
	i := &infrastructure{}

	logger, err := observability.InitLogger(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	i.logger = logger

	store, err := openStore(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	i.store = store

	meterProvider, metricsHandler, err := observability.InitTelemetry("ifit-agent")
	if err != nil {
		_ = i.store.Close()
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	i.meterProvider = meterProvider
	i.metricsHandler = metricsHandler

	return i, nil
}

func openStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		return storage.NewRedis(cfg.Redis.Address(), cfg.Redis.Password, cfg.Redis.DB)
	case config.BackendMemory:
		return storage.NewMemory(), nil
	default:
		path := cfg.FilePath
		if path == "" {
			var err error
			path, err = storage.DefaultPath()
			if err != nil {
				return nil, err
			}
		}
		return storage.NewFile(path)
	}
}

func (i *infrastructure) Store() storage.Store {
	return i.store
}

func (i *infrastructure) Logger() *zap.Logger {
	return i.logger
}

func (i *infrastructure) MetricsHandler() http.Handler {
	return i.metricsHandler
}

func (i *infrastructure) MeterProvider() *metric.MeterProvider {
	return i.meterProvider
}

func (i *infrastructure) Shutdown(ctx context.Context) error {
	errs := make(chan error, 2)

	go func() { errs <- i.store.Close() }()
	go func() { errs <- observability.Shutdown(ctx, i.meterProvider, i.logger) }()

	return errors.Join(<-errs, <-errs)
}
