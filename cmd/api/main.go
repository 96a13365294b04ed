package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/shopstudy/shopstudy-backend/api/routes"
	authsvc "github.com/shopstudy/shopstudy-backend/internal/auth"
	"github.com/shopstudy/shopstudy-backend/internal/catalog"
	checkoutsvc "github.com/shopstudy/shopstudy-backend/internal/checkout"
	"github.com/shopstudy/shopstudy-backend/internal/currency"
	"github.com/shopstudy/shopstudy-backend/internal/directory"
	"github.com/shopstudy/shopstudy-backend/internal/orders"
	"github.com/shopstudy/shopstudy-backend/internal/session"
	"github.com/shopstudy/shopstudy-backend/internal/userstore"
	"github.com/shopstudy/shopstudy-backend/pkg/config"
	"github.com/shopstudy/shopstudy-backend/pkg/kv"
	"github.com/shopstudy/shopstudy-backend/pkg/logger"
	"github.com/shopstudy/shopstudy-backend/pkg/metrics"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	backend, closeBackend, err := newStorageBackend(context.Background(), cfg.Storage, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap storage backend", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store, err := userstore.NewStore(userstore.StoreParams{
		KV:      backend,
		Logger:  logg,
		Metrics: metrics.NewStoreMetrics(registry),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create user store", err)
		os.Exit(1)
	}

	rateService, err := currency.NewService(currency.ServiceParams{
		Client:  currency.NewClient(cfg.ExchangeRate),
		Logger:  logg,
		Metrics: metrics.NewCurrencyMetrics(registry),
		TTL:     cfg.ExchangeRate.CacheTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create currency service", err)
		os.Exit(1)
	}

	projector, err := session.NewProjector(session.ProjectorParams{
		Store:  store,
		Rates:  rateService,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create session projector", err)
		os.Exit(1)
	}
	if err := projector.LoadCurrentUser(context.Background()); err != nil {
		logg.Error(context.Background(), "failed to restore persisted session", err)
		os.Exit(1)
	}

	catalogClient := catalog.NewClient(cfg.Catalog)
	directoryClient := directory.NewClient(cfg.Catalog)

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		Store:     store,
		Projector: projector,
		API:       authsvc.NewClient(cfg.Catalog),
		Directory: directoryClient,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Store:     store,
		Projector: projector,
		Placer:    orders.NewClient(cfg.Catalog),
		Logger:    logg,
		Delay:     cfg.Checkout.ProcessingDelay,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"storage": strings.ToLower(cfg.Storage.Backend),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:    cfg,
			Logger:    logg,
			Store:     store,
			Projector: projector,
			Auth:      authService,
			Checkout:  checkoutService,
			Catalog:   catalogClient,
			Directory: directoryClient,
			Metrics:   registry,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		shutdownErr := server.Shutdown(shutdownCtx)
		if closeBackend != nil {
			shutdownErr = multierr.Append(shutdownErr, closeBackend())
		}
		if shutdownErr != nil {
			logg.Error(ctx, "shutdown finished with errors", shutdownErr)
			os.Exit(1)
		}
		logg.Info(ctx, "shutdown complete")
	}
}

// newStorageBackend picks the kv backend from config and returns it with
// its close function.
func newStorageBackend(ctx context.Context, cfg config.StorageConfig, logg *logger.Logger) (kv.Store, func() error, error) {
	switch strings.ToLower(cfg.Backend) {
	case config.StorageBackendRedis:
		store, err := kv.NewRedisStore(ctx, cfg, logg)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		store, err := kv.NewGormStore(ctx, cfg, logg)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
}
