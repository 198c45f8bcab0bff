package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/farmfresh/farmfresh-backend/api/controllers"
	"github.com/farmfresh/farmfresh-backend/api/routes"
	"github.com/farmfresh/farmfresh-backend/internal/address"
	"github.com/farmfresh/farmfresh-backend/internal/auth"
	"github.com/farmfresh/farmfresh-backend/internal/cart"
	"github.com/farmfresh/farmfresh-backend/internal/farmers"
	"github.com/farmfresh/farmfresh-backend/internal/orders"
	product "github.com/farmfresh/farmfresh-backend/internal/products"
	"github.com/farmfresh/farmfresh-backend/internal/uploads"
	"github.com/farmfresh/farmfresh-backend/internal/users"
	"github.com/farmfresh/farmfresh-backend/pkg/auth/session"
	"github.com/farmfresh/farmfresh-backend/pkg/config"
	"github.com/farmfresh/farmfresh-backend/pkg/db"
	"github.com/farmfresh/farmfresh-backend/pkg/logger"
	"github.com/farmfresh/farmfresh-backend/pkg/metrics"
	"github.com/farmfresh/farmfresh-backend/pkg/migrate"
	"github.com/farmfresh/farmfresh-backend/pkg/outbox"
	"github.com/farmfresh/farmfresh-backend/pkg/redis"
	"github.com/farmfresh/farmfresh-backend/pkg/security"
	"github.com/farmfresh/farmfresh-backend/pkg/storage/gcs"
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

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	ready := map[string]controllers.Pinger{"db": dbClient, "redis": redisClient}

	var storage gcs.Uploader
	if cfg.GCS.Enabled() {
		gcsClient, gcsErr := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		if gcsErr != nil {
			return gcsErr
		}
		defer func() { err = multierr.Append(err, gcsClient.Close()) }()
		storage = gcsClient
		ready["gcs"] = gcsClient
	} else {
		logg.Warn(ctx, "gcs bucket not configured, uploads disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps, err := buildDeps(cfg, logg, dbClient, storage, registry)
	if err != nil {
		return err
	}
	deps.Sessions = sessionManager
	deps.Idempotency = redisClient
	deps.RateLimits = redisClient
	deps.Ready = ready

	authService, err := auth.NewService(auth.ServiceParams{
		Users:          users.NewRepository(dbClient.DB()),
		Tx:             dbClient,
		SessionManager: sessionManager,
		Hasher:         security.NewHasher(cfg.Password),
		JWTConfig:      cfg.JWT,
		Logger:         logg,
	})
	if err != nil {
		return err
	}
	deps.Auth = authService

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "addr": addr})
	logg.Info(ctx, "starting api server")

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.ListenAndServe() }()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildDeps wires the domain services over one database client.
func buildDeps(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, storage gcs.Uploader, registry *prometheus.Registry) (routes.Deps, error) {
	conn := dbClient.DB()
	productRepo := product.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	addressRepo := address.NewRepository(conn)

	var errs error
	products, err := product.NewService(productRepo, dbClient, logg)
	errs = multierr.Append(errs, err)
	farmerService, err := farmers.NewService(farmers.NewRepository(conn))
	errs = multierr.Append(errs, err)
	cartService, err := cart.NewService(cartRepo, dbClient, productRepo, logg)
	errs = multierr.Append(errs, err)
	addressService, err := address.NewService(addressRepo, dbClient)
	errs = multierr.Append(errs, err)
	orderService, err := orders.NewService(
		orders.NewRepository(conn),
		dbClient,
		outbox.NewService(outbox.NewRepository(conn), logg),
		cartRepo,
		productRepo,
		addressRepo,
		metrics.NewOrderMetrics(registry),
		logg,
	)
	errs = multierr.Append(errs, err)

	var uploadService uploads.Service
	if storage != nil {
		uploadService, err = uploads.NewService(storage, cfg.Upload.MaxBytes(), logg)
		errs = multierr.Append(errs, err)
	}
	if errs != nil {
		return routes.Deps{}, errs
	}

	return routes.Deps{
		Config:      cfg,
		Logger:      logg,
		Gatherer:    registry,
		HTTPMetrics: metrics.NewHTTPMetrics(registry),
		Products:    products,
		Farmers:     farmerService,
		Cart:        cartService,
		Address:     addressService,
		Orders:      orderService,
		Uploads:     uploadService,
	}, nil
}
