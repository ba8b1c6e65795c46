package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/carefinder/internal/config"
	dbRedis "github.com/kailas-cloud/carefinder/internal/db/redis"
	dbSQL "github.com/kailas-cloud/carefinder/internal/db/sql"
	"github.com/kailas-cloud/carefinder/internal/domain/provider"
	logpkg "github.com/kailas-cloud/carefinder/internal/logger"
	"github.com/kailas-cloud/carefinder/internal/metrics"
	"github.com/kailas-cloud/carefinder/internal/repository/snapshot"
	chiTransport "github.com/kailas-cloud/carefinder/internal/transport/chi"
	"github.com/kailas-cloud/carefinder/internal/transport/api"
	cataloguc "github.com/kailas-cloud/carefinder/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/carefinder/internal/usecase/health"
	"github.com/kailas-cloud/carefinder/internal/version"
)

// source is a snapshot loader that can also report reachability.
type source interface {
	cataloguc.SourceLoader
	healthuc.SourcePinger
	Name() string
}

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting carefinder API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("source_driver", cfg.Source.Driver),
		zap.Float64("min_doctor_score", cfg.Index.MinDoctorScore),
		zap.Float64("min_feature_score", cfg.Index.MinFeatureScore),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, closeSource, err := openSource(ctx, cfg.Source)
	if err != nil {
		logger.Fatal("Failed to open snapshot source", zap.String("driver", cfg.Source.Driver), zap.Error(err))
	}
	defer closeSource()
	logger.Info("Snapshot source ready", zap.String("source", src.Name()))

	// Register index metrics explicitly (no init())
	metrics.RegisterIndexMetrics()

	catalog := cataloguc.New(src, provider.Thresholds{
		MinDoctorScore:  cfg.Index.MinDoctorScore,
		MinFeatureScore: cfg.Index.MinFeatureScore,
	}, logger.Named("catalog"))

	gen, err := catalog.Reload(ctx)
	if err != nil {
		logger.Fatal("Initial index build failed", zap.Error(err))
	}
	logger.Info("Index ready", zap.String("generation", gen.ID), zap.Int("providers", gen.Stats.DoctorsIndexed))

	go catalog.Run(ctx, time.Duration(cfg.Index.RefreshIntervalSec)*time.Second)

	healthSvc := healthuc.New(src, catalog)

	server := chiTransport.NewServer(catalog, healthSvc, logger).
		WithLimits(cfg.Index.DefaultLimit, cfg.Index.MaxLimit)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.Use(chiTransport.GenerationMiddleware(catalog))
	api.HandlerWithOptions(server, api.ChiServerOptions{
		BaseRouter:       r,
		ErrorHandlerFunc: chiTransport.BadRequestHandler,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openSource builds the snapshot loader for the configured driver. Network
// stores are polled until ready; the returned func releases them.
func openSource(ctx context.Context, cfg config.SourceConfig) (source, func(), error) {
	readiness := time.Duration(cfg.ReadinessTimeout) * time.Second

	switch cfg.Driver {
	case config.DriverFile:
		return snapshot.NewFileLoader(cfg.Path), func() {}, nil

	case config.DriverParquet:
		return snapshot.NewParquetLoader(cfg.Path), func() {}, nil

	case config.DriverRedis, config.DriverValkey:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
		}
		if err := waitForReady(ctx, store, readiness); err != nil {
			return nil, nil, err
		}
		return snapshot.NewRedisLoader(store, cfg.KeyPrefix), store.Close, nil

	case config.DriverPostgres, config.DriverSQLite:
		store, err := dbSQL.Open(dbSQL.Config{
			Driver:          cfg.Driver,
			DSN:             cfg.DSN,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeMin) * time.Minute,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
		}
		if err := waitForReady(ctx, store, readiness); err != nil {
			return nil, nil, err
		}
		return snapshot.NewSQLLoader(store), store.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown source driver %q", cfg.Driver)
}

type readyWaiter interface {
	WaitForReady(ctx context.Context, timeout time.Duration) error
	Close()
}

func waitForReady(ctx context.Context, store readyWaiter, timeout time.Duration) error {
	if err := store.WaitForReady(ctx, timeout); err != nil {
		store.Close()
		return fmt.Errorf("store not ready: %w", err)
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(api.ErrorResponse{
						Code:    api.ErrorResponseCodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
				zap.String("generation", ww.Header().Get(chiTransport.GenerationHeader)),
			)
		})
	}
}
