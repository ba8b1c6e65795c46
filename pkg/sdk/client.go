package sdk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/carefinder/internal/db/redis"
	"github.com/kailas-cloud/carefinder/internal/repository/snapshot"
	cataloguc "github.com/kailas-cloud/carefinder/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/carefinder/internal/usecase/health"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "carefinder:"
)

// Internal interfaces, swapped out in tests.
type catalogUseCase interface {
	Reload(ctx context.Context) (Generation, error)
	FindDoctors(ctx context.Context, p FindDoctorsParams) ([]DoctorSummary, Generation, error)
	DoctorDetail(ctx context.Context, now time.Time, npi string) (DoctorDetail, Generation, error)
	Current() (Generation, bool)
}

// source loads snapshots and reports whether its store is reachable.
type source interface {
	cataloguc.SourceLoader
	healthuc.SourcePinger
}

// Client keeps a doctor index loaded from a snapshot store.
type Client struct {
	catalog   catalogUseCase
	healthSvc healthUseCase
	closeFn   func()
	stop      context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	obs       *observer
}

// New creates a Client, connects to the configured source and builds the
// first index. The provided context bounds the readiness check and the
// initial load.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{keyPrefix: defaultKeyPrefix}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("carefinder: snapshot source required (use WithFile, WithParquet, WithRedis or WithValkey)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	src, closeFn, err := openSource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	catalog := cataloguc.New(src, cfg.thresholds, zap.NewNop())
	c := &Client{
		catalog:   catalog,
		healthSvc: healthuc.New(src, catalog),
		closeFn:   closeFn,
		obs:       obs,
	}

	if _, err := c.Reload(ctx); err != nil {
		closeFn()
		return nil, err
	}

	if cfg.refreshInterval > 0 {
		runCtx, stop := context.WithCancel(context.Background())
		c.stop = stop
		c.done = make(chan struct{})
		go func() {
			defer close(c.done)
			catalog.Run(runCtx, cfg.refreshInterval)
		}()
	}

	return c, nil
}

func openSource(ctx context.Context, cfg *clientConfig) (source, func(), error) {
	noop := func() {}
	switch cfg.driver {
	case "file":
		return snapshot.NewFileLoader(cfg.path), noop, nil
	case "parquet":
		return snapshot.NewParquetLoader(cfg.path), noop, nil
	case "valkey", "redis":
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("carefinder: create %s store: %w", cfg.driver, err)
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("carefinder: %s not ready: %w", cfg.driver, err)
		}
		return snapshot.NewRedisLoader(store, cfg.keyPrefix), store.Close, nil
	default:
		return nil, nil, fmt.Errorf("carefinder: unknown driver %q", cfg.driver)
	}
}

// Close stops periodic refresh and releases the source connection.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		if c.stop != nil {
			c.stop()
			<-c.done
		}
		if c.closeFn != nil {
			c.closeFn()
		}
	})
}

// Reload loads a fresh snapshot and swaps in a new index. On failure the
// previous index keeps serving.
func (c *Client) Reload(ctx context.Context) (gen Generation, err error) {
	start := time.Now()
	defer func() {
		c.obs.observe("reload", start, err, slog.String("generation", gen.ID))
		if err == nil {
			c.obs.setProviders(gen.Stats.DoctorsIndexed)
		}
	}()

	gen, err = c.catalog.Reload(ctx)
	if err != nil {
		return Generation{}, fmt.Errorf("reload: %w", err)
	}
	return gen, nil
}

// Generation returns the build currently serving queries.
func (c *Client) Generation() (Generation, bool) {
	return c.catalog.Current()
}

// FindDoctors searches the current index.
func (c *Client) FindDoctors(ctx context.Context, p FindDoctorsParams) (out []DoctorSummary, err error) {
	start := time.Now()
	defer func() { c.obs.observe("find_doctors", start, err, slog.Int("results", len(out))) }()

	out, _, err = c.catalog.FindDoctors(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("find doctors: %w", err)
	}
	return out, nil
}

// DoctorDetail looks up one doctor in the current index.
// Use errors.Is(err, ErrDoctorNotFound) to detect unknown NPIs.
func (c *Client) DoctorDetail(ctx context.Context, now time.Time, npi string) (d DoctorDetail, err error) {
	start := time.Now()
	defer func() { c.obs.observe("doctor_detail", start, err, slog.String("npi", npi)) }()

	d, _, err = c.catalog.DoctorDetail(ctx, now, npi)
	if err != nil {
		return DoctorDetail{}, err //nolint:wrapcheck // already wrapped by the catalog
	}
	return d, nil
}
