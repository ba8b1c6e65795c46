package sdk

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver    string // "file", "parquet", "valkey" or "redis"
	path      string
	addrs     []string
	password  string
	keyPrefix string

	thresholds      Thresholds
	refreshInterval time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithFile loads snapshots from a YAML or JSON document.
func WithFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "file"
		c.path = path
	})
}

// WithParquet loads snapshots from a directory of parquet datasets.
func WithParquet(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "parquet"
		c.path = dir
	})
}

// WithValkey loads snapshots published to a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis loads snapshots published to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithKeyPrefix sets the Redis/Valkey key prefix. Default: "carefinder:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithThresholds sets the minimum doctor and feature scores. Default: 0 for both.
func WithThresholds(th Thresholds) Option {
	return optionFunc(func(c *clientConfig) {
		c.thresholds = th
	})
}

// WithRefresh rebuilds the index every interval until Close.
// Zero disables periodic rebuilds (default).
func WithRefresh(interval time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.refreshInterval = interval
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
