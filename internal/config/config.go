package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the carefinder API configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Source  SourceConfig  `yaml:"source"`
	Index   IndexConfig   `yaml:"index"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Source drivers.
const (
	DriverFile     = "file"
	DriverParquet  = "parquet"
	DriverRedis    = "redis"
	DriverValkey   = "valkey"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// SourceConfig describes where snapshots are read from.
type SourceConfig struct {
	Driver string `yaml:"driver"` // file, parquet, redis, valkey, postgres, sqlite (default: file)

	// file: snapshot document; parquet: directory with the three datasets.
	Path string `yaml:"path"`

	// redis, valkey
	Addrs     []string `yaml:"addrs"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	DB        int      `yaml:"db"`
	KeyPrefix string   `yaml:"key_prefix"`

	// postgres, sqlite
	DSN                string `yaml:"dsn"`
	MaxOpenConns       int    `yaml:"max_open_conns"`
	MaxIdleConns       int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMin int    `yaml:"conn_max_lifetime_min"`

	ReadinessTimeout int `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds thresholds, refresh and pagination settings.
type IndexConfig struct {
	MinDoctorScore     float64 `yaml:"min_doctor_score"`
	MinFeatureScore    float64 `yaml:"min_feature_score"`
	RefreshIntervalSec int     `yaml:"refresh_interval_sec"` // 0 disables periodic rebuild
	DefaultLimit       int     `yaml:"default_limit"`
	MaxLimit           int     `yaml:"max_limit"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables in data, decodes it, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Source.Driver == "" {
		c.Source.Driver = DriverFile
	}
	if c.Source.ReadinessTimeout <= 0 {
		c.Source.ReadinessTimeout = 10
	}
	if c.Source.KeyPrefix == "" {
		c.Source.KeyPrefix = "carefinder:"
	}
	if c.Index.DefaultLimit <= 0 {
		c.Index.DefaultLimit = 10
	}
	if c.Index.MaxLimit <= 0 {
		c.Index.MaxLimit = 100
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if err := c.Source.validate(); err != nil {
		return err
	}
	if !inScoreRange(c.Index.MinDoctorScore) {
		return fmt.Errorf("index.min_doctor_score must be within [0, 100], got %v", c.Index.MinDoctorScore)
	}
	if !inScoreRange(c.Index.MinFeatureScore) {
		return fmt.Errorf("index.min_feature_score must be within [0, 100], got %v", c.Index.MinFeatureScore)
	}
	if c.Index.RefreshIntervalSec < 0 {
		return fmt.Errorf("index.refresh_interval_sec must not be negative, got %d", c.Index.RefreshIntervalSec)
	}
	if c.Index.DefaultLimit > c.Index.MaxLimit {
		return fmt.Errorf("index.default_limit (%d) exceeds index.max_limit (%d)",
			c.Index.DefaultLimit, c.Index.MaxLimit)
	}
	return nil
}

func (s *SourceConfig) validate() error {
	switch s.Driver {
	case DriverFile, DriverParquet:
		if s.Path == "" {
			return fmt.Errorf("source.path is required for driver %q", s.Driver)
		}
	case DriverRedis, DriverValkey:
		if len(s.Addrs) == 0 {
			return fmt.Errorf("source.addrs is required for driver %q", s.Driver)
		}
	case DriverPostgres, DriverSQLite:
		if s.DSN == "" {
			return fmt.Errorf("source.dsn is required for driver %q", s.Driver)
		}
	default:
		return fmt.Errorf("source.driver %q is not supported", s.Driver)
	}
	return nil
}

// NaN fails both comparisons.
func inScoreRange(v float64) bool {
	return v >= 0 && v <= 100
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
