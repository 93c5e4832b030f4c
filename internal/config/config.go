package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	StorageBackendRedis  = "redis"
	StorageBackendMemory = "memory"
)

type Config struct {
	Environment string
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// storage: "redis" or "memory"
	StorageBackend string `toml:"storage_backend"`
	RedisHost      string `toml:"redis_host"`
	RedisPort      string `toml:"redis_port"`

	// auth
	OAuthRedirectURL            string `toml:"oauth_redirect_url"`
	LoginRateLimitAllowedPerMin int    `toml:"login_rate_limit_allowed_per_min"`

	// telemetry
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

func Load(env, path string) (*Config, error) {
	var tomlConfig Toml
	if _, err := toml.DecodeFile(path, &tomlConfig); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := tomlConfig.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config section missing for env: %s", env)
	}

	cfg.Environment = env
	if cfg.StorageBackend == "" {
		cfg.StorageBackend = StorageBackendRedis
	}
	if cfg.StorageBackend != StorageBackendRedis && cfg.StorageBackend != StorageBackendMemory {
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}
	if cfg.LoginRateLimitAllowedPerMin <= 0 {
		cfg.LoginRateLimitAllowedPerMin = 15
	}

	return cfg, nil
}
