package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Grid struct {
		DefaultSize int `yaml:"default_size"`
	} `yaml:"grid"`

	Playback struct {
		LoadTimeout      time.Duration `yaml:"load_timeout"`
		PlaylistCacheTTL time.Duration `yaml:"playlist_cache_ttl"`
		UserAgent        string        `yaml:"user_agent"`
	} `yaml:"playback"`

	Sweep struct {
		Interval time.Duration `yaml:"interval"`
		Breaker  struct {
			Enabled             bool          `yaml:"enabled"`
			FailureThreshold    int           `yaml:"failure_threshold"`
			SuccessThreshold    int           `yaml:"success_threshold"`
			Timeout             time.Duration `yaml:"timeout"`
			MaxRequestsHalfOpen int           `yaml:"max_requests_half_open"`
		} `yaml:"breaker"`
	} `yaml:"sweep"`

	Store struct {
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Address  string `yaml:"address"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			PoolSize int    `yaml:"pool_size"`
		} `yaml:"redis"`
		SnapshotPath string `yaml:"snapshot_path"`
		Retry        struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			InitialDelay time.Duration `yaml:"initial_delay"`
			MaxDelay     time.Duration `yaml:"max_delay"`
		} `yaml:"retry"`
	} `yaml:"store"`

	Session struct {
		CookieName string        `yaml:"cookie_name"`
		Secret     string        `yaml:"secret"`
		TTL        time.Duration `yaml:"ttl"`
	} `yaml:"session"`

	RateLimiting struct {
		Enabled           bool    `yaml:"enabled"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
		MaxConcurrent     int     `yaml:"max_concurrent"`
	} `yaml:"rate_limiting"`

	Diagnostics struct {
		MaxEntries int `yaml:"max_entries"`
	} `yaml:"diagnostics"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled"`
		JaegerURL   string  `yaml:"jaeger_url"`
		Environment string  `yaml:"environment"`
		SampleRate  float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	if c.Grid.DefaultSize < 1 || c.Grid.DefaultSize > 49 {
		return fmt.Errorf("grid.default_size must be in 1..49")
	}

	if c.Playback.LoadTimeout <= 0 {
		return fmt.Errorf("playback.load_timeout must be > 0")
	}
	if c.Playback.PlaylistCacheTTL < 0 {
		return fmt.Errorf("playback.playlist_cache_ttl must be >= 0")
	}

	if c.Sweep.Interval <= 0 {
		return fmt.Errorf("sweep.interval must be > 0")
	}
	if c.Sweep.Breaker.Enabled {
		if c.Sweep.Breaker.FailureThreshold <= 0 {
			return fmt.Errorf("sweep.breaker.failure_threshold must be > 0 when breaker is enabled")
		}
		if c.Sweep.Breaker.SuccessThreshold <= 0 {
			return fmt.Errorf("sweep.breaker.success_threshold must be > 0 when breaker is enabled")
		}
		if c.Sweep.Breaker.Timeout <= 0 {
			return fmt.Errorf("sweep.breaker.timeout must be > 0 when breaker is enabled")
		}
	}

	if c.Store.Redis.Enabled {
		if c.Store.Redis.Address == "" {
			return fmt.Errorf("store.redis.address must not be empty when redis is enabled")
		}
		if c.Store.Redis.PoolSize <= 0 {
			return fmt.Errorf("store.redis.pool_size must be > 0 when redis is enabled")
		}
	}
	if c.Store.SnapshotPath == "" {
		return fmt.Errorf("store.snapshot_path must not be empty")
	}
	if c.Store.Retry.MaxAttempts < 0 {
		return fmt.Errorf("store.retry.max_attempts must be >= 0")
	}

	if c.Session.CookieName == "" {
		return fmt.Errorf("session.cookie_name must not be empty")
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("session.secret must not be empty")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be > 0")
	}

	if c.RateLimiting.Enabled {
		if c.RateLimiting.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.Burst <= 0 {
			return fmt.Errorf("rate_limiting.burst must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.MaxConcurrent < 0 {
			return fmt.Errorf("rate_limiting.max_concurrent must be >= 0 when rate limiting is enabled")
		}
	}

	if c.Diagnostics.MaxEntries <= 0 {
		return fmt.Errorf("diagnostics.max_entries must be > 0")
	}

	if c.Tracing.Enabled && c.Tracing.JaegerURL == "" {
		return fmt.Errorf("tracing.jaeger_url must not be empty when tracing is enabled")
	}

	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	// If file does not exist, fall back to defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":8080"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 30 * time.Second

	cfg.Grid.DefaultSize = 4

	cfg.Playback.LoadTimeout = 10 * time.Second
	cfg.Playback.PlaylistCacheTTL = 30 * time.Second
	cfg.Playback.UserAgent = "mosaic/1.0"

	cfg.Sweep.Interval = 30 * time.Second
	cfg.Sweep.Breaker.Enabled = true
	cfg.Sweep.Breaker.FailureThreshold = 10
	cfg.Sweep.Breaker.SuccessThreshold = 1
	cfg.Sweep.Breaker.Timeout = 5 * time.Minute
	cfg.Sweep.Breaker.MaxRequestsHalfOpen = 1

	cfg.Store.Redis.Enabled = false
	cfg.Store.Redis.Address = "localhost:6379"
	cfg.Store.Redis.DB = 0
	cfg.Store.Redis.PoolSize = 10
	cfg.Store.SnapshotPath = "mosaic_snapshot.json"
	cfg.Store.Retry.MaxAttempts = 2
	cfg.Store.Retry.InitialDelay = 100 * time.Millisecond
	cfg.Store.Retry.MaxDelay = 2 * time.Second

	cfg.Session.CookieName = "mosaic_session"
	cfg.Session.Secret = "change-me-in-production"
	cfg.Session.TTL = 7 * 24 * time.Hour

	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.RequestsPerSecond = 50
	cfg.RateLimiting.Burst = 100
	cfg.RateLimiting.MaxConcurrent = 0

	cfg.Diagnostics.MaxEntries = 500

	cfg.Monitoring.PrometheusEnabled = true

	cfg.Tracing.Enabled = false
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.Environment = "development"
	cfg.Tracing.SampleRate = 1.0

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("MOSAIC_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if level := os.Getenv("MOSAIC_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if addr := os.Getenv("MOSAIC_REDIS_ADDRESS"); addr != "" {
		c.Store.Redis.Address = addr
		c.Store.Redis.Enabled = true
	}
	if path := os.Getenv("MOSAIC_SNAPSHOT_PATH"); path != "" {
		c.Store.SnapshotPath = path
	}
	if secret := os.Getenv("MOSAIC_SESSION_SECRET"); secret != "" {
		c.Session.Secret = secret
	}
}
