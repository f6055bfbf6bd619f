// Package config loads inetdash configuration from config.yaml and
// INETDASH_* environment variables, and builds the global logger.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data   DataConfig   `yaml:"data" mapstructure:"data"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	View   ViewConfig   `yaml:"view" mapstructure:"view"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the two dataset sources. Sources may be local paths or
// http(s):// and ftp:// URLs.
type DataConfig struct {
	UsageSource    string `yaml:"usage_source" mapstructure:"usage_source"`
	GeometrySource string `yaml:"geometry_source" mapstructure:"geometry_source"`
	UsageColumn    string `yaml:"usage_column" mapstructure:"usage_column"`
}

// FetchConfig tunes remote source downloads.
type FetchConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// Timeout returns the fetch timeout as a duration.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSecs) * time.Second
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RateLimit   float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst   int      `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// ViewConfig configures view computation and memoization.
type ViewConfig struct {
	ZoomScale    float64 `yaml:"zoom_scale" mapstructure:"zoom_scale"`
	CacheEntries int     `yaml:"cache_entries" mapstructure:"cache_entries"`
	CacheTTLSecs int     `yaml:"cache_ttl_secs" mapstructure:"cache_ttl_secs"`
}

// CacheTTL returns the view cache TTL. Zero means entries never expire.
func (v ViewConfig) CacheTTL() time.Duration {
	return time.Duration(v.CacheTTLSecs) * time.Second
}

// StoreConfig configures the snapshot database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("INETDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.usage_source", "data/raw/share-of-individuals-using-the-internet.csv")
	v.SetDefault("data.geometry_source", "data/raw/countries.geojson")
	v.SetDefault("data.usage_column", "Individuals using the Internet (% of population)")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.user_agent", "inetdash/1.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 20)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("view.zoom_scale", 4)
	v.SetDefault("view.cache_entries", 256)
	v.SetDefault("view.cache_ttl_secs", 0)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "inetdash.db")
	v.SetDefault("store.max_conns", 0)
	v.SetDefault("store.min_conns", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes are
// "serve", "snapshot" and "load"; every mode needs the data settings.
func (c *Config) Validate(mode string) error {
	var problems []string

	if strings.TrimSpace(c.Data.UsageSource) == "" {
		problems = append(problems, "data.usage_source is required")
	}
	if strings.TrimSpace(c.Data.GeometrySource) == "" {
		problems = append(problems, "data.geometry_source is required")
	}
	if c.Fetch.TimeoutSecs < 0 {
		problems = append(problems, "fetch.timeout_secs must not be negative")
	}
	if c.Fetch.MaxRetries < 0 {
		problems = append(problems, "fetch.max_retries must not be negative")
	}
	if c.View.ZoomScale < 0 {
		problems = append(problems, "view.zoom_scale must not be negative")
	}
	if c.View.CacheTTLSecs < 0 {
		problems = append(problems, "view.cache_ttl_secs must not be negative")
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			problems = append(problems, "server.rate_limit must not be negative")
		}
		if c.Server.RateLimit > 0 && c.Server.RateBurst <= 0 {
			problems = append(problems, "server.rate_burst must be positive when server.rate_limit is set")
		}
	case "snapshot":
		if strings.TrimSpace(c.Store.DatabaseURL) == "" {
			problems = append(problems, "store.database_url is required")
		}
		switch strings.ToLower(c.Store.Driver) {
		case "sqlite", "sqlite3", "postgres", "postgresql", "pgx":
		default:
			problems = append(problems, fmt.Sprintf("store.driver %q is not supported (want sqlite or postgres)", c.Store.Driver))
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
