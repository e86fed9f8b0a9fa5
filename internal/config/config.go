// Package config loads page-audit settings from config.yaml, .env, and
// PAGEAUDIT_* environment variables, and installs the global logger.
package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Audit     AuditConfig     `yaml:"audit" mapstructure:"audit"`
	Scrape    ScrapeConfig    `yaml:"scrape" mapstructure:"scrape"`
	Highlight HighlightConfig `yaml:"highlight" mapstructure:"highlight"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// AuditConfig holds default reference values and extraction limits.
type AuditConfig struct {
	ExpectedPhone  string `yaml:"expected_phone" mapstructure:"expected_phone"`
	BusinessName   string `yaml:"business_name" mapstructure:"business_name"`
	Address        string `yaml:"address" mapstructure:"address"`
	TextMatchLimit int    `yaml:"text_match_limit" mapstructure:"text_match_limit"`
	MinDigits      int    `yaml:"min_digits" mapstructure:"min_digits"`
}

// ScrapeConfig configures page fetching.
type ScrapeConfig struct {
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent    string  `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64   `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxRetries   int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec   float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// HighlightConfig configures the phone highlight marker.
type HighlightConfig struct {
	Outline       string `yaml:"outline" mapstructure:"outline"`
	OutlineOffset string `yaml:"outline_offset" mapstructure:"outline_offset"`
	Attribute     string `yaml:"attribute" mapstructure:"attribute"`
}

// StoreConfig selects the run history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PAGEAUDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key needs one so AutomaticEnv can see it on Unmarshal.
	v.SetDefault("audit.expected_phone", "")
	v.SetDefault("audit.business_name", "")
	v.SetDefault("audit.address", "")
	v.SetDefault("audit.text_match_limit", 6)
	v.SetDefault("audit.min_digits", 10)
	v.SetDefault("scrape.timeout_secs", 15)
	v.SetDefault("scrape.user_agent", "Mozilla/5.0 (compatible; PageAudit/1.0)")
	v.SetDefault("scrape.max_body_bytes", 2<<20)
	v.SetDefault("scrape.max_retries", 3)
	v.SetDefault("scrape.rate_per_sec", 5)
	v.SetDefault("highlight.outline", "3px solid #ffcc00")
	v.SetDefault("highlight.outline_offset", "2px")
	v.SetDefault("highlight.attribute", "data-phone-highlight")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "page-audit.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("batch.max_concurrent", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
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

// Validate checks settings that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	var problems []string
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, "store.driver must be sqlite or postgres, got "+quote(c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}
	if c.Audit.TextMatchLimit <= 0 {
		problems = append(problems, "audit.text_match_limit must be positive")
	}
	if c.Audit.MinDigits < 7 {
		problems = append(problems, "audit.min_digits must be at least 7")
	}
	if c.Scrape.TimeoutSecs <= 0 {
		problems = append(problems, "scrape.timeout_secs must be positive")
	}
	if c.Scrape.MaxBodyBytes <= 0 {
		problems = append(problems, "scrape.max_body_bytes must be positive")
	}
	if c.Scrape.MaxRetries <= 0 {
		problems = append(problems, "scrape.max_retries must be positive")
	}
	if c.Scrape.RatePerSec <= 0 {
		problems = append(problems, "scrape.rate_per_sec must be positive")
	}
	if c.Batch.MaxConcurrent <= 0 {
		problems = append(problems, "batch.max_concurrent must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, "server.port out of range")
	}
	if len(problems) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

func quote(s string) string { return `"` + s + `"` }

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
