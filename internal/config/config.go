package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. POLLSIGHT_TELEGRAM_BOT_TOKEN.
const EnvPrefix = "POLLSIGHT"

// Config represents the complete application configuration
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
	Insights InsightsConfig `mapstructure:"insights"`
	Digest   DigestConfig   `mapstructure:"digest"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// StorageConfig selects the response store
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// InsightsConfig tunes insight generation
type InsightsConfig struct {
	GlobalMinResponses   int   `mapstructure:"global_min_responses"`
	PersonalMinResponses int   `mapstructure:"personal_min_responses"`
	MaxInsights          int   `mapstructure:"max_insights"`
	JitterSeed           int64 `mapstructure:"jitter_seed"` // 0 seeds from the clock
}

// DigestConfig holds periodic digest configuration
type DigestConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Interval     time.Duration `mapstructure:"interval"`
	TopK         int           `mapstructure:"top_k"`
	MinResponses int           `mapstructure:"min_responses"`
	Cooldown     time.Duration `mapstructure:"cooldown"`
	Concurrency  int           `mapstructure:"concurrency"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// CacheConfig holds local response cache configuration
type CacheConfig struct {
	FilePath string `mapstructure:"file_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables. An empty
// path skips the file and uses defaults plus environment.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Storage defaults
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.dsn", "./data/pollsight.db")

	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.cors_origins", []string{"*"})

	// Insight defaults
	v.SetDefault("insights.global_min_responses", 10)
	v.SetDefault("insights.personal_min_responses", 5)
	v.SetDefault("insights.max_insights", 3)
	v.SetDefault("insights.jitter_seed", 0)

	// Digest defaults
	v.SetDefault("digest.enabled", false)
	v.SetDefault("digest.interval", "6h")
	v.SetDefault("digest.top_k", 5)
	v.SetDefault("digest.min_responses", 10)
	v.SetDefault("digest.cooldown", "24h")
	v.SetDefault("digest.concurrency", 4)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "2s")

	// Cache defaults
	v.SetDefault("cache.file_path", "./data/responses.json")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Storage config
	switch c.Storage.Driver {
	case "sqlite":
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("storage.driver must be one of: sqlite, postgres")
	}

	// Validate Server config
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.read_timeout and server.write_timeout must be positive")
	}

	// Validate Insights config
	if c.Insights.GlobalMinResponses < 1 {
		return fmt.Errorf("insights.global_min_responses must be at least 1")
	}
	if c.Insights.PersonalMinResponses < 1 {
		return fmt.Errorf("insights.personal_min_responses must be at least 1")
	}
	if c.Insights.MaxInsights < 1 {
		return fmt.Errorf("insights.max_insights must be at least 1")
	}

	// Validate Digest config
	if c.Digest.Enabled {
		if c.Digest.Interval < 1*time.Minute {
			return fmt.Errorf("digest.interval must be at least 1 minute")
		}
		if c.Digest.TopK < 1 {
			return fmt.Errorf("digest.top_k must be at least 1")
		}
		if c.Digest.Cooldown < 0 {
			return fmt.Errorf("digest.cooldown must not be negative")
		}
	}
	if c.Digest.MinResponses < 0 {
		return fmt.Errorf("digest.min_responses must not be negative")
	}
	if c.Digest.Concurrency < 1 {
		return fmt.Errorf("digest.concurrency must be at least 1")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	if c.Telegram.MaxRetries < 1 {
		return fmt.Errorf("telegram.max_retries must be at least 1")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
