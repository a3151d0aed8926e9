package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	// ColourInfo is the embed colour for informational replies.
	ColourInfo = 0x09d03a
	// ColourError is the embed colour for failures shown to users.
	ColourError = 0xd31414

	// MaxPrefixLength bounds a guild prefix override.
	MaxPrefixLength = 6
)

// Config holds the environment driven configuration for the bot.
type Config struct {
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"cosmic-divers-bot"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	Debug           bool          `env:"BOT_DEBUG" envDefault:"false"`
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8090"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"console"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	BotToken       string `env:"BOT_TOKEN,notEmpty"`
	DefaultPrefix  string `env:"BOT_PREFIX" envDefault:"~"`
	CrashWebhookID string `env:"CRASH_WEBHOOK_ID"`

	DiscordHTTPTimeout time.Duration `env:"DISCORD_HTTP_TIMEOUT" envDefault:"20s"`

	ThumbnailURL string `env:"THUMBNAIL_URL"`
	GithubURL    string `env:"GITHUB_URL" envDefault:"https://github.com/quanta-kt/CosmicDiversBot"`
	CreatorName  string `env:"CREATOR_NAME" envDefault:"अभि#8608"`

	DatabaseURL    string        `env:"DATABASE_URL,notEmpty"`
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"2"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"5"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	PrefixCacheType     string `env:"PREFIX_CACHE_TYPE" envDefault:"memory"`
	PrefixCacheRedisURL string `env:"PREFIX_CACHE_REDIS_URL"`
	PrefixCacheMaxSize  int    `env:"PREFIX_CACHE_MAX_SIZE" envDefault:"10000"`

	WikipediaSearchURL     string        `env:"WIKIPEDIA_SEARCH_URL" envDefault:"https://api.wikimedia.org/core/v1/wikipedia/en/search/title"`
	WikipediaAPIURL        string        `env:"WIKIPEDIA_API_URL" envDefault:"https://en.wikipedia.org/w/api.php"`
	WikipediaHTTPTimeout   time.Duration `env:"WIKIPEDIA_HTTP_TIMEOUT" envDefault:"15s"`
	WikipediaCBMaxFailures uint32        `env:"WIKIPEDIA_CB_MAX_FAILURES" envDefault:"5"`
	WikipediaCBOpenTimeout time.Duration `env:"WIKIPEDIA_CB_OPEN_TIMEOUT" envDefault:"30s"`

	PaginationTimeout time.Duration `env:"PAGINATION_TIMEOUT" envDefault:"180s"`
	PeriodicTablePath string        `env:"PERIODIC_TABLE_PATH" envDefault:"data/periodic_table.json"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.DefaultPrefix = strings.TrimSpace(cfg.DefaultPrefix)
	if cfg.DefaultPrefix == "" {
		cfg.DefaultPrefix = "~"
	}
	if len([]rune(cfg.DefaultPrefix)) > MaxPrefixLength {
		return nil, fmt.Errorf("BOT_PREFIX can't exceed %d characters", MaxPrefixLength)
	}

	switch cfg.PrefixCacheType {
	case "memory", "noop":
	case "redis":
		if strings.TrimSpace(cfg.PrefixCacheRedisURL) == "" {
			return nil, fmt.Errorf("PREFIX_CACHE_REDIS_URL is required when PREFIX_CACHE_TYPE is redis")
		}
	default:
		return nil, fmt.Errorf("unknown PREFIX_CACHE_TYPE %q", cfg.PrefixCacheType)
	}

	if cfg.PaginationTimeout <= 0 {
		cfg.PaginationTimeout = 180 * time.Second
	}

	return cfg, nil
}

// Addr returns the ops HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// StorageNamespace selects the schema holding persisted guild settings.
func (c *Config) StorageNamespace() string {
	if c.Debug {
		return "debug"
	}
	return "production"
}
