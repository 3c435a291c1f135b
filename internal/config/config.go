package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	AI        AIConfig        `mapstructure:"ai"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Export    ExportConfig    `mapstructure:"export"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AIConfig describes the optional AI provider. It is read once at startup
// and handed by value to everything that needs it.
type AIConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	APIKeyEnv   string        `mapstructure:"api_key_env"`
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
}

type RateLimitConfig struct {
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

// CatalogConfig points at the database used for connectivity checks.
// An empty DSN means no catalog is configured.
type CatalogConfig struct {
	Dialect         string        `mapstructure:"dialect"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type ExportConfig struct {
	BackupDir string `mapstructure:"backup_dir"`
}

// Provider names accepted in ai.provider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
)

var defaultKeyEnv = map[string]string{
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
	ProviderGemini:    "GEMINI_API_KEY",
}

// ResolveAPIKey returns the explicit key, then the variable named by
// api_key_env, then the provider's conventional variable.
func (c AIConfig) ResolveAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	if c.APIKeyEnv != "" {
		if key := os.Getenv(c.APIKeyEnv); key != "" {
			return key
		}
	}
	if env, ok := defaultKeyEnv[c.Provider]; ok {
		return os.Getenv(env)
	}
	return ""
}

// Available reports whether an AI strategy can be built from this config.
func (c AIConfig) Available() bool {
	if !c.Enabled {
		return false
	}
	if c.Provider == ProviderMock {
		return true
	}
	return c.ResolveAPIKey() != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("ai.enabled", true)
	v.SetDefault("ai.provider", ProviderOpenAI)
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.api_key_env", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.timeout", "30s")
	v.SetDefault("ai.max_tokens", 2000)
	v.SetDefault("ai.temperature", 0.3)

	v.SetDefault("rate_limit.max_requests", 3)
	v.SetDefault("rate_limit.window", "60s")

	v.SetDefault("catalog.dialect", "")
	v.SetDefault("catalog.dsn", "")
	v.SetDefault("catalog.max_open_conns", 5)
	v.SetDefault("catalog.max_idle_conns", 2)
	v.SetDefault("catalog.conn_max_lifetime", "5m")

	v.SetDefault("export.backup_dir", "")
}

// LoadConfig loads configuration from config.yaml and environment variables.
// path, when non-empty, names the config file explicitly.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./deploy/")
		v.AddConfigPath("./")
		v.AddConfigPath("$HOME/.crossdb/")
		v.AddConfigPath("/etc/crossdb/")
	}

	// CROSSDB_AI_PROVIDER overrides ai.provider and so on
	v.SetEnvPrefix("CROSSDB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hooks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderMock:
	default:
		return fmt.Errorf("invalid ai.provider %q", c.AI.Provider)
	}
	if c.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("invalid rate_limit.max_requests %d: must be positive", c.RateLimit.MaxRequests)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("invalid rate_limit.window %s: must be positive", c.RateLimit.Window)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log.format %q", c.Log.Format)
	}
	return nil
}
