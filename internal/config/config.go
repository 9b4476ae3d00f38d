package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/newthinker/coinview/internal/core"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	CoinGecko CoinGeckoConfig `mapstructure:"coingecko"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Storage   StorageConfig   `mapstructure:"storage"`
	View      ViewConfig      `mapstructure:"view"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
	// RenderWait is how long a page request waits for the upstream fetch
	// before answering with the loading page.
	RenderWait time.Duration `mapstructure:"render_wait"`
	// TemplatesDir overrides the embedded templates when set.
	TemplatesDir string `mapstructure:"templates_dir"`
}

type CoinGeckoConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Timeout     time.Duration `mapstructure:"timeout"`
	LeanRequest bool          `mapstructure:"lean_request"`
}

type CacheConfig struct {
	TTL     time.Duration `mapstructure:"ttl"`
	MaxSize int           `mapstructure:"max_size"`
}

type StorageConfig struct {
	Archive ArchiveConfig `mapstructure:"archive"`
}

type ArchiveConfig struct {
	Type string   `mapstructure:"type"` // "none", "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// ViewConfig controls how coin pages are formatted.
type ViewConfig struct {
	Currency       string   `mapstructure:"currency"`
	CurrencySymbol string   `mapstructure:"currency_symbol"`
	Locale         string   `mapstructure:"locale"`
	Language       string   `mapstructure:"language"` // description language
	Featured       []string `mapstructure:"featured"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from file on top of Defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v, Defaults())

	// Support environment variable overrides
	v.SetEnvPrefix("COINVIEW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.render_wait", d.Server.RenderWait)
	v.SetDefault("coingecko.base_url", d.CoinGecko.BaseURL)
	v.SetDefault("coingecko.timeout", d.CoinGecko.Timeout)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.max_size", d.Cache.MaxSize)
	v.SetDefault("storage.archive.type", d.Storage.Archive.Type)
	v.SetDefault("view.currency", d.View.Currency)
	v.SetDefault("view.currency_symbol", d.View.CurrencySymbol)
	v.SetDefault("view.locale", d.View.Locale)
	v.SetDefault("view.language", d.View.Language)
	v.SetDefault("view.featured", d.View.Featured)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
	v.SetDefault("log.level", d.Log.Level)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:       "0.0.0.0",
			Port:       8080,
			RenderWait: 5 * time.Second,
		},
		CoinGecko: CoinGeckoConfig{
			BaseURL: "https://api.coingecko.com/api/v3",
			Timeout: 10 * time.Second,
		},
		// Caching is opt-in: with TTL 0 every mount fetches.
		Cache: CacheConfig{
			TTL:     0,
			MaxSize: 500,
		},
		Storage: StorageConfig{
			Archive: ArchiveConfig{
				Type: "none",
			},
		},
		View: ViewConfig{
			Currency:       "eur",
			CurrencySymbol: "€",
			Locale:         "en",
			Language:       "en",
			Featured:       []string{"bitcoin", "ethereum", "solana", "cardano", "dogecoin"},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.RenderWait < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("render_wait cannot be negative, got %s", c.Server.RenderWait))
	}

	if c.CoinGecko.BaseURL == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("coingecko base_url required"))
	}
	if c.CoinGecko.Timeout < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("coingecko timeout cannot be negative, got %s", c.CoinGecko.Timeout))
	}

	if c.Cache.TTL < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("cache ttl cannot be negative, got %s", c.Cache.TTL))
	}

	switch c.Storage.Archive.Type {
	case "", "none":
	case "localfs":
		if c.Storage.Archive.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("archive path required when type is localfs"))
		}
	case "s3":
		if c.Storage.Archive.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("s3 bucket required when archive type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown archive type %q", c.Storage.Archive.Type))
	}

	if c.View.Currency == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("view currency required"))
	}
	if _, err := language.Parse(c.View.Locale); err != nil {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("view locale %q: %w", c.View.Locale, err))
	}
	for _, id := range c.View.Featured {
		if err := core.ValidateCoinID(id); err != nil {
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("featured coin: %w", err))
		}
	}

	return nil
}
