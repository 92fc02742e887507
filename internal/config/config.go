package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CONSOLE_REMOTE_BASE_URL
const EnvPrefix = "CONSOLE"

// Config is the console configuration
type Config struct {
	App struct {
		Env string `mapstructure:"env"`
	} `mapstructure:"app"`
	Remote struct {
		BaseURL string        `mapstructure:"base_url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"remote"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	View struct {
		Locale   string `mapstructure:"locale"`
		PageSize int    `mapstructure:"page_size"`
	} `mapstructure:"view"`
	Workflow struct {
		RefetchAfterMutation bool `mapstructure:"refetch_after_mutation"`
	} `mapstructure:"workflow"`
	Session struct {
		Store    string        `mapstructure:"store"` // memory or redis
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		DB       int           `mapstructure:"db"`
		TTL      time.Duration `mapstructure:"ttl"`
	} `mapstructure:"session"`
	Events struct {
		Enabled bool     `mapstructure:"enabled"`
		Brokers []string `mapstructure:"brokers"`
		Topic   string   `mapstructure:"topic"`
	} `mapstructure:"events"`
	Metrics struct {
		Namespace string `mapstructure:"namespace"`
	} `mapstructure:"metrics"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("remote.base_url", "http://localhost:3000")
	v.SetDefault("remote.timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("view.locale", "en")
	v.SetDefault("view.page_size", 10)
	v.SetDefault("workflow.refetch_after_mutation", false)
	v.SetDefault("session.store", "memory")
	v.SetDefault("session.addr", "localhost:6379")
	v.SetDefault("session.password", "")
	v.SetDefault("session.db", 0)
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.brokers", []string{"localhost:9092"})
	v.SetDefault("events.topic", "console_mutations")
	v.SetDefault("metrics.namespace", "console")
}

// LoadConfig reads envPath (outside production), an optional config.yaml
// from configDir, then CONSOLE_ environment overrides. Missing files are
// not an error.
func LoadConfig(envPath, configDir string) (*Config, error) {
	if os.Getenv(EnvPrefix+"_APP_ENV") != "production" && envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envPath, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects settings the console cannot run with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Remote.BaseURL) == "" {
		return errors.New("config: remote.base_url is required")
	}
	if c.Remote.Timeout <= 0 {
		return errors.New("config: remote.timeout must be positive")
	}
	switch c.Session.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown session.store %q", c.Session.Store)
	}
	if c.Events.Enabled && len(c.Events.Brokers) == 0 {
		return errors.New("config: events.brokers is required when events are enabled")
	}
	return nil
}
