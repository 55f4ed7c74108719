// Package config loads application settings from defaults, an optional
// config.yaml, a .env file and KITCHEN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// KITCHEN_SERVER_ADDR for server.addr.
const EnvPrefix = "KITCHEN"

// Config holds all application configurations.
type Config struct {
	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`
	DB struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"db"`
	Uploads struct {
		Dir       string `mapstructure:"dir"`
		URLPrefix string `mapstructure:"url_prefix"`
	} `mapstructure:"uploads"`
	Static struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"static"`
	Session struct {
		Secret string        `mapstructure:"secret"`
		TTL    time.Duration `mapstructure:"ttl"`
		Cookie string        `mapstructure:"cookie"`
	} `mapstructure:"session"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	App struct {
		Title  string `mapstructure:"title"`
		Locale string `mapstructure:"locale"`
	} `mapstructure:"app"`
	Auth struct {
		DefaultPassword string `mapstructure:"default_password"`
		BcryptCost      int    `mapstructure:"bcrypt_cost"`
	} `mapstructure:"auth"`
	Audit struct {
		CascadeItems bool `mapstructure:"cascade_items"`
	} `mapstructure:"audit"`
	Seed struct {
		Users []string `mapstructure:"users"`
	} `mapstructure:"seed"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("db.path", "./data/kitchen.db")
	v.SetDefault("uploads.dir", "./static/uploads")
	v.SetDefault("uploads.url_prefix", "/static/uploads/")
	v.SetDefault("static.dir", "./static")
	v.SetDefault("session.secret", "")
	v.SetDefault("session.ttl", 30*24*time.Hour)
	v.SetDefault("session.cookie", "session")
	v.SetDefault("log.level", "info")
	v.SetDefault("app.title", "Home Kitchen")
	v.SetDefault("app.locale", "en")
	v.SetDefault("auth.default_password", "666")
	v.SetDefault("auth.bcrypt_cost", 0)
	v.SetDefault("audit.cascade_items", false)
	v.SetDefault("seed.users", []string{"哥哥", "姐姐", "宝宝"})
}

// Load reads configuration using the working directory's .env and
// ./config/config.yaml or ./config.yaml.
func Load() (*Config, error) {
	return LoadFrom(".env", "./config", ".")
}

// LoadFrom is Load with an explicit .env file and config search paths.
// Missing files are not an error.
func LoadFrom(envFile string, configPaths ...string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		slog.Debug("Config file not found, using defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DB.Path == "" {
		return errors.New("db.path must be set")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive, got %s", c.Session.TTL)
	}
	if c.Auth.DefaultPassword == "" {
		return errors.New("auth.default_password must be set")
	}
	if c.Session.Secret == "" {
		// Sessions will not survive a restart.
		c.Session.Secret = uuid.NewString()
		slog.Warn("session.secret not set, using a random secret")
	}
	return nil
}
