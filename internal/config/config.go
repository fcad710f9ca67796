// Package config loads settings for the geoproj CLI and server from
// defaults, an optional geoproj.yaml and GEOPROJ_* environment variables.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Server  ServerConfig  `mapstructure:"server"`
	Preview PreviewConfig `mapstructure:"preview"`
	Workers int           `mapstructure:"workers"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// MaxPoints caps the number of points in one request.
	MaxPoints int `mapstructure:"max_points"`
}

type PreviewConfig struct {
	Width   int    `mapstructure:"width"`
	Height  int    `mapstructure:"height"`
	Format  string `mapstructure:"format"`
	Quality int    `mapstructure:"quality"`
}

// New returns a viper instance with defaults, the config file search path
// and environment binding set up. Callers may bind flags to it before
// calling Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.max_points", 100000)
	v.SetDefault("preview.width", 512)
	v.SetDefault("preview.height", 512)
	v.SetDefault("preview.format", "png")
	v.SetDefault("preview.quality", 85)
	v.SetDefault("workers", runtime.NumCPU())

	v.SetConfigName("geoproj")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/geoproj")

	// GEOPROJ_SERVER_ADDR → server.addr
	v.SetEnvPrefix("GEOPROJ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file (file, when set, overrides the
// search path) and returns the validated configuration.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []string

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be json or text, got %q", c.Log.Format))
	}
	if c.Server.Addr == "" {
		errs = append(errs, "server.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.MaxPoints <= 0 {
		errs = append(errs, "server.max_points must be positive")
	}
	if c.Preview.Width <= 0 || c.Preview.Height <= 0 {
		errs = append(errs, fmt.Sprintf("preview size must be positive, got %dx%d", c.Preview.Width, c.Preview.Height))
	}
	switch strings.ToLower(c.Preview.Format) {
	case "png", "jpeg", "jpg", "webp":
	default:
		errs = append(errs, fmt.Sprintf("preview.format must be png, jpeg or webp, got %q", c.Preview.Format))
	}
	if c.Preview.Quality < 1 || c.Preview.Quality > 100 {
		errs = append(errs, fmt.Sprintf("preview.quality must be 1-100, got %d", c.Preview.Quality))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Sprintf("workers must be at least 1, got %d", c.Workers))
	}

	if len(errs) > 0 {
		return errors.Newf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
