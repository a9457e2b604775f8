// Package config loads choreweek settings from defaults, an optional YAML
// file and CHOREWEEK_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix         = "CHOREWEEK_"
	maxConfigFileSize = 1 << 20
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Log       LogConfig       `koanf:"log"`
	Auth      AuthConfig      `koanf:"auth"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	S3        S3Config        `koanf:"s3"`
	Push      PushConfig      `koanf:"push"`
	Kafka     KafkaConfig     `koanf:"kafka"`
	App       AppConfig       `koanf:"app"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// AllowedOrigins restricts websocket origins. Empty allows any.
	AllowedOrigins []string `koanf:"allowed_origins"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

type LogConfig struct {
	Level      string `koanf:"level"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
}

type AuthConfig struct {
	// DefaultPIN seeds the admin PIN of a fresh household.
	DefaultPIN      string        `koanf:"default_pin"`
	MaxAttempts     int           `koanf:"max_attempts"`
	Lockout         time.Duration `koanf:"lockout"`
	LoginRateLimit  int           `koanf:"login_rate_limit"`
	LoginRateWindow time.Duration `koanf:"login_rate_window"`
}

type SchedulerConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`
	// Timezone is an IANA name. "Local" uses the host zone.
	Timezone string `koanf:"timezone"`
}

type S3Config struct {
	Endpoint   string `koanf:"endpoint"`
	Bucket     string `koanf:"bucket"`
	Region     string `koanf:"region"`
	AccessKey  string `koanf:"access_key"`
	SecretKey  string `koanf:"secret_key"`
	Prefix     string `koanf:"prefix"`
	Passphrase string `koanf:"passphrase"`
}

type PushConfig struct {
	Enabled         bool   `koanf:"enabled"`
	VAPIDPublicKey  string `koanf:"vapid_public_key"`
	VAPIDPrivateKey string `koanf:"vapid_private_key"`
	Subscriber      string `koanf:"subscriber"`
}

type KafkaConfig struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
}

type AppConfig struct {
	Name string `koanf:"name"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Database: DatabaseConfig{Path: "choreweek.db"},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Auth: AuthConfig{
			DefaultPIN:      "1234",
			MaxAttempts:     3,
			Lockout:         30 * time.Second,
			LoginRateLimit:  10,
			LoginRateWindow: time.Minute,
		},
		Scheduler: SchedulerConfig{
			Enabled:  true,
			Interval: time.Minute,
			Timezone: "Local",
		},
		S3:    S3Config{Region: "us-east-1", Prefix: "choreweek"},
		Push:  PushConfig{Subscriber: "mailto:admin@localhost"},
		Kafka: KafkaConfig{Topic: "choreweek.events"},
		App:   AppConfig{Name: "familia-tareas"},
	}
}

// Load reads path when it is not empty, then the environment. A missing
// file is an error; an empty path skips the file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat config file: %w", err)
		}
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// envKey maps CHOREWEEK_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	return section + "." + field
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if n := len([]rune(c.Auth.DefaultPIN)); n < 4 || n > 20 {
		errs = append(errs, errors.New("auth.default_pin must be 4 to 20 characters"))
	}
	if c.Scheduler.Interval <= 0 {
		errs = append(errs, errors.New("scheduler.interval must be positive"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("scheduler.timezone: %w", err))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka.topic is required when brokers are set"))
	}
	if c.Push.Enabled && c.Push.Subscriber == "" {
		errs = append(errs, errors.New("push.subscriber is required when push is enabled"))
	}
	return errors.Join(errs...)
}

// Location resolves the scheduler time zone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Scheduler.Timezone {
	case "", "Local":
		return time.Local, nil
	default:
		return time.LoadLocation(c.Scheduler.Timezone)
	}
}
