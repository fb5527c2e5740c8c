// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type PortalConfig struct {
	Port int `yaml:"port"` // splash-page API + payment callbacks + /metrics
}

type AdminConfig struct {
	Username   string        `yaml:"username"`
	Password   string        `yaml:"password"`
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // catalog cache TTL
}

type MpesaConfig struct {
	ConsumerKey    string `yaml:"consumer_key"`
	ConsumerSecret string `yaml:"consumer_secret"`
	Shortcode      string `yaml:"shortcode"`
	Passkey        string `yaml:"passkey"`
	CallbackURL    string `yaml:"callback_url"`
	Sandbox        bool   `yaml:"sandbox"`
}

type PaymentConfig struct {
	Mpesa      MpesaConfig `yaml:"mpesa"`
	Currency   string      `yaml:"currency"`    // e.g. "KES"
	AllowDummy bool        `yaml:"allow_dummy"` // enable the simulated provider
}

type ControllerConfig struct {
	BaseGrantURL      string        `yaml:"base_grant_url"`
	APIKey            string        `yaml:"api_key"`
	NetworkID         string        `yaml:"network_id"`
	Timeout           time.Duration `yaml:"timeout"`             // bound on the grant call
	MinSessionSeconds int           `yaml:"min_session_seconds"` // floor for near-expired vouchers
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Sender   string `yaml:"sender"`
}

type NotifyConfig struct {
	SMTP          SMTPConfig `yaml:"smtp"`
	TelegramToken string     `yaml:"telegram_token"` // ops alert bot, optional
	TelegramChat  int64      `yaml:"telegram_chat"`
	Workers       int        `yaml:"workers"` // async delivery pool size
}

type SchedulerConfig struct {
	ExpiryInterval time.Duration `yaml:"expiry_interval"`
}

type DemoConfig struct {
	Enabled         bool `yaml:"enabled"`
	DurationMinutes int  `yaml:"duration_minutes"`
	RateLimit       int  `yaml:"rate_limit"` // demo vouchers per window per e-mail
	RateWindowSecs  int  `yaml:"rate_window_secs"`
}

type Config struct {
	Log        LogConfig        `yaml:"log"`
	Portal     PortalConfig     `yaml:"portal"`
	Admin      AdminConfig      `yaml:"admin"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Payment    PaymentConfig    `yaml:"payment"`
	Controller ControllerConfig `yaml:"controller"`
	Notify     NotifyConfig     `yaml:"notify"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Demo       DemoConfig       `yaml:"demo"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Portal.Port == 0 {
		cfg.Portal.Port = 8080
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Payment.Currency == "" {
		cfg.Payment.Currency = "KES"
	}
	if cfg.Controller.Timeout <= 0 {
		cfg.Controller.Timeout = 15 * time.Second
	}
	if cfg.Controller.MinSessionSeconds <= 0 {
		cfg.Controller.MinSessionSeconds = 60
	}
	if cfg.Notify.Workers <= 0 {
		cfg.Notify.Workers = 4
	}
	if cfg.Scheduler.ExpiryInterval <= 0 {
		cfg.Scheduler.ExpiryInterval = time.Minute
	}
	if cfg.Demo.DurationMinutes <= 0 {
		cfg.Demo.DurationMinutes = 10
	}
	if cfg.Demo.RateLimit <= 0 {
		cfg.Demo.RateLimit = 3
	}
	if cfg.Demo.RateWindowSecs <= 0 {
		cfg.Demo.RateWindowSecs = 3600
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Controller.BaseGrantURL == "" {
		return nil, errors.New("controller.base_grant_url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
