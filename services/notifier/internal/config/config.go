package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath       = "config.yaml"
	defaultJobTimeoutSecond = 60
	defaultNotifyTimeoutSec = 10
)

// FileConfig represents configuration loaded from YAML.
//
// TableName and SlackWebhookURL may be empty: the job then logs and skips
// each run instead of refusing to start.
type FileConfig struct {
	Port                 string `yaml:"port"`
	LogLevel             string `yaml:"logLevel"`
	StoreDriver          string `yaml:"storeDriver"`
	TableName            string `yaml:"tableName"`
	RedisAddr            string `yaml:"redisAddr"`
	RedisPassword        string `yaml:"redisPassword"`
	DatabaseURL          string `yaml:"databaseURL"`
	SlackWebhookURL      string `yaml:"slackWebhookURL"`
	Schedule             string `yaml:"schedule"`
	Timezone             string `yaml:"timezone"`
	JobTimeoutSeconds    int    `yaml:"jobTimeoutSeconds"`
	NotifyTimeoutSeconds int    `yaml:"notifyTimeoutSeconds"`
}

// Path returns the config file location from CONFIG_PATH, defaulting to
// config.yaml in the working directory.
func Path() string {
	if v := strings.TrimSpace(os.Getenv("CONFIG_PATH")); v != "" {
		return v
	}
	return defaultConfigPath
}

// Load reads config from path, applies environment overrides and validates.
// A missing file is allowed.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{
		LogLevel:             "info",
		StoreDriver:          "redis",
		JobTimeoutSeconds:    defaultJobTimeoutSecond,
		NotifyTimeoutSeconds: defaultNotifyTimeoutSec,
	}
	if path == "" {
		path = defaultConfigPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if v := os.Getenv("NOTIFIER_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		cfg.StoreDriver = v
	}
	if v := os.Getenv("TABLE_NAME"); v != "" {
		cfg.TableName = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.SlackWebhookURL = v
	}
	if v := os.Getenv("NOTIFIER_SCHEDULE"); v != "" {
		cfg.Schedule = v
	}
	if v := os.Getenv("NOTIFIER_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("NOTIFIER_JOB_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.JobTimeoutSeconds = n
		}
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.Schedule = strings.TrimSpace(cfg.Schedule)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	switch cfg.StoreDriver {
	case "redis", "postgres", "memory":
	default:
		return fmt.Errorf("config: unknown storeDriver %q (redis, postgres, memory)", cfg.StoreDriver)
	}
	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			return fmt.Errorf("config: invalid schedule %q: %w", cfg.Schedule, err)
		}
	}
	if _, err := cfg.Location(); err != nil {
		return fmt.Errorf("config: invalid timezone %q: %w", cfg.Timezone, err)
	}
	if cfg.JobTimeoutSeconds <= 0 {
		return errors.New("config: jobTimeoutSeconds must be > 0")
	}
	if cfg.NotifyTimeoutSeconds < 0 {
		return errors.New("config: notifyTimeoutSeconds must be >= 0")
	}
	return nil
}

// Location resolves Timezone, defaulting to the host's local zone.
func (c FileConfig) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" {
		return time.Local, nil
	}
	return time.LoadLocation(tz)
}

// JobTimeout is the per-run deadline.
func (c FileConfig) JobTimeout() time.Duration {
	return time.Duration(c.JobTimeoutSeconds) * time.Second
}

// NotifyTimeout is the webhook HTTP client timeout.
func (c FileConfig) NotifyTimeout() time.Duration {
	return time.Duration(c.NotifyTimeoutSeconds) * time.Second
}
