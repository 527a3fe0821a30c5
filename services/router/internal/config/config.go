package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                        string   `yaml:"port"`
	LogLevel                    string   `yaml:"logLevel"`
	StoreDriver                 string   `yaml:"storeDriver"`
	TableName                   string   `yaml:"tableName"`
	RedisAddr                   string   `yaml:"redisAddr"`
	RedisPassword               string   `yaml:"redisPassword"`
	DatabaseURL                 string   `yaml:"databaseURL"`
	GenerationProvider          string   `yaml:"generationProvider"`
	GenerationBaseURL           string   `yaml:"generationBaseURL"`
	GenerationAPIKey            string   `yaml:"generationAPIKey"`
	GenerationModel             string   `yaml:"generationModel"`
	TranslateRateLimitPerMinute int      `yaml:"translateRateLimitPerMinute"`
	TrustedProxyCIDRs           []string `yaml:"trustedProxyCidrs"`
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
// A missing file is not an error so env-only deployments work.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{
		LogLevel:           "info",
		StoreDriver:        "redis",
		GenerationProvider: "gemini",
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

	if v := os.Getenv("PORT"); v != "" {
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
	if v := os.Getenv("GENERATION_PROVIDER"); v != "" {
		cfg.GenerationProvider = v
	}
	if v := os.Getenv("GENERATION_BASE_URL"); v != "" {
		cfg.GenerationBaseURL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GenerationAPIKey = v
	}
	if v := os.Getenv("GENERATION_API_KEY"); v != "" {
		cfg.GenerationAPIKey = v
	}
	if v := os.Getenv("GENERATION_MODEL"); v != "" {
		cfg.GenerationModel = v
	}
	if v := os.Getenv("ROUTER_TRANSLATE_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.TranslateRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("ROUTER_TRUSTED_PROXY_CIDRS"); v != "" {
		cfg.TrustedProxyCIDRs = splitCSV(v)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.GenerationProvider = strings.ToLower(strings.TrimSpace(cfg.GenerationProvider))
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("config: port is required (set in config.yaml or PORT)")
	}
	switch cfg.StoreDriver {
	case "redis":
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return errors.New("config: redisAddr is required for the redis store (set in config.yaml or REDIS_ADDR)")
		}
		if strings.TrimSpace(cfg.TableName) == "" {
			return errors.New("config: tableName is required (set in config.yaml or TABLE_NAME)")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return errors.New("config: databaseURL is required for the postgres store (set in config.yaml or DATABASE_URL)")
		}
	case "memory":
	default:
		return fmt.Errorf("config: unknown storeDriver %q (redis, postgres, memory)", cfg.StoreDriver)
	}
	switch cfg.GenerationProvider {
	case "gemini":
		if strings.TrimSpace(cfg.GenerationAPIKey) == "" {
			return errors.New("config: generationAPIKey is required for gemini (set in config.yaml or GEMINI_API_KEY)")
		}
	case "ollama", "openai":
	default:
		return fmt.Errorf("config: unknown generationProvider %q (gemini, ollama, openai)", cfg.GenerationProvider)
	}
	if strings.TrimSpace(cfg.GenerationModel) == "" {
		return errors.New("config: generationModel is required (set in config.yaml or GENERATION_MODEL)")
	}
	if cfg.TranslateRateLimitPerMinute < 0 {
		return errors.New("config: translateRateLimitPerMinute must be >= 0")
	}
	if cfg.TranslateRateLimitPerMinute > 0 && strings.TrimSpace(cfg.RedisAddr) == "" {
		return errors.New("config: redisAddr is required when translateRateLimitPerMinute is set")
	}
	return nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
