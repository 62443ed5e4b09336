package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location, relative to the working
// directory of the service binary.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                string   `yaml:"port"`
	LogLevel            string   `yaml:"logLevel"`
	UpstreamBaseURL     string   `yaml:"upstreamBaseURL"`
	UpstreamModel       string   `yaml:"upstreamModel"`
	UpstreamAPIKey      string   `yaml:"-"`
	RedisAddr           string   `yaml:"redisAddr"`
	RedisPassword       string   `yaml:"redisPassword"`
	ChatRateLimitPerMin int      `yaml:"chatRateLimitPerMinute"`
	TrustedProxyCIDRs   []string `yaml:"trustedProxyCidrs"`
}

// Load reads config from path (defaults to config.yaml). The upstream API
// key is environment-only so it never lands in a config file.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.UpstreamAPIKey = os.Getenv("PERPLEXITY_API_KEY")
	if v := os.Getenv("CHAT_UPSTREAM_BASE_URL"); v != "" {
		cfg.UpstreamBaseURL = v
	}
	if v := os.Getenv("CHAT_UPSTREAM_MODEL"); v != "" {
		cfg.UpstreamModel = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("CHAT_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ChatRateLimitPerMin = n
		}
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if cfg.UpstreamBaseURL == "" {
		return errors.New("config: upstreamBaseURL is required (set in config.yaml)")
	}
	if cfg.UpstreamModel == "" {
		return errors.New("config: upstreamModel is required (set in config.yaml)")
	}
	if cfg.ChatRateLimitPerMin < 0 {
		return errors.New("config: chatRateLimitPerMinute must be >= 0")
	}
	if cfg.ChatRateLimitPerMin > 0 && cfg.RedisAddr == "" {
		return errors.New("config: redisAddr is required when rate limiting is enabled")
	}
	return nil
}
