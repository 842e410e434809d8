package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                   string   `yaml:"port"`
	LogLevel               string   `yaml:"logLevel"`
	DatabaseURL            string   `yaml:"databaseURL"`
	GatewayBaseURL         string   `yaml:"gatewayBaseURL"`
	GatewayAPIKey          string   `yaml:"gatewayAPIKey"`
	Model                  string   `yaml:"model"`
	RedisAddr              string   `yaml:"redisAddr"`
	RedisPassword          string   `yaml:"redisPassword"`
	ChatRateLimitPerMinute int      `yaml:"chatRateLimitPerMinute"`
	AMQPURL                string   `yaml:"amqpURL"`
	NotifyExchange         string   `yaml:"notifyExchange"`
	AdminTokenSecret       string   `yaml:"adminTokenSecret"`
	TrustedProxyCIDRs      []string `yaml:"trustedProxyCidrs"`
}

// Load reads config from path (defaults to config.yaml).
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
	// Override with environment variables
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REVEN_GATEWAY_BASE_URL"); v != "" {
		cfg.GatewayBaseURL = v
	}
	if v := os.Getenv("REVEN_GATEWAY_API_KEY"); v != "" {
		cfg.GatewayAPIKey = v
	}
	if v := os.Getenv("REVEN_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("REVEN_CHAT_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.ChatRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("AMQP_URL"); v != "" {
		cfg.AMQPURL = v
	}
	if v := os.Getenv("REVEN_NOTIFY_EXCHANGE"); v != "" {
		cfg.NotifyExchange = strings.TrimSpace(v)
	}
	if v := os.Getenv("REVEN_ADMIN_TOKEN_SECRET"); v != "" {
		cfg.AdminTokenSecret = v
	}
	if v := os.Getenv("REVEN_TRUSTED_PROXY_CIDRS"); v != "" {
		cfg.TrustedProxyCIDRs = splitCSV(v)
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
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	if cfg.GatewayBaseURL == "" {
		return errors.New("config: gatewayBaseURL is required (set in config.yaml)")
	}
	if cfg.GatewayAPIKey == "" {
		return errors.New("config: gatewayAPIKey is required (set in config.yaml or REVEN_GATEWAY_API_KEY)")
	}
	if cfg.Model == "" {
		return errors.New("config: model is required (set in config.yaml)")
	}
	if cfg.AdminTokenSecret == "" {
		return errors.New("config: adminTokenSecret is required (set in config.yaml or REVEN_ADMIN_TOKEN_SECRET)")
	}
	return nil
}

func splitCSV(in string) []string {
	parts := strings.Split(in, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			res = append(res, p)
		}
	}
	return res
}
