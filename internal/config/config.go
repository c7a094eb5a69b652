package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                      string   `yaml:"port"`
	DatabaseURL               string   `yaml:"databaseURL"`
	RedisAddr                 string   `yaml:"redisAddr"`
	RedisPassword             string   `yaml:"redisPassword"`
	JWTSecret                 string   `yaml:"jwtSecret"`
	JWTIssuer                 string   `yaml:"jwtIssuer"`
	JWTLeeway                 string   `yaml:"jwtLeeway"`
	AccessTTL                 string   `yaml:"accessTTL"`
	RefreshTTL                string   `yaml:"refreshTTL"`
	LogLevel                  string   `yaml:"logLevel"`
	CookieSecure              bool     `yaml:"cookieSecure"`
	AllowedOrigins            []string `yaml:"allowedOrigins"`
	TrustedProxies            []string `yaml:"trustedProxies"`
	AuthRateLimitPerMinute    int      `yaml:"authRateLimitPerMinute"`
	BookingRateLimitPerMinute int      `yaml:"bookingRateLimitPerMinute"`
}

// Load reads config from path (defaults to config.yaml), applies
// environment overrides, and validates the result.
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
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("JWT_ISSUER"); v != "" {
		cfg.JWTIssuer = v
	}
	if v := os.Getenv("JWT_LEEWAY"); v != "" {
		cfg.JWTLeeway = v
	}
	if v := os.Getenv("ACCESS_TTL"); v != "" {
		cfg.AccessTTL = v
	}
	if v := os.Getenv("REFRESH_TTL"); v != "" {
		cfg.RefreshTTL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("AUTH_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AuthRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("BOOKING_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.BookingRateLimitPerMinute = n
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
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set DATABASE_URL)")
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return errors.New("config: jwtSecret is required (set JWT_SECRET)")
	}
	if len(cfg.JWTSecret) < 32 {
		return errors.New("config: jwtSecret must be at least 32 bytes")
	}
	if cfg.AuthRateLimitPerMinute < 0 || cfg.BookingRateLimitPerMinute < 0 {
		return errors.New("config: rate limits must be >= 0")
	}
	return nil
}

// ParseTTL parses an optional duration string, returning 0 for empty input.
func ParseTTL(field, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	dur, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", field, err)
	}
	if dur < 0 {
		return 0, fmt.Errorf("invalid %s duration: must be positive", field)
	}
	return dur, nil
}
