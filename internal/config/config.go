package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default configuration file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                     string   `yaml:"port"`
	LogLevel                 string   `yaml:"logLevel"`
	AppEnv                   string   `yaml:"appEnv"`
	DatabaseURL              string   `yaml:"databaseURL"`
	JWTSecret                string   `yaml:"jwtSecret"`
	SessionTTLMinutes        int      `yaml:"sessionTtlMinutes"`
	RateLimitWindowSeconds   int      `yaml:"rateLimitWindowSeconds"`
	DisableRateLimit         bool     `yaml:"disableRateLimit"`
	GoogleMapsAPIKey         string   `yaml:"googleMapsApiKey"`
	GoogleMapsBaseURL        string   `yaml:"googleMapsBaseUrl"`
	AllowedOrigins           []string `yaml:"allowedOrigins"`
	RedisAddr                string   `yaml:"redisAddr"`
	RedisPassword            string   `yaml:"redisPassword"`
	SignupRateLimitPerMinute int      `yaml:"signupRateLimitPerMinute"`
	LoginRateLimitPerMinute  int      `yaml:"loginRateLimitPerMinute"`
	TrustedProxyCIDRs        []string `yaml:"trustedProxyCidrs"`
}

// IsDev reports whether the process runs in a development environment, where
// the review submission throttle is switched off.
func (c FileConfig) IsDev() bool {
	switch strings.ToLower(strings.TrimSpace(c.AppEnv)) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{
		SessionTTLMinutes:      60,
		RateLimitWindowSeconds: 60,
	}
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
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.AppEnv = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("SESSION_TTL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SessionTTLMinutes = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitWindowSeconds = n
		}
	}
	if v := os.Getenv("DISABLE_RATE_LIMIT"); v != "" {
		if disabled, err := strconv.ParseBool(v); err == nil {
			cfg.DisableRateLimit = disabled
		}
	}
	if v := os.Getenv("GOOGLE_MAPS_API_KEY"); v != "" {
		cfg.GoogleMapsAPIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml or PORT)")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return errors.New("config: jwtSecret is required (set in config.yaml or JWT_SECRET)")
	}
	if cfg.SessionTTLMinutes <= 0 {
		return errors.New("config: sessionTtlMinutes must be > 0")
	}
	if cfg.RateLimitWindowSeconds <= 0 {
		return errors.New("config: rateLimitWindowSeconds must be > 0")
	}
	if cfg.SignupRateLimitPerMinute < 0 || cfg.LoginRateLimitPerMinute < 0 {
		return errors.New("config: per-minute rate limits must be >= 0")
	}
	return nil
}
