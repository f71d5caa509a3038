package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for the dashboard server
type Config struct {
	Port             string        `yaml:"port"`
	ModelPath        string        `yaml:"model_path"`
	FeatureNamesPath string        `yaml:"feature_names_path"`
	EncodingMode     string        `yaml:"encoding_mode"`
	SessionTTL       time.Duration `yaml:"session_ttl"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	LogLevel         string        `yaml:"log_level"`
	LogFormat        string        `yaml:"log_format"`
	GinMode          string        `yaml:"gin_mode"`
	AllowedOrigins   []string      `yaml:"allowed_origins"`
	RateLimitPerMin  int           `yaml:"rate_limit_per_min"`
	CSPReportURI     string        `yaml:"csp_report_uri"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Port:             "8080",
		ModelPath:        "models/readmission_model.json",
		FeatureNamesPath: "models/feature_names.json",
		EncodingMode:     "lenient",
		SessionTTL:       30 * time.Minute,
		RequestTimeout:   10 * time.Second,
		LogLevel:         "info",
		LogFormat:        "json",
		GinMode:          "release",
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		RateLimitPerMin:  60,
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables (a local .env file is honoured).
// Environment variables take precedence over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.ModelPath = getEnvOrDefault("MODEL_PATH", cfg.ModelPath)
	cfg.FeatureNamesPath = getEnvOrDefault("FEATURE_NAMES_PATH", cfg.FeatureNamesPath)
	cfg.EncodingMode = strings.ToLower(getEnvOrDefault("ENCODING_MODE", cfg.EncodingMode))
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.GinMode = getEnvOrDefault("GIN_MODE", cfg.GinMode)
	cfg.CSPReportURI = getEnvOrDefault("CSP_REPORT_URI", cfg.CSPReportURI)

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}

	var err error
	if cfg.SessionTTL, err = getDurationOrDefault("SESSION_TTL", cfg.SessionTTL); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getDurationOrDefault("REQUEST_TIMEOUT", cfg.RequestTimeout); err != nil {
		return nil, err
	}

	if v := os.Getenv("RATE_LIMIT_PER_MIN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MIN %q: %w", v, err)
		}
		cfg.RateLimitPerMin = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	switch c.EncodingMode {
	case "lenient", "strict":
	default:
		return fmt.Errorf("invalid encoding mode %q (want lenient or strict)", c.EncodingMode)
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive, got %s", c.SessionTTL)
	}

	if c.RateLimitPerMin <= 0 {
		return fmt.Errorf("rate limit must be positive, got %d", c.RateLimitPerMin)
	}

	if c.ModelPath == "" || c.FeatureNamesPath == "" {
		return fmt.Errorf("model and feature name paths are required")
	}

	return nil
}

// mergeFile overlays values present in a YAML config file
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
