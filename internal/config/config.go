package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Leo3030/roadmap-demo/internal/util"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Defaults used when neither the config file nor the environment provide a value.
const (
	DefaultConfigPath     = "config.yaml"
	DefaultDatabaseDSN    = "data/roadmap.db"
	DefaultPort           = 8080
	DefaultAPIVersion     = "2024-10"
	DefaultProdAPIBaseURL = "https://app.roadmap.space"
	DefaultDevAPIBaseURL  = "https://app.roadmap-dev.space"
	DefaultProdIframeURL  = "https://cdn.roadmap.space/widget/roadmap.js"
	DefaultDevIframeURL   = "https://cdn.roadmap-dev.space/widget/roadmap.js"
	DefaultLocale         = "en"
	SessionBackendDB      = "db"
	SessionBackendRedis   = "redis"
)

// AppConfig holds process-level options passed from the CLI.
type AppConfig struct {
	ConfigPath string
}

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Session  SessionConfig  `yaml:"session"`
	Shopify  ShopifyConfig  `yaml:"shopify"`
	Roadmap  RoadmapConfig  `yaml:"roadmap"`
	History  HistoryConfig  `yaml:"history"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port" validate:"min=1,max=65535"`
}

// Address returns the listen address.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig selects the SQL database (sqlite path or postgres DSN).
type DatabaseConfig struct {
	DSN string `yaml:"dsn" validate:"required"`
}

// RedisConfig configures the optional redis session backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"min=0"`
	URL      string `yaml:"url"`
}

// SessionConfig selects where offline Admin API sessions live.
type SessionConfig struct {
	Backend string `yaml:"backend" validate:"oneof=db redis"`
}

// ShopifyConfig holds the app credentials and Admin API version.
type ShopifyConfig struct {
	APIKey     string `yaml:"api_key"`
	APISecret  string `yaml:"api_secret"`
	APIVersion string `yaml:"api_version" validate:"required"`
}

// RoadmapConfig holds the roadmap widget defaults and the external service endpoints.
type RoadmapConfig struct {
	DefaultID      string        `yaml:"default_id"`
	ProdAPIBaseURL string        `yaml:"prod_api_base_url" validate:"required,url"`
	DevAPIBaseURL  string        `yaml:"dev_api_base_url" validate:"required,url"`
	ProdIframeURL  string        `yaml:"prod_iframe_url" validate:"required,url"`
	DevIframeURL   string        `yaml:"dev_iframe_url" validate:"required,url"`
	Locale         string        `yaml:"locale" validate:"oneof=en zh"`
	HTTPTimeout    time.Duration `yaml:"http_timeout" validate:"min=0"`
}

// HistoryConfig controls save-history retention.
type HistoryConfig struct {
	RetentionDays int `yaml:"retention_days" validate:"min=0"`
	Limit         int `yaml:"limit" validate:"min=1,max=500"`
}

// LoggingConfig controls logrus output and file rotation.
type LoggingConfig struct {
	Level      string `yaml:"level" validate:"oneof=trace debug info warn warning error"`
	Format     string `yaml:"format" validate:"oneof=text json"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"min=0"`
	MaxBackups int    `yaml:"max_backups" validate:"min=0"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"min=0"`
	Compress   bool   `yaml:"compress"`
}

// Default returns a configuration populated with defaults.
func Default() Config {
	return Config{
		Server:   ServerConfig{Port: DefaultPort},
		Database: DatabaseConfig{DSN: DefaultDatabaseDSN},
		Session:  SessionConfig{Backend: SessionBackendDB},
		Shopify:  ShopifyConfig{APIVersion: DefaultAPIVersion},
		Roadmap: RoadmapConfig{
			ProdAPIBaseURL: DefaultProdAPIBaseURL,
			DevAPIBaseURL:  DefaultDevAPIBaseURL,
			ProdIframeURL:  DefaultProdIframeURL,
			DevIframeURL:   DefaultDevIframeURL,
			Locale:         DefaultLocale,
		},
		History: HistoryConfig{RetentionDays: 90, Limit: 20},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
	}
}

// ResolveConfigPath returns the config path from the flag, ROADMAP_CONFIG or the default.
func ResolveConfigPath(path string) string {
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		return trimmed
	}
	if env := strings.TrimSpace(os.Getenv("ROADMAP_CONFIG")); env != "" {
		return env
	}
	return util.ResolveWritable(DefaultConfigPath)
}

// ConfigExists reports whether a config file exists at path.
func ConfigExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Load reads the YAML file at path (a missing file yields defaults), applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, errRead := os.ReadFile(path)
	switch {
	case errRead == nil:
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
		}
	case errors.Is(errRead, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("config: read %s: %w", path, errRead)
	}

	applyEnv(&cfg)
	cfg.Roadmap.Locale = normalizeLocale(cfg.Roadmap.Locale)
	cfg.Database.DSN = resolveDatabaseDSN(cfg.Database.DSN)
	if cfg.Logging.File != "" {
		cfg.Logging.File = util.ResolveWritable(cfg.Logging.File)
	}

	if errValidate := Validate(cfg); errValidate != nil {
		return Config{}, errValidate
	}
	return cfg, nil
}

// Validate checks struct-level constraints.
func Validate(cfg Config) error {
	if errStruct := validator.New().Struct(cfg); errStruct != nil {
		return fmt.Errorf("config: invalid: %w", errStruct)
	}
	return nil
}

// RequireShopifyCredentials reports an error when the app key or secret is missing.
func (c Config) RequireShopifyCredentials() error {
	if strings.TrimSpace(c.Shopify.APIKey) == "" {
		return errors.New("config: shopify.api_key is required")
	}
	if strings.TrimSpace(c.Shopify.APISecret) == "" {
		return errors.New("config: shopify.api_secret is required")
	}
	return nil
}

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *Config) {
	if v, ok := lookupEnv("ROADMAP_ID"); ok {
		cfg.Roadmap.DefaultID = v
	}
	if v, ok := lookupEnv("SHOPIFY_API_KEY"); ok {
		cfg.Shopify.APIKey = v
	}
	if v, ok := lookupEnv("SHOPIFY_API_SECRET"); ok {
		cfg.Shopify.APISecret = v
	}
	if v, ok := lookupEnv("SHOPIFY_API_VERSION"); ok {
		cfg.Shopify.APIVersion = v
	}
	if v, ok := lookupEnv("DATABASE_URL"); ok {
		cfg.Database.DSN = v
	}
	if v, ok := lookupEnv("REDIS_URL"); ok {
		cfg.Redis.URL = v
	}
	if v, ok := lookupEnv("PORT"); ok {
		if port, errAtoi := strconv.Atoi(v); errAtoi == nil {
			cfg.Server.Port = port
		}
	}
	if v, ok := lookupEnv("LOG_LEVEL"); ok {
		cfg.Logging.Level = strings.ToLower(v)
	}
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// normalizeLocale reduces a language tag such as "zh-CN" or "en_US" to its primary subtag.
func normalizeLocale(locale string) string {
	tag := strings.ToLower(strings.TrimSpace(locale))
	if idx := strings.IndexAny(tag, "-_"); idx >= 0 {
		tag = tag[:idx]
	}
	if tag == "" {
		return DefaultLocale
	}
	return tag
}

// resolveDatabaseDSN relocates bare sqlite paths below WRITABLE_PATH.
func resolveDatabaseDSN(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" || strings.Contains(dsn, "://") || strings.Contains(dsn, "=") || strings.HasPrefix(dsn, "file:") {
		return dsn
	}
	return util.ResolveWritable(dsn)
}
