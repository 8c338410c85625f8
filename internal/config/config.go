package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is used when no config path is supplied.
const DefaultConfigPath = "config.yaml"

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Content  ContentConfig  `yaml:"content"`
	AI       AIConfig       `yaml:"ai"`
	Admin    AdminConfig    `yaml:"admin"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig selects the persistent datastore.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig enables the Redis usage store when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ContentConfig locates the markdown content root.
type ContentConfig struct {
	Dir string `yaml:"dir"`
}

// AIConfig configures the chat assistant.
type AIConfig struct {
	BaseURL             string          `yaml:"base-url"`
	APIKey              string          `yaml:"api-key"`
	Temperature         float64         `yaml:"temperature"`
	TopP                float64         `yaml:"top-p"`
	MaxCompletionTokens int             `yaml:"max-completion-tokens"`
	Models              []ModelConfig   `yaml:"models"`
	Limits              RateLimitConfig `yaml:"limits"`
}

// ModelConfig is one entry of the ordered fallback chain.
type ModelConfig struct {
	Model       string `yaml:"model"`
	Description string `yaml:"description"`
}

// RateLimitConfig carries the quota caps for the AI chat feature.
type RateLimitConfig struct {
	MaxMessagesPerDay    int   `yaml:"max-messages-per-day"`
	MaxMessagesPerMinute int   `yaml:"max-messages-per-minute"`
	WindowMS             int64 `yaml:"window-ms"`
}

// AdminConfig configures the operator account and JWT signing.
type AdminConfig struct {
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	JWTSecret   string        `yaml:"jwt-secret"`
	TokenExpiry time.Duration `yaml:"token-expiry"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ResolveConfigPath returns the effective config path, defaulting when empty.
func ResolveConfigPath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return DefaultConfigPath
	}
	return filepath.Clean(trimmed)
}

// Load reads the YAML config file, applies environment overrides and defaults.
// A .env file next to the working directory is honored when present.
func Load(path string) (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{}
	data, err := os.ReadFile(ResolveConfigPath(path))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if errUnmarshal := yaml.Unmarshal(data, cfg); errUnmarshal != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if strings.TrimSpace(cfg.AI.APIKey) == "" {
		return nil, fmt.Errorf("config: missing AI api key (set GROQ_API_KEY or ai.api-key)")
	}
	return cfg, nil
}

// applyEnv overrides selected fields from the environment.
func (c *AppConfig) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("GROQ_API_KEY")); v != "" {
		c.AI.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_DSN")); v != "" {
		c.Database.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_ADDR")); v != "" {
		c.Redis.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("ADMIN_PASSWORD")); v != "" {
		c.Admin.Password = v
	}
	if v := strings.TrimSpace(os.Getenv("JWT_SECRET")); v != "" {
		c.Admin.JWTSecret = v
	}
}

// applyDefaults fills unset fields with working defaults.
func (c *AppConfig) applyDefaults() {
	if strings.TrimSpace(c.Server.Addr) == "" {
		c.Server.Addr = ":8317"
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		c.Database.DSN = "file:data/polar.db"
	}
	if strings.TrimSpace(c.Content.Dir) == "" {
		c.Content.Dir = "content"
	}
	if strings.TrimSpace(c.AI.BaseURL) == "" {
		c.AI.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.6
	}
	if c.AI.TopP == 0 {
		c.AI.TopP = 0.95
	}
	if c.AI.MaxCompletionTokens == 0 {
		c.AI.MaxCompletionTokens = 1024
	}
	if len(c.AI.Models) == 0 {
		c.AI.Models = []ModelConfig{
			{Model: "llama-3.3-70b-versatile", Description: "Best quality, lower limits"},
			{Model: "meta-llama/llama-4-scout-17b-16e-instruct", Description: "High TPM fallback"},
			{Model: "llama-3.1-8b-instant", Description: "High RPD fallback"},
			{Model: "qwen/qwen3-32b", Description: "High RPM fallback"},
			{Model: "moonshotai/kimi-k2-instruct", Description: "Final fallback"},
		}
	}
	if c.AI.Limits.MaxMessagesPerDay == 0 {
		c.AI.Limits.MaxMessagesPerDay = 15
	}
	if c.AI.Limits.MaxMessagesPerMinute == 0 {
		c.AI.Limits.MaxMessagesPerMinute = 3
	}
	if c.AI.Limits.WindowMS == 0 {
		c.AI.Limits.WindowMS = 60_000
	}
	if strings.TrimSpace(c.Admin.Username) == "" {
		c.Admin.Username = "admin"
	}
	if c.Admin.TokenExpiry == 0 {
		c.Admin.TokenExpiry = 24 * time.Hour
	}
	if strings.TrimSpace(c.Log.Level) == "" {
		c.Log.Level = "info"
	}
}
