package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Config is built once at startup and handed to the components that need it.
type Config struct {
	Port     string `env:"PORT, default=8080"`
	GinMode  string `env:"GIN_MODE, default=debug"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL, default=1h"`

	CORSOrigins    []string `env:"CORS_ORIGINS, default=*"`
	RateLimitRPS   float64  `env:"RATE_LIMIT_RPS, default=20"`
	RateLimitBurst int      `env:"RATE_LIMIT_BURST, default=40"`

	DB  DBConfig
	LLM LLMConfig
}

type DBConfig struct {
	Driver        string        `env:"DB_DRIVER, default=mysql"`
	DSN           string        `env:"DB_DSN, default=root:root@tcp(127.0.0.1:3306)/restaurant?charset=utf8mb4&parseTime=True&loc=Local"`
	MaxOpenConns  int           `env:"DB_MAX_OPEN_CONNS, default=20"`
	MaxIdleConns  int           `env:"DB_MAX_IDLE_CONNS, default=5"`
	SlowThreshold time.Duration `env:"DB_SLOW_THRESHOLD, default=200ms"`
}

type LLMConfig struct {
	APIKey      string        `env:"LLM_API_KEY"`
	BaseURL     string        `env:"LLM_BASE_URL, default=https://api.deepseek.com"`
	Model       string        `env:"LLM_MODEL, default=deepseek-chat"`
	MaxTokens   int           `env:"LLM_MAX_TOKENS, default=1000"`
	Temperature float32       `env:"LLM_TEMPERATURE, default=0.7"`
	Timeout     time.Duration `env:"LLM_TIMEOUT, default=30s"`
}

// Load reads an optional .env file and then the process environment.
func Load(ctx context.Context) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith resolves the configuration from l.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	switch c.DB.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.JWTTTL <= 0 {
		return errors.New("config: JWT_TTL must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("config: rate limit must be positive")
	}
	return nil
}
