package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"reservas/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App          AppConfig         `yaml:"app"`
	API          APIConfig         `yaml:"api"`
	Redis        RedisConfig       `yaml:"redis"`
	Monitoring   MonitoringConfig  `yaml:"monitoring"`
	Logging      LoggingConfig     `yaml:"logging"`
	Reservations ReservationConfig `yaml:"reservations"`
	Exports      ExportConfig      `yaml:"exports"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIRateLimitConfig struct {
	RPS float64 `yaml:"rps"`
	// Burst is the token bucket size for the memory backend and the
	// per-window request quota for the redis backend.
	Burst   int    `yaml:"burst"`
	Backend string `yaml:"backend"` // memory, redis
	Window  int    `yaml:"window"`  // seconds, redis backend only
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type ReservationConfig struct {
	SeedPath   string `yaml:"seed_path"`
	IDStrategy string `yaml:"id_strategy"`
}

type ExportConfig struct {
	SheetName string `yaml:"sheet_name"`
}

const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

func Load(configPath string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.API.HTTP.Port <= 0 || c.API.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port %d", c.API.HTTP.Port)
	}

	switch c.Reservations.IDStrategy {
	case models.IDStrategySequence, models.IDStrategyLength:
	default:
		return fmt.Errorf("unknown reservations.id_strategy %q", c.Reservations.IDStrategy)
	}

	switch c.API.RateLimit.Backend {
	case RateLimitBackendMemory:
	case RateLimitBackendRedis:
		if c.API.RateLimit.RPS > 0 && c.Redis.Address == "" {
			return errors.New("rate_limit.backend=redis requires redis.address")
		}
	default:
		return fmt.Errorf("unknown rate_limit.backend %q", c.API.RateLimit.Backend)
	}

	if c.API.RateLimit.RPS < 0 {
		return errors.New("rate_limit.rps must not be negative")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "reservas-api"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 5001
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	c.API.RateLimit.Backend = strings.ToLower(strings.TrimSpace(c.API.RateLimit.Backend))
	if c.API.RateLimit.Backend == "" {
		c.API.RateLimit.Backend = RateLimitBackendMemory
	}
	if c.API.RateLimit.Burst <= 0 {
		c.API.RateLimit.Burst = 5
	}
	if c.API.RateLimit.Window <= 0 {
		c.API.RateLimit.Window = 1
	}

	c.Reservations.IDStrategy = strings.ToLower(strings.TrimSpace(c.Reservations.IDStrategy))
	if c.Reservations.IDStrategy == "" {
		c.Reservations.IDStrategy = models.IDStrategySequence
	}

	if c.Exports.SheetName == "" {
		c.Exports.SheetName = "Reservas"
	}
}
