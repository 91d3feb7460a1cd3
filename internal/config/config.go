// Package config содержит логику чтения конфигурации панели администратора.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	defaultRunAddress     = "localhost:8080"
	defaultRequestTimeout = 30 * time.Second
	defaultAdminUsername  = "Admin"
	defaultLogLevel       = "info"
)

// Mode определяет, откуда панель берёт данные.
type Mode string

const (
	ModeMemory   Mode = "memory"
	ModePostgres Mode = "postgres"
	ModeHTTP     Mode = "http"
)

// Config содержит параметры конфигурации панели.
type Config struct {
	RunAddress         string        `env:"RUN_ADDRESS"`
	DatabaseURI        string        `env:"DATABASE_URI"`
	UpstreamAPIAddress string        `env:"UPSTREAM_API_ADDRESS"`
	UpstreamAPIToken   string        `env:"UPSTREAM_API_TOKEN"`
	AuthSecret         string        `env:"AUTH_SECRET"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT"`
	AdminUsername      string        `env:"ADMIN_USERNAME"`
	AdminPassword      string        `env:"ADMIN_PASSWORD"`
	LogLevel           string        `env:"LOG_LEVEL"`
}

// Mode возвращает режим источника данных: база данных важнее внешнего API,
// без обоих используются демонстрационные данные в памяти.
func (c *Config) Mode() Mode {
	switch {
	case c.DatabaseURI != "":
		return ModePostgres
	case c.UpstreamAPIAddress != "":
		return ModeHTTP
	default:
		return ModeMemory
	}
}

func (c *Config) setDefaults() {
	if c.RunAddress == "" {
		c.RunAddress = defaultRunAddress
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.AdminUsername == "" {
		c.AdminUsername = defaultAdminUsername
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
}

// FromEnv считывает конфигурацию только из переменных окружения.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envCfg := *cfg

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.UpstreamAPIAddress, "u", "", "upstream admin API address")
	flag.StringVar(&cfg.AuthSecret, "s", "", "secret for signing admin tokens")
	flag.DurationVar(&cfg.RequestTimeout, "t", defaultRequestTimeout, "timeout of a single data source request")
	flag.StringVar(&cfg.LogLevel, "l", defaultLogLevel, "log level")

	flag.Parse()

	if envCfg.RunAddress != "" {
		cfg.RunAddress = envCfg.RunAddress
	}
	if envCfg.DatabaseURI != "" {
		cfg.DatabaseURI = envCfg.DatabaseURI
	}
	if envCfg.UpstreamAPIAddress != "" {
		cfg.UpstreamAPIAddress = envCfg.UpstreamAPIAddress
	}
	if envCfg.AuthSecret != "" {
		cfg.AuthSecret = envCfg.AuthSecret
	}
	if envCfg.RequestTimeout > 0 {
		cfg.RequestTimeout = envCfg.RequestTimeout
	}
	if envCfg.LogLevel != "" {
		cfg.LogLevel = envCfg.LogLevel
	}

	cfg.setDefaults()

	return cfg, nil
}
