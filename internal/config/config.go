package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	defaultEnvironment        = "development"
	defaultHTTPAddr           = ":8080"
	defaultCompletionInterval = 5 * time.Minute
)

// keys переменные окружения, которые читает приложение
var keys = map[string]struct{}{
	"ENV":                 {},
	"DB_DSN":              {},
	"HTTP_ADDR":           {},
	"JWT_SECRET":          {},
	"TOKEN_TTL":           {},
	"NATS_URL":            {},
	"TELEGRAM_TOKEN":      {},
	"TIMEZONE":            {},
	"COMPLETION_INTERVAL": {},
}

type Config struct {
	Environment        string        `koanf:"env"`
	DBDSN              string        `koanf:"db_dsn"`
	HTTPAddr           string        `koanf:"http_addr"`
	JWTSecret          string        `koanf:"jwt_secret"`
	TokenTTL           time.Duration `koanf:"token_ttl"`
	NATSURL            string        `koanf:"nats_url"`
	TelegramToken      string        `koanf:"telegram_token"`
	Timezone           string        `koanf:"timezone"`
	CompletionInterval time.Duration `koanf:"completion_interval"`
}

// Load читает .env, затем YAML-файл configPath (если задан и существует),
// затем переменные окружения, которые перекрывают файл
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	k := koanf.New(".")

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config file: %w", err)
		}
	}

	err := k.Load(env.Provider("", ".", func(s string) string {
		if _, ok := keys[s]; !ok {
			return ""
		}
		return strings.ToLower(s)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = defaultEnvironment
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = defaultHTTPAddr
	}
	if c.CompletionInterval <= 0 {
		c.CompletionInterval = defaultCompletionInterval
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
}

// Validate проверяет обязательные поля
func (c *Config) Validate() error {
	var errs []error
	if c.DBDSN == "" {
		errs = append(errs, errors.New("DB_DSN is required but not set"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required but not set"))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE is invalid: %w", err))
	}
	return errors.Join(errs...)
}

// Location часовой пояс для текстов уведомлений
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
