package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         string `yaml:"port" env:"LIVE_SERVER_PORT"`
		ReadTimeout  string `yaml:"read_timeout" env:"LIVE_SERVER_READ_TIMEOUT"`
		WriteTimeout string `yaml:"write_timeout" env:"LIVE_SERVER_WRITE_TIMEOUT"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level" env:"LIVE_LOG_LEVEL"`
		File  string `yaml:"file" env:"LIVE_LOG_FILE"`
	} `yaml:"log"`
	Auth struct {
		Secret   string `yaml:"secret" env:"LIVE_AUTH_SECRET"`
		TokenTTL string `yaml:"token_ttl" env:"LIVE_AUTH_TOKEN_TTL"`
	} `yaml:"auth"`
	Redis struct {
		Addr     string `yaml:"addr" env:"LIVE_REDIS_ADDR"`
		Password string `yaml:"password" env:"LIVE_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"LIVE_REDIS_DB"`
		TTL      string `yaml:"ttl" env:"LIVE_REDIS_TTL"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url" env:"LIVE_POSTGRES_URL"`
	} `yaml:"postgres"`
	Questions struct {
		TTL string `yaml:"ttl" env:"LIVE_QUESTIONS_TTL"`
	} `yaml:"questions"`
	AMQP struct {
		URL      string `yaml:"url" env:"LIVE_AMQP_URL"`
		Exchange string `yaml:"exchange" env:"LIVE_AMQP_EXCHANGE"`
		Queue    string `yaml:"queue" env:"LIVE_AMQP_QUEUE"`
	} `yaml:"amqp"`
	// Roster maps class id to enrolled student count.
	Roster map[string]int `yaml:"roster" env:"LIVE_ROSTER"`
}

// Load reads YAML config from path, then applies LIVE_* environment overrides.
// A missing file is not an error so the service can run from env alone.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return cfg, err
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
