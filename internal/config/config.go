package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port        string   `yaml:"port"`
		CORSOrigins []string `yaml:"corsOrigins"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	Quiz struct {
		TTL           string  `yaml:"ttl"`
		Cap           int     `yaml:"cap"`
		RepeatFactor  int     `yaml:"repeatFactor"`
		PassThreshold float64 `yaml:"passThreshold"`
	} `yaml:"quiz"`
	Attempt struct {
		TTL string `yaml:"ttl"`
	} `yaml:"attempt"`
	Auth struct {
		JWTSecret     string `yaml:"jwtSecret"`
		TokenTTL      string `yaml:"tokenTTL"`
		AdminUsername string `yaml:"adminUsername"`
		AdminPassword string `yaml:"adminPassword"`
	} `yaml:"auth"`
}

// Default returns the settings used when no config file is present.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Server.CORSOrigins = []string{"http://localhost:3000"}
	cfg.Mongo.Database = "quiz"
	cfg.Quiz.TTL = "10m"
	cfg.Quiz.Cap = 30
	cfg.Quiz.RepeatFactor = 4
	cfg.Quiz.PassThreshold = 80
	cfg.Attempt.TTL = "2h"
	cfg.Auth.TokenTTL = "1h"
	cfg.Auth.AdminUsername = "admin"
	cfg.Auth.AdminPassword = "admin123"
	return cfg
}

// Load reads YAML config from path on top of Default, then applies environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("MONGODB_URI"); v != "" {
		cfg.Mongo.URI = v
	}
	if v := os.Getenv("POSTGRES_URL"); v != "" {
		cfg.Postgres.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		cfg.Server.CORSOrigins = strings.Split(v, ",")
	}
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
