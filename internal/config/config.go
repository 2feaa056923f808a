package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
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
	Bank struct {
		TTL       string `yaml:"ttl"`
		File      string `yaml:"file"`
		DefaultID string `yaml:"default_id"`
	} `yaml:"bank"`
	Quiz struct {
		QuestionCount  int    `yaml:"question_count"`
		WarningSeconds int    `yaml:"warning_seconds"`
		TickInterval   string `yaml:"tick_interval"`
	} `yaml:"quiz"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// DefaultWarningSeconds is the low-time threshold used when none is configured.
const DefaultWarningSeconds = 300

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Quiz.WarningSeconds <= 0 {
		cfg.Quiz.WarningSeconds = DefaultWarningSeconds
	}
	if cfg.Bank.DefaultID == "" {
		cfg.Bank.DefaultID = "default"
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
