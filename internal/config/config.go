// Copyright (c) 2026 Andi Zeiri
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads configuration from config.yaml and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// GmailConfig holds the OAuth credentials for mailbox access.
type GmailConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
	TokenPath    string `yaml:"token_path"`
}

// Config holds all configuration for the load ingestion service.
type Config struct {
	Gmail GmailConfig

	// Postgres
	DatabaseURL string

	// Redis
	RedisURL      string
	NotifyChannel string

	// Ingestion policy
	MinConfidence int
	BatchSize     int
	Query         string
	PollInterval  time.Duration

	// API server
	Port int
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	Gmail    GmailConfig `yaml:"gmail"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		URL           string `yaml:"url"`
		NotifyChannel string `yaml:"notify_channel"`
	} `yaml:"redis"`
	Ingestion struct {
		MinConfidence int    `yaml:"min_confidence"`
		BatchSize     int    `yaml:"batch_size"`
		Query         string `yaml:"query"`
		PollInterval  string `yaml:"poll_interval"`
	} `yaml:"ingestion"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
}

// Load reads configuration from config.yaml (with env var expansion)
// and environment variables for overrides.
func Load() (*Config, error) {
	configPath := envOrDefault("CONFIG_PATH", "config.yaml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}

	// Expand ${VAR} references in the YAML
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}

	cfg := &Config{
		Gmail:         raw.Gmail,
		DatabaseURL:   firstNonEmpty(raw.Database.URL, envOrDefault("DATABASE_URL", "")),
		RedisURL:      firstNonEmpty(raw.Redis.URL, envOrDefault("REDIS_URL", "redis://localhost:6379/0")),
		NotifyChannel: firstNonEmpty(raw.Redis.NotifyChannel, "tms:loads:changed"),
		MinConfidence: raw.Ingestion.MinConfidence,
		BatchSize:     raw.Ingestion.BatchSize,
		Query:         raw.Ingestion.Query,
		PollInterval:  envOrDefaultDuration("POLL_INTERVAL", parseDurationOr(raw.Ingestion.PollInterval, 0)),
		Port:          envOrDefaultInt("PORT", raw.Server.Port),
	}

	if cfg.Gmail.TokenPath == "" {
		cfg.Gmail.TokenPath = envOrDefault("GMAIL_TOKEN_PATH", "gmail-token.json")
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = 70
	}
	if cfg.MinConfidence > 100 {
		return nil, fmt.Errorf("ingestion.min_confidence must be in [0,100], got %d", cfg.MinConfidence)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL is required — set database.url or DATABASE_URL")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func parseDurationOr(v string, fallback time.Duration) time.Duration {
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
