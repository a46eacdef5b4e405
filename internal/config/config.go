// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string

	// LLM provider settings.
	Provider string // "anthropic" or "openai"
	APIKey   string
	Model    string // empty = provider default
	BaseURL  string // empty = provider default

	// Simulation pacing.
	TargetRounds     int
	MaxRounds        int
	MaxTokens        int
	MaxMessageLength int // reply cap, in words

	// Session persistence: "memory" or "sqlite".
	SessionStore string
	DBPath       string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	apiKey := getEnv("LLM_API_KEY", "")
	if apiKey == "" {
		// Older deployments set the provider-specific name.
		apiKey = getEnv("CLAUDE_API_KEY", "")
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		FrontendURL:      getEnv("FRONTEND_URL", ""),
		Provider:         getEnv("LLM_PROVIDER", "anthropic"),
		APIKey:           apiKey,
		Model:            getEnv("LLM_MODEL", ""),
		BaseURL:          getEnv("LLM_BASE_URL", ""),
		TargetRounds:     getEnvInt("TARGET_ROUNDS", 5),
		MaxRounds:        getEnvInt("MAX_ROUNDS", 7),
		MaxTokens:        getEnvInt("MAX_TOKENS", 200),
		MaxMessageLength: getEnvInt("MAX_MESSAGE_LENGTH", 150),
		SessionStore:     getEnv("SESSION_STORE", "memory"),
		DBPath:           getEnv("DB_PATH", "./data/sessions.db"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY cannot be empty")
	}
	switch c.Provider {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("LLM_PROVIDER must be \"anthropic\" or \"openai\", got %q", c.Provider)
	}
	if c.TargetRounds <= 0 {
		return fmt.Errorf("TARGET_ROUNDS must be > 0")
	}
	if c.MaxRounds < c.TargetRounds {
		return fmt.Errorf("MAX_ROUNDS must be >= TARGET_ROUNDS")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("MAX_TOKENS must be > 0")
	}
	if c.MaxMessageLength <= 0 {
		return fmt.Errorf("MAX_MESSAGE_LENGTH must be > 0")
	}
	switch c.SessionStore {
	case "memory":
	case "sqlite":
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty when SESSION_STORE=sqlite")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be \"memory\" or \"sqlite\", got %q", c.SessionStore)
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
