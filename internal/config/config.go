package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// RunPod (async image backend)
	RunPodAPIKey            string
	RunPodAPIBaseURL        string
	RunPodWebhookToken      string
	SDXLEndpointID          string
	SDXLLightningEndpointID string
	FluxEndpointID          string

	// Text backend (sync copy generation)
	TextAPIKey     string
	TextAPIBaseURL string

	// Supabase
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseJWTSecret      string
	SupabaseStorageBucket  string

	// Webhook
	WebhookCallbackURL string

	// Database
	DatabaseURL string

	// Polling
	PollInterval    time.Duration
	PollMaxDuration time.Duration

	// Server
	Port        string
	Environment string
	BaseURL     string
}

func Load() (*Config, error) {
	cfg := &Config{
		RunPodAPIKey:            getEnv("RUNPOD_API_KEY", ""),
		RunPodAPIBaseURL:        getEnv("RUNPOD_API_BASE_URL", "https://api.runpod.ai/v2/"),
		RunPodWebhookToken:      getEnv("RUNPOD_WEBHOOK_TOKEN", ""),
		SDXLEndpointID:          getEnv("RUNPOD_SDXL_ENDPOINT_ID", ""),
		SDXLLightningEndpointID: getEnv("RUNPOD_SDXL_LIGHTNING_ENDPOINT_ID", ""),
		FluxEndpointID:          getEnv("RUNPOD_FLUX_ENDPOINT_ID", ""),

		TextAPIKey:     getEnv("TEXT_API_KEY", ""),
		TextAPIBaseURL: getEnv("TEXT_API_BASE_URL", "https://api.openai.com/v1/"),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabaseJWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "generated-assets"),

		WebhookCallbackURL: getEnv("WEBHOOK_CALLBACK_URL", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		PollInterval:    getDurationEnv("POLL_INTERVAL_SECONDS", 5),
		PollMaxDuration: getDurationEnv("POLL_MAX_DURATION_SECONDS", 300),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.RunPodAPIKey == "" {
		return fmt.Errorf("RUNPOD_API_KEY is required")
	}
	if c.TextAPIKey == "" {
		return fmt.Errorf("TEXT_API_KEY is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabasePublishableKey == "" {
		return fmt.Errorf("SUPABASE_PUBLISHABLE_KEY is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultSeconds int) time.Duration {
	seconds := defaultSeconds
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			seconds = n
		}
	}
	return time.Duration(seconds) * time.Second
}
