package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

const (
	GenerationBackendOpenRouter = "openrouter"
	GenerationBackendGemini     = "gemini"

	KVBackendRedis    = "redis"
	KVBackendPostgres = "postgres"
	KVBackendMemory   = "memory"
)

type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"3000"`

	GenerationBackend string `env:"GENERATION_BACKEND" envDefault:"openrouter"`
	OpenRouterAPIKey  string `env:"OPENROUTER_API_KEY"`
	GeminiAPIKey      string `env:"GEMINI_API_KEY"`
	GoogleMapsAPIKey  string `env:"GOOGLE_MAPS_API_KEY"`
	ImageModel        string `env:"IMAGE_MODEL" envDefault:"google/gemini-2.5-flash-image-preview"`
	BasePrompt        string `env:"BASE_PROMPT"`

	KVBackend   string `env:"KV_BACKEND" envDefault:"redis"`
	RedisURL    string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
	DatabaseURL string `env:"DATABASE_URL"`

	GCSBucketName string `env:"GCS_BUCKET_NAME"`

	// DailyGenerationLimit of 0 disables generation rate limiting.
	DailyGenerationLimit int           `env:"DAILY_GENERATION_LIMIT" envDefault:"0"`
	ImageAutoSave        bool          `env:"IMAGE_AUTO_SAVE" envDefault:"false"`
	GalleryCacheTTL      time.Duration `env:"GALLERY_CACHE_TTL" envDefault:"5m"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing env config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.GenerationBackend {
	case GenerationBackendOpenRouter:
		if c.OpenRouterAPIKey == "" {
			return errors.New("OPENROUTER_API_KEY is required for the openrouter backend")
		}
	case GenerationBackendGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required for the gemini backend")
		}
	default:
		return fmt.Errorf("unknown GENERATION_BACKEND %q", c.GenerationBackend)
	}

	switch c.KVBackend {
	case KVBackendRedis, KVBackendMemory:
	case KVBackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown KV_BACKEND %q", c.KVBackend)
	}

	if c.GCSBucketName == "" {
		return errors.New("GCS_BUCKET_NAME is required")
	}
	return nil
}
