// Package config loads runtime settings from the environment, with a local
// .env file honored during development.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds everything the entrypoints need to assemble the services.
// Credentials (provider API keys) are not here: they are resolved per call
// through a credentials.Source so rotation takes effect without a restart.
type Config struct {
	// HTTP server
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	// Generated speech storage
	AudioDir          string `env:"AUDIO_DIR" envDefault:"data/audio"`
	AudioPublicPrefix string `env:"AUDIO_PUBLIC_PREFIX" envDefault:"/api/audio/speech"`

	// Provider endpoint overrides, mainly for local proxies and tests.
	// Empty means the provider default.
	OpenAIBaseURL    string `env:"OPENAI_BASE_URL"`
	AnthropicBaseURL string `env:"ANTHROPIC_BASE_URL"`
	GroqBaseURL      string `env:"GROQ_BASE_URL"`

	// Parameter Store path prefix for API keys when running on Lambda.
	ParamPrefix string `env:"PARAM_PREFIX" envDefault:"/chat-gateway"`
}

// Load reads the configuration from a .env file (if present) and the
// process environment. Environment variables win over .env values.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	return cfg, nil
}
