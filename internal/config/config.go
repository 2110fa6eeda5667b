package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process environment surface. The model credential is not
// required at startup: the relay reports a configuration error per request
// when it is missing, so the server can come up and serve chats regardless.
// The search credential is optional; without it augmentation is disabled.
type Config struct {
	OpenRouterAPIKey  string        `env:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL string        `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	BraveAPIKey       string        `env:"BRAVE_API_KEY"`
	BraveBaseURL      string        `env:"BRAVE_SEARCH_URL" envDefault:"https://api.search.brave.com"`
	Model             string        `env:"CHAT_MODEL" envDefault:"meta-llama/llama-4-maverick-17b-128e-instruct:free"`
	APIPort           string        `env:"API_PORT" envDefault:"8080"`
	TurnTimeout       time.Duration `env:"TURN_TIMEOUT" envDefault:"45s"`
	Referer           string        `env:"HTTP_REFERER" envDefault:"https://sorachio.netlify.app"`
	AppTitle          string        `env:"APP_TITLE" envDefault:"Sorachio Chat App"`
}

func Load() (Config, error) {
	var cfg Config
	err := env.Parse(&cfg)
	return cfg, err
}
