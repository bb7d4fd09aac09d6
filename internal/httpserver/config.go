package httpserver

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config controls auth tokens, cookies, CORS and session lifetimes.
type Config struct {
	JWTSecret      string        `env:"JWT_SECRET"           envDefault:"dev_secret_change_me"`
	TokenTTL       time.Duration `env:"JWT_TTL"              envDefault:"168h"`
	CookieName     string        `env:"COOKIE_NAME"          envDefault:"conniptions_token"`
	SecureCookies  bool          `env:"SECURE_COOKIES"`
	ClientOrigin   string        `env:"CLIENT_ORIGIN"        envDefault:"http://localhost:5173"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"      envDefault:"10s"`
	SessionIdle    time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"1h"`
}

// LoadConfigFromEnv reads Config from the process environment.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns the envDefault values, ignoring the environment.
func DefaultConfig() Config {
	var cfg Config
	_ = env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}})
	return cfg
}
