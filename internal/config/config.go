package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config is loaded once at startup and read-only afterwards.
type Config struct {
	ServerPort string `env:"SERVER_PORT,default=8080"`
	DBHost     string `env:"DB_HOST,default=localhost"`
	DBPort     string `env:"DB_PORT,default=5432"`
	DBUser     string `env:"DB_USER,default=courier"`
	DBPassword string `env:"DB_PASSWORD,default=courier_dev_password"`
	DBName     string `env:"DB_NAME,default=courier"`
	JWTSecret  string `env:"JWT_SECRET,default=dev-secret-change-me"`

	// TokenTTL is the default session length; RememberTokenTTL is used
	// when the client asks to stay signed in.
	TokenTTL         time.Duration `env:"TOKEN_TTL,default=24h"`
	RememberTokenTTL time.Duration `env:"REMEMBER_TOKEN_TTL,default=720h"`
}

func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("parsing env vars: %w", err)
	}
	return &cfg, nil
}
