// Package config loads the relay's runtime settings from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

var validate = validator.New()

// Config holds the server settings. Every field has a default so the relay
// starts with an empty environment.
type Config struct {
	Addr                    string        `env:"ADDR,default=:8001" validate:"required"`
	AllowedOrigins          string        `env:"ALLOWED_ORIGINS,default=*"`
	MaxMessageSize          int64         `env:"MAX_MESSAGE_SIZE,default=4096" validate:"gt=0"`
	RateLimitBurst          int           `env:"RATE_LIMIT_BURST,default=5" validate:"gt=0"`
	RateLimitRefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL,default=1s" validate:"gt=0"`
	SendBufferSize          int           `env:"SEND_BUFFER_SIZE,default=256" validate:"gt=0"`
	WriteTimeout            time.Duration `env:"WRITE_TIMEOUT,default=10s" validate:"gt=0"`
	PongTimeout             time.Duration `env:"PONG_TIMEOUT,default=60s" validate:"gt=0"`
	ShutdownTimeout         time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s" validate:"gt=0"`
	LogLevel                string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Addr:                    ":8001",
		AllowedOrigins:          "*",
		MaxMessageSize:          4096,
		RateLimitBurst:          5,
		RateLimitRefillInterval: time.Second,
		SendBufferSize:          256,
		WriteTimeout:            10 * time.Second,
		PongTimeout:             60 * time.Second,
		ShutdownTimeout:         5 * time.Second,
		LogLevel:                "INFO",
	}
}

// Load reads the configuration from the environment. When envFile is not
// empty it is loaded first; a missing file is not an error. Variables
// already present in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	cfg.LogLevel = strings.ToUpper(strings.TrimSpace(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Origins splits AllowedOrigins on commas, dropping blanks.
func (c Config) Origins() []string {
	parts := strings.Split(c.AllowedOrigins, ",")
	return lo.FilterMap(parts, func(part string, _ int) (string, bool) {
		trimmed := strings.TrimSpace(part)
		return trimmed, trimmed != ""
	})
}

// PingPeriod is how often the server pings a connection. It must stay
// below PongTimeout.
func (c Config) PingPeriod() time.Duration {
	return c.PongTimeout * 9 / 10
}
