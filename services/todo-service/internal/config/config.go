package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/vasapolrittideah/task-wand-api/shared/mailer"
)

const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

// TodoServiceConfig holds the runtime configuration of the todo service.
type TodoServiceConfig struct {
	HTTPAddr        string        `env:"HTTP_ADDR"        envDefault:":3001"`
	GRPCHealthAddr  string        `env:"GRPC_HEALTH_ADDR" envDefault:":9090"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	StorageDriver   string        `env:"STORAGE_DRIVER"   envDefault:"mongo"`

	Log       LogConfig       `envPrefix:"LOG_"`
	Mongo     MongoConfig     `envPrefix:"MONGO_"`
	Token     TokenConfig     `envPrefix:"JWT_"`
	RateLimit RateLimitConfig `envPrefix:"LOGIN_RATE_LIMIT_"`
	Consul    ConsulConfig
	SMTP      mailer.Config   `envPrefix:"SMTP_"`
}

// LogConfig controls the zerolog logger.
type LogConfig struct {
	Level  string `env:"LEVEL"  envDefault:"info"`
	Pretty bool   `env:"PRETTY" envDefault:"false"`
}

// MongoConfig holds the MongoDB connection settings.
type MongoConfig struct {
	URI      string `env:"URI"`
	Database string `env:"DATABASE" envDefault:"task_wand"`
}

// TokenConfig holds the access token signing settings. The secret has no default.
type TokenConfig struct {
	Secret string `env:"SECRET"`
	Issuer string `env:"ISSUER" envDefault:"task-wand-api"`
}

// RateLimitConfig limits signup and login attempts per client IP.
type RateLimitConfig struct {
	RPS   float64 `env:"RPS"   envDefault:"5"`
	Burst int     `env:"BURST" envDefault:"10"`
}

// ConsulConfig enables service registration when Addr is set.
type ConsulConfig struct {
	Addr        string `env:"CONSUL_ADDR"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"todo-service"`
	ServiceHost string `env:"SERVICE_HOST" envDefault:"localhost"`
}

// Load parses the configuration from environment variables and validates it.
func Load() (*TodoServiceConfig, error) {
	cfg, err := env.ParseAs[TodoServiceConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *TodoServiceConfig) validate() error {
	switch c.StorageDriver {
	case StorageMongo:
		if c.Mongo.URI == "" {
			return errors.New("missing MONGO_URI environment variable")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.Token.Secret == "" {
		return errors.New("missing JWT_SECRET environment variable")
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("LOGIN_RATE_LIMIT_RPS and LOGIN_RATE_LIMIT_BURST must be positive")
	}

	return nil
}
