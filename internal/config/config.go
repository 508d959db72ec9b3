package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	JWTSecret   string `env:"JWT_SECRET,required,notEmpty"`
	Port        int    `env:"PORT" envDefault:"8080"`

	// HTTP
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// Database pool
	DBMaxConns int32 `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns int32 `env:"DB_MIN_CONNS" envDefault:"1"`

	// Notifications
	NotifyWorkers int    `env:"NOTIFY_WORKERS" envDefault:"5"`
	SMTPHost      string `env:"SMTP_HOST"`
	SMTPPort      int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername  string `env:"SMTP_USERNAME"`
	SMTPPassword  string `env:"SMTP_PASSWORD"`
	SMTPFrom      string `env:"SMTP_FROM" envDefault:"no-reply@writeflow.local"`

	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("PORT %d out of range", c.Port)
	case c.DBMaxConns < 1 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns:
		return fmt.Errorf("invalid pool size: min %d, max %d", c.DBMinConns, c.DBMaxConns)
	case c.NotifyWorkers < 1:
		return fmt.Errorf("NOTIFY_WORKERS must be at least 1")
	}
	return nil
}

// SMTPEnabled reports whether notifications go out by mail rather than to the log.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

func (c *Config) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}
