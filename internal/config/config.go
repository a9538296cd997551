// Package config provides centralized configuration for the real estate
// capability server. Configuration is loaded from environment variables with
// sensible defaults; command-line flags may override it afterwards.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Environment represents the deployment environment.
type Environment string

const (
	EnvDev  Environment = "dev"
	EnvTest Environment = "test"
	EnvProd Environment = "prod"
)

// Transport selects the adapter that serves requests.
type Transport string

const (
	TransportStdio Transport = "stdio"
	TransportSSE   Transport = "sse"
)

// ParseTransport parses a transport name in any case.
func ParseTransport(s string) (Transport, error) {
	switch t := Transport(strings.ToLower(strings.TrimSpace(s))); t {
	case TransportStdio, TransportSSE:
		return t, nil
	}
	return "", fmt.Errorf("unknown transport %q (want stdio or sse)", s)
}

// Config holds all application configuration.
type Config struct {
	// Server
	Transport   Transport   `env:"MCP_TRANSPORT" envDefault:"stdio" json:"transport"`
	Host        string      `env:"MCP_HOST" envDefault:"0.0.0.0" json:"host"`
	Port        int         `env:"MCP_PORT" envDefault:"8000" json:"port"`
	Environment Environment `env:"ENVIRONMENT" envDefault:"dev" json:"environment"`
	ServerName  string      `env:"MCP_SERVER_NAME" envDefault:"realestate-mcp-server" json:"server_name"`

	// Logging; LogLevel defaults by environment when unset.
	LogLevel  string `env:"LOG_LEVEL" json:"log_level"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"dev" json:"log_format"`

	// Transport limits
	QueueCapacity int           `env:"MCP_QUEUE_CAPACITY" envDefault:"64" json:"queue_capacity"`
	MaxFrameBytes int           `env:"MCP_MAX_FRAME_BYTES" envDefault:"1048576" json:"max_frame_bytes"`
	KeepAlive     time.Duration `env:"MCP_SSE_KEEPALIVE" envDefault:"15s" json:"keepalive"`

	// HTTP server timeouts. There is no write timeout: event streams are
	// long-lived.
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"10s" json:"read_header_timeout"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s" json:"idle_timeout"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s" json:"shutdown_timeout"`

	// Data
	DataDir string `env:"REALESTATE_DATA_DIR" json:"data_dir"`

	// Feature flags
	EnableMetrics bool `env:"ENABLE_METRICS" envDefault:"true" json:"enable_metrics"`
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads configuration from environment variables with defaults. It does
// not validate; call Validate once overrides have been applied.
func Load() (*Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// Normalize canonicalizes enum-like values and fills environment-dependent
// defaults.
func (c *Config) Normalize() {
	c.Environment = Environment(strings.ToLower(strings.TrimSpace(string(c.Environment))))
	if c.Environment != EnvDev && c.Environment != EnvTest && c.Environment != EnvProd {
		c.Environment = EnvDev
	}
	c.Transport = Transport(strings.ToLower(strings.TrimSpace(string(c.Transport))))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = logLevelForEnv(c.Environment)
	}
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if _, err := ParseTransport(string(c.Transport)); err != nil {
		return fmt.Errorf("MCP_TRANSPORT: %w", err)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("MCP_PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.QueueCapacity <= 0 {
		return fmt.Errorf("MCP_QUEUE_CAPACITY must be positive, got %d", c.QueueCapacity)
	}
	if c.MaxFrameBytes < 1024 {
		return fmt.Errorf("MCP_MAX_FRAME_BYTES must be at least 1024, got %d", c.MaxFrameBytes)
	}
	if c.KeepAlive <= 0 {
		return fmt.Errorf("MCP_SSE_KEEPALIVE must be positive, got %s", c.KeepAlive)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "dev", "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be one of dev, text, json; got %q", c.LogFormat)
	}
	return nil
}

// Addr returns the host:port the HTTP transport listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// IsProd returns true if running in production.
func (c *Config) IsProd() bool { return c.Environment == EnvProd }

// IsTest returns true if running in test environment.
func (c *Config) IsTest() bool { return c.Environment == EnvTest }

// IsDev returns true if running in dev environment.
func (c *Config) IsDev() bool { return c.Environment == EnvDev }

func logLevelForEnv(env Environment) string {
	switch env {
	case EnvProd:
		return "info"
	case EnvTest:
		return "debug"
	default:
		return "debug"
	}
}
