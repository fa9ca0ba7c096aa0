// Package config loads the dopesheetd configuration from layered YAML files
// and DOPESHEET_* environment variables, and hot reloads it in development.
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	domainconfig "dopesheet/domain/config"
	"dopesheet/pkg/observability"
)

// Environment is the deployment environment
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Config holds all application configuration
type Config struct {
	Environment Environment `yaml:"environment" json:"environment" validate:"required,oneof=development staging production"`

	Server  Server  `yaml:"server" json:"server"`
	Logging Logging `yaml:"logging" json:"logging"`
	Tracing Tracing `yaml:"tracing" json:"tracing"`
	Metrics Metrics `yaml:"metrics" json:"metrics"`
	CORS    CORS    `yaml:"cors" json:"cors"`

	RateLimit RateLimit `yaml:"rate_limit" json:"rate_limit"`

	// Scene loaded at startup, empty for an empty dope sheet
	ScenePath string `yaml:"scene_path" json:"scene_path"`

	Domain domainconfig.DomainConfig `yaml:"domain" json:"domain"`

	// Files and sources the configuration was built from
	LoadedFrom []string `yaml:"-" json:"-"`
}

// Server holds the HTTP server settings
type Server struct {
	Host            string        `yaml:"host" json:"host" validate:"required"`
	Port            int           `yaml:"port" json:"port" validate:"required,min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// Logging holds the logger settings
type Logging struct {
	Level string `yaml:"level" json:"level" validate:"required,oneof=debug info warn error"`
}

// Tracing holds the OpenTelemetry exporter settings
type Tracing struct {
	Enabled     bool    `yaml:"enabled" json:"enabled"`
	ServiceName string  `yaml:"service_name" json:"service_name"`
	Endpoint    string  `yaml:"endpoint" json:"endpoint" validate:"required_if=Enabled true"`
	Insecure    bool    `yaml:"insecure" json:"insecure"`
	SampleRate  float64 `yaml:"sample_rate" json:"sample_rate" validate:"min=0,max=1"`
}

// Metrics holds the prometheus settings
type Metrics struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace" validate:"required"`
	Path      string `yaml:"path" json:"path" validate:"required,startswith=/"`
}

// CORS holds the cross-origin settings of the REST API
type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
	MaxAge         int      `yaml:"max_age" json:"max_age" validate:"min=0"`
}

// RateLimit holds the per-client request budget of the REST API
type RateLimit struct {
	Enabled  bool          `yaml:"enabled" json:"enabled"`
	Requests int           `yaml:"requests" json:"requests" validate:"required_if=Enabled true,min=0"`
	Window   time.Duration `yaml:"window" json:"window"`
}

// Validate checks the configuration against its struct rules and the
// domain configuration rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := c.Domain.Validate(); err != nil {
		return fmt.Errorf("invalid domain configuration: %w", err)
	}
	return nil
}

// Addr returns the listen address of the HTTP server
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// TracingConfig converts the tracing section for observability.InitTracing
func (c *Config) TracingConfig(version string) observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:     c.Tracing.Enabled,
		ServiceName: c.Tracing.ServiceName,
		Version:     version,
		Environment: string(c.Environment),
		Endpoint:    c.Tracing.Endpoint,
		Insecure:    c.Tracing.Insecure,
		SampleRate:  c.Tracing.SampleRate,
	}
}
