package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"80"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// UPS
	UPSClientID      string        `envconfig:"UPS_CLIENT_ID"`
	UPSClientSecret  string        `envconfig:"UPS_CLIENT_SECRET"`
	UPSAccountNumber string        `envconfig:"UPS_ACCOUNT_NUMBER"`
	UPSBaseURL       string        `envconfig:"UPS_BASE_URL" default:"https://onlinetools.ups.com"`
	UPSOAuthURL      string        `envconfig:"UPS_OAUTH_URL" default:"https://onlinetools.ups.com/security/v1/oauth/token"`
	UPSTimeout       time.Duration `envconfig:"UPS_TIMEOUT" default:"10s"`
	UPSEnabled       bool          `envconfig:"UPS_ENABLED" default:"true"`
	UPSUseMock       bool          `envconfig:"UPS_USE_MOCK" default:"false"`

	// Mock carrier for local runs and demos
	MockCarrierEnabled bool `envconfig:"MOCK_CARRIER_ENABLED" default:"false"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://jaeger-collector.observability.svc.cluster.local:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"ratebridge"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("ups.enabled", c.UPSEnabled),
		attribute.Bool("mock_carrier.enabled", c.MockCarrierEnabled),
	}
}
