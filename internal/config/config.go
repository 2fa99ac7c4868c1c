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

	// Sendcloud
	SendcloudAPIKey    string `envconfig:"SENDCLOUD_API_KEY"`
	SendcloudAPISecret string `envconfig:"SENDCLOUD_API_SECRET"`
	SendcloudBaseURL   string `envconfig:"SENDCLOUD_BASE_URL" default:"https://panel.sendcloud.nl/api/v2"`
	SendcloudUseMock   bool   `envconfig:"SENDCLOUD_USE_MOCK" default:"false"`

	// Services priced by the engine: comma-separated "code:name" pairs.
	Services map[string]string `envconfig:"SERVICES" default:"13:Pakket Nederland (PostNL)"`

	// Rate cache
	CacheBackend  string        `envconfig:"CACHE_BACKEND" default:"memory"` // "memory" or "redis"
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"15m"`
	RedisAddress  string        `envconfig:"REDIS_ADDRESS" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://jaeger-collector.observability.svc.cluster.local:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"shiprate"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.CacheBackend != "memory" && cfg.CacheBackend != "redis" {
		return nil, fmt.Errorf("loading config: unknown cache backend %q", cfg.CacheBackend)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.String("cache.backend", c.CacheBackend),
		attribute.Bool("sendcloud.mock", c.SendcloudUseMock),
	}
}
