package main

import (
	"context"

	"github.com/tournevent/shiprate/internal/config"
	"github.com/tournevent/shiprate/internal/telemetry"
	"github.com/tournevent/shiprate/pkg/booking"
	"github.com/tournevent/shiprate/pkg/carrier"
	"github.com/tournevent/shiprate/pkg/carrier/sendcloud"
	"github.com/tournevent/shiprate/pkg/rating"
	"github.com/tournevent/shiprate/pkg/rating/ratecache"
	"github.com/tournevent/shiprate/pkg/rating/weightlimit"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return func(context.Context) error { return nil }, nil
	}

	_, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
	return shutdown, err
}

func initRateCache(cfg *config.Config) (ratecache.Cache, func() error, error) {
	if cfg.CacheBackend == "redis" {
		cache, err := ratecache.NewRedis(ratecache.RedisConfig{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		if err != nil {
			return nil, nil, err
		}
		return cache, cache.Close, nil
	}

	return ratecache.NewMemory(cfg.CacheTTL), func() error { return nil }, nil
}

func initCarrierClient(cfg *config.Config, logger *otelzap.Logger) *sendcloud.Client {
	tracer := otel.GetTracerProvider().Tracer(cfg.ServiceName)

	return sendcloud.New(sendcloud.Config{
		APIKey:    cfg.SendcloudAPIKey,
		APISecret: cfg.SendcloudAPISecret,
		BaseURL:   cfg.SendcloudBaseURL,
		UseMock:   cfg.SendcloudUseMock,
	}, logger, tracer)
}

func initServiceRegistry(cfg *config.Config, client *sendcloud.Client, cache ratecache.Cache, logger *otelzap.Logger) *rating.Registry {
	registry := rating.NewRegistry()
	policy := weightlimit.DefaultSendcloudTable()

	for code, name := range cfg.Services {
		registry.Register(rating.NewEvaluator(
			carrier.ServiceDescriptor{Name: name, Code: code, Carrier: client.Name()},
			client, policy, cache, logger,
		))
	}

	return registry
}

func initBooker(client *sendcloud.Client, logger *otelzap.Logger) *booking.Booker {
	return booking.NewBooker(client, logger)
}
