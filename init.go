package main

import (
	"context"

	"github.com/tournevent/ratebridge/internal/config"
	"github.com/tournevent/ratebridge/internal/telemetry"
	"github.com/tournevent/ratebridge/pkg/carrier"
	"github.com/tournevent/ratebridge/pkg/carrier/mock"
	"github.com/tournevent/ratebridge/pkg/carrier/ups"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return nil, func(context.Context) error { return nil }, nil
	}
	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
}

func initCarrierRegistry(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer) *carrier.Registry {
	registry := carrier.NewRegistry()

	if cfg.UPSEnabled {
		client := ups.New(ups.Config{
			ClientID:      cfg.UPSClientID,
			ClientSecret:  cfg.UPSClientSecret,
			AccountNumber: cfg.UPSAccountNumber,
			BaseURL:       cfg.UPSBaseURL,
			OAuthURL:      cfg.UPSOAuthURL,
			Timeout:       cfg.UPSTimeout,
			UseMock:       cfg.UPSUseMock,
		}, logger, tracer)
		registry.Register(client)
	}

	if cfg.MockCarrierEnabled {
		registry.Register(mock.New("mock"))
	}

	return registry
}

func initOrchestrator(registry *carrier.Registry, logger *otelzap.Logger) *carrier.Orchestrator {
	return carrier.NewOrchestrator(registry, logger)
}
