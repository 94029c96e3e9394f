// Package ups provides integration with the UPS Rating API.
package ups

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tournevent/ratebridge/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const carrierName = "ups"

// Config holds UPS configuration.
type Config struct {
	ClientID      string
	ClientSecret  string
	AccountNumber string // 6-char shipper number for negotiated rates
	BaseURL       string
	OAuthURL      string
	Timeout       time.Duration
	UseMock       bool // When true, uses the mock API client
}

// Client is the UPS carrier client. It implements the carrier.Carrier
// interface and delegates wire calls to the underlying APIClient
// (mock or HTTP).
type Client struct {
	config    Config
	apiClient APIClient
	tokens    *TokenManager
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new UPS client. If cfg.UseMock is true, it uses a mock API
// client; otherwise it uses the real HTTP API client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:      cfg.BaseURL,
			OAuthURL:     cfg.OAuthURL,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Timeout:      cfg.Timeout,
		})
	}

	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a new UPS client with a custom API client.
// This is useful for injecting mock clients in tests.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		tokens:    NewTokenManager(apiClient, logger),
		logger:    logger,
		tracer:    tracer,
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// GetRates validates the request, then executes one rating call:
// build wire request, acquire token, send, parse. A validation failure
// short-circuits before any network activity; a token failure
// short-circuits before the rating call.
func (c *Client) GetRates(ctx context.Context, req *carrier.RateRequest) (*carrier.RateResponse, error) {
	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.Start(ctx, "ups.GetRates")
		defer span.End()
	}

	if verr := carrier.ValidateRateRequest(req); verr != nil {
		return nil, verr.WithCarrier(carrierName)
	}

	transactionID := uuid.New().String()
	wireReq, requestOption := buildRateRequest(req, transactionID)

	c.logger.Info("Requesting UPS rates",
		zap.String("request_option", requestOption),
		zap.String("transaction_id", transactionID),
		zap.Int("package_count", len(req.Packages)),
	)

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		c.logger.Error("UPS token acquisition failed", zap.Error(err))
		return nil, translateError(err)
	}

	wireResp, err := c.apiClient.GetRates(ctx, token, requestOption, transactionID, wireReq)
	if err != nil {
		cerr := translateError(err)
		if cerr.Kind == carrier.KindAuthentication {
			// The cached token is stale; drop it so the next call
			// re-authenticates instead of resending it.
			c.tokens.Invalidate()
		}
		c.logger.Error("UPS rating call failed",
			zap.String("kind", string(cerr.Kind)),
			zap.String("transaction_id", transactionID),
			zap.Error(cerr),
		)
		return nil, cerr
	}

	quotes, err := parseRateResponse(wireResp)
	if err != nil {
		c.logger.Error("UPS rating response rejected", zap.Error(err))
		return nil, translateError(err)
	}

	if c.tracer != nil {
		trace.SpanFromContext(ctx).SetAttributes(attribute.Int("ups.quote_count", len(quotes)))
	}

	return &carrier.RateResponse{Quotes: quotes}, nil
}

var _ carrier.Carrier = (*Client)(nil)
