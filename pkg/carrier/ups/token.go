package ups

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/tournevent/ratebridge/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// expiryBuffer is subtracted from the reported token lifetime so a token is
// never presented within 60 seconds of its true expiry.
const expiryBuffer = 60 * time.Second

type cachedToken struct {
	accessToken string
	expiresAt   time.Time
}

// TokenManager acquires, caches, and refreshes the UPS bearer credential.
// Concurrent callers that observe a missing or expired token share a single
// upstream exchange: exactly one network call occurs regardless of how many
// callers arrive, and all of them receive the same outcome.
type TokenManager struct {
	api    APIClient
	logger *otelzap.Logger

	mu    sync.Mutex
	token *cachedToken

	group singleflight.Group
	now   func() time.Time
}

// NewTokenManager creates a token manager over the given API client.
func NewTokenManager(api APIClient, logger *otelzap.Logger) *TokenManager {
	return &TokenManager{
		api:    api,
		logger: logger,
		now:    time.Now,
	}
}

// AccessToken returns a valid bearer token, refreshing it when the cache is
// empty or expired. Any failure surfaces as an authentication error.
func (m *TokenManager) AccessToken(ctx context.Context) (string, error) {
	if token, ok := m.cached(); ok {
		return token, nil
	}

	v, err, _ := m.group.Do("token", func() (interface{}, error) {
		// A refresh may have completed while this caller waited on the slot.
		if token, ok := m.cached(); ok {
			return token, nil
		}
		return m.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate clears the cached token unconditionally; the next AccessToken
// call performs a fresh exchange.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = nil
}

func (m *TokenManager) cached() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token != nil && m.now().Before(m.token.expiresAt) {
		return m.token.accessToken, true
	}
	return "", false
}

func (m *TokenManager) refresh(ctx context.Context) (string, error) {
	resp, err := m.api.ExchangeToken(ctx)
	if err != nil {
		m.logger.Warn("UPS token exchange failed", zap.Error(err))
		return "", authError("token exchange failed", err)
	}
	if resp.AccessToken == "" {
		return "", authError("token response missing access_token", nil)
	}

	expiresIn, err := strconv.Atoi(resp.ExpiresIn)
	if err != nil {
		return "", authError("token response carried a malformed expires_in", err)
	}

	expiresAt := m.now().Add(time.Duration(expiresIn)*time.Second - expiryBuffer)

	m.mu.Lock()
	m.token = &cachedToken{accessToken: resp.AccessToken, expiresAt: expiresAt}
	m.mu.Unlock()

	m.logger.Debug("UPS token refreshed",
		zap.Time("expires_at", expiresAt),
	)
	return resp.AccessToken, nil
}

// authError wraps a token-lifecycle failure as a retryable authentication
// error. Failures that already classified as authentication errors pass
// through unchanged.
func authError(message string, cause error) *carrier.Error {
	if cause != nil {
		var cerr *carrier.Error
		if errors.As(cause, &cerr) && cerr.Kind == carrier.KindAuthentication {
			return cerr
		}
		translated := translateError(cause)
		if translated.Kind == carrier.KindAuthentication {
			return translated
		}
		return carrier.NewError(carrier.KindAuthentication, message).
			WithCarrier(carrierName).
			WithRetryable(true).
			WithHTTPStatus(translated.HTTPStatus).
			WithUpstream(translated.UpstreamCode, translated.UpstreamMessage).
			WithCause(cause)
	}
	return carrier.NewError(carrier.KindAuthentication, message).
		WithCarrier(carrierName).
		WithRetryable(true)
}
