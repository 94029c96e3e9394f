package ups

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/ratebridge/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newTestLogger() *otelzap.Logger {
	return otelzap.New(zap.NewNop())
}

func TestTokenManager_CachesToken(t *testing.T) {
	api := NewMockAPIClient()
	m := NewTokenManager(api, newTestLogger())

	token, err := m.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mock-access-token", token)

	token, err = m.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mock-access-token", token)

	assert.Equal(t, int64(1), api.ExchangeCalls())
}

func TestTokenManager_ConcurrentCallersShareOneExchange(t *testing.T) {
	gate := make(chan struct{})
	api := NewMockAPIClient()
	api.OnExchangeToken = func(ctx context.Context) (*TokenResponse, error) {
		<-gate
		return &TokenResponse{TokenType: "Bearer", AccessToken: "shared-token", ExpiresIn: "14399"}, nil
	}
	m := NewTokenManager(api, newTestLogger())

	const callers = 16
	tokens := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = m.AccessToken(context.Background())
		}(i)
	}

	// Let the callers pile onto the in-flight exchange before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "shared-token", tokens[i])
	}
	assert.Equal(t, int64(1), api.ExchangeCalls())
}

func TestTokenManager_ExpiredTokenRefreshes(t *testing.T) {
	api := NewMockAPIClient()
	m := NewTokenManager(api, newTestLogger())

	now := time.Now()
	m.now = func() time.Time { return now }

	_, err := m.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), api.ExchangeCalls())

	// Advance past the lifetime minus the expiry buffer.
	now = now.Add(14400 * time.Second)

	_, err = m.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), api.ExchangeCalls())
}

func TestTokenManager_ShortLifetimeNeverCaches(t *testing.T) {
	api := NewMockAPIClient()
	api.OnExchangeToken = func(ctx context.Context) (*TokenResponse, error) {
		return &TokenResponse{TokenType: "Bearer", AccessToken: "short-lived", ExpiresIn: "60"}, nil
	}
	m := NewTokenManager(api, newTestLogger())

	// A 60s lifetime is consumed entirely by the expiry buffer, so every
	// call performs a fresh exchange.
	_, err := m.AccessToken(context.Background())
	require.NoError(t, err)
	_, err = m.AccessToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), api.ExchangeCalls())
}

func TestTokenManager_Invalidate(t *testing.T) {
	api := NewMockAPIClient()
	m := NewTokenManager(api, newTestLogger())

	_, err := m.AccessToken(context.Background())
	require.NoError(t, err)

	m.Invalidate()

	_, err = m.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), api.ExchangeCalls())
}

func TestTokenManager_MissingAccessToken(t *testing.T) {
	api := NewMockAPIClient()
	api.OnExchangeToken = func(ctx context.Context) (*TokenResponse, error) {
		return &TokenResponse{TokenType: "Bearer", ExpiresIn: "14399"}, nil
	}
	m := NewTokenManager(api, newTestLogger())

	_, err := m.AccessToken(context.Background())
	require.Error(t, err)

	cerr := carrier.AsError(err)
	assert.Equal(t, carrier.KindAuthentication, cerr.Kind)
	assert.True(t, cerr.Retryable)
	assert.Equal(t, carrierName, cerr.Carrier)
}

func TestTokenManager_MalformedExpiresIn(t *testing.T) {
	api := NewMockAPIClient()
	api.OnExchangeToken = func(ctx context.Context) (*TokenResponse, error) {
		return &TokenResponse{TokenType: "Bearer", AccessToken: "tok", ExpiresIn: "not-a-number"}, nil
	}
	m := NewTokenManager(api, newTestLogger())

	_, err := m.AccessToken(context.Background())
	require.Error(t, err)
	assert.Equal(t, carrier.KindAuthentication, carrier.KindOf(err))
}

func TestTokenManager_RejectedCredentials(t *testing.T) {
	api := NewMockAPIClient()
	api.SimulateErrors = true
	m := NewTokenManager(api, newTestLogger())

	_, err := m.AccessToken(context.Background())
	require.Error(t, err)

	cerr := carrier.AsError(err)
	assert.Equal(t, carrier.KindAuthentication, cerr.Kind)
	assert.Equal(t, 401, cerr.HTTPStatus)
	assert.Equal(t, "250002", cerr.UpstreamCode)
	assert.True(t, cerr.Retryable)
}

func TestTokenManager_FailedExchangeIsNotCached(t *testing.T) {
	fail := true
	api := NewMockAPIClient()
	api.OnExchangeToken = func(ctx context.Context) (*TokenResponse, error) {
		if fail {
			return nil, &StatusError{StatusCode: 401, Body: nil}
		}
		return &TokenResponse{TokenType: "Bearer", AccessToken: "recovered", ExpiresIn: "14399"}, nil
	}
	m := NewTokenManager(api, newTestLogger())

	_, err := m.AccessToken(context.Background())
	require.Error(t, err)

	fail = false
	token, err := m.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "recovered", token)
	assert.Equal(t, int64(2), api.ExchangeCalls())
}
