package ups

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/ratebridge/pkg/carrier"
)

func newTestClient(api APIClient) *Client {
	return NewWithAPIClient(Config{UseMock: true}, api, newTestLogger(), nil)
}

func TestClient_Name(t *testing.T) {
	assert.Equal(t, "ups", newTestClient(NewMockAPIClient()).Name())
}

func TestClient_GetRates(t *testing.T) {
	api := NewMockAPIClient()
	c := newTestClient(api)

	resp, err := c.GetRates(context.Background(), sampleRequest())
	require.NoError(t, err)
	require.Len(t, resp.Quotes, 2)
	assert.Equal(t, "ups", resp.Quotes[0].Carrier)
	assert.Equal(t, int64(1), api.ExchangeCalls())
	assert.Equal(t, int64(1), api.RateCalls())
}

func TestClient_GetRates_RateMode(t *testing.T) {
	api := NewMockAPIClient()
	var capturedOption string
	api.OnGetRates = func(ctx context.Context, accessToken, requestOption, transactionID string, req *RateWireRequest) (*RateWireResponse, error) {
		capturedOption = requestOption
		assert.Equal(t, "mock-access-token", accessToken)
		assert.NotEmpty(t, transactionID)
		return NewMockAPIClient().GetRates(ctx, accessToken, requestOption, transactionID, req)
	}
	c := newTestClient(api)

	req := sampleRequest()
	req.ServiceCode = "03"
	resp, err := c.GetRates(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, RequestOptionRate, capturedOption)
	require.Len(t, resp.Quotes, 1)
	assert.Equal(t, "03", resp.Quotes[0].ServiceCode)
}

func TestClient_GetRates_ValidationShortCircuits(t *testing.T) {
	api := NewMockAPIClient()
	c := newTestClient(api)

	req := sampleRequest()
	req.Packages = nil

	resp, err := c.GetRates(context.Background(), req)
	assert.Nil(t, resp)

	cerr := carrier.AsError(err)
	require.NotNil(t, cerr)
	assert.Equal(t, carrier.KindValidation, cerr.Kind)
	assert.Equal(t, "ups", cerr.Carrier)

	// No network activity of any kind on invalid input.
	assert.Equal(t, int64(0), api.ExchangeCalls())
	assert.Equal(t, int64(0), api.RateCalls())
}

func TestClient_GetRates_TokenFailureSkipsRatingCall(t *testing.T) {
	api := NewMockAPIClient()
	api.SimulateErrors = true
	c := newTestClient(api)

	_, err := c.GetRates(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Equal(t, carrier.KindAuthentication, carrier.KindOf(err))
	assert.Equal(t, int64(0), api.RateCalls())
}

func TestClient_GetRates_UnauthorizedInvalidatesToken(t *testing.T) {
	api := NewMockAPIClient()
	reject := true
	api.OnGetRates = func(ctx context.Context, accessToken, requestOption, transactionID string, req *RateWireRequest) (*RateWireResponse, error) {
		if reject {
			return nil, &StatusError{StatusCode: 401, Body: []byte(`{"response":{"errors":[{"code":"250003","message":"Invalid Access License"}]}}`)}
		}
		return NewMockAPIClient().GetRates(ctx, accessToken, requestOption, transactionID, req)
	}
	c := newTestClient(api)

	_, err := c.GetRates(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Equal(t, carrier.KindAuthentication, carrier.KindOf(err))
	assert.Equal(t, int64(1), api.ExchangeCalls())

	// The rejected token was dropped, so the next call re-authenticates.
	reject = false
	resp, err := c.GetRates(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Len(t, resp.Quotes, 2)
	assert.Equal(t, int64(2), api.ExchangeCalls())
}

func TestClient_GetRates_UpstreamFailure(t *testing.T) {
	api := NewMockAPIClient()
	calls := 0
	api.OnGetRates = func(ctx context.Context, accessToken, requestOption, transactionID string, req *RateWireRequest) (*RateWireResponse, error) {
		calls++
		return nil, &StatusError{StatusCode: 500, Body: []byte(`{"response":{"errors":[{"code":"110002","message":"Internal error"}]}}`)}
	}
	c := newTestClient(api)

	_, err := c.GetRates(context.Background(), sampleRequest())
	require.Error(t, err)

	cerr := carrier.AsError(err)
	assert.Equal(t, carrier.KindCarrierAPI, cerr.Kind)
	assert.True(t, cerr.Retryable)
	assert.Equal(t, "110002", cerr.UpstreamCode)
	assert.Equal(t, 1, calls)

	// A non-401 failure keeps the cached token; no second exchange.
	_, _ = c.GetRates(context.Background(), sampleRequest())
	assert.Equal(t, int64(1), api.ExchangeCalls())
}

func TestClient_GetRates_EmptyResponseIsParseError(t *testing.T) {
	api := NewMockAPIClient()
	api.OnGetRates = func(ctx context.Context, accessToken, requestOption, transactionID string, req *RateWireRequest) (*RateWireResponse, error) {
		return &RateWireResponse{}, nil
	}
	c := newTestClient(api)

	_, err := c.GetRates(context.Background(), sampleRequest())
	assert.Equal(t, carrier.KindParse, carrier.KindOf(err))
}
