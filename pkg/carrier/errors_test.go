package carrier_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/ratebridge/pkg/carrier"
)

func TestError_Error(t *testing.T) {
	err := carrier.NewError(carrier.KindRateLimit, "slow down").WithCarrier("ups")
	assert.Equal(t, "ups RATE_LIMIT_ERROR: slow down", err.Error())
}

func TestError_Error_WithCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := carrier.NewError(carrier.KindNetwork, "no response").WithCause(cause)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestError_Is_MatchesByKind(t *testing.T) {
	err := carrier.NewError(carrier.KindTimeout, "took too long")
	wrapped := fmt.Errorf("outer: %w", err)

	assert.True(t, errors.Is(wrapped, carrier.NewError(carrier.KindTimeout, "")))
	assert.False(t, errors.Is(wrapped, carrier.NewError(carrier.KindNetwork, "")))
}

func TestIsRetryable(t *testing.T) {
	retryable := carrier.NewError(carrier.KindRateLimit, "slow down").WithRetryable(true)
	assert.True(t, carrier.IsRetryable(retryable))

	permanent := carrier.NewError(carrier.KindValidation, "bad input")
	assert.False(t, carrier.IsRetryable(permanent))

	assert.False(t, carrier.IsRetryable(errors.New("opaque")))
}

func TestKindOf(t *testing.T) {
	err := carrier.NewError(carrier.KindParse, "bad body")
	assert.Equal(t, carrier.KindParse, carrier.KindOf(fmt.Errorf("outer: %w", err)))
	assert.Equal(t, carrier.KindUnknown, carrier.KindOf(errors.New("opaque")))
}

func TestAsError_WrapsOpaqueErrors(t *testing.T) {
	opaque := errors.New("something broke")
	cerr := carrier.AsError(opaque)

	require.NotNil(t, cerr)
	assert.Equal(t, carrier.KindUnknown, cerr.Kind)
	assert.False(t, cerr.Retryable)
	assert.Equal(t, opaque, errors.Unwrap(cerr))
}

func TestAsError_PreservesClassified(t *testing.T) {
	classified := carrier.NewError(carrier.KindAuthorization, "denied").WithCarrier("ups")
	got := carrier.AsError(fmt.Errorf("outer: %w", classified))
	assert.Same(t, classified, got)
}

func TestAsError_Nil(t *testing.T) {
	assert.Nil(t, carrier.AsError(nil))
}

func TestError_MarshalJSON(t *testing.T) {
	err := carrier.NewError(carrier.KindCarrierAPI, "upstream rejected the request").
		WithCarrier("ups").
		WithHTTPStatus(400).
		WithUpstream("110208", "Missing shipment information").
		WithCause(errors.New("raw cause is not serialized"))

	data, merr := json.Marshal(err)
	require.NoError(t, merr)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, "CARRIER_API_ERROR", payload["code"])
	assert.Equal(t, "ups", payload["carrier"])
	assert.Equal(t, float64(400), payload["httpStatus"])
	assert.Equal(t, "110208", payload["upstreamCode"])
	assert.Equal(t, false, payload["retryable"])
	assert.NotContains(t, payload, "cause")
}
