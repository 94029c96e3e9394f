package ups

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/tournevent/ratebridge/pkg/carrier"
)

// translateError classifies transport and carrier failures into the closed
// taxonomy. Already-classified errors pass through unchanged.
func translateError(err error) *carrier.Error {
	if err == nil {
		return nil
	}

	var cerr *carrier.Error
	if errors.As(err, &cerr) {
		return cerr
	}

	var netErr net.Error
	if (errors.As(err, &netErr) && netErr.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
		return carrier.NewError(carrier.KindTimeout, "request to UPS timed out").
			WithCarrier(carrierName).
			WithRetryable(true).
			WithCause(err)
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return translateStatus(statusErr)
	}

	if errors.Is(err, ErrMalformedResponse) {
		return carrier.NewError(carrier.KindParse, "UPS returned a malformed response body").
			WithCarrier(carrierName).
			WithCause(err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return carrier.NewError(carrier.KindNetwork, "no response from UPS").
			WithCarrier(carrierName).
			WithRetryable(true).
			WithCause(err)
	}

	return carrier.NewError(carrier.KindUnknown, err.Error()).
		WithCarrier(carrierName).
		WithCause(err)
}

// translateStatus maps a non-2xx response by status code, attaching the
// first structured upstream error record when the body carries one.
func translateStatus(statusErr *StatusError) *carrier.Error {
	code, message := extractUpstreamError(statusErr.Body)

	var cerr *carrier.Error
	switch statusErr.StatusCode {
	case 401:
		// The token may simply be stale; the caller re-authenticates.
		cerr = carrier.NewError(carrier.KindAuthentication, "UPS rejected the credentials").
			WithRetryable(true)
	case 403:
		cerr = carrier.NewError(carrier.KindAuthorization, "UPS denied access to the requested resource")
	case 429:
		cerr = carrier.NewError(carrier.KindRateLimit, "UPS rate limit exceeded").
			WithRetryable(true)
	default:
		msg := fmt.Sprintf("UPS API returned status %d", statusErr.StatusCode)
		if message != "" {
			msg = message
		}
		cerr = carrier.NewError(carrier.KindCarrierAPI, msg).
			WithRetryable(statusErr.StatusCode >= 500)
	}

	cerr = cerr.WithCarrier(carrierName).
		WithHTTPStatus(statusErr.StatusCode).
		WithCause(statusErr)
	if code != "" || message != "" {
		cerr = cerr.WithUpstream(code, message)
	}
	return cerr
}

// extractUpstreamError pulls the first {code, message} record out of the
// UPS error envelope; both values are empty when the body has no envelope.
func extractUpstreamError(body []byte) (code, message string) {
	var envelope ErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", ""
	}
	if len(envelope.Response.Errors) == 0 {
		return "", ""
	}
	first := envelope.Response.Errors[0]
	return first.Code, first.Message
}
