// Package mock provides a mock carrier implementation for testing.
package mock

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tournevent/ratebridge/pkg/carrier"
)

// Client is a mock carrier for testing and local runs. It validates input
// like a real carrier and returns deterministic quotes, or a configured
// error when one is injected.
type Client struct {
	name string

	// Quotes overrides the default canned quotes when non-nil.
	Quotes []carrier.RateQuote

	// Err is returned from every GetRates call when non-nil.
	Err *carrier.Error
}

// New creates a new mock carrier.
func New(name string) *Client {
	return &Client{name: name}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return c.name
}

// GetRates returns mock rate quotes.
func (c *Client) GetRates(ctx context.Context, req *carrier.RateRequest) (*carrier.RateResponse, error) {
	if verr := carrier.ValidateRateRequest(req); verr != nil {
		return nil, verr.WithCarrier(c.name)
	}
	if c.Err != nil {
		return nil, c.Err
	}
	if c.Quotes != nil {
		return &carrier.RateResponse{Quotes: c.Quotes}, nil
	}

	quotes := []carrier.RateQuote{
		{
			Carrier:               c.name,
			ServiceCode:           "STANDARD",
			ServiceName:           fmt.Sprintf("%s Standard", c.name),
			TotalCharges:          money("15.82"),
			TransportationCharges: money("14.00"),
			EstimatedDays:         5,
		},
		{
			Carrier:               c.name,
			ServiceCode:           "EXPRESS",
			ServiceName:           fmt.Sprintf("%s Express", c.name),
			TotalCharges:          money("29.95"),
			TransportationCharges: money("26.50"),
			GuaranteedDelivery:    true,
			EstimatedDays:         2,
		},
	}

	if req.ServiceCode != "" {
		for _, q := range quotes {
			if q.ServiceCode == req.ServiceCode {
				return &carrier.RateResponse{Quotes: []carrier.RateQuote{q}}, nil
			}
		}
		return nil, carrier.NewError(carrier.KindCarrierAPI, "unknown service code: "+req.ServiceCode).
			WithCarrier(c.name)
	}

	return &carrier.RateResponse{Quotes: quotes}, nil
}

func money(amount string) carrier.Money {
	return carrier.Money{Currency: "USD", Amount: decimal.RequireFromString(amount)}
}

var _ carrier.Carrier = (*Client)(nil)
