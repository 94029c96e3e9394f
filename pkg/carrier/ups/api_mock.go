package ups

import (
	"context"
	"sync/atomic"
	"time"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnExchangeToken func(ctx context.Context) (*TokenResponse, error)
	OnGetRates      func(ctx context.Context, accessToken, requestOption, transactionID string, req *RateWireRequest) (*RateWireResponse, error)

	exchangeCalls atomic.Int64
	rateCalls     atomic.Int64
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// ExchangeCalls returns how many token exchanges were attempted.
func (m *MockAPIClient) ExchangeCalls() int64 {
	return m.exchangeCalls.Load()
}

// RateCalls returns how many rating calls were attempted.
func (m *MockAPIClient) RateCalls() int64 {
	return m.rateCalls.Load()
}

// ExchangeToken returns a mock OAuth token.
func (m *MockAPIClient) ExchangeToken(ctx context.Context) (*TokenResponse, error) {
	m.exchangeCalls.Add(1)

	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &StatusError{StatusCode: 401, Body: []byte(`{"response":{"errors":[{"code":"250002","message":"Invalid Authentication Information."}]}}`)}
	}

	if m.OnExchangeToken != nil {
		return m.OnExchangeToken(ctx)
	}

	return &TokenResponse{
		TokenType:   "Bearer",
		AccessToken: "mock-access-token",
		ExpiresIn:   "14399",
	}, nil
}

// GetRates returns mock rated shipments.
func (m *MockAPIClient) GetRates(ctx context.Context, accessToken, requestOption, transactionID string, req *RateWireRequest) (*RateWireResponse, error) {
	m.rateCalls.Add(1)

	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &StatusError{StatusCode: 500, Body: []byte(`{"response":{"errors":[{"code":"110002","message":"Simulated failure."}]}}`)}
	}

	if m.OnGetRates != nil {
		return m.OnGetRates(ctx, accessToken, requestOption, transactionID, req)
	}

	shipments := RatedShipmentList{
		{
			Service: WireService{Code: "03"},
			BillingWeight: &WireBillingWeight{
				UnitOfMeasurement: UnitOfMeasurement{Code: "LBS"},
				Weight:            "6.0",
			},
			TransportationCharges: WireCharge{CurrencyCode: "USD", MonetaryValue: "11.30"},
			ServiceOptionsCharges: &WireCharge{CurrencyCode: "USD", MonetaryValue: "0.00"},
			TotalCharges:          WireCharge{CurrencyCode: "USD", MonetaryValue: "11.30"},
			TimeInTransit: &TimeInTransit{
				ServiceSummary: &ServiceSummary{
					EstimatedArrival: &EstimatedArrival{BusinessDaysInTransit: "3"},
				},
			},
		},
		{
			Service: WireService{Code: "02", Description: "UPS 2nd Day Air"},
			BillingWeight: &WireBillingWeight{
				UnitOfMeasurement: UnitOfMeasurement{Code: "LBS"},
				Weight:            "6.0",
			},
			TransportationCharges: WireCharge{CurrencyCode: "USD", MonetaryValue: "24.10"},
			TotalCharges:          WireCharge{CurrencyCode: "USD", MonetaryValue: "25.85"},
			GuaranteedDelivery:    &GuaranteedDelivery{BusinessDaysInTransit: "2"},
		},
	}

	// Rate mode returns the single requested service.
	if requestOption == RequestOptionRate {
		code := ""
		if req.RateRequest.Shipment.Service != nil {
			code = req.RateRequest.Shipment.Service.Code
		}
		for _, rs := range shipments {
			if rs.Service.Code == code {
				shipments = RatedShipmentList{rs}
				break
			}
		}
		shipments = shipments[:1]
	}

	return &RateWireResponse{
		RateResponse: &RateResponseBody{
			Response: WireResponseStatus{
				ResponseStatus:       &WireCode{Code: "1", Description: "Success"},
				TransactionReference: &TransactionReference{CustomerContext: transactionID},
			},
			RatedShipment: shipments,
		},
	}, nil
}

var _ APIClient = (*MockAPIClient)(nil)
