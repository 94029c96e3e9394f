package ups

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// APIClient defines the interface for UPS API operations. The abstraction
// allows mock implementations in tests and the real HTTP client in
// production.
type APIClient interface {
	// ExchangeToken performs a client-credentials exchange against the
	// UPS OAuth endpoint.
	ExchangeToken(ctx context.Context) (*TokenResponse, error)

	// GetRates submits a rating request. requestOption selects the
	// endpoint variant ("Rate" for a single service, "Shop" for all
	// available services); transactionID is forwarded for upstream tracing.
	GetRates(ctx context.Context, accessToken, requestOption, transactionID string, req *RateWireRequest) (*RateWireResponse, error)
}

// Endpoint variants for the rating request.
const (
	RequestOptionRate = "Rate"
	RequestOptionShop = "Shop"
)

// ErrMalformedResponse marks a 2xx response whose body could not be decoded.
var ErrMalformedResponse = errors.New("malformed carrier response")

// StatusError is a non-2xx outcome from the UPS API, carrying the raw body
// for upstream error extraction.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from UPS API", e.StatusCode)
}

// ============================================================================
// OAuth types
// ============================================================================

// TokenResponse is the UPS OAuth token endpoint response. UPS encodes
// expires_in as a string of seconds.
type TokenResponse struct {
	TokenType   string `json:"token_type"`
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
	IssuedAt    string `json:"issued_at,omitempty"`
	ClientID    string `json:"client_id,omitempty"`
	Status      string `json:"status,omitempty"`
}

// ============================================================================
// Rating request types (UPS Rating API, all numerics as strings)
// ============================================================================

// RateWireRequest is the top-level rating request envelope.
type RateWireRequest struct {
	RateRequest RateRequestBody `json:"RateRequest"`
}

// RateRequestBody holds the request section and the shipment.
type RateRequestBody struct {
	Request  RequestSection `json:"Request"`
	Shipment WireShipment   `json:"Shipment"`
}

// RequestSection carries the per-request transaction reference.
type RequestSection struct {
	TransactionReference TransactionReference `json:"TransactionReference"`
}

// TransactionReference identifies a request for upstream tracing.
type TransactionReference struct {
	CustomerContext string `json:"CustomerContext"`
}

// WireShipment is the shipment section of a rating request.
type WireShipment struct {
	Shipper        WireParty       `json:"Shipper"`
	ShipTo         WireParty       `json:"ShipTo"`
	ShipFrom       WireParty       `json:"ShipFrom"`
	PaymentDetails *PaymentDetails `json:"PaymentDetails,omitempty"`
	Service        *WireService    `json:"Service,omitempty"`
	NumOfPieces    string          `json:"NumOfPieces,omitempty"`
	Package        PackageList     `json:"Package"`
}

// WireParty is a shipper, ship-to, or ship-from party.
type WireParty struct {
	Name          string      `json:"Name,omitempty"`
	ShipperNumber string      `json:"ShipperNumber,omitempty"`
	Address       WireAddress `json:"Address"`
}

// WireAddress is a UPS address block. ResidentialAddressIndicator is an
// empty-string presence flag in the wire format.
type WireAddress struct {
	AddressLine                 []string `json:"AddressLine,omitempty"`
	City                        string   `json:"City,omitempty"`
	StateProvinceCode           string   `json:"StateProvinceCode,omitempty"`
	PostalCode                  string   `json:"PostalCode,omitempty"`
	CountryCode                 string   `json:"CountryCode"`
	ResidentialAddressIndicator *string  `json:"ResidentialAddressIndicator,omitempty"`
}

// PaymentDetails carries billing information for negotiated rates.
type PaymentDetails struct {
	ShipmentCharge []ShipmentCharge `json:"ShipmentCharge"`
}

// ShipmentCharge bills a charge type to a payer.
type ShipmentCharge struct {
	Type        string      `json:"Type"`
	BillShipper BillShipper `json:"BillShipper"`
}

// BillShipper bills the shipper's account.
type BillShipper struct {
	AccountNumber string `json:"AccountNumber"`
}

// WireService selects one service level.
type WireService struct {
	Code        string `json:"Code"`
	Description string `json:"Description,omitempty"`
}

// UnitOfMeasurement is a wire unit code.
type UnitOfMeasurement struct {
	Code        string `json:"Code"`
	Description string `json:"Description,omitempty"`
}

// WirePackage is one package in a rating request.
type WirePackage struct {
	PackagingType PackagingType   `json:"PackagingType"`
	Dimensions    *WireDimensions `json:"Dimensions,omitempty"`
	PackageWeight PackageWeight   `json:"PackageWeight"`
}

// PackagingType describes the packaging; "02" is customer-supplied.
type PackagingType struct {
	Code        string `json:"Code"`
	Description string `json:"Description,omitempty"`
}

// WireDimensions carries package dimensions as decimal strings.
type WireDimensions struct {
	UnitOfMeasurement UnitOfMeasurement `json:"UnitOfMeasurement"`
	Length            string            `json:"Length"`
	Width             string            `json:"Width"`
	Height            string            `json:"Height"`
}

// PackageWeight carries a package weight as a decimal string.
type PackageWeight struct {
	UnitOfMeasurement UnitOfMeasurement `json:"UnitOfMeasurement"`
	Weight            string            `json:"Weight"`
}

// PackageList serializes as a singular object when it holds exactly one
// package and as an array otherwise, matching the UPS wire shape. The
// choice is resolved at encode time.
type PackageList []WirePackage

// MarshalJSON implements the object-or-array wire shape.
func (p PackageList) MarshalJSON() ([]byte, error) {
	if len(p) == 1 {
		return json.Marshal(p[0])
	}
	return json.Marshal([]WirePackage(p))
}

// UnmarshalJSON accepts both the singular-object and array forms.
func (p *PackageList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var many []WirePackage
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*p = many
		return nil
	}
	var one WirePackage
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*p = PackageList{one}
	return nil
}

// ============================================================================
// Rating response types
// ============================================================================

// RateWireResponse is the top-level rating response envelope.
type RateWireResponse struct {
	RateResponse *RateResponseBody `json:"RateResponse"`
}

// RateResponseBody holds the response status and the rated shipments.
type RateResponseBody struct {
	Response      WireResponseStatus `json:"Response"`
	RatedShipment RatedShipmentList  `json:"RatedShipment"`
}

// WireResponseStatus is the per-response status block.
type WireResponseStatus struct {
	ResponseStatus       *WireCode             `json:"ResponseStatus,omitempty"`
	TransactionReference *TransactionReference `json:"TransactionReference,omitempty"`
}

// WireCode is a generic code/description pair.
type WireCode struct {
	Code        string `json:"Code"`
	Description string `json:"Description,omitempty"`
}

// RatedShipmentList decodes the object-or-array RatedShipment field.
type RatedShipmentList []RatedShipment

// UnmarshalJSON accepts both the singular-object and array forms.
func (l *RatedShipmentList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}
	if trimmed[0] == '[' {
		var many []RatedShipment
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*l = many
		return nil
	}
	var one RatedShipment
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*l = RatedShipmentList{one}
	return nil
}

// RatedShipment is one per-service-level rated shipment record.
type RatedShipment struct {
	Service               WireService         `json:"Service"`
	RatedShipmentAlert    []WireAlert         `json:"RatedShipmentAlert,omitempty"`
	BillingWeight         *WireBillingWeight  `json:"BillingWeight,omitempty"`
	TransportationCharges WireCharge          `json:"TransportationCharges"`
	ServiceOptionsCharges *WireCharge         `json:"ServiceOptionsCharges,omitempty"`
	TotalCharges          WireCharge          `json:"TotalCharges"`
	GuaranteedDelivery    *GuaranteedDelivery `json:"GuaranteedDelivery,omitempty"`
	TimeInTransit         *TimeInTransit      `json:"TimeInTransit,omitempty"`
}

// WireAlert is a carrier warning attached to a rated shipment.
type WireAlert struct {
	Code        string `json:"Code"`
	Description string `json:"Description"`
}

// WireBillingWeight is the billed weight of a rated shipment.
type WireBillingWeight struct {
	UnitOfMeasurement UnitOfMeasurement `json:"UnitOfMeasurement"`
	Weight            string            `json:"Weight"`
}

// WireCharge is a monetary amount as a decimal string.
type WireCharge struct {
	CurrencyCode  string `json:"CurrencyCode"`
	MonetaryValue string `json:"MonetaryValue"`
}

// GuaranteedDelivery is the delivery commitment block; its presence means
// the service carries a delivery guarantee.
type GuaranteedDelivery struct {
	BusinessDaysInTransit string `json:"BusinessDaysInTransit,omitempty"`
	DeliveryByTime        string `json:"DeliveryByTime,omitempty"`
}

// TimeInTransit is the fallback transit-time summary.
type TimeInTransit struct {
	ServiceSummary *ServiceSummary `json:"ServiceSummary,omitempty"`
}

// ServiceSummary nests the estimated arrival of a service.
type ServiceSummary struct {
	EstimatedArrival *EstimatedArrival `json:"EstimatedArrival,omitempty"`
}

// EstimatedArrival carries the estimated business days in transit.
type EstimatedArrival struct {
	BusinessDaysInTransit string `json:"BusinessDaysInTransit,omitempty"`
}

// ============================================================================
// Error envelope
// ============================================================================

// ErrorEnvelope is the UPS structured error body returned on non-2xx.
type ErrorEnvelope struct {
	Response ErrorResponse `json:"response"`
}

// ErrorResponse holds the upstream error records.
type ErrorResponse struct {
	Errors []UpstreamError `json:"errors"`
}

// UpstreamError is one upstream code/message pair; the first record is used
// for classification.
type UpstreamError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
