package carrier

import (
	"github.com/shopspring/decimal"
)

// WeightUnit represents a weight measurement unit.
type WeightUnit string

const (
	WeightLB WeightUnit = "LB"
	WeightKG WeightUnit = "KG"
	WeightOZ WeightUnit = "OZ"
)

// DimensionUnit represents a dimension measurement unit.
type DimensionUnit string

const (
	DimensionIN DimensionUnit = "IN"
	DimensionCM DimensionUnit = "CM"
)

// Address represents a shipping address. It is a value object constructed by
// the caller and never mutated by the library.
type Address struct {
	Name          string `json:"name,omitempty"`
	Line1         string `json:"line1" validate:"required"`
	Line2         string `json:"line2,omitempty"`
	Line3         string `json:"line3,omitempty"`
	City          string `json:"city" validate:"required"`
	StateProvince string `json:"stateProvince,omitempty" validate:"omitempty,len=2"`
	PostalCode    string `json:"postalCode" validate:"required"`
	CountryCode   string `json:"countryCode" validate:"required,len=2"` // ISO 3166-1 alpha-2
	Residential   bool   `json:"residential,omitempty"`
}

// Lines returns the populated address lines in order.
func (a Address) Lines() []string {
	lines := make([]string, 0, 3)
	for _, l := range []string{a.Line1, a.Line2, a.Line3} {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// Dimensions represents package dimensions.
type Dimensions struct {
	Length float64       `json:"length" validate:"gt=0"`
	Width  float64       `json:"width" validate:"gt=0"`
	Height float64       `json:"height" validate:"gt=0"`
	Unit   DimensionUnit `json:"unit" validate:"oneof=IN CM"`
}

// Package represents a package to be rated.
type Package struct {
	Weight     float64     `json:"weight" validate:"gt=0"`
	WeightUnit WeightUnit  `json:"weightUnit" validate:"oneof=LB KG OZ"`
	Dimensions *Dimensions `json:"dimensions,omitempty" validate:"omitempty"`
}

// RateRequest is the normalized rate request submitted by callers.
//
// ServiceCode is carrier-defined; when empty, the carrier returns all
// available service levels ("shop" mode). AccountNumber enables
// negotiated-rate billing and must be exactly 6 characters when present.
type RateRequest struct {
	Origin        Address   `json:"origin" validate:"required"`
	Destination   Address   `json:"destination" validate:"required"`
	Packages      []Package `json:"packages" validate:"required,min=1,max=200,dive"`
	ServiceCode   string    `json:"serviceCode,omitempty"`
	AccountNumber string    `json:"accountNumber,omitempty" validate:"omitempty,len=6"`
}

// Money represents a monetary amount. Amounts pass through as the carrier
// reports them; no currency conversion is performed.
type Money struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// BillingWeight is the weight a carrier billed the shipment at.
type BillingWeight struct {
	Value float64    `json:"value"`
	Unit  WeightUnit `json:"unit"`
}

// RateQuote is one normalized service-level quote. Quotes are produced only
// by carrier response mappers, never hand-constructed outside tests.
type RateQuote struct {
	Carrier               string         `json:"carrier"`
	ServiceCode           string         `json:"serviceCode"`
	ServiceName           string         `json:"serviceName"`
	TotalCharges          Money          `json:"totalCharges"`
	TransportationCharges Money          `json:"transportationCharges"`
	ServiceOptionsCharges *Money         `json:"serviceOptionsCharges,omitempty"`
	BillingWeight         *BillingWeight `json:"billingWeight,omitempty"`
	GuaranteedDelivery    bool           `json:"guaranteedDelivery"`
	// EstimatedDays is the carrier's business-days-in-transit estimate;
	// zero means the carrier did not report one.
	EstimatedDays int      `json:"estimatedDays,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

// RateResponse is one carrier's answer to a rate request.
type RateResponse struct {
	Quotes []RateQuote `json:"quotes"`
}

// CarrierFailure pairs a carrier identifier with the error it produced
// during a shop fan-out.
type CarrierFailure struct {
	Carrier string `json:"carrier"`
	Err     *Error `json:"error"`
}

// ShopResult aggregates a multi-carrier shop call: quotes from every carrier
// that succeeded, sorted ascending by total charges, plus one failure entry
// per carrier that did not.
type ShopResult struct {
	Quotes   []RateQuote      `json:"quotes"`
	Failures []CarrierFailure `json:"errors,omitempty"`
}
