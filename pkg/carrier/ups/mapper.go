package ups

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/tournevent/ratebridge/pkg/carrier"
)

// Unit code tables. Static read-only data; safe to share without
// synchronization.
var weightUnitCodes = map[carrier.WeightUnit]string{
	carrier.WeightLB: "LBS",
	carrier.WeightKG: "KGS",
	carrier.WeightOZ: "OZS",
}

var weightUnitsByCode = map[string]carrier.WeightUnit{
	"LBS": carrier.WeightLB,
	"KGS": carrier.WeightKG,
	"OZS": carrier.WeightOZ,
}

var dimensionUnitCodes = map[carrier.DimensionUnit]string{
	carrier.DimensionIN: "IN",
	carrier.DimensionCM: "CM",
}

// serviceNames maps UPS service codes to display names, used when the
// response omits a service description.
var serviceNames = map[string]string{
	"01": "UPS Next Day Air",
	"02": "UPS 2nd Day Air",
	"03": "UPS Ground",
	"07": "UPS Worldwide Express",
	"08": "UPS Worldwide Expedited",
	"11": "UPS Standard",
	"12": "UPS 3 Day Select",
	"13": "UPS Next Day Air Saver",
	"14": "UPS Next Day Air Early",
	"59": "UPS 2nd Day Air A.M.",
	"65": "UPS Worldwide Saver",
}

// ============================================================================
// Outbound: normalized request -> wire request
// ============================================================================

// buildRateRequest translates a normalized rate request into the UPS wire
// request and selects the endpoint variant: "Rate" when a service code is
// requested, "Shop" otherwise.
func buildRateRequest(req *carrier.RateRequest, transactionID string) (*RateWireRequest, string) {
	requestOption := RequestOptionShop
	shipment := WireShipment{
		Shipper:  partyToWire(req.Origin, req.AccountNumber),
		ShipTo:   partyToWire(req.Destination, ""),
		ShipFrom: partyToWire(req.Origin, ""),
		Package:  packagesToWire(req.Packages),
	}

	if req.ServiceCode != "" {
		requestOption = RequestOptionRate
		shipment.Service = &WireService{Code: req.ServiceCode}
	}

	if req.AccountNumber != "" {
		shipment.PaymentDetails = &PaymentDetails{
			ShipmentCharge: []ShipmentCharge{
				{
					Type:        "01", // transportation charges
					BillShipper: BillShipper{AccountNumber: req.AccountNumber},
				},
			},
		}
	}

	if n := len(req.Packages); n > 1 {
		shipment.NumOfPieces = strconv.Itoa(n)
	}

	return &RateWireRequest{
		RateRequest: RateRequestBody{
			Request: RequestSection{
				TransactionReference: TransactionReference{CustomerContext: transactionID},
			},
			Shipment: shipment,
		},
	}, requestOption
}

func partyToWire(addr carrier.Address, accountNumber string) WireParty {
	wire := WireAddress{
		AddressLine:       addr.Lines(),
		City:              addr.City,
		StateProvinceCode: addr.StateProvince,
		PostalCode:        addr.PostalCode,
		CountryCode:       addr.CountryCode,
	}
	if addr.Residential {
		// Presence flag: UPS expects an empty-string indicator.
		indicator := ""
		wire.ResidentialAddressIndicator = &indicator
	}
	return WireParty{
		Name:          addr.Name,
		ShipperNumber: accountNumber,
		Address:       wire,
	}
}

func packagesToWire(pkgs []carrier.Package) PackageList {
	wire := make(PackageList, len(pkgs))
	for i, p := range pkgs {
		wp := WirePackage{
			PackagingType: PackagingType{Code: "02", Description: "Packaging"},
			PackageWeight: PackageWeight{
				UnitOfMeasurement: UnitOfMeasurement{Code: weightUnitCodes[p.WeightUnit]},
				Weight:            formatDecimal(p.Weight),
			},
		}
		if p.Dimensions != nil {
			wp.Dimensions = &WireDimensions{
				UnitOfMeasurement: UnitOfMeasurement{Code: dimensionUnitCodes[p.Dimensions.Unit]},
				Length:            formatDecimal(p.Dimensions.Length),
				Width:             formatDecimal(p.Dimensions.Width),
				Height:            formatDecimal(p.Dimensions.Height),
			}
		}
		wire[i] = wp
	}
	return wire
}

// formatDecimal serializes a numeric value as a decimal string, preserving
// fractional weights.
func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ============================================================================
// Inbound: wire response -> normalized quotes
// ============================================================================

// parseRateResponse validates the response envelope and maps every rated
// shipment record to a normalized quote.
func parseRateResponse(resp *RateWireResponse) ([]carrier.RateQuote, error) {
	if resp == nil || resp.RateResponse == nil {
		return nil, parseError("response missing RateResponse envelope")
	}
	if len(resp.RateResponse.RatedShipment) == 0 {
		return nil, parseError("response missing RatedShipment records")
	}

	quotes := make([]carrier.RateQuote, 0, len(resp.RateResponse.RatedShipment))
	for _, rs := range resp.RateResponse.RatedShipment {
		quote, err := parseRatedShipment(rs)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, quote)
	}
	return quotes, nil
}

// parseRatedShipment maps one rated shipment record to a RateQuote.
func parseRatedShipment(rs RatedShipment) (carrier.RateQuote, error) {
	quote := carrier.RateQuote{
		Carrier:     carrierName,
		ServiceCode: rs.Service.Code,
		ServiceName: serviceName(rs.Service),
	}

	total, err := parseCharge("TotalCharges", rs.TotalCharges)
	if err != nil {
		return carrier.RateQuote{}, err
	}
	quote.TotalCharges = total

	transportation, err := parseCharge("TransportationCharges", rs.TransportationCharges)
	if err != nil {
		return carrier.RateQuote{}, err
	}
	quote.TransportationCharges = transportation

	if rs.ServiceOptionsCharges != nil {
		options, err := parseCharge("ServiceOptionsCharges", *rs.ServiceOptionsCharges)
		if err != nil {
			return carrier.RateQuote{}, err
		}
		quote.ServiceOptionsCharges = &options
	}

	if rs.BillingWeight != nil {
		bw, err := parseBillingWeight(rs.BillingWeight)
		if err != nil {
			return carrier.RateQuote{}, err
		}
		quote.BillingWeight = bw
	}

	// The presence of a delivery commitment is the guarantee signal.
	if rs.GuaranteedDelivery != nil {
		quote.GuaranteedDelivery = true
		if days, err := strconv.Atoi(rs.GuaranteedDelivery.BusinessDaysInTransit); err == nil {
			quote.EstimatedDays = days
		}
	}
	if quote.EstimatedDays == 0 {
		quote.EstimatedDays = transitSummaryDays(rs.TimeInTransit)
	}

	for _, alert := range rs.RatedShipmentAlert {
		if alert.Description != "" {
			quote.Warnings = append(quote.Warnings, alert.Description)
		}
	}

	return quote, nil
}

func serviceName(svc WireService) string {
	if svc.Description != "" {
		return svc.Description
	}
	if name, ok := serviceNames[svc.Code]; ok {
		return name
	}
	return fmt.Sprintf("UPS Service %s", svc.Code)
}

// parseCharge parses a wire monetary value. Malformed decimal strings are a
// hard parse failure, never a silent zero.
func parseCharge(field string, ch WireCharge) (carrier.Money, error) {
	amount, err := decimal.NewFromString(ch.MonetaryValue)
	if err != nil {
		return carrier.Money{}, parseError(fmt.Sprintf("%s carried a malformed monetary value %q", field, ch.MonetaryValue)).WithCause(err)
	}
	return carrier.Money{Currency: ch.CurrencyCode, Amount: amount}, nil
}

// parseBillingWeight reverse-translates the billed weight through the same
// unit table used outbound. An unrecognized unit code is a hard failure.
func parseBillingWeight(bw *WireBillingWeight) (*carrier.BillingWeight, error) {
	unit, ok := weightUnitsByCode[bw.UnitOfMeasurement.Code]
	if !ok {
		return nil, parseError(fmt.Sprintf("BillingWeight carried an unrecognized unit code %q", bw.UnitOfMeasurement.Code))
	}
	value, err := strconv.ParseFloat(bw.Weight, 64)
	if err != nil {
		return nil, parseError(fmt.Sprintf("BillingWeight carried a malformed weight %q", bw.Weight)).WithCause(err)
	}
	return &carrier.BillingWeight{Value: value, Unit: unit}, nil
}

func transitSummaryDays(tit *TimeInTransit) int {
	if tit == nil || tit.ServiceSummary == nil || tit.ServiceSummary.EstimatedArrival == nil {
		return 0
	}
	days, err := strconv.Atoi(tit.ServiceSummary.EstimatedArrival.BusinessDaysInTransit)
	if err != nil {
		return 0
	}
	return days
}

func parseError(message string) *carrier.Error {
	return carrier.NewError(carrier.KindParse, message).WithCarrier(carrierName)
}
