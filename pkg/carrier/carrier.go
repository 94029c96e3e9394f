// Package carrier provides a carrier-agnostic abstraction for shipping rates.
package carrier

import (
	"context"
)

// Carrier defines the interface that all shipping carrier integrations must
// implement to participate in the registry.
type Carrier interface {
	// Name returns the carrier identifier (e.g., "ups", "mock").
	Name() string

	// GetRates returns normalized rate quotes for a shipment.
	GetRates(ctx context.Context, req *RateRequest) (*RateResponse, error)
}
