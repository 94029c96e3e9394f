package carrier

import (
	"context"
	"sort"
	"sync"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// unknownCarrier marks a shop failure whose error did not identify its carrier.
const unknownCarrier = "UNKNOWN"

// Orchestrator routes single-carrier rate requests and fans out
// multi-carrier shop requests across the registry.
type Orchestrator struct {
	registry *Registry
	logger   *otelzap.Logger
}

// NewOrchestrator creates a new orchestrator over the given registry.
func NewOrchestrator(registry *Registry, logger *otelzap.Logger) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		logger:   logger,
	}
}

// GetRates returns quotes from one named carrier. Failures from the carrier
// propagate unchanged; an unregistered name is a configuration error.
func (o *Orchestrator) GetRates(ctx context.Context, carrierName string, req *RateRequest) (*RateResponse, error) {
	c, ok := o.registry.Get(carrierName)
	if !ok {
		return nil, NewError(KindConfiguration, "carrier not registered: "+carrierName)
	}
	return c.GetRates(ctx, req)
}

// ShopRates invokes every registered carrier concurrently and independently.
// One carrier's failure never prevents collection of another's quotes; every
// outcome is captured. Quotes are merged and sorted ascending by total
// charges; ties keep the order produced by the fan-out.
func (o *Orchestrator) ShopRates(ctx context.Context, req *RateRequest) (*ShopResult, error) {
	carriers := o.registry.All()
	if len(carriers) == 0 {
		return nil, NewError(KindConfiguration, "no carriers registered")
	}

	result := &ShopResult{}
	mu := &sync.Mutex{}

	g, ctx := errgroup.WithContext(ctx)

	for _, c := range carriers {
		g.Go(func() error {
			resp, err := c.GetRates(ctx, req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				cerr := AsError(err)
				name := cerr.Carrier
				if name == "" {
					name = unknownCarrier
				}
				o.logger.Warn("Carrier failed during shop",
					zap.String("carrier", c.Name()),
					zap.String("kind", string(cerr.Kind)),
					zap.Error(cerr),
				)
				result.Failures = append(result.Failures, CarrierFailure{Carrier: name, Err: cerr})
				return nil // keep collecting from the other carriers
			}
			result.Quotes = append(result.Quotes, resp.Quotes...)
			return nil
		})
	}

	g.Wait()

	sort.SliceStable(result.Quotes, func(i, j int) bool {
		return result.Quotes[i].TotalCharges.Amount.Cmp(result.Quotes[j].TotalCharges.Amount) < 0
	})

	return result, nil
}
