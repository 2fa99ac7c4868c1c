// Package rating evaluates carrier availability and service prices for
// shippable packages.
package rating

import (
	"context"

	"github.com/tournevent/shiprate/pkg/carrier"
	"github.com/tournevent/shiprate/pkg/rating/ratecache"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// State is the typed outcome of an availability check.
type State int

const (
	// StateAvailable means the carrier quoted at least one rate for the
	// bound service's envelope.
	StateAvailable State = iota

	// StateNotServed means the destination/weight combination is outside
	// the carrier's service envelope, or no rates were offered. A normal
	// outcome, not an error.
	StateNotServed

	// StateUnreachable means the carrier could not be queried. Callers
	// that alert on carrier outages can distinguish this from NotServed.
	StateUnreachable
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateAvailable:
		return "available"
	case StateNotServed:
		return "not_served"
	case StateUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// Available reports whether the state is StateAvailable.
func (s State) Available() bool {
	return s == StateAvailable
}

// Policy answers whether a carrier serves a destination country and with
// what weight ceiling. A returned limit of 0 means no restriction.
type Policy interface {
	MaxWeight(carrierName, countryCode string) (limit float64, ok bool)
}

// Evaluator prices one named carrier service for shippable packages.
// It is bound to exactly one service descriptor.
type Evaluator struct {
	service carrier.ServiceDescriptor
	carrier carrier.Carrier
	policy  Policy
	cache   ratecache.Cache
	logger  *otelzap.Logger
}

// NewEvaluator creates an evaluator for one carrier service.
func NewEvaluator(service carrier.ServiceDescriptor, c carrier.Carrier, policy Policy, cache ratecache.Cache, logger *otelzap.Logger) *Evaluator {
	return &Evaluator{
		service: service,
		carrier: c,
		policy:  policy,
		cache:   cache,
		logger:  logger,
	}
}

// Service returns the descriptor this evaluator is bound to.
func (e *Evaluator) Service() carrier.ServiceDescriptor {
	return e.service
}

// Check performs a typed availability determination for a package.
// err is non-nil only when the result is StateUnreachable.
func (e *Evaluator) Check(ctx context.Context, pkg *carrier.Package) (State, error) {
	limit, served := e.policy.MaxWeight(e.carrier.Name(), pkg.Destination.CountryCode)
	if !served {
		return StateNotServed, nil
	}
	if limit > 0 && pkg.Weight > limit {
		return StateNotServed, nil
	}

	quotes, err := e.rates(ctx, pkg)
	if err != nil {
		return StateUnreachable, err
	}
	if len(quotes) == 0 {
		return StateNotServed, nil
	}
	return StateAvailable, nil
}

// Available reports whether the carrier can service the package. This is
// the advisory boolean boundary: communication failures collapse to false
// and are logged, never propagated, so a carrier outage cannot fail the
// caller's pricing flow.
func (e *Evaluator) Available(ctx context.Context, pkg *carrier.Package) bool {
	state, err := e.Check(ctx, pkg)
	if err != nil {
		e.logger.Warn("Carrier unreachable during availability check",
			zap.String("carrier", e.carrier.Name()),
			zap.String("service", e.service.Name),
			zap.String("destination_country", pkg.Destination.CountryCode),
			zap.Error(err),
		)
	}
	return state.Available()
}

// ComputePrice returns the price of the bound service for a package.
// A nil Money with nil error means no quote matched the bound service,
// which is a legitimate outcome. Communication errors propagate so the
// caller can decide user-facing behavior.
func (e *Evaluator) ComputePrice(ctx context.Context, pkg *carrier.Package) (*carrier.Money, error) {
	quotes, err := e.rates(ctx, pkg)
	if err != nil {
		return nil, err
	}

	quote, ok := e.matchQuote(quotes)
	if !ok {
		return nil, nil
	}

	money := carrier.MoneyFromMinorUnits(quote.Price, quote.Currency)
	return &money, nil
}

// matchQuote selects the quote for the bound service. Exact name equality
// takes precedence; the stable service code is the fallback key.
func (e *Evaluator) matchQuote(quotes []carrier.RateQuote) (carrier.RateQuote, bool) {
	for _, q := range quotes {
		if q.ServiceName == e.service.Name {
			return q, true
		}
	}
	if e.service.Code != "" {
		for _, q := range quotes {
			if q.ServiceCode == e.service.Code {
				return q, true
			}
		}
	}
	return carrier.RateQuote{}, false
}

// rates performs the memoized rate lookup. Available followed by
// ComputePrice on the same package issues at most one outbound call
// within the cache TTL.
func (e *Evaluator) rates(ctx context.Context, pkg *carrier.Package) ([]carrier.RateQuote, error) {
	key := ratecache.KeyFor(e.carrier.Name(), pkg)
	return e.cache.GetOrFetch(ctx, key, func(ctx context.Context) ([]carrier.RateQuote, error) {
		return e.carrier.FindRates(ctx, pkg)
	})
}
