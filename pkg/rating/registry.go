package rating

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tournevent/shiprate/pkg/carrier"
	"golang.org/x/sync/errgroup"
)

// ErrServiceNotFound indicates no evaluator is registered for a service code.
var ErrServiceNotFound = errors.New("service not found")

// ServicePrice is one service's priced result from a registry fan-out.
type ServicePrice struct {
	Service carrier.ServiceDescriptor
	Price   *carrier.Money // nil when the service did not appear in the quote set
}

// Registry manages the rate evaluators of the configured services.
type Registry struct {
	evaluators map[string]*Evaluator
	mu         sync.RWMutex
}

// NewRegistry creates a new evaluator registry.
func NewRegistry() *Registry {
	return &Registry{
		evaluators: make(map[string]*Evaluator),
	}
}

// Register adds an evaluator, keyed by its service code.
func (r *Registry) Register(e *Evaluator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evaluators[e.Service().Code] = e
}

// Get returns the evaluator for a service code.
func (r *Registry) Get(code string) (*Evaluator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.evaluators[code]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, code)
}

// All returns all registered evaluators.
func (r *Registry) All() []*Evaluator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Evaluator, 0, len(r.evaluators))
	for _, e := range r.evaluators {
		result = append(result, e)
	}
	return result
}

// Codes returns the service codes of all registered evaluators.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]string, 0, len(r.evaluators))
	for code := range r.evaluators {
		codes = append(codes, code)
	}
	return codes
}

// Count returns the number of registered evaluators.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.evaluators)
}

// PriceAll computes prices for all registered services in parallel.
// Individual service failures are collected but don't fail the entire
// request; services without a matching quote are skipped.
func (r *Registry) PriceAll(ctx context.Context, pkg *carrier.Package) ([]ServicePrice, []error) {
	evaluators := r.All()
	if len(evaluators) == 0 {
		return nil, []error{ErrServiceNotFound}
	}

	results := make([]ServicePrice, 0, len(evaluators))
	errs := make([]error, 0)
	mu := &sync.Mutex{}

	g, ctx := errgroup.WithContext(ctx)

	for _, e := range evaluators {
		e := e
		g.Go(func() error {
			price, err := e.ComputePrice(ctx, pkg)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", e.Service().Name, err))
				return nil // don't fail the group, continue with other services
			}
			if price == nil {
				return nil
			}
			results = append(results, ServicePrice{Service: e.Service(), Price: price})
			return nil
		})
	}

	g.Wait()
	return results, errs
}
