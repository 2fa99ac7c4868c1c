// Package ratecache memoizes carrier rate lookups for a bounded time window.
package ratecache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/tournevent/shiprate/pkg/carrier"
)

// Key identifies one rate lookup. Equality is value-based, so Key is
// usable directly as a map key.
type Key struct {
	Carrier           string
	OriginCountry     string
	OriginPostal      string
	DestinationCountry string
	DestinationPostal string
	WeightKg          float64
}

// KeyFor builds the cache key for a package against one carrier.
func KeyFor(carrierName string, pkg *carrier.Package) Key {
	return Key{
		Carrier:            carrierName,
		OriginCountry:      pkg.Origin.CountryCode,
		OriginPostal:       pkg.Origin.PostalCode,
		DestinationCountry: pkg.Destination.CountryCode,
		DestinationPostal:  pkg.Destination.PostalCode,
		WeightKg:           pkg.Weight,
	}
}

// String renders the key for backends that need a flat identifier.
func (k Key) String() string {
	return fmt.Sprintf("rates:%s:%s:%s:%s:%s:%s",
		k.Carrier, k.OriginCountry, k.OriginPostal,
		k.DestinationCountry, k.DestinationPostal,
		strconv.FormatFloat(k.WeightKg, 'f', 3, 64))
}

// FetchFunc performs the outbound rate lookup on a cache miss.
type FetchFunc func(ctx context.Context) ([]carrier.RateQuote, error)

// Cache memoizes rate lookups per key until the TTL elapses. Failed
// fetches are never cached, so a transient carrier outage is retried on
// the next call.
type Cache interface {
	// GetOrFetch returns the cached quotes for key, invoking fetch once
	// on a miss and storing its result.
	GetOrFetch(ctx context.Context, key Key, fetch FetchFunc) ([]carrier.RateQuote, error)

	// Clear drops all cached entries. Used between independent pricing
	// sessions.
	Clear(ctx context.Context) error
}

// Memory is an in-process Cache guarded by a mutex, with lazy TTL expiry
// on read.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[Key]memoryEntry
}

type memoryEntry struct {
	quotes    []carrier.RateQuote
	expiresAt time.Time
}

// NewMemory creates an in-memory cache with the given TTL.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[Key]memoryEntry),
	}
}

// SetClock overrides the cache's time source. Tests use this to exercise
// expiry without sleeping.
func (c *Memory) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// GetOrFetch implements Cache.
func (c *Memory) GetOrFetch(ctx context.Context, key Key, fetch FetchFunc) ([]carrier.RateQuote, error) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && c.now().Before(entry.expiresAt) {
		c.mu.Unlock()
		return entry.quotes, nil
	}
	if ok {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	quotes, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = memoryEntry{quotes: quotes, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()

	return quotes, nil
}

// Clear implements Cache.
func (c *Memory) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]memoryEntry)
	return nil
}

var _ Cache = (*Memory)(nil)
