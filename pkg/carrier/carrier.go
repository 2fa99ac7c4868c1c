// Package carrier provides an abstraction layer for the parcel carrier API.
package carrier

import (
	"context"
)

// Carrier defines the capability the rating and booking engine needs from
// a parcel carrier.
type Carrier interface {
	// Name returns the carrier identifier (e.g., "sendcloud").
	Name() string

	// FindRates returns the priced service quotes the carrier offers for
	// a package, or a communication error when the carrier is unreachable.
	FindRates(ctx context.Context, pkg *Package) ([]RateQuote, error)

	// BookShipment commits a shipment with the carrier and returns the
	// carrier-issued tracking number, label reference and parcel id.
	BookShipment(ctx context.Context, req *BookingRequest, creds Credentials) (*BookingResponse, error)
}
