// Package mock provides a mock carrier implementation for testing.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/tournevent/shiprate/pkg/carrier"
)

// Client is a mock carrier for testing. It records call counts and can be
// pointed at custom behavior through the On* hooks.
type Client struct {
	name string

	mu             sync.Mutex
	findRatesCalls int
	bookCalls      int

	Quotes    []carrier.RateQuote
	RatesErr  error
	Booking   *carrier.BookingResponse
	BookErr   error

	OnFindRates    func(ctx context.Context, pkg *carrier.Package) ([]carrier.RateQuote, error)
	OnBookShipment func(ctx context.Context, req *carrier.BookingRequest, creds carrier.Credentials) (*carrier.BookingResponse, error)
}

// New creates a new mock carrier.
func New(name string) *Client {
	return &Client{name: name}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return c.name
}

// FindRatesCalls returns how many rate lookups hit the carrier.
func (c *Client) FindRatesCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.findRatesCalls
}

// BookCalls returns how many booking calls hit the carrier.
func (c *Client) BookCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bookCalls
}

// FindRates returns the configured quotes or error.
func (c *Client) FindRates(ctx context.Context, pkg *carrier.Package) ([]carrier.RateQuote, error) {
	c.mu.Lock()
	c.findRatesCalls++
	c.mu.Unlock()

	if c.OnFindRates != nil {
		return c.OnFindRates(ctx, pkg)
	}
	if c.RatesErr != nil {
		return nil, c.RatesErr
	}
	return c.Quotes, nil
}

// BookShipment returns the configured booking response or error.
func (c *Client) BookShipment(ctx context.Context, req *carrier.BookingRequest, creds carrier.Credentials) (*carrier.BookingResponse, error) {
	c.mu.Lock()
	c.bookCalls++
	c.mu.Unlock()

	if c.OnBookShipment != nil {
		return c.OnBookShipment(ctx, req, creds)
	}
	if c.BookErr != nil {
		return nil, c.BookErr
	}
	if c.Booking != nil {
		return c.Booking, nil
	}
	return &carrier.BookingResponse{
		ParcelID:       time.Now().UnixNano() % 1000000,
		TrackingNumber: "MOCK-TRACK-0001",
		LabelURL:       "https://labels.mock/1.pdf",
		Status:         "Ready to send",
	}, nil
}

var _ carrier.Carrier = (*Client)(nil)
