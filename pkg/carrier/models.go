package carrier

import (
	"github.com/shopspring/decimal"
)

// Address represents a shipping origin or destination.
type Address struct {
	Name        string
	Company     string
	Line1       string
	Line2       string
	HouseNumber string
	City        string
	PostalCode  string
	CountryCode string // ISO 3166-1 alpha-2, e.g., "NL", "BE"
	Phone       string
	Email       string
}

// Package represents a weight-bearing parcel handed in by the order system.
// The engine treats it as read-only.
type Package struct {
	Weight      float64 // kilograms
	Origin      Address
	Destination Address
}

// ServiceDescriptor identifies one shipping service offered by a carrier.
// A rate evaluator is bound to exactly one descriptor.
type ServiceDescriptor struct {
	Name    string // carrier's human-readable label, e.g. "Pakket Nederland (PostNL)"
	Code    string // stable service code, the shipping-method id
	Carrier string
}

// RateQuote is a single priced offer returned by a rate lookup.
// Price is in the carrier's minor currency units (cents).
type RateQuote struct {
	ServiceID   int64  `json:"service_id"`
	ServiceCode string `json:"service_code"`
	ServiceName string `json:"service_name"`
	Price       int64  `json:"price"`
	Currency    string `json:"currency"`
}

// Money represents a monetary amount in major currency units.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// MoneyFromMinorUnits converts a carrier price in minor units (cents) to
// a major-unit amount.
func MoneyFromMinorUnits(price int64, currency string) Money {
	return Money{
		Amount:   decimal.New(price, -2),
		Currency: currency,
	}
}

// Credentials holds the API key/secret pair scoped to one calculator
// configuration.
type Credentials struct {
	APIKey    string
	APISecret string
}

// Empty reports whether no credentials were supplied.
func (c Credentials) Empty() bool {
	return c.APIKey == "" && c.APISecret == ""
}

// BookingRequest is the request for committing a shipment with the carrier.
type BookingRequest struct {
	Recipient    string
	Destination  Address
	Weight       float64 // kilograms
	ServiceID    int64
	ServiceCode  string
	OrderRef     string
	RequestLabel bool
}

// BookingResponse is the carrier's response to a successful booking.
type BookingResponse struct {
	ParcelID       int64
	TrackingNumber string
	LabelURL       string
	Status         string
}
