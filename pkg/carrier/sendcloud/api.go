package sendcloud

import (
	"context"

	"github.com/tournevent/shiprate/pkg/carrier"
)

// APIClient defines the interface for Sendcloud API operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// GetShippingMethods fetches the shipping methods Sendcloud offers
	// for a sender/destination/weight combination, with per-country prices.
	GetShippingMethods(ctx context.Context, creds carrier.Credentials, req *MethodsRequest) (*MethodsResponse, error)

	// CreateParcel announces a parcel to Sendcloud, requesting a label.
	CreateParcel(ctx context.Context, creds carrier.Credentials, req *ParcelRequest) (*ParcelResponse, error)

	// GetParcel retrieves an announced parcel by id.
	GetParcel(ctx context.Context, creds carrier.Credentials, parcelID int64) (*ParcelResponse, error)

	// CancelParcel cancels an announced parcel.
	CancelParcel(ctx context.Context, creds carrier.Credentials, parcelID int64) (*CancelResponse, error)
}

// ============================================================================
// API Request/Response Types (match the Sendcloud v2 JSON API structure)
// ============================================================================

// MethodsRequest represents a shipping-methods query.
type MethodsRequest struct {
	FromPostalCode string
	FromCountry    string
	ToCountry      string
	ToPostalCode   string
	Weight         float64 // kilograms
}

// MethodsResponse is the shipping-methods listing.
type MethodsResponse struct {
	ShippingMethods []ShippingMethod `json:"shipping_methods"`
}

// ShippingMethod is one Sendcloud shipping product with per-country pricing.
type ShippingMethod struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Carrier   string          `json:"carrier"`
	MinWeight string          `json:"min_weight"`
	MaxWeight string          `json:"max_weight"`
	Countries []MethodCountry `json:"countries"`
}

// MethodCountry is the price of a shipping method for one destination country.
type MethodCountry struct {
	ISO2  string `json:"iso_2"`
	Name  string `json:"name"`
	Price int64  `json:"price"` // minor currency units (cents)
}

// ParcelRequest represents a Sendcloud parcel announcement.
type ParcelRequest struct {
	Parcel Parcel `json:"parcel"`
}

// Parcel carries the fields of a parcel announcement.
type Parcel struct {
	Name         string         `json:"name"`
	CompanyName  string         `json:"company_name,omitempty"`
	Address      string         `json:"address"`
	HouseNumber  string         `json:"house_number,omitempty"`
	City         string         `json:"city"`
	PostalCode   string         `json:"postal_code"`
	Country      string         `json:"country"` // ISO 3166-1 alpha-2
	Weight       string         `json:"weight"`  // kilograms, e.g. "6.000"
	OrderNumber  string         `json:"order_number,omitempty"`
	RequestLabel bool           `json:"request_label"`
	Shipment     *ParcelMethod  `json:"shipment,omitempty"`
}

// ParcelMethod selects the shipping method for an announced parcel.
type ParcelMethod struct {
	ID int64 `json:"id"`
}

// ParcelResponse is the Sendcloud response to a parcel announcement.
type ParcelResponse struct {
	Parcel ParcelResult `json:"parcel"`
}

// ParcelResult holds the carrier-issued identifiers of an announced parcel.
type ParcelResult struct {
	ID             int64       `json:"id"`
	TrackingNumber string      `json:"tracking_number"`
	Status         ParcelState `json:"status"`
	Label          ParcelLabel `json:"label"`
}

// ParcelState is the status object Sendcloud attaches to a parcel.
type ParcelState struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// ParcelLabel holds the printable label references of a parcel.
type ParcelLabel struct {
	LabelPrinter  string   `json:"label_printer"`
	NormalPrinter []string `json:"normal_printer"`
}

// CancelResponse is the Sendcloud response to a parcel cancellation.
type CancelResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// APIError represents an error payload from the Sendcloud API.
type APIError struct {
	Code       string
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}
