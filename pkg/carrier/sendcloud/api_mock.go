package sendcloud

import (
	"context"
	"net/http"
	"time"

	"github.com/tournevent/shiprate/pkg/carrier"
)

// Test credentials accepted by the mock API client.
const (
	mockAPIKey    = "TEST_KEY"
	mockAPISecret = "TEST_SECRET"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	// CheckCredentials makes the mock reject any credentials other than
	// TEST_KEY/TEST_SECRET with an authentication error.
	CheckCredentials bool

	OnGetShippingMethods func(ctx context.Context, creds carrier.Credentials, req *MethodsRequest) (*MethodsResponse, error)
	OnCreateParcel       func(ctx context.Context, creds carrier.Credentials, req *ParcelRequest) (*ParcelResponse, error)
	OnGetParcel          func(ctx context.Context, creds carrier.Credentials, parcelID int64) (*ParcelResponse, error)
	OnCancelParcel       func(ctx context.Context, creds carrier.Credentials, parcelID int64) (*CancelResponse, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

func (m *MockAPIClient) simulate(creds carrier.Credentials) error {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return &APIError{Code: "MOCK_ERROR", Message: "Simulated API error", StatusCode: http.StatusBadGateway}
	}

	if m.CheckCredentials && (creds.APIKey != mockAPIKey || creds.APISecret != mockAPISecret) {
		return &APIError{
			Code:       "HTTP_401",
			Message:    "Invalid username/password.",
			StatusCode: http.StatusUnauthorized,
		}
	}

	return nil
}

// GetShippingMethods returns mock shipping methods.
func (m *MockAPIClient) GetShippingMethods(ctx context.Context, creds carrier.Credentials, req *MethodsRequest) (*MethodsResponse, error) {
	if err := m.simulate(creds); err != nil {
		return nil, err
	}

	if m.OnGetShippingMethods != nil {
		return m.OnGetShippingMethods(ctx, creds, req)
	}

	return &MethodsResponse{
		ShippingMethods: []ShippingMethod{
			{
				ID:        13,
				Name:      "Pakket Nederland (PostNL)",
				Carrier:   "postnl",
				MinWeight: "0.001",
				MaxWeight: "30.000",
				Countries: []MethodCountry{
					{ISO2: "NL", Name: "Netherlands", Price: 999},
				},
			},
			{
				ID:        61,
				Name:      "DHL Parcel Connect",
				Carrier:   "dhl",
				MinWeight: "0.001",
				MaxWeight: "23.000",
				Countries: []MethodCountry{
					{ISO2: "NL", Name: "Netherlands", Price: 1250},
					{ISO2: "BE", Name: "Belgium", Price: 1395},
					{ISO2: "DE", Name: "Germany", Price: 1495},
				},
			},
			{
				ID:        117,
				Name:      "Pakket België (bpost)",
				Carrier:   "bpost",
				MinWeight: "0.001",
				MaxWeight: "30.000",
				Countries: []MethodCountry{
					{ISO2: "BE", Name: "Belgium", Price: 1150},
				},
			},
		},
	}, nil
}

// CreateParcel announces a mock parcel.
func (m *MockAPIClient) CreateParcel(ctx context.Context, creds carrier.Credentials, req *ParcelRequest) (*ParcelResponse, error) {
	if err := m.simulate(creds); err != nil {
		return nil, err
	}

	if m.OnCreateParcel != nil {
		return m.OnCreateParcel(ctx, creds, req)
	}

	return &ParcelResponse{
		Parcel: ParcelResult{
			ID:             410656,
			TrackingNumber: "3SYZXG114161295",
			Status:         ParcelState{ID: 1000, Message: "Ready to send"},
			Label: ParcelLabel{
				LabelPrinter: "https://panel.sendcloud.nl/api/v2/labels/label_printer/410656?hash=70286456cab252a543dae6be5037592a4d8c6e40",
				NormalPrinter: []string{
					"https://panel.sendcloud.nl/api/v2/labels/normal_printer/410656?hash=70286456cab252a543dae6be5037592a4d8c6e40",
				},
			},
		},
	}, nil
}

// GetParcel retrieves a mock parcel.
func (m *MockAPIClient) GetParcel(ctx context.Context, creds carrier.Credentials, parcelID int64) (*ParcelResponse, error) {
	if err := m.simulate(creds); err != nil {
		return nil, err
	}

	if m.OnGetParcel != nil {
		return m.OnGetParcel(ctx, creds, parcelID)
	}

	return &ParcelResponse{
		Parcel: ParcelResult{
			ID:             parcelID,
			TrackingNumber: "3SYZXG114161295",
			Status:         ParcelState{ID: 1000, Message: "Ready to send"},
		},
	}, nil
}

// CancelParcel cancels a mock parcel.
func (m *MockAPIClient) CancelParcel(ctx context.Context, creds carrier.Credentials, parcelID int64) (*CancelResponse, error) {
	if err := m.simulate(creds); err != nil {
		return nil, err
	}

	if m.OnCancelParcel != nil {
		return m.OnCancelParcel(ctx, creds, parcelID)
	}

	return &CancelResponse{Status: "cancelled", Message: "Parcel has been cancelled"}, nil
}

var _ APIClient = (*MockAPIClient)(nil)
