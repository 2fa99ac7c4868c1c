// Package sendcloud provides integration with the Sendcloud shipping API.
package sendcloud

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/tournevent/shiprate/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const carrierName = "sendcloud"

// Config holds Sendcloud configuration.
type Config struct {
	APIKey    string
	APISecret string
	BaseURL   string
	UseMock   bool
}

// Client is the Sendcloud carrier client.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new Sendcloud client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL: cfg.BaseURL,
			Timeout: 30 * time.Second,
		})
	}

	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

// NewWithAPIClient creates a new Sendcloud client with a custom API client.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// credentials returns the configured credential pair.
func (c *Client) credentials() carrier.Credentials {
	return carrier.Credentials{APIKey: c.config.APIKey, APISecret: c.config.APISecret}
}

// FindRates returns the priced quotes Sendcloud offers for a package's
// destination country.
func (c *Client) FindRates(ctx context.Context, pkg *carrier.Package) ([]carrier.RateQuote, error) {
	c.logger.Info("Finding Sendcloud rates",
		zap.String("origin_postal", pkg.Origin.PostalCode),
		zap.String("destination_country", pkg.Destination.CountryCode),
		zap.Float64("weight_kg", pkg.Weight),
	)

	apiReq := &MethodsRequest{
		FromPostalCode: pkg.Origin.PostalCode,
		FromCountry:    pkg.Origin.CountryCode,
		ToCountry:      pkg.Destination.CountryCode,
		ToPostalCode:   pkg.Destination.PostalCode,
		Weight:         pkg.Weight,
	}

	apiResp, err := c.apiClient.GetShippingMethods(ctx, c.credentials(), apiReq)
	if err != nil {
		c.logger.Error("Sendcloud API error", zap.Error(err))
		return nil, c.toCarrierError(err)
	}

	return methodsToQuotes(apiResp, pkg.Destination.CountryCode), nil
}

// BookShipment announces a parcel with Sendcloud and returns the tracking
// number, label reference and parcel id.
func (c *Client) BookShipment(ctx context.Context, req *carrier.BookingRequest, creds carrier.Credentials) (*carrier.BookingResponse, error) {
	c.logger.Info("Booking Sendcloud shipment",
		zap.String("destination_country", req.Destination.CountryCode),
		zap.String("destination_postal", req.Destination.PostalCode),
		zap.Int64("service_id", req.ServiceID),
	)

	if creds.Empty() {
		creds = c.credentials()
	}

	apiReq := &ParcelRequest{
		Parcel: Parcel{
			Name:         req.Recipient,
			CompanyName:  req.Destination.Company,
			Address:      req.Destination.Line1,
			HouseNumber:  req.Destination.HouseNumber,
			City:         req.Destination.City,
			PostalCode:   req.Destination.PostalCode,
			Country:      req.Destination.CountryCode,
			Weight:       strconv.FormatFloat(req.Weight, 'f', 3, 64),
			OrderNumber:  req.OrderRef,
			RequestLabel: req.RequestLabel,
		},
	}

	if req.ServiceID > 0 {
		apiReq.Parcel.Shipment = &ParcelMethod{ID: req.ServiceID}
	}

	apiResp, err := c.apiClient.CreateParcel(ctx, creds, apiReq)
	if err != nil {
		c.logger.Error("Sendcloud API error", zap.Error(err))
		return nil, c.toCarrierError(err)
	}

	return parcelToBooking(apiResp), nil
}

// ============================================================================
// Conversion helpers
// ============================================================================

func methodsToQuotes(resp *MethodsResponse, countryCode string) []carrier.RateQuote {
	quotes := make([]carrier.RateQuote, 0, len(resp.ShippingMethods))

	for _, method := range resp.ShippingMethods {
		for _, country := range method.Countries {
			if country.ISO2 != countryCode {
				continue
			}
			quotes = append(quotes, carrier.RateQuote{
				ServiceID:   method.ID,
				ServiceCode: strconv.FormatInt(method.ID, 10),
				ServiceName: method.Name,
				Price:       country.Price,
				Currency:    "EUR",
			})
			break
		}
	}

	return quotes
}

func parcelToBooking(resp *ParcelResponse) *carrier.BookingResponse {
	return &carrier.BookingResponse{
		ParcelID:       resp.Parcel.ID,
		TrackingNumber: resp.Parcel.TrackingNumber,
		LabelURL:       resp.Parcel.Label.LabelPrinter,
		Status:         resp.Parcel.Status.Message,
	}
}

// toCarrierError classifies a raw API failure into the engine's taxonomy.
func (c *Client) toCarrierError(err error) *carrier.Error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			return carrier.NewError(carrierName, carrier.KindAuth, apiErr.Code, apiErr.Message).
				WithStatusCode(apiErr.StatusCode).WithCause(err)
		case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
			return carrier.NewError(carrierName, carrier.KindRejected, apiErr.Code, apiErr.Message).
				WithStatusCode(apiErr.StatusCode).WithCause(err)
		default:
			return carrier.NewError(carrierName, carrier.KindCommunication, apiErr.Code, apiErr.Message).
				WithStatusCode(apiErr.StatusCode).WithCause(err)
		}
	}

	// Transport failures, timeouts and malformed responses.
	return carrier.NewError(carrierName, carrier.KindCommunication, "TRANSPORT", err.Error()).WithCause(err)
}

var _ carrier.Carrier = (*Client)(nil)
