package sendcloud

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tournevent/shiprate/pkg/carrier"
)

// HTTPAPIClient is the production implementation of APIClient using HTTP/JSON.
type HTTPAPIClient struct {
	baseURL    string
	httpClient *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPAPIClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// errorEnvelope is the JSON error payload Sendcloud returns.
type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Request string `json:"request"`
	} `json:"error"`
}

// GetShippingMethods fetches shipping methods from the Sendcloud API.
// GET /shipping_methods with sender/destination filters.
func (c *HTTPAPIClient) GetShippingMethods(ctx context.Context, creds carrier.Credentials, req *MethodsRequest) (*MethodsResponse, error) {
	q := url.Values{}
	if req.FromPostalCode != "" {
		q.Set("from_postal_code", req.FromPostalCode)
	}
	if req.FromCountry != "" {
		q.Set("from_country", req.FromCountry)
	}
	if req.ToCountry != "" {
		q.Set("to_country", req.ToCountry)
	}
	if req.ToPostalCode != "" {
		q.Set("to_postal_code", req.ToPostalCode)
	}
	if req.Weight > 0 {
		q.Set("weight", strconv.FormatFloat(req.Weight, 'f', 3, 64))
	}

	path := "/shipping_methods"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	resp, err := c.doRequest(ctx, http.MethodGet, path, creds, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result MethodsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode shipping methods response: %w", err)
	}

	return &result, nil
}

// CreateParcel announces a parcel via the Sendcloud API.
// POST /parcels.
func (c *HTTPAPIClient) CreateParcel(ctx context.Context, creds carrier.Credentials, req *ParcelRequest) (*ParcelResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/parcels", creds, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.parseError(resp)
	}

	var result ParcelResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode parcel response: %w", err)
	}

	return &result, nil
}

// GetParcel retrieves an announced parcel from the Sendcloud API.
// GET /parcels/{id}.
func (c *HTTPAPIClient) GetParcel(ctx context.Context, creds carrier.Credentials, parcelID int64) (*ParcelResponse, error) {
	path := fmt.Sprintf("/parcels/%d", parcelID)

	resp, err := c.doRequest(ctx, http.MethodGet, path, creds, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result ParcelResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode parcel response: %w", err)
	}

	return &result, nil
}

// CancelParcel cancels an announced parcel via the Sendcloud API.
// POST /parcels/{id}/cancel.
func (c *HTTPAPIClient) CancelParcel(ctx context.Context, creds carrier.Credentials, parcelID int64) (*CancelResponse, error) {
	path := fmt.Sprintf("/parcels/%d/cancel", parcelID)

	resp, err := c.doRequest(ctx, http.MethodPost, path, creds, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return nil, c.parseError(resp)
	}

	if resp.StatusCode == http.StatusNoContent {
		return &CancelResponse{Status: "cancelled"}, nil
	}

	var result CancelResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return &CancelResponse{Status: "cancelled"}, nil
	}

	return &result, nil
}

// doRequest performs an HTTP request with proper headers and authentication.
func (c *HTTPAPIClient) doRequest(ctx context.Context, method, path string, creds carrier.Credentials, body interface{}) (*http.Response, error) {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Sendcloud uses Basic Auth with public key as user and secret as password
	auth := base64.StdEncoding.EncodeToString([]byte(creds.APIKey + ":" + creds.APISecret))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "shiprate/1.0")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

// parseError extracts error information from an HTTP response.
func (c *HTTPAPIClient) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return &APIError{
			Code:       fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message:    envelope.Error.Message,
			StatusCode: resp.StatusCode,
		}
	}

	return &APIError{
		Code:       fmt.Sprintf("HTTP_%d", resp.StatusCode),
		Message:    string(body),
		StatusCode: resp.StatusCode,
	}
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
