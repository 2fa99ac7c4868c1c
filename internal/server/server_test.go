package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/shiprate/internal/server"
	"github.com/tournevent/shiprate/pkg/booking"
	"github.com/tournevent/shiprate/pkg/carrier"
	"github.com/tournevent/shiprate/pkg/carrier/sendcloud"
	"github.com/tournevent/shiprate/pkg/rating"
	"github.com/tournevent/shiprate/pkg/rating/ratecache"
	"github.com/tournevent/shiprate/pkg/rating/weightlimit"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*server.Server, *sendcloud.MockAPIClient) {
	t.Helper()

	logger := otelzap.New(zap.NewNop())
	mock := sendcloud.NewMockAPIClient()
	client := sendcloud.NewWithAPIClient(
		sendcloud.Config{APIKey: "TEST_KEY", APISecret: "TEST_SECRET", UseMock: true},
		mock, logger, otel.Tracer("test"),
	)

	registry := rating.NewRegistry()
	registry.Register(rating.NewEvaluator(
		carrier.ServiceDescriptor{Name: "Pakket Nederland (PostNL)", Code: "13", Carrier: "PostNL"},
		client,
		weightlimit.DefaultSendcloudTable(),
		ratecache.NewMemory(15*time.Minute),
		logger,
	))

	booker := booking.NewBooker(client, logger)

	return server.New(server.Config{Port: 8080}, registry, booker, logger), mock
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const nlPackageJSON = `{
	"weight_kg": 2.5,
	"origin": {"postal_code": "1012AB", "country_code": "NL"},
	"destination": {"postal_code": "2511CV", "country_code": "NL"}
}`

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestServer_Availability(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/rates/availability",
		`{"service_code": "13", "package": `+nlPackageJSON+`}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Available bool   `json:"available"`
		State     string `json:"state"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Available)
	assert.Equal(t, "available", resp.State)
}

func TestServer_Availability_NotServed(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"service_code": "13", "package": {
		"weight_kg": 2.5,
		"origin": {"postal_code": "1012AB", "country_code": "NL"},
		"destination": {"postal_code": "10001", "country_code": "US"}
	}}`
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/rates/availability", body)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Available bool   `json:"available"`
		State     string `json:"state"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Available)
	assert.Equal(t, "not_served", resp.State)
}

func TestServer_Availability_UnknownService(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/rates/availability",
		`{"service_code": "999", "package": `+nlPackageJSON+`}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Availability_InvalidWeight(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/rates/availability",
		`{"service_code": "13", "package": {"weight_kg": 0}}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Price(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/rates/price",
		`{"service_code": "13", "package": `+nlPackageJSON+`}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ServiceCode string `json:"service_code"`
		ServiceName string `json:"service_name"`
		Amount      string `json:"amount"`
		Currency    string `json:"currency"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "13", resp.ServiceCode)
	assert.Equal(t, "Pakket Nederland (PostNL)", resp.ServiceName)
	assert.Equal(t, "9.99", resp.Amount)
	assert.Equal(t, "EUR", resp.Currency)
}

func TestServer_Price_NoMatch(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"service_code": "13", "package": {
		"weight_kg": 2.5,
		"origin": {"postal_code": "1012AB", "country_code": "NL"},
		"destination": {"postal_code": "1000", "country_code": "BE"}
	}}`
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/rates/price", body)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestServer_Price_CarrierDown(t *testing.T) {
	srv, mock := newTestServer(t)
	mock.SimulateErrors = true

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/rates/price",
		`{"service_code": "13", "package": `+nlPackageJSON+`}`)

	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp struct {
		Kind string `json:"kind"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "communication", resp.Kind)
}

func TestServer_Rates_FanOut(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/rates",
		`{"package": `+nlPackageJSON+`}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Rates []struct {
			ServiceCode string `json:"service_code"`
			Amount      string `json:"amount"`
		} `json:"rates"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Rates, 1)
	assert.Equal(t, "13", resp.Rates[0].ServiceCode)
	assert.Equal(t, "9.99", resp.Rates[0].Amount)
}

func TestServer_CreateShipment(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{
		"shipment_id": "shp_1",
		"order_ref": "R123456789",
		"recipient": "John Doe",
		"weight_kg": 2.5,
		"destination": {
			"name": "John Doe",
			"line1": "Stationsplein",
			"house_number": "9",
			"city": "Den Haag",
			"postal_code": "2511CV",
			"country_code": "NL"
		},
		"service_code": "13"
	}`
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/shipments", body)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		TrackingNumber string `json:"tracking_number"`
		LabelURL       string `json:"label_url"`
		ParcelID       int64  `json:"parcel_id"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "3SYZXG114161295", resp.TrackingNumber)
	assert.Contains(t, resp.LabelURL, "label_printer/410656")
	assert.Equal(t, int64(410656), resp.ParcelID)
}

func TestServer_CreateShipment_MissingDestination(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{
		"shipment_id": "shp_2",
		"recipient": "John Doe",
		"weight_kg": 2.5,
		"destination": {"postal_code": "2511CV"},
		"service_code": "13"
	}`
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/shipments", body)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Kind string `json:"kind"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "validation", resp.Kind)
}

func TestServer_CreateShipment_BadCredentials(t *testing.T) {
	srv, mock := newTestServer(t)
	mock.CheckCredentials = true

	body := `{
		"shipment_id": "shp_3",
		"recipient": "John Doe",
		"weight_kg": 2.5,
		"destination": {"postal_code": "2511CV", "country_code": "NL"},
		"service_code": "13",
		"api_key": "WRONG_KEY",
		"api_secret": "WRONG_SECRET"
	}`
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/shipments", body)

	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp struct {
		Kind string `json:"kind"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "auth", resp.Kind)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/rates/price", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_InvalidJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/rates/price", "not json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
