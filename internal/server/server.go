package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tournevent/shiprate/internal/telemetry"
	"github.com/tournevent/shiprate/pkg/booking"
	"github.com/tournevent/shiprate/pkg/carrier"
	"github.com/tournevent/shiprate/pkg/rating"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Server is the HTTP surface of the rating and booking engine. Handlers
// only translate JSON to engine calls; all semantics live in pkg/.
type Server struct {
	port     int
	registry *rating.Registry
	booker   *booking.Booker
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics
}

// Config holds server configuration.
type Config struct {
	Port int
}

// New creates a new server instance.
func New(cfg Config, registry *rating.Registry, booker *booking.Booker, logger *otelzap.Logger) *Server {
	return &Server{
		port:     cfg.Port,
		registry: registry,
		booker:   booker,
		logger:   logger,
		metrics:  telemetry.NewMetrics(),
	}
}

// Handler returns the server's HTTP handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/rates/availability", s.handleAvailability)
	mux.HandleFunc("/v1/rates/price", s.handlePrice)
	mux.HandleFunc("/v1/rates", s.handleRates)
	mux.HandleFunc("/v1/shipments", s.handleCreateShipment)

	return mux
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// ============================================================================
// Request/response types
// ============================================================================

type addressPayload struct {
	Name        string `json:"name,omitempty"`
	Company     string `json:"company,omitempty"`
	Line1       string `json:"line1,omitempty"`
	HouseNumber string `json:"house_number,omitempty"`
	City        string `json:"city,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	CountryCode string `json:"country_code"`
}

type packagePayload struct {
	WeightKg    float64        `json:"weight_kg"`
	Origin      addressPayload `json:"origin"`
	Destination addressPayload `json:"destination"`
}

type availabilityRequest struct {
	ServiceCode string         `json:"service_code"`
	Package     packagePayload `json:"package"`
}

type availabilityResponse struct {
	Available bool   `json:"available"`
	State     string `json:"state"`
}

type priceRequest struct {
	ServiceCode string         `json:"service_code"`
	Package     packagePayload `json:"package"`
}

type priceResponse struct {
	ServiceCode string `json:"service_code"`
	ServiceName string `json:"service_name"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
}

type ratesResponse struct {
	Rates []priceResponse `json:"rates"`
}

type createShipmentRequest struct {
	ShipmentID  string         `json:"shipment_id"`
	OrderRef    string         `json:"order_ref,omitempty"`
	Recipient   string         `json:"recipient"`
	WeightKg    float64        `json:"weight_kg"`
	Destination addressPayload `json:"destination"`
	ServiceCode string         `json:"service_code"`
	APIKey      string         `json:"api_key,omitempty"`
	APISecret   string         `json:"api_secret,omitempty"`
}

type createShipmentResponse struct {
	TrackingNumber string `json:"tracking_number"`
	LabelURL       string `json:"label_url"`
	ParcelID       int64  `json:"parcel_id"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func toAddress(p addressPayload) carrier.Address {
	return carrier.Address{
		Name:        p.Name,
		Company:     p.Company,
		Line1:       p.Line1,
		HouseNumber: p.HouseNumber,
		City:        p.City,
		PostalCode:  p.PostalCode,
		CountryCode: p.CountryCode,
	}
}

func toPackage(p packagePayload) *carrier.Package {
	return &carrier.Package{
		Weight:      p.WeightKg,
		Origin:      toAddress(p.Origin),
		Destination: toAddress(p.Destination),
	}
}

// ============================================================================
// Handlers
// ============================================================================

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req availabilityRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Package.WeightKg <= 0 {
		s.writeError(w, http.StatusBadRequest, "package weight must be positive", "")
		return
	}

	evaluator, err := s.registry.Get(req.ServiceCode)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error(), "")
		return
	}

	state, checkErr := evaluator.Check(r.Context(), toPackage(req.Package))
	if checkErr != nil {
		s.logger.Warn("Availability check hit unreachable carrier",
			zap.String("request_id", requestID(r)),
			zap.Error(checkErr),
		)
	}

	s.metrics.RecordAvailability(req.ServiceCode, state.String())
	s.metrics.RecordRequest("availability", "ok", time.Since(started).Seconds())

	s.writeJSON(w, http.StatusOK, availabilityResponse{
		Available: state.Available(),
		State:     state.String(),
	})
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req priceRequest
	if !s.decode(w, r, &req) {
		return
	}

	evaluator, err := s.registry.Get(req.ServiceCode)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error(), "")
		return
	}

	price, err := evaluator.ComputePrice(r.Context(), toPackage(req.Package))
	if err != nil {
		s.metrics.RecordRequest("price", "error", time.Since(started).Seconds())
		s.writeCarrierError(w, r, err)
		return
	}
	if price == nil {
		// The bound service did not appear in the quote set: a normal
		// outcome, not an error.
		s.metrics.RecordRequest("price", "no_price", time.Since(started).Seconds())
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.metrics.RecordRequest("price", "ok", time.Since(started).Seconds())
	s.writeJSON(w, http.StatusOK, priceResponse{
		ServiceCode: evaluator.Service().Code,
		ServiceName: evaluator.Service().Name,
		Amount:      price.Amount.StringFixed(2),
		Currency:    price.Currency,
	})
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req priceRequest
	if !s.decode(w, r, &req) {
		return
	}

	results, errs := s.registry.PriceAll(r.Context(), toPackage(req.Package))
	for _, err := range errs {
		s.logger.Warn("Service pricing failed during fan-out",
			zap.String("request_id", requestID(r)),
			zap.Error(err),
		)
	}

	resp := ratesResponse{Rates: make([]priceResponse, 0, len(results))}
	for _, sp := range results {
		resp.Rates = append(resp.Rates, priceResponse{
			ServiceCode: sp.Service.Code,
			ServiceName: sp.Service.Name,
			Amount:      sp.Price.Amount.StringFixed(2),
			Currency:    sp.Price.Currency,
		})
	}

	s.metrics.RecordRequest("rates", "ok", time.Since(started).Seconds())
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateShipment(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req createShipmentRequest
	if !s.decode(w, r, &req) {
		return
	}

	service := carrier.ServiceDescriptor{Code: req.ServiceCode}
	if evaluator, err := s.registry.Get(req.ServiceCode); err == nil {
		service = evaluator.Service()
	}

	rec := &booking.ShipmentRecord{
		ID:          req.ShipmentID,
		OrderRef:    req.OrderRef,
		Recipient:   req.Recipient,
		Weight:      req.WeightKg,
		Destination: toAddress(req.Destination),
		Service:     service,
	}

	creds := carrier.Credentials{APIKey: req.APIKey, APISecret: req.APISecret}

	conf, err := s.booker.CreateShipment(r.Context(), rec, creds)
	if err != nil {
		s.metrics.RecordRequest("booking", "error", time.Since(started).Seconds())
		s.writeCarrierError(w, r, err)
		return
	}

	s.metrics.RecordRequest("booking", "ok", time.Since(started).Seconds())
	s.writeJSON(w, http.StatusCreated, createShipmentResponse{
		TrackingNumber: conf.TrackingNumber,
		LabelURL:       conf.LabelURL,
		ParcelID:       conf.ParcelID,
	})
}

// ============================================================================
// Helpers
// ============================================================================

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed, use POST", "")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error(), "")
		return false
	}
	return true
}

// writeCarrierError maps the engine's error taxonomy onto HTTP statuses:
// validation is the caller's fault, auth needs a credential fix, and
// communication failures are upstream outages.
func (s *Server) writeCarrierError(w http.ResponseWriter, r *http.Request, err error) {
	kind := ""
	status := http.StatusBadGateway

	switch {
	case carrier.IsValidation(err):
		kind, status = string(carrier.KindValidation), http.StatusUnprocessableEntity
	case carrier.IsAuth(err):
		kind, status = string(carrier.KindAuth), http.StatusBadGateway
		s.metrics.RecordError("sendcloud", string(carrier.KindAuth))
	case carrier.IsCommunication(err):
		kind, status = string(carrier.KindCommunication), http.StatusBadGateway
		s.metrics.RecordError("sendcloud", string(carrier.KindCommunication))
	default:
		kind = string(carrier.KindRejected)
		status = http.StatusUnprocessableEntity
		s.metrics.RecordError("sendcloud", string(carrier.KindRejected))
	}

	s.logger.Error("Request failed",
		zap.String("request_id", requestID(r)),
		zap.String("kind", kind),
		zap.Error(err),
	)
	s.writeError(w, status, err.Error(), kind)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg, kind string) {
	s.writeJSON(w, status, errorResponse{Error: msg, Kind: kind})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// requestID returns the caller's request id, minting one when absent.
func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}
