// Package booking commits shipments with the carrier and applies the
// resulting identifiers to the caller's shipment record.
package booking

import (
	"context"
	"strconv"
	"sync"

	"github.com/tournevent/shiprate/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// ShipmentRecord is the mutable shipment row owned by the caller's order
// system. The engine writes exactly three fields, atomically, on a
// successful booking; a failed booking leaves the record untouched.
type ShipmentRecord struct {
	ID          string
	OrderRef    string
	Recipient   string
	Weight      float64 // kilograms
	Destination carrier.Address
	Service     carrier.ServiceDescriptor

	mu             sync.RWMutex
	trackingNumber string
	labelURL       string
	parcelID       int64
	booked         bool
}

// Booked reports whether a successful booking has been recorded. Callers
// avoid double-booking by checking this before invoking CreateShipment.
func (r *ShipmentRecord) Booked() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.booked
}

// TrackingNumber returns the carrier-issued tracking number, or "" while
// unbooked.
func (r *ShipmentRecord) TrackingNumber() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.trackingNumber
}

// LabelURL returns the printable label reference, or "" while unbooked.
func (r *ShipmentRecord) LabelURL() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.labelURL
}

// ParcelID returns the carrier-assigned parcel id, or 0 while unbooked.
func (r *ShipmentRecord) ParcelID() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.parcelID
}

// apply writes all three booking fields under one lock so no reader can
// observe a partially populated record.
func (r *ShipmentRecord) apply(conf Confirmation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trackingNumber = conf.TrackingNumber
	r.labelURL = conf.LabelURL
	r.parcelID = conf.ParcelID
	r.booked = true
}

// Confirmation holds the identifiers of a successful booking.
type Confirmation struct {
	TrackingNumber string
	LabelURL       string
	ParcelID       int64
}

// Booker books shipments with one carrier.
type Booker struct {
	carrier carrier.Carrier
	logger  *otelzap.Logger
}

// NewBooker creates a booking client for a carrier.
func NewBooker(c carrier.Carrier, logger *otelzap.Logger) *Booker {
	return &Booker{carrier: c, logger: logger}
}

// CreateShipment books the shipment with the carrier and, on success,
// applies tracking number, label reference and parcel id to the record.
// The engine does not deduplicate repeated calls; a failed attempt may be
// retried and starts fresh.
func (b *Booker) CreateShipment(ctx context.Context, rec *ShipmentRecord, creds carrier.Credentials) (*Confirmation, error) {
	if err := validateDestination(rec.Destination); err != nil {
		return nil, err
	}

	req := &carrier.BookingRequest{
		Recipient:    rec.Recipient,
		Destination:  rec.Destination,
		Weight:       rec.Weight,
		ServiceCode:  rec.Service.Code,
		OrderRef:     rec.OrderRef,
		RequestLabel: true,
	}
	if id, ok := serviceID(rec.Service); ok {
		req.ServiceID = id
	}

	resp, err := b.carrier.BookShipment(ctx, req, creds)
	if err != nil {
		b.logger.Error("Shipment booking failed",
			zap.String("shipment_id", rec.ID),
			zap.String("destination_country", rec.Destination.CountryCode),
			zap.Error(err),
		)
		return nil, err
	}

	conf := Confirmation{
		TrackingNumber: resp.TrackingNumber,
		LabelURL:       resp.LabelURL,
		ParcelID:       resp.ParcelID,
	}
	rec.apply(conf)

	b.logger.Info("Shipment booked",
		zap.String("shipment_id", rec.ID),
		zap.String("tracking_number", conf.TrackingNumber),
		zap.Int64("parcel_id", conf.ParcelID),
	)

	return &conf, nil
}

// validateDestination checks the booking schema's minimum address fields
// before any network call.
func validateDestination(addr carrier.Address) error {
	if addr.CountryCode == "" {
		return carrier.NewError("", carrier.KindValidation, "MISSING_COUNTRY", "destination country is required for booking").
			WithCause(carrier.ErrMissingDestination)
	}
	if addr.PostalCode == "" {
		return carrier.NewError("", carrier.KindValidation, "MISSING_POSTAL", "destination postal code is required for booking").
			WithCause(carrier.ErrMissingDestination)
	}
	return nil
}

// serviceID parses the descriptor's stable code into the carrier's
// numeric shipping-method id. Codes that are not numeric are passed to
// the carrier as-is via ServiceCode.
func serviceID(service carrier.ServiceDescriptor) (int64, bool) {
	id, err := strconv.ParseInt(service.Code, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
