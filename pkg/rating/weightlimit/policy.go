// Package weightlimit holds the per-carrier, per-destination-country
// maximum shippable weight table.
package weightlimit

// Entry defines the service envelope of one carrier for one destination
// country. A MaxWeight of 0 means the carrier serves the country with no
// weight restriction.
type Entry struct {
	Carrier     string
	CountryCode string
	MaxWeight   float64 // kilograms; 0 = unlimited
}

// Table answers whether a carrier serves a destination country and with
// what weight ceiling. Lookups are pure; the table is immutable after
// construction.
type Table struct {
	limits map[tableKey]float64
}

type tableKey struct {
	carrier string
	country string
}

// NewTable builds a table from explicit entries. Later entries for the
// same (carrier, country) pair override earlier ones.
func NewTable(entries ...Entry) *Table {
	limits := make(map[tableKey]float64, len(entries))
	for _, e := range entries {
		limits[tableKey{carrier: e.Carrier, country: e.CountryCode}] = e.MaxWeight
	}
	return &Table{limits: limits}
}

// MaxWeight returns the weight ceiling for a carrier/country pair.
// ok is false when the carrier does not serve that country at all.
// A returned limit of 0 means no restriction.
func (t *Table) MaxWeight(carrierName, countryCode string) (limit float64, ok bool) {
	limit, ok = t.limits[tableKey{carrier: carrierName, country: countryCode}]
	return limit, ok
}

// Shippable reports whether a package weight fits the carrier's envelope
// for the destination country.
func (t *Table) Shippable(carrierName, countryCode string, weight float64) bool {
	limit, ok := t.MaxWeight(carrierName, countryCode)
	if !ok {
		return false
	}
	return limit == 0 || weight <= limit
}

// DefaultSendcloudTable returns the carrier-published weight ceilings for
// Sendcloud's core destination countries.
func DefaultSendcloudTable() *Table {
	return NewTable(
		Entry{Carrier: "sendcloud", CountryCode: "NL", MaxWeight: 30},
		Entry{Carrier: "sendcloud", CountryCode: "BE", MaxWeight: 30},
		Entry{Carrier: "sendcloud", CountryCode: "DE", MaxWeight: 31.5},
		Entry{Carrier: "sendcloud", CountryCode: "FR", MaxWeight: 30},
		Entry{Carrier: "sendcloud", CountryCode: "LU", MaxWeight: 30},
		Entry{Carrier: "sendcloud", CountryCode: "AT", MaxWeight: 31.5},
		// Great Britain is served without a published ceiling.
		Entry{Carrier: "sendcloud", CountryCode: "GB", MaxWeight: 0},
	)
}
