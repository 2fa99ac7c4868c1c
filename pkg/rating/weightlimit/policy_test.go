package weightlimit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tournevent/shiprate/pkg/rating/weightlimit"
)

func TestTable_MaxWeight(t *testing.T) {
	table := weightlimit.NewTable(
		weightlimit.Entry{Carrier: "sendcloud", CountryCode: "NL", MaxWeight: 30},
		weightlimit.Entry{Carrier: "sendcloud", CountryCode: "GB", MaxWeight: 0},
	)

	limit, ok := table.MaxWeight("sendcloud", "NL")
	assert.True(t, ok)
	assert.Equal(t, 30.0, limit)

	limit, ok = table.MaxWeight("sendcloud", "GB")
	assert.True(t, ok)
	assert.Equal(t, 0.0, limit)

	_, ok = table.MaxWeight("sendcloud", "US")
	assert.False(t, ok)
}

func TestTable_PerCarrier(t *testing.T) {
	table := weightlimit.NewTable(
		weightlimit.Entry{Carrier: "sendcloud", CountryCode: "NL", MaxWeight: 30},
		weightlimit.Entry{Carrier: "other", CountryCode: "NL", MaxWeight: 20},
	)

	limit, ok := table.MaxWeight("other", "NL")
	assert.True(t, ok)
	assert.Equal(t, 20.0, limit)

	_, ok = table.MaxWeight("unknown", "NL")
	assert.False(t, ok)
}

func TestTable_LaterEntryOverrides(t *testing.T) {
	table := weightlimit.NewTable(
		weightlimit.Entry{Carrier: "sendcloud", CountryCode: "NL", MaxWeight: 30},
		weightlimit.Entry{Carrier: "sendcloud", CountryCode: "NL", MaxWeight: 23},
	)

	limit, _ := table.MaxWeight("sendcloud", "NL")
	assert.Equal(t, 23.0, limit)
}

func TestTable_Shippable(t *testing.T) {
	table := weightlimit.NewTable(
		weightlimit.Entry{Carrier: "sendcloud", CountryCode: "NL", MaxWeight: 30},
		weightlimit.Entry{Carrier: "sendcloud", CountryCode: "GB", MaxWeight: 0},
	)

	tests := []struct {
		name    string
		country string
		weight  float64
		want    bool
	}{
		{"under limit", "NL", 6, true},
		{"at limit", "NL", 30, true},
		{"over limit", "NL", 30.5, false},
		{"zero limit means unlimited", "GB", 500, true},
		{"country not served", "US", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Shippable("sendcloud", tt.country, tt.weight))
		})
	}
}

func TestDefaultSendcloudTable(t *testing.T) {
	table := weightlimit.DefaultSendcloudTable()

	limit, ok := table.MaxWeight("sendcloud", "NL")
	assert.True(t, ok)
	assert.Equal(t, 30.0, limit)

	_, ok = table.MaxWeight("sendcloud", "US")
	assert.False(t, ok)
}
