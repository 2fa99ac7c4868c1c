package rating_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/shiprate/pkg/carrier"
	"github.com/tournevent/shiprate/pkg/carrier/mock"
	"github.com/tournevent/shiprate/pkg/rating"
	"github.com/tournevent/shiprate/pkg/rating/ratecache"
	"github.com/tournevent/shiprate/pkg/rating/weightlimit"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

var pakketNL = carrier.ServiceDescriptor{
	Name:    "Pakket Nederland (PostNL)",
	Code:    "13",
	Carrier: "sendcloud",
}

var postnlQuotes = []carrier.RateQuote{
	{ServiceID: 13, ServiceCode: "13", ServiceName: "Pakket Nederland (PostNL)", Price: 999, Currency: "EUR"},
}

func nlPackage(weight float64) *carrier.Package {
	return &carrier.Package{
		Weight: weight,
		Origin: carrier.Address{CountryCode: "NL", PostalCode: "1012AB"},
		Destination: carrier.Address{CountryCode: "NL", PostalCode: "5617BC", City: "Eindhoven"},
	}
}

func nlTable() *weightlimit.Table {
	return weightlimit.NewTable(
		weightlimit.Entry{Carrier: "sendcloud", CountryCode: "NL", MaxWeight: 30},
	)
}

func newEvaluator(c carrier.Carrier, policy rating.Policy) *rating.Evaluator {
	return rating.NewEvaluator(pakketNL, c, policy, ratecache.NewMemory(time.Minute), otelzap.New(zap.NewNop()))
}

func TestAvailable_WithQuotes(t *testing.T) {
	mc := mock.New("sendcloud")
	mc.Quotes = postnlQuotes
	e := newEvaluator(mc, nlTable())

	assert.True(t, e.Available(context.Background(), nlPackage(6)))
}

func TestAvailable_NoQuotes(t *testing.T) {
	mc := mock.New("sendcloud")
	mc.Quotes = nil
	e := newEvaluator(mc, nlTable())

	assert.False(t, e.Available(context.Background(), nlPackage(6)))
}

func TestAvailable_CountryNotServed(t *testing.T) {
	mc := mock.New("sendcloud")
	mc.Quotes = postnlQuotes
	e := newEvaluator(mc, nlTable())

	pkg := nlPackage(6)
	pkg.Destination.CountryCode = "US"

	assert.False(t, e.Available(context.Background(), pkg))
	// The envelope check short-circuits before any carrier call.
	assert.Equal(t, 0, mc.FindRatesCalls())
}

func TestAvailable_OverWeightLimit(t *testing.T) {
	mc := mock.New("sendcloud")
	mc.Quotes = postnlQuotes
	e := newEvaluator(mc, nlTable())

	assert.False(t, e.Available(context.Background(), nlPackage(31)))
	assert.Equal(t, 0, mc.FindRatesCalls())
}

func TestAvailable_ZeroLimitMeansUnlimited(t *testing.T) {
	mc := mock.New("sendcloud")
	mc.Quotes = postnlQuotes
	table := weightlimit.NewTable(
		weightlimit.Entry{Carrier: "sendcloud", CountryCode: "NL", MaxWeight: 0},
	)
	e := newEvaluator(mc, table)

	assert.True(t, e.Available(context.Background(), nlPackage(500)))
}

func TestAvailable_CommunicationErrorSwallowed(t *testing.T) {
	mc := mock.New("sendcloud")
	mc.RatesErr = carrier.NewError("sendcloud", carrier.KindCommunication, "TIMEOUT", "request timed out")
	e := newEvaluator(mc, nlTable())

	assert.False(t, e.Available(context.Background(), nlPackage(6)))
}

func TestAvailable_Idempotent(t *testing.T) {
	mc := mock.New("sendcloud")
	mc.Quotes = postnlQuotes
	e := newEvaluator(mc, nlTable())
	ctx := context.Background()
	pkg := nlPackage(6)

	first := e.Available(ctx, pkg)
	second := e.Available(ctx, pkg)

	assert.Equal(t, first, second)
	assert.True(t, first)
}

func TestCheck_ThreeWayOutcome(t *testing.T) {
	ctx := context.Background()

	t.Run("available", func(t *testing.T) {
		mc := mock.New("sendcloud")
		mc.Quotes = postnlQuotes
		state, err := newEvaluator(mc, nlTable()).Check(ctx, nlPackage(6))
		require.NoError(t, err)
		assert.Equal(t, rating.StateAvailable, state)
	})

	t.Run("not served", func(t *testing.T) {
		mc := mock.New("sendcloud")
		pkg := nlPackage(6)
		pkg.Destination.CountryCode = "US"
		state, err := newEvaluator(mc, nlTable()).Check(ctx, pkg)
		require.NoError(t, err)
		assert.Equal(t, rating.StateNotServed, state)
	})

	t.Run("unreachable", func(t *testing.T) {
		mc := mock.New("sendcloud")
		mc.RatesErr = carrier.NewError("sendcloud", carrier.KindCommunication, "TIMEOUT", "request timed out")
		state, err := newEvaluator(mc, nlTable()).Check(ctx, nlPackage(6))
		require.Error(t, err)
		assert.Equal(t, rating.StateUnreachable, state)
		assert.True(t, carrier.IsCommunication(err))
	})
}

func TestComputePrice_MatchByName(t *testing.T) {
	mc := mock.New("sendcloud")
	mc.Quotes = postnlQuotes
	e := newEvaluator(mc, nlTable())

	price, err := e.ComputePrice(context.Background(), nlPackage(6))

	require.NoError(t, err)
	require.NotNil(t, price)
	assert.Equal(t, "9.99", price.Amount.String())
	assert.Equal(t, "EUR", price.Currency)
}

func TestComputePrice_NoMatchingService(t *testing.T) {
	mc := mock.New("sendcloud")
	mc.Quotes = postnlQuotes
	fast := carrier.ServiceDescriptor{Name: "Extra-Super Fast", Code: "999", Carrier: "sendcloud"}
	e := rating.NewEvaluator(fast, mc, nlTable(), ratecache.NewMemory(time.Minute), otelzap.New(zap.NewNop()))

	price, err := e.ComputePrice(context.Background(), nlPackage(6))

	require.NoError(t, err)
	assert.Nil(t, price)
}

func TestComputePrice_CodeFallback(t *testing.T) {
	mc := mock.New("sendcloud")
	mc.Quotes = []carrier.RateQuote{
		// Carrier relabeled the service; the stable code still matches.
		{ServiceID: 13, ServiceCode: "13", ServiceName: "Pakket NL (PostNL)", Price: 1099, Currency: "EUR"},
	}
	e := newEvaluator(mc, nlTable())

	price, err := e.ComputePrice(context.Background(), nlPackage(6))

	require.NoError(t, err)
	require.NotNil(t, price)
	assert.Equal(t, "10.99", price.Amount.String())
}

func TestComputePrice_NamePrecedesCode(t *testing.T) {
	mc := mock.New("sendcloud")
	mc.Quotes = []carrier.RateQuote{
		{ServiceCode: "13", ServiceName: "Different Service", Price: 100, Currency: "EUR"},
		{ServiceCode: "61", ServiceName: "Pakket Nederland (PostNL)", Price: 999, Currency: "EUR"},
	}
	e := newEvaluator(mc, nlTable())

	price, err := e.ComputePrice(context.Background(), nlPackage(6))

	require.NoError(t, err)
	require.NotNil(t, price)
	assert.Equal(t, "9.99", price.Amount.String())
}

func TestComputePrice_CommunicationErrorPropagates(t *testing.T) {
	mc := mock.New("sendcloud")
	mc.RatesErr = carrier.NewError("sendcloud", carrier.KindCommunication, "TIMEOUT", "request timed out")
	e := newEvaluator(mc, nlTable())

	_, err := e.ComputePrice(context.Background(), nlPackage(6))

	require.Error(t, err)
	assert.True(t, carrier.IsCommunication(err))
}

func TestAvailableThenComputePrice_SingleOutboundCall(t *testing.T) {
	mc := mock.New("sendcloud")
	mc.Quotes = postnlQuotes
	e := newEvaluator(mc, nlTable())
	ctx := context.Background()
	pkg := nlPackage(6)

	require.True(t, e.Available(ctx, pkg))

	price, err := e.ComputePrice(ctx, pkg)
	require.NoError(t, err)
	require.NotNil(t, price)

	assert.Equal(t, 1, mc.FindRatesCalls())
}

func TestCacheClearForcesRefetch(t *testing.T) {
	mc := mock.New("sendcloud")
	mc.Quotes = postnlQuotes
	cache := ratecache.NewMemory(time.Minute)
	e := rating.NewEvaluator(pakketNL, mc, nlTable(), cache, otelzap.New(zap.NewNop()))
	ctx := context.Background()
	pkg := nlPackage(6)

	require.True(t, e.Available(ctx, pkg))
	require.NoError(t, cache.Clear(ctx))
	require.True(t, e.Available(ctx, pkg))

	assert.Equal(t, 2, mc.FindRatesCalls())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "available", rating.StateAvailable.String())
	assert.Equal(t, "not_served", rating.StateNotServed.String())
	assert.Equal(t, "unreachable", rating.StateUnreachable.String())
}
