package routing_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/resqnow/evac-routing-service/internal/domain"
	"github.com/resqnow/evac-routing-service/internal/routing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCandidate() domain.Candidate {
	return domain.Candidate{
		Shelter: domain.Shelter{ID: "center-1", Name: "KL Sports Complex", Lat: 3.1486, Lng: 101.7081},
		CrowKm:  4.53,
		Bearing: 44.0,
	}
}

func TestResolver_FallbackWhenProviderDisabled(t *testing.T) {
	r := routing.NewResolver(nil, 5, discardLogger(), testMetrics())

	route := r.Resolve(context.Background(), domain.Point{Lat: 3.11, Lng: 101.68}, testCandidate(), "en")

	require.Len(t, route.Steps, 1)
	assert.Equal(t, "Head NE for 4.5 km toward KL Sports Complex", route.Steps[0])
	assert.Equal(t, 4.5, route.DistanceKm)
	assert.Nil(t, route.ETAMin)
}

func TestResolver_FallbackWhenProviderErrors(t *testing.T) {
	provider := &stubProvider{err: errors.New("connection timed out")}
	r := routing.NewResolver(provider, 5, discardLogger(), testMetrics())

	route := r.Resolve(context.Background(), domain.Point{Lat: 3.11, Lng: 101.68}, testCandidate(), "en")

	assert.Equal(t, 1, provider.calls)
	require.Len(t, route.Steps, 1)
	assert.True(t, strings.HasPrefix(route.Steps[0], "Head "))
	assert.Nil(t, route.ETAMin)
	assert.Equal(t, 4.5, route.DistanceKm)
}

func TestResolver_FallbackWhenProviderReturnsNoSteps(t *testing.T) {
	provider := &stubProvider{leg: domain.DirectionsLeg{DistanceM: 5000, DurationS: 600}}
	r := routing.NewResolver(provider, 5, discardLogger(), testMetrics())

	route := r.Resolve(context.Background(), domain.Point{Lat: 3.11, Lng: 101.68}, testCandidate(), "en")

	require.Len(t, route.Steps, 1)
	assert.True(t, strings.HasPrefix(route.Steps[0], "Head "))
	assert.Nil(t, route.ETAMin)
}

func TestResolver_ProviderSuccess(t *testing.T) {
	provider := &stubProvider{leg: domain.DirectionsLeg{
		Steps: []domain.DirectionsStep{
			{Instruction: "Head northeast on Jalan Ampang", DistanceM: 2100},
			{Instruction: "Turn right onto Jalan Tun Razak", DistanceM: 1200},
		},
		DistanceM: 5437,
		DurationS: 754,
	}}
	r := routing.NewResolver(provider, 5, discardLogger(), testMetrics())

	route := r.Resolve(context.Background(), domain.Point{Lat: 3.11, Lng: 101.68}, testCandidate(), "en")

	require.Len(t, route.Steps, 2)
	assert.Equal(t, "Head northeast on Jalan Ampang for 2100 m", route.Steps[0])
	assert.Equal(t, "Turn right onto Jalan Tun Razak for 1200 m", route.Steps[1])
	assert.Equal(t, 5.44, route.DistanceKm) // metres rounded to 2 decimal km
	require.NotNil(t, route.ETAMin)
	assert.Equal(t, 13, *route.ETAMin) // 754s rounds to 13 minutes
}

func TestResolver_TruncatesToMaxSteps(t *testing.T) {
	steps := make([]domain.DirectionsStep, 8)
	for i := range steps {
		steps[i] = domain.DirectionsStep{Instruction: "Continue", DistanceM: 100}
	}
	provider := &stubProvider{leg: domain.DirectionsLeg{Steps: steps, DistanceM: 800, DurationS: 120}}
	r := routing.NewResolver(provider, 3, discardLogger(), testMetrics())

	route := r.Resolve(context.Background(), domain.Point{}, testCandidate(), "en")
	assert.Len(t, route.Steps, 3)
}

func TestResolver_DistanceAndETARounding(t *testing.T) {
	provider := &stubProvider{leg: domain.DirectionsLeg{
		Steps:     []domain.DirectionsStep{{Instruction: "Go", DistanceM: 1}},
		DistanceM: 1005, // 1.005 km → 1.01 at 2 decimals (round half away)
		DurationS: 89,   // 1.483 min → 1
	}}
	r := routing.NewResolver(provider, 5, discardLogger(), testMetrics())

	route := r.Resolve(context.Background(), domain.Point{}, testCandidate(), "en")
	assert.Equal(t, 1.01, route.DistanceKm)
	require.NotNil(t, route.ETAMin)
	assert.Equal(t, 1, *route.ETAMin)
}
