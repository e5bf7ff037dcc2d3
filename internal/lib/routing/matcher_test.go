package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/saferoute/server/internal/lib/geo"
	"github.com/dpup/saferoute/server/internal/lib/zones"
)

func straightRoute() Route {
	return Route{
		ID:   "fastest",
		Type: Fastest,
		Coordinates: []geo.Point{
			{Latitude: 40.0, Longitude: -73.0},
			{Latitude: 40.01, Longitude: -73.0},
		},
	}
}

func TestClassifyZone(t *testing.T) {
	path := straightRoute().Coordinates

	onRoute := zones.RiskZone{ID: "on", Center: geo.Point{Latitude: 40.005, Longitude: -73.0}, Radius: 50}
	classified := ClassifyZone(onRoute, path, DefaultNearbyThreshold)
	assert.Equal(t, OnRoute, classified.Classification)
	assert.Less(t, classified.DistanceToRoute, 1.0)

	// ~170m east of the path, 50m radius
	nearby := zones.RiskZone{ID: "near", Center: geo.Point{Latitude: 40.005, Longitude: -72.998}, Radius: 50}
	classified = ClassifyZone(nearby, path, DefaultNearbyThreshold)
	assert.Equal(t, Nearby, classified.Classification)
	assert.InDelta(t, 170, classified.DistanceToRoute, 5)

	distant := zones.RiskZone{ID: "far", Center: geo.Point{Latitude: 40.005, Longitude: -72.98}, Radius: 50}
	classified = ClassifyZone(distant, path, DefaultNearbyThreshold)
	assert.Equal(t, Distant, classified.Classification)

	classified = ClassifyZone(onRoute, nil, DefaultNearbyThreshold)
	assert.Equal(t, Distant, classified.Classification, "routes without geometry match nothing")
}

func TestZonesAlongRoute_Ordering(t *testing.T) {
	riskZones := []zones.RiskZone{
		{ID: "near-high", RiskLevel: zones.High, Center: geo.Point{Latitude: 40.002, Longitude: -72.998}, Radius: 50},
		{ID: "on-low", RiskLevel: zones.Low, Center: geo.Point{Latitude: 40.003, Longitude: -73.0}, Radius: 40},
		{ID: "far", RiskLevel: zones.High, Center: geo.Point{Latitude: 41.0, Longitude: -73.0}, Radius: 40},
		{ID: "on-high", RiskLevel: zones.High, Center: geo.Point{Latitude: 40.008, Longitude: -73.0}, Radius: 40},
	}

	matches := ZonesAlongRoute(straightRoute(), riskZones, DefaultNearbyThreshold)
	require.Len(t, matches, 3)

	assert.Equal(t, "on-high", matches[0].Zone.ID)
	assert.Equal(t, "on-low", matches[1].Zone.ID)
	assert.Equal(t, "near-high", matches[2].Zone.ID)
	assert.Equal(t, Nearby, matches[2].Classification)
}

func TestIsOffRoute(t *testing.T) {
	path := straightRoute().Coordinates

	assert.False(t, IsOffRoute(geo.Point{Latitude: 40.005, Longitude: -73.0}, path, 50))
	assert.True(t, IsOffRoute(geo.Point{Latitude: 40.005, Longitude: -72.999}, path, 50), "~85m away")
	assert.False(t, IsOffRoute(geo.Point{Latitude: 40.005, Longitude: -72.999}, nil, 50), "no path, no verdict")
}
