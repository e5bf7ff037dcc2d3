package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/dpup/saferoute/server/internal/lib/geo"
)

// Sources tag entries so whole families can be dropped at once
const (
	SourceRoutes  = "routes"
	SourceGeocode = "geocode"
)

// RouteSetKey identifies a synthesized route set. Points are rounded to about
// a meter; zoneFingerprint changes whenever the zone set changes and night
// separates the day and night scoring.
func RouteSetKey(origin, destination geo.Point, zoneFingerprint string, night bool) string {
	period := "day"
	if night {
		period = "night"
	}
	return fmt.Sprintf("routes:%.5f,%.5f:%.5f,%.5f:%s:%s",
		origin.Latitude, origin.Longitude,
		destination.Latitude, destination.Longitude,
		zoneFingerprint, period)
}

// SetRoutes caches a route set
func (c *Cache) SetRoutes(key string, routes interface{}, ttl time.Duration) error {
	return c.Set(key, routes, ttl, SourceRoutes)
}

// GetRoutes reads a cached route set into result
func (c *Cache) GetRoutes(key string, result interface{}) (bool, error) {
	return c.Get(key, result)
}

// InvalidateRoutes drops every cached route set
func (c *Cache) InvalidateRoutes() int {
	return c.DeleteBySource(SourceRoutes)
}

// GeocodeKey namespaces a geocoding lookup key. Lookups differing only in
// case or surrounding space share an entry.
func GeocodeKey(lookup string) string {
	return "geocode:" + strings.ToLower(strings.TrimSpace(lookup))
}
