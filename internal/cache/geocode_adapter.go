package cache

import (
	"time"
)

// GeocodeCacheAdapter lets the geocoding client cache results in the main
// Cache without depending on it
type GeocodeCacheAdapter struct {
	cache *Cache
	ttl   time.Duration
}

// NewGeocodeCacheAdapter creates an adapter storing results for ttl
func NewGeocodeCacheAdapter(cache *Cache, ttl time.Duration) *GeocodeCacheAdapter {
	return &GeocodeCacheAdapter{cache: cache, ttl: ttl}
}

// Load reads a cached lookup into result
func (a *GeocodeCacheAdapter) Load(key string, result interface{}) bool {
	found, err := a.cache.Get(GeocodeKey(key), result)
	return err == nil && found
}

// Store caches a lookup result. Failures to encode are dropped; the next
// lookup simply goes to the network again.
func (a *GeocodeCacheAdapter) Store(key string, value interface{}) {
	_ = a.cache.Set(GeocodeKey(key), value, a.ttl, SourceGeocode)
}
