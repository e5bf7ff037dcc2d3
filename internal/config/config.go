package config

import (
	"fmt"
	"time"

	"github.com/dpup/saferoute/server/internal/lib/alerts"
	"github.com/dpup/saferoute/server/internal/lib/geo"
	"github.com/dpup/saferoute/server/internal/lib/guidance"
	"github.com/dpup/saferoute/server/internal/lib/routing"
	"github.com/dpup/saferoute/server/internal/lib/zones"
)

// Config represents the complete server configuration. Each section is read
// from prefab.yaml / PF__ environment variables by key.
type Config struct {
	Navigation NavigationConfig `koanf:"navigation"`
	Zones      ZonesConfig      `koanf:"zones"`
	Geocoding  GeocodingConfig  `koanf:"geocoding"`
	Sessions   SessionsConfig   `koanf:"sessions"`
}

// NavigationConfig holds route synthesis and guidance tunables
type NavigationConfig struct {
	WalkingSpeed     float64       `koanf:"walking_speed"`      // meters per second
	AnnounceRadius   float64       `koanf:"announce_radius"`    // meters
	ArrivalRadius    float64       `koanf:"arrival_radius"`     // meters
	ProximityFactor  float64       `koanf:"proximity_factor"`   // multiple of zone radius
	OffRouteDistance float64       `koanf:"off_route_distance"` // meters
	RouteCacheTTL    time.Duration `koanf:"route_cache_ttl"`
}

// ZonesConfig controls the initial zone set
type ZonesConfig struct {
	SeedDemo   bool      `koanf:"seed_demo"`
	SeedCenter geo.Point `koanf:"seed_center"`
}

// GeocodingConfig holds place search settings
type GeocodingConfig struct {
	BaseURL     string        `koanf:"base_url"`
	UserAgent   string        `koanf:"user_agent"`
	Limit       int           `koanf:"limit"`
	MinInterval time.Duration `koanf:"min_interval"`
	CacheTTL    time.Duration `koanf:"cache_ttl"`
}

// SessionsConfig controls navigation session lifetime
type SessionsConfig struct {
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
	ReapInterval time.Duration `koanf:"reap_interval"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Navigation: NavigationConfig{
			WalkingSpeed:     routing.DefaultWalkingSpeed,
			AnnounceRadius:   guidance.DefaultAnnounceRadius,
			ArrivalRadius:    guidance.DefaultArrivalRadius,
			ProximityFactor:  alerts.DefaultProximityFactor,
			OffRouteDistance: 50,
			RouteCacheTTL:    5 * time.Minute,
		},
		Zones: ZonesConfig{
			SeedDemo:   true,
			SeedCenter: zones.DefaultCenter,
		},
		Geocoding: GeocodingConfig{
			BaseURL:     "https://nominatim.openstreetmap.org",
			UserAgent:   "SafeRoute App",
			Limit:       6,
			MinInterval: time.Second,
			CacheTTL:    30 * time.Minute,
		},
		Sessions: SessionsConfig{
			IdleTimeout:  30 * time.Minute,
			ReapInterval: time.Minute,
		},
	}
}

// Validate rejects settings the navigation core cannot work with
func (c *Config) Validate() error {
	nav := c.Navigation
	if nav.WalkingSpeed <= 0 {
		return fmt.Errorf("navigation.walking_speed must be positive, got %v", nav.WalkingSpeed)
	}
	if nav.ArrivalRadius <= 0 || nav.AnnounceRadius <= 0 {
		return fmt.Errorf("navigation radii must be positive")
	}
	if nav.ProximityFactor < 1 {
		return fmt.Errorf("navigation.proximity_factor must be at least 1, got %v", nav.ProximityFactor)
	}
	if !geo.IsValid(c.Zones.SeedCenter) {
		return fmt.Errorf("zones.seed_center is not a valid coordinate")
	}
	if c.Sessions.IdleTimeout <= 0 || c.Sessions.ReapInterval <= 0 {
		return fmt.Errorf("sessions.idle_timeout and sessions.reap_interval must be positive")
	}
	return nil
}
