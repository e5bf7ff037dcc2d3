package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dpup/saferoute/server/internal/lib/geo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1.2, cfg.Navigation.WalkingSpeed)
	assert.Equal(t, 30.0, cfg.Navigation.AnnounceRadius)
	assert.Equal(t, 20.0, cfg.Navigation.ArrivalRadius)
	assert.Equal(t, 1.5, cfg.Navigation.ProximityFactor)
	assert.Equal(t, 50.0, cfg.Navigation.OffRouteDistance)
	assert.Equal(t, geo.Point{Latitude: 40.7484, Longitude: -73.9857}, cfg.Zones.SeedCenter)
	assert.Equal(t, 6, cfg.Geocoding.Limit)
	assert.Equal(t, time.Second, cfg.Geocoding.MinInterval)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero walking speed", func(c *Config) { c.Navigation.WalkingSpeed = 0 }},
		{"negative arrival radius", func(c *Config) { c.Navigation.ArrivalRadius = -1 }},
		{"shrinking proximity", func(c *Config) { c.Navigation.ProximityFactor = 0.5 }},
		{"seed center off the map", func(c *Config) { c.Zones.SeedCenter = geo.Point{Latitude: 120} }},
		{"no reaping", func(c *Config) { c.Sessions.ReapInterval = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
