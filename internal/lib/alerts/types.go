// Package alerts warns a walker approaching an active risk zone
package alerts

import (
	"time"

	"github.com/dpup/saferoute/server/internal/lib/zones"
)

// DefaultProximityFactor widens each zone's radius so the warning fires while
// the walker is still approaching
const DefaultProximityFactor = 1.5

// DefaultPattern is the vibration pulse played when a warning surfaces
var DefaultPattern = []time.Duration{
	100 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
}

// Haptics is the platform vibration engine
type Haptics interface {
	Pulse(pattern []time.Duration)
}

// Alert is a zone surfaced as the current warning
type Alert struct {
	Zone     zones.RiskZone `json:"zone"`
	Distance float64        `json:"distance"`
	// New is set on the update that first surfaced this zone
	New bool `json:"new"`
}

// PatternMillis converts a vibration pattern to the millisecond form used by
// browser and mobile vibration APIs
func PatternMillis(pattern []time.Duration) []int64 {
	out := make([]int64, len(pattern))
	for i, d := range pattern {
		out[i] = d.Milliseconds()
	}
	return out
}
