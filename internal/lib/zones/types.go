package zones

import (
	"time"

	"github.com/dpup/saferoute/server/internal/lib/geo"
)

// RiskLevel grades how dangerous a zone is
type RiskLevel string

const (
	High   RiskLevel = "high"
	Medium RiskLevel = "medium"
	Low    RiskLevel = "low"
)

// Valid reports whether the level is one of the known grades
func (l RiskLevel) Valid() bool {
	return l == High || l == Medium || l == Low
}

// ActiveHours is an inclusive hour-of-day window (0-23). Start > End wraps midnight.
type ActiveHours struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// RiskZone represents a circular geofenced area with an associated risk level
type RiskZone struct {
	ID          string       `json:"id"`
	Center      geo.Point    `json:"center"`
	Radius      float64      `json:"radius"` // meters
	RiskLevel   RiskLevel    `json:"risk_level"`
	Reason      string       `json:"reason"`
	ReportedAt  time.Time    `json:"reported_at"`
	ActiveHours *ActiveHours `json:"active_hours,omitempty"`
}
