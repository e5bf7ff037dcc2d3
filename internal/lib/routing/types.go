package routing

import (
	"github.com/dpup/saferoute/server/internal/lib/geo"
)

// RouteType identifies the intent a synthesized route was built for
type RouteType string

const (
	Safest   RouteType = "safest"
	Balanced RouteType = "balanced"
	Fastest  RouteType = "fastest"
)

// RouteTypes lists the types in the order routes are returned
var RouteTypes = []RouteType{Safest, Balanced, Fastest}

// Name returns the display name of the route type
func (t RouteType) Name() string {
	switch t {
	case Safest:
		return "Safest Route"
	case Balanced:
		return "Balanced Route"
	case Fastest:
		return "Fastest Route"
	default:
		return "Route"
	}
}

// Route represents a candidate walking path annotated with a heuristic safety score.
// Routes are immutable once built; new inputs produce a new set.
type Route struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Type        RouteType   `json:"type"`
	SafetyScore int         `json:"safety_score"` // 0-100, higher is safer
	Distance    int         `json:"distance"`     // meters
	Duration    int         `json:"duration"`     // seconds
	Coordinates []geo.Point `json:"coordinates"`
	Warnings    []string    `json:"warnings"`
	Polyline    string      `json:"polyline"`
}

// Origin returns the first waypoint
func (r Route) Origin() geo.Point {
	return r.Coordinates[0]
}

// Destination returns the last waypoint
func (r Route) Destination() geo.Point {
	return r.Coordinates[len(r.Coordinates)-1]
}

// RandomSource supplies uniform values in [0, 1). *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}
