package routing

import (
	"math"
	"math/rand"
	"time"

	"github.com/dpup/saferoute/server/internal/lib/geo"
	"github.com/dpup/saferoute/server/internal/lib/zones"
)

const (
	// DefaultWalkingSpeed is the assumed pace in meters per second (~4.3 km/h)
	DefaultWalkingSpeed = 1.2

	waypointSpacing = 200 // meters of straight-line distance per intermediate waypoint
	minWaypoints    = 2
	maxWaypoints    = 6

	safestVariation   = 0.003  // degrees, roughly 330m
	balancedVariation = 0.0015 // degrees
	diagonalFactor    = 0.7
)

// safestOffsets are evaluated in order; the first lowest-cost offset wins
var safestOffsets = []struct{ dLat, dLng float64 }{
	{safestVariation, 0},
	{-safestVariation, 0},
	{0, safestVariation},
	{0, -safestVariation},
	{safestVariation * diagonalFactor, safestVariation * diagonalFactor},
	{-safestVariation * diagonalFactor, safestVariation * diagonalFactor},
}

// Synthesizer produces the safest, balanced and fastest candidate routes
// between two points. It never snaps to a street network; waypoints are
// perturbed points on the straight line between origin and destination.
type Synthesizer struct {
	random       RandomSource
	now          func() time.Time
	walkingSpeed float64
}

// Option configures a Synthesizer
type Option func(*Synthesizer)

// WithRandomSource pins the jitter used by the balanced route
func WithRandomSource(r RandomSource) Option {
	return func(s *Synthesizer) {
		s.random = r
	}
}

// WithClock sets the clock used for the night-time penalty
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) {
		s.now = now
	}
}

// WithWalkingSpeed overrides the pace used to estimate durations
func WithWalkingSpeed(metersPerSecond float64) Option {
	return func(s *Synthesizer) {
		if metersPerSecond > 0 {
			s.walkingSpeed = metersPerSecond
		}
	}
}

// NewSynthesizer creates a route synthesizer. Without options the balanced
// route uses the shared math/rand source and the wall clock.
func NewSynthesizer(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		random:       globalRandom{},
		now:          time.Now,
		walkingSpeed: DefaultWalkingSpeed,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize returns exactly three routes ordered safest, balanced, fastest.
// The balanced route is jittered and not reproducible unless a seeded
// RandomSource is configured.
func (s *Synthesizer) Synthesize(origin, destination geo.Point, riskZones []zones.RiskZone) []Route {
	night := IsNight(s.now().Hour())

	routes := make([]Route, 0, len(RouteTypes))
	for _, routeType := range RouteTypes {
		waypoints := s.generateWaypoints(origin, destination, routeType, riskZones)
		routes = append(routes, s.buildRoute(routeType, waypoints, riskZones, night))
	}
	return routes
}

// WaypointCount returns how many intermediate waypoints a straight-line
// distance receives
func WaypointCount(directDistance float64) int {
	n := int(math.Round(directDistance / waypointSpacing))
	if n < minWaypoints {
		return minWaypoints
	}
	if n > maxWaypoints {
		return maxWaypoints
	}
	return n
}

// generateWaypoints builds [origin, intermediates..., destination] for a route type
func (s *Synthesizer) generateWaypoints(origin, destination geo.Point, routeType RouteType, riskZones []zones.RiskZone) []geo.Point {
	n := WaypointCount(geo.Distance(origin, destination))

	waypoints := make([]geo.Point, 0, n+2)
	waypoints = append(waypoints, origin)

	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n+1)
		base := geo.Interpolate(origin, destination, t)

		switch routeType {
		case Safest:
			base = safestCandidate(base, riskZones)
		case Balanced:
			base = geo.Offset(base,
				(s.random.Float64()-0.5)*balancedVariation,
				(s.random.Float64()-0.5)*balancedVariation)
		}

		waypoints = append(waypoints, base)
	}

	return append(waypoints, destination)
}

// safestCandidate picks the lowest-cost offset around base. The unshifted
// point itself is never a candidate.
func safestCandidate(base geo.Point, riskZones []zones.RiskZone) geo.Point {
	best := base
	bestCost := math.Inf(1)

	for _, offset := range safestOffsets {
		candidate := geo.Offset(base, offset.dLat, offset.dLng)
		cost := pointCost(candidate, riskZones)
		if cost < bestCost {
			bestCost = cost
			best = candidate
		}
	}
	return best
}

// buildRoute scores the waypoint sequence and assembles the route
func (s *Synthesizer) buildRoute(routeType RouteType, waypoints []geo.Point, riskZones []zones.RiskZone, night bool) Route {
	totalDistance := 0.0
	totalSafety := 0.0
	var allWarnings []string

	for i := 0; i < len(waypoints)-1; i++ {
		totalDistance += geo.Distance(waypoints[i], waypoints[i+1])

		score, warnings := scoreSegment(waypoints[i], waypoints[i+1], riskZones, night)
		totalSafety += score
		for _, w := range warnings {
			allWarnings = appendUnique(allWarnings, w)
		}
	}

	avgSafety := totalSafety / float64(len(waypoints)-1)

	warnings := []string{}
	if routeType != Safest {
		if len(allWarnings) > maxWarnings {
			allWarnings = allWarnings[:maxWarnings]
		}
		warnings = append(warnings, allWarnings...)
	}

	return Route{
		ID:          string(routeType),
		Name:        routeType.Name(),
		Type:        routeType,
		SafetyScore: adjustScore(routeType, avgSafety),
		Distance:    int(math.Round(totalDistance)),
		Duration:    int(math.Round(totalDistance / s.walkingSpeed)),
		Coordinates: waypoints,
		Warnings:    warnings,
		Polyline:    geo.EncodePolyline(waypoints),
	}
}

// globalRandom draws from the package-level math/rand source, which is safe
// for concurrent use
type globalRandom struct{}

func (globalRandom) Float64() float64 {
	return rand.Float64()
}
