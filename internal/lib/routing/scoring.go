package routing

import (
	"math"

	"github.com/dpup/saferoute/server/internal/lib/geo"
	"github.com/dpup/saferoute/server/internal/lib/zones"
)

// Per-zone penalties applied once per segment
var segmentPenalty = map[zones.RiskLevel]float64{
	zones.High:   25,
	zones.Medium: 12,
	zones.Low:    5,
}

// Cost of placing a safest-route waypoint inside a zone
var detourCost = map[zones.RiskLevel]float64{
	zones.High:   100,
	zones.Medium: 50,
	zones.Low:    25,
}

const (
	nightPenalty  = 10
	maxWarnings   = 3
	safestBonus   = 15
	safestCeiling = 98
	balancedFloor = 50
	balancedCap   = 85
	fastestMalus  = 10
	fastestFloor  = 30
)

// IsNight reports whether the hour falls in the night-time penalty window
func IsNight(hour int) bool {
	return hour >= 21 || hour <= 5
}

// scoreSegment rates a single leg from 0 to 100. The endpoints and midpoint are
// tested against every zone; a zone penalizes the segment at most once.
func scoreSegment(from, to geo.Point, riskZones []zones.RiskZone, night bool) (float64, []string) {
	checkPoints := [3]geo.Point{from, geo.Midpoint(from, to), to}

	var warnings []string
	penalty := 0.0

	for _, zone := range riskZones {
		for _, p := range checkPoints {
			if !zones.IsInside(p, zone) {
				continue
			}
			penalty += segmentPenalty[zone.RiskLevel]
			// Low risk zones cost points but are not worth a warning
			if zone.RiskLevel != zones.Low {
				warnings = appendUnique(warnings, zone.Reason)
			}
			break
		}
	}

	if night {
		penalty += nightPenalty
	}

	return math.Max(0, 100-penalty), warnings
}

// adjustScore applies the fixed bias for each route type and rounds the result
func adjustScore(routeType RouteType, avgSafety float64) int {
	score := avgSafety
	switch routeType {
	case Safest:
		score = math.Min(safestCeiling, avgSafety+safestBonus)
	case Balanced:
		score = math.Max(balancedFloor, math.Min(balancedCap, avgSafety))
	case Fastest:
		score = math.Max(fastestFloor, avgSafety-fastestMalus)
	}
	return int(math.Round(math.Max(0, math.Min(100, score))))
}

// pointCost sums the detour cost of every zone that strictly contains p
func pointCost(p geo.Point, riskZones []zones.RiskZone) float64 {
	total := 0.0
	for _, zone := range riskZones {
		if geo.Distance(p, zone.Center) < zone.Radius {
			total += detourCost[zone.RiskLevel]
		}
	}
	return total
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}
