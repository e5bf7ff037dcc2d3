package routing

import (
	"sort"

	"github.com/dpup/saferoute/server/internal/lib/geo"
	"github.com/dpup/saferoute/server/internal/lib/zones"
)

// ZoneClassification represents the relationship between a risk zone and a route
type ZoneClassification string

const (
	OnRoute ZoneClassification = "on_route" // path passes through the zone
	Nearby  ZoneClassification = "nearby"   // zone edge within the nearby threshold
	Distant ZoneClassification = "distant"  // filtered out
)

// DefaultNearbyThreshold is how far beyond its radius a zone still counts as nearby
const DefaultNearbyThreshold = 150.0

// ClassifiedZone is a zone annotated with its distance to a route path
type ClassifiedZone struct {
	Zone            zones.RiskZone     `json:"zone"`
	Classification  ZoneClassification `json:"classification"`
	DistanceToRoute float64            `json:"distance_to_route"` // meters from path to zone center
}

// ClassifyZone determines how a zone relates to a waypoint path
func ClassifyZone(zone zones.RiskZone, path []geo.Point, nearbyThreshold float64) ClassifiedZone {
	distance, err := geo.PointToPolyline(zone.Center, path)
	if err != nil {
		return ClassifiedZone{Zone: zone, Classification: Distant, DistanceToRoute: unmatchedDistance}
	}

	classification := Distant
	switch {
	case distance <= zone.Radius:
		classification = OnRoute
	case distance <= zone.Radius+nearbyThreshold:
		classification = Nearby
	}

	return ClassifiedZone{
		Zone:            zone,
		Classification:  classification,
		DistanceToRoute: distance,
	}
}

// ZonesAlongRoute returns zones on or near the route, on-route zones first,
// then by risk level and distance. Distant zones are dropped.
func ZonesAlongRoute(route Route, riskZones []zones.RiskZone, nearbyThreshold float64) []ClassifiedZone {
	var matches []ClassifiedZone
	for _, zone := range riskZones {
		classified := ClassifyZone(zone, route.Coordinates, nearbyThreshold)
		if classified.Classification != Distant {
			matches = append(matches, classified)
		}
	}

	levelOrder := map[zones.RiskLevel]int{
		zones.High:   1,
		zones.Medium: 2,
		zones.Low:    3,
	}

	sort.SliceStable(matches, func(i, j int) bool {
		zi, zj := matches[i], matches[j]

		if zi.Classification != zj.Classification {
			return zi.Classification == OnRoute
		}
		if zi.Zone.RiskLevel != zj.Zone.RiskLevel {
			return levelOrder[zi.Zone.RiskLevel] < levelOrder[zj.Zone.RiskLevel]
		}
		return zi.DistanceToRoute < zj.DistanceToRoute
	})

	return matches
}

// IsOffRoute reports whether pos has strayed further than tolerance meters from the path
func IsOffRoute(pos geo.Point, path []geo.Point, tolerance float64) bool {
	distance, err := geo.PointToPolyline(pos, path)
	if err != nil {
		return false
	}
	return distance > tolerance
}

const unmatchedDistance = 999999 // very large distance for routes without geometry
