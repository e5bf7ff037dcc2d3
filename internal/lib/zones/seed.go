package zones

import (
	"time"

	"github.com/dpup/saferoute/server/internal/lib/geo"
)

// DefaultCenter is used to seed demo zones before a location is known (Midtown Manhattan)
var DefaultCenter = geo.Point{Latitude: 40.7484, Longitude: -73.9857}

// SeedAround generates the demo risk zones positioned relative to center
func SeedAround(center geo.Point, now time.Time) []RiskZone {
	return []RiskZone{
		{
			ID:          "seed-1",
			Center:      geo.Offset(center, 0.003, -0.002),
			Radius:      80,
			RiskLevel:   High,
			Reason:      "Multiple harassment reports after 9 PM",
			ReportedAt:  now,
			ActiveHours: &ActiveHours{Start: 21, End: 6},
		},
		{
			ID:         "seed-2",
			Center:     geo.Offset(center, -0.002, 0.003),
			Radius:     60,
			RiskLevel:  Medium,
			Reason:     "Poor street lighting reported",
			ReportedAt: now,
		},
		{
			ID:         "seed-3",
			Center:     geo.Offset(center, 0.001, 0.004),
			Radius:     50,
			RiskLevel:  Medium,
			Reason:     "Isolated underpass - low foot traffic",
			ReportedAt: now,
		},
		{
			ID:         "seed-4",
			Center:     geo.Offset(center, -0.004, -0.001),
			Radius:     40,
			RiskLevel:  Low,
			Reason:     "Minor incident reported last week",
			ReportedAt: now,
		},
	}
}
