package incident

import (
	"github.com/dpup/saferoute/server/internal/lib/zones"
)

// ReportedZoneRadius is the radius in meters of a zone created from a report
const ReportedZoneRadius = 50

// ToRiskZone converts a report into the risk zone it contributes. Harassment
// is high risk, everything else medium. Reported zones have no active hours.
func ToRiskZone(report Report, zoneID string) zones.RiskZone {
	level := zones.Medium
	if report.Type == Harassment {
		level = zones.High
	}

	reason := report.Description
	if reason == "" {
		reason = report.Type.Label()
	}

	return zones.RiskZone{
		ID:         zoneID,
		Center:     report.Location,
		Radius:     ReportedZoneRadius,
		RiskLevel:  level,
		Reason:     reason,
		ReportedAt: report.ReportedAt,
	}
}
