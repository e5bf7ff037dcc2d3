package guidance

import (
	"fmt"
	"math"
	"strings"

	"github.com/dpup/saferoute/server/internal/lib/geo"
)

// GenerateInstructions builds the fixed announcement sequence for a route:
// a start instruction, one instruction per interior waypoint that is not a
// straight continuation, and the destination. Paths with fewer than two
// waypoints produce no instructions.
func GenerateInstructions(waypoints []geo.Point) []Instruction {
	if len(waypoints) < 2 {
		return []Instruction{}
	}

	instructions := []Instruction{{
		ID:     StartID,
		Text:   startText,
		Coords: waypoints[0],
	}}

	travelled := 0.0
	for i := 1; i < len(waypoints)-1; i++ {
		travelled += geo.Distance(waypoints[i-1], waypoints[i])

		turn := geo.TurnDirection(
			geo.Bearing(waypoints[i-1], waypoints[i]),
			geo.Bearing(waypoints[i], waypoints[i+1]),
		)
		if turn == geo.ContinueStraight {
			continue
		}

		instructions = append(instructions, Instruction{
			ID:                fmt.Sprintf("turn-%d", i),
			Text:              fmt.Sprintf("%s, then continue for %s.", capitalize(turn.Phrase()), FormatDistance(geo.Distance(waypoints[i], waypoints[i+1]))),
			DistanceFromStart: travelled,
			Coords:            waypoints[i],
		})
	}

	last := len(waypoints) - 1
	return append(instructions, Instruction{
		ID:                DestinationID,
		Text:              arrivalText,
		DistanceFromStart: travelled + geo.Distance(waypoints[last-1], waypoints[last]),
		Coords:            waypoints[last],
	})
}

// FormatDistance renders a distance the way it is spoken: kilometers with one
// decimal from 1000m up, whole meters below
func FormatDistance(meters float64) string {
	if meters >= 1000 {
		return fmt.Sprintf("%.1f kilometers", meters/1000)
	}
	return fmt.Sprintf("%d meters", int(math.Round(meters)))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
