// Package guidance turns a chosen route into spoken turn-by-turn instructions
package guidance

import "github.com/dpup/saferoute/server/internal/lib/geo"

// Instruction IDs shared between the generated sequence and the arrival check
const (
	StartID       = "start"
	DestinationID = "destination"
)

const (
	startText   = "Starting navigation. Head forward."
	arrivalText = "You have arrived at your destination."
)

// Instruction is one announcement anchored at a waypoint
type Instruction struct {
	ID                string    `json:"id"`
	Text              string    `json:"text"`
	DistanceFromStart float64   `json:"distance_from_start"`
	Coords            geo.Point `json:"coords"`
	Announced         bool      `json:"announced"`
}

// State of a Navigator
type State string

const (
	StateIdle       State = "idle"
	StateNavigating State = "navigating"
	StateArrived    State = "arrived"
)

// SpeechSink is the platform text-to-speech engine. Implementations must
// tolerate Cancel with nothing in flight.
type SpeechSink interface {
	Speak(text string)
	Cancel()
}

// Progress is the outcome of a single position update
type Progress struct {
	State             State        `json:"state"`
	Current           *Instruction `json:"current,omitempty"`
	RemainingDistance float64      `json:"remaining_distance"`
	// Announced lists instruction IDs that were announced by this update
	Announced []string `json:"announced,omitempty"`
}
