package guidance

import (
	"math"

	"github.com/dpup/saferoute/server/internal/lib/geo"
)

const (
	// DefaultAnnounceRadius is how close an instruction must be before it is spoken
	DefaultAnnounceRadius = 30.0
	// DefaultArrivalRadius is how close the final waypoint must be to count as arrived
	DefaultArrivalRadius = 20.0
)

// Navigator walks a fixed instruction sequence as position updates arrive.
// It is not safe for concurrent use; callers serialize updates per session.
type Navigator struct {
	voice          *Voice
	announceRadius float64
	arrivalRadius  float64

	state        State
	waypoints    []geo.Point
	instructions []Instruction
	announced    map[string]bool
	current      int
}

// NavigatorOption configures a Navigator
type NavigatorOption func(*Navigator)

// WithAnnounceRadius overrides the 30m announcement radius
func WithAnnounceRadius(meters float64) NavigatorOption {
	return func(n *Navigator) {
		if meters > 0 {
			n.announceRadius = meters
		}
	}
}

// WithArrivalRadius overrides the 20m arrival radius
func WithArrivalRadius(meters float64) NavigatorOption {
	return func(n *Navigator) {
		if meters > 0 {
			n.arrivalRadius = meters
		}
	}
}

// NewNavigator creates an idle navigator speaking through voice
func NewNavigator(voice *Voice, opts ...NavigatorOption) *Navigator {
	n := &Navigator{
		voice:          voice,
		announceRadius: DefaultAnnounceRadius,
		arrivalRadius:  DefaultArrivalRadius,
		state:          StateIdle,
		announced:      map[string]bool{},
		current:        -1,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Start generates instructions for waypoints and announces the start
// instruction. Fewer than two waypoints leave the navigator idle.
func (n *Navigator) Start(waypoints []geo.Point) {
	n.reset()

	instructions := GenerateInstructions(waypoints)
	if len(instructions) == 0 {
		return
	}

	n.waypoints = append([]geo.Point(nil), waypoints...)
	n.instructions = instructions
	n.state = StateNavigating
	n.current = 0
	n.markAnnounced(0)
	n.voice.Say(instructions[0].Text)
}

// UpdateForPosition selects the nearest unannounced instruction, announces it
// once it is within the announce radius, and announces arrival once the final
// waypoint is within the arrival radius. Repeating an update is a no-op apart
// from recomputing the current instruction.
func (n *Navigator) UpdateForPosition(pos geo.Point) Progress {
	if n.state != StateNavigating {
		return n.progress(pos, nil)
	}

	var spoken []string

	nearest := -1
	nearestDistance := math.Inf(1)
	for i, instruction := range n.instructions {
		if n.announced[instruction.ID] {
			continue
		}
		// Strict comparison keeps the first instruction on ties
		if d := geo.Distance(pos, instruction.Coords); d < nearestDistance {
			nearest = i
			nearestDistance = d
		}
	}

	if nearest >= 0 {
		n.current = nearest
		if nearestDistance < n.announceRadius {
			n.markAnnounced(nearest)
			n.voice.Say(n.instructions[nearest].Text)
			spoken = append(spoken, n.instructions[nearest].ID)
		}
	}

	last := n.waypoints[len(n.waypoints)-1]
	if geo.Distance(pos, last) < n.arrivalRadius {
		if !n.announced[DestinationID] {
			n.markAnnouncedID(DestinationID)
			n.voice.Say(arrivalText)
			spoken = append(spoken, DestinationID)
		}
		n.state = StateArrived
	}

	return n.progress(pos, spoken)
}

// Stop cancels speech and discards the instruction sequence
func (n *Navigator) Stop() {
	n.voice.Cancel()
	n.reset()
}

// SetVoiceEnabled turns spoken output on or off. Announcement bookkeeping
// continues while muted, so muted instructions are not replayed later.
func (n *Navigator) SetVoiceEnabled(enabled bool) {
	n.voice.SetEnabled(enabled)
}

// ToggleVoice flips spoken output and returns the new setting
func (n *Navigator) ToggleVoice() bool {
	enabled := !n.voice.Enabled()
	n.voice.SetEnabled(enabled)
	return enabled
}

// VoiceEnabled reports whether spoken output is on
func (n *Navigator) VoiceEnabled() bool {
	return n.voice.Enabled()
}

// RemainingDistance is the straight-line distance from pos to the final
// waypoint, not the remaining path length. Without waypoints it is 0.
func (n *Navigator) RemainingDistance(pos geo.Point) float64 {
	if len(n.waypoints) == 0 {
		return 0
	}
	return geo.Distance(pos, n.waypoints[len(n.waypoints)-1])
}

// State returns the navigation state
func (n *Navigator) State() State {
	return n.state
}

// Current returns the instruction on display, if any
func (n *Navigator) Current() (Instruction, bool) {
	if n.current < 0 || n.current >= len(n.instructions) {
		return Instruction{}, false
	}
	return n.instructions[n.current], true
}

// Instructions returns a copy of the instruction sequence
func (n *Navigator) Instructions() []Instruction {
	out := make([]Instruction, len(n.instructions))
	copy(out, n.instructions)
	return out
}

func (n *Navigator) progress(pos geo.Point, spoken []string) Progress {
	p := Progress{
		State:             n.state,
		RemainingDistance: n.RemainingDistance(pos),
		Announced:         spoken,
	}
	if current, ok := n.Current(); ok {
		p.Current = &current
	}
	return p
}

func (n *Navigator) markAnnounced(i int) {
	n.instructions[i].Announced = true
	n.announced[n.instructions[i].ID] = true
}

func (n *Navigator) markAnnouncedID(id string) {
	for i := range n.instructions {
		if n.instructions[i].ID == id {
			n.markAnnounced(i)
			return
		}
	}
	n.announced[id] = true
}

func (n *Navigator) reset() {
	n.state = StateIdle
	n.waypoints = nil
	n.instructions = nil
	n.announced = map[string]bool{}
	n.current = -1
}
