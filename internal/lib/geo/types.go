package geo

// Point represents a WGS84 coordinate in degrees
type Point struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Turn classifies the change of heading at a waypoint
type Turn int

const (
	ContinueStraight Turn = iota
	BearRight
	TurnRight
	SharpRight
	BearLeft
	TurnLeft
	SharpLeft
)

// Phrase returns the spoken form of the turn
func (t Turn) Phrase() string {
	switch t {
	case BearRight:
		return "bear right"
	case TurnRight:
		return "turn right"
	case SharpRight:
		return "make a sharp right"
	case BearLeft:
		return "bear left"
	case TurnLeft:
		return "turn left"
	case SharpLeft:
		return "make a sharp left"
	default:
		return "continue straight"
	}
}

func (t Turn) String() string {
	return t.Phrase()
}
