package geo

import (
	"errors"
	"math"

	"github.com/twpayne/go-polyline"
)

// EarthRadius is the mean Earth radius in meters used by every distance calculation
const EarthRadius = 6371000

// Distance calculates great-circle distance between two points using Haversine formula
func Distance(p1, p2 Point) float64 {
	if p1 == p2 {
		return 0
	}

	lat1 := toRadians(p1.Latitude)
	lat2 := toRadians(p2.Latitude)
	dlat := toRadians(p2.Latitude - p1.Latitude)
	dlon := toRadians(p2.Longitude - p1.Longitude)

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadius * c
}

// Bearing returns the initial compass bearing from p1 to p2 in [0, 360).
// Identical points have no direction and yield 0.
func Bearing(p1, p2 Point) float64 {
	if p1 == p2 {
		return 0
	}

	lat1 := toRadians(p1.Latitude)
	lat2 := toRadians(p2.Latitude)
	dlon := toRadians(p2.Longitude - p1.Longitude)

	y := math.Sin(dlon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dlon)

	bearing := math.Mod(toDegrees(math.Atan2(y, x))+360, 360)
	if bearing == 360 {
		return 0
	}
	return bearing
}

// BearingDelta returns the signed change from prev to next normalized to (-180, 180]
func BearingDelta(prev, next float64) float64 {
	diff := math.Mod(next-prev, 360)
	if diff > 180 {
		diff -= 360
	}
	if diff <= -180 {
		diff += 360
	}
	return diff
}

// TurnDirection buckets a heading change into a Turn. Boundary values belong
// to the sharper bucket: exactly 20 is a bear, 60 a turn, 120 a sharp turn.
func TurnDirection(prevBearing, newBearing float64) Turn {
	diff := BearingDelta(prevBearing, newBearing)

	switch {
	case math.Abs(diff) < 20:
		return ContinueStraight
	case diff > 0 && diff < 60:
		return BearRight
	case diff >= 60 && diff < 120:
		return TurnRight
	case diff >= 120:
		return SharpRight
	case diff < 0 && diff > -60:
		return BearLeft
	case diff <= -60 && diff > -120:
		return TurnLeft
	default:
		return SharpLeft
	}
}

// Interpolate returns the point at fraction t along the straight line between start and end.
// Linear interpolation in degrees; walking paths are short enough that the error is negligible.
func Interpolate(start, end Point, t float64) Point {
	return Point{
		Latitude:  start.Latitude + t*(end.Latitude-start.Latitude),
		Longitude: start.Longitude + t*(end.Longitude-start.Longitude),
	}
}

// Midpoint returns the degree-space midpoint of a segment
func Midpoint(start, end Point) Point {
	return Point{
		Latitude:  (start.Latitude + end.Latitude) / 2,
		Longitude: (start.Longitude + end.Longitude) / 2,
	}
}

// Offset shifts a point by the given number of degrees on each axis
func Offset(p Point, dLat, dLng float64) Point {
	return Point{Latitude: p.Latitude + dLat, Longitude: p.Longitude + dLng}
}

// Destination returns the point reached by travelling distanceMeters from p
// along the given initial bearing
func Destination(p Point, bearing, distanceMeters float64) Point {
	delta := distanceMeters / EarthRadius
	theta := toRadians(bearing)
	lat1 := toRadians(p.Latitude)
	lon1 := toRadians(p.Longitude)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(theta))
	lon2 := lon1 + math.Atan2(math.Sin(theta)*math.Sin(delta)*math.Cos(lat1), math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2))

	return Point{Latitude: toDegrees(lat2), Longitude: math.Mod(toDegrees(lon2)+540, 360) - 180}
}

// IsWithinRadius reports whether p lies within radiusMeters of center (inclusive)
func IsWithinRadius(p, center Point, radiusMeters float64) bool {
	return Distance(p, center) <= radiusMeters
}

// PathLength sums segment distances along an ordered path
func PathLength(points []Point) float64 {
	total := 0.0
	for i := 0; i < len(points)-1; i++ {
		total += Distance(points[i], points[i+1])
	}
	return total
}

// PointToPolyline calculates minimum distance from point to a path in meters
func PointToPolyline(point Point, points []Point) (float64, error) {
	if len(points) == 0 {
		return 0, errors.New("polyline has no points")
	}
	if len(points) == 1 {
		return Distance(point, points[0]), nil
	}

	minDistance := math.Inf(1)
	for i := 0; i < len(points)-1; i++ {
		d := pointToSegmentDistance(point, points[i], points[i+1])
		if d < minDistance {
			minDistance = d
		}
	}
	return minDistance, nil
}

// pointToSegmentDistance uses cross-track distance, falling back to the nearest
// endpoint when the projection lies outside the segment
func pointToSegmentDistance(point, segmentStart, segmentEnd Point) float64 {
	distanceToStart := Distance(point, segmentStart)
	distanceToEnd := Distance(point, segmentEnd)
	segmentLength := Distance(segmentStart, segmentEnd)

	if segmentLength < 1 {
		return math.Min(distanceToStart, distanceToEnd)
	}

	d13 := distanceToStart / EarthRadius
	bearing12 := toRadians(Bearing(segmentStart, segmentEnd))
	bearing13 := toRadians(Bearing(segmentStart, point))

	dxt := math.Asin(math.Sin(d13) * math.Sin(bearing13-bearing12))
	crossTrack := math.Abs(dxt) * EarthRadius

	// Behind the start of the segment
	if math.Cos(bearing13-bearing12) < 0 {
		return distanceToStart
	}

	alongTrack := math.Acos(math.Min(1, math.Cos(d13)/math.Cos(dxt))) * EarthRadius
	if alongTrack > segmentLength {
		return distanceToEnd
	}

	return crossTrack
}

// EncodePolyline encodes a path using Google's polyline algorithm
func EncodePolyline(points []Point) string {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Latitude, p.Longitude}
	}
	return string(polyline.EncodeCoords(coords))
}

// DecodePolyline decodes Google polyline string to point sequence
func DecodePolyline(encoded string) ([]Point, error) {
	if encoded == "" {
		return nil, errors.New("encoded polyline string is empty")
	}

	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, errors.New("failed to decode polyline: " + err.Error())
	}

	points := make([]Point, len(coords))
	for i, coord := range coords {
		points[i] = Point{Latitude: coord[0], Longitude: coord[1]}
		if !IsValid(points[i]) {
			return nil, errors.New("decoded polyline contains invalid coordinates")
		}
	}
	return points, nil
}

// NewPoint creates a Point from latitude and longitude values with validation
func NewPoint(latitude, longitude float64) (Point, error) {
	point := Point{Latitude: latitude, Longitude: longitude}
	if !IsValid(point) {
		return Point{}, errors.New("invalid coordinates: latitude must be [-90, 90], longitude must be [-180, 180]")
	}
	return point, nil
}

// IsValid validates latitude and longitude ranges
func IsValid(point Point) bool {
	return point.Latitude >= -90 && point.Latitude <= 90 &&
		point.Longitude >= -180 && point.Longitude <= 180
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
