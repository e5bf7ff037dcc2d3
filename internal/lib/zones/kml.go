package zones

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/twpayne/go-kml/v2"

	"github.com/dpup/saferoute/server/internal/lib/geo"
)

// circleSegments is the number of vertices used to approximate a zone boundary
const circleSegments = 36

// riskColors are the outline colors of each risk level; fills reuse them at
// lower opacity
var riskColors = map[RiskLevel]color.RGBA{
	High:   {R: 0xd3, G: 0x2f, B: 0x2f, A: 0xff},
	Medium: {R: 0xf5, G: 0x7c, B: 0x00, A: 0xff},
	Low:    {R: 0xfb, G: 0xc0, B: 0x2d, A: 0xff},
}

// riskStyles returns one shared style per risk level, keyed by level
func riskStyles() map[RiskLevel]*kml.SharedElement {
	styles := make(map[RiskLevel]*kml.SharedElement, len(riskColors))
	for _, level := range []RiskLevel{High, Medium, Low} {
		line := riskColors[level]
		fill := line
		fill.A = 0x55
		styles[level] = kml.SharedStyle("risk-"+string(level),
			kml.LineStyle(kml.Color(line), kml.Width(2)),
			kml.PolyStyle(kml.Color(fill)),
		)
	}
	return styles
}

// ExportKML renders zones as a KML document, one placemark per zone with its
// center point and an approximated circular boundary
func ExportKML(zones []RiskZone) ([]byte, error) {
	styles := riskStyles()

	placemarks := make([]kml.Element, 0, len(zones)+len(styles)+1)
	placemarks = append(placemarks, kml.Name("SafeRoute risk zones"))
	for _, level := range []RiskLevel{High, Medium, Low} {
		placemarks = append(placemarks, styles[level])
	}

	for _, zone := range zones {
		style, ok := styles[zone.RiskLevel]
		if !ok {
			style = styles[Low]
		}
		placemarks = append(placemarks, kml.Placemark(
			kml.Name(zone.Reason),
			kml.Description(describe(zone)),
			kml.StyleURL(style.URL()),
			kml.MultiGeometry(
				kml.Point(
					kml.Coordinates(kml.Coordinate{Lon: zone.Center.Longitude, Lat: zone.Center.Latitude}),
				),
				kml.Polygon(
					kml.OuterBoundaryIs(
						kml.LinearRing(
							kml.Coordinates(boundary(zone)...),
						),
					),
				),
			),
		))
	}

	var buf bytes.Buffer
	if err := kml.KML(kml.Document(placemarks...)).WriteIndent(&buf, "", "  "); err != nil {
		return nil, fmt.Errorf("failed to write KML: %w", err)
	}
	return buf.Bytes(), nil
}

func describe(zone RiskZone) string {
	desc := fmt.Sprintf("Risk: %s, radius %.0fm", zone.RiskLevel, zone.Radius)
	if zone.ActiveHours != nil {
		desc += fmt.Sprintf(", active %d:00 - %d:00", zone.ActiveHours.Start, zone.ActiveHours.End)
	}
	return desc
}

// boundary returns a closed ring around the zone center
func boundary(zone RiskZone) []kml.Coordinate {
	ring := make([]kml.Coordinate, 0, circleSegments+1)
	for i := 0; i <= circleSegments; i++ {
		bearing := float64(i%circleSegments) * 360 / circleSegments
		p := geo.Destination(zone.Center, bearing, zone.Radius)
		ring = append(ring, kml.Coordinate{Lon: p.Longitude, Lat: p.Latitude})
	}
	return ring
}
