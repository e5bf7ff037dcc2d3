package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dpup/saferoute/server/internal/lib/geo"
	"github.com/dpup/saferoute/server/internal/lib/guidance"
	"github.com/dpup/saferoute/server/internal/lib/incident"
	"github.com/dpup/saferoute/server/internal/lib/routing"
	"github.com/dpup/saferoute/server/internal/lib/zones"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "routes":
		handleRoutes()
	case "instructions":
		handleInstructions()
	case "zones-kml":
		handleZonesKML()
	case "distance":
		handleDistance()
	case "decode-polyline":
		handleDecodePolyline()
	case "hash-report":
		handleHashReport()
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// routeFlags are shared by the commands that synthesize routes
type routeFlags struct {
	from      *string
	to        *string
	seedZones *bool
	seed      *int64
	hour      *int
}

func addRouteFlags(fs *flag.FlagSet) routeFlags {
	return routeFlags{
		from:      fs.String("from", "", "Origin as lat,lng"),
		to:        fs.String("to", "", "Destination as lat,lng"),
		seedZones: fs.Bool("seed-zones", false, "Add the demo risk zones around the origin"),
		seed:      fs.Int64("seed", 0, "Seed for the balanced route jitter (0 uses a random seed)"),
		hour:      fs.Int("hour", -1, "Hour of day used for night scoring (default: now)"),
	}
}

func (f routeFlags) synthesize() ([]routing.Route, []zones.RiskZone) {
	origin, err := parsePoint(*f.from)
	if err != nil {
		log.Fatalf("Invalid --from: %v", err)
	}
	destination, err := parsePoint(*f.to)
	if err != nil {
		log.Fatalf("Invalid --to: %v", err)
	}

	var riskZones []zones.RiskZone
	if *f.seedZones {
		riskZones = zones.SeedAround(origin, time.Now())
	}

	opts := []routing.Option{}
	if *f.seed != 0 {
		opts = append(opts, routing.WithRandomSource(rand.New(rand.NewSource(*f.seed))))
	}
	if *f.hour >= 0 {
		hour := *f.hour
		opts = append(opts, routing.WithClock(func() time.Time {
			now := time.Now()
			return time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
		}))
	}

	return routing.NewSynthesizer(opts...).Synthesize(origin, destination, riskZones), riskZones
}

func handleRoutes() {
	fs := flag.NewFlagSet("routes", flag.ExitOnError)
	rf := addRouteFlags(fs)
	asJSON := fs.Bool("json", false, "Print routes as JSON")
	verbose := fs.Bool("verbose", false, "Print every waypoint")

	fs.Parse(os.Args[2:])

	if *rf.from == "" || *rf.to == "" {
		fmt.Println("Example usage:")
		fmt.Println("  route-preview routes --from 40.7484,-73.9857 --to 40.7527,-73.9772")
		fmt.Println("  route-preview routes --from 40.7484,-73.9857 --to 40.7527,-73.9772 --seed-zones --hour 22")
		os.Exit(1)
	}

	routes, riskZones := rf.synthesize()

	if *asJSON {
		printJSON(routes)
		return
	}

	fmt.Printf("Risk zones: %d\n\n", len(riskZones))
	for _, route := range routes {
		fmt.Printf("%s\n", route.Name)
		fmt.Printf("  Safety score: %d\n", route.SafetyScore)
		fmt.Printf("  Distance:     %s\n", guidance.FormatDistance(float64(route.Distance)))
		fmt.Printf("  Duration:     %d min\n", (route.Duration+30)/60)
		if len(route.Warnings) > 0 {
			fmt.Printf("  Warnings:     %s\n", strings.Join(route.Warnings, "; "))
		}

		classified := routing.ZonesAlongRoute(route, riskZones, routing.DefaultNearbyThreshold)
		for _, cz := range classified {
			fmt.Printf("  Zone %s (%s): %s, %.0fm from path\n", cz.Zone.ID, cz.Zone.RiskLevel, cz.Classification, cz.DistanceToRoute)
		}

		if *verbose {
			for i, p := range route.Coordinates {
				fmt.Printf("    %d: %.6f,%.6f\n", i, p.Latitude, p.Longitude)
			}
		}
		fmt.Println()
	}
}

func handleInstructions() {
	fs := flag.NewFlagSet("instructions", flag.ExitOnError)
	rf := addRouteFlags(fs)
	routeType := fs.String("type", string(routing.Safest), "Route type: safest, balanced or fastest")

	fs.Parse(os.Args[2:])

	if *rf.from == "" || *rf.to == "" {
		fmt.Println("Example usage:")
		fmt.Println("  route-preview instructions --from 40.7484,-73.9857 --to 40.7527,-73.9772 --type fastest")
		os.Exit(1)
	}

	routes, _ := rf.synthesize()
	for _, route := range routes {
		if string(route.Type) != *routeType {
			continue
		}
		for _, instruction := range guidance.GenerateInstructions(route.Coordinates) {
			fmt.Printf("%8s  %-12s %s\n", guidance.FormatDistance(instruction.DistanceFromStart), instruction.ID, instruction.Text)
		}
		return
	}

	log.Fatalf("Unknown route type: %s", *routeType)
}

func handleZonesKML() {
	fs := flag.NewFlagSet("zones-kml", flag.ExitOnError)
	center := fs.String("center", "", "Center for the demo zones as lat,lng (default: Midtown Manhattan)")
	output := fs.String("out", "", "Output file (default: stdout)")

	fs.Parse(os.Args[2:])

	point := zones.DefaultCenter
	if *center != "" {
		p, err := parsePoint(*center)
		if err != nil {
			log.Fatalf("Invalid --center: %v", err)
		}
		point = p
	}

	doc, err := zones.ExportKML(zones.SeedAround(point, time.Now()))
	if err != nil {
		log.Fatalf("Error exporting zones: %v", err)
	}

	if *output == "" {
		os.Stdout.Write(doc)
		return
	}
	if err := os.WriteFile(*output, doc, 0o644); err != nil {
		log.Fatalf("Error writing %s: %v", *output, err)
	}
	fmt.Printf("Wrote %s\n", *output)
}

func handleDistance() {
	fs := flag.NewFlagSet("distance", flag.ExitOnError)
	from := fs.String("from", "", "First point as lat,lng")
	to := fs.String("to", "", "Second point as lat,lng")

	fs.Parse(os.Args[2:])

	if *from == "" || *to == "" {
		fmt.Println("Example usage:")
		fmt.Println("  route-preview distance --from 40.7484,-73.9857 --to 40.7527,-73.9772")
		os.Exit(1)
	}

	p1, err := parsePoint(*from)
	if err != nil {
		log.Fatalf("Invalid --from: %v", err)
	}
	p2, err := parsePoint(*to)
	if err != nil {
		log.Fatalf("Invalid --to: %v", err)
	}

	distance := geo.Distance(p1, p2)
	fmt.Printf("Distance between points:\n")
	fmt.Printf("  Point 1: (%.6f, %.6f)\n", p1.Latitude, p1.Longitude)
	fmt.Printf("  Point 2: (%.6f, %.6f)\n", p2.Latitude, p2.Longitude)
	fmt.Printf("  Distance: %.2f meters (%s)\n", distance, guidance.FormatDistance(distance))
	fmt.Printf("  Bearing: %.1f degrees\n", geo.Bearing(p1, p2))
	fmt.Printf("  Walking time: %d min\n", int(distance/routing.DefaultWalkingSpeed/60+0.5))
}

func handleDecodePolyline() {
	fs := flag.NewFlagSet("decode-polyline", flag.ExitOnError)
	polylineStr := fs.String("polyline", "", "Encoded polyline string")
	verbose := fs.Bool("verbose", false, "Print every point")

	fs.Parse(os.Args[2:])

	if *polylineStr == "" {
		fmt.Println("Example usage:")
		fmt.Println("  route-preview decode-polyline --polyline \"_p~iF~ps|U_ulLnnqC_mqNvxq`@\" --verbose")
		os.Exit(1)
	}

	points, err := geo.DecodePolyline(*polylineStr)
	if err != nil {
		log.Fatalf("Error decoding polyline: %v", err)
	}

	fmt.Printf("Polyline decoded successfully:\n")
	fmt.Printf("  Points: %d\n", len(points))
	fmt.Printf("  Length: %s\n", guidance.FormatDistance(geo.PathLength(points)))
	if len(points) > 0 {
		fmt.Printf("  Start: (%.6f, %.6f)\n", points[0].Latitude, points[0].Longitude)
		fmt.Printf("  End: (%.6f, %.6f)\n", points[len(points)-1].Latitude, points[len(points)-1].Longitude)
	}

	if *verbose {
		for i, point := range points {
			fmt.Printf("    %d: (%.6f, %.6f)\n", i+1, point.Latitude, point.Longitude)
		}
	}
}

func handleHashReport() {
	fs := flag.NewFlagSet("hash-report", flag.ExitOnError)
	at := fs.String("at", "", "Report location as lat,lng")
	reportType := fs.String("type", string(incident.Other), "Incident type")
	description := fs.String("description", "", "Report description")

	fs.Parse(os.Args[2:])

	if *at == "" {
		fmt.Println("Example usage:")
		fmt.Println("  route-preview hash-report --at 40.7484,-73.9857 --type broken_light --description \"Light out on 5th Ave.\"")
		os.Exit(1)
	}

	location, err := parsePoint(*at)
	if err != nil {
		log.Fatalf("Invalid --at: %v", err)
	}

	hash := incident.NewHasher().Hash(incident.Report{
		Type:        incident.Type(*reportType),
		Location:    location,
		Description: *description,
	})

	fmt.Printf("Content Hash: %s\n", hash.Hash)
	fmt.Printf("Normalized Text: %s\n", hash.NormalizedText)
	fmt.Printf("Location Key: %s\n", hash.LocationKey)
	fmt.Printf("Type: %s (%s)\n", hash.Type, hash.Type.Label())
}

func parsePoint(s string) (geo.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geo.Point{}, fmt.Errorf("expected lat,lng, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("invalid latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("invalid longitude: %w", err)
	}
	return geo.NewPoint(lat, lng)
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Error encoding JSON: %v", err)
	}
	fmt.Println(string(data))
}

func printUsage() {
	fmt.Println("route-preview - Inspect synthesized walking routes")
	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  route-preview <command> [options]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  routes           Print the safest, balanced and fastest routes between two points")
	fmt.Println("  instructions     Print turn-by-turn instructions for one route")
	fmt.Println("  zones-kml        Export the demo risk zones as KML")
	fmt.Println("  distance         Distance and bearing between two points")
	fmt.Println("  decode-polyline  Decode an encoded route polyline")
	fmt.Println("  hash-report      Show the deduplication hash of an incident report")
	fmt.Println("  help             Show this help message")
}
