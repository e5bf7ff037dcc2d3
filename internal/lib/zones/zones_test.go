package zones

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/saferoute/server/internal/lib/geo"
)

func TestIsInside(t *testing.T) {
	zone := RiskZone{
		ID:        "z1",
		Center:    geo.Point{Latitude: 40.0, Longitude: -73.0},
		Radius:    100,
		RiskLevel: High,
	}

	assert.True(t, IsInside(zone.Center, zone))
	assert.True(t, IsInside(geo.Point{Latitude: 40.0008, Longitude: -73.0}, zone), "~89m should be inside")
	assert.False(t, IsInside(geo.Point{Latitude: 40.001, Longitude: -73.0}, zone), "~111m should be outside")
}

func TestIsActiveAt_OvernightWindow(t *testing.T) {
	zone := RiskZone{ID: "night", ActiveHours: &ActiveHours{Start: 21, End: 6}}

	tests := []struct {
		hour   int
		active bool
	}{
		{22, true},
		{3, true},
		{12, false},
		{21, true},
		{6, true},
		{7, false},
		{20, false},
		{0, true},
		{23, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.active, IsActiveAt(zone, tt.hour), "hour %d", tt.hour)
	}
}

func TestIsActiveAt_DaytimeWindow(t *testing.T) {
	zone := RiskZone{ID: "day", ActiveHours: &ActiveHours{Start: 9, End: 17}}

	assert.False(t, IsActiveAt(zone, 8))
	assert.True(t, IsActiveAt(zone, 9))
	assert.True(t, IsActiveAt(zone, 12))
	assert.True(t, IsActiveAt(zone, 17))
	assert.False(t, IsActiveAt(zone, 18))

	always := RiskZone{ID: "always"}
	for hour := 0; hour < 24; hour++ {
		assert.True(t, IsActiveAt(always, hour))
	}
}

func TestRegistry_PreservesInsertionOrder(t *testing.T) {
	registry := NewRegistry(
		RiskZone{ID: "c", Reason: "third?"},
		RiskZone{ID: "a", Reason: "a"},
	)
	registry.Add(RiskZone{ID: "b", Reason: "b"})

	ids := func() []string {
		var out []string
		for _, z := range registry.List() {
			out = append(out, z.ID)
		}
		return out
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids())

	// Re-adding an existing ID keeps its slot
	registry.Add(RiskZone{ID: "c", Reason: "updated"})
	assert.Equal(t, []string{"c", "a", "b"}, ids())
	zone, ok := registry.Get("c")
	require.True(t, ok)
	assert.Equal(t, "updated", zone.Reason)
	assert.Equal(t, 3, registry.Len())
}

func TestRegistry_Replace(t *testing.T) {
	registry := NewRegistry(RiskZone{ID: "a"}, RiskZone{ID: "b"})

	assert.True(t, registry.Replace("a", RiskZone{ID: "a2", Reason: "renamed"}))
	_, ok := registry.Get("a")
	assert.False(t, ok)
	zone, ok := registry.Get("a2")
	require.True(t, ok)
	assert.Equal(t, "renamed", zone.Reason)
	assert.Equal(t, "a2", registry.List()[0].ID)

	assert.False(t, registry.Replace("missing", RiskZone{ID: "missing"}))
	assert.False(t, registry.Replace("a2", RiskZone{ID: "b"}), "cannot take another zone's id")

	registry.ReplaceAll([]RiskZone{{ID: "x"}})
	assert.Equal(t, 1, registry.Len())
}

func TestRegistry_ListIsACopy(t *testing.T) {
	registry := NewRegistry(RiskZone{ID: "a", Reason: "original"})
	list := registry.List()
	list[0].Reason = "mutated"

	zone, _ := registry.Get("a")
	assert.Equal(t, "original", zone.Reason)
}

func TestRegistry_ReplaceAllIsAtomic(t *testing.T) {
	first := []RiskZone{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	second := []RiskZone{{ID: "x"}, {ID: "y"}, {ID: "z"}}
	registry := NewRegistry(first...)
	start := registry.Version()

	const rounds = 200
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < rounds; i++ {
			if i%2 == 0 {
				registry.ReplaceAll(second)
			} else {
				registry.ReplaceAll(first)
			}
		}
	}()

	for {
		zones, _ := registry.Snapshot()
		require.Len(t, zones, 3)
		ids := zones[0].ID + zones[1].ID + zones[2].ID
		require.Contains(t, []string{"abc", "xyz"}, ids)

		select {
		case <-done:
			assert.Equal(t, start+rounds, registry.Version())
			return
		default:
		}
	}
}

func TestSeedAround(t *testing.T) {
	center := geo.Point{Latitude: 51.5074, Longitude: -0.1278}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	seeded := SeedAround(center, now)
	require.Len(t, seeded, 4)

	assert.Equal(t, High, seeded[0].RiskLevel)
	require.NotNil(t, seeded[0].ActiveHours)
	assert.Equal(t, ActiveHours{Start: 21, End: 6}, *seeded[0].ActiveHours)
	assert.Equal(t, Low, seeded[3].RiskLevel)

	for _, zone := range seeded {
		assert.True(t, zone.RiskLevel.Valid())
		assert.Equal(t, now, zone.ReportedAt)
		d := geo.Distance(center, zone.Center)
		assert.Greater(t, d, 200.0)
		assert.Less(t, d, 600.0)
	}
}

func TestExportKML(t *testing.T) {
	zones := SeedAround(DefaultCenter, time.Now())

	data, err := ExportKML(zones)
	require.NoError(t, err)

	doc := string(data)
	assert.True(t, strings.HasPrefix(doc, "<?xml") || strings.Contains(doc, "<kml"))
	assert.Equal(t, len(zones), strings.Count(doc, "<Placemark>"))
	assert.Contains(t, doc, "Multiple harassment reports after 9 PM")
	assert.Contains(t, doc, "<styleUrl>#risk-high</styleUrl>")
	for _, level := range []string{"high", "medium", "low"} {
		assert.Contains(t, doc, `<Style id="risk-`+level+`">`, "every referenced style is defined")
	}
	assert.Contains(t, doc, "active 21:00 - 6:00")
}

func TestRegistry_Version(t *testing.T) {
	r := NewRegistry()
	v0 := r.Version()

	r.Add(RiskZone{ID: "a", Radius: 10, RiskLevel: Low})
	v1 := r.Version()
	assert.Greater(t, v1, v0)

	assert.False(t, r.Replace("missing", RiskZone{ID: "missing"}))
	assert.Equal(t, v1, r.Version(), "failed replace leaves the version alone")

	assert.True(t, r.Replace("a", RiskZone{ID: "a", Radius: 20, RiskLevel: Low}))
	zones, v2 := r.Snapshot()
	assert.Greater(t, v2, v1)
	assert.Len(t, zones, 1)
	assert.Equal(t, 20.0, zones[0].Radius)
}
