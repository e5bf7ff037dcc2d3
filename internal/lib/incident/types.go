// Package incident turns walker-submitted incident reports into risk zones
// and deduplicates repeated reports by content
package incident

import (
	"time"

	"github.com/dpup/saferoute/server/internal/lib/geo"
)

// Type of incident a walker can report
type Type string

const (
	DarkAlley    Type = "dark_alley"
	BrokenLight  Type = "broken_light"
	IsolatedArea Type = "isolated_area"
	Harassment   Type = "harassment"
	Other        Type = "other"
)

// Types lists reportable incident types in display order
var Types = []Type{DarkAlley, BrokenLight, IsolatedArea, Harassment, Other}

var labels = map[Type]string{
	DarkAlley:    "Dark Alley",
	BrokenLight:  "Broken Streetlight",
	IsolatedArea: "Isolated Area",
	Harassment:   "Harassment Incident",
	Other:        "Other Concern",
}

// Label returns the human readable name of the type
func (t Type) Label() string {
	if label, ok := labels[t]; ok {
		return label
	}
	return labels[Other]
}

// Valid reports whether t is a known incident type
func (t Type) Valid() bool {
	_, ok := labels[t]
	return ok
}

// Report is a single incident submitted by a walker
type Report struct {
	ID          string    `json:"id"`
	Type        Type      `json:"type"`
	Location    geo.Point `json:"location"`
	Description string    `json:"description,omitempty"`
	ReportedBy  string    `json:"reported_by"`
	ReportedAt  time.Time `json:"reported_at"`
	Verified    bool      `json:"verified"`
	Upvotes     int       `json:"upvotes"`
	// ContentHash identifies reports describing the same thing at the same place
	ContentHash string `json:"content_hash"`
}

// ContentHash provides deterministic content-based identification
type ContentHash struct {
	// Hash is SHA-256 of normalized description + location key + type
	Hash           string `json:"hash"`
	NormalizedText string `json:"normalized_text"`
	// LocationKey rounds the location to 4 decimal places (~11m)
	LocationKey string `json:"location_key"`
	Type        Type   `json:"type"`
}
