package incident

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"

	"github.com/dpup/saferoute/server/internal/lib/geo"
)

var (
	whitespace          = regexp.MustCompile(`\s+`)
	trailingPunct       = regexp.MustCompile(`[.!?:;,]+$`)
	repeatedPunct       = regexp.MustCompile(`[.!?:;,]{2,}`)
	clockTime           = regexp.MustCompile(`\bat \d{1,2}(:\d{2})?\s*(am|pm)?\b`)
	streetAbbreviations = map[string]string{
		"st":   "street",
		"ave":  "avenue",
		"blvd": "boulevard",
		"rd":   "road",
	}
)

// Hasher creates content hashes for report deduplication
type Hasher struct{}

// NewHasher creates a new report hasher
func NewHasher() *Hasher {
	return &Hasher{}
}

// Hash builds the content hash for a report. The description is normalized
// so trivial wording differences collapse; an empty description hashes on
// the type label.
func (h *Hasher) Hash(report Report) ContentHash {
	text := report.Description
	if strings.TrimSpace(text) == "" {
		text = report.Type.Label()
	}
	normalized := h.NormalizeText(text)
	locationKey := h.LocationKey(report.Location)

	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", normalized, locationKey, report.Type)))

	return ContentHash{
		Hash:           fmt.Sprintf("%x", sum),
		NormalizedText: normalized,
		LocationKey:    locationKey,
		Type:           report.Type,
	}
}

// NormalizeText cleans text for consistent hashing
func (h *Hasher) NormalizeText(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = whitespace.ReplaceAllString(normalized, " ")

	// Times change between reports of the same thing
	normalized = clockTime.ReplaceAllString(normalized, "")

	normalized = trailingPunct.ReplaceAllString(normalized, "")
	normalized = repeatedPunct.ReplaceAllString(normalized, "")

	words := strings.Fields(normalized)
	for i, w := range words {
		bare := strings.TrimSuffix(w, ".")
		if full, ok := streetAbbreviations[bare]; ok {
			words[i] = full
		}
	}
	return strings.Join(words, " ")
}

// LocationKey rounds a point to roughly 11m so nearby reports match
func (h *Hasher) LocationKey(p geo.Point) string {
	return fmt.Sprintf("%.4f_%.4f", p.Latitude, p.Longitude)
}
