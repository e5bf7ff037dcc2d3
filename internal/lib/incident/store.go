package incident

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dpup/saferoute/server/internal/lib/geo"
	"github.com/dpup/saferoute/server/internal/lib/zones"
)

// Submission is the walker-provided part of a report
type Submission struct {
	Type        Type      `json:"type"`
	Location    geo.Point `json:"location"`
	Description string    `json:"description,omitempty"`
	ReportedBy  string    `json:"reported_by,omitempty"`
}

// Store keeps reports in submission order and ignores duplicates by content
// hash. Every accepted report is mirrored into a zone registry.
type Store struct {
	mu      sync.RWMutex
	hasher  *Hasher
	reports []Report
	byID    map[string]int
	byHash  map[string]string
	zoneIDs map[string]string

	registry *zones.Registry
	now      func() time.Time
}

// NewStore creates a store that adds a zone to registry for each new report.
// registry may be nil.
func NewStore(registry *zones.Registry) *Store {
	return &Store{
		hasher:   NewHasher(),
		byID:     map[string]int{},
		byHash:   map[string]string{},
		zoneIDs:  map[string]string{},
		registry: registry,
		now:      time.Now,
	}
}

// Submit records a report. When an identical report already exists the
// existing report is returned with created false and nothing changes.
func (s *Store) Submit(sub Submission) (report Report, created bool) {
	if !sub.Type.Valid() {
		sub.Type = Other
	}
	if sub.ReportedBy == "" {
		sub.ReportedBy = "anonymous"
	}

	report = Report{
		Type:        sub.Type,
		Location:    sub.Location,
		Description: strings.TrimSpace(sub.Description),
		ReportedBy:  sub.ReportedBy,
	}
	hash := s.hasher.Hash(report)

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byHash[hash.Hash]; ok {
		return s.reports[s.byID[id]], false
	}

	report.ID = uuid.NewString()
	report.ReportedAt = s.now()
	report.ContentHash = hash.Hash

	s.byID[report.ID] = len(s.reports)
	s.byHash[hash.Hash] = report.ID
	s.reports = append(s.reports, report)

	if s.registry != nil {
		zoneID := uuid.NewString()
		s.zoneIDs[report.ID] = zoneID
		s.registry.Add(ToRiskZone(report, zoneID))
	}

	return report, true
}

// Get returns a report by ID
func (s *Store) Get(id string) (Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return Report{}, false
	}
	return s.reports[i], true
}

// ZoneID returns the ID of the risk zone created for a report
func (s *Store) ZoneID(reportID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.zoneIDs[reportID]
	return id, ok
}

// Upvote increments a report's upvote count
func (s *Store) Upvote(id string) (Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byID[id]
	if !ok {
		return Report{}, false
	}
	s.reports[i].Upvotes++
	return s.reports[i], true
}

// List returns all reports in submission order
func (s *Store) List() []Report {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Report, len(s.reports))
	copy(out, s.reports)
	return out
}

// Len returns the number of stored reports
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}
