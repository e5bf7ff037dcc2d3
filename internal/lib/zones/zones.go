package zones

import (
	"sync"

	"github.com/dpup/saferoute/server/internal/lib/geo"
)

// IsInside reports whether point lies within the zone radius (inclusive)
func IsInside(point geo.Point, zone RiskZone) bool {
	return geo.Distance(point, zone.Center) <= zone.Radius
}

// IsActiveAt reports whether the zone is active at the given hour of day.
// Zones without a window are always active.
func IsActiveAt(zone RiskZone, hour int) bool {
	if zone.ActiveHours == nil {
		return true
	}

	start, end := zone.ActiveHours.Start, zone.ActiveHours.End
	if start > end {
		// Overnight window, e.g. 21 -> 6
		return hour >= start || hour <= end
	}
	return hour >= start && hour <= end
}

// Registry is an insertion-ordered zone collection. Iteration order is the
// order zones were added; Replace keeps a zone in its original slot.
type Registry struct {
	mutex   sync.RWMutex
	zones   []RiskZone
	index   map[string]int
	version uint64
}

// NewRegistry creates a registry seeded with the given zones
func NewRegistry(initial ...RiskZone) *Registry {
	r := &Registry{index: make(map[string]int)}
	for _, zone := range initial {
		r.Add(zone)
	}
	return r
}

// Add appends a zone. A zone with an existing ID replaces the stored one in place.
func (r *Registry) Add(zone RiskZone) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.version++
	r.put(zone)
}

// put stores zone; callers hold the write lock
func (r *Registry) put(zone RiskZone) {
	if i, exists := r.index[zone.ID]; exists {
		r.zones[i] = zone
		return
	}
	r.index[zone.ID] = len(r.zones)
	r.zones = append(r.zones, zone)
}

// Replace swaps the zone stored under id. Returns false when id is unknown.
func (r *Registry) Replace(id string, zone RiskZone) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	i, exists := r.index[id]
	if !exists {
		return false
	}
	if zone.ID != id {
		if _, taken := r.index[zone.ID]; taken {
			return false
		}
		delete(r.index, id)
		r.index[zone.ID] = i
	}
	r.zones[i] = zone
	r.version++
	return true
}

// ReplaceAll discards every zone and stores the given ones in order as a
// single version bump. Readers see either the old set or the new one.
func (r *Registry) ReplaceAll(zones []RiskZone) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.zones = make([]RiskZone, 0, len(zones))
	r.index = make(map[string]int, len(zones))
	for _, zone := range zones {
		r.put(zone)
	}
	r.version++
}

// Get returns the zone stored under id
func (r *Registry) Get(id string) (RiskZone, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	i, exists := r.index[id]
	if !exists {
		return RiskZone{}, false
	}
	return r.zones[i], true
}

// List returns a copy of all zones in insertion order
func (r *Registry) List() []RiskZone {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]RiskZone, len(r.zones))
	copy(out, r.zones)
	return out
}

// Len returns the number of stored zones
func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.zones)
}

// Version changes every time the zone set is modified
func (r *Registry) Version() uint64 {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.version
}

// Snapshot returns the zones together with the version they belong to
func (r *Registry) Snapshot() ([]RiskZone, uint64) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]RiskZone, len(r.zones))
	copy(out, r.zones)
	return out, r.version
}
