package alerts

import (
	"time"

	"github.com/dpup/saferoute/server/internal/lib/geo"
	"github.com/dpup/saferoute/server/internal/lib/zones"
)

// Monitor runs the proximity check on each position update and remembers
// which zones the walker dismissed for the rest of the session. It is not
// safe for concurrent use.
type Monitor struct {
	haptics   Haptics
	pattern   []time.Duration
	factor    float64
	dismissed map[string]bool
	active    *zones.RiskZone
}

// MonitorOption configures a Monitor
type MonitorOption func(*Monitor)

// WithProximityFactor sets the multiple of a zone's radius that triggers a warning
func WithProximityFactor(factor float64) MonitorOption {
	return func(m *Monitor) {
		if factor > 0 {
			m.factor = factor
		}
	}
}

// WithPattern replaces the vibration pattern
func WithPattern(pattern []time.Duration) MonitorOption {
	return func(m *Monitor) {
		m.pattern = pattern
	}
}

// NewMonitor creates a monitor. haptics may be nil when the platform cannot vibrate.
func NewMonitor(haptics Haptics, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		haptics:   haptics,
		pattern:   DefaultPattern,
		factor:    DefaultProximityFactor,
		dismissed: map[string]bool{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Check scans riskZones in order and surfaces the first zone that is not
// dismissed, lies within the proximity radius, is active at hour and is high
// or medium risk. Low risk zones never warn. A zone surfacing for the first
// time triggers a haptic pulse; repeated updates inside the same zone do not.
func (m *Monitor) Check(pos geo.Point, riskZones []zones.RiskZone, hour int) (Alert, bool) {
	for _, zone := range riskZones {
		if m.dismissed[zone.ID] {
			continue
		}

		distance := geo.Distance(pos, zone.Center)
		if distance > zone.Radius*m.factor {
			continue
		}
		if !zones.IsActiveAt(zone, hour) {
			continue
		}
		if zone.RiskLevel != zones.High && zone.RiskLevel != zones.Medium {
			continue
		}

		isNew := m.active == nil || m.active.ID != zone.ID
		surfaced := zone
		m.active = &surfaced
		if isNew && m.haptics != nil {
			m.haptics.Pulse(m.pattern)
		}
		return Alert{Zone: zone, Distance: distance, New: isNew}, true
	}
	return Alert{}, false
}

// Active returns the zone currently surfaced as a warning. A warning stays
// surfaced until it is dismissed or replaced by another zone.
func (m *Monitor) Active() (zones.RiskZone, bool) {
	if m.active == nil {
		return zones.RiskZone{}, false
	}
	return *m.active, true
}

// Dismiss clears the active warning and suppresses its zone for the rest of
// the session. It returns the dismissed zone ID, or false when nothing was
// surfaced.
func (m *Monitor) Dismiss() (string, bool) {
	if m.active == nil {
		return "", false
	}
	id := m.active.ID
	m.dismissed[id] = true
	m.active = nil
	return id, true
}

// IsDismissed reports whether the zone was dismissed this session
func (m *Monitor) IsDismissed(id string) bool {
	return m.dismissed[id]
}
