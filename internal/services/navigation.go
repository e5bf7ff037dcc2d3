package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dpup/prefab/errors"
	"github.com/dpup/prefab/logging"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"

	"github.com/dpup/saferoute/server/internal/cache"
	"github.com/dpup/saferoute/server/internal/clients/nominatim"
	"github.com/dpup/saferoute/server/internal/config"
	"github.com/dpup/saferoute/server/internal/lib/alerts"
	"github.com/dpup/saferoute/server/internal/lib/geo"
	"github.com/dpup/saferoute/server/internal/lib/guidance"
	"github.com/dpup/saferoute/server/internal/lib/incident"
	"github.com/dpup/saferoute/server/internal/lib/routing"
	"github.com/dpup/saferoute/server/internal/lib/zones"
)

// Geocoder looks up places for destination search
type Geocoder interface {
	Search(ctx context.Context, query string, near *geo.Point) ([]nominatim.Result, error)
	Reverse(ctx context.Context, p geo.Point) (string, error)
}

// NavigationService ties route synthesis, zones, incident reports and
// navigation sessions together behind the HTTP API
type NavigationService struct {
	config      config.NavigationConfig
	synthesizer *routing.Synthesizer
	registry    *zones.Registry
	incidents   *incident.Store
	cache       *cache.Cache
	geocoder    Geocoder
	sessions    *SessionStore
	now         func() time.Time
}

// ServiceOption configures a NavigationService
type ServiceOption func(*NavigationService)

// WithClock overrides the wall clock used for night scoring and zone hours
func WithClock(now func() time.Time) ServiceOption {
	return func(s *NavigationService) {
		s.now = now
	}
}

// WithRandomSource pins the balanced route jitter
func WithRandomSource(r routing.RandomSource) ServiceOption {
	return func(s *NavigationService) {
		s.synthesizer = routing.NewSynthesizer(
			routing.WithRandomSource(r),
			routing.WithClock(func() time.Time { return s.now() }),
			routing.WithWalkingSpeed(s.config.WalkingSpeed),
		)
	}
}

// NewNavigationService creates a new NavigationService
func NewNavigationService(cfg config.NavigationConfig, registry *zones.Registry, incidents *incident.Store, cache *cache.Cache, geocoder Geocoder, sessions *SessionStore, opts ...ServiceOption) *NavigationService {
	s := &NavigationService{
		config:    cfg,
		registry:  registry,
		incidents: incidents,
		cache:     cache,
		geocoder:  geocoder,
		sessions:  sessions,
		now:       time.Now,
	}
	s.synthesizer = routing.NewSynthesizer(
		routing.WithClock(func() time.Time { return s.now() }),
		routing.WithWalkingSpeed(cfg.WalkingSpeed),
	)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlanRoutes returns the safest, balanced and fastest routes between two
// points for the current zone set. Route sets are cached per zone version
// and day/night period.
func (s *NavigationService) PlanRoutes(ctx context.Context, origin, destination geo.Point) ([]routing.Route, error) {
	if err := validatePoint("origin", origin); err != nil {
		return nil, err
	}
	if err := validatePoint("destination", destination); err != nil {
		return nil, err
	}

	riskZones, version := s.registry.Snapshot()
	key := cache.RouteSetKey(origin, destination, fmt.Sprintf("v%d", version), routing.IsNight(s.now().Hour()))

	var routes []routing.Route
	found, err := s.cache.GetRoutes(key, &routes)
	if err != nil {
		logging.Warnw(ctx, "Route cache error", "error", err, "key", key)
	}
	if found {
		logging.Debugw(ctx, "Returning cached routes", "key", key)
		return routes, nil
	}

	routes = s.synthesizer.Synthesize(origin, destination, riskZones)
	if err := s.cache.SetRoutes(key, routes, s.config.RouteCacheTTL); err != nil {
		logging.Warnw(ctx, "Failed to cache routes", "error", err)
	}

	logging.Infow(ctx, "Synthesized routes",
		"origin", origin, "destination", destination,
		"zones", len(riskZones), "direct_distance", geo.Distance(origin, destination))
	return routes, nil
}

// ListZones returns all risk zones in registry order
func (s *NavigationService) ListZones() []zones.RiskZone {
	return s.registry.List()
}

// ZonesAlongRoute returns the zones on or near a route
func (s *NavigationService) ZonesAlongRoute(route routing.Route) []routing.ClassifiedZone {
	return routing.ZonesAlongRoute(route, s.registry.List(), routing.DefaultNearbyThreshold)
}

// AddZone validates and stores a zone. An empty ID is assigned.
func (s *NavigationService) AddZone(ctx context.Context, zone zones.RiskZone) (zones.RiskZone, error) {
	if err := validatePoint("center", zone.Center); err != nil {
		return zones.RiskZone{}, err
	}
	if zone.Radius <= 0 {
		return zones.RiskZone{}, errors.NewC("radius must be positive", codes.InvalidArgument)
	}
	if !zone.RiskLevel.Valid() {
		return zones.RiskZone{}, errors.NewC("risk_level must be high, medium or low", codes.InvalidArgument)
	}
	if h := zone.ActiveHours; h != nil && (h.Start < 0 || h.Start > 23 || h.End < 0 || h.End > 23) {
		return zones.RiskZone{}, errors.NewC("active_hours must be between 0 and 23", codes.InvalidArgument)
	}

	if zone.ID == "" {
		zone.ID = uuid.NewString()
	}
	if zone.ReportedAt.IsZero() {
		zone.ReportedAt = s.now()
	}
	s.registry.Add(zone)
	s.cache.InvalidateRoutes()

	logging.Infow(ctx, "Added risk zone", "zone_id", zone.ID, "risk_level", zone.RiskLevel)
	return zone, nil
}

// ExportZonesKML renders all zones as KML
func (s *NavigationService) ExportZonesKML() ([]byte, error) {
	return zones.ExportKML(s.registry.List())
}

// ReportIncident stores an incident report and the zone it contributes.
// Duplicate reports return the existing report with created false.
func (s *NavigationService) ReportIncident(ctx context.Context, sub incident.Submission) (incident.Report, bool, error) {
	if err := validatePoint("location", sub.Location); err != nil {
		return incident.Report{}, false, err
	}
	if sub.Type != "" && !sub.Type.Valid() {
		return incident.Report{}, false, errors.NewC("unknown incident type "+string(sub.Type), codes.InvalidArgument)
	}
	if sub.Type == "" {
		sub.Type = incident.Other
	}

	report, created := s.incidents.Submit(sub)
	if created {
		s.cache.InvalidateRoutes()
		logging.Infow(ctx, "Incident reported", "report_id", report.ID, "type", report.Type)
	} else {
		logging.Debugw(ctx, "Duplicate incident ignored", "report_id", report.ID)
	}
	return report, created, nil
}

// ListIncidents returns all reports in submission order
func (s *NavigationService) ListIncidents() []incident.Report {
	return s.incidents.List()
}

// UpvoteIncident adds a vote to a report
func (s *NavigationService) UpvoteIncident(id string) (incident.Report, error) {
	report, ok := s.incidents.Upvote(id)
	if !ok {
		return incident.Report{}, errors.NewC("incident not found: "+id, codes.NotFound)
	}
	return report, nil
}

// StartRequest selects the route a session navigates
type StartRequest struct {
	Origin      geo.Point         `json:"origin"`
	Destination geo.Point         `json:"destination"`
	RouteType   routing.RouteType `json:"route_type"`
	// VoiceEnabled defaults to true
	VoiceEnabled *bool `json:"voice_enabled,omitempty"`
}

// SessionView is the client-facing state of a session
type SessionView struct {
	ID           string                   `json:"id"`
	State        guidance.State           `json:"state"`
	Route        routing.Route            `json:"route"`
	Instructions []guidance.Instruction   `json:"instructions"`
	Current      *guidance.Instruction    `json:"current,omitempty"`
	VoiceEnabled bool                     `json:"voice_enabled"`
	Zones        []routing.ClassifiedZone `json:"zones_along_route"`
	Alert        *zones.RiskZone          `json:"alert,omitempty"`
	Spoken       []string                 `json:"spoken,omitempty"`
}

// StartNavigation plans routes, picks the requested type and starts guidance
func (s *NavigationService) StartNavigation(ctx context.Context, req StartRequest) (SessionView, error) {
	if req.RouteType == "" {
		req.RouteType = routing.Safest
	}

	routes, err := s.PlanRoutes(ctx, req.Origin, req.Destination)
	if err != nil {
		return SessionView{}, err
	}

	var route *routing.Route
	for i := range routes {
		if routes[i].Type == req.RouteType {
			route = &routes[i]
			break
		}
	}
	if route == nil {
		return SessionView{}, errors.NewC("unknown route type "+string(req.RouteType), codes.InvalidArgument)
	}

	speech := &guidance.Recorder{}
	voice := guidance.NewVoice(speech)
	if req.VoiceEnabled != nil && !*req.VoiceEnabled {
		voice.SetEnabled(false)
	}
	navigator := guidance.NewNavigator(voice,
		guidance.WithAnnounceRadius(s.config.AnnounceRadius),
		guidance.WithArrivalRadius(s.config.ArrivalRadius))
	haptics := &hapticLog{}
	monitor := alerts.NewMonitor(haptics, alerts.WithProximityFactor(s.config.ProximityFactor))

	session := s.sessions.Create(*route, navigator, monitor, speech, haptics)

	session.mu.Lock()
	defer session.mu.Unlock()
	navigator.Start(route.Coordinates)

	logging.Infow(ctx, "Navigation started", "session_id", session.ID, "route_type", route.Type, "distance", route.Distance)
	return s.view(session, speech.Drain()), nil
}

// GetSession returns the current state of a session
func (s *NavigationService) GetSession(id string) (SessionView, error) {
	session, err := s.session(id)
	if err != nil {
		return SessionView{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	return s.view(session, nil), nil
}

// PositionUpdate is the outcome of one location sample
type PositionUpdate struct {
	Progress          guidance.Progress `json:"progress"`
	Spoken            []string          `json:"spoken,omitempty"`
	Alert             *alerts.Alert     `json:"alert,omitempty"`
	Haptic            []int64           `json:"haptic,omitempty"`
	OffRoute          bool              `json:"off_route"`
	DistanceFromRoute float64           `json:"distance_from_route"`
}

// UpdatePosition feeds a location sample to the session's guidance and
// proximity monitor. Zones are read from the live registry, so zones added
// after the session started still warn. Identical samples produce identical results apart from
// announcements and pulses, which happen once.
func (s *NavigationService) UpdatePosition(ctx context.Context, id string, pos geo.Point) (PositionUpdate, error) {
	if err := validatePoint("position", pos); err != nil {
		return PositionUpdate{}, err
	}
	session, err := s.session(id)
	if err != nil {
		return PositionUpdate{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	update := PositionUpdate{
		Progress: session.navigator.UpdateForPosition(pos),
	}

	if alert, ok := session.monitor.Check(pos, s.registry.List(), s.now().Hour()); ok {
		update.Alert = &alert
		if alert.New {
			logging.Infow(ctx, "Risk zone warning", "session_id", id, "zone_id", alert.Zone.ID, "distance", alert.Distance)
		}
	}
	if pattern := session.haptics.drain(); len(pattern) > 0 {
		update.Haptic = alerts.PatternMillis(pattern)
	}

	if d, err := geo.PointToPolyline(pos, session.route.Coordinates); err == nil {
		update.DistanceFromRoute = d
		update.OffRoute = routing.IsOffRoute(pos, session.route.Coordinates, s.config.OffRouteDistance)
	}

	update.Spoken = session.speech.Drain()
	return update, nil
}

// DismissAlert dismisses the session's current warning for the rest of the session
func (s *NavigationService) DismissAlert(ctx context.Context, id string) (string, error) {
	session, err := s.session(id)
	if err != nil {
		return "", err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	zoneID, ok := session.monitor.Dismiss()
	if !ok {
		return "", errors.NewC("no active warning", codes.FailedPrecondition)
	}
	logging.Infow(ctx, "Risk zone warning dismissed", "session_id", id, "zone_id", zoneID)
	return zoneID, nil
}

// SetVoice turns spoken guidance on or off for a session
func (s *NavigationService) SetVoice(id string, enabled bool) (SessionView, error) {
	session, err := s.session(id)
	if err != nil {
		return SessionView{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	session.navigator.SetVoiceEnabled(enabled)
	return s.view(session, session.speech.Drain()), nil
}

// StopNavigation ends a session
func (s *NavigationService) StopNavigation(ctx context.Context, id string) error {
	session, ok := s.sessions.Delete(id)
	if !ok {
		return errors.NewC("session not found: "+id, codes.NotFound)
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	session.navigator.Stop()

	logging.Infow(ctx, "Navigation stopped", "session_id", id)
	return nil
}

// SearchPlaces looks up candidate destinations
func (s *NavigationService) SearchPlaces(ctx context.Context, query string, near *geo.Point) ([]nominatim.Result, error) {
	if near != nil {
		if err := validatePoint("near", *near); err != nil {
			return nil, err
		}
	}

	results, err := s.geocoder.Search(ctx, strings.TrimSpace(query), near)
	if err != nil {
		logging.Warnw(ctx, "Place search failed", "error", err, "query", query)
		return nil, errors.NewC("place search unavailable: "+err.Error(), codes.Unavailable)
	}
	return results, nil
}

// ReverseGeocode names the place at p
func (s *NavigationService) ReverseGeocode(ctx context.Context, p geo.Point) (string, error) {
	if err := validatePoint("point", p); err != nil {
		return "", err
	}

	name, err := s.geocoder.Reverse(ctx, p)
	if err != nil {
		logging.Warnw(ctx, "Reverse geocoding failed", "error", err)
		return "", errors.NewC("reverse geocoding unavailable: "+err.Error(), codes.Unavailable)
	}
	return name, nil
}

// Status summarizes cache, zone and session state for diagnostics
type Status struct {
	Cache       cache.CacheStats `json:"cache"`
	CacheKeys   []string         `json:"cache_keys"`
	Zones       int              `json:"zones"`
	ZoneVersion uint64           `json:"zone_version"`
	Sessions    int              `json:"sessions"`
}

// Status reports the service's current state
func (s *NavigationService) Status() Status {
	zoneList, version := s.registry.Snapshot()
	return Status{
		Cache:       s.cache.Stats(),
		CacheKeys:   s.cache.Keys(),
		Zones:       len(zoneList),
		ZoneVersion: version,
		Sessions:    s.sessions.Len(),
	}
}

func (s *NavigationService) session(id string) (*Session, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, errors.NewC("session not found: "+id, codes.NotFound)
	}
	return session, nil
}

// view must be called with the session lock held
func (s *NavigationService) view(session *Session, spoken []string) SessionView {
	v := SessionView{
		ID:           session.ID,
		State:        session.navigator.State(),
		Route:        session.route,
		Instructions: session.navigator.Instructions(),
		VoiceEnabled: session.navigator.VoiceEnabled(),
		Zones:        s.ZonesAlongRoute(session.route),
		Spoken:       spoken,
	}
	if current, ok := session.navigator.Current(); ok {
		v.Current = &current
	}
	if active, ok := session.monitor.Active(); ok {
		v.Alert = &active
	}
	return v
}
