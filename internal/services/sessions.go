package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dpup/saferoute/server/internal/lib/alerts"
	"github.com/dpup/saferoute/server/internal/lib/guidance"
	"github.com/dpup/saferoute/server/internal/lib/routing"
)

// Session is one walker's navigation: the chosen route, its guidance state
// machine and the proximity monitor with its dismissed zones. All access goes
// through the session lock.
type Session struct {
	ID string

	mu        sync.Mutex
	route     routing.Route
	navigator *guidance.Navigator
	monitor   *alerts.Monitor
	speech    *guidance.Recorder
	haptics   *hapticLog
	lastSeen  time.Time
}

// hapticLog records pulses so they can be forwarded to the client
type hapticLog struct {
	pending []time.Duration
}

func (h *hapticLog) Pulse(pattern []time.Duration) {
	h.pending = append([]time.Duration(nil), pattern...)
}

func (h *hapticLog) drain() []time.Duration {
	out := h.pending
	h.pending = nil
	return out
}

// SessionStore holds active sessions and expires idle ones
type SessionStore struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	idleTimeout time.Duration
	now         func() time.Time
}

// NewSessionStore creates a store expiring sessions idle for longer than idleTimeout
func NewSessionStore(idleTimeout time.Duration, now func() time.Time) *SessionStore {
	if now == nil {
		now = time.Now
	}
	return &SessionStore{
		sessions:    map[string]*Session{},
		idleTimeout: idleTimeout,
		now:         now,
	}
}

// Create registers a new session for route
func (s *SessionStore) Create(route routing.Route, navigator *guidance.Navigator, monitor *alerts.Monitor, speech *guidance.Recorder, haptics *hapticLog) *Session {
	session := &Session{
		ID:        uuid.NewString(),
		route:     route,
		navigator: navigator,
		monitor:   monitor,
		speech:    speech,
		haptics:   haptics,
		lastSeen:  s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return session
}

// Get returns a session and marks it as seen
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	session.mu.Lock()
	session.lastSeen = s.now()
	session.mu.Unlock()
	return session, true
}

// Delete removes a session
func (s *SessionStore) Delete(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	delete(s.sessions, id)
	return session, ok
}

// Len returns the number of active sessions
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Reap removes sessions idle for longer than the idle timeout and returns
// how many were removed
func (s *SessionStore) Reap() int {
	cutoff := s.now().Add(-s.idleTimeout)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		session.mu.Lock()
		idle := session.lastSeen.Before(cutoff)
		if idle {
			session.navigator.Stop()
		}
		session.mu.Unlock()

		if idle {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
