package router

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campusmatch/campusmatch/pkg/core"
	"github.com/campusmatch/campusmatch/pkg/transport"
)

// LiveSession binds one mounted component to its WebSocket connection.
type LiveSession struct {
	ID        string
	SocketID  string
	Component core.Component
	Socket    *core.Socket
	Transport transport.Transport
	Params    core.Params
	Session   core.Session
	Topic     string
	CreatedAt time.Time

	lastActivity time.Time
	mounted      bool
	joinRef      string
	version      uint64

	// Hashes of the slots last sent to this client.
	slotHashes map[string]uint64

	closeOnce sync.Once
	mu        sync.Mutex
}

// NewLiveSession creates a session for a freshly upgraded socket.
func NewLiveSession(socketID string, comp core.Component, params core.Params, session core.Session) *LiveSession {
	now := time.Now()
	return &LiveSession{
		ID:           uuid.NewString(),
		SocketID:     socketID,
		Component:    comp,
		Params:       params,
		Session:      session,
		Topic:        "lv:" + socketID,
		CreatedAt:    now,
		lastActivity: now,
	}
}

// UpdateActivity records client activity.
func (s *LiveSession) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}

// LastActivity returns when the client was last heard from.
func (s *LiveSession) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// SetMounted marks the component as mounted.
func (s *LiveSession) SetMounted(mounted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted = mounted
}

// IsMounted reports whether the component was mounted on this socket.
func (s *LiveSession) IsMounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted
}

// SetJoinRef stores the ref of the join message.
func (s *LiveSession) SetJoinRef(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joinRef = ref
}

// JoinRef returns the ref of the join message.
func (s *LiveSession) JoinRef() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.joinRef
}

// nextVersion increments and returns the diff version.
func (s *LiveSession) nextVersion() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	return s.version
}

// swapSlotHashes stores next and returns the previous hashes.
func (s *LiveSession) swapSlotHashes(next map[string]uint64) map[string]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.slotHashes
	s.slotHashes = next
	return prev
}

// SessionManagerConfig limits the number and lifetime of live sessions.
type SessionManagerConfig struct {
	// MaxSessions caps concurrent sessions; the least recently active one
	// is evicted when full. 0 means no limit.
	MaxSessions int

	// SessionTTL is how long a silent session is kept.
	SessionTTL time.Duration
}

// DefaultSessionManagerConfig returns the default limits.
func DefaultSessionManagerConfig() *SessionManagerConfig {
	return &SessionManagerConfig{
		MaxSessions: 10000,
		SessionTTL:  30 * time.Minute,
	}
}

// SessionManager tracks the live sessions of a router.
type SessionManager struct {
	sessions map[string]*LiveSession
	bySocket map[string]*LiveSession

	maxSessions int
	sessionTTL  time.Duration

	mu sync.RWMutex
}

// NewSessionManager creates a manager. A nil config uses the defaults.
func NewSessionManager(config *SessionManagerConfig) *SessionManager {
	if config == nil {
		config = DefaultSessionManagerConfig()
	}
	return &SessionManager{
		sessions:    make(map[string]*LiveSession),
		bySocket:    make(map[string]*LiveSession),
		maxSessions: config.MaxSessions,
		sessionTTL:  config.SessionTTL,
	}
}

// Create registers a new session. When the manager is full the least
// recently active session is evicted and returned so the caller can
// close it.
func (m *SessionManager) Create(socketID string, comp core.Component, params core.Params, session core.Session) (created, evicted *LiveSession) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		evicted = m.evictOldestLocked()
	}

	created = NewLiveSession(socketID, comp, params, session)
	m.sessions[created.ID] = created
	m.bySocket[socketID] = created
	return created, evicted
}

// Get returns a session by ID.
func (m *SessionManager) Get(sessionID string) (*LiveSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

// GetBySocket returns the session of a socket.
func (m *SessionManager) GetBySocket(socketID string) (*LiveSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.bySocket[socketID]
	return s, ok
}

// Remove forgets a session.
func (m *SessionManager) Remove(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[sessionID]; ok {
		delete(m.bySocket, s.SocketID)
		delete(m.sessions, sessionID)
	}
}

// Count returns the number of active sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// All returns all sessions.
func (m *SessionManager) All() []*LiveSession {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*LiveSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		result = append(result, s)
	}
	return result
}

// Expired removes and returns the sessions idle for longer than the TTL.
func (m *SessionManager) Expired() []*LiveSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var expired []*LiveSession
	for id, s := range m.sessions {
		if now.Sub(s.LastActivity()) > m.sessionTTL {
			delete(m.bySocket, s.SocketID)
			delete(m.sessions, id)
			expired = append(expired, s)
		}
	}
	return expired
}

func (m *SessionManager) evictOldestLocked() *LiveSession {
	var oldest *LiveSession
	for _, s := range m.sessions {
		if oldest == nil || s.LastActivity().Before(oldest.LastActivity()) {
			oldest = s
		}
	}
	if oldest != nil {
		delete(m.bySocket, oldest.SocketID)
		delete(m.sessions, oldest.ID)
	}
	return oldest
}
