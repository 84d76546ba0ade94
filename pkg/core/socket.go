package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/campusmatch/campusmatch/pkg/protocol"
)

// Common socket errors.
var (
	ErrSocketClosed = errors.New("socket is closed")
	ErrSendFailed   = errors.New("failed to send message")
)

// Transport is the part of a connection a socket writes to.
type Transport interface {
	Send(msg protocol.Message) error
	Close() error
	IsConnected() bool
}

// Socket is one live browser connection.
type Socket struct {
	id          string
	connected   bool
	connectedAt time.Time

	// Unix nanoseconds.
	lastActivity atomic.Int64

	transport Transport
	metadata  map[string]any

	mu sync.RWMutex
}

// NewSocket creates a new socket with the given ID and transport.
func NewSocket(id string, transport Transport) *Socket {
	now := time.Now()
	s := &Socket{
		id:          id,
		connected:   true,
		connectedAt: now,
		metadata:    make(map[string]any),
		transport:   transport,
	}
	s.lastActivity.Store(now.UnixNano())
	return s
}

// ID returns the socket's unique identifier.
func (s *Socket) ID() string {
	return s.id
}

// Topic is the channel every server push for this socket uses.
func (s *Socket) Topic() string {
	return protocol.TopicPrefix + s.id
}

// IsConnected returns true if the socket is connected.
func (s *Socket) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected && s.transport != nil && s.transport.IsConnected()
}

// ConnectedAt returns when the socket connected.
func (s *Socket) ConnectedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connectedAt
}

// LastActivity returns the time of last activity.
func (s *Socket) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

// UpdateActivity updates the last activity timestamp.
func (s *Socket) UpdateActivity() {
	s.lastActivity.Store(time.Now().UnixNano())
}

// Send sends a message to the client.
func (s *Socket) Send(msg protocol.Message) error {
	s.mu.RLock()
	connected := s.connected
	transport := s.transport
	s.mu.RUnlock()

	if !connected || transport == nil || !transport.IsConnected() {
		return ErrSocketClosed
	}

	s.lastActivity.Store(time.Now().UnixNano())

	if err := transport.Send(msg); err != nil {
		s.mu.RLock()
		stillConnected := s.connected
		s.mu.RUnlock()
		if !stillConnected {
			return ErrSocketClosed
		}
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

// Push sends a server-initiated event to the client.
func (s *Socket) Push(event string, payload map[string]any) error {
	return s.Send(protocol.Message{
		Topic:   s.Topic(),
		Event:   event,
		Payload: payload,
	})
}

// Navigate asks the browser to load path.
func (s *Socket) Navigate(path string) error {
	return s.Push(protocol.EventNavigate, map[string]any{"to": path})
}

// Back asks the browser to go one step back in its history.
func (s *Socket) Back() error {
	return s.Push(protocol.EventBack, nil)
}

// DiffPayload is the update format sent to clients: text slots (s), HTML
// slots (h) and, as a fallback, the full render (f).
type DiffPayload struct {
	Version   uint64            `json:"v"`
	Slots     map[string]string `json:"s,omitempty"`
	HTMLSlots map[string]string `json:"h,omitempty"`
	Full      string            `json:"f,omitempty"`
}

// IsEmpty returns true if the payload has no changes.
func (d *DiffPayload) IsEmpty() bool {
	return len(d.Slots) == 0 && len(d.HTMLSlots) == 0 && d.Full == ""
}

// Size returns the total size of the payload content in bytes.
func (d *DiffPayload) Size() int {
	size := len(d.Full)
	for _, content := range d.Slots {
		size += len(content)
	}
	for _, content := range d.HTMLSlots {
		size += len(content)
	}
	return size
}

// SendDiff pushes a diff to the client. Empty payloads are not sent.
func (s *Socket) SendDiff(payload *DiffPayload) error {
	if payload == nil || payload.IsEmpty() {
		return nil
	}

	body := map[string]any{"v": payload.Version}
	if len(payload.Slots) > 0 {
		body["s"] = payload.Slots
	}
	if len(payload.HTMLSlots) > 0 {
		body["h"] = payload.HTMLSlots
	}
	if payload.Full != "" {
		body["f"] = payload.Full
	}
	return s.Push(protocol.EventDiff, body)
}

// GetMetadata retrieves metadata by key.
func (s *Socket) GetMetadata(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metadata[key]
}

// SetMetadata stores metadata.
func (s *Socket) SetMetadata(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata[key] = value
}

// Close closes the socket connection.
func (s *Socket) Close() error {
	s.mu.Lock()
	s.connected = false
	transport := s.transport
	s.mu.Unlock()

	if transport != nil {
		return transport.Close()
	}
	return nil
}

// SocketManager tracks the open sockets.
type SocketManager struct {
	sockets map[string]*Socket
	mu      sync.RWMutex
}

// NewSocketManager creates a new socket manager.
func NewSocketManager() *SocketManager {
	return &SocketManager{
		sockets: make(map[string]*Socket),
	}
}

// Add registers a socket.
func (sm *SocketManager) Add(socket *Socket) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sockets[socket.ID()] = socket
}

// Remove unregisters a socket.
func (sm *SocketManager) Remove(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sockets, id)
}

// Get retrieves a socket by ID.
func (sm *SocketManager) Get(id string) (*Socket, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, ok := sm.sockets[id]
	return s, ok
}

// Count returns the number of active sockets.
func (sm *SocketManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sockets)
}

// All returns all sockets.
func (sm *SocketManager) All() []*Socket {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	result := make([]*Socket, 0, len(sm.sockets))
	for _, s := range sm.sockets {
		result = append(result, s)
	}
	return result
}

// CloseAll closes and forgets every socket. It returns early when ctx ends.
func (sm *SocketManager) CloseAll(ctx context.Context) error {
	sm.mu.Lock()
	sockets := sm.sockets
	sm.sockets = make(map[string]*Socket)
	sm.mu.Unlock()

	var errs []error
	for _, s := range sockets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CleanupInactive removes sockets inactive for longer than maxInactive.
func (sm *SocketManager) CleanupInactive(maxInactive time.Duration) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, s := range sm.sockets {
		if now.Sub(s.LastActivity()) > maxInactive {
			_ = s.Close()
			delete(sm.sockets, id)
			removed++
		}
	}
	return removed
}
