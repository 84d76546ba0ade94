package testing

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/campusmatch/campusmatch/pkg/core"
	"github.com/campusmatch/campusmatch/pkg/protocol"
)

// ErrDisconnected is returned by a MockTransport that was disconnected
// with Drop.
var ErrDisconnected = errors.New("mock transport disconnected")

// MockTransport implements core.Transport and records every frame.
type MockTransport struct {
	ID        string
	connected bool
	closed    bool
	sent      []protocol.Message
	sendErr   error
	mu        sync.Mutex
}

// NewMockTransport creates a connected transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		ID:        uuid.NewString(),
		connected: true,
	}
}

// Send records msg, or fails when an error was injected.
func (m *MockTransport) Send(msg protocol.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return ErrDisconnected
	}
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	m.closed = true
	return nil
}

// IsConnected reports whether sends would be accepted.
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Closed reports whether Close was called.
func (m *MockTransport) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Drop simulates the browser going away without a clean close.
func (m *MockTransport) Drop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
}

// FailSends makes every following Send return err. nil clears it.
func (m *MockTransport) FailSends(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

// Sent returns a copy of every recorded frame.
func (m *MockTransport) Sent() []protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]protocol.Message, len(m.sent))
	copy(out, m.sent)
	return out
}

// SentEvents returns the recorded frames whose event is event.
func (m *MockTransport) SentEvents(event string) []protocol.Message {
	var out []protocol.Message
	for _, msg := range m.Sent() {
		if msg.Event == event {
			out = append(out, msg)
		}
	}
	return out
}

// Reset forgets the recorded frames.
func (m *MockTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

var _ core.Transport = (*MockTransport)(nil)
