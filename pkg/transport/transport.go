// Package transport carries protocol messages between the live router and
// the browser over WebSocket.
package transport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/campusmatch/campusmatch/pkg/protocol"
)

// Common transport errors.
var (
	ErrNotConnected     = errors.New("transport not connected")
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendTimeout      = errors.New("send timeout")
	ErrTransportFull    = errors.New("transport buffer full")
)

// Transport is a bidirectional message connection.
type Transport interface {
	// Send queues a message for the client.
	Send(msg protocol.Message) error

	// Receive returns a channel for incoming messages.
	Receive() <-chan protocol.Message

	// Close terminates the connection.
	Close() error

	// IsConnected returns true if connected.
	IsConnected() bool
}

// TransportConfig holds common transport configuration.
type TransportConfig struct {
	// ReadTimeout bounds the wait for the next client frame. The client
	// heartbeats well inside it.
	ReadTimeout time.Duration

	WriteTimeout time.Duration

	// PingInterval is how often WebSocket pings are sent.
	PingInterval time.Duration

	MaxMessageSize int64

	SendBufferSize    int
	ReceiveBufferSize int

	// Codec frames messages. Defaults to JSON.
	Codec protocol.Codec
}

// DefaultTransportConfig returns sensible defaults.
func DefaultTransportConfig() *TransportConfig {
	return &TransportConfig{
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		PingInterval:      30 * time.Second,
		MaxMessageSize:    512 * 1024,
		SendBufferSize:    256,
		ReceiveBufferSize: 256,
		Codec:             protocol.NewJSONCodec(),
	}
}

// BaseTransport holds the channels and connection flag shared by transports.
type BaseTransport struct {
	config    *TransportConfig
	connected bool
	sendCh    chan protocol.Message
	recvCh    chan protocol.Message
	closeCh   chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex
}

// NewBaseTransport creates a new base transport.
func NewBaseTransport(config *TransportConfig) *BaseTransport {
	if config == nil {
		config = DefaultTransportConfig()
	}
	if config.Codec == nil {
		config.Codec = protocol.NewJSONCodec()
	}
	return &BaseTransport{
		config:  config,
		sendCh:  make(chan protocol.Message, config.SendBufferSize),
		recvCh:  make(chan protocol.Message, config.ReceiveBufferSize),
		closeCh: make(chan struct{}),
	}
}

// Config returns the transport configuration.
func (t *BaseTransport) Config() *TransportConfig {
	return t.config
}

// IsConnected returns the connection status.
func (t *BaseTransport) IsConnected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.connected
}

// SetConnected updates the connection status.
func (t *BaseTransport) SetConnected(connected bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = connected
}

// Receive returns the receive channel.
func (t *BaseTransport) Receive() <-chan protocol.Message {
	return t.recvCh
}

// CloseChan is closed when the transport shuts down.
func (t *BaseTransport) CloseChan() <-chan struct{} {
	return t.closeCh
}

// Close marks the transport closed. Safe to call more than once.
func (t *BaseTransport) Close() error {
	t.closeOnce.Do(func() {
		t.SetConnected(false)
		close(t.closeCh)
	})
	return nil
}

// PushMessage delivers an incoming message without blocking.
func (t *BaseTransport) PushMessage(msg protocol.Message) error {
	select {
	case t.recvCh <- msg:
		return nil
	case <-t.closeCh:
		return ErrConnectionClosed
	default:
		return ErrTransportFull
	}
}

// Queue hands msg to the writer, waiting at most WriteTimeout.
func (t *BaseTransport) Queue(ctx context.Context, msg protocol.Message) error {
	if !t.IsConnected() {
		return ErrNotConnected
	}

	timer := time.NewTimer(t.config.WriteTimeout)
	defer timer.Stop()

	select {
	case t.sendCh <- msg:
		return nil
	case <-t.closeCh:
		return ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrSendTimeout
	}
}
