// Package core provides the abstractions live components are built on.
package core

import (
	"context"
	"io"
)

// Component is a stateful server-side view. The router mounts it once per
// connection, feeds it client events one at a time and re-renders after
// each event.
type Component interface {
	// Name returns the component type, used in logs.
	Name() string

	// Mount is called once before the first render, both for the plain HTTP
	// render and again when the WebSocket joins.
	Mount(ctx context.Context, params Params, session Session) error

	// Render returns the current HTML representation.
	Render(ctx context.Context) Renderer

	// HandleEvent processes one client event. A returned error is logged
	// and answered with an error reply; the component stays mounted.
	HandleEvent(ctx context.Context, event string, payload map[string]any) error

	// Terminate is called when the connection goes away.
	Terminate(ctx context.Context, reason TerminateReason) error
}

// Renderer writes HTML.
type Renderer interface {
	Render(ctx context.Context, w io.Writer) error
}

// RendererFunc is an adapter to allow ordinary functions to be used as Renderers.
type RendererFunc func(ctx context.Context, w io.Writer) error

func (f RendererFunc) Render(ctx context.Context, w io.Writer) error {
	return f(ctx, w)
}

// Params contains URL path and query parameters.
type Params map[string]string

// Get returns a parameter value or empty string if not found.
func (p Params) Get(key string) string {
	return p[key]
}

// GetDefault returns a parameter value or the default if not found.
func (p Params) GetDefault(key, defaultValue string) string {
	if v, ok := p[key]; ok {
		return v
	}
	return defaultValue
}

// Session contains per-browser data extracted from the HTTP request.
type Session map[string]any

// SessionDeviceKey holds the browser's device id.
const SessionDeviceKey = "device"

// Get returns a session value.
func (s Session) Get(key string) any {
	return s[key]
}

// GetString returns a session value as string.
func (s Session) GetString(key string) string {
	if v, ok := s[key].(string); ok {
		return v
	}
	return ""
}

// Device returns the device id, or "" when the request carried none.
func (s Session) Device() string {
	return s.GetString(SessionDeviceKey)
}

// TerminateReason indicates why a component is being terminated.
type TerminateReason int

const (
	// TerminateNormal indicates clean disconnection.
	TerminateNormal TerminateReason = iota
	// TerminateShutdown indicates server shutdown.
	TerminateShutdown
	// TerminateError indicates termination due to an error.
	TerminateError
	// TerminateTimeout indicates termination due to inactivity.
	TerminateTimeout
)

func (r TerminateReason) String() string {
	switch r {
	case TerminateNormal:
		return "normal"
	case TerminateShutdown:
		return "shutdown"
	case TerminateError:
		return "error"
	case TerminateTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// SocketAware is implemented by components that want their socket. The
// router calls SetSocket before Mount on WebSocket connections only.
type SocketAware interface {
	SetSocket(s *Socket)
}

// BaseComponent provides default implementations for Component methods.
// Embed it to avoid writing the unused ones.
type BaseComponent struct {
	socket *Socket
}

// SetSocket sets the socket for the component.
func (bc *BaseComponent) SetSocket(s *Socket) {
	bc.socket = s
}

// Socket returns the component's socket, nil during the HTTP render.
func (bc *BaseComponent) Socket() *Socket {
	return bc.socket
}

// Connected reports whether the component is running over a live socket.
func (bc *BaseComponent) Connected() bool {
	return bc.socket != nil && bc.socket.IsConnected()
}

// Name returns an empty string (override in your component).
func (bc *BaseComponent) Name() string {
	return ""
}

// Mount does nothing by default.
func (bc *BaseComponent) Mount(ctx context.Context, params Params, session Session) error {
	return nil
}

// HandleEvent does nothing by default.
func (bc *BaseComponent) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	return nil
}

// Terminate does nothing by default.
func (bc *BaseComponent) Terminate(ctx context.Context, reason TerminateReason) error {
	return nil
}
