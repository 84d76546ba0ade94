// Package router serves live components over HTTP and WebSocket.
//
// A live route answers a plain GET with a server-side render. The browser
// client then opens a WebSocket on the same path, joins, and from then on
// every client event is handed to the component and answered with a diff
// of the page's data-slot regions.
package router

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/campusmatch/campusmatch/pkg/core"
	"github.com/campusmatch/campusmatch/pkg/logging"
	"github.com/campusmatch/campusmatch/pkg/protocol"
	"github.com/campusmatch/campusmatch/pkg/transport"
)

// Common router errors.
var (
	ErrNilRenderer = errors.New("component returned nil renderer")
)

// Reason sent to the client when an event handler fails. The component
// renders its own message; internal error text stays in the logs.
const eventFailedReason = "event failed"

// Router handles HTTP routing for live components.
type Router struct {
	mux        *http.ServeMux
	liveRoutes map[string]*LiveRoute
	middleware []Middleware

	errorHandler ErrorHandler

	sessions *SessionManager
	sockets  *core.SocketManager
	loops    sync.WaitGroup
	closing  atomic.Bool

	transportConfig *transport.TransportConfig
	wsConfig        *transport.WebSocketConfig
	gate            ConnectionGate
	logger          logging.Logger

	mu sync.RWMutex
}

// LiveRoute defines a route that renders a live component.
type LiveRoute struct {
	Path string

	// Component creates a fresh instance per render and per connection.
	Component func() core.Component

	Middleware []Middleware

	Meta map[string]any
}

// ErrorHandler handles errors during the HTTP render.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router logger.
func WithLogger(logger logging.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTransportConfig sets the configuration of every WebSocket transport.
func WithTransportConfig(config *transport.TransportConfig) Option {
	return func(r *Router) {
		if config != nil {
			r.transportConfig = config
		}
	}
}

// WithWebSocketConfig sets the origin policy for WebSocket upgrades.
func WithWebSocketConfig(config *transport.WebSocketConfig) Option {
	return func(r *Router) {
		r.wsConfig = config
	}
}

// WithSessionConfig sets the live session limits.
func WithSessionConfig(config *SessionManagerConfig) Option {
	return func(r *Router) {
		r.sessions = NewSessionManager(config)
	}
}

// ConnectionGate admits a WebSocket upgrade. The router runs release once
// the connection's message loop ends.
type ConnectionGate func(req *http.Request) (release func(), ok bool)

// WithConnectionGate refuses upgrades the gate does not admit with 429.
func WithConnectionGate(gate ConnectionGate) Option {
	return func(r *Router) {
		r.gate = gate
	}
}

// New creates a new router.
func New(opts ...Option) *Router {
	r := &Router{
		mux:             http.NewServeMux(),
		liveRoutes:      make(map[string]*LiveRoute),
		sessions:        NewSessionManager(nil),
		sockets:         core.NewSocketManager(),
		transportConfig: transport.DefaultTransportConfig(),
		logger:          logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.transportConfig.Codec == nil {
		r.transportConfig.Codec = protocol.NewJSONCodec()
	}
	if r.errorHandler == nil {
		r.errorHandler = r.defaultErrorHandler
	}
	return r
}

func (r *Router) defaultErrorHandler(w http.ResponseWriter, req *http.Request, err error) {
	r.logger.Error("render failed", logging.String("path", req.URL.Path), logging.Err(err))
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// Use adds middleware to the router. It applies to routes registered
// afterwards.
func (r *Router) Use(mw Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, mw)
}

// SetErrorHandler sets the error handler.
func (r *Router) SetErrorHandler(handler ErrorHandler) {
	r.errorHandler = handler
}

// Sessions returns the live session manager.
func (r *Router) Sessions() *SessionManager {
	return r.sessions
}

// Sockets returns the socket manager.
func (r *Router) Sockets() *core.SocketManager {
	return r.sockets
}

// RouteOption configures a LiveRoute.
type RouteOption func(*LiveRoute)

// WithRouteMiddleware adds middleware to the route.
func WithRouteMiddleware(mw ...Middleware) RouteOption {
	return func(r *LiveRoute) {
		r.Middleware = append(r.Middleware, mw...)
	}
}

// WithMeta adds metadata to the route.
func WithMeta(key string, value any) RouteOption {
	return func(r *LiveRoute) {
		r.Meta[key] = value
	}
}

// Live registers a live route. "/" matches only the root.
func (r *Router) Live(path string, component func() core.Component, opts ...RouteOption) {
	route := &LiveRoute{
		Path:      path,
		Component: component,
		Meta:      make(map[string]any),
	}
	for _, opt := range opts {
		opt(route)
	}

	r.mu.Lock()
	r.liveRoutes[path] = route
	r.mu.Unlock()

	pattern := "GET " + path
	if path == "/" {
		pattern = "GET /{$}"
	}

	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.serveLive(w, req, route)
	})
	for i := len(route.Middleware) - 1; i >= 0; i-- {
		handler = route.Middleware[i](handler)
	}
	r.mux.Handle(pattern, r.wrap(handler))
}

// Route returns the live route registered at path.
func (r *Router) Route(path string) (*LiveRoute, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	route, ok := r.liveRoutes[path]
	return route, ok
}

// Handle registers a standard HTTP handler behind the router middleware.
func (r *Router) Handle(pattern string, handler http.Handler) {
	r.mux.Handle(pattern, r.wrap(handler))
}

// HandleFunc registers a standard HTTP handler function.
func (r *Router) HandleFunc(pattern string, handler http.HandlerFunc) {
	r.Handle(pattern, handler)
}

func (r *Router) wrap(h http.Handler) http.Handler {
	r.mu.RLock()
	middleware := make([]Middleware, len(r.middleware))
	copy(middleware, r.middleware)
	r.mu.RUnlock()

	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) serveLive(w http.ResponseWriter, req *http.Request, route *LiveRoute) {
	if isWebSocketRequest(req) {
		r.handleWebSocket(w, req, route)
		return
	}
	r.renderLive(w, req, route)
}

// renderLive mounts a throwaway instance and writes its first render.
func (r *Router) renderLive(w http.ResponseWriter, req *http.Request, route *LiveRoute) {
	component := route.Component()
	params := extractParams(req)
	session := extractSession(req)
	ctx := core.BuildContext(req.Context(), nil, session, params)

	if err := component.Mount(ctx, params, session); err != nil {
		r.errorHandler(w, req, err)
		return
	}
	defer func() {
		_ = component.Terminate(context.WithoutCancel(ctx), core.TerminateNormal)
	}()

	html, err := renderHTML(ctx, component)
	if err != nil {
		r.errorHandler(w, req, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

// handleWebSocket upgrades the request and starts the session loop.
func (r *Router) handleWebSocket(w http.ResponseWriter, req *http.Request, route *LiveRoute) {
	release := func() {}
	if r.gate != nil {
		rel, ok := r.gate(req)
		if !ok {
			r.logger.Warn("connection refused", logging.String("path", req.URL.Path))
			w.Header().Set("Retry-After", "5")
			http.Error(w, "Too Many Connections", http.StatusTooManyRequests)
			return
		}
		release = rel
	}

	ws := transport.NewWebSocketTransport(r.transportConfig, r.wsConfig, r.logger)
	if err := ws.Upgrade(w, req); err != nil {
		release()
		r.logger.Warn("websocket upgrade failed", logging.String("path", req.URL.Path), logging.Err(err))
		return
	}

	socketID := uuid.NewString()
	socket := core.NewSocket(socketID, ws)
	component := route.Component()
	if sa, ok := component.(core.SocketAware); ok {
		sa.SetSocket(socket)
	}

	params := extractParams(req)
	session := extractSession(req)

	live, evicted := r.sessions.Create(socketID, component, params, session)
	live.Socket = socket
	live.Transport = ws
	if evicted != nil && evicted.Transport != nil {
		r.logger.Warn("session limit reached, evicting", logging.String("session", evicted.ID))
		_ = evicted.Transport.Close()
	}
	r.sockets.Add(socket)

	// The connection outlives the upgrade request, so the session context
	// is rooted in Background.
	logger := r.logger.With(
		logging.String("socket", socketID),
		logging.String("path", route.Path),
		logging.Device(session.Device()),
	)
	ctx := core.BuildContext(context.Background(), socket, session, params)
	ctx = logging.ContextWithLogger(ctx, logger)

	r.loops.Add(1)
	go func() {
		defer r.loops.Done()
		defer release()
		r.messageLoop(ctx, live, ws.CloseChan())
	}()
}

// messageLoop is the only goroutine that touches the session's component.
// It ends when the client leaves or the transport closes.
func (r *Router) messageLoop(ctx context.Context, session *LiveSession, done <-chan struct{}) {
	defer r.finish(ctx, session)

	for {
		select {
		case msg := <-session.Transport.Receive():
			session.UpdateActivity()
			session.Socket.UpdateActivity()

			switch msg.Event {
			case protocol.EventHeartbeat:
				r.sendReply(session, msg.Ref, msg.Topic, nil)

			case protocol.EventJoin:
				r.handleJoin(ctx, session, msg)

			case protocol.EventLeave:
				r.sendReply(session, msg.Ref, msg.Topic, nil)
				return

			default:
				r.handleEvent(ctx, session, msg)
			}

		case <-done:
			return
		}
	}
}

func (r *Router) handleJoin(ctx context.Context, session *LiveSession, msg protocol.Message) {
	session.SetJoinRef(msg.Ref)

	if !session.IsMounted() {
		if err := session.Component.Mount(ctx, session.Params, session.Session); err != nil {
			logging.L(ctx).Error("mount failed", logging.Err(err))
			r.sendError(session, msg.Ref, msg.Topic, "mount failed")
			return
		}
		session.SetMounted(true)
	}

	html, err := renderHTML(ctx, session.Component)
	if err != nil {
		logging.L(ctx).Error("render failed", logging.Err(err))
		r.sendError(session, msg.Ref, msg.Topic, "render failed")
		return
	}
	seedSlotHashes(session, html)

	r.sendReply(session, msg.Ref, msg.Topic, map[string]any{
		"rendered": map[string]any{"s": []string{html}},
	})
}

// handleEvent hands a client event to the component. The page is
// re-rendered even when the handler fails so an error banner can show.
func (r *Router) handleEvent(ctx context.Context, session *LiveSession, msg protocol.Message) {
	if !session.IsMounted() {
		r.sendError(session, msg.Ref, msg.Topic, "not joined")
		return
	}

	payload := msg.Payload
	if payload == nil {
		payload = make(map[string]any)
	}

	start := time.Now()
	err := session.Component.HandleEvent(ctx, msg.Event, payload)
	if err != nil {
		logging.L(ctx).Error("event failed",
			logging.String("event", msg.Event),
			logging.Duration("took", time.Since(start)),
			logging.Err(err),
		)
	}

	r.renderAndSendDiff(ctx, session)

	if err != nil {
		r.sendError(session, msg.Ref, msg.Topic, eventFailedReason)
		return
	}
	r.sendReply(session, msg.Ref, msg.Topic, nil)
}

func (r *Router) renderAndSendDiff(ctx context.Context, session *LiveSession) {
	html, err := renderHTML(ctx, session.Component)
	if err != nil {
		logging.L(ctx).Error("render failed", logging.Err(err))
		return
	}

	payload := buildDiffPayload(session, html)
	if err := session.Socket.SendDiff(payload); err != nil {
		logging.L(ctx).Debug("diff not delivered", logging.Err(err))
	}
}

// finish terminates the component and releases the connection. It runs
// once, on the session's own loop.
func (r *Router) finish(ctx context.Context, session *LiveSession) {
	session.closeOnce.Do(func() {
		reason := core.TerminateNormal
		if r.closing.Load() {
			reason = core.TerminateShutdown
		}
		if session.IsMounted() {
			if err := session.Component.Terminate(context.WithoutCancel(ctx), reason); err != nil {
				logging.L(ctx).Warn("terminate failed", logging.Err(err))
			}
		}

		r.sessions.Remove(session.ID)
		r.sockets.Remove(session.SocketID)
		_ = session.Socket.Close()
	})
}

// Shutdown closes every live connection and waits for their loops to
// terminate the components.
func (r *Router) Shutdown(ctx context.Context) error {
	r.closing.Store(true)
	for _, s := range r.sessions.All() {
		if s.Transport != nil {
			_ = s.Transport.Close()
		}
	}

	done := make(chan struct{})
	go func() {
		r.loops.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartCleanup closes sessions that went silent for longer than the
// session TTL, checking every interval until ctx is done.
func (r *Router) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				for _, s := range r.sessions.Expired() {
					r.logger.Debug("closing idle session", logging.String("session", s.ID))
					if s.Transport != nil {
						_ = s.Transport.Close()
					}
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (r *Router) sendReply(session *LiveSession, ref, topic string, response map[string]any) {
	if err := session.Transport.Send(protocol.OkReply(ref, topic, response)); err != nil {
		r.logger.Debug("reply not delivered", logging.String("ref", ref), logging.Err(err))
	}
}

func (r *Router) sendError(session *LiveSession, ref, topic, reason string) {
	if err := session.Transport.Send(protocol.ErrorReply(ref, topic, reason)); err != nil {
		r.logger.Debug("error reply not delivered", logging.String("ref", ref), logging.Err(err))
	}
}

// extractSession builds the component session from the request: the
// device id from DeviceCookie plus every cookie as "cookie:<name>".
func extractSession(req *http.Request) core.Session {
	session := make(core.Session)
	for _, cookie := range req.Cookies() {
		session["cookie:"+cookie.Name] = cookie.Value
	}

	device := DeviceFromContext(req.Context())
	if device == "" {
		if c, err := req.Cookie(DeviceCookieName); err == nil {
			device = c.Value
		}
	}
	if device != "" {
		session[core.SessionDeviceKey] = device
	}
	return session
}

// extractParams extracts query parameters.
func extractParams(req *http.Request) core.Params {
	params := make(core.Params)
	for key, values := range req.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}

func isWebSocketRequest(req *http.Request) bool {
	return strings.Contains(strings.ToLower(req.Header.Get("Upgrade")), "websocket")
}
