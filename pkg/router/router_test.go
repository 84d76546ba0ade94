package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/campusmatch/campusmatch/pkg/core"
	"github.com/campusmatch/campusmatch/pkg/protocol"
)

// CounterComponent renders a counter in a slot and fails on "explode".
type CounterComponent struct {
	core.BaseComponent

	mu         sync.Mutex
	count      int
	device     string
	mounted    int
	terminated chan core.TerminateReason
}

func NewCounterComponent() *CounterComponent {
	return &CounterComponent{terminated: make(chan core.TerminateReason, 1)}
}

func (c *CounterComponent) Name() string { return "Counter" }

func (c *CounterComponent) Mount(ctx context.Context, params core.Params, session core.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mounted++
	c.device = session.Device()
	if params.Get("start") == "ten" {
		c.count = 10
	}
	return nil
}

func (c *CounterComponent) Render(ctx context.Context) core.Renderer {
	return core.RendererFunc(func(ctx context.Context, w io.Writer) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		_, err := fmt.Fprintf(w, `<main><h1>Counter</h1><span data-slot="count">%d</span><p data-slot="device">%s</p></main>`, c.count, c.device)
		return err
	})
}

func (c *CounterComponent) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch event {
	case "inc":
		c.count++
		return nil
	case "explode":
		return errors.New("boom")
	}
	return nil
}

func (c *CounterComponent) Terminate(ctx context.Context, reason core.TerminateReason) error {
	select {
	case c.terminated <- reason:
	default:
	}
	return nil
}

func TestRouter_Live_InitialHTTPRender(t *testing.T) {
	r := New()
	r.Live("/counter", func() core.Component { return NewCounterComponent() })

	req := httptest.NewRequest(http.MethodGet, "/counter?start=ten", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("unexpected content type %q", ct)
	}
	if !strings.Contains(w.Body.String(), `<span data-slot="count">10</span>`) {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

func TestRouter_RootMatchesOnlyRoot(t *testing.T) {
	r := New()
	r.Live("/", func() core.Component { return NewCounterComponent() })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Errorf("GET / = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("GET /nope = %d, want 404", w.Code)
	}
}

func TestRouter_ErrorHandler(t *testing.T) {
	r := New()
	var got error
	r.SetErrorHandler(func(w http.ResponseWriter, req *http.Request, err error) {
		got = err
		w.WriteHeader(http.StatusTeapot)
	})
	r.Live("/nil", func() core.Component { return &nilRenderComponent{} })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nil", nil))

	if w.Code != http.StatusTeapot {
		t.Errorf("expected custom error handler status, got %d", w.Code)
	}
	if !errors.Is(got, ErrNilRenderer) {
		t.Errorf("expected ErrNilRenderer, got %v", got)
	}
}

type nilRenderComponent struct{ core.BaseComponent }

func (c *nilRenderComponent) Render(ctx context.Context) core.Renderer { return nil }

func TestRouter_MiddlewareOrder(t *testing.T) {
	r := New()
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, req)
			})
		}
	}
	r.Use(mw("first"))
	r.Use(mw("second"))
	r.Live("/counter", func() core.Component { return NewCounterComponent() }, WithRouteMiddleware(mw("route")))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/counter", nil))

	want := []string{"first", "second", "route"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("middleware order = %v, want %v", order, want)
	}
}

func TestRouter_HandleAndRoute(t *testing.T) {
	r := New()
	r.HandleFunc("GET /healthz", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Live("/counter", func() core.Component { return NewCounterComponent() }, WithMeta("title", "Counter"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Body.String() != "ok" {
		t.Errorf("unexpected body %q", w.Body.String())
	}

	route, ok := r.Route("/counter")
	if !ok || route.Meta["title"] != "Counter" {
		t.Errorf("route meta not registered: %#v", route)
	}
}

func TestRouter_extractParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x?step=2&step=3&flow=academic", nil)
	params := extractParams(req)
	if params.Get("step") != "2" || params.Get("flow") != "academic" {
		t.Errorf("unexpected params %v", params)
	}
}

func TestRouter_extractSession(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})
	req.AddCookie(&http.Cookie{Name: DeviceCookieName, Value: "cookie-device"})

	session := extractSession(req)
	if session.GetString("cookie:theme") != "dark" {
		t.Errorf("cookie not copied: %v", session)
	}
	if session.Device() != "cookie-device" {
		t.Errorf("device = %q, want cookie-device", session.Device())
	}

	ctx := context.WithValue(req.Context(), deviceKey{}, "ctx-device")
	if got := extractSession(req.WithContext(ctx)).Device(); got != "ctx-device" {
		t.Errorf("device from context = %q", got)
	}
}

func TestRouter_isWebSocketRequest(t *testing.T) {
	tests := []struct {
		upgrade string
		want    bool
	}{
		{"websocket", true},
		{"WebSocket", true},
		{"h2c", false},
		{"", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.upgrade != "" {
			req.Header.Set("Upgrade", tt.upgrade)
		}
		if got := isWebSocketRequest(req); got != tt.want {
			t.Errorf("isWebSocketRequest(%q) = %v, want %v", tt.upgrade, got, tt.want)
		}
	}
}

// liveClient is a minimal browser client speaking the JSON protocol.
type liveClient struct {
	t     *testing.T
	conn  *websocket.Conn
	codec protocol.Codec
	ref   int
}

func dialLive(t *testing.T, srv *httptest.Server, path string) *liveClient {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	header := http.Header{}
	header.Add("Cookie", DeviceCookieName+"=7b0f5e8e-3c4f-4c1a-9f55-0d0c1d2b3a4f")
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+path, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return &liveClient{t: t, conn: conn, codec: protocol.NewJSONCodec()}
}

func (c *liveClient) send(event string, payload map[string]any) string {
	c.t.Helper()
	c.ref++
	ref := fmt.Sprint(c.ref)
	data, err := c.codec.Encode(protocol.Message{Ref: ref, Topic: "lv:test", Event: event, Payload: payload})
	if err != nil {
		c.t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
		c.t.Fatalf("Write: %v", err)
	}
	return ref
}

func (c *liveClient) read() protocol.Message {
	c.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := c.conn.Read(ctx)
	if err != nil {
		c.t.Fatalf("Read: %v", err)
	}
	msg, err := c.codec.Decode(data)
	if err != nil {
		c.t.Fatalf("Decode: %v", err)
	}
	return msg
}

func replyStatus(msg protocol.Message) string {
	if msg.Event != protocol.EventReply {
		return ""
	}
	return msg.String("status")
}

func TestRouter_WebSocketSession(t *testing.T) {
	comp := NewCounterComponent()
	r := New()
	r.Live("/counter", func() core.Component { return comp })
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := dialLive(t, srv, "/counter")

	ref := c.send(protocol.EventJoin, nil)
	join := c.read()
	if join.Ref != ref || replyStatus(join) != protocol.StatusOK {
		t.Fatalf("unexpected join reply %#v", join)
	}
	rendered, _ := join.Payload["response"].(map[string]any)["rendered"].(map[string]any)
	statics, _ := rendered["s"].([]any)
	if len(statics) != 1 || !strings.Contains(statics[0].(string), "7b0f5e8e-3c4f-4c1a-9f55-0d0c1d2b3a4f") {
		t.Fatalf("join did not render the device: %#v", rendered)
	}

	c.send("inc", nil)
	diff := c.read()
	if diff.Event != protocol.EventDiff {
		t.Fatalf("expected diff, got %#v", diff)
	}
	slots, _ := diff.Payload["s"].(map[string]any)
	if slots["count"] != "1" {
		t.Errorf("expected count slot 1, got %v", diff.Payload)
	}
	if _, ok := slots["device"]; ok {
		t.Error("unchanged device slot was resent")
	}
	if ack := c.read(); replyStatus(ack) != protocol.StatusOK {
		t.Errorf("expected ok reply, got %#v", ack)
	}

	c.send("explode", nil)
	if msg := c.read(); msg.Event == protocol.EventDiff {
		t.Errorf("nothing changed, no diff expected: %#v", msg)
	} else if replyStatus(msg) != protocol.StatusError {
		t.Errorf("expected error reply, got %#v", msg)
	}

	c.send(protocol.EventHeartbeat, nil)
	if hb := c.read(); replyStatus(hb) != protocol.StatusOK {
		t.Errorf("heartbeat reply %#v", hb)
	}

	c.send(protocol.EventLeave, nil)
	select {
	case reason := <-comp.terminated:
		if reason != core.TerminateNormal {
			t.Errorf("terminate reason = %v", reason)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("component was not terminated after leave")
	}

	deadline := time.Now().Add(5 * time.Second)
	for r.Sessions().Count() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := r.Sessions().Count(); n != 0 {
		t.Errorf("expected no sessions after leave, got %d", n)
	}
}

func TestRouter_EventBeforeJoinIsRejected(t *testing.T) {
	r := New()
	r.Live("/counter", func() core.Component { return NewCounterComponent() })
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := dialLive(t, srv, "/counter")
	c.send("inc", nil)
	if msg := c.read(); replyStatus(msg) != protocol.StatusError {
		t.Errorf("expected error reply, got %#v", msg)
	}
}

func TestRouter_ShutdownTerminatesComponents(t *testing.T) {
	comp := NewCounterComponent()
	r := New()
	r.Live("/counter", func() core.Component { return comp })
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := dialLive(t, srv, "/counter")
	c.send(protocol.EventJoin, nil)
	c.read()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	select {
	case reason := <-comp.terminated:
		if reason != core.TerminateShutdown {
			t.Errorf("terminate reason = %v, want shutdown", reason)
		}
	default:
		t.Fatal("component not terminated by Shutdown")
	}
}

func TestRouter_ConnectionGate(t *testing.T) {
	var mu sync.Mutex
	open := 0
	released := make(chan struct{}, 1)
	gate := func(req *http.Request) (func(), bool) {
		mu.Lock()
		defer mu.Unlock()
		if open >= 1 {
			return nil, false
		}
		open++
		return func() {
			mu.Lock()
			open--
			mu.Unlock()
			released <- struct{}{}
		}, true
	}

	r := New(WithConnectionGate(gate))
	r.Live("/counter", func() core.Component { return NewCounterComponent() })
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := dialLive(t, srv, "/counter")
	c.send(protocol.EventJoin, nil)
	c.read()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/counter", nil)
	if err == nil {
		t.Fatal("second connection should be refused")
	}
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", resp)
	}

	c.send(protocol.EventLeave, nil)
	select {
	case <-released:
	case <-time.After(5 * time.Second):
		t.Fatal("slot not released after leave")
	}
}

func TestSessionManager(t *testing.T) {
	m := NewSessionManager(&SessionManagerConfig{MaxSessions: 2, SessionTTL: time.Minute})

	a, _ := m.Create("sock-a", NewCounterComponent(), nil, nil)
	a.lastActivity = time.Now().Add(-30 * time.Second)
	b, _ := m.Create("sock-b", NewCounterComponent(), nil, nil)

	if got, ok := m.GetBySocket("sock-b"); !ok || got != b {
		t.Error("GetBySocket did not return the session")
	}

	_, evicted := m.Create("sock-c", NewCounterComponent(), nil, nil)
	if evicted != a {
		t.Errorf("expected the least recently active session to be evicted")
	}
	if m.Count() != 2 {
		t.Errorf("expected 2 sessions, got %d", m.Count())
	}

	b.lastActivity = time.Now().Add(-time.Hour)
	expired := m.Expired()
	if len(expired) != 1 || expired[0] != b {
		t.Errorf("expected b to expire, got %v", expired)
	}

	m.Remove(b.ID)
	if _, ok := m.Get(b.ID); ok {
		t.Error("removed session still present")
	}
}

func TestLiveSession_State(t *testing.T) {
	s := NewLiveSession("sock", NewCounterComponent(), nil, nil)
	if s.Topic != "lv:sock" {
		t.Errorf("topic = %q", s.Topic)
	}
	if s.IsMounted() {
		t.Error("new session should not be mounted")
	}
	s.SetMounted(true)
	s.SetJoinRef("1")
	if !s.IsMounted() || s.JoinRef() != "1" {
		t.Error("state not recorded")
	}
	if s.nextVersion() != 1 || s.nextVersion() != 2 {
		t.Error("versions should increase from 1")
	}
}

func BenchmarkRouter_ServeHTTP(b *testing.B) {
	r := New()
	r.Live("/counter", func() core.Component { return NewCounterComponent() })
	req := httptest.NewRequest(http.MethodGet, "/counter", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
}
