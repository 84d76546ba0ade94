package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/campusmatch/campusmatch/pkg/core"
	"github.com/campusmatch/campusmatch/pkg/protocol"
	"github.com/campusmatch/campusmatch/pkg/wizard"
)

func TestDeviceCookie_IssuesNewID(t *testing.T) {
	var seen string
	h := DeviceCookie()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = DeviceFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/register", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("device id %q is not a uuid", seen)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != DeviceCookieName || c.Value != seen {
		t.Errorf("cookie %s=%s does not match device %s", c.Name, c.Value, seen)
	}
	if !c.HttpOnly || c.SameSite != http.SameSiteLaxMode || c.MaxAge != 365*24*3600 {
		t.Errorf("unexpected cookie attributes %#v", c)
	}
}

func TestDeviceCookie_KeepsValidID(t *testing.T) {
	id := uuid.NewString()
	var seen string
	h := DeviceCookie()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = DeviceFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DeviceCookieName, Value: id})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if seen != id {
		t.Errorf("device = %q, want %q", seen, id)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("a valid cookie should not be reissued")
	}
}

func TestDeviceCookie_ReplacesGarbage(t *testing.T) {
	var seen string
	h := DeviceCookie()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = DeviceFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DeviceCookieName, Value: "a:b*"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen == "a:b*" || seen == "" {
		t.Errorf("garbage device id was not replaced: %q", seen)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || w.Header().Get("X-Request-ID") != seen {
		t.Errorf("request id %q not echoed (%q)", seen, w.Header().Get("X-Request-ID"))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "given")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "given" {
		t.Errorf("incoming request id not kept: %q", seen)
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestSecureHeaders(t *testing.T) {
	var nonce string
	h := SecureHeaders()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nonce = GetCSPNonce(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if nonce == "" {
		t.Fatal("expected a CSP nonce in the context")
	}
	csp := w.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "'nonce-"+nonce+"'") {
		t.Errorf("CSP %q does not carry the nonce", csp)
	}
	if w.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("missing X-Frame-Options")
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be sent over plain HTTP")
	}
}

func TestNoStore(t *testing.T) {
	h := NoStore()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("Cache-Control = %q", w.Header().Get("Cache-Control"))
	}
}

type recordingTransport struct {
	messages  []protocol.Message
	connected bool
}

func (r *recordingTransport) Send(msg protocol.Message) error {
	r.messages = append(r.messages, msg)
	return nil
}
func (r *recordingTransport) Close() error      { r.connected = false; return nil }
func (r *recordingTransport) IsConnected() bool { return r.connected }

func TestSocketNavigator(t *testing.T) {
	ctx := context.Background()
	tr := &recordingTransport{connected: true}
	nav := NewSocketNavigator(core.NewSocket("s1", tr))

	if err := nav.Navigate(ctx, "/academic-info"); err != nil {
		t.Fatal(err)
	}
	if err := nav.Back(ctx); err != nil {
		t.Fatal(err)
	}
	if len(tr.messages) != 2 {
		t.Fatalf("expected 2 pushes, got %d", len(tr.messages))
	}
	if tr.messages[0].Event != protocol.EventNavigate || tr.messages[0].String("to") != "/academic-info" {
		t.Errorf("unexpected navigate push %#v", tr.messages[0])
	}
	if tr.messages[1].Event != protocol.EventBack {
		t.Errorf("unexpected back push %#v", tr.messages[1])
	}

	tr.connected = false
	if err := nav.Navigate(ctx, "/"); !errors.Is(err, core.ErrSocketClosed) {
		t.Errorf("navigate on closed socket = %v", err)
	}

	detached := NewSocketNavigator(nil)
	if err := detached.Navigate(ctx, "/"); !errors.Is(err, wizard.ErrNoNavigator) {
		t.Errorf("navigate without socket = %v", err)
	}
	if err := detached.Back(ctx); !errors.Is(err, wizard.ErrNoNavigator) {
		t.Errorf("back without socket = %v", err)
	}
}
