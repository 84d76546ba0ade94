// Package testing drives live components without a browser or a router.
//
//	lv := lvtest.Mount(t, registration.NewFlowView(flow, deps)(), lvtest.WithDevice("d1"))
//	lv.Event("set_field", map[string]any{"field": "name", "value": "Ada"}).
//		AssertNoError().
//		AssertText("Ada")
package testing

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/campusmatch/campusmatch/pkg/core"
	"github.com/campusmatch/campusmatch/pkg/protocol"
)

// LiveViewTest holds one mounted component and its last render.
type LiveViewTest struct {
	t         testing.TB
	component core.Component
	transport *MockTransport
	socket    *core.Socket
	params    core.Params
	session   core.Session

	rendered string
	lastErr  error
	events   []string
	closed   bool
}

type mountConfig struct {
	params  core.Params
	session core.Session
	static  bool
}

// MountOption configures Mount.
type MountOption func(*mountConfig)

// WithParams sets the URL parameters passed to Mount.
func WithParams(params core.Params) MountOption {
	return func(c *mountConfig) { c.params = params }
}

// WithSession sets the session passed to Mount.
func WithSession(session core.Session) MountOption {
	return func(c *mountConfig) {
		for k, v := range session {
			c.session[k] = v
		}
	}
}

// WithDevice sets the device id carried by the session.
func WithDevice(id string) MountOption {
	return func(c *mountConfig) { c.session[core.SessionDeviceKey] = id }
}

// Static mounts without a socket, the way the plain HTTP render does.
func Static() MountOption {
	return func(c *mountConfig) { c.static = true }
}

// Mount mounts comp and renders it once. Mount failures stop the test.
func Mount(t testing.TB, comp core.Component, opts ...MountOption) *LiveViewTest {
	t.Helper()

	cfg := mountConfig{
		params:  core.Params{},
		session: core.Session{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	lvt := &LiveViewTest{
		t:         t,
		component: comp,
		transport: NewMockTransport(),
		params:    cfg.params,
		session:   cfg.session,
	}
	if !cfg.static {
		lvt.socket = core.NewSocket(lvt.transport.ID, lvt.transport)
		if sa, ok := comp.(core.SocketAware); ok {
			sa.SetSocket(lvt.socket)
		}
	}

	if err := comp.Mount(lvt.context(), cfg.params, cfg.session); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	lvt.render()

	t.Cleanup(func() { lvt.Close() })
	return lvt
}

func (lvt *LiveViewTest) context() context.Context {
	return core.BuildContext(context.Background(), lvt.socket, lvt.session, lvt.params)
}

// Event sends one client event and re-renders, like the router does. The
// handler's error is kept for AssertError and AssertNoError.
func (lvt *LiveViewTest) Event(name string, payload map[string]any) *LiveViewTest {
	lvt.t.Helper()

	if payload == nil {
		payload = map[string]any{}
	}
	lvt.events = append(lvt.events, name)
	lvt.lastErr = lvt.component.HandleEvent(lvt.context(), name, payload)
	lvt.render()
	return lvt
}

func (lvt *LiveViewTest) render() {
	lvt.t.Helper()

	ctx := lvt.context()
	var buf bytes.Buffer
	if err := lvt.component.Render(ctx).Render(ctx, &buf); err != nil {
		lvt.t.Fatalf("Render failed: %v", err)
	}
	lvt.rendered = buf.String()
}

// Close terminates the component. It runs automatically at test cleanup.
func (lvt *LiveViewTest) Close() {
	if lvt.closed {
		return
	}
	lvt.closed = true
	_ = lvt.component.Terminate(context.Background(), core.TerminateNormal)
	if lvt.socket != nil {
		_ = lvt.socket.Close()
	}
}

// Rendered returns the current rendered HTML.
func (lvt *LiveViewTest) Rendered() string {
	return lvt.rendered
}

// Err returns the error of the last event.
func (lvt *LiveViewTest) Err() error {
	return lvt.lastErr
}

// Component returns the component under test.
func (lvt *LiveViewTest) Component() core.Component {
	return lvt.component
}

// Transport returns the recording transport behind the socket.
func (lvt *LiveViewTest) Transport() *MockTransport {
	return lvt.transport
}

// Events returns the names of every event sent so far.
func (lvt *LiveViewTest) Events() []string {
	return lvt.events
}

// Navigations returns the paths pushed with lv:navigate, in order.
func (lvt *LiveViewTest) Navigations() []string {
	var paths []string
	for _, msg := range lvt.transport.SentEvents(protocol.EventNavigate) {
		paths = append(paths, msg.String("to"))
	}
	return paths
}

// BackCount returns how many times lv:back was pushed.
func (lvt *LiveViewTest) BackCount() int {
	return len(lvt.transport.SentEvents(protocol.EventBack))
}

// AssertNoError fails when the last event returned an error.
func (lvt *LiveViewTest) AssertNoError() *LiveViewTest {
	lvt.t.Helper()
	if lvt.lastErr != nil {
		lvt.t.Errorf("event %s failed: %v", lvt.lastEvent(), lvt.lastErr)
	}
	return lvt
}

// AssertError fails unless the last event returned an error.
func (lvt *LiveViewTest) AssertError() *LiveViewTest {
	lvt.t.Helper()
	if lvt.lastErr == nil {
		lvt.t.Errorf("event %s should have failed", lvt.lastEvent())
	}
	return lvt
}

func (lvt *LiveViewTest) lastEvent() string {
	if len(lvt.events) == 0 {
		return "(none)"
	}
	return lvt.events[len(lvt.events)-1]
}

// AssertText verifies the rendered output contains text.
func (lvt *LiveViewTest) AssertText(text string) *LiveViewTest {
	lvt.t.Helper()
	if !strings.Contains(lvt.rendered, text) {
		lvt.t.Errorf("Text not found: %q\nRendered HTML:\n%s", text, lvt.rendered)
	}
	return lvt
}

// AssertNoText verifies the rendered output does not contain text.
func (lvt *LiveViewTest) AssertNoText(text string) *LiveViewTest {
	lvt.t.Helper()
	if strings.Contains(lvt.rendered, text) {
		lvt.t.Errorf("Text should not exist: %q", text)
	}
	return lvt
}

// AssertHasElement verifies an opening tag carrying every attr exists.
// attrs are matched literally, e.g. `name="email"`.
func (lvt *LiveViewTest) AssertHasElement(tag string, attrs ...string) *LiveViewTest {
	lvt.t.Helper()
	if !hasElement(lvt.rendered, tag, attrs...) {
		lvt.t.Errorf("Element <%s %s> not found\nRendered HTML:\n%s",
			tag, strings.Join(attrs, " "), lvt.rendered)
	}
	return lvt
}

// AssertNoElement verifies no opening tag carries every attr.
func (lvt *LiveViewTest) AssertNoElement(tag string, attrs ...string) *LiveViewTest {
	lvt.t.Helper()
	if hasElement(lvt.rendered, tag, attrs...) {
		lvt.t.Errorf("Element <%s %s> should not exist", tag, strings.Join(attrs, " "))
	}
	return lvt
}

// AssertNavigatedTo verifies the last lv:navigate push went to path.
func (lvt *LiveViewTest) AssertNavigatedTo(path string) *LiveViewTest {
	lvt.t.Helper()
	navs := lvt.Navigations()
	if len(navs) == 0 {
		lvt.t.Errorf("expected navigation to %s, got none", path)
		return lvt
	}
	if got := navs[len(navs)-1]; got != path {
		lvt.t.Errorf("navigated to %s, want %s", got, path)
	}
	return lvt
}

// AssertNoNavigation verifies nothing moved the browser.
func (lvt *LiveViewTest) AssertNoNavigation() *LiveViewTest {
	lvt.t.Helper()
	if navs := lvt.Navigations(); len(navs) > 0 || lvt.BackCount() > 0 {
		lvt.t.Errorf("unexpected navigation: %v (back %d)", navs, lvt.BackCount())
	}
	return lvt
}

// hasElement scans every opening <tag ...> and checks its attributes.
func hasElement(html, tag string, attrs ...string) bool {
	open := fmt.Sprintf("<%s", tag)
	rest := html
	for {
		i := strings.Index(rest, open)
		if i < 0 {
			return false
		}
		rest = rest[i+len(open):]
		if rest == "" {
			return false
		}
		// Skip <labelx> when looking for <label.
		if c := rest[0]; c != ' ' && c != '>' && c != '/' && c != '\n' && c != '\t' {
			continue
		}
		end := strings.IndexByte(rest, '>')
		if end < 0 {
			return false
		}
		element := rest[:end]
		matched := true
		for _, attr := range attrs {
			if !strings.Contains(element, attr) {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
}
