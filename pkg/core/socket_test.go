package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/campusmatch/campusmatch/pkg/protocol"
)

// MockTransport implements Transport for testing.
type MockTransport struct {
	connected bool
	messages  []protocol.Message
	failWith  error
	mu        sync.Mutex
}

func NewMockTransport() *MockTransport {
	return &MockTransport{connected: true}
}

func (m *MockTransport) Send(msg protocol.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return ErrSocketClosed
	}
	if m.failWith != nil {
		return m.failWith
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	return nil
}

func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockTransport) Messages() []protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]protocol.Message, len(m.messages))
	copy(result, m.messages)
	return result
}

func TestNewSocket(t *testing.T) {
	socket := NewSocket("test-id", NewMockTransport())

	if socket.ID() != "test-id" {
		t.Errorf("expected ID 'test-id', got '%s'", socket.ID())
	}
	if socket.Topic() != "lv:test-id" {
		t.Errorf("expected topic 'lv:test-id', got '%s'", socket.Topic())
	}
	if !socket.IsConnected() {
		t.Error("expected socket to be connected")
	}
}

func TestSocket_Push(t *testing.T) {
	transport := NewMockTransport()
	socket := NewSocket("abc", transport)

	if err := socket.Push("flash", map[string]any{"text": "saved"}); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	msgs := transport.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Topic != "lv:abc" || msgs[0].Event != "flash" || msgs[0].String("text") != "saved" {
		t.Errorf("unexpected message %#v", msgs[0])
	}
}

func TestSocket_Send_Closed(t *testing.T) {
	socket := NewSocket("test-id", NewMockTransport())
	socket.Close()

	if err := socket.Send(protocol.Message{Event: "test"}); !errors.Is(err, ErrSocketClosed) {
		t.Errorf("expected ErrSocketClosed, got %v", err)
	}
	if socket.IsConnected() {
		t.Error("closed socket reports connected")
	}
}

func TestSocket_Send_TransportFailure(t *testing.T) {
	transport := NewMockTransport()
	transport.failWith = errors.New("buffer full")
	socket := NewSocket("test-id", transport)

	if err := socket.Send(protocol.Message{Event: "test"}); !errors.Is(err, ErrSendFailed) {
		t.Errorf("expected ErrSendFailed, got %v", err)
	}
}

func TestSocket_Send_Concurrent(t *testing.T) {
	transport := NewMockTransport()
	socket := NewSocket("test-id", transport)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = socket.Push("tick", nil)
		}()
	}
	wg.Wait()

	if got := len(transport.Messages()); got != 50 {
		t.Errorf("expected 50 messages, got %d", got)
	}
}

func TestSocket_NavigateAndBack(t *testing.T) {
	transport := NewMockTransport()
	socket := NewSocket("nav", transport)

	if err := socket.Navigate("/academic-info"); err != nil {
		t.Fatal(err)
	}
	if err := socket.Back(); err != nil {
		t.Fatal(err)
	}

	msgs := transport.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Event != protocol.EventNavigate || msgs[0].String("to") != "/academic-info" {
		t.Errorf("unexpected navigate message %#v", msgs[0])
	}
	if msgs[1].Event != protocol.EventBack {
		t.Errorf("expected %s, got %s", protocol.EventBack, msgs[1].Event)
	}
}

func TestSocket_SendDiff(t *testing.T) {
	transport := NewMockTransport()
	socket := NewSocket("test-id", transport)

	err := socket.SendDiff(&DiffPayload{
		Version:   3,
		Slots:     map[string]string{"progress": "2 of 3"},
		HTMLSlots: map[string]string{"errors": "<p>Required</p>"},
	})
	if err != nil {
		t.Fatalf("SendDiff failed: %v", err)
	}

	msgs := transport.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	msg := msgs[0]
	if msg.Event != protocol.EventDiff {
		t.Errorf("expected event 'diff', got %q", msg.Event)
	}
	if _, ok := msg.Payload["f"]; ok {
		t.Error("full render should be omitted when empty")
	}
	slots, _ := msg.Payload["s"].(map[string]string)
	if slots["progress"] != "2 of 3" {
		t.Errorf("unexpected text slots %v", msg.Payload["s"])
	}
	if v, _ := msg.Payload["v"].(uint64); v != 3 {
		t.Errorf("expected version 3, got %v", msg.Payload["v"])
	}
}

func TestSocket_SendDiff_Empty(t *testing.T) {
	transport := NewMockTransport()
	socket := NewSocket("test-id", transport)

	if err := socket.SendDiff(nil); err != nil {
		t.Errorf("nil payload: %v", err)
	}
	if err := socket.SendDiff(&DiffPayload{Version: 1}); err != nil {
		t.Errorf("empty payload: %v", err)
	}
	if n := len(transport.Messages()); n != 0 {
		t.Errorf("expected no messages, got %d", n)
	}
}

func TestDiffPayload_Size(t *testing.T) {
	d := &DiffPayload{
		Slots:     map[string]string{"a": "abc"},
		HTMLSlots: map[string]string{"b": "<i>x</i>"},
		Full:      "12345",
	}
	if got := d.Size(); got != 3+8+5 {
		t.Errorf("Size() = %d, want 16", got)
	}
	if d.IsEmpty() {
		t.Error("payload with content reports empty")
	}
}

func TestSocket_Metadata(t *testing.T) {
	socket := NewSocket("m", NewMockTransport())
	socket.SetMetadata("device", "dev-1")
	if got := socket.GetMetadata("device"); got != "dev-1" {
		t.Errorf("GetMetadata = %v", got)
	}
	if socket.GetMetadata("missing") != nil {
		t.Error("missing metadata should be nil")
	}
}

func TestSocketManager_AddRemove(t *testing.T) {
	sm := NewSocketManager()
	a := NewSocket("a", NewMockTransport())
	b := NewSocket("b", NewMockTransport())
	sm.Add(a)
	sm.Add(b)

	if sm.Count() != 2 {
		t.Errorf("expected 2 sockets, got %d", sm.Count())
	}
	if got, ok := sm.Get("a"); !ok || got != a {
		t.Error("Get(a) did not return the added socket")
	}

	sm.Remove("a")
	if _, ok := sm.Get("a"); ok {
		t.Error("socket a still registered after Remove")
	}
	if len(sm.All()) != 1 {
		t.Errorf("expected 1 socket, got %d", len(sm.All()))
	}
}

func TestSocketManager_CleanupInactive(t *testing.T) {
	sm := NewSocketManager()
	stale := NewSocket("stale", NewMockTransport())
	stale.lastActivity.Store(time.Now().Add(-time.Hour).UnixNano())
	fresh := NewSocket("fresh", NewMockTransport())
	sm.Add(stale)
	sm.Add(fresh)

	if removed := sm.CleanupInactive(time.Minute); removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}
	if stale.IsConnected() {
		t.Error("stale socket should be closed")
	}
	if _, ok := sm.Get("fresh"); !ok {
		t.Error("fresh socket was removed")
	}
}

func TestSocketManager_CloseAll(t *testing.T) {
	sm := NewSocketManager()
	transports := []*MockTransport{NewMockTransport(), NewMockTransport()}
	sm.Add(NewSocket("a", transports[0]))
	sm.Add(NewSocket("b", transports[1]))

	if err := sm.CloseAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if sm.Count() != 0 {
		t.Errorf("expected no sockets, got %d", sm.Count())
	}
	for i, tr := range transports {
		if tr.IsConnected() {
			t.Errorf("transport %d still connected", i)
		}
	}
}

func BenchmarkSocket_Send(b *testing.B) {
	socket := NewSocket("bench", NewMockTransport())
	msg := protocol.Message{Event: "diff", Payload: map[string]any{"v": 1}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = socket.Send(msg)
	}
}
