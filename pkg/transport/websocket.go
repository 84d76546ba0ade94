package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/campusmatch/campusmatch/pkg/logging"
	"github.com/campusmatch/campusmatch/pkg/protocol"
)

// WebSocket security errors
var (
	ErrOriginNotAllowed = errors.New("origin not allowed")
)

// WebSocketConfig configures WebSocket security settings.
type WebSocketConfig struct {
	// AllowedOrigins lists cross-origin pages allowed to connect. Same-origin
	// connections are always allowed.
	AllowedOrigins []string

	// InsecureDevMode disables origin validation. Development only.
	InsecureDevMode bool
}

// WebSocketTransport implements Transport using WebSocket.
type WebSocketTransport struct {
	*BaseTransport
	conn     *websocket.Conn
	wsConfig *WebSocketConfig
	logger   logging.Logger
	mu       sync.Mutex
}

// NewWebSocketTransport creates a server-side WebSocket transport.
func NewWebSocketTransport(config *TransportConfig, wsConfig *WebSocketConfig, logger logging.Logger) *WebSocketTransport {
	if wsConfig == nil {
		wsConfig = &WebSocketConfig{}
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &WebSocketTransport{
		BaseTransport: NewBaseTransport(config),
		wsConfig:      wsConfig,
		logger:        logger,
	}
}

// isOriginAllowed checks the Origin header against the request host and
// the allow list.
func (t *WebSocketTransport) isOriginAllowed(origin, requestHost string) bool {
	if t.wsConfig.InsecureDevMode || origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if originURL.Host == requestHost {
		return true
	}

	for _, allowed := range t.wsConfig.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
		if allowedURL, err := url.Parse(allowed); err == nil && allowedURL.Host == originURL.Host {
			return true
		}
	}
	return false
}

// originPatterns turns the allow list into websocket.AcceptOptions host
// patterns.
func (t *WebSocketTransport) originPatterns() []string {
	var patterns []string
	for _, allowed := range t.wsConfig.AllowedOrigins {
		if allowed == "*" {
			return []string{"*"}
		}
		if u, err := url.Parse(allowed); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
		} else {
			patterns = append(patterns, allowed)
		}
	}
	return patterns
}

// Upgrade upgrades an HTTP connection to WebSocket and starts the read,
// write and ping loops.
func (t *WebSocketTransport) Upgrade(w http.ResponseWriter, r *http.Request) error {
	if !t.isOriginAllowed(r.Header.Get("Origin"), r.Host) {
		http.Error(w, "Forbidden: Origin not allowed", http.StatusForbidden)
		return ErrOriginNotAllowed
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: t.wsConfig.InsecureDevMode,
		OriginPatterns:     t.originPatterns(),
	})
	if err != nil {
		return fmt.Errorf("accept websocket: %w", err)
	}
	conn.SetReadLimit(t.config.MaxMessageSize)

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
	t.SetConnected(true)

	go t.readLoop()
	go t.writeLoop()
	go t.pingLoop()

	return nil
}

// Send queues a message for the client.
func (t *WebSocketTransport) Send(msg protocol.Message) error {
	return t.Queue(context.Background(), msg)
}

// Close closes the WebSocket connection.
func (t *WebSocketTransport) Close() error {
	_ = t.BaseTransport.Close()

	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close(websocket.StatusNormalClosure, "closing")
}

func (t *WebSocketTransport) currentConn() *websocket.Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn
}

func (t *WebSocketTransport) readLoop() {
	defer t.Close()

	codec := t.config.Codec
	for {
		conn := t.currentConn()
		if conn == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), t.config.ReadTimeout)
		_, data, err := conn.Read(ctx)
		cancel()
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure &&
				websocket.CloseStatus(err) != websocket.StatusGoingAway {
				t.logger.Debug("websocket read ended", logging.Err(err))
			}
			return
		}

		msg, err := codec.Decode(data)
		if err != nil {
			t.logger.Debug("dropping undecodable frame", logging.Err(err))
			continue
		}

		if msg.Event == protocol.EventPing {
			t.sendPong(msg)
			continue
		}

		select {
		case t.recvCh <- msg:
		case <-t.closeCh:
			return
		default:
			t.logger.Warn("receive buffer full, dropping message", logging.String("event", msg.Event))
		}
	}
}

func (t *WebSocketTransport) writeLoop() {
	codec := t.config.Codec
	frame := websocket.MessageText
	if codec.Binary() {
		frame = websocket.MessageBinary
	}

	for {
		select {
		case msg := <-t.sendCh:
			conn := t.currentConn()
			if conn == nil {
				return
			}

			data, err := codec.Encode(msg)
			if err != nil {
				t.logger.Error("encode message failed", logging.String("event", msg.Event), logging.Err(err))
				continue
			}

			ctx, cancel := context.WithTimeout(context.Background(), t.config.WriteTimeout)
			err = conn.Write(ctx, frame, data)
			cancel()
			if err != nil {
				_ = t.Close()
				return
			}

		case <-t.closeCh:
			return
		}
	}
}

func (t *WebSocketTransport) pingLoop() {
	ticker := time.NewTicker(t.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			conn := t.currentConn()
			if conn == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), t.config.WriteTimeout)
			_ = conn.Ping(ctx)
			cancel()
		case <-t.closeCh:
			return
		}
	}
}

func (t *WebSocketTransport) sendPong(ping protocol.Message) {
	select {
	case t.sendCh <- protocol.OkReply(ping.Ref, ping.Topic, nil):
	default:
	}
}
