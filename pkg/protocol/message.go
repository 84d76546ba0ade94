// Package protocol defines the messages exchanged between the browser client
// and the live router, and the codecs that frame them.
package protocol

// Events understood by the router and the client.
const (
	EventJoin      = "phx_join"
	EventLeave     = "phx_leave"
	EventReply     = "phx_reply"
	EventHeartbeat = "heartbeat"
	EventPing      = "ping"
	EventDiff      = "diff"

	// Pushed by the server to move the browser.
	EventNavigate = "lv:navigate"
	EventBack     = "lv:back"
)

// Reply statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// TopicPrefix prefixes the topic of every live session.
const TopicPrefix = "lv:"

// Message is one frame on the live connection.
type Message struct {
	// Ref correlates a reply with its request.
	Ref string `json:"ref,omitempty" msgpack:"ref,omitempty"`

	// Topic is the session channel, "lv:" + socket id.
	Topic string `json:"topic" msgpack:"topic"`

	// Event names the action, e.g. "set_field" or "diff".
	Event string `json:"event" msgpack:"event"`

	Payload map[string]any `json:"payload,omitempty" msgpack:"payload,omitempty"`
}

// String returns a payload value as a string.
func (m Message) String(key string) string {
	if v, ok := m.Payload[key].(string); ok {
		return v
	}
	return ""
}

// Int returns a payload value as an int. JSON numbers decode as float64
// and MessagePack integers keep their width, so both are accepted.
func (m Message) Int(key string) (int, bool) {
	switch v := m.Payload[key].(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		return int(v), v == float64(int(v))
	case float32:
		return int(v), v == float32(int(v))
	default:
		return 0, false
	}
}

// Reply builds a phx_reply for ref.
func Reply(ref, topic, status string, response map[string]any) Message {
	return Message{
		Ref:   ref,
		Topic: topic,
		Event: EventReply,
		Payload: map[string]any{
			"status":   status,
			"response": response,
		},
	}
}

// OkReply builds a successful reply.
func OkReply(ref, topic string, response map[string]any) Message {
	return Reply(ref, topic, StatusOK, response)
}

// ErrorReply builds an error reply with a reason.
func ErrorReply(ref, topic, reason string) Message {
	return Reply(ref, topic, StatusError, map[string]any{"reason": reason})
}
