package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Common codec errors.
var (
	ErrInvalidMessage = errors.New("invalid message format")
	ErrUnknownCodec   = errors.New("unknown codec type")
)

// Codec frames messages on the wire.
type Codec interface {
	Encode(msg Message) ([]byte, error)
	Decode(data []byte) (Message, error)

	// Name returns the codec name.
	Name() string

	// Binary reports whether frames must be sent as binary messages.
	Binary() bool
}

// JSONCodec encodes messages as JSON text frames.
type JSONCodec struct{}

func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

func (c *JSONCodec) Encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

func (c *JSONCodec) Decode(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if msg.Event == "" {
		return Message{}, fmt.Errorf("%w: missing event", ErrInvalidMessage)
	}
	return msg, nil
}

func (c *JSONCodec) Name() string { return "json" }
func (c *JSONCodec) Binary() bool { return false }

// MsgPackCodec encodes messages as MessagePack binary frames.
type MsgPackCodec struct{}

func NewMsgPackCodec() *MsgPackCodec {
	return &MsgPackCodec{}
}

func (c *MsgPackCodec) Encode(msg Message) ([]byte, error) {
	return msgpack.Marshal(msg)
}

func (c *MsgPackCodec) Decode(data []byte) (Message, error) {
	var msg Message
	if err := msgpack.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if msg.Event == "" {
		return Message{}, fmt.Errorf("%w: missing event", ErrInvalidMessage)
	}
	return msg, nil
}

func (c *MsgPackCodec) Name() string { return "msgpack" }
func (c *MsgPackCodec) Binary() bool { return true }

// CodecRegistry manages available codecs.
type CodecRegistry struct {
	codecs map[string]Codec
	def    Codec
	mu     sync.RWMutex
}

// NewCodecRegistry creates a registry holding the JSON and MessagePack
// codecs, with JSON as the default.
func NewCodecRegistry() *CodecRegistry {
	r := &CodecRegistry{codecs: make(map[string]Codec)}
	r.Register(NewJSONCodec())
	r.Register(NewMsgPackCodec())
	r.def = r.codecs["json"]
	return r
}

// Register adds a codec to the registry.
func (r *CodecRegistry) Register(codec Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[codec.Name()] = codec
}

// Get retrieves a codec by name.
func (r *CodecRegistry) Get(name string) (Codec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
	return c, nil
}

// Default returns the default codec.
func (r *CodecRegistry) Default() Codec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.def
}

// SetDefault sets the default codec.
func (r *CodecRegistry) SetDefault(name string) error {
	c, err := r.Get(name)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.def = c
	r.mu.Unlock()
	return nil
}

// DefaultCodecRegistry is the global codec registry.
var DefaultCodecRegistry = NewCodecRegistry()
