package state

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Serializer encodes stored answers.
type Serializer interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// SerializerByName returns "json" or "msgpack".
func SerializerByName(name string) (Serializer, error) {
	switch name {
	case "json", "":
		return NewJSONSerializer(), nil
	case "msgpack":
		return NewMsgPackSerializer(), nil
	default:
		return nil, fmt.Errorf("unknown serializer %q", name)
	}
}

// JSONSerializer stores answers as JSON text. It is the default, so stored
// answers can be inspected with any SQLite or NATS client.
type JSONSerializer struct {
	Pretty bool
}

// NewJSONSerializer creates a new JSON serializer.
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{}
}

func (s *JSONSerializer) Name() string { return "json" }

// Marshal serializes a value to JSON.
func (s *JSONSerializer) Marshal(v any) ([]byte, error) {
	if s.Pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// Unmarshal deserializes JSON to a value.
func (s *JSONSerializer) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// MsgPackSerializer stores answers as MessagePack behind a one-byte
// marker: 0 for plain, 1 for gzip-compressed.
type MsgPackSerializer struct {
	UseCompression       bool
	CompressionThreshold int
}

// NewMsgPackSerializer creates a new MsgPack serializer.
func NewMsgPackSerializer() *MsgPackSerializer {
	return &MsgPackSerializer{
		UseCompression:       true,
		CompressionThreshold: 1024,
	}
}

func (s *MsgPackSerializer) Name() string { return "msgpack" }

// Marshal serializes a value to bytes.
func (s *MsgPackSerializer) Marshal(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, err
	}

	if s.UseCompression && len(data) >= s.CompressionThreshold {
		compressed, err := gzipBytes(data)
		if err == nil {
			return append([]byte{1}, compressed...), nil
		}
	}
	return append([]byte{0}, data...), nil
}

// Unmarshal deserializes bytes to a value.
func (s *MsgPackSerializer) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return ErrInvalidData
	}

	payload := data[1:]
	switch data[0] {
	case 0:
	case 1:
		var err error
		if payload, err = gunzipBytes(payload); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: marker %#x", ErrInvalidData, data[0])
	}
	return msgpack.Unmarshal(payload, v)
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gunzipBytes(data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	return io.ReadAll(gz)
}
