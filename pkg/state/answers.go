package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campusmatch/campusmatch/pkg/forms"
)

// DefaultKeyPrefix namespaces answer keys in a shared store.
const DefaultKeyPrefix = "campusmatch:answers:"

// AnswerStore saves per-screen answers for each visiting device under
// <prefix><device>:<storageKey>.
type AnswerStore struct {
	store      Store
	serializer Serializer
	keyPrefix  string
	ttl        time.Duration
}

// AnswerStoreOption configures an AnswerStore.
type AnswerStoreOption func(*AnswerStore)

// WithKeyPrefix sets the key prefix.
func WithKeyPrefix(prefix string) AnswerStoreOption {
	return func(a *AnswerStore) {
		a.keyPrefix = prefix
	}
}

// WithTTL sets how long saved answers live. Zero keeps them.
func WithTTL(ttl time.Duration) AnswerStoreOption {
	return func(a *AnswerStore) {
		a.ttl = ttl
	}
}

// WithSerializer sets the encoding. Defaults to JSON.
func WithSerializer(s Serializer) AnswerStoreOption {
	return func(a *AnswerStore) {
		a.serializer = s
	}
}

// NewAnswerStore wraps store.
func NewAnswerStore(store Store, opts ...AnswerStoreOption) *AnswerStore {
	a := &AnswerStore{
		store:      store,
		serializer: NewJSONSerializer(),
		keyPrefix:  DefaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Store returns the underlying store.
func (a *AnswerStore) Store() Store {
	return a.store
}

// Key returns the store key of one screen's answers.
func (a *AnswerStore) Key(device, storageKey string) string {
	return a.keyPrefix + device + ":" + storageKey
}

func checkSegment(kind, s string) error {
	if s == "" || strings.ContainsAny(s, ":*?[]\\. ") {
		return fmt.Errorf("%w: %s %q", ErrInvalidKey, kind, s)
	}
	return nil
}

// Save overwrites one screen's answers.
func (a *AnswerStore) Save(ctx context.Context, device, storageKey string, answers forms.AnswerSet) error {
	if err := checkSegment("device", device); err != nil {
		return err
	}
	if err := checkSegment("storage key", storageKey); err != nil {
		return err
	}

	data, err := a.serializer.Marshal(answers)
	if err != nil {
		return fmt.Errorf("encode %s: %w", storageKey, err)
	}
	return a.store.Set(ctx, a.Key(device, storageKey), data, a.ttl)
}

// Load returns the decoded answers of one screen. Missing answers return
// ErrKeyNotFound and undecodable ones wrap ErrInvalidData.
func (a *AnswerStore) Load(ctx context.Context, device, storageKey string) (map[string]any, error) {
	if err := checkSegment("device", device); err != nil {
		return nil, err
	}
	if err := checkSegment("storage key", storageKey); err != nil {
		return nil, err
	}

	data, err := a.store.Get(ctx, a.Key(device, storageKey))
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := a.serializer.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidData, storageKey, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: %s: not an object", ErrInvalidData, storageKey)
	}
	return out, nil
}

// Delete removes one screen's answers.
func (a *AnswerStore) Delete(ctx context.Context, device, storageKey string) error {
	return a.store.Delete(ctx, a.Key(device, storageKey))
}

// List returns the storage keys saved for device, sorted.
func (a *AnswerStore) List(ctx context.Context, device string) ([]string, error) {
	if err := checkSegment("device", device); err != nil {
		return nil, err
	}
	prefix := a.keyPrefix + device + ":"
	keys, err := a.store.Keys(ctx, prefix+"*")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, prefix))
	}
	return out, nil
}

// Devices returns every device with saved answers, sorted.
func (a *AnswerStore) Devices(ctx context.Context) ([]string, error) {
	keys, err := a.store.Keys(ctx, a.keyPrefix+"*")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, k := range keys {
		device, _, ok := strings.Cut(strings.TrimPrefix(k, a.keyPrefix), ":")
		if !ok {
			continue
		}
		if len(out) == 0 || out[len(out)-1] != device {
			out = append(out, device)
		}
	}
	return out, nil
}

// Clear deletes every saved screen of device and reports how many.
func (a *AnswerStore) Clear(ctx context.Context, device string) (int, error) {
	keys, err := a.List(ctx, device)
	if err != nil {
		return 0, err
	}
	var errs []error
	n := 0
	for _, k := range keys {
		if err := a.Delete(ctx, device, k); err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}

// ForDevice binds the store to one device.
func (a *AnswerStore) ForDevice(device string) *DeviceAnswers {
	return &DeviceAnswers{store: a, device: device}
}

// DeviceAnswers is an AnswerStore bound to a single device. It satisfies
// wizard.Persister.
type DeviceAnswers struct {
	store  *AnswerStore
	device string
}

// Device returns the bound device id.
func (d *DeviceAnswers) Device() string {
	return d.device
}

// Load returns nil, nil when nothing was saved under key.
func (d *DeviceAnswers) Load(ctx context.Context, key string) (map[string]any, error) {
	out, err := d.store.Load(ctx, d.device, key)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	return out, err
}

func (d *DeviceAnswers) Save(ctx context.Context, key string, answers forms.AnswerSet) error {
	return d.store.Save(ctx, d.device, key, answers)
}
