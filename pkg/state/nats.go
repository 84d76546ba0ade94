package state

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// DefaultBucket is the key-value bucket used when none is configured.
const DefaultBucket = "answers"

// NATSStore keeps answers in a JetStream key-value bucket served by an
// embedded, in-process NATS server.
//
// Bucket keys may not contain ':', so it is stored as '.'. TTLs are set
// per bucket; the ttl passed to Set is ignored.
type NATSStore struct {
	ns *server.Server
	nc *nats.Conn
	kv jetstream.KeyValue
}

// OpenNATS starts an embedded JetStream server storing files under dir and
// opens the bucket.
func OpenNATS(ctx context.Context, dir, bucket string, ttl time.Duration) (*NATSStore, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}

	ns, err := startEmbedded(dir)
	if err != nil {
		return nil, err
	}
	nc, err := nats.Connect("", nats.InProcessServer(ns))
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("connect in-process: %w", err)
	}

	s := &NATSStore{ns: ns, nc: nc}
	js, err := jetstream.New(nc)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	s.kv, err = js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "campusmatch registration answers",
		TTL:         ttl,
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("open bucket %s: %w", bucket, err)
	}
	return s, nil
}

func startEmbedded(dir string) (*server.Server, error) {
	opts := &server.Options{
		JetStream:  true,
		StoreDir:   dir,
		DontListen: true,
		NoSigs:     true,
	}
	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create nats server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(4 * time.Second) {
		ns.Shutdown()
		return nil, errors.New("nats server failed to start within timeout")
	}
	return ns, nil
}

func natsKey(key string) string {
	return strings.ReplaceAll(key, ":", ".")
}

func storeKey(key string) string {
	return strings.ReplaceAll(key, ".", ":")
}

func (s *NATSStore) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := s.kv.Get(ctx, natsKey(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrKeyNotFound
		}
		if errors.Is(err, jetstream.ErrInvalidKey) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidKey, key)
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return entry.Value(), nil
}

func (s *NATSStore) Set(ctx context.Context, key string, value []byte, _ time.Duration) error {
	if _, err := s.kv.Put(ctx, natsKey(key), value); err != nil {
		if errors.Is(err, jetstream.ErrInvalidKey) {
			return fmt.Errorf("%w: %s", ErrInvalidKey, key)
		}
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *NATSStore) Delete(ctx context.Context, key string) error {
	err := s.kv.Delete(ctx, natsKey(key))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *NATSStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Keys lists every key in the bucket and filters with path.Match.
func (s *NATSStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, err
	}
	lister, err := s.kv.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer func() { _ = lister.Stop() }()

	var keys []string
	for k := range lister.Keys() {
		key := storeKey(k)
		if ok, _ := filepath.Match(pattern, key); ok {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

func (s *NATSStore) Ping(ctx context.Context) error {
	if !s.nc.IsConnected() {
		return nats.ErrConnectionClosed
	}
	_, err := s.kv.Status(ctx)
	return err
}

// Close drains the connection and shuts the embedded server down.
func (s *NATSStore) Close() error {
	if s.nc != nil {
		drained := make(chan error, 1)
		go func() { drained <- s.nc.Drain() }()
		select {
		case err := <-drained:
			if err != nil {
				s.nc.Close()
			}
		case <-time.After(2 * time.Second):
			s.nc.Close()
		}
	}

	if s.ns != nil {
		s.ns.Shutdown()
		done := make(chan struct{})
		go func() {
			s.ns.WaitForShutdown()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			return errors.New("nats server shutdown timed out")
		}
	}
	return nil
}
