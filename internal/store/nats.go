package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	"notifyd/internal/config"
	"notifyd/internal/domain"
)

// NATSStore persists deferred work in a JetStream KV bucket so pending
// retries survive a process restart.
// Params: NATS connection, JetStream context, and KV bucket handle.
// Returns: KV-backed deferred-work store implementation.
type NATSStore struct {
	nc *nats.Conn
	js nats.JetStreamContext
	kv nats.KeyValue
}

// NewNATSStore connects and opens (or creates) the work bucket.
// Params: NATS/JetStream settings from config.
// Returns: initialized NATS store or setup error.
func NewNATSStore(settings config.NATSWorkConfig) (*NATSStore, error) {
	nc, err := nats.Connect(strings.Join(settings.URL, ","))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	kv, err := js.KeyValue(settings.Bucket)
	if err != nil {
		if !settings.AllowCreateBucket {
			nc.Close()
			return nil, fmt.Errorf("open work bucket %q: %w", settings.Bucket, err)
		}
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket: settings.Bucket,
		})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("create work bucket %q: %w", settings.Bucket, err)
		}
	}

	return &NATSStore{nc: nc, js: js, kv: kv}, nil
}

// Put stores one deferred-work entry under its stable key.
// Params: work entry carrying its own key.
// Returns: encode or KV put error.
func (s *NATSStore) Put(_ context.Context, work domain.DeferredWork) error {
	body, err := work.Encode()
	if err != nil {
		return err
	}
	if _, err := s.kv.Put(work.Key(), body); err != nil {
		return fmt.Errorf("put work %q: %w", work.Key(), err)
	}
	return nil
}

// Get reads one deferred-work entry.
// Params: stable work key.
// Returns: entry, ErrNotFound on absent key, or decode error.
func (s *NATSStore) Get(_ context.Context, key string) (domain.DeferredWork, error) {
	entry, err := s.kv.Get(key)
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return domain.DeferredWork{}, ErrNotFound
		}
		return domain.DeferredWork{}, fmt.Errorf("get work %q: %w", key, err)
	}
	return domain.DecodeDeferredWork(entry.Value())
}

// Delete removes one deferred-work entry.
// Params: stable work key.
// Returns: KV delete error; absent keys are not an error.
func (s *NATSStore) Delete(_ context.Context, key string) error {
	if err := s.kv.Delete(key); err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("delete work %q: %w", key, err)
	}
	return nil
}

// List returns all pending deferred-work entries.
// Params: none.
// Returns: decoded entries; undecodable values are skipped so one
// corrupt record cannot block restart recovery.
func (s *NATSStore) List(_ context.Context) ([]domain.DeferredWork, error) {
	keys, err := s.kv.Keys()
	if err != nil {
		if errors.Is(err, nats.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list work keys: %w", err)
	}

	all := make([]domain.DeferredWork, 0, len(keys))
	for _, key := range keys {
		entry, err := s.kv.Get(key)
		if err != nil {
			if errors.Is(err, nats.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("get work %q: %w", key, err)
		}
		work, err := domain.DecodeDeferredWork(entry.Value())
		if err != nil {
			continue
		}
		all = append(all, work)
	}
	return all, nil
}

// Close drains the NATS connection.
// Params: none.
// Returns: nil.
func (s *NATSStore) Close() error {
	s.nc.Close()
	return nil
}
