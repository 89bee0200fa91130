package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/okian/vacancy/internal/domain/model"
	"github.com/okian/vacancy/internal/natsutil"
)

const defaultKVTimeout = 5 * time.Second

// KVStore keeps preference lists in a NATS JetStream KeyValue bucket, one key
// per candidate. Candidate ids are base64url encoded to satisfy the NATS key
// alphabet.
type KVStore struct {
	kv       jetstream.KeyValue
	timeout  time.Duration
	replicas int
}

// NewKVStore creates or opens bucket on js.
func NewKVStore(ctx context.Context, js jetstream.JetStream, bucket string, opts ...KVOption) (*KVStore, error) {
	if js == nil || bucket == "" {
		return nil, fmt.Errorf("kv store: %w", ErrNotConfigured)
	}
	s := &KVStore{timeout: defaultKVTimeout, replicas: 1}
	for _, opt := range opts {
		opt(s)
	}

	kv, err := natsutil.EnsureBucket(ctx, js, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "candidate preference lists",
		History:     1,
		Replicas:    s.replicas,
	}, 0)
	if err != nil {
		return nil, err
	}
	s.kv = kv
	return s, nil
}

// Name implements Store.
func (s *KVStore) Name() string { return "nats" }

func encodeKey(candidateID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(candidateID))
}

func decodeKey(key string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(key)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// SavePreferences implements Store.
func (s *KVStore) SavePreferences(ctx context.Context, candidateID string, list model.PreferenceList) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	key := encodeKey(candidateID)
	if list.Len() == 0 {
		if err := s.kv.Delete(ctx, key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
			return fmt.Errorf("%w: delete %q: %w", ErrPersist, candidateID, err)
		}
		return nil
	}

	raw, err := json.Marshal([]string(list))
	if err != nil {
		return fmt.Errorf("%w: encode %q: %w", ErrPersist, candidateID, err)
	}
	if _, err := s.kv.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("%w: put %q: %w", ErrPersist, candidateID, err)
	}
	return nil
}

// ClearPreferences implements Store.
func (s *KVStore) ClearPreferences(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	keys, err := natsutil.Keys(ctx, s.kv)
	if err != nil {
		return fmt.Errorf("%w: clear: %w", ErrPersist, err)
	}
	for _, key := range keys {
		if err := s.kv.Purge(ctx, key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
			return fmt.Errorf("%w: purge %s: %w", ErrPersist, key, err)
		}
	}
	return nil
}

// LoadPreferences implements Store. Entries that cannot be decoded are
// skipped.
func (s *KVStore) LoadPreferences(ctx context.Context) (map[string]model.PreferenceList, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	keys, err := natsutil.Keys(ctx, s.kv)
	if err != nil {
		return nil, err
	}

	out := make(map[string]model.PreferenceList, len(keys))
	for _, key := range keys {
		id, err := decodeKey(key)
		if err != nil {
			continue
		}
		entry, err := s.kv.Get(ctx, key)
		if err != nil {
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("get %q: %w", id, err)
		}
		var slots []string
		if err := json.Unmarshal(entry.Value(), &slots); err != nil {
			continue
		}
		if len(slots) > 0 {
			out[id] = slots
		}
	}
	return out, nil
}

// Close implements Store. The NATS connection is owned by the caller.
func (s *KVStore) Close() error { return nil }
