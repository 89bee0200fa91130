package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/okian/vacancy/internal/domain/model"
	"github.com/okian/vacancy/internal/natsutil"
	"github.com/okian/vacancy/pkg/logger"
)

const latestKey = "latest"

// KVSink stores the latest revision as JSON under "<prefix>.latest" in a NATS
// KeyValue bucket. Versions written are strictly increasing across restarts.
type KVSink struct {
	kv        jetstream.KeyValue
	prefix    string
	keyPrefix string
	timeout   time.Duration

	mu             sync.Mutex
	currentVersion int64

	logger logger.Logger
}

// NewKVSink creates or opens bucket and discovers the highest version
// already published under prefix.
func NewKVSink(ctx context.Context, js jetstream.JetStream, bucket, prefix string, l logger.Logger) (*KVSink, error) {
	if js == nil || bucket == "" {
		return nil, errors.New("kv sink: bucket not configured")
	}
	if prefix == "" {
		prefix = "assignment"
	}
	if l == nil {
		l = logger.Get().Named("kv-sink")
	}

	kv, err := natsutil.EnsureBucket(ctx, js, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "published assignments",
		History:     5,
	}, 0)
	if err != nil {
		return nil, err
	}

	s := &KVSink{
		kv:        kv,
		prefix:    prefix,
		keyPrefix: prefix + ".",
		timeout:   5 * time.Second,
		logger:    l,
	}
	if err := s.DiscoverHighestVersion(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Name implements Sink.
func (s *KVSink) Name() string { return "nats" }

// Key returns the key holding the latest revision.
func (s *KVSink) Key() string { return s.keyPrefix + latestKey }

// DiscoverHighestVersion scans the bucket for the highest published version.
func (s *KVSink) DiscoverHighestVersion(ctx context.Context) error {
	keys, err := natsutil.Keys(ctx, s.kv)
	if err != nil {
		return err
	}

	highest := int64(0)
	for _, key := range keys {
		if !strings.HasPrefix(key, s.keyPrefix) {
			continue
		}
		entry, err := s.kv.Get(ctx, key)
		if err != nil {
			s.logger.Debug(ctx, "failed to read assignment key", logger.String("key", key), logger.Error(err))
			continue
		}
		var r model.Revision
		if err := json.Unmarshal(entry.Value(), &r); err != nil {
			s.logger.Debug(ctx, "failed to decode assignment", logger.String("key", key), logger.Error(err))
			continue
		}
		highest = max(highest, r.Version)
	}

	s.mu.Lock()
	s.currentVersion = highest
	s.mu.Unlock()

	if highest > 0 {
		s.logger.Info(ctx, "discovered published assignment", logger.Int64("highest_version", highest))
	}
	return nil
}

// HighestVersion implements Versioned.
func (s *KVSink) HighestVersion(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentVersion, nil
}

// Publish implements Sink. A revision not newer than the last one written is
// ignored.
func (s *KVSink) Publish(ctx context.Context, r model.Revision) error { //nolint:gocritic // hugeParam
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Version <= s.currentVersion {
		return nil
	}

	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode revision %d: %w", r.Version, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.kv.Put(ctx, s.Key(), raw); err != nil {
		return fmt.Errorf("put revision %d: %w", r.Version, err)
	}
	s.currentVersion = r.Version
	return nil
}

// Latest reads the revision currently stored.
func (s *KVSink) Latest(ctx context.Context) (model.Revision, error) {
	entry, err := s.kv.Get(ctx, s.Key())
	if err != nil {
		return model.Revision{}, fmt.Errorf("get %s: %w", s.Key(), err)
	}
	var r model.Revision
	if err := json.Unmarshal(entry.Value(), &r); err != nil {
		return model.Revision{}, fmt.Errorf("decode %s: %w", s.Key(), err)
	}
	return r, nil
}
