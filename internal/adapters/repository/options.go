package repository

import "time"

// KVOption applies a configuration option to the KVStore.
type KVOption func(*KVStore)

// WithKVTimeout bounds each KV operation.
func WithKVTimeout(d time.Duration) KVOption {
	return func(s *KVStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithKVReplicas sets the bucket replica count used when the bucket is created.
func WithKVReplicas(n int) KVOption {
	return func(s *KVStore) {
		if n > 0 {
			s.replicas = n
		}
	}
}

// SQLiteOption applies a configuration option to the SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithRevisionHistory keeps at most n published revisions. Zero keeps all.
func WithRevisionHistory(n int) SQLiteOption {
	return func(s *SQLiteStore) {
		if n >= 0 {
			s.history = n
		}
	}
}
