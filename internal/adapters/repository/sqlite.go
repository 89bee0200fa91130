package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite" // registers the pure-Go "sqlite" driver

	"github.com/okian/vacancy/internal/domain/model"
)

const sqliteSchema = `
create table if not exists preferences
(
	candidate_id text    not null primary key,
	slots        text    not null,
	updated_at   integer not null
);

create table if not exists revisions
(
	version     integer not null primary key,
	id          text    not null,
	generation  integer not null,
	reason      text    not null,
	digest      text    not null,
	assignment  text    not null,
	computed_at text    not null
);
`

// SQLiteStore is a local durable cache. It stores preference lists and, as
// a publication sink, the history of committed revisions.
type SQLiteStore struct {
	db      *sql.DB
	path    string
	history int
}

// NewSQLiteStore opens (creating if needed) the database at path. Use
// ":memory:" for a throwaway database.
func NewSQLiteStore(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path: %w", ErrNotConfigured)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: path, history: 100}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return s, nil
}

// Name implements Store and the publication sink contract.
func (s *SQLiteStore) Name() string { return "sqlite" }

// SavePreferences implements Store.
func (s *SQLiteStore) SavePreferences(ctx context.Context, candidateID string, list model.PreferenceList) error {
	if list.Len() == 0 {
		if _, err := s.db.ExecContext(ctx, `delete from preferences where candidate_id = ?`, candidateID); err != nil {
			return fmt.Errorf("%w: delete %q: %w", ErrPersist, candidateID, err)
		}
		return nil
	}

	raw, err := json.Marshal([]string(list))
	if err != nil {
		return fmt.Errorf("%w: encode %q: %w", ErrPersist, candidateID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		insert into preferences (candidate_id, slots, updated_at) values (?, ?, ?)
		on conflict (candidate_id) do update set slots = excluded.slots, updated_at = excluded.updated_at`,
		candidateID, string(raw), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("%w: save %q: %w", ErrPersist, candidateID, err)
	}
	return nil
}

// ClearPreferences implements Store.
func (s *SQLiteStore) ClearPreferences(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `delete from preferences`); err != nil {
		return fmt.Errorf("%w: clear: %w", ErrPersist, err)
	}
	return nil
}

// LoadPreferences implements Store.
func (s *SQLiteStore) LoadPreferences(ctx context.Context) (map[string]model.PreferenceList, error) {
	rows, err := s.db.QueryContext(ctx, `select candidate_id, slots from preferences`)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	defer rows.Close()

	out := make(map[string]model.PreferenceList)
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan preferences: %w", err)
		}
		var slots []string
		if err := json.Unmarshal([]byte(raw), &slots); err != nil {
			return nil, fmt.Errorf("decode preferences of %q: %w", id, err)
		}
		if len(slots) > 0 {
			out[id] = slots
		}
	}
	return out, rows.Err()
}

// Publish records r in the revision history.
func (s *SQLiteStore) Publish(ctx context.Context, r model.Revision) error { //nolint:gocritic // hugeParam
	raw, err := json.Marshal(r.Assignment)
	if err != nil {
		return fmt.Errorf("encode revision %d: %w", r.Version, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin revision %d: %w", r.Version, err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		insert or replace into revisions (version, id, generation, reason, digest, assignment, computed_at)
		values (?, ?, ?, ?, ?, ?, ?)`,
		r.Version, r.ID, int64(r.Generation), r.Reason, r.Digest, string(raw), r.ComputedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store revision %d: %w", r.Version, err)
	}
	if s.history > 0 {
		if _, err := tx.ExecContext(ctx, `delete from revisions where version <= ?`, r.Version-int64(s.history)); err != nil {
			return fmt.Errorf("prune revisions: %w", err)
		}
	}
	return tx.Commit()
}

// LatestRevision returns the highest stored revision or ErrNotFound.
func (s *SQLiteStore) LatestRevision(ctx context.Context) (model.Revision, error) {
	row := s.db.QueryRowContext(ctx, `
		select version, id, generation, reason, digest, assignment, computed_at
		from revisions order by version desc limit 1`)

	var (
		r          model.Revision
		generation int64
		raw, at    string
	)
	if err := row.Scan(&r.Version, &r.ID, &generation, &r.Reason, &r.Digest, &raw, &at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Revision{}, ErrNotFound
		}
		return model.Revision{}, fmt.Errorf("read latest revision: %w", err)
	}
	r.Generation = uint64(generation) //nolint:gosec // written from a uint64
	if err := json.Unmarshal([]byte(raw), &r.Assignment); err != nil {
		return model.Revision{}, fmt.Errorf("decode revision %d: %w", r.Version, err)
	}
	computed, err := time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return model.Revision{}, fmt.Errorf("decode revision %d time: %w", r.Version, err)
	}
	r.ComputedAt = computed
	return r, nil
}

// HighestVersion returns the highest stored revision version, 0 when empty.
func (s *SQLiteStore) HighestVersion(ctx context.Context) (int64, error) {
	var v sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `select max(version) from revisions`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read highest revision: %w", err)
	}
	return v.Int64, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error { return s.db.Close() }
