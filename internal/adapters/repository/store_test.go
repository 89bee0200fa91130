package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/vacancy/internal/adapters/repository"
	"github.com/okian/vacancy/internal/domain/model"
	"github.com/okian/vacancy/internal/natsutil/natstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s repository.Store) {
	t.Helper()
	ctx := context.Background()

	loaded, err := s.LoadPreferences(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)

	require.NoError(t, s.SavePreferences(ctx, "ana", model.PreferenceList{"north", "south"}))
	require.NoError(t, s.SavePreferences(ctx, "bo.b/ü", model.PreferenceList{"south"}))
	require.NoError(t, s.SavePreferences(ctx, "ana", model.PreferenceList{"south"}))

	loaded, err = s.LoadPreferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]model.PreferenceList{
		"ana":    {"south"},
		"bo.b/ü": {"south"},
	}, loaded)

	// An empty list withdraws, including for a candidate never saved.
	require.NoError(t, s.SavePreferences(ctx, "ana", nil))
	require.NoError(t, s.SavePreferences(ctx, "ghost", model.PreferenceList{}))
	loaded, err = s.LoadPreferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]model.PreferenceList{"bo.b/ü": {"south"}}, loaded)

	require.NoError(t, s.ClearPreferences(ctx))
	loaded, err = s.LoadPreferences(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)

	require.NoError(t, s.ClearPreferences(ctx))
	assert.NotEmpty(t, s.Name())
}

func TestMemoryStore(t *testing.T) {
	s := repository.NewMemoryStore()
	exerciseStore(t, s)
	require.NoError(t, s.Close())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.SavePreferences(ctx, "a", model.PreferenceList{"x"}), context.Canceled)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := repository.NewMemoryStore()
	ctx := context.Background()
	list := model.PreferenceList{"x", "y"}
	require.NoError(t, s.SavePreferences(ctx, "a", list))
	list[0] = "z"

	loaded, err := s.LoadPreferences(ctx)
	require.NoError(t, err)
	loaded["a"][1] = "q"

	again, err := s.LoadPreferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.PreferenceList{"x", "y"}, again["a"])
}

func TestSQLiteStore(t *testing.T) {
	s, err := repository.NewSQLiteStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	exerciseStore(t, s)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vacancy.db")
	ctx := context.Background()

	s, err := repository.NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.SavePreferences(ctx, "ana", model.PreferenceList{"north"}))
	require.NoError(t, s.Close())

	s, err = repository.NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	loaded, err := s.LoadPreferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.PreferenceList{"north"}, loaded["ana"])
}

func TestSQLiteStore_Revisions(t *testing.T) {
	ctx := context.Background()
	s, err := repository.NewSQLiteStore(ctx, ":memory:", repository.WithRevisionHistory(2))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.LatestRevision(ctx)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
	v, err := s.HighestVersion(ctx)
	require.NoError(t, err)
	assert.Zero(t, v)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := int64(1); i <= 3; i++ {
		r := model.NewRevision(i, uint64(i*10), "preferences", model.Assignment{"ana": "north"}, at)
		require.NoError(t, s.Publish(ctx, r))
	}

	latest, err := s.LatestRevision(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), latest.Version)
	assert.Equal(t, uint64(30), latest.Generation)
	assert.Equal(t, model.Assignment{"ana": "north"}, latest.Assignment)
	assert.Equal(t, latest.Assignment.Digest(), latest.Digest)
	assert.True(t, at.Equal(latest.ComputedAt))

	v, err = s.HighestVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
}

func TestSQLiteStore_RequiresPath(t *testing.T) {
	_, err := repository.NewSQLiteStore(context.Background(), "")
	assert.ErrorIs(t, err, repository.ErrNotConfigured)
}

func TestKVStore(t *testing.T) {
	_, _, js := natstest.Start(t)
	s, err := repository.NewKVStore(context.Background(), js, "prefs", repository.WithKVTimeout(2*time.Second))
	require.NoError(t, err)
	exerciseStore(t, s)
	require.NoError(t, s.Close())
}

func TestKVStore_SharedBucket(t *testing.T) {
	_, _, js := natstest.Start(t)
	ctx := context.Background()

	a, err := repository.NewKVStore(ctx, js, "prefs")
	require.NoError(t, err)
	require.NoError(t, a.SavePreferences(ctx, "ana", model.PreferenceList{"north"}))

	b, err := repository.NewKVStore(ctx, js, "prefs")
	require.NoError(t, err)
	loaded, err := b.LoadPreferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.PreferenceList{"north"}, loaded["ana"])
}

func TestKVStore_RequiresBucket(t *testing.T) {
	_, err := repository.NewKVStore(context.Background(), nil, "")
	assert.ErrorIs(t, err, repository.ErrNotConfigured)
}
