package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/cortracker/internal/database"
	"github.com/jask/cortracker/internal/database/repository"
)

func newRepo(t *testing.T) *repository.KVRepo {
	t.Helper()
	db, err := database.OpenMigrated(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repository.NewKVRepo(db)
}

func TestKVRepoRoundTrip(t *testing.T) {
	t.Parallel()

	repo := newRepo(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, ok, err := repo.Get(ctx, "cor-tracker-rows-v1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, repo.Put(ctx, "cor-tracker-rows-v1", []byte(`[{"id":"a"}]`)))
	got, ok, err := repo.Get(ctx, "cor-tracker-rows-v1")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `[{"id":"a"}]`, string(got))

	require.NoError(t, repo.Put(ctx, "cor-tracker-rows-v1", []byte(`[]`)))
	got, _, err = repo.Get(ctx, "cor-tracker-rows-v1")
	require.NoError(t, err)
	require.Equal(t, `[]`, string(got))

	e, err := repo.Entry(ctx, "cor-tracker-rows-v1")
	require.NoError(t, err)
	require.NotNil(t, e)
	require.False(t, e.UpdatedAt.IsZero())
}

func TestKVRepoDelete(t *testing.T) {
	t.Parallel()

	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "b", []byte("2")))
	require.NoError(t, repo.Put(ctx, "a", []byte("1")))
	require.NoError(t, repo.Delete(ctx, "a"))
	require.NoError(t, repo.Delete(ctx, "missing"))
	_, ok, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	require.False(t, ok)
	v, ok, err := repo.Get(ctx, "b")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("2"), v)
}

func TestKVRepoPutHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	repo := newRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, repo.Put(ctx, "k", []byte("v")))

	_, ok, err := repo.Get(context.Background(), "k")
	require.NoError(t, err)
	require.False(t, ok)
}
