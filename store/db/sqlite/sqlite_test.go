package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Police-Data-Accessibility-Project/data-sources-app/internal/profile"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/store"
)

func newTestDB(t *testing.T, dsn string) *DB {
	t.Helper()
	db, err := NewDB(&profile.Profile{Mode: "dev", LocalDSN: dsn})
	require.NoError(t, err)
	return db
}

func TestDB_ItemLifecycle(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, filepath.Join(t.TempDir(), "local.db"))
	defer db.Close()

	_, err := db.GetItem(ctx, "auth")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, db.SetItem(ctx, "auth", []byte(`{"v":1}`)))
	require.NoError(t, db.SetItem(ctx, "auth", []byte(`{"v":2}`)))

	got, err := db.GetItem(ctx, "auth")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(got))

	require.NoError(t, db.RemoveItem(ctx, "auth"))
	_, err = db.GetItem(ctx, "auth")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDB_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "local.db")

	db := newTestDB(t, dsn)
	require.NoError(t, db.SetItem(ctx, "auth", []byte("persisted")))
	require.NoError(t, db.Close())

	reopened := newTestDB(t, dsn)
	defer reopened.Close()
	got, err := reopened.GetItem(ctx, "auth")
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(got))
}

func TestNewDB_RequiresDSN(t *testing.T) {
	_, err := NewDB(&profile.Profile{})
	assert.Error(t, err)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?, ?, ?", placeholders(3))
}
