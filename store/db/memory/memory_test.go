package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Police-Data-Accessibility-Project/data-sources-app/store"
)

func TestDB_ItemLifecycle(t *testing.T) {
	ctx := context.Background()
	db := NewDB()

	_, err := db.GetItem(ctx, "auth")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, db.SetItem(ctx, "auth", []byte(`{"a":1}`)))
	got, err := db.GetItem(ctx, "auth")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), got)

	// Returned slices are copies.
	got[0] = 'X'
	again, err := db.GetItem(ctx, "auth")
	require.NoError(t, err)
	assert.Equal(t, byte('{'), again[0])

	require.NoError(t, db.RemoveItem(ctx, "auth"))
	_, err = db.GetItem(ctx, "auth")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, db.Close())
}
