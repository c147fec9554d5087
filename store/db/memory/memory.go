package memory

import (
	"context"
	"sync"

	"github.com/Police-Data-Accessibility-Project/data-sources-app/store"
)

// DB is an in-process storage area. It lives as long as the process, which
// makes it the session storage of a single client.
type DB struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewDB creates an empty in-memory storage area.
func NewDB() *DB {
	return &DB{items: make(map[string][]byte)}
}

func (d *DB) GetItem(_ context.Context, key string) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	value, ok := d.items[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (d *DB) SetItem(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	d.mu.Lock()
	d.items[key] = stored
	d.mu.Unlock()
	return nil
}

func (d *DB) RemoveItem(_ context.Context, key string) error {
	d.mu.Lock()
	delete(d.items, key)
	d.mu.Unlock()
	return nil
}

func (d *DB) Close() error {
	return nil
}

var _ store.Driver = (*DB)(nil)
