package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Driver.GetItem when no value is stored under the key.
var ErrNotFound = errors.New("store: item not found")

// Driver is a key/value storage area, the process-side equivalent of the
// browser's sessionStorage and localStorage. Values are opaque bytes,
// normally the JSON state of one named store.
type Driver interface {
	GetItem(ctx context.Context, key string) ([]byte, error)
	SetItem(ctx context.Context, key string, value []byte) error
	RemoveItem(ctx context.Context, key string) error
	Close() error
}
