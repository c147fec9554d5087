package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	// Pure Go SQLite driver, registers as "sqlite".
	_ "modernc.org/sqlite"

	"github.com/Police-Data-Accessibility-Project/data-sources-app/internal/profile"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/store"
)

// DB is a file-backed storage area that survives restarts. It plays the
// role of the browser's localStorage.
type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the SQLite database at profile.LocalDSN and ensures the schema exists.
func NewDB(profile *profile.Profile) (*DB, error) {
	if profile.LocalDSN == "" {
		return nil, errors.New("dsn required")
	}

	// WAL keeps readers from blocking the single writer.
	sqliteDB, err := sql.Open("sqlite", profile.LocalDSN+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.LocalDSN)
	}
	sqliteDB.SetMaxOpenConns(1)

	driver := &DB{db: sqliteDB, profile: profile}
	if err := driver.migrate(context.Background()); err != nil {
		sqliteDB.Close()
		return nil, err
	}
	return driver, nil
}

func (d *DB) migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to migrate storage schema")
	}
	return nil
}

func (d *DB) GetItem(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := d.db.QueryRowContext(ctx, "SELECT `value` FROM `storage_item` WHERE `key` = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read item %s", key)
	}
	return value, nil
}

func (d *DB) SetItem(ctx context.Context, key string, value []byte) error {
	stmt := "INSERT INTO `storage_item` (`key`, `value`, `updated_ts`) VALUES (" + placeholders(3) + ") " +
		"ON CONFLICT(`key`) DO UPDATE SET `value` = excluded.`value`, `updated_ts` = excluded.`updated_ts`"
	if _, err := d.db.ExecContext(ctx, stmt, key, value, time.Now().Unix()); err != nil {
		return errors.Wrapf(err, "failed to write item %s", key)
	}
	return nil
}

func (d *DB) RemoveItem(ctx context.Context, key string) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM `storage_item` WHERE `key` = ?", key); err != nil {
		return errors.Wrapf(err, "failed to remove item %s", key)
	}
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

var _ store.Driver = (*DB)(nil)
