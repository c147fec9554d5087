package sqlite

import (
	"strings"
)

const schema = `CREATE TABLE IF NOT EXISTS storage_item (
	key TEXT NOT NULL PRIMARY KEY,
	value BLOB NOT NULL,
	updated_ts BIGINT NOT NULL
);`

// placeholder returns a placeholder for SQLite (uses ?)
func placeholder(n int) string {
	return "?"
}

// placeholders returns n placeholders for SQLite
func placeholders(n int) string {
	list := []string{}
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}
