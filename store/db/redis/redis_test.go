package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Police-Data-Accessibility-Project/data-sources-app/internal/profile"
)

func TestFullKey(t *testing.T) {
	db := &DB{keyPrefix: "pdap:"}
	assert.Equal(t, "pdap:search", db.fullKey("search"))

	db = &DB{}
	assert.Equal(t, "search", db.fullKey("search"))
}

func TestNewDB_Unreachable(t *testing.T) {
	// Port 1 is reserved and refuses connections immediately.
	_, err := NewDB(&profile.Profile{RedisAddr: "127.0.0.1:1"})
	assert.Error(t, err)
}
