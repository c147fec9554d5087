package db

import (
	"github.com/pkg/errors"

	"github.com/Police-Data-Accessibility-Project/data-sources-app/internal/profile"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/store"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/store/db/memory"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/store/db/redis"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/store/db/sqlite"
)

// ============================================================================
// STORAGE AREAS
// ============================================================================
// The client keeps two storage areas, mirroring the browser it replaces:
//
// local:   survives restarts. Holds the token pair. sqlite (default) or memory.
// session: lives with the process. Holds response caches and user identity.
//          memory (default) or redis when several processes share a session.
// ============================================================================

// NewLocalDriver creates the local storage driver based on profile.
func NewLocalDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.LocalDriver {
	case "sqlite":
		driver, err := sqlite.NewDB(profile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create local storage driver")
		}
		return driver, nil
	case "memory":
		return memory.NewDB(), nil
	default:
		return nil, errors.Errorf("unknown local storage driver: %s", profile.LocalDriver)
	}
}

// NewSessionDriver creates the session storage driver based on profile.
func NewSessionDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.SessionDriver {
	case "memory":
		return memory.NewDB(), nil
	case "redis":
		driver, err := redis.NewDB(profile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create session storage driver")
		}
		return driver, nil
	default:
		return nil, errors.Errorf("unknown session storage driver: %s", profile.SessionDriver)
	}
}
