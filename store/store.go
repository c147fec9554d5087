package store

import (
	"time"

	"github.com/Police-Data-Accessibility-Project/data-sources-app/internal/profile"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/plugin/pdap"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/store/cache"
)

// Store names prefix the session storage keys of their caches.
const (
	SearchStoreName       = "search"
	DataSourceStoreName   = "dataSource"
	DataRequestsStoreName = "dataRequests"
	DataRequestStoreName  = "dataRequest"
	LocationsStoreName    = "typeahead:locations"
	AgenciesStoreName     = "typeahead:agencies"
)

// Options configures the caching stores.
type Options struct {
	SearchTTL       time.Duration
	DataSourceTTL   time.Duration
	DataRequestsTTL time.Duration
	TypeaheadTTL    time.Duration
	Dedupe          bool
	FetchTimeout    time.Duration  // bound on a collapsed fetch
	Session         Driver         // optional persistence for caches
	Metrics         cache.Recorder // optional
	Now             func() time.Time
}

// OptionsFromProfile maps profile settings onto store options.
func OptionsFromProfile(profile *profile.Profile, session Driver) Options {
	return Options{
		SearchTTL:       profile.SearchTTL,
		DataSourceTTL:   profile.DataSourceTTL,
		DataRequestsTTL: profile.DataRequestsTTL,
		TypeaheadTTL:    profile.TypeaheadTTL,
		Dedupe:          profile.DedupeInFlight,
		FetchTimeout:    profile.HTTPTimeout,
		Session:         session,
	}
}

func (o Options) cacheConfig(name string, ttl time.Duration) cache.Config {
	return cache.Config{
		Name:         name,
		TTL:          ttl,
		Storage:      o.Session,
		Dedupe:       o.Dedupe,
		Now:          o.Now,
		Metrics:      o.Metrics,
		FetchTimeout: o.FetchTimeout,
	}
}

// Store groups the per-resource stores. Each owns its cache exclusively.
type Store struct {
	Search       *SearchStore
	DataSource   *DataSourceStore
	DataRequests *DataRequestsStore
	Typeahead    *TypeaheadStore
}

// New creates the stores. client must carry the user's token source for
// Bearer-authenticated actions.
func New(client *pdap.Client, options Options) *Store {
	return &Store{
		Search:       NewSearchStore(client, options),
		DataSource:   NewDataSourceStore(client, options),
		DataRequests: NewDataRequestsStore(client, options),
		Typeahead:    NewTypeaheadStore(client, options),
	}
}

// Stats returns the number of entries, fresh or stale, each cache holds in memory.
func (s *Store) Stats() map[string]int {
	return map[string]int{
		SearchStoreName:       s.Search.cache.Len(),
		DataSourceStoreName:   s.DataSource.cache.Len(),
		DataRequestsStoreName: s.DataRequests.list.Len(),
		DataRequestStoreName:  s.DataRequests.byID.Len(),
		LocationsStoreName:    s.Typeahead.locations.Len(),
		AgenciesStoreName:     s.Typeahead.agencies.Len(),
	}
}
