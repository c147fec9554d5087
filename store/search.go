package store

import (
	"context"

	"github.com/Police-Data-Accessibility-Project/data-sources-app/plugin/pdap"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/store/cache"
)

// SearchStore runs location/record-type searches and manages followed searches.
type SearchStore struct {
	client *pdap.Client
	cache  *cache.Cache[*pdap.SearchResponse]
}

// NewSearchStore creates a search store.
func NewSearchStore(client *pdap.Client, options Options) *SearchStore {
	return &SearchStore{
		client: client,
		cache:  cache.New[*pdap.SearchResponse](options.cacheConfig(SearchStoreName, options.SearchTTL)),
	}
}

// Search returns results for params, served from cache while fresh.
func (s *SearchStore) Search(ctx context.Context, params pdap.SearchParams) (*pdap.SearchResponse, error) {
	key := cache.QueryKey(pdap.SearchQuery(params))
	return s.cache.Fetch(ctx, key, func(ctx context.Context) (*pdap.SearchResponse, error) {
		return s.client.Search(ctx, params)
	})
}

// FollowSearch follows a location for the signed-in user.
func (s *SearchStore) FollowSearch(ctx context.Context, locationID int) error {
	return s.client.FollowSearch(ctx, locationID)
}

// UnfollowSearch stops following a location.
func (s *SearchStore) UnfollowSearch(ctx context.Context, locationID int) error {
	return s.client.UnfollowSearch(ctx, locationID)
}

// FollowedSearches lists followed locations. Always fetched fresh: the list
// belongs to the user, not to the shared search cache.
func (s *SearchStore) FollowedSearches(ctx context.Context) ([]pdap.FollowedSearch, error) {
	return s.client.ListFollowedSearches(ctx)
}

// ClearCache drops every cached search.
func (s *SearchStore) ClearCache(ctx context.Context) {
	s.cache.Clear(ctx)
}
