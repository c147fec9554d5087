package store

import (
	"context"
	"strings"

	"github.com/Police-Data-Accessibility-Project/data-sources-app/plugin/pdap"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/store/cache"
)

// TypeaheadStore serves autocomplete suggestions for location and agency inputs.
type TypeaheadStore struct {
	client    *pdap.Client
	locations *cache.Cache[[]pdap.LocationSuggestion]
	agencies  *cache.Cache[[]pdap.AgencySuggestion]
}

// NewTypeaheadStore creates a typeahead store.
func NewTypeaheadStore(client *pdap.Client, options Options) *TypeaheadStore {
	return &TypeaheadStore{
		client:    client,
		locations: cache.New[[]pdap.LocationSuggestion](options.cacheConfig(LocationsStoreName, options.TypeaheadTTL)),
		agencies:  cache.New[[]pdap.AgencySuggestion](options.cacheConfig(AgenciesStoreName, options.TypeaheadTTL)),
	}
}

// normalizeQuery folds case and surrounding space so "Pitt " and "pitt" share an entry.
func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Locations returns location suggestions for query. A blank query returns
// nothing without calling the API.
func (s *TypeaheadStore) Locations(ctx context.Context, query string) ([]pdap.LocationSuggestion, error) {
	key := normalizeQuery(query)
	if key == "" {
		return nil, nil
	}
	return s.locations.Fetch(ctx, key, func(ctx context.Context) ([]pdap.LocationSuggestion, error) {
		return s.client.TypeaheadLocationSuggestions(ctx, key)
	})
}

// Agencies returns agency suggestions for query.
func (s *TypeaheadStore) Agencies(ctx context.Context, query string) ([]pdap.AgencySuggestion, error) {
	key := normalizeQuery(query)
	if key == "" {
		return nil, nil
	}
	return s.agencies.Fetch(ctx, key, func(ctx context.Context) ([]pdap.AgencySuggestion, error) {
		return s.client.TypeaheadAgencySuggestions(ctx, key)
	})
}

// ClearCache drops every cached suggestion list.
func (s *TypeaheadStore) ClearCache(ctx context.Context) {
	s.locations.Clear(ctx)
	s.agencies.Clear(ctx)
}
