package store

import (
	"context"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/Police-Data-Accessibility-Project/data-sources-app/plugin/pdap"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/store/cache"
)

// prefetchLimit bounds concurrent requests issued by Prefetch.
const prefetchLimit = 4

// DataSourceStore reads and submits individual data sources.
type DataSourceStore struct {
	client *pdap.Client
	cache  *cache.Cache[*pdap.DataSource]
}

// NewDataSourceStore creates a data-source store.
func NewDataSourceStore(client *pdap.Client, options Options) *DataSourceStore {
	return &DataSourceStore{
		client: client,
		cache:  cache.New[*pdap.DataSource](options.cacheConfig(DataSourceStoreName, options.DataSourceTTL)),
	}
}

// GetDataSource returns the data source with id, served from cache while fresh.
func (s *DataSourceStore) GetDataSource(ctx context.Context, id int) (*pdap.DataSource, error) {
	return s.cache.Fetch(ctx, strconv.Itoa(id), func(ctx context.Context) (*pdap.DataSource, error) {
		return s.client.GetDataSource(ctx, id)
	})
}

// Prefetch warms the cache for ids, e.g. the neighbours of the record on
// screen. The first error cancels the remaining fetches and is returned.
func (s *DataSourceStore) Prefetch(ctx context.Context, ids []int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(prefetchLimit)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			_, err := s.GetDataSource(ctx, id)
			return err
		})
	}
	return g.Wait()
}

// CreateDataSource submits a new data source and clears the cache.
func (s *DataSourceStore) CreateDataSource(ctx context.Context, create *pdap.CreateDataSource) (*pdap.CreateResponse, error) {
	resp, err := s.client.CreateDataSource(ctx, create)
	if err != nil {
		return nil, err
	}
	s.cache.Clear(ctx)
	return resp, nil
}

// CheckUniqueURL reports whether rawURL is already registered. Not cached:
// the answer changes as soon as someone submits the URL.
func (s *DataSourceStore) CheckUniqueURL(ctx context.Context, rawURL string) (*pdap.UniqueURLResponse, error) {
	return s.client.CheckUniqueURL(ctx, rawURL)
}

// ClearCache drops every cached data source.
func (s *DataSourceStore) ClearCache(ctx context.Context) {
	s.cache.Clear(ctx)
}
