package store

import (
	"context"
	"strconv"

	"github.com/Police-Data-Accessibility-Project/data-sources-app/plugin/pdap"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/store/cache"
)

// DataRequestsStore lists, reads and submits data requests.
type DataRequestsStore struct {
	client *pdap.Client
	list   *cache.Cache[*pdap.DataRequestList]
	byID   *cache.Cache[*pdap.DataRequest]
}

// NewDataRequestsStore creates a data-requests store.
func NewDataRequestsStore(client *pdap.Client, options Options) *DataRequestsStore {
	return &DataRequestsStore{
		client: client,
		list:   cache.New[*pdap.DataRequestList](options.cacheConfig(DataRequestsStoreName, options.DataRequestsTTL)),
		byID:   cache.New[*pdap.DataRequest](options.cacheConfig(DataRequestStoreName, options.DataRequestsTTL)),
	}
}

// GetDataRequests returns a page of data requests keyed by its query parameters.
func (s *DataRequestsStore) GetDataRequests(ctx context.Context, params pdap.ListDataRequestsParams) (*pdap.DataRequestList, error) {
	key := cache.QueryKey(pdap.DataRequestsQuery(params))
	return s.list.Fetch(ctx, key, func(ctx context.Context) (*pdap.DataRequestList, error) {
		return s.client.ListDataRequests(ctx, params)
	})
}

// GetDataRequest returns one data request by id.
func (s *DataRequestsStore) GetDataRequest(ctx context.Context, id int) (*pdap.DataRequest, error) {
	return s.byID.Fetch(ctx, strconv.Itoa(id), func(ctx context.Context) (*pdap.DataRequest, error) {
		return s.client.GetDataRequest(ctx, id)
	})
}

// CreateDataRequest submits a request as the signed-in user. On success
// both caches are cleared so the new request shows up in lists.
func (s *DataRequestsStore) CreateDataRequest(ctx context.Context, create *pdap.CreateDataRequest) (*pdap.CreateResponse, error) {
	resp, err := s.client.CreateDataRequest(ctx, create)
	if err != nil {
		return nil, err
	}
	s.ClearCache(ctx)
	return resp, nil
}

// ClearCache drops every cached list and request.
func (s *DataRequestsStore) ClearCache(ctx context.Context) {
	s.list.Clear(ctx)
	s.byID.Clear(ctx)
}
