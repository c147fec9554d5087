package pdap

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
)

// TypeaheadKind selects the typeahead endpoint.
type TypeaheadKind string

const (
	TypeaheadLocations TypeaheadKind = "locations"
	TypeaheadAgencies  TypeaheadKind = "agencies"
)

// SearchQuery encodes search parameters the way the API expects them.
func SearchQuery(params SearchParams) url.Values {
	query := url.Values{}
	query.Set("location_id", strconv.Itoa(params.LocationID))
	for _, category := range params.RecordCategories {
		query.Add("record_categories", category)
	}
	return query
}

// Search returns data sources for a location, bucketed by locale.
func (c *Client) Search(ctx context.Context, params SearchParams) (*SearchResponse, error) {
	if params.LocationID <= 0 {
		return nil, errors.New("location id is required")
	}
	var resp SearchResponse
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/search/search-location-and-record-type",
		query:  SearchQuery(params),
		scheme: AuthBasic,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// FollowSearch follows a location for the signed-in user.
func (c *Client) FollowSearch(ctx context.Context, locationID int) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/search/follow",
		query:  url.Values{"location_id": {strconv.Itoa(locationID)}},
		scheme: AuthBearer,
	}, nil)
}

// UnfollowSearch stops following a location.
func (c *Client) UnfollowSearch(ctx context.Context, locationID int) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/search/follow",
		query:  url.Values{"location_id": {strconv.Itoa(locationID)}},
		scheme: AuthBearer,
	}, nil)
}

// ListFollowedSearches returns the locations the signed-in user follows.
func (c *Client) ListFollowedSearches(ctx context.Context) ([]FollowedSearch, error) {
	var resp struct {
		Data []FollowedSearch `json:"data"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/search/follow",
		scheme: AuthBearer,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetDataSource returns one data source by id.
func (c *Client) GetDataSource(ctx context.Context, id int) (*DataSource, error) {
	var resp struct {
		Data *DataSource `json:"data"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/data-sources/" + strconv.Itoa(id),
		scheme: AuthBasic,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, errors.Errorf("data source %d: response has no data", id)
	}
	return resp.Data, nil
}

// CreateDataSource submits a new data source.
func (c *Client) CreateDataSource(ctx context.Context, create *CreateDataSource) (*CreateResponse, error) {
	var resp CreateResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/data-sources",
		scheme: AuthBearer,
		body:   create,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CheckUniqueURL reports data sources already registered for rawURL.
func (c *Client) CheckUniqueURL(ctx context.Context, rawURL string) (*UniqueURLResponse, error) {
	var resp UniqueURLResponse
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/check/unique-url",
		query:  url.Values{"url": {rawURL}},
		scheme: AuthBasic,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DataRequestsQuery encodes list parameters the way the API expects them.
func DataRequestsQuery(params ListDataRequestsParams) url.Values {
	query := url.Values{}
	if params.Page > 0 {
		query.Set("page", strconv.Itoa(params.Page))
	}
	if params.SortBy != "" {
		query.Set("sort_by", params.SortBy)
	}
	if params.SortOrder != "" {
		query.Set("sort_order", params.SortOrder)
	}
	for _, status := range params.RequestStatuses {
		query.Add("request_statuses", status)
	}
	if params.LocationID > 0 {
		query.Set("location_id", strconv.Itoa(params.LocationID))
	}
	return query
}

// ListDataRequests returns a page of data requests.
func (c *Client) ListDataRequests(ctx context.Context, params ListDataRequestsParams) (*DataRequestList, error) {
	var resp DataRequestList
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/data-requests",
		query:  DataRequestsQuery(params),
		scheme: AuthBasic,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetDataRequest returns one data request by id.
func (c *Client) GetDataRequest(ctx context.Context, id int) (*DataRequest, error) {
	var resp struct {
		Data *DataRequest `json:"data"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/data-requests/" + strconv.Itoa(id),
		scheme: AuthBasic,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, errors.Errorf("data request %d: response has no data", id)
	}
	return resp.Data, nil
}

// CreateDataRequest submits a new data request as the signed-in user.
func (c *Client) CreateDataRequest(ctx context.Context, create *CreateDataRequest) (*CreateResponse, error) {
	var resp CreateResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/data-requests",
		scheme: AuthBearer,
		body:   create,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// TypeaheadLocationSuggestions returns location suggestions for query.
func (c *Client) TypeaheadLocationSuggestions(ctx context.Context, query string) ([]LocationSuggestion, error) {
	var resp struct {
		Suggestions []LocationSuggestion `json:"suggestions"`
	}
	if err := c.typeahead(ctx, TypeaheadLocations, query, &resp); err != nil {
		return nil, err
	}
	return resp.Suggestions, nil
}

// TypeaheadAgencySuggestions returns agency suggestions for query.
func (c *Client) TypeaheadAgencySuggestions(ctx context.Context, query string) ([]AgencySuggestion, error) {
	var resp struct {
		Suggestions []AgencySuggestion `json:"suggestions"`
	}
	if err := c.typeahead(ctx, TypeaheadAgencies, query, &resp); err != nil {
		return nil, err
	}
	return resp.Suggestions, nil
}

func (c *Client) typeahead(ctx context.Context, kind TypeaheadKind, query string, target any) error {
	return c.do(ctx, request{
		method: http.MethodGet,
		path:   "/typeahead/" + string(kind),
		query:  url.Values{"query": {query}},
		scheme: AuthBasic,
	}, target)
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	return c.tokenRequest(ctx, "/auth/login", AuthNone, creds)
}

// Signup registers a new account and returns its token pair.
func (c *Client) Signup(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	return c.tokenRequest(ctx, "/auth/signup", AuthNone, creds)
}

// RefreshSession exchanges the refresh token for a new token pair.
func (c *Client) RefreshSession(ctx context.Context) (*LoginResponse, error) {
	return c.tokenRequest(ctx, "/auth/refresh-session", AuthRefresh, nil)
}

func (c *Client) tokenRequest(ctx context.Context, path string, scheme Scheme, body any) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   path,
		scheme: scheme,
		body:   body,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
