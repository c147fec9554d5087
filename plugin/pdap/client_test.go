package pdap

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	access, refresh string
}

func (s staticTokens) AccessToken() string  { return s.access }
func (s staticTokens) RefreshToken() string { return s.refresh }

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL + "/", APIKey: "secret-key"})
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Config{BaseURL: "https://data-sources.pdap.io/api/"})
	assert.Equal(t, "https://data-sources.pdap.io/api", client.BaseURL())
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)

	client = NewClient(Config{BaseURL: "http://x", Timeout: 5 * time.Second})
	assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
}

func TestClient_SearchUsesBasicKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/search/search-location-and-record-type", r.URL.Path)
		assert.Equal(t, "Basic secret-key", r.Header.Get("Authorization"))
		assert.Equal(t, "7", r.URL.Query().Get("location_id"))
		assert.Equal(t, []string{"Police & Public Interactions", "Jails & Courts"}, r.URL.Query()["record_categories"])

		_, _ = io.WriteString(w, `{"count":1,"data":{"state":{"count":1,"results":[{"id":3,"name":"Arrests","agency_name":"State Police"}]},"locality":{"count":0,"results":[]}}}`)
	})

	resp, err := client.Search(context.Background(), SearchParams{
		LocationID:       7,
		RecordCategories: []string{"Police & Public Interactions", "Jails & Courts"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Bucket(LocaleState).Results, 1)
	assert.Equal(t, "State Police", *resp.Bucket(LocaleState).Results[0].AgencyName)
	assert.Empty(t, resp.Bucket(LocaleFederal).Results)
}

func TestClient_SearchRequiresLocation(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://unused"})
	_, err := client.Search(context.Background(), SearchParams{})
	assert.Error(t, err)
}

func TestClient_BearerCalls(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body CreateDataRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Use of force reports", body.RequestInfo.Title)
		assert.Equal(t, []int{12}, body.LocationIDs)

		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"id":99,"message":"created"}`)
	})

	create := &CreateDataRequest{
		RequestInfo: DataRequestInfo{Title: "Use of force reports"},
		LocationIDs: []int{12},
	}

	_, err := client.CreateDataRequest(context.Background(), create)
	assert.ErrorIs(t, err, ErrNoToken)
	assert.True(t, IsUnauthorized(err))
	assert.Empty(t, gotAuth, "no request is sent without a token")

	authed := client.WithTokenSource(staticTokens{access: "acc", refresh: "ref"})
	resp, err := authed.CreateDataRequest(context.Background(), create)
	require.NoError(t, err)
	assert.Equal(t, 99, resp.ID)
	assert.Equal(t, "Bearer acc", gotAuth)
	assert.Nil(t, client.tokens, "WithTokenSource must not mutate the original")
}

func TestClient_RefreshUsesRefreshToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/refresh-session", r.URL.Path)
		assert.Equal(t, "Bearer ref", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"access_token":"a2","refresh_token":"r2"}`)
	}).WithTokenSource(staticTokens{access: "acc", refresh: "ref"})

	resp, err := client.RefreshSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a2", resp.AccessToken)
	assert.Equal(t, "r2", resp.RefreshToken)
}

func TestClient_LoginSendsNoAuthorization(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "a@b.c", creds.Email)
		_, _ = io.WriteString(w, `{"access_token":"a","refresh_token":"r","message":"ok"}`)
	})

	resp, err := client.Login(context.Background(), Credentials{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "a", resp.AccessToken)
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{"json message", http.StatusNotFound, `{"message":"Data source not found"}`, "Data source not found"},
		{"plain body", http.StatusBadGateway, "upstream exploded\n", "upstream exploded"},
		{"empty body", http.StatusInternalServerError, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.GetDataSource(context.Background(), 1)
			require.Error(t, err)
			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, tt.wantMessage, statusErr.Message)
			assert.Equal(t, tt.status, StatusCode(err))
		})
	}
}

func TestClient_IsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"nope"}`, http.StatusNotFound)
	})
	_, err := client.GetDataRequest(context.Background(), 5)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsUnauthorized(err))
}

func TestClient_DecodeFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data": [1,2,3]}`)
	})
	_, err := client.GetDataSource(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, 0, StatusCode(err))
}

func TestClient_MissingDataIsAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"message":"ok"}`)
	})
	_, err := client.GetDataSource(context.Background(), 1)
	assert.Error(t, err)
}

func TestClient_Typeahead(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pitt", r.URL.Query().Get("query"))
		switch r.URL.Path {
		case "/typeahead/locations":
			_, _ = io.WriteString(w, `{"suggestions":[{"display_name":"Pittsburgh","location_id":10,"type":"Locality"}]}`)
		case "/typeahead/agencies":
			_, _ = io.WriteString(w, `{"suggestions":[{"display_name":"Pittsburgh Bureau of Police","id":4}]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	locations, err := client.TypeaheadLocationSuggestions(context.Background(), "pitt")
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, 10, locations[0].LocationID)

	agencies, err := client.TypeaheadAgencySuggestions(context.Background(), "pitt")
	require.NoError(t, err)
	require.Len(t, agencies, 1)
	assert.Equal(t, 4, agencies[0].ID)
}

func TestClient_FollowAndUniqueURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/search/follow" && r.Method == http.MethodGet:
			_, _ = io.WriteString(w, `{"data":[{"location_id":3,"state_name":"Pennsylvania"}],"metadata":{"count":1}}`)
		case r.URL.Path == "/search/follow":
			assert.Equal(t, "3", r.URL.Query().Get("location_id"))
			_, _ = io.WriteString(w, `{"message":"ok"}`)
		case r.URL.Path == "/check/unique-url":
			assert.Equal(t, "Basic secret-key", r.Header.Get("Authorization"))
			assert.Equal(t, "https://example.gov/data", r.URL.Query().Get("url"))
			_, _ = io.WriteString(w, `{"duplicates":[{"id":1}]}`)
		}
	}).WithTokenSource(staticTokens{access: "acc"})

	ctx := context.Background()
	require.NoError(t, client.FollowSearch(ctx, 3))
	require.NoError(t, client.UnfollowSearch(ctx, 3))

	followed, err := client.ListFollowedSearches(ctx)
	require.NoError(t, err)
	require.Len(t, followed, 1)
	assert.Equal(t, "Pennsylvania", *followed[0].StateName)

	unique, err := client.CheckUniqueURL(ctx, "https://example.gov/data")
	require.NoError(t, err)
	assert.False(t, unique.IsUnique())
}

func TestDataRequestsQuery(t *testing.T) {
	query := DataRequestsQuery(ListDataRequestsParams{
		Page:            2,
		SortBy:          "date_created",
		SortOrder:       "DESC",
		RequestStatuses: []string{"Ready to start", "Complete"},
	})
	assert.Equal(t, "page=2&request_statuses=Ready+to+start&request_statuses=Complete&sort_by=date_created&sort_order=DESC", query.Encode())
	assert.Empty(t, DataRequestsQuery(ListDataRequestsParams{}).Encode())
}
