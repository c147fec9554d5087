package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Police-Data-Accessibility-Project/data-sources-app/plugin/pdap"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/store/db/memory"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func signToken(t *testing.T, userID int, email string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": map[string]any{"id": userID, "user_email": email},
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func loginResponse(t *testing.T, userID int, accessExp, refreshExp time.Time) *pdap.LoginResponse {
	return &pdap.LoginResponse{
		AccessToken:  signToken(t, userID, "user@example.com", accessExp),
		RefreshToken: signToken(t, userID, "user@example.com", refreshExp),
	}
}

func newTestState(t *testing.T, handler http.HandlerFunc) (*State, *memory.DB, *memory.DB) {
	t.Helper()
	baseURL := "http://unused"
	if handler != nil {
		server := httptest.NewServer(handler)
		t.Cleanup(server.Close)
		baseURL = server.URL
	}
	local, session := memory.NewDB(), memory.NewDB()
	client := pdap.NewClient(pdap.Config{BaseURL: baseURL, APIKey: "k"})
	state := NewState(client, Options{Local: local, Session: session, Now: func() time.Time { return testNow }})
	return state, local, session
}

func TestIsAuthenticated(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		userID int
		exp    time.Time
		want   bool
	}{
		{"valid token with user", 7, testNow.Add(time.Hour), true},
		{"expired token", 7, testNow.Add(-time.Second), false},
		{"token expiring exactly now", 7, testNow, false},
		{"no user id", 0, testNow.Add(time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, _, _ := newTestState(t, nil)
			require.NoError(t, state.ParseTokensAndSetData(ctx, loginResponse(t, tt.userID, tt.exp, testNow.Add(24*time.Hour))))
			assert.Equal(t, tt.want, state.IsAuthenticated(testNow))
		})
	}

	state, _, _ := newTestState(t, nil)
	assert.False(t, state.IsAuthenticated(testNow), "a fresh state is signed out")
}

func TestParseTokensAndSetData(t *testing.T) {
	ctx := context.Background()
	state, local, session := newTestState(t, nil)

	accessExp := testNow.Add(15 * time.Minute)
	refreshExp := testNow.Add(24 * time.Hour)
	resp := loginResponse(t, 42, accessExp, refreshExp)
	require.NoError(t, state.ParseTokensAndSetData(ctx, resp))

	tokens := state.Tokens()
	assert.Equal(t, resp.AccessToken, tokens.AccessToken.Value)
	assert.True(t, accessExp.Equal(tokens.AccessToken.ExpiresAt))
	assert.True(t, refreshExp.Equal(tokens.RefreshToken.ExpiresAt))
	assert.Equal(t, User{ID: 42, Email: "user@example.com"}, state.User())
	assert.Equal(t, resp.AccessToken, state.AccessToken())
	assert.Equal(t, resp.RefreshToken, state.RefreshToken())

	raw, err := local.GetItem(ctx, TokensStorageKey)
	require.NoError(t, err)
	var persisted TokenPair
	require.NoError(t, json.Unmarshal(raw, &persisted))
	assert.Equal(t, resp.RefreshToken, persisted.RefreshToken.Value)

	raw, err = session.GetItem(ctx, UserStorageKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":42,"email":"user@example.com"}`, string(raw))
}

func TestParseTokensAndSetData_MalformedLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	state, _, _ := newTestState(t, nil)
	good := loginResponse(t, 1, testNow.Add(time.Hour), testNow.Add(2*time.Hour))
	require.NoError(t, state.ParseTokensAndSetData(ctx, good))

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": map[string]any{"id": 2}})
	noExpSigned, err := noExp.SignedString([]byte("k"))
	require.NoError(t, err)

	bad := []*pdap.LoginResponse{
		nil,
		{AccessToken: "not-a-jwt", RefreshToken: good.RefreshToken},
		{AccessToken: good.AccessToken, RefreshToken: ""},
		{AccessToken: noExpSigned, RefreshToken: good.RefreshToken},
	}
	for _, resp := range bad {
		assert.Error(t, state.ParseTokensAndSetData(ctx, resp))
		assert.Equal(t, good.AccessToken, state.AccessToken())
		assert.Equal(t, 1, state.UserID())
	}
}

func TestLoginAndRefresh(t *testing.T) {
	ctx := context.Background()
	var refreshCalls atomic.Int32
	var state *State

	state, _, _ = newTestState(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			var creds pdap.Credentials
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			if creds.Password != "correct" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"message":"Invalid credentials"}`)
				return
			}
			_ = json.NewEncoder(w).Encode(loginResponse(t, 5, testNow.Add(time.Minute), testNow.Add(time.Hour)))
		case "/auth/refresh-session":
			refreshCalls.Add(1)
			assert.Equal(t, "Bearer "+state.RefreshToken(), r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(loginResponse(t, 5, testNow.Add(30*time.Minute), testNow.Add(2*time.Hour)))
		default:
			http.NotFound(w, r)
		}
	})

	err := state.Login(ctx, "user@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, pdap.IsUnauthorized(err))
	assert.False(t, state.IsAuthenticated(testNow))

	require.ErrorIs(t, state.RefreshAccessToken(ctx), pdap.ErrNoToken)

	require.NoError(t, state.Login(ctx, "user@example.com", "correct"))
	assert.True(t, state.IsAuthenticated(testNow))
	assert.Equal(t, 5, state.UserID())

	assert.True(t, state.NeedsRefresh(testNow, 5*time.Minute))
	assert.False(t, state.NeedsRefresh(testNow, 30*time.Second))

	require.NoError(t, state.RefreshAccessToken(ctx))
	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.True(t, testNow.Add(30*time.Minute).Equal(state.Tokens().AccessToken.ExpiresAt))
	assert.False(t, state.NeedsRefresh(testNow, 5*time.Minute))
}

func TestRefreshLoop(t *testing.T) {
	var refreshCalls atomic.Int32
	state, _, _ := newTestState(t, func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"Refresh token revoked"}`)
	})
	require.NoError(t, state.ParseTokensAndSetData(context.Background(),
		loginResponse(t, 9, testNow.Add(time.Minute), testNow.Add(time.Hour))))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		state.RefreshLoop(ctx, 5*time.Millisecond, 5*time.Minute)
	}()

	require.Eventually(t, func() bool { return state.UserID() == 0 }, 2*time.Second, 5*time.Millisecond,
		"a rejected refresh signs the user out")
	cancel()
	<-done
	assert.GreaterOrEqual(t, refreshCalls.Load(), int32(1))
	assert.Empty(t, state.AccessToken())
}

func TestConcurrentUpdatesPersistLastState(t *testing.T) {
	ctx := context.Background()
	responses := make([]*pdap.LoginResponse, 8)
	for i := range responses {
		responses[i] = loginResponse(t, i+1, testNow.Add(time.Hour), testNow.Add(2*time.Hour))
	}

	for round := 0; round < 20; round++ {
		state, local, session := newTestState(t, nil)

		var wg sync.WaitGroup
		for i, resp := range responses {
			wg.Add(1)
			go func(i int, resp *pdap.LoginResponse) {
				defer wg.Done()
				if i%4 == 3 {
					state.Logout(ctx)
					return
				}
				assert.NoError(t, state.ParseTokensAndSetData(ctx, resp))
			}(i, resp)
		}
		wg.Wait()

		// A restart must come back as whoever memory says is signed in.
		restored := NewState(pdap.NewClient(pdap.Config{BaseURL: "http://unused"}), Options{Local: local, Session: session})
		restored.Restore(ctx)
		require.Equal(t, state.AccessToken(), restored.AccessToken(), "round %d", round)
		require.Equal(t, state.RefreshToken(), restored.RefreshToken(), "round %d", round)
		require.Equal(t, state.User(), restored.User(), "round %d", round)
	}
}

func TestLogoutAndRestore(t *testing.T) {
	ctx := context.Background()
	state, local, session := newTestState(t, nil)
	require.NoError(t, state.ParseTokensAndSetData(ctx, loginResponse(t, 3, testNow.Add(time.Hour), testNow.Add(2*time.Hour))))

	client := pdap.NewClient(pdap.Config{BaseURL: "http://unused"})
	restored := NewState(client, Options{Local: local, Session: session})
	restored.Restore(ctx)
	assert.True(t, restored.IsAuthenticated(testNow))
	assert.Equal(t, state.Tokens().AccessToken.Value, restored.AccessToken())

	state.SetReturnURL("/data-request/create")
	assert.Equal(t, "/data-request/create", state.ReturnURL())

	state.Logout(ctx)
	assert.False(t, state.IsAuthenticated(testNow))
	assert.Empty(t, state.ReturnURL())
	_, err := local.GetItem(ctx, TokensStorageKey)
	assert.Error(t, err)

	empty := NewState(client, Options{Local: local, Session: session})
	empty.Restore(ctx)
	assert.Equal(t, 0, empty.UserID())
}

func TestRestore_IgnoresGarbage(t *testing.T) {
	ctx := context.Background()
	local := memory.NewDB()
	require.NoError(t, local.SetItem(ctx, TokensStorageKey, []byte("{oops")))

	state := NewState(pdap.NewClient(pdap.Config{BaseURL: "http://unused"}), Options{Local: local})
	state.Restore(ctx)
	assert.Empty(t, state.AccessToken())
}
