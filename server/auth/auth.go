// Package auth holds the signed-in user's token pair and identity. It
// decodes the tokens the API issues, persists them the way the browser
// app does (tokens in local storage, identity in session storage) and
// supplies Bearer tokens to the API client.
package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/Police-Data-Accessibility-Project/data-sources-app/plugin/pdap"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/store"
)

// Storage keys.
const (
	TokensStorageKey = "auth"
	UserStorageKey   = "user"
)

// Options configures the auth state.
type Options struct {
	Local   store.Driver // token pair; optional
	Session store.Driver // user identity; optional
	Now     func() time.Time
}

// State is the auth/user state of one session. It is safe for concurrent use.
type State struct {
	client  *pdap.Client
	local   store.Driver
	session store.Driver
	now     func() time.Time
	parser  *jwt.Parser

	// persistMu orders updates so the persisted items always match the
	// last in-memory update. It is taken before mu.
	persistMu sync.Mutex

	mu        sync.RWMutex
	tokens    TokenPair
	user      User
	returnURL string
}

// NewState creates an empty, signed-out state. The given client is copied
// so that refresh calls carry this state's refresh token.
func NewState(client *pdap.Client, options Options) *State {
	now := options.Now
	if now == nil {
		now = time.Now
	}
	s := &State{
		local:   options.Local,
		session: options.Session,
		now:     now,
		parser:  jwt.NewParser(),
	}
	s.client = client.WithTokenSource(s)
	return s
}

// Restore loads persisted tokens and identity. Missing or unreadable
// items leave the state signed out.
func (s *State) Restore(ctx context.Context) {
	var tokens TokenPair
	var user User
	if !load(ctx, s.local, TokensStorageKey, &tokens) {
		return
	}
	load(ctx, s.session, UserStorageKey, &user)

	s.mu.Lock()
	s.tokens = tokens
	s.user = user
	s.mu.Unlock()
}

// IsAuthenticated reports whether the access token is present and
// unexpired at now and a user id is set.
func (s *State) IsAuthenticated(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.AccessToken.Valid(now) && s.user.ID != 0
}

// ParseTokensAndSetData decodes both tokens of resp and replaces the token
// pair and user identity together. If either token is malformed nothing
// changes.
func (s *State) ParseTokensAndSetData(ctx context.Context, resp *pdap.LoginResponse) error {
	if resp == nil {
		return errors.New("login response is nil")
	}
	access, err := parseToken(s.parser, resp.AccessToken)
	if err != nil {
		return errors.Wrap(err, "access token")
	}
	refresh, err := parseToken(s.parser, resp.RefreshToken)
	if err != nil {
		return errors.Wrap(err, "refresh token")
	}

	tokens := TokenPair{
		AccessToken:  Token{Value: resp.AccessToken, ExpiresAt: access.Exp.Time},
		RefreshToken: Token{Value: resp.RefreshToken, ExpiresAt: refresh.Exp.Time},
	}
	user := User{ID: access.Sub.ID, Email: access.Sub.UserEmail}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	s.tokens = tokens
	s.user = user
	s.mu.Unlock()

	save(ctx, s.local, TokensStorageKey, tokens)
	save(ctx, s.session, UserStorageKey, user)
	slog.DebugContext(ctx, "auth state updated", "user_id", user.ID, "expires_at", tokens.AccessToken.ExpiresAt)
	return nil
}

// Login signs in with email and password.
func (s *State) Login(ctx context.Context, email, password string) error {
	resp, err := s.client.Login(ctx, pdap.Credentials{Email: email, Password: password})
	if err != nil {
		return errors.Wrap(err, "failed to sign in")
	}
	return s.ParseTokensAndSetData(ctx, resp)
}

// Signup registers an account and signs in with it.
func (s *State) Signup(ctx context.Context, email, password string) error {
	resp, err := s.client.Signup(ctx, pdap.Credentials{Email: email, Password: password})
	if err != nil {
		return errors.Wrap(err, "failed to sign up")
	}
	return s.ParseTokensAndSetData(ctx, resp)
}

// RefreshAccessToken exchanges the refresh token for a new token pair.
func (s *State) RefreshAccessToken(ctx context.Context) error {
	s.mu.RLock()
	refresh := s.tokens.RefreshToken
	s.mu.RUnlock()
	if !refresh.Valid(s.now()) {
		return errors.Wrap(pdap.ErrNoToken, "refresh token missing or expired")
	}

	resp, err := s.client.RefreshSession(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to refresh session")
	}
	return s.ParseTokensAndSetData(ctx, resp)
}

// Logout forgets the tokens and identity, including their persisted copies.
func (s *State) Logout(ctx context.Context) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	s.tokens = TokenPair{}
	s.user = User{}
	s.returnURL = ""
	s.mu.Unlock()

	remove(ctx, s.local, TokensStorageKey)
	remove(ctx, s.session, UserStorageKey)
}

// NeedsRefresh reports whether the access token expires within threshold
// of now while the refresh token is still usable.
func (s *State) NeedsRefresh(now time.Time, threshold time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tokens.AccessToken.Value == "" || !s.tokens.RefreshToken.Valid(now) {
		return false
	}
	return !s.tokens.AccessToken.ExpiresAt.After(now.Add(threshold))
}

// RefreshLoop checks the access token every interval and refreshes it
// when it expires within threshold. A rejected refresh signs the user
// out. It returns when ctx is done.
func (s *State) RefreshLoop(ctx context.Context, interval, threshold time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.NeedsRefresh(s.now(), threshold) {
				continue
			}
			if err := s.RefreshAccessToken(ctx); err != nil {
				slog.WarnContext(ctx, "failed to refresh access token", "error", err)
				if pdap.IsUnauthorized(err) {
					s.Logout(ctx)
				}
			}
		}
	}
}

// User returns the signed-in identity; the zero User when signed out.
func (s *State) User() User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// UserID returns the signed-in user's id, or 0.
func (s *State) UserID() int {
	return s.User().ID
}

// Tokens returns a copy of the current token pair.
func (s *State) Tokens() TokenPair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}

// AccessToken implements pdap.TokenSource.
func (s *State) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.AccessToken.Value
}

// RefreshToken implements pdap.TokenSource.
func (s *State) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.RefreshToken.Value
}

// ReturnURL is where to go after signing in.
func (s *State) ReturnURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.returnURL
}

// SetReturnURL records the page a signed-out user tried to open.
func (s *State) SetReturnURL(path string) {
	s.mu.Lock()
	s.returnURL = path
	s.mu.Unlock()
}

func load(ctx context.Context, driver store.Driver, key string, target any) bool {
	if driver == nil {
		return false
	}
	data, err := driver.GetItem(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.WarnContext(ctx, "failed to read auth item", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, target); err != nil {
		slog.WarnContext(ctx, "discarding unreadable auth item", "key", key, "error", err)
		return false
	}
	return true
}

func save(ctx context.Context, driver store.Driver, key string, value any) {
	if driver == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		slog.WarnContext(ctx, "failed to encode auth item", "key", key, "error", err)
		return
	}
	if err := driver.SetItem(ctx, key, data); err != nil {
		slog.WarnContext(ctx, "failed to persist auth item", "key", key, "error", err)
	}
}

func remove(ctx context.Context, driver store.Driver, key string) {
	if driver == nil {
		return
	}
	if err := driver.RemoveItem(ctx, key); err != nil {
		slog.WarnContext(ctx, "failed to remove auth item", "key", key, "error", err)
	}
}
