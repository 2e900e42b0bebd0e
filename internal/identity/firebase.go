package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/Dongwon38/wpyvr-sub000/internal/store"
)

// ProviderSessionKey is the store key holding the Firebase session.
const ProviderSessionKey = "provider_session"

const (
	defaultIdentityToolkitURL = "https://identitytoolkit.googleapis.com/v1"
	defaultSecureTokenURL     = "https://securetoken.googleapis.com/v1/token"
)

// FirebaseProvider signs users in with Firebase email/password auth and
// keeps the session (refresh token plus user info) in a store. ID tokens are
// minted from the refresh token through the secure-token endpoint.
type FirebaseProvider struct {
	apiKey      string
	store       store.Store
	httpClient  *http.Client
	identityURL string
	tokenURL    string
	logger      *zap.Logger
}

// FirebaseOption configures a FirebaseProvider.
type FirebaseOption func(*FirebaseProvider)

// WithFirebaseEndpoints points the provider at alternative Identity Toolkit
// and secure-token URLs, such as the Auth emulator.
func WithFirebaseEndpoints(identityURL, tokenURL string) FirebaseOption {
	return func(f *FirebaseProvider) {
		f.identityURL = strings.TrimRight(identityURL, "/")
		f.tokenURL = tokenURL
	}
}

// WithFirebaseHTTPClient sets the http.Client for all Firebase calls.
func WithFirebaseHTTPClient(hc *http.Client) FirebaseOption {
	return func(f *FirebaseProvider) { f.httpClient = hc }
}

// WithFirebaseLogger sets the logger.
func WithFirebaseLogger(logger *zap.Logger) FirebaseOption {
	return func(f *FirebaseProvider) { f.logger = logger }
}

// NewFirebaseProvider creates a provider for the project owning apiKey.
func NewFirebaseProvider(apiKey string, st store.Store, opts ...FirebaseOption) *FirebaseProvider {
	f := &FirebaseProvider{
		apiKey:      apiKey,
		store:       st,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		identityURL: defaultIdentityToolkitURL,
		tokenURL:    defaultSecureTokenURL,
		logger:      zap.NewNop(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// firebaseSession is what the provider persists between runs.
type firebaseSession struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PhotoURL     string    `json:"photo_url"`
	IDToken      string    `json:"id_token"`
	RefreshToken string    `json:"refresh_token"`
	Expiry       time.Time `json:"expiry"`
}

// FirebaseError is an error reported by the Identity Toolkit API, such as
// INVALID_PASSWORD or EMAIL_NOT_FOUND.
type FirebaseError struct {
	Status int
	Code   string
}

func (e *FirebaseError) Error() string {
	switch e.Code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
		return "invalid email or password"
	case "USER_DISABLED":
		return "this account has been disabled"
	case "":
		return fmt.Sprintf("firebase auth failed with status %d", e.Status)
	}
	if strings.HasPrefix(e.Code, "TOO_MANY_ATTEMPTS_TRY_LATER") {
		return "too many attempts; try again later"
	}
	return "firebase auth failed: " + e.Code
}

// SignInWithPassword authenticates with email and password, persists the
// session and returns the signed-in user.
func (f *FirebaseProvider) SignInWithPassword(ctx context.Context, email, password string) (*ProviderUser, error) {
	body, err := json.Marshal(map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal sign-in: %w", err)
	}
	target := f.identityURL + "/accounts:signInWithPassword?key=" + url.QueryEscape(f.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read sign-in response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		return nil, &FirebaseError{Status: resp.StatusCode, Code: e.Error.Message}
	}

	var out struct {
		LocalID        string `json:"localId"`
		Email          string `json:"email"`
		DisplayName    string `json:"displayName"`
		ProfilePicture string `json:"profilePicture"`
		IDToken        string `json:"idToken"`
		RefreshToken   string `json:"refreshToken"`
		ExpiresIn      string `json:"expiresIn"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode sign-in response: %w", err)
	}
	secs, _ := strconv.Atoi(out.ExpiresIn)
	if secs <= 0 {
		secs = 3600
	}
	sess := &firebaseSession{
		UID:          out.LocalID,
		Email:        out.Email,
		DisplayName:  out.DisplayName,
		PhotoURL:     out.ProfilePicture,
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
		Expiry:       time.Now().Add(time.Duration(secs) * time.Second),
	}
	if err := f.save(ctx, sess); err != nil {
		return nil, err
	}
	f.logger.Info("firebase sign-in", zap.String("uid", sess.UID))
	return f.userFor(sess), nil
}

// CurrentUser implements Provider.
func (f *FirebaseProvider) CurrentUser(ctx context.Context) (*ProviderUser, error) {
	data, err := f.store.Get(ctx, ProviderSessionKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read provider session: %w", err)
	}
	var sess firebaseSession
	if err := json.Unmarshal(data, &sess); err != nil || sess.RefreshToken == "" {
		f.logger.Warn("discarding unreadable provider session", zap.Error(err))
		_ = f.store.Delete(ctx, ProviderSessionKey)
		return nil, nil
	}
	return f.userFor(&sess), nil
}

// SignOut implements Provider by forgetting the stored session. Firebase
// has no server-side sign-out for password sessions.
func (f *FirebaseProvider) SignOut(ctx context.Context) error {
	if err := f.store.Delete(ctx, ProviderSessionKey); err != nil {
		return fmt.Errorf("delete provider session: %w", err)
	}
	return nil
}

func (f *FirebaseProvider) save(ctx context.Context, sess *firebaseSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal provider session: %w", err)
	}
	if err := f.store.Put(ctx, ProviderSessionKey, data); err != nil {
		return fmt.Errorf("save provider session: %w", err)
	}
	return nil
}

func (f *FirebaseProvider) userFor(sess *firebaseSession) *ProviderUser {
	return &ProviderUser{
		UID:         sess.UID,
		DisplayName: sess.DisplayName,
		Email:       sess.Email,
		PhotoURL:    sess.PhotoURL,
		Tokens:      &firebaseTokens{f: f, sess: sess},
	}
}

// oauthConfig describes the secure-token endpoint as an OAuth2 refresh
// grant. The API key travels in the query string; there is no client ID.
func (f *FirebaseProvider) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  f.tokenURL + "?key=" + url.QueryEscape(f.apiKey),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// firebaseTokens mints ID tokens, refreshing through oauth2 when the
// current one is within the library's expiry margin.
type firebaseTokens struct {
	f    *FirebaseProvider
	mu   sync.Mutex
	sess *firebaseSession
}

// Token implements TokenSource.
func (t *firebaseTokens) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current := &oauth2.Token{
		AccessToken:  t.sess.IDToken,
		RefreshToken: t.sess.RefreshToken,
		Expiry:       t.sess.Expiry,
	}
	if current.Valid() {
		return current.AccessToken, nil
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, t.f.httpClient)
	fresh, err := t.f.oauthConfig().TokenSource(ctx, current).Token()
	if err != nil {
		return "", fmt.Errorf("refresh firebase token: %w", err)
	}
	idToken := fresh.AccessToken
	if s, ok := fresh.Extra("id_token").(string); ok && s != "" {
		idToken = s
	}

	next := *t.sess
	next.IDToken = idToken
	next.Expiry = fresh.Expiry
	if fresh.RefreshToken != "" {
		next.RefreshToken = fresh.RefreshToken
	}
	t.sess = &next
	if err := t.f.save(ctx, &next); err != nil {
		t.f.logger.Warn("persist refreshed provider session failed", zap.Error(err))
	}
	return idToken, nil
}
