package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Dongwon38/wpyvr-sub000/pkg/client"
)

// DefaultSyncPath is the backend auth-sync endpoint.
const DefaultSyncPath = "/wp-json/custom-auth/v1/sync"

// SyncRequest carries best-effort profile hints to the sync endpoint.
type SyncRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	PhotoURL string `json:"photoURL"`
}

// Backend is the part of the CMS the bridge talks to.
type Backend interface {
	// Sync exchanges a provider token for the backend identity. Failures
	// are *SyncError.
	Sync(ctx context.Context, providerToken string, req SyncRequest) (*BackendIdentity, error)
	// Profile loads the member profile for ident.
	Profile(ctx context.Context, ident *BackendIdentity) (*client.Profile, error)
}

// HTTPBackend implements Backend over the WordPress REST API. Profile reads
// go through the content client so they share its endpoints and options.
type HTTPBackend struct {
	syncURL    string
	httpClient *http.Client
	profiles   *client.Client
}

// BackendOption configures an HTTPBackend.
type BackendOption func(*HTTPBackend)

// WithSyncPath overrides DefaultSyncPath.
func WithSyncPath(path string) BackendOption {
	return func(b *HTTPBackend) {
		b.syncURL = strings.TrimRight(b.profiles.BaseURL(), "/") + "/" + strings.TrimLeft(path, "/")
	}
}

// WithBackendHTTPClient sets the http.Client used for sync requests.
func WithBackendHTTPClient(hc *http.Client) BackendOption {
	return func(b *HTTPBackend) { b.httpClient = hc }
}

// NewHTTPBackend returns a Backend rooted at the content client's base URL.
func NewHTTPBackend(profiles *client.Client, opts ...BackendOption) *HTTPBackend {
	b := &HTTPBackend{
		syncURL:    profiles.BaseURL() + DefaultSyncPath,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		profiles:   profiles,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Sync implements Backend.
func (b *HTTPBackend) Sync(ctx context.Context, providerToken string, in SyncRequest) (*BackendIdentity, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, &SyncError{Err: fmt.Errorf("marshal sync request: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.syncURL, bytes.NewReader(payload))
	if err != nil {
		return nil, &SyncError{Err: fmt.Errorf("build sync request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+providerToken)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, &SyncError{Err: fmt.Errorf("HTTP request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &SyncError{Status: resp.StatusCode, Err: fmt.Errorf("read sync response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		_ = json.Unmarshal(body, &e)
		msg := e.Message
		if msg == "" {
			msg = e.Error
		}
		return nil, &SyncError{Status: resp.StatusCode, Message: msg}
	}

	var envelope struct {
		BackendIdentity
		Data *BackendIdentity `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &SyncError{Status: resp.StatusCode, Err: fmt.Errorf("decode sync response: %w", err)}
	}
	ident := envelope.BackendIdentity
	if ident.JWT == "" && envelope.Data != nil {
		ident = *envelope.Data
	}
	if ident.JWT == "" {
		return nil, &SyncError{Status: resp.StatusCode, Message: "sync response did not include a token"}
	}
	if ident.Roles == nil {
		ident.Roles = []string{}
	}
	return &ident, nil
}

// Profile implements Backend.
func (b *HTTPBackend) Profile(ctx context.Context, ident *BackendIdentity) (*client.Profile, error) {
	return b.profiles.GetUserProfile(ctx, ident.JWT, ident.WPUserID)
}
