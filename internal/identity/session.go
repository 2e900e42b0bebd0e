package identity

import (
	"context"
	"fmt"
)

// CacheKey is the store key holding the serialized BackendIdentity.
const CacheKey = "wp_user"

// TokenSource mints a short-lived provider bearer token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

// Token implements TokenSource.
func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token(context.Context) (string, error) { return string(s), nil }

// ProviderUser is the signed-in user as reported by the identity provider.
type ProviderUser struct {
	UID         string
	DisplayName string
	Email       string
	PhotoURL    string
	Tokens      TokenSource `json:"-"`
}

// BackendIdentity is the record returned by the backend sync endpoint. JWT
// is the long-lived bearer credential for authenticated backend calls.
type BackendIdentity struct {
	WPUserID    int64    `json:"wp_user_id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name"`
	Roles       []string `json:"roles"`
	JWT         string   `json:"jwt"`
}

func (b *BackendIdentity) clone() *BackendIdentity {
	if b == nil {
		return nil
	}
	out := *b
	out.Roles = append([]string(nil), b.Roles...)
	return &out
}

// State is the bridge lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// SyncError reports a failed sync. Message is the backend's own message
// when it sent one.
type SyncError struct {
	Status  int
	Message string
	Err     error
}

func (e *SyncError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return "sync failed: " + e.Err.Error()
	default:
		return fmt.Sprintf("sync failed with status %d", e.Status)
	}
}

func (e *SyncError) Unwrap() error { return e.Err }
