package identity

import (
	"context"
	"sync"
)

// Provider is the third-party identity session. The bridge never starts a
// sign-in itself; it only asks who is signed in and signs out.
type Provider interface {
	// CurrentUser returns the signed-in user, or nil when there is no
	// active session.
	CurrentUser(ctx context.Context) (*ProviderUser, error)
	SignOut(ctx context.Context) error
}

// StaticProvider is an in-memory Provider for tests and local development.
type StaticProvider struct {
	mu         sync.Mutex
	user       *ProviderUser
	signOutErr error
	signOuts   int
}

// NewStaticProvider returns a provider reporting user (nil for signed out).
func NewStaticProvider(user *ProviderUser) *StaticProvider {
	return &StaticProvider{user: user}
}

// SetUser replaces the reported user.
func (p *StaticProvider) SetUser(user *ProviderUser) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.user = user
}

// FailSignOut makes subsequent SignOut calls return err. The session is
// still dropped.
func (p *StaticProvider) FailSignOut(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signOutErr = err
}

// SignOuts returns how many times SignOut was called.
func (p *StaticProvider) SignOuts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signOuts
}

// CurrentUser implements Provider.
func (p *StaticProvider) CurrentUser(context.Context) (*ProviderUser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.user, nil
}

// SignOut implements Provider.
func (p *StaticProvider) SignOut(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signOuts++
	p.user = nil
	return p.signOutErr
}
