package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Dongwon38/wpyvr-sub000/internal/store"
	"github.com/Dongwon38/wpyvr-sub000/pkg/client"
)

// ErrSuperseded is returned by Sync when a logout or a newer sync finished
// first. The result was discarded.
var ErrSuperseded = errors.New("identity: sync superseded")

// Bridge keeps exactly one mapping from the current provider session to the
// backend user and bearer token, plus a best-effort copy of the profile.
// Construct one per process and pass it down; it is safe for concurrent use.
type Bridge struct {
	provider Provider
	store    store.Store
	backend  Backend
	logger   *zap.Logger
	now      func() time.Time

	syncGen    client.Generation
	profileGen client.Generation

	mu        sync.RWMutex
	state     State
	restoring bool
	user      *ProviderUser
	ident     *BackendIdentity
	profile   *client.Profile

	ready     chan struct{}
	readyOnce sync.Once
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithClock overrides the clock used for the token expiry check.
func WithClock(now func() time.Time) BridgeOption {
	return func(b *Bridge) { b.now = now }
}

// NewBridge creates a Bridge. Call Restore once at startup.
func NewBridge(provider Provider, st store.Store, backend Backend, logger *zap.Logger, opts ...BridgeOption) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bridge{
		provider: provider,
		store:    st,
		backend:  backend,
		logger:   logger,
		now:      time.Now,
		state:    StateUninitialized,
		ready:    make(chan struct{}),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// ── Accessors ───────────────────────────────────────────────────────────

// State returns the current lifecycle state.
func (b *Bridge) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Loading reports whether Restore has not settled yet.
func (b *Bridge) Loading() bool {
	s := b.State()
	return s == StateUninitialized || s == StateLoading
}

// Ready is closed once the first Restore settles.
func (b *Bridge) Ready() <-chan struct{} { return b.ready }

// Provider returns the provider user, or nil.
func (b *Bridge) Provider() *ProviderUser {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.user
}

// Identity returns a copy of the backend identity, or nil.
func (b *Bridge) Identity() *BackendIdentity {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ident.clone()
}

// Profile returns a copy of the cached profile, or nil.
func (b *Bridge) Profile() *client.Profile {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.profile == nil {
		return nil
	}
	p := *b.profile
	return &p
}

// AccessToken returns the backend bearer token, or "" when signed out.
func (b *Bridge) AccessToken() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.ident == nil {
		return ""
	}
	return b.ident.JWT
}

// recomputeLocked derives state from the fields. Caller holds b.mu.
func (b *Bridge) recomputeLocked() {
	switch {
	case b.restoring:
		b.state = StateLoading
	case b.user != nil && b.ident != nil:
		b.state = StateAuthenticated
	default:
		b.state = StateAnonymous
	}
}

// ── Operations ──────────────────────────────────────────────────────────

// Sync exchanges a fresh provider token for the backend identity, stores
// and persists it, then loads the profile. A profile failure does not fail
// the sync. Any earlier identity is overwritten. There is no retry.
func (b *Bridge) Sync(ctx context.Context, user *ProviderUser) (*BackendIdentity, error) {
	if user == nil || user.Tokens == nil {
		return nil, &SyncError{Message: "no active provider session"}
	}
	ctx, ticket := b.syncGen.Begin(ctx)
	defer ticket.Done()

	token, err := user.Tokens.Token(ctx)
	if err != nil {
		return nil, &SyncError{Err: fmt.Errorf("mint provider token: %w", err)}
	}

	ident, err := b.backend.Sync(ctx, token, SyncRequest{
		Name:     user.DisplayName,
		Email:    user.Email,
		PhotoURL: user.PhotoURL,
	})
	if err != nil {
		var se *SyncError
		if !errors.As(err, &se) {
			err = &SyncError{Err: err}
		}
		// A failed sync must not leave an earlier account's identity
		// attached to this provider user.
		ticket.Apply(func() {
			b.mu.Lock()
			b.user = user
			b.ident = nil
			b.profile = nil
			b.recomputeLocked()
			b.mu.Unlock()
			b.dropCache(ctx)
		})
		b.logger.Warn("backend sync failed", zap.String("uid", user.UID), zap.Error(err))
		return nil, err
	}

	var persistErr error
	applied := ticket.Apply(func() {
		b.mu.Lock()
		b.user = user
		b.ident = ident.clone()
		b.profile = nil
		b.recomputeLocked()
		b.mu.Unlock()
		persistErr = b.persist(ctx, ident)
	})
	if !applied {
		return nil, ErrSuperseded
	}
	if persistErr != nil {
		b.logger.Warn("persist backend identity failed", zap.Error(persistErr))
	}
	b.logger.Info("backend identity synced",
		zap.String("uid", user.UID),
		zap.Int64("wp_user_id", ident.WPUserID),
	)

	b.loadProfile(ctx)
	return ident.clone(), nil
}

// Restore rebuilds the session at startup. The cached identity is adopted
// without asking the backend; the provider is authoritative over the cache.
// When the provider has a session but nothing usable is cached, Sync runs
// once. Loading stays true until everything here settles.
func (b *Bridge) Restore(ctx context.Context) error {
	b.mu.Lock()
	b.restoring = true
	b.recomputeLocked()
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.restoring = false
		b.recomputeLocked()
		b.mu.Unlock()
		b.readyOnce.Do(func() { close(b.ready) })
	}()

	cached := b.readCache(ctx)

	user, err := b.provider.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("read provider session: %w", err)
	}
	if user == nil {
		return b.clearLocal(ctx)
	}

	if cached != nil && !sameAccount(user, cached) {
		b.logger.Info("cached identity belongs to another account; discarding",
			zap.String("uid", user.UID))
		b.dropCache(ctx)
		cached = nil
	}

	if cached == nil {
		if _, err := b.Sync(ctx, user); err != nil {
			return err
		}
		return nil
	}

	b.syncGen.Invalidate()
	b.mu.Lock()
	b.user = user
	b.ident = cached
	b.recomputeLocked()
	b.mu.Unlock()
	b.loadProfile(ctx)
	return nil
}

// RefreshProfile re-fetches the profile when a backend identity exists and
// is a no-op otherwise.
func (b *Bridge) RefreshProfile(ctx context.Context) error {
	b.mu.RLock()
	ident := b.ident
	b.mu.RUnlock()
	if ident == nil {
		return nil
	}
	return b.fetchProfile(ctx, ident)
}

// Logout signs out of the provider, then clears local state and the cache
// entry even when the provider call failed. The provider error is returned
// afterwards.
func (b *Bridge) Logout(ctx context.Context) error {
	provErr := b.provider.SignOut(ctx)
	if provErr != nil {
		b.logger.Warn("provider sign-out failed; clearing local session anyway", zap.Error(provErr))
	}
	delErr := b.clearLocal(ctx)

	switch {
	case provErr != nil && delErr != nil:
		return errors.Join(fmt.Errorf("provider sign-out: %w", provErr), delErr)
	case provErr != nil:
		return fmt.Errorf("provider sign-out: %w", provErr)
	default:
		return delErr
	}
}

// HandleAuthError clears the local session when err is a 401 from the
// backend and reports whether it did. The provider session is left alone,
// so the next Restore re-syncs.
func (b *Bridge) HandleAuthError(err error) bool {
	if !errors.Is(err, client.ErrUnauthorized) {
		return false
	}
	b.logger.Info("backend rejected token; clearing session")
	if cerr := b.clearLocal(context.Background()); cerr != nil {
		b.logger.Warn("clear session cache failed", zap.Error(cerr))
	}
	return true
}

// ── Internals ───────────────────────────────────────────────────────────

// clearLocal drops all three session fields and the cache entry. In-flight
// syncs and profile loads are invalidated first so they cannot write back.
func (b *Bridge) clearLocal(ctx context.Context) error {
	b.syncGen.Invalidate()
	b.profileGen.Invalidate()

	b.mu.Lock()
	b.user = nil
	b.ident = nil
	b.profile = nil
	b.recomputeLocked()
	b.mu.Unlock()

	if err := b.store.Delete(ctx, CacheKey); err != nil {
		return fmt.Errorf("delete cached identity: %w", err)
	}
	return nil
}

func (b *Bridge) persist(ctx context.Context, ident *BackendIdentity) error {
	data, err := json.Marshal(ident)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	return b.store.Put(ctx, CacheKey, data)
}

// readCache returns the cached identity, or nil when it is missing, corrupt
// or carries an expired token. Corrupt and expired entries are deleted.
func (b *Bridge) readCache(ctx context.Context) *BackendIdentity {
	data, err := b.store.Get(ctx, CacheKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		b.logger.Warn("read cached identity failed", zap.Error(err))
		return nil
	}

	var ident BackendIdentity
	if err := json.Unmarshal(data, &ident); err != nil || ident.JWT == "" {
		b.logger.Warn("discarding corrupt cached identity", zap.Error(err))
		b.dropCache(ctx)
		return nil
	}
	if tokenExpired(ident.JWT, b.now()) {
		b.logger.Info("cached token expired; will re-sync", zap.Int64("wp_user_id", ident.WPUserID))
		b.dropCache(ctx)
		return nil
	}
	return &ident
}

func (b *Bridge) dropCache(ctx context.Context) {
	if err := b.store.Delete(ctx, CacheKey); err != nil {
		b.logger.Warn("delete cached identity failed", zap.Error(err))
	}
}

// loadProfile is the best-effort profile fetch used after sync and restore.
func (b *Bridge) loadProfile(ctx context.Context) {
	b.mu.RLock()
	ident := b.ident
	b.mu.RUnlock()
	if ident == nil {
		return
	}
	if err := b.fetchProfile(ctx, ident); err != nil {
		b.logger.Warn("profile load failed", zap.Int64("wp_user_id", ident.WPUserID), zap.Error(err))
	}
}

// fetchProfile loads the profile for ident and stores it only if ident is
// still the current identity and no newer load started.
func (b *Bridge) fetchProfile(ctx context.Context, ident *BackendIdentity) error {
	ctx, ticket := b.profileGen.Begin(ctx)
	defer ticket.Done()

	p, err := b.backend.Profile(ctx, ident)
	if err != nil {
		return err
	}
	ticket.Apply(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.ident == ident {
			b.profile = p
		}
	})
	return nil
}

// sameAccount reports whether a cached identity can belong to user. Only
// the email is comparable across the two systems.
func sameAccount(user *ProviderUser, ident *BackendIdentity) bool {
	if user.Email == "" || ident.Email == "" {
		return true
	}
	return strings.EqualFold(user.Email, ident.Email)
}
