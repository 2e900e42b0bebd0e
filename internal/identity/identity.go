// Package identity bridges the third-party sign-in provider and the
// WordPress backend's user records.
//
// It provides:
//   - Bridge owns the current session: provider user, backend identity, profile
//   - Provider the third-party identity session (FirebaseProvider, StaticProvider)
//   - Backend the backend sync and profile endpoints (HTTPBackend)
//
// The backend identity is persisted in a store.Store under CacheKey and is
// trusted until the backend rejects it.
package identity
