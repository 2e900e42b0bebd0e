// Package client is the wpyvr content SDK.
//
// It fetches posts, events, pages, categories, community ("hub") posts and
// member profiles from the site's headless WordPress install and normalizes
// each payload into a stable view model. It also wraps the few write
// endpoints the site uses: liking a hub post, commenting on it, and saving a
// member profile.
//
// # Reads never fail
//
// Every Fetch* method swallows transport and HTTP errors. Failures are
// logged at Warn and the call returns an empty slice or nil, so "no data" and
// "fetch failed" look the same to callers:
//
//	c := client.MustNew(os.Getenv("WP_BASE_URL"), client.WithLogger(logger))
//	posts := c.FetchBlogPosts(ctx, client.ListParams{PerPage: 6})
//	post := c.FetchBlogPostBySlug(ctx, "welcome") // nil when missing
//
// # Writes return errors
//
// Mutations take an optional bearer token (usually the access token held by
// the identity bridge) and return *APIError on non-2xx responses. Its Error
// method returns the backend's message unchanged:
//
//	stats, err := c.LikeHubPost(ctx, token, post.ID)
//	if errors.Is(err, client.ErrUnauthorized) {
//	    // the session is stale; sign out
//	}
//	post.ApplyStats(*stats)
//
// Like and unlike responses carry the server's counters. Apply them with
// HubPost.ApplyStats rather than adjusting counts locally.
//
// # Caching
//
// WithResponseCache enables an in-memory cache whose lifetime depends on the
// resource: an hour for pages and categories, a minute for posts and events,
// and none for hub content and profiles. Requests carrying a token are never
// cached.
//
// # Stale results
//
// Generation guards UI-style state against late responses: starting a new
// call cancels the previous one and marks its Ticket stale.
package client
