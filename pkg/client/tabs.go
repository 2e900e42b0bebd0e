package client

import (
	"context"
	"sync"
)

// CategoryTabs holds the post list for the currently selected category.
// Selecting a category while an earlier selection is still loading cancels
// the earlier fetch, and its result is never shown.
type CategoryTabs struct {
	c      *Client
	params ListParams
	gen    Generation

	mu     sync.RWMutex
	active int64
	posts  []Post
	loaded bool
}

// NewCategoryTabs creates a tab set listing posts with params. Category 0
// means all posts.
func (c *Client) NewCategoryTabs(params ListParams) *CategoryTabs {
	return &CategoryTabs{c: c, params: params}
}

// Select switches to categoryID and loads its posts. It returns the posts
// and true when the result was applied, or nil and false when a later
// Select superseded it.
func (t *CategoryTabs) Select(ctx context.Context, categoryID int64) ([]Post, bool) {
	ctx, ticket := t.gen.Begin(ctx)
	defer ticket.Done()

	var posts []Post
	if categoryID > 0 {
		posts = t.c.FetchPostsByCategory(ctx, categoryID, t.params)
	} else {
		posts = t.c.FetchBlogPosts(ctx, t.params)
	}

	applied := ticket.Apply(func() {
		t.mu.Lock()
		t.active = categoryID
		t.posts = posts
		t.loaded = true
		t.mu.Unlock()
	})
	if !applied {
		return nil, false
	}
	return posts, true
}

// Active returns the selected category and its posts. ok is false until a
// Select has completed.
func (t *CategoryTabs) Active() (categoryID int64, posts []Post, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Post, len(t.posts))
	copy(out, t.posts)
	return t.active, out, t.loaded
}
