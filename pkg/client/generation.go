package client

import (
	"context"
	"sync"
)

// Generation guards state updates made from asynchronous results. Each call
// to Begin supersedes the previous one: the earlier context is cancelled and
// its Ticket stops being current, so a late result can be detected and
// dropped instead of overwriting newer state.
//
//	ctx, t := gen.Begin(ctx)
//	defer t.Done()
//	posts := c.FetchPostsByCategory(ctx, id, params)
//	if t.Current() {
//	    apply(posts)
//	}
type Generation struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// Ticket identifies one call started by Generation.Begin.
type Ticket struct {
	g      *Generation
	seq    uint64
	cancel context.CancelFunc
}

// Begin starts a new generation derived from parent.
func (g *Generation) Begin(parent context.Context) (context.Context, Ticket) {
	ctx, cancel := context.WithCancel(parent)
	g.mu.Lock()
	if g.cancel != nil {
		g.cancel()
	}
	g.seq++
	g.cancel = cancel
	seq := g.seq
	g.mu.Unlock()
	return ctx, Ticket{g: g, seq: seq, cancel: cancel}
}

// Invalidate makes every outstanding ticket stale and cancels its context.
func (g *Generation) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.seq++
}

// Current reports whether no later Begin or Invalidate has happened.
func (t Ticket) Current() bool {
	if t.g == nil {
		return false
	}
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	return t.g.seq == t.seq
}

// Done releases the ticket's context. It does not affect Current.
func (t Ticket) Done() {
	if t.cancel != nil {
		t.cancel()
	}
}

// Apply runs fn while holding the generation lock if the ticket is still
// current, and reports whether it ran. State updates made through Apply
// cannot interleave with Begin or Invalidate.
func (t Ticket) Apply(fn func()) bool {
	if t.g == nil {
		return false
	}
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	if t.g.seq != t.seq {
		return false
	}
	fn()
	return true
}
