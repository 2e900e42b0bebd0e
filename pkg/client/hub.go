package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Dongwon38/wpyvr-sub000/pkg/htmltext"
)

// HubPost is a community post with engagement counters.
type HubPost struct {
	ID            int64   `json:"id"`
	Slug          string  `json:"slug"`
	Title         string  `json:"title"`
	Excerpt       string  `json:"excerpt"`
	Content       string  `json:"content"`
	Date          string  `json:"date"`
	Author        string  `json:"author"`
	AuthorAvatar  string  `json:"author_avatar,omitempty"`
	LikesCount    int64   `json:"likes_count"`
	CommentsCount int64   `json:"comments_count"`
	HotScore      float64 `json:"hot_score"`
}

// HubStats are the authoritative engagement counters for a hub post.
type HubStats struct {
	LikesCount    int64   `json:"likes_count"`
	CommentsCount int64   `json:"comments_count"`
	HotScore      float64 `json:"hot_score"`
}

// ApplyStats replaces the post's counters with s. Counters are never
// adjusted locally.
func (p *HubPost) ApplyStats(s HubStats) {
	p.LikesCount = s.LikesCount
	p.CommentsCount = s.CommentsCount
	p.HotScore = s.HotScore
}

// Stats returns the post's current counters.
func (p HubPost) Stats() HubStats {
	return HubStats{LikesCount: p.LikesCount, CommentsCount: p.CommentsCount, HotScore: p.HotScore}
}

// Comment is a comment on a hub post.
type Comment struct {
	ID         int64  `json:"id"`
	PostID     int64  `json:"post_id"`
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
	Date       string `json:"date"`
}

// CommentInput is the body of a comment submission.
type CommentInput struct {
	PostID        int64  `json:"post"                     validate:"required,gt=0"`
	Content       string `json:"content"                  validate:"required"`
	AuthorName    string `json:"author_name,omitempty"`
	AuthorEmail   string `json:"author_email,omitempty"   validate:"omitempty,email"`
	Parent        int64  `json:"parent,omitempty"`
	FirebaseToken string `json:"firebase_token,omitempty"`
}

// counter reads a metadata counter, checking the underscore-prefixed internal
// key before the public one.
func counter(r rawRecord, name string) (float64, bool) {
	if f, ok := r.obj("meta").num("_"+name, name); ok {
		return f, true
	}
	return r.num("_"+name, name)
}

func normalizeStats(r rawRecord) HubStats {
	var s HubStats
	if f, ok := counter(r, "likes_count"); ok {
		s.LikesCount = int64(f)
	}
	if f, ok := counter(r, "comments_count"); ok {
		s.CommentsCount = int64(f)
	}
	if f, ok := counter(r, "hot_score"); ok {
		s.HotScore = f
	}
	return s
}

func (c *Client) normalizeHubPost(r rawRecord) HubPost {
	id := r.intOr(0, "id")
	author := r.embeddedAuthor()
	p := HubPost{
		ID:           id,
		Slug:         effectiveSlug(r.str("slug"), id),
		Title:        htmltext.Title(r.rendered("title")),
		Excerpt:      htmltext.PlainText(r.rendered("excerpt")),
		Content:      c.content(r.rendered("content")),
		Date:         r.str("date"),
		Author:       htmltext.Title(firstNonEmpty(author.str("name"), r.str("author_name"))),
		AuthorAvatar: avatarURL(author),
	}
	p.ApplyStats(normalizeStats(r))
	return p
}

func normalizeComment(r rawRecord) Comment {
	return Comment{
		ID:         r.intOr(0, "id"),
		PostID:     r.intOr(0, "post", "post_id"),
		AuthorName: htmltext.Title(r.str("author_name")),
		Content:    htmltext.PlainText(r.rendered("content")),
		Date:       r.str("date"),
	}
}

// FetchHubPosts lists community posts. Counters are live, so the response
// cache is never used.
func (c *Client) FetchHubPosts(ctx context.Context, p ListParams) []HubPost {
	target := buildURL(c.hubURL, c.endpoints.HubPosts, p.query(true))
	records := c.readList(ctx, "hub_posts", target, CacheNone)
	posts := make([]HubPost, 0, len(records))
	for _, r := range records {
		posts = append(posts, c.normalizeHubPost(r))
	}
	return posts
}

// FetchHubPostBySlug returns one community post, or nil.
func (c *Client) FetchHubPostBySlug(ctx context.Context, slug string) *HubPost {
	r := c.readBySlug(ctx, "hub_posts", c.hubURL, c.endpoints.HubPosts, slug, CacheNone, true)
	if r == nil {
		return nil
	}
	post := c.normalizeHubPost(r)
	return &post
}

// FetchHubPostStats returns the current counters for a post, or nil.
func (c *Client) FetchHubPostStats(ctx context.Context, postID int64) *HubStats {
	path := strings.ReplaceAll(c.endpoints.HubStats, "{id}", strconv.FormatInt(postID, 10))
	target := buildURL(c.hubURL, path, nil)
	body, err := c.getRaw(ctx, "hub_stats", target, "", CacheNone)
	if err != nil {
		c.degrade("hub_stats", target, err)
		return nil
	}
	r, err := decodeRecord(body)
	if err != nil {
		c.degrade("hub_stats", target, err)
		return nil
	}
	s := normalizeStats(unwrapData(r))
	return &s
}

// FetchHubComments lists approved comments on a post, oldest first.
func (c *Client) FetchHubComments(ctx context.Context, postID int64) []Comment {
	q := url.Values{}
	q.Set("post", strconv.FormatInt(postID, 10))
	q.Set("per_page", "100")
	q.Set("order", "asc")
	target := buildURL(c.hubURL, c.endpoints.Comments, q)
	records := c.readList(ctx, "comments", target, CacheNone)
	comments := make([]Comment, 0, len(records))
	for _, r := range records {
		comments = append(comments, normalizeComment(r))
	}
	return comments
}

// LikeHubPost records a like and returns the server's counters. token may
// be empty when the backend permits anonymous likes.
func (c *Client) LikeHubPost(ctx context.Context, token string, postID int64) (*HubStats, error) {
	return c.like(ctx, http.MethodPost, token, postID)
}

// UnlikeHubPost removes a like and returns the server's counters.
func (c *Client) UnlikeHubPost(ctx context.Context, token string, postID int64) (*HubStats, error) {
	return c.like(ctx, http.MethodDelete, token, postID)
}

func (c *Client) like(ctx context.Context, method, token string, postID int64) (*HubStats, error) {
	if postID <= 0 {
		return nil, &ValidationError{Field: "post_id", Message: "post_id is required"}
	}
	target := buildURL(c.hubURL, c.endpoints.HubLike, nil)
	body, err := c.send(ctx, "hub_like", method, target, token, map[string]int64{"post_id": postID})
	if err != nil {
		return nil, err
	}
	r, err := decodeRecord(body)
	if err != nil {
		return nil, fmt.Errorf("like response: %w", err)
	}
	s := normalizeStats(unwrapData(r))
	return &s, nil
}

// SubmitHubComment posts a comment. When token is set it is sent both as
// the bearer credential and as firebase_token for identity correlation.
func (c *Client) SubmitHubComment(ctx context.Context, token string, in CommentInput) (*Comment, error) {
	in.Content = strings.TrimSpace(in.Content)
	if err := Validate(in); err != nil {
		return nil, err
	}
	if token != "" && in.FirebaseToken == "" {
		in.FirebaseToken = token
	}
	target := buildURL(c.hubURL, c.endpoints.Comments, nil)
	body, err := c.send(ctx, "comments", http.MethodPost, target, token, in)
	if err != nil {
		return nil, err
	}
	r, err := decodeRecord(body)
	if err != nil {
		return nil, fmt.Errorf("comment response: %w", err)
	}
	cm := normalizeComment(r)
	if cm.PostID == 0 {
		cm.PostID = in.PostID
	}
	return &cm, nil
}

// unwrapData returns r["data"] when the backend wrapped its payload.
func unwrapData(r rawRecord) rawRecord {
	if d := r.obj("data"); d != nil {
		return d
	}
	return r
}
