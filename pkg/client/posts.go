package client

import (
	"context"
	"net/url"
	"strconv"

	"github.com/Dongwon38/wpyvr-sub000/pkg/htmltext"
)

// ListParams controls pagination, ordering and filtering of collection reads.
// Zero values fall back to the CMS defaults used by the site.
type ListParams struct {
	Page     int
	PerPage  int
	OrderBy  string
	Order    string
	Category int64
	Search   string
}

func (p ListParams) query(embed bool) url.Values {
	q := url.Values{}
	perPage := p.PerPage
	if perPage <= 0 {
		perPage = 10
	}
	page := p.Page
	if page <= 0 {
		page = 1
	}
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", strconv.Itoa(page))
	if p.OrderBy != "" {
		q.Set("orderby", p.OrderBy)
	}
	if p.Order != "" {
		q.Set("order", p.Order)
	}
	if p.Category > 0 {
		q.Set("categories", strconv.FormatInt(p.Category, 10))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if embed {
		q.Set("_embed", "true")
	}
	return q
}

func slugQuery(slug string, embed bool) url.Values {
	q := url.Values{}
	q.Set("slug", slug)
	if embed {
		q.Set("_embed", "true")
	}
	return q
}

// Post is the normalized blog post view model.
type Post struct {
	ID            int64   `json:"id"`
	Slug          string  `json:"slug"`
	Title         string  `json:"title"`
	Excerpt       string  `json:"excerpt"`
	Content       string  `json:"content"`
	Date          string  `json:"date"`
	Modified      string  `json:"modified,omitempty"`
	Author        string  `json:"author"`
	AuthorAvatar  string  `json:"author_avatar,omitempty"`
	FeaturedImage string  `json:"featured_image,omitempty"`
	Categories    []int64 `json:"categories"`
}

// Category is a post category.
type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int64  `json:"count"`
}

func (c *Client) normalizePost(r rawRecord) Post {
	id := r.intOr(0, "id")
	author := r.embeddedAuthor()
	return Post{
		ID:            id,
		Slug:          effectiveSlug(r.str("slug"), id),
		Title:         htmltext.Title(r.rendered("title")),
		Excerpt:       htmltext.PlainText(r.rendered("excerpt")),
		Content:       c.content(r.rendered("content")),
		Date:          r.str("date"),
		Modified:      r.str("modified"),
		Author:        htmltext.Title(firstNonEmpty(author.str("name"), r.str("author_name"))),
		AuthorAvatar:  avatarURL(author),
		FeaturedImage: r.featuredImage(),
		Categories:    r.ints("categories"),
	}
}

func normalizeCategory(r rawRecord) Category {
	id := r.intOr(0, "id")
	return Category{
		ID:    id,
		Name:  htmltext.Title(r.str("name")),
		Slug:  effectiveSlug(r.str("slug"), id),
		Count: r.intOr(0, "count"),
	}
}

// FetchBlogPosts lists posts. It never fails: errors are logged and an
// empty slice is returned.
func (c *Client) FetchBlogPosts(ctx context.Context, p ListParams) []Post {
	target := buildURL(c.baseURL, c.endpoints.Posts, p.query(true))
	records := c.readList(ctx, "posts", target, CacheShort)
	posts := make([]Post, 0, len(records))
	for _, r := range records {
		posts = append(posts, c.normalizePost(r))
	}
	return posts
}

// FetchPostsByCategory lists posts in one category.
func (c *Client) FetchPostsByCategory(ctx context.Context, categoryID int64, p ListParams) []Post {
	p.Category = categoryID
	return c.FetchBlogPosts(ctx, p)
}

// FetchBlogPostBySlug returns the post with the given slug, or nil when it
// does not exist or could not be fetched. A purely numeric slug that matches
// nothing is retried as a post ID, so records normalized with the ID
// fallback stay routable.
func (c *Client) FetchBlogPostBySlug(ctx context.Context, slug string) *Post {
	r := c.readBySlug(ctx, "posts", c.baseURL, c.endpoints.Posts, slug, CacheShort, true)
	if r == nil {
		return nil
	}
	post := c.normalizePost(r)
	return &post
}

// FetchCategories lists all non-empty categories.
func (c *Client) FetchCategories(ctx context.Context) []Category {
	q := url.Values{}
	q.Set("per_page", "100")
	q.Set("hide_empty", "true")
	target := buildURL(c.baseURL, c.endpoints.Categories, q)
	records := c.readList(ctx, "categories", target, CacheLong)
	cats := make([]Category, 0, len(records))
	for _, r := range records {
		cats = append(cats, normalizeCategory(r))
	}
	return cats
}

// readList performs a collection read and degrades to nil on any failure.
func (c *Client) readList(ctx context.Context, resource, target string, policy CachePolicy) []rawRecord {
	body, err := c.getRaw(ctx, resource, target, "", policy)
	if err != nil {
		c.degrade(resource, target, err)
		return nil
	}
	records, err := decodeRecords(body, "data", "items")
	if err != nil {
		c.degrade(resource, target, err)
		return nil
	}
	return records
}

// readBySlug looks a single resource up through ?slug=. When the slug is
// numeric and the lookup is empty, it falls back to /{path}/{id}.
func (c *Client) readBySlug(ctx context.Context, resource, base, path, slug string, policy CachePolicy, embed bool) rawRecord {
	if slug == "" {
		return nil
	}
	target := buildURL(base, path, slugQuery(slug, embed))
	if records := c.readList(ctx, resource, target, policy); len(records) > 0 {
		return records[0]
	}

	if _, err := strconv.ParseInt(slug, 10, 64); err != nil {
		return nil
	}
	q := url.Values{}
	if embed {
		q.Set("_embed", "true")
	}
	target = buildURL(base, path+"/"+slug, q)
	body, err := c.getRaw(ctx, resource, target, "", policy)
	if err != nil {
		c.degrade(resource, target, err)
		return nil
	}
	r, err := decodeRecord(body)
	if err != nil {
		c.degrade(resource, target, err)
		return nil
	}
	return r
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
