package client

import (
	"context"

	"github.com/Dongwon38/wpyvr-sub000/pkg/htmltext"
)

// Page is a static CMS page.
type Page struct {
	ID       int64  `json:"id"`
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Date     string `json:"date"`
	Modified string `json:"modified"`
}

func (c *Client) normalizePage(r rawRecord) Page {
	id := r.intOr(0, "id")
	return Page{
		ID:       id,
		Slug:     effectiveSlug(r.str("slug"), id),
		Title:    htmltext.Title(r.rendered("title")),
		Content:  c.content(r.rendered("content")),
		Date:     r.str("date"),
		Modified: firstNonEmpty(r.str("modified"), r.str("date")),
	}
}

// FetchPages lists pages.
func (c *Client) FetchPages(ctx context.Context, p ListParams) []Page {
	target := buildURL(c.baseURL, c.endpoints.Pages, p.query(false))
	records := c.readList(ctx, "pages", target, CacheLong)
	pages := make([]Page, 0, len(records))
	for _, r := range records {
		pages = append(pages, c.normalizePage(r))
	}
	return pages
}

// FetchPageBySlug returns one page, or nil.
func (c *Client) FetchPageBySlug(ctx context.Context, slug string) *Page {
	r := c.readBySlug(ctx, "pages", c.baseURL, c.endpoints.Pages, slug, CacheLong, false)
	if r == nil {
		return nil
	}
	page := c.normalizePage(r)
	return &page
}
