package gateway

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Dongwon38/wpyvr-sub000/pkg/client"
)

const maxPerPage = 100

// ContentHandler serves the normalized read views. Upstream failures
// degrade to empty lists, so list routes always answer 200.
type ContentHandler struct {
	cms    *client.Client
	logger *zap.Logger
}

// NewContentHandler creates a ContentHandler.
func NewContentHandler(cms *client.Client, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{cms: cms, logger: logger}
}

// Register mounts the read routes on rg.
func (h *ContentHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/posts", h.ListPosts)
	rg.GET("/posts/:slug", h.GetPost)
	rg.GET("/categories", h.ListCategories)
	rg.GET("/categories/:id/posts", h.ListCategoryPosts)
	rg.GET("/events", h.ListEvents)
	rg.GET("/events/:slug", h.GetEvent)
	rg.GET("/pages", h.ListPages)
	rg.GET("/pages/:slug", h.GetPage)
	rg.GET("/members", h.ListMembers)
}

// listParams reads pagination and filters from the query string. Bad
// numbers fall back to the defaults.
func listParams(c *gin.Context) client.ListParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	category, _ := strconv.ParseInt(c.Query("category"), 10, 64)
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > maxPerPage {
		perPage = 10
	}
	order := strings.ToLower(c.Query("order"))
	if order != "asc" && order != "desc" {
		order = ""
	}
	return client.ListParams{
		Page:     page,
		PerPage:  perPage,
		OrderBy:  c.Query("orderby"),
		Order:    order,
		Category: category,
		Search:   strings.TrimSpace(c.Query("search")),
	}
}

// ListPosts handles GET /posts.
func (h *ContentHandler) ListPosts(c *gin.Context) {
	posts := h.cms.FetchBlogPosts(c.Request.Context(), listParams(c))
	c.JSON(http.StatusOK, gin.H{"posts": posts, "count": len(posts)})
}

// GetPost handles GET /posts/:slug.
func (h *ContentHandler) GetPost(c *gin.Context) {
	post := h.cms.FetchBlogPostBySlug(c.Request.Context(), c.Param("slug"))
	if post == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	c.JSON(http.StatusOK, post)
}

// ListCategories handles GET /categories.
func (h *ContentHandler) ListCategories(c *gin.Context) {
	cats := h.cms.FetchCategories(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"categories": cats, "count": len(cats)})
}

// ListCategoryPosts handles GET /categories/:id/posts.
func (h *ContentHandler) ListCategoryPosts(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category id"})
		return
	}
	posts := h.cms.FetchPostsByCategory(c.Request.Context(), id, listParams(c))
	c.JSON(http.StatusOK, gin.H{"category": id, "posts": posts, "count": len(posts)})
}

// ListEvents handles GET /events. ?upcoming=true drops past events.
func (h *ContentHandler) ListEvents(c *gin.Context) {
	events := h.cms.FetchEvents(c.Request.Context(), listParams(c))
	if c.Query("upcoming") == "true" {
		upcoming := events[:0]
		for _, e := range events {
			if !e.IsPast {
				upcoming = append(upcoming, e)
			}
		}
		events = upcoming
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

// GetEvent handles GET /events/:slug.
func (h *ContentHandler) GetEvent(c *gin.Context) {
	ev := h.cms.FetchEventBySlug(c.Request.Context(), c.Param("slug"))
	if ev == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	c.JSON(http.StatusOK, ev)
}

// ListPages handles GET /pages.
func (h *ContentHandler) ListPages(c *gin.Context) {
	pages := h.cms.FetchPages(c.Request.Context(), listParams(c))
	c.JSON(http.StatusOK, gin.H{"pages": pages, "count": len(pages)})
}

// GetPage handles GET /pages/:slug.
func (h *ContentHandler) GetPage(c *gin.Context) {
	page := h.cms.FetchPageBySlug(c.Request.Context(), c.Param("slug"))
	if page == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
		return
	}
	c.JSON(http.StatusOK, page)
}

// ListMembers handles GET /members.
func (h *ContentHandler) ListMembers(c *gin.Context) {
	members := h.cms.FetchMembers(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"members": members, "count": len(members)})
}
