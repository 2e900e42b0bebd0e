package gateway

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Dongwon38/wpyvr-sub000/pkg/client"
)

// HubHandler serves community hub posts and their engagement mutations.
type HubHandler struct {
	cms    *client.Client
	logger *zap.Logger
}

// NewHubHandler creates a HubHandler.
func NewHubHandler(cms *client.Client, logger *zap.Logger) *HubHandler {
	return &HubHandler{cms: cms, logger: logger}
}

// Register mounts the hub routes on rg. :post is a slug for the single read
// and a numeric post ID everywhere else.
func (h *HubHandler) Register(rg *gin.RouterGroup) {
	hub := rg.Group("/hub")
	{
		hub.GET("", h.ListHubPosts)
		hub.GET("/:post", h.GetHubPost)
		hub.GET("/:post/stats", h.GetStats)
		hub.GET("/:post/comments", h.ListComments)
		hub.POST("/:post/comments", optionalBearer(), h.SubmitComment)
		hub.POST("/:post/like", optionalBearer(), h.Like)
		hub.DELETE("/:post/like", optionalBearer(), h.Unlike)
	}
}

func postID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("post"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return 0, false
	}
	return id, true
}

// ListHubPosts handles GET /hub.
func (h *HubHandler) ListHubPosts(c *gin.Context) {
	posts := h.cms.FetchHubPosts(c.Request.Context(), listParams(c))
	c.JSON(http.StatusOK, gin.H{"posts": posts, "count": len(posts)})
}

// GetHubPost handles GET /hub/:post.
func (h *HubHandler) GetHubPost(c *gin.Context) {
	post := h.cms.FetchHubPostBySlug(c.Request.Context(), c.Param("post"))
	if post == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "hub post not found"})
		return
	}
	c.JSON(http.StatusOK, post)
}

// GetStats handles GET /hub/:post/stats.
func (h *HubHandler) GetStats(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	stats := h.cms.FetchHubPostStats(c.Request.Context(), id)
	if stats == nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "stats unavailable"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListComments handles GET /hub/:post/comments.
func (h *HubHandler) ListComments(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	comments := h.cms.FetchHubComments(c.Request.Context(), id)
	c.JSON(http.StatusOK, gin.H{"comments": comments, "count": len(comments)})
}

type commentRequest struct {
	Content     string `json:"content"`
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
	Parent      int64  `json:"parent"`
}

// SubmitComment handles POST /hub/:post/comments.
func (h *HubHandler) SubmitComment(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	cm, err := h.cms.SubmitHubComment(c.Request.Context(), c.GetString(ctxBearerToken), client.CommentInput{
		PostID:      id,
		Content:     req.Content,
		AuthorName:  req.AuthorName,
		AuthorEmail: req.AuthorEmail,
		Parent:      req.Parent,
	})
	if err != nil {
		writeError(c, h.logger, "submit comment", err)
		return
	}
	c.JSON(http.StatusCreated, cm)
}

// Like handles POST /hub/:post/like. The response carries the backend's
// counters, which replace whatever the caller had.
func (h *HubHandler) Like(c *gin.Context) {
	h.toggleLike(c, true)
}

// Unlike handles DELETE /hub/:post/like.
func (h *HubHandler) Unlike(c *gin.Context) {
	h.toggleLike(c, false)
}

func (h *HubHandler) toggleLike(c *gin.Context, like bool) {
	id, ok := postID(c)
	if !ok {
		return
	}
	token := c.GetString(ctxBearerToken)
	var (
		stats *client.HubStats
		err   error
	)
	if like {
		stats, err = h.cms.LikeHubPost(c.Request.Context(), token, id)
	} else {
		stats, err = h.cms.UnlikeHubPost(c.Request.Context(), token, id)
	}
	if err != nil {
		writeError(c, h.logger, "like", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
