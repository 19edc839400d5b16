package handler

import (
	"errors"
	"net/http"

	"sociallogin/internal/content"
	"sociallogin/internal/middleware"
	"sociallogin/internal/model"

	"github.com/gin-gonic/gin"
)

type postRequest struct {
	Title   string `json:"title" binding:"required,max=200"`
	Content string `json:"content"`
	// Format of Content: "markdown" (default) or "html".
	Format string `json:"format"`
}

func (r *postRequest) toPost(c *gin.Context) (*model.Post, bool) {
	body, err := content.ToMarkdown(r.Format, r.Content)
	if err != nil {
		if errors.Is(err, content.ErrUnknownFormat) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return nil, false
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "content could not be converted"})
		return nil, false
	}
	return &model.Post{
		UserID:  middleware.UserID(c),
		Title:   r.Title,
		Content: body,
	}, true
}

func (h *Handler) ListPosts(c *gin.Context) {
	posts, err := h.posts.ListPosts(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.internalError(c, "list posts", err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.posts.GetPost(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.storeError(c, "get post", err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handler) CreatePost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	post, ok := req.toPost(c)
	if !ok {
		return
	}

	created, err := h.posts.CreatePost(c.Request.Context(), post)
	if err != nil {
		h.internalError(c, "create post", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) UpdatePost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	post, ok := req.toPost(c)
	if !ok {
		return
	}
	post.ID = c.Param("id")

	updated, err := h.posts.UpdatePost(c.Request.Context(), post)
	if err != nil {
		h.storeError(c, "update post", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeletePost(c *gin.Context) {
	if err := h.posts.DeletePost(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		h.storeError(c, "delete post", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) storeError(c *gin.Context, op string, err error) {
	if errors.Is(err, model.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	h.internalError(c, op, err)
}
