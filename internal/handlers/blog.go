package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"

	"heritage-platform/internal/middleware"
	"heritage-platform/internal/models"
	"heritage-platform/internal/store"
)

// BlogHandler serves the news/blog CMS. Reads are public; writes run
// behind the admin gate. Content is sanitised before it is stored.
type BlogHandler struct {
	Store    *store.Store
	Sanitize *bluemonday.Policy
}

func NewBlogHandler(s *store.Store) *BlogHandler {
	return &BlogHandler{
		Store:    s,
		Sanitize: bluemonday.UGCPolicy(),
	}
}

func (h *BlogHandler) List(c *gin.Context) {
	blogs, err := h.Store.ListBlogs(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("listing blogs failed")
		fail(c, http.StatusInternalServerError, serverErrorMessage)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "blogs": blogs})
}

func (h *BlogHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid blog id")
		return
	}

	blog, err := h.Store.GetBlog(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(c, http.StatusNotFound, "Blog entry not found")
			return
		}
		log.Error().Err(err).Int64("blog_id", id).Msg("getting blog failed")
		fail(c, http.StatusInternalServerError, serverErrorMessage)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "blog": blog})
}

type BlogRequest struct {
	Title   string   `json:"title" binding:"required,max=200"`
	Content string   `json:"content" binding:"required"`
	Image   string   `json:"image" binding:"required"`
	Tags    []string `json:"tags"`
}

func (h *BlogHandler) Create(c *gin.Context) {
	author, ok := middleware.CurrentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Please sign in")
		return
	}

	var req BlogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Title, content and image are required")
		return
	}

	blog, err := h.Store.CreateBlog(c.Request.Context(), models.Blog{
		Title:    req.Title,
		Content:  h.Sanitize.Sanitize(req.Content),
		Image:    req.Image,
		AuthorID: author.ID,
		Tags:     models.Tags(req.Tags),
	})
	if err != nil {
		log.Error().Err(err).Msg("creating blog failed")
		fail(c, http.StatusInternalServerError, serverErrorMessage)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "blog": blog})
}

func (h *BlogHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid blog id")
		return
	}

	var req BlogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Title, content and image are required")
		return
	}

	blog, err := h.Store.UpdateBlog(c.Request.Context(), id,
		req.Title, h.Sanitize.Sanitize(req.Content), req.Image, models.Tags(req.Tags))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(c, http.StatusNotFound, "Blog entry not found")
			return
		}
		log.Error().Err(err).Int64("blog_id", id).Msg("updating blog failed")
		fail(c, http.StatusInternalServerError, serverErrorMessage)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "blog": blog})
}

func (h *BlogHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid blog id")
		return
	}

	if err := h.Store.DeleteBlog(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(c, http.StatusNotFound, "Blog entry not found")
			return
		}
		log.Error().Err(err).Int64("blog_id", id).Msg("deleting blog failed")
		fail(c, http.StatusInternalServerError, serverErrorMessage)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Blog entry deleted"})
}
