package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/youzarsiph/the-certain-news/internal/models"
	"github.com/youzarsiph/the-certain-news/internal/services"
)

type CommentHandler struct {
	comments *services.CommentService
	log      *zap.Logger
}

// GetComments lists comments, filtered by ?article=, ?owner= and ?parent=.
func (h *CommentHandler) GetComments(c *gin.Context) {
	f := services.CommentFilter{Ordering: c.Query("ordering"), Page: c.Query("page")}
	var ok bool
	if f.ArticleID, ok = queryID(c, "article"); !ok {
		return
	}
	if f.OwnerID, ok = queryID(c, "owner"); !ok {
		return
	}
	if f.ParentID, ok = queryID(c, "parent"); !ok {
		return
	}

	items, page, err := h.comments.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	paginated(c, page, items)
}

func (h *CommentHandler) GetComment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	comment, err := h.comments.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// ReplyComment answers a comment on the same article.
func (h *CommentHandler) ReplyComment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.CommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content is required"})
		return
	}
	comment, err := h.comments.Reply(c.Request.Context(), actor(c), id, input.Content)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// UpdateComment updates a comment (only by owner)
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.CommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content is required"})
		return
	}
	comment, err := h.comments.Update(c.Request.Context(), actor(c), id, input.Content)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// DeleteComment deletes a comment (by owner or staff)
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.comments.Delete(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
