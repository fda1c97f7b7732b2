package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/youzarsiph/the-certain-news/internal/models"
	"github.com/youzarsiph/the-certain-news/internal/services"
)

type TagHandler struct {
	tags *services.TagService
	log  *zap.Logger
}

func (h *TagHandler) GetTags(c *gin.Context) {
	items, page, err := h.tags.List(c.Request.Context(), c.Query("search"), c.Query("page"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	paginated(c, page, items)
}

// GetTag looks a tag up by id or slug.
func (h *TagHandler) GetTag(c *gin.Context) {
	tag, err := h.tags.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (h *TagHandler) CreateTag(c *gin.Context) {
	var input models.TagRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tag, err := h.tags.Create(c.Request.Context(), actor(c), input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func (h *TagHandler) UpdateTag(c *gin.Context) {
	id, ok := paramID(c, "key")
	if !ok {
		return
	}
	var input models.TagRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tag, err := h.tags.Update(c.Request.Context(), actor(c), id, input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (h *TagHandler) DeleteTag(c *gin.Context) {
	id, ok := paramID(c, "key")
	if !ok {
		return
	}
	if err := h.tags.Delete(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
