package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/youzarsiph/the-certain-news/internal/middleware"
	"github.com/youzarsiph/the-certain-news/internal/models"
	"github.com/youzarsiph/the-certain-news/internal/services"
)

type CategoryHandler struct {
	categories *services.CategoryService
	log        *zap.Logger
}

func (h *CategoryHandler) GetCategories(c *gin.Context) {
	locale := c.DefaultQuery("locale", middleware.Language(c))
	items, page, err := h.categories.List(c.Request.Context(), actor(c), locale, c.Query("page"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	paginated(c, page, items)
}

func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	category, err := h.categories.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// GetChildren pages through the live articles of a category, newest first.
func (h *CategoryHandler) GetChildren(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	_, page, err := h.categories.Children(c.Request.Context(), id, c.Query("page"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	paginated(c, page.Page, page.Items)
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var input models.CategoryRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category, err := h.categories.Create(c.Request.Context(), actor(c), input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.CategoryRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category, err := h.categories.Update(c.Request.Context(), actor(c), id, input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.categories.Delete(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
