package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/youzarsiph/the-certain-news/internal/models"
	"github.com/youzarsiph/the-certain-news/internal/services"
)

type ReactionHandler struct {
	reactions *services.ReactionService
	log       *zap.Logger
}

// GetReactions lists the caller's own reactions.
func (h *ReactionHandler) GetReactions(c *gin.Context) {
	f := services.ReactionFilter{Emoji: c.Query("emoji"), Page: c.Query("page")}
	var ok bool
	if f.ArticleID, ok = queryID(c, "article"); !ok {
		return
	}
	items, page, err := h.reactions.Mine(c.Request.Context(), actor(c), f)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	paginated(c, page, items)
}

func (h *ReactionHandler) GetReaction(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	reaction, err := h.reactions.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, reaction)
}

func (h *ReactionHandler) UpdateReaction(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.ReactionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reaction, err := h.reactions.Update(c.Request.Context(), actor(c), id, input.Emoji)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, reaction)
}

func (h *ReactionHandler) DeleteReaction(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.reactions.Delete(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
