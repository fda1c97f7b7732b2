package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/youzarsiph/the-certain-news/internal/services"
)

// ReportHandler serves the staff only report moderation endpoints. Reports
// are filed through ArticleHandler.ReportArticle.
type ReportHandler struct {
	reports *services.ReportService
	log     *zap.Logger
}

func (h *ReportHandler) GetReports(c *gin.Context) {
	f := services.ReportFilter{Reason: c.Query("reason"), Page: c.Query("page")}
	var ok bool
	if f.ArticleID, ok = queryID(c, "article"); !ok {
		return
	}
	items, page, err := h.reports.List(c.Request.Context(), actor(c), f)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	paginated(c, page, items)
}

func (h *ReportHandler) GetReport(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	report, err := h.reports.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) DeleteReport(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.reports.Delete(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
