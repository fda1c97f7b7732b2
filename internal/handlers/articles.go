package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/youzarsiph/the-certain-news/internal/middleware"
	"github.com/youzarsiph/the-certain-news/internal/models"
	"github.com/youzarsiph/the-certain-news/internal/services"
)

type ArticleHandler struct {
	articles  *services.ArticleService
	comments  *services.CommentService
	reactions *services.ReactionService
	reports   *services.ReportService
	log       *zap.Logger
}

// filter builds the list filter from the query string. The locale is the
// resolved request language unless ?locale= overrides it.
func (h *ArticleHandler) filter(c *gin.Context) (services.ArticleFilter, bool) {
	f := services.ArticleFilter{
		Locale:   c.DefaultQuery("locale", middleware.Language(c)),
		Tag:      c.Query("tag"),
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
		Page:     c.Query("page"),
	}
	if raw := c.Query("is_breaking"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "is_breaking must be a boolean"})
			return f, false
		}
		f.IsBreaking = &v
	}
	var ok bool
	if f.CategoryID, ok = queryID(c, "category"); !ok {
		return f, false
	}
	if f.OwnerID, ok = queryID(c, "owner"); !ok {
		return f, false
	}
	return f, true
}

func (h *ArticleHandler) writePage(c *gin.Context, page *services.ArticlePage, err error) {
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	paginated(c, page.Page, page.Items)
}

// GetArticles lists live articles.
func (h *ArticleHandler) GetArticles(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}
	page, err := h.articles.List(c.Request.Context(), f)
	h.writePage(c, page, err)
}

// GetPopular lists live articles, most starred first.
func (h *ArticleHandler) GetPopular(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}
	page, err := h.articles.Popular(c.Request.Context(), f)
	h.writePage(c, page, err)
}

// GetDrafts lists the caller's drafts, every draft for staff.
func (h *ArticleHandler) GetDrafts(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}
	f.Locale = c.Query("locale")
	page, err := h.articles.Drafts(c.Request.Context(), actor(c), f)
	h.writePage(c, page, err)
}

func (h *ArticleHandler) GetSaved(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}
	f.Locale = c.Query("locale")
	page, err := h.articles.Saved(c.Request.Context(), actor(c), f)
	h.writePage(c, page, err)
}

func (h *ArticleHandler) GetStarred(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}
	f.Locale = c.Query("locale")
	page, err := h.articles.Starred(c.Request.Context(), actor(c), f)
	h.writePage(c, page, err)
}

// GetFollowing lists articles written by users the caller follows.
func (h *ArticleHandler) GetFollowing(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}
	page, err := h.articles.Following(c.Request.Context(), actor(c), f)
	h.writePage(c, page, err)
}

// GetArchive lists articles of /archive/:year[/:month[/:day]].
func (h *ArticleHandler) GetArchive(c *gin.Context) {
	var parts [3]int
	for i, name := range []string{"year", "month", "day"} {
		raw := c.Param(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		parts[i] = n
	}
	f, ok := h.filter(c)
	if !ok {
		return
	}
	page, err := h.articles.Archive(c.Request.Context(), parts[0], parts[1], parts[2], f)
	h.writePage(c, page, err)
}

// GetHome returns the home page aggregates.
func (h *ArticleHandler) GetHome(c *gin.Context) {
	home, err := h.articles.Home(c.Request.Context(), middleware.Language(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"trending":   home.Trending,
		"latest":     home.Latest,
		"breaking":   home.Breaking,
		"categories": home.Categories,
	})
}

// GetArticle returns a single article by ID
func (h *ArticleHandler) GetArticle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	article, err := h.articles.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// CreateArticle creates a draft owned by the caller.
func (h *ArticleHandler) CreateArticle(c *gin.Context) {
	var input models.CreateArticleRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	article, err := h.articles.Create(c.Request.Context(), actor(c), input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, article)
}

func (h *ArticleHandler) UpdateArticle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.UpdateArticleRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	article, err := h.articles.Update(c.Request.Context(), actor(c), id, input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

func (h *ArticleHandler) DeleteArticle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.articles.Delete(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ArticleHandler) PublishArticle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	article, err := h.articles.Publish(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

func (h *ArticleHandler) UnpublishArticle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	article, err := h.articles.Unpublish(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// toggle runs one of the toggle style actions and answers with its message.
func (h *ArticleHandler) toggle(c *gin.Context, fn func(id int) (string, error)) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	msg, err := fn(id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// ReactArticle adds, changes or removes the caller's reaction.
func (h *ArticleHandler) ReactArticle(c *gin.Context) {
	var input models.ReactionRequest
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.toggle(c, func(id int) (string, error) {
		return h.articles.React(c.Request.Context(), actor(c), id, input.Emoji)
	})
}

func (h *ArticleHandler) StarArticle(c *gin.Context) {
	h.toggle(c, func(id int) (string, error) {
		return h.articles.Star(c.Request.Context(), actor(c), id)
	})
}

func (h *ArticleHandler) SaveArticle(c *gin.Context) {
	h.toggle(c, func(id int) (string, error) {
		return h.articles.Save(c.Request.Context(), actor(c), id)
	})
}

func (h *ArticleHandler) GetRecommendations(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	items, err := h.articles.Recommendations(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *ArticleHandler) SetRecommendations(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input struct {
		IDs []int `json:"ids" binding:"required,dive,min=1"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.articles.SetRecommendations(c.Request.Context(), actor(c), id, input.IDs); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Recommendations updated"})
}

func (h *ArticleHandler) GetTranslations(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	items, err := h.articles.Translations(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// TranslateArticle creates a machine translated draft in another language.
func (h *ArticleHandler) TranslateArticle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Language string `json:"language" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	article, err := h.articles.Translate(c.Request.Context(), actor(c), id, input.Language)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, article)
}

// GetComments lists the comments of a live article.
func (h *ArticleHandler) GetComments(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	items, page, err := h.comments.List(c.Request.Context(), services.CommentFilter{
		ArticleID: id,
		Ordering:  c.Query("ordering"),
		Page:      c.Query("page"),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	paginated(c, page, items)
}

func (h *ArticleHandler) CreateComment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.CommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content is required"})
		return
	}
	comment, err := h.comments.Create(c.Request.Context(), actor(c), id, input.Content)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// GetReactions returns the reaction counts of an article by emoji.
func (h *ArticleHandler) GetReactions(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	summary, err := h.reactions.Summary(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *ArticleHandler) ReportArticle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.ReportRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	report, err := h.reports.Create(c.Request.Context(), actor(c), id, input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}
