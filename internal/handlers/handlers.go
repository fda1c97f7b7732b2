package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/youzarsiph/the-certain-news/internal/middleware"
	"github.com/youzarsiph/the-certain-news/internal/pagination"
	"github.com/youzarsiph/the-certain-news/internal/services"
)

// Handler combines all handler types
type Handler struct {
	Auth       *AuthHandler
	Articles   *ArticleHandler
	Categories *CategoryHandler
	Comments   *CommentHandler
	Reactions  *ReactionHandler
	Users      *UserHandler
	Reports    *ReportHandler
	Tags       *TagHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(svc *services.Services, jwt *middleware.JWT, log *zap.Logger) *Handler {
	log = log.Named("api")
	return &Handler{
		Auth:       &AuthHandler{users: svc.Users, jwt: jwt, log: log},
		Articles:   &ArticleHandler{articles: svc.Articles, comments: svc.Comments, reactions: svc.Reactions, reports: svc.Reports, log: log},
		Categories: &CategoryHandler{categories: svc.Categories, log: log},
		Comments:   &CommentHandler{comments: svc.Comments, log: log},
		Reactions:  &ReactionHandler{reactions: svc.Reactions, log: log},
		Users:      &UserHandler{users: svc.Users, log: log},
		Reports:    &ReportHandler{reports: svc.Reports, log: log},
		Tags:       &TagHandler{tags: svc.Tags, log: log},
	}
}

// StatusOf maps a service error onto an HTTP status code.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, pagination.ErrInvalidPage):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the text shown to clients for err.
func Message(err error) string {
	if StatusOf(err) == http.StatusInternalServerError {
		return "Internal server error"
	}
	msg := err.Error()
	for _, prefix := range []string{services.ErrInvalid.Error() + ": ", services.ErrForbidden.Error() + ": "} {
		msg = strings.TrimPrefix(msg, prefix)
	}
	return msg
}

func respondError(c *gin.Context, log *zap.Logger, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		log.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": Message(err)})
}

func actor(c *gin.Context) services.Actor {
	id, _ := middleware.UserID(c)
	return services.Actor{ID: id, IsStaff: middleware.IsStaff(c)}
}

// paramID reads a positive integer path parameter, answering 404 otherwise.
func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 1 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return 0, false
	}
	return id, true
}

// queryID reads an optional integer filter. Zero means absent.
func queryID(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be an integer"})
		return 0, false
	}
	return id, true
}

// pageLink returns the URL of another page of the current request.
func pageLink(c *gin.Context, number int) *string {
	if number == 0 {
		return nil
	}
	u := url.URL{Path: c.Request.URL.Path}
	q := c.Request.URL.Query()
	q.Set(pagination.PageParam, strconv.Itoa(number))
	u.RawQuery = q.Encode()
	link := u.String()
	return &link
}

// paginated writes a page of results in the count/next/previous/results
// envelope.
func paginated(c *gin.Context, page pagination.Page, results any) {
	c.JSON(http.StatusOK, gin.H{
		"count":    page.Count,
		"next":     pageLink(c, page.NextNumber()),
		"previous": pageLink(c, page.PreviousNumber()),
		"results":  results,
	})
}
