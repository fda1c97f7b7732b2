// Package feeds serves RSS 2.0 and Atom feeds of the latest articles.
package feeds

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/feeds"
	"go.uber.org/zap"

	"github.com/youzarsiph/the-certain-news/internal/middleware"
	"github.com/youzarsiph/the-certain-news/internal/models"
)

const (
	Title       = "The Certain News feed"
	AuthorName  = "The Certain News"
	AuthorEmail = "feed@certain.news"
	Description = "Latest news from the World"

	itemLimit = 25
)

// Source loads the newest live articles of a locale with their category
// and link.
type Source interface {
	Latest(ctx context.Context, locale string, breakingOnly bool, limit int) ([]models.Article, error)
}

type Handler struct {
	source  Source
	siteURL string
	log     *zap.Logger
}

func NewHandler(source Source, siteURL string, log *zap.Logger) *Handler {
	return &Handler{source: source, siteURL: strings.TrimRight(siteURL, "/"), log: log.Named("feeds")}
}

// Register mounts the four feeds under group.
func (h *Handler) Register(group *gin.RouterGroup) {
	group.GET("/rss/", h.RSS(false))
	group.GET("/atom/", h.Atom(false))
	group.GET("/breaking/rss/", h.RSS(true))
	group.GET("/breaking/atom/", h.Atom(true))
}

func (h *Handler) build(c *gin.Context, breaking bool) (*feeds.Feed, []models.Article, bool) {
	articles, err := h.source.Latest(c.Request.Context(), middleware.Language(c), breaking, itemLimit)
	if err != nil {
		h.log.Error("Failed to load feed articles", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to build feed")
		return nil, nil, false
	}

	feed := &feeds.Feed{
		Title:       Title,
		Link:        &feeds.Link{Href: h.siteURL + c.Request.URL.Path},
		Description: Description,
		Author:      &feeds.Author{Name: AuthorName, Email: AuthorEmail},
		Updated:     time.Now().UTC(),
	}
	if len(articles) > 0 {
		feed.Updated = articles[0].UpdatedAt
	}

	for _, a := range articles {
		link := h.siteURL + a.ShortURL()
		feed.Add(&feeds.Item{
			Title:       a.Title,
			Link:        &feeds.Link{Href: link},
			Description: a.Headline,
			Id:          link,
			IsPermaLink: "true",
			Created:     a.CreatedAt,
			Updated:     a.UpdatedAt,
		})
	}
	return feed, articles, true
}

// RSS serves an RSS 2.0 feed.
func (h *Handler) RSS(breaking bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		feed, articles, ok := h.build(c, breaking)
		if !ok {
			return
		}
		rss := (&feeds.Rss{Feed: feed}).RssFeed()
		for i, item := range rss.Items {
			item.Category = articles[i].Category.Title
		}
		h.write(c, "application/rss+xml; charset=utf-8", rss)
	}
}

// Atom serves an Atom 1.0 feed.
func (h *Handler) Atom(breaking bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		feed, articles, ok := h.build(c, breaking)
		if !ok {
			return
		}
		feed.Subtitle = Description
		atom := (&feeds.Atom{Feed: feed}).AtomFeed()
		for i, entry := range atom.Entries {
			entry.Category = articles[i].Category.Title
			entry.Published = articles[i].CreatedAt.Format(time.RFC3339)
		}
		h.write(c, "application/atom+xml; charset=utf-8", atom)
	}
}

func (h *Handler) write(c *gin.Context, contentType string, feed feeds.XmlFeed) {
	body, err := feeds.ToXML(feed)
	if err != nil {
		h.log.Error("Failed to encode feed", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to build feed")
		return
	}
	c.Data(http.StatusOK, contentType, []byte(body))
}
