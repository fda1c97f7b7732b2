// Package ui renders the server side pages of the site.
package ui

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/youzarsiph/the-certain-news/internal/handlers"
	"github.com/youzarsiph/the-certain-news/internal/middleware"
	"github.com/youzarsiph/the-certain-news/internal/pagination"
	"github.com/youzarsiph/the-certain-news/internal/services"
)

//go:embed templates/*.html
var files embed.FS

var funcs = template.FuncMap{
	"since": func(t time.Time) string { return humanize.Time(t) },
	"date":  func(t time.Time) string { return t.Format("January 2, 2006") },
	// content is sanitized when it is saved
	"safe": func(s string) template.HTML { return template.HTML(s) },
}

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(files, "templates/*.html")
}

type Handler struct {
	svc   *services.Services
	langs *middleware.Languages
	tmpl  *template.Template
	log   *zap.Logger
}

func New(svc *services.Services, langs *middleware.Languages, log *zap.Logger) (*Handler, error) {
	tmpl, err := Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Handler{svc: svc, langs: langs, tmpl: tmpl, log: log.Named("ui")}, nil
}

// Template returns the parsed templates for gin's HTML renderer.
func (h *Handler) Template() *template.Template {
	return h.tmpl
}

// Register mounts the pages. The group must run the language and optional
// auth middleware.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/", h.Home)
	r.GET("/categories/:id/:slug/", h.Category)
	r.GET("/articles/:id/:slug/", h.Article)
	r.GET("/search/", h.Search)
	r.GET("/archive/", h.Archive)
	r.GET("/archive/:year/", h.Archive)
	r.GET("/archive/:year/:month/", h.Archive)
	r.GET("/archive/:year/:month/:day/", h.Archive)
	r.GET("/l/:slug/", h.Redirect)
}

type view struct {
	Lang      string
	Languages []string
	Title     string
	Data      any
}

// Pager renders page links that keep the rest of the query string.
type Pager struct {
	Page  pagination.Page
	query url.Values
}

func newPager(c *gin.Context, page pagination.Page) Pager {
	return Pager{Page: page, query: c.Request.URL.Query()}
}

func (p Pager) URL(number int) string {
	q := url.Values{}
	for k, v := range p.query {
		q[k] = v
	}
	q.Set(pagination.PageParam, strconv.Itoa(number))
	return "?" + q.Encode()
}

func actor(c *gin.Context) services.Actor {
	id, _ := middleware.UserID(c)
	return services.Actor{ID: id, IsStaff: middleware.IsStaff(c)}
}

func (h *Handler) render(c *gin.Context, status int, name, title string, data any) {
	c.HTML(status, name, view{
		Lang:      middleware.Language(c),
		Languages: h.langs.Codes(),
		Title:     title,
		Data:      data,
	})
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := handlers.StatusOf(err)
	if status == http.StatusInternalServerError {
		h.log.Error("Page failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	h.render(c, status, "error.html", http.StatusText(status), gin.H{
		"Status":  status,
		"Message": handlers.Message(err),
	})
}

func (h *Handler) notFound(c *gin.Context) {
	h.fail(c, services.ErrNotFound)
}

func (h *Handler) Home(c *gin.Context) {
	home, err := h.svc.Articles.Home(c.Request.Context(), middleware.Language(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "home.html", "", home)
}

// Category lists the articles of a category, ?page=N or ?page=last.
func (h *Handler) Category(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.notFound(c)
		return
	}
	category, page, err := h.svc.Categories.Children(c.Request.Context(), id, c.Query(pagination.PageParam))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "category.html", category.Title, gin.H{
		"Category": category,
		"Articles": page,
		"Pager":    newPager(c, page.Page),
	})
}

// Article shows a live article with its comments, reactions and
// recommendations. A stale slug redirects to the canonical URL.
func (h *Handler) Article(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.notFound(c)
		return
	}
	ctx := c.Request.Context()
	article, err := h.svc.Articles.Get(ctx, actor(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if c.Param("slug") != article.Slug {
		c.Redirect(http.StatusMovedPermanently, article.Article.URL())
		return
	}

	data := gin.H{"Article": article}
	if article.Live {
		comments, _, err := h.svc.Comments.List(ctx, services.CommentFilter{ArticleID: id})
		if err != nil {
			h.fail(c, err)
			return
		}
		recommendations, err := h.svc.Articles.Recommendations(ctx, id)
		if err != nil {
			h.fail(c, err)
			return
		}
		reactions, err := h.svc.Reactions.Summary(ctx, id)
		if err != nil {
			h.fail(c, err)
			return
		}
		data["Comments"] = comments
		data["Recommendations"] = recommendations
		data["Reactions"] = reactions
	}
	h.render(c, http.StatusOK, "article.html", article.Title, data)
}

// Search finds live articles in the request language by ?q= or ?tag=.
func (h *Handler) Search(c *gin.Context) {
	query := c.Query("q")
	tag := c.Query("tag")
	data := gin.H{"Query": query}
	if query != "" || tag != "" {
		results, err := h.svc.Articles.List(c.Request.Context(), services.ArticleFilter{
			Locale: middleware.Language(c),
			Search: query,
			Tag:    tag,
			Page:   c.Query(pagination.PageParam),
		})
		if err != nil {
			h.fail(c, err)
			return
		}
		data["Results"] = results
		data["Pager"] = newPager(c, results.Page)
	}
	h.render(c, http.StatusOK, "search.html", "Search", data)
}

// Archive lists everything, or the articles of a year, month or day.
func (h *Handler) Archive(c *gin.Context) {
	var parts [3]int
	for i, name := range []string{"year", "month", "day"} {
		raw := c.Param(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.notFound(c)
			return
		}
		parts[i] = n
	}

	f := services.ArticleFilter{Locale: middleware.Language(c), Page: c.Query(pagination.PageParam)}
	var (
		page *services.ArticlePage
		err  error
	)
	if c.Param("year") == "" {
		page, err = h.svc.Articles.List(c.Request.Context(), f)
	} else {
		page, err = h.svc.Articles.Archive(c.Request.Context(), parts[0], parts[1], parts[2], f)
	}
	if err != nil {
		if errors.Is(err, services.ErrInvalid) {
			h.notFound(c)
			return
		}
		h.fail(c, err)
		return
	}

	h.render(c, http.StatusOK, "archive.html", "Archive", gin.H{
		"Period":   period(parts),
		"Articles": page,
		"Pager":    newPager(c, page.Page),
	})
}

func period(parts [3]int) string {
	switch {
	case parts[0] == 0:
		return ""
	case parts[1] == 0:
		return strconv.Itoa(parts[0])
	case parts[2] == 0:
		return time.Date(parts[0], time.Month(parts[1]), 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
	default:
		return time.Date(parts[0], time.Month(parts[1]), parts[2], 0, 0, 0, 0, time.UTC).Format("January 2, 2006")
	}
}

// Redirect follows a short link to its article.
func (h *Handler) Redirect(c *gin.Context) {
	viewer, _ := middleware.UserID(c)
	target, err := h.svc.Links.Resolve(c.Request.Context(), c.Param("slug"), viewer)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, target)
}

