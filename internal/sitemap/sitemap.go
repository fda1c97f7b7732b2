// Package sitemap serves the sitemap index, its sections and robots.txt.
package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/youzarsiph/the-certain-news/internal/models"
)

const (
	xmlns      = "http://www.sitemaps.org/schemas/sitemap/0.9"
	xhtmlns    = "http://www.w3.org/1999/xhtml"
	maxURLs    = 50000
	lastModFmt = "2006-01-02"
)

// StaticPaths are the front end routes listed in the static section.
var StaticPaths = []string{
	"/",
	"/search/",
	"/archive/",
	"/feeds/rss/",
	"/feeds/atom/",
	"/feeds/breaking/rss/",
	"/feeds/breaking/atom/",
}

type sitemapIndex struct {
	XMLName  xml.Name       `xml:"sitemapindex"`
	Xmlns    string         `xml:"xmlns,attr"`
	Sitemaps []indexSitemap `xml:"sitemap"`
}

type indexSitemap struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	XHTML   string   `xml:"xmlns:xhtml,attr,omitempty"`
	URLs    []entry  `xml:"url"`
}

type entry struct {
	Loc        string      `xml:"loc"`
	LastMod    string      `xml:"lastmod,omitempty"`
	ChangeFreq string      `xml:"changefreq,omitempty"`
	Priority   string      `xml:"priority,omitempty"`
	Alternates []alternate `xml:"xhtml:link"`
}

type alternate struct {
	Rel      string `xml:"rel,attr"`
	Hreflang string `xml:"hreflang,attr"`
	Href     string `xml:"href,attr"`
}

type Handler struct {
	db        *gorm.DB
	siteURL   string
	languages []string
	log       *zap.Logger
}

func NewHandler(db *gorm.DB, siteURL string, languages []string, log *zap.Logger) *Handler {
	return &Handler{
		db:        db,
		siteURL:   strings.TrimRight(siteURL, "/"),
		languages: languages,
		log:       log.Named("sitemap"),
	}
}

// Register mounts /sitemap.xml, /sitemaps/:section and /robots.txt.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/sitemap.xml", h.Index)
	r.GET("/sitemaps/:section", h.Section)
	r.GET("/robots.txt", h.Robots)
}

func (h *Handler) abs(path string) string {
	return h.siteURL + path
}

func (h *Handler) localized(path, lang string) string {
	return h.abs(path) + "?" + url.Values{"lang": {lang}}.Encode()
}

func (h *Handler) cmsCount(ctx context.Context) (int64, error) {
	var categories, articles int64
	if err := h.db.WithContext(ctx).Model(&models.Category{}).Where("live = ?", true).Count(&categories).Error; err != nil {
		return 0, err
	}
	if err := h.db.WithContext(ctx).Model(&models.Article{}).Where("live = ?", true).Count(&articles).Error; err != nil {
		return 0, err
	}
	return categories + articles, nil
}

// Index lists the static section and every page of the cms section.
func (h *Handler) Index(c *gin.Context) {
	count, err := h.cmsCount(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	idx := sitemapIndex{Xmlns: xmlns}
	idx.Sitemaps = append(idx.Sitemaps, indexSitemap{Loc: h.abs("/sitemaps/static.xml")})
	pages := max(1, int((count+maxURLs-1)/maxURLs))
	for p := 1; p <= pages; p++ {
		loc := h.abs("/sitemaps/cms.xml")
		if p > 1 {
			loc += "?p=" + strconv.Itoa(p)
		}
		idx.Sitemaps = append(idx.Sitemaps, indexSitemap{Loc: loc})
	}
	h.render(c, idx)
}

// Section serves static.xml or cms.xml.
func (h *Handler) Section(c *gin.Context) {
	switch c.Param("section") {
	case "static.xml":
		h.render(c, h.static())
	case "cms.xml":
		page, err := strconv.Atoi(c.DefaultQuery("p", "1"))
		if err != nil || page < 1 {
			c.String(http.StatusNotFound, "No page '%s'", c.Query("p"))
			return
		}
		set, err := h.cms(c.Request.Context(), page)
		if err != nil {
			h.fail(c, err)
			return
		}
		if page > 1 && len(set.URLs) == 0 {
			c.String(http.StatusNotFound, "Page %d empty", page)
			return
		}
		h.render(c, set)
	default:
		c.String(http.StatusNotFound, "No sitemap available for section: %q", strings.TrimSuffix(c.Param("section"), ".xml"))
	}
}

func (h *Handler) static() urlSet {
	set := urlSet{Xmlns: xmlns, XHTML: xhtmlns}
	for _, path := range StaticPaths {
		var alternates []alternate
		for _, lang := range h.languages {
			alternates = append(alternates, alternate{Rel: "alternate", Hreflang: lang, Href: h.localized(path, lang)})
		}
		for _, lang := range h.languages {
			set.URLs = append(set.URLs, entry{
				Loc:        h.localized(path, lang),
				ChangeFreq: "monthly",
				Priority:   "0.5",
				Alternates: alternates,
			})
		}
	}
	return set
}

type pageRow struct {
	ID        int
	Slug      string
	UpdatedAt time.Time
}

// cms lists live categories followed by live articles, newest first.
func (h *Handler) cms(ctx context.Context, page int) (urlSet, error) {
	set := urlSet{Xmlns: xmlns}
	offset := (page - 1) * maxURLs

	var categories []pageRow
	err := h.db.WithContext(ctx).Model(&models.Category{}).
		Select("id, slug, updated_at").
		Where("live = ?", true).
		Order("position, id").
		Offset(offset).Limit(maxURLs).
		Scan(&categories).Error
	if err != nil {
		return set, fmt.Errorf("categories: %w", err)
	}
	for _, row := range categories {
		set.URLs = append(set.URLs, entry{
			Loc:     h.abs(models.Category{ID: row.ID, Slug: row.Slug}.URL()),
			LastMod: row.UpdatedAt.UTC().Format(lastModFmt),
		})
	}

	remaining := maxURLs - len(categories)
	if remaining == 0 {
		return set, nil
	}

	var catCount int64
	if err := h.db.WithContext(ctx).Model(&models.Category{}).Where("live = ?", true).Count(&catCount).Error; err != nil {
		return set, err
	}
	articleOffset := max(0, offset-int(catCount))

	var articles []pageRow
	err = h.db.WithContext(ctx).Model(&models.Article{}).
		Select("id, slug, updated_at").
		Where("live = ?", true).
		Order("created_at DESC, id DESC").
		Offset(articleOffset).Limit(remaining).
		Scan(&articles).Error
	if err != nil {
		return set, fmt.Errorf("articles: %w", err)
	}
	for _, row := range articles {
		set.URLs = append(set.URLs, entry{
			Loc:     h.abs(models.Article{ID: row.ID, Slug: row.Slug}.URL()),
			LastMod: row.UpdatedAt.UTC().Format(lastModFmt),
		})
	}
	return set, nil
}

// Robots serves robots.txt pointing crawlers at the sitemap index.
func (h *Handler) Robots(c *gin.Context) {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Disallow: /api/\n")
	b.WriteString("Disallow: /ws/\n")
	b.WriteString("Disallow: /l/\n")
	b.WriteString("\n")
	fmt.Fprintf(&b, "Sitemap: %s\n", h.abs("/sitemap.xml"))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(b.String()))
}

func (h *Handler) render(c *gin.Context, v any) {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), body...))
}

func (h *Handler) fail(c *gin.Context, err error) {
	h.log.Error("Failed to build sitemap", zap.Error(err))
	c.String(http.StatusInternalServerError, "Failed to build sitemap")
}
