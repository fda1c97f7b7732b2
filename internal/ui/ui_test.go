package ui

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/youzarsiph/the-certain-news/internal/middleware"
	"github.com/youzarsiph/the-certain-news/internal/models"
	"github.com/youzarsiph/the-certain-news/internal/pagination"
	"github.com/youzarsiph/the-certain-news/internal/services"
	"github.com/youzarsiph/the-certain-news/internal/testutil"
)

const secret = "test-secret"

func setup(t *testing.T) (*gorm.DB, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)

	svc, err := services.New(db, zap.NewNop(), services.Options{PerPage: 2, Languages: []string{"en", "ar"}})
	require.NoError(t, err)

	langs := middleware.NewLanguages([]string{"en", "ar"}, "en")
	h, err := New(svc, langs, zap.NewNop())
	require.NoError(t, err)

	router := gin.New()
	router.SetHTMLTemplate(h.Template())
	h.Register(router.Group("", langs.Middleware(), middleware.NewJWT(secret, time.Hour).Optional()))
	return db, router
}

func get(router http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestTemplatesParse(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)
	for _, name := range []string{"home.html", "category.html", "article.html", "search.html", "archive.html", "error.html"} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}

func TestPagerURLKeepsQuery(t *testing.T) {
	p := Pager{
		Page:  pagination.Page{Number: 2, NumPages: 3},
		query: url.Values{"q": {"storm"}, "page": {"2"}},
	}
	assert.Equal(t, "?page=3&q=storm", p.URL(3))
	assert.Equal(t, "?page=1&q=storm", p.URL(1))
	assert.Equal(t, "2", p.query.Get("page"))
}

func TestHome(t *testing.T) {
	db, router := setup(t)
	owner := testutil.CreateUser(t, db, "writer", false)
	en := testutil.CreateCategory(t, db, "world", "en")
	ar := testutil.CreateCategory(t, db, "alam", "ar")
	testutil.CreateArticle(t, db, en, owner, "Storm hits coast", testutil.Breaking())
	testutil.CreateArticle(t, db, ar, owner, "Arabic story")

	w := get(router, "/?lang=en")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Storm hits coast")
	assert.Contains(t, body, `data-socket="/ws/en/live"`)
	assert.NotContains(t, body, "Arabic story")

	w = get(router, "/?lang=ar")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Arabic story")
	assert.Contains(t, w.Body.String(), `dir="rtl"`)
}

func TestArticlePage(t *testing.T) {
	db, router := setup(t)
	owner := testutil.CreateUser(t, db, "writer", false)
	reader := testutil.CreateUser(t, db, "reader", false)
	cat := testutil.CreateCategory(t, db, "world", "en")
	a := testutil.CreateArticle(t, db, cat, owner, "Storm hits coast", testutil.WithContent("<p>Wind <b>everywhere</b></p>"))
	require.NoError(t, db.Create(&models.Comment{Content: "Stay safe", OwnerID: reader.ID, ArticleID: a.ID}).Error)

	w := get(router, a.URL())
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<p>Wind <b>everywhere</b></p>")
	assert.Contains(t, body, "Stay safe")
	assert.Contains(t, body, "reader")

	t.Run("stale slug redirects", func(t *testing.T) {
		w := get(router, "/articles/"+strconv.Itoa(a.ID)+"/old-title/")
		assert.Equal(t, http.StatusMovedPermanently, w.Code)
		assert.Equal(t, a.URL(), w.Header().Get("Location"))
	})

	t.Run("drafts are hidden", func(t *testing.T) {
		draft := testutil.CreateArticle(t, db, cat, owner, "Unfinished", testutil.Draft())
		w := get(router, draft.URL())
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "<h1>404</h1>")
	})

	t.Run("bad id", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get(router, "/articles/abc/x/").Code)
	})
}

func TestCategoryPage(t *testing.T) {
	db, router := setup(t)
	owner := testutil.CreateUser(t, db, "writer", false)
	cat := testutil.CreateCategory(t, db, "world", "en")
	base := time.Now().UTC().Add(-time.Hour)
	for i, title := range []string{"First", "Second", "Third"} {
		testutil.CreateArticle(t, db, cat, owner, title, testutil.CreatedAt(base.Add(time.Duration(i)*time.Minute)))
	}

	w := get(router, cat.URL())
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Third")
	assert.Contains(t, body, "Second")
	assert.NotContains(t, body, ">First<")
	assert.Contains(t, body, "Page 1 of 2")

	w = get(router, cat.URL()+"?page=last")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ">First<")

	assert.Equal(t, http.StatusNotFound, get(router, cat.URL()+"?page=9").Code)
}

func TestSearchPage(t *testing.T) {
	db, router := setup(t)
	owner := testutil.CreateUser(t, db, "writer", false)
	cat := testutil.CreateCategory(t, db, "world", "en")
	testutil.CreateArticle(t, db, cat, owner, "Storm hits coast")
	testutil.CreateArticle(t, db, cat, owner, "Election results")

	w := get(router, "/search/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "results</p>")

	w = get(router, "/search/?q=storm&lang=en")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "1 results")
	assert.Contains(t, body, "Storm hits coast")
	assert.NotContains(t, body, "Election results<")
}

func TestArchivePage(t *testing.T) {
	db, router := setup(t)
	owner := testutil.CreateUser(t, db, "writer", false)
	cat := testutil.CreateCategory(t, db, "world", "en")
	testutil.CreateArticle(t, db, cat, owner, "Old news", testutil.CreatedAt(time.Date(2021, time.March, 4, 12, 0, 0, 0, time.UTC)))
	testutil.CreateArticle(t, db, cat, owner, "Fresh news")

	w := get(router, "/archive/2021/3/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Archive March 2021")
	assert.Contains(t, body, "Old news")
	assert.NotContains(t, body, "Fresh news")

	w = get(router, "/archive/2021/3/5/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Nothing was published")

	w = get(router, "/archive/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Fresh news")

	assert.Equal(t, http.StatusNotFound, get(router, "/archive/2021/13/").Code)
	assert.Equal(t, http.StatusNotFound, get(router, "/archive/2021/2/30/").Code)
	assert.Equal(t, http.StatusNotFound, get(router, "/archive/year/").Code)
}

func TestShortLinkRedirect(t *testing.T) {
	db, router := setup(t)
	owner := testutil.CreateUser(t, db, "writer", false)
	cat := testutil.CreateCategory(t, db, "world", "en")
	a := testutil.CreateArticle(t, db, cat, owner, "Storm hits coast")
	testutil.CreateLink(t, db, a, "abc123", 0)

	w := get(router, "/l/abc123/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, a.URL(), w.Header().Get("Location"))

	var link models.Link
	require.NoError(t, db.Where("slug = ?", "abc123").First(&link).Error)
	assert.Equal(t, 1, link.ViewCount)

	assert.Equal(t, http.StatusNotFound, get(router, "/l/missing/").Code)
}
