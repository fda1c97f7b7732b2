// Package testutil holds database fixtures shared by package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/youzarsiph/the-certain-news/internal/database"
	"github.com/youzarsiph/the-certain-news/internal/models"
)

// Password is the plain text password of every user created by CreateUser.
const Password = "correct-horse"

var (
	seq          atomic.Int64
	passwordHash []byte
)

func init() {
	var err error
	passwordHash, err = bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
}

// NewDB returns a migrated in-memory SQLite database that is closed when the
// test ends.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	svc, err := database.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	sqlDB, err := svc.GetDB().DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, svc.Migrate())
	return svc.GetDB()
}

func next() int64 {
	return seq.Add(1)
}

// CreateUser inserts a user whose password is Password.
func CreateUser(t testing.TB, db *gorm.DB, username string, staff bool) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s-%d@example.com", username, next()),
		Password: string(passwordHash),
		IsStaff:  staff,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateCategory inserts a live category in the given locale.
func CreateCategory(t testing.TB, db *gorm.DB, title, locale string) *models.Category {
	t.Helper()
	c := &models.Category{
		Title:  title,
		Slug:   fmt.Sprintf("%s-%d", title, next()),
		Locale: locale,
		Live:   true,
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

// ArticleOption customizes CreateArticle.
type ArticleOption func(*models.Article)

func Draft() ArticleOption {
	return func(a *models.Article) { a.Live = false }
}

func Breaking() ArticleOption {
	return func(a *models.Article) { a.IsBreaking = true }
}

func CreatedAt(ts time.Time) ArticleOption {
	return func(a *models.Article) { a.CreatedAt = ts }
}

func WithContent(content string) ArticleOption {
	return func(a *models.Article) { a.Content = content }
}

// CreateArticle inserts a live article in the category's locale.
func CreateArticle(t testing.TB, db *gorm.DB, category *models.Category, owner *models.User, title string, opts ...ArticleOption) *models.Article {
	t.Helper()
	now := time.Now().UTC()
	a := &models.Article{
		CategoryID:       category.ID,
		OwnerID:          owner.ID,
		Title:            title,
		Slug:             fmt.Sprintf("article-%d", next()),
		Headline:         title + " headline",
		Content:          "<p>" + title + "</p>",
		Live:             true,
		Locale:           category.Locale,
		TranslationKey:   uuid.NewString(),
		FirstPublishedAt: &now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if !a.Live {
		a.FirstPublishedAt = nil
	}
	require.NoError(t, db.Create(a).Error)
	return a
}

// CreateLink attaches a short link to the article.
func CreateLink(t testing.TB, db *gorm.DB, article *models.Article, slug string, views int) *models.Link {
	t.Helper()
	l := &models.Link{ArticleID: article.ID, Slug: slug, ViewCount: views}
	require.NoError(t, db.Create(l).Error)
	article.Link = l
	return l
}
