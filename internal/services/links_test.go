package services

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youzarsiph/the-certain-news/internal/models"
	"github.com/youzarsiph/the-certain-news/internal/testutil"
)

func TestNewLinkSlug(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		slug := NewLinkSlug()
		assert.Len(t, slug, 11)
		raw, err := base64.RawURLEncoding.DecodeString(slug)
		require.NoError(t, err)
		assert.Len(t, raw, 8)
		seen[slug] = true
	}
	assert.Len(t, seen, 100)
}

func TestLinkService_Resolve(t *testing.T) {
	svc, db := newServices(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "writer", false)
	viewer := testutil.CreateUser(t, db, "viewer", false)
	world := testutil.CreateCategory(t, db, "world", "en")
	article := testutil.CreateArticle(t, db, world, owner, "Quake")
	testutil.CreateLink(t, db, article, "quakeslug01", 0)

	url, err := svc.Links.Resolve(ctx, "quakeslug01", 0)
	require.NoError(t, err)
	assert.Equal(t, article.URL(), url)

	// Second hit is served from the cache.
	_, err = svc.Links.Resolve(ctx, "quakeslug01", viewer.ID)
	require.NoError(t, err)
	_, err = svc.Links.Resolve(ctx, "quakeslug01", viewer.ID)
	require.NoError(t, err)

	link, err := svc.Links.ForArticle(ctx, article.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, link.ViewCount)

	var views int64
	require.NoError(t, db.Model(&models.LinkView{}).Where("link_id = ?", link.ID).Count(&views).Error)
	assert.EqualValues(t, 1, views)

	_, err = svc.Links.Resolve(ctx, "missing", 0)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.Model(&models.Article{}).Where("id = ?", article.ID).Update("live", false).Error)
	_, err = svc.Links.Resolve(ctx, "quakeslug01", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLinkService_ResolveDeletedLinkEvictsCache(t *testing.T) {
	svc, db := newServices(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "writer", false)
	world := testutil.CreateCategory(t, db, "world", "en")
	article := testutil.CreateArticle(t, db, world, owner, "Quake")
	link := testutil.CreateLink(t, db, article, "quakeslug01", 0)

	_, err := svc.Links.Resolve(ctx, "quakeslug01", 0)
	require.NoError(t, err)
	require.NoError(t, db.Delete(link).Error)

	_, err = svc.Links.Resolve(ctx, "quakeslug01", 0)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, svc.Links.cache.Contains("quakeslug01"))
}

func TestLinkService_EnsureAndBackfill(t *testing.T) {
	svc, db := newServices(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "writer", false)
	world := testutil.CreateCategory(t, db, "world", "en")
	first := testutil.CreateArticle(t, db, world, owner, "First")
	second := testutil.CreateArticle(t, db, world, owner, "Second")
	testutil.CreateArticle(t, db, world, owner, "Draft", testutil.Draft())
	existing := testutil.CreateLink(t, db, first, "firstslug01", 7)

	link, err := svc.Links.Ensure(ctx, db, first.ID)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, link.ID)

	n, err := svc.Links.Backfill(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	link, err = svc.Links.ForArticle(ctx, second.ID)
	require.NoError(t, err)
	assert.Len(t, link.Slug, 11)

	n, err = svc.Links.Backfill(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
