package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youzarsiph/the-certain-news/internal/models"
	"github.com/youzarsiph/the-certain-news/internal/pagination"
	"github.com/youzarsiph/the-certain-news/internal/testutil"
)

func TestCategoryService_Children(t *testing.T) {
	svc, db := newServices(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "writer", false)
	world := testutil.CreateCategory(t, db, "world", "en")
	sport := testutil.CreateCategory(t, db, "sport", "en")

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"One", "Two", "Three"} {
		testutil.CreateArticle(t, db, world, owner, title, testutil.CreatedAt(base.Add(time.Duration(i)*time.Hour)))
	}
	testutil.CreateArticle(t, db, world, owner, "Draft", testutil.Draft())
	testutil.CreateArticle(t, db, sport, owner, "Match")

	category, page, err := svc.Categories.Children(ctx, world.ID, "")
	require.NoError(t, err)
	assert.Equal(t, world.ID, category.ID)
	assert.Equal(t, []string{"Three", "Two"}, titles(page.Items))

	_, page, err = svc.Categories.Children(ctx, world.ID, "last")
	require.NoError(t, err)
	assert.Equal(t, []string{"One"}, titles(page.Items))

	_, _, err = svc.Categories.Children(ctx, world.ID, "0")
	assert.ErrorIs(t, err, pagination.ErrEmptyPage)
	_, _, err = svc.Categories.Children(ctx, world.ID, "9")
	assert.ErrorIs(t, err, pagination.ErrEmptyPage)
	_, _, err = svc.Categories.Children(ctx, world.ID, "two")
	assert.ErrorIs(t, err, pagination.ErrPageNotAnInteger)
	_, _, err = svc.Categories.Children(ctx, 999, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCategoryService_Orphans(t *testing.T) {
	svc, db := newServices(t, func(o *Options) { o.Orphans = 1 })
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "writer", false)
	world := testutil.CreateCategory(t, db, "world", "en")
	for _, title := range []string{"One", "Two", "Three"} {
		testutil.CreateArticle(t, db, world, owner, title)
	}

	_, page, err := svc.Categories.Children(ctx, world.ID, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.Equal(t, 1, page.Page.NumPages)
}

func TestCategoryService_CRUD(t *testing.T) {
	svc, db := newServices(t)
	ctx := context.Background()
	editor := testutil.CreateUser(t, db, "editor", true)
	writer := testutil.CreateUser(t, db, "writer", false)

	_, err := svc.Categories.Create(ctx, actor(writer), models.CategoryRequest{Title: "World"})
	assert.ErrorIs(t, err, ErrForbidden)

	world, err := svc.Categories.Create(ctx, staff(editor), models.CategoryRequest{Title: "World News"})
	require.NoError(t, err)
	assert.Equal(t, "world-news", world.Slug)
	assert.Equal(t, "en", world.Locale)
	assert.True(t, world.Live)

	_, err = svc.Categories.Create(ctx, staff(editor), models.CategoryRequest{Title: "World News"})
	assert.ErrorIs(t, err, ErrConflict)

	arabic, err := svc.Categories.Create(ctx, staff(editor), models.CategoryRequest{Title: "World News", Locale: "ar"})
	require.NoError(t, err)
	assert.Equal(t, "ar", arabic.Locale)

	hidden := false
	draft, err := svc.Categories.Create(ctx, staff(editor), models.CategoryRequest{Title: "Drafts", Live: &hidden, ParentID: &world.ID})
	require.NoError(t, err)
	assert.False(t, draft.Live)

	list, _, err := svc.Categories.List(ctx, Actor{}, "en", "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, world.ID, list[0].ID)

	list, _, err = svc.Categories.List(ctx, staff(editor), "en", "")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = svc.Categories.Get(ctx, Actor{}, draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := svc.Categories.Update(ctx, staff(editor), world.ID, models.CategoryRequest{Title: "World", Slug: "world"})
	require.NoError(t, err)
	assert.Equal(t, "world", updated.Slug)
	_, err = svc.Categories.Update(ctx, staff(editor), world.ID, models.CategoryRequest{Title: "World", ParentID: &world.ID})
	assert.ErrorIs(t, err, ErrInvalid)

	testutil.CreateArticle(t, db, updated, writer, "Story")
	require.NoError(t, svc.Categories.Delete(ctx, staff(editor), world.ID))

	var n int64
	require.NoError(t, db.Model(&models.Article{}).Count(&n).Error)
	assert.Zero(t, n)
	var reloaded models.Category
	require.NoError(t, db.First(&reloaded, draft.ID).Error)
	assert.Nil(t, reloaded.ParentID)

	assert.ErrorIs(t, svc.Categories.Delete(ctx, staff(editor), world.ID), ErrNotFound)
}

func TestCategoryService_RejectsParentCycles(t *testing.T) {
	svc, db := newServices(t)
	ctx := context.Background()
	editor := staff(testutil.CreateUser(t, db, "editor", true))

	a, err := svc.Categories.Create(ctx, editor, models.CategoryRequest{Title: "A"})
	require.NoError(t, err)
	b, err := svc.Categories.Create(ctx, editor, models.CategoryRequest{Title: "B", ParentID: &a.ID})
	require.NoError(t, err)
	c, err := svc.Categories.Create(ctx, editor, models.CategoryRequest{Title: "C", ParentID: &b.ID})
	require.NoError(t, err)

	_, err = svc.Categories.Update(ctx, editor, a.ID, models.CategoryRequest{Title: "A", ParentID: &b.ID})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = svc.Categories.Update(ctx, editor, a.ID, models.CategoryRequest{Title: "A", ParentID: &c.ID})
	assert.ErrorIs(t, err, ErrInvalid)

	var reloaded models.Category
	require.NoError(t, db.First(&reloaded, a.ID).Error)
	assert.Nil(t, reloaded.ParentID)

	// moving a leaf elsewhere in its own branch is fine
	moved, err := svc.Categories.Update(ctx, editor, c.ID, models.CategoryRequest{Title: "C", ParentID: &a.ID})
	require.NoError(t, err)
	assert.Equal(t, a.ID, *moved.ParentID)

	missing := 999
	_, err = svc.Categories.Update(ctx, editor, b.ID, models.CategoryRequest{Title: "B", ParentID: &missing})
	assert.ErrorIs(t, err, ErrInvalid)
}
