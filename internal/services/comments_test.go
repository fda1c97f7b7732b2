package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youzarsiph/the-certain-news/internal/models"
	"github.com/youzarsiph/the-certain-news/internal/testutil"
)

func TestCommentService_CreateAndReply(t *testing.T) {
	svc, db := newServices(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "writer", false)
	reader := testutil.CreateUser(t, db, "reader", false)
	world := testutil.CreateCategory(t, db, "world", "en")
	article := testutil.CreateArticle(t, db, world, owner, "Quake")
	draft := testutil.CreateArticle(t, db, world, owner, "Hidden", testutil.Draft())

	parent, err := svc.Comments.Create(ctx, actor(reader), article.ID, `<p onclick="x()">Stay safe</p>`)
	require.NoError(t, err)
	assert.Equal(t, "<p>Stay safe</p>", parent.Content)
	assert.Equal(t, "reader", parent.OwnerInfo.Username)
	assert.Nil(t, parent.ParentCommentID)

	reply, err := svc.Comments.Reply(ctx, actor(owner), parent.ID, "Thanks")
	require.NoError(t, err)
	assert.Equal(t, article.ID, reply.ArticleID)
	require.NotNil(t, reply.ParentCommentID)
	assert.Equal(t, parent.ID, *reply.ParentCommentID)
	assert.Equal(t, owner.ID, reply.OwnerID)

	got, err := svc.Comments.Get(ctx, parent.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.ReplyCount)

	_, err = svc.Comments.Reply(ctx, actor(owner), 999, "Thanks")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Comments.Create(ctx, actor(reader), article.ID, "<script>alert(1)</script>")
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = svc.Comments.Create(ctx, actor(reader), draft.ID, "hello")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommentService_ListUpdateDelete(t *testing.T) {
	svc, db := newServices(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "writer", false)
	reader := testutil.CreateUser(t, db, "reader", false)
	world := testutil.CreateCategory(t, db, "world", "en")
	article := testutil.CreateArticle(t, db, world, owner, "Quake")
	other := testutil.CreateArticle(t, db, world, owner, "Flood")

	first, err := svc.Comments.Create(ctx, actor(reader), article.ID, "first")
	require.NoError(t, err)
	_, err = svc.Comments.Create(ctx, actor(owner), article.ID, "second")
	require.NoError(t, err)
	_, err = svc.Comments.Create(ctx, actor(reader), other.ID, "elsewhere")
	require.NoError(t, err)
	reply, err := svc.Comments.Reply(ctx, actor(owner), first.ID, "reply")
	require.NoError(t, err)

	list, page, err := svc.Comments.List(ctx, CommentFilter{ArticleID: article.ID, Ordering: "created_at", Page: "last"})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Count)
	require.Len(t, list, 1)
	assert.Equal(t, "reply", list[0].Content)

	list, _, err = svc.Comments.List(ctx, CommentFilter{OwnerID: reader.ID})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, _, err = svc.Comments.List(ctx, CommentFilter{Ordering: "owner"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = svc.Comments.Update(ctx, actor(owner), first.ID, "hijack")
	assert.ErrorIs(t, err, ErrForbidden)
	updated, err := svc.Comments.Update(ctx, actor(reader), first.ID, "<b>edited</b>")
	require.NoError(t, err)
	assert.Equal(t, "<b>edited</b>", updated.Content)

	assert.ErrorIs(t, svc.Comments.Delete(ctx, actor(owner), first.ID), ErrForbidden)
	require.NoError(t, svc.Comments.Delete(ctx, actor(reader), first.ID))

	var orphan models.Comment
	require.NoError(t, db.First(&orphan, reply.ID).Error)
	assert.Nil(t, orphan.ParentCommentID)

	require.NoError(t, svc.Comments.Delete(ctx, staff(reader), reply.ID))
}
