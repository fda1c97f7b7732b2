package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youzarsiph/the-certain-news/internal/models"
	"github.com/youzarsiph/the-certain-news/internal/testutil"
)

func TestUserService_RegisterAndAuthenticate(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()

	user, err := svc.Users.Register(ctx, models.RegisterRequest{
		Username: "reporter",
		Email:    "Reporter@Example.com",
		Password: "s3cret-password",
	})
	require.NoError(t, err)
	assert.Equal(t, "reporter@example.com", user.Email)
	assert.NotEqual(t, "s3cret-password", user.Password)

	_, err = svc.Users.Register(ctx, models.RegisterRequest{Username: "reporter", Email: "other@example.com", Password: "s3cret-password"})
	assert.ErrorIs(t, err, ErrConflict)

	got, err := svc.Users.Authenticate(ctx, "reporter", "s3cret-password")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	got, err = svc.Users.Authenticate(ctx, "REPORTER@example.com", "s3cret-password")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Users.Authenticate(ctx, "reporter", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Users.Authenticate(ctx, "nobody", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_FollowToggle(t *testing.T) {
	svc, db := newServices(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice", false)
	bob := testutil.CreateUser(t, db, "bob", false)
	carol := testutil.CreateUser(t, db, "carol", false)

	msg, err := svc.Users.ToggleFollow(ctx, actor(alice), bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "You are following bob.", msg)
	_, err = svc.Users.ToggleFollow(ctx, actor(carol), bob.ID)
	require.NoError(t, err)
	_, err = svc.Users.ToggleFollow(ctx, actor(bob), carol.ID)
	require.NoError(t, err)

	followers, page, err := svc.Users.Followers(ctx, bob.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 2, page.Count)
	assert.Equal(t, "alice", followers[0].Username)

	following, _, err := svc.Users.Following(ctx, bob.ID, "")
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "carol", following[0].Username)

	relations, page, err := svc.Users.Relations(ctx, actor(bob), "")
	require.NoError(t, err)
	assert.Equal(t, 3, page.Count)
	assert.Len(t, relations, 2)

	profile, err := svc.Users.Profile(ctx, actor(alice), bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, profile.Followers)
	assert.EqualValues(t, 1, profile.Following)
	assert.True(t, profile.IsFollowing)

	msg, err = svc.Users.ToggleFollow(ctx, actor(alice), bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "You are no longer following bob.", msg)

	profile, err = svc.Users.Profile(ctx, actor(alice), bob.ID)
	require.NoError(t, err)
	assert.False(t, profile.IsFollowing)

	_, err = svc.Users.ToggleFollow(ctx, actor(alice), alice.ID)
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = svc.Users.ToggleFollow(ctx, actor(alice), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_UpdateListDelete(t *testing.T) {
	svc, db := newServices(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice", false)
	bob := testutil.CreateUser(t, db, "bob", false)
	world := testutil.CreateCategory(t, db, "world", "en")
	article := testutil.CreateArticle(t, db, world, alice, "Alice story")

	bio, country, alerts := "Reporter", "sy", true
	_, err := svc.Users.Update(ctx, actor(bob), alice.ID, models.UpdateUserRequest{Bio: &bio})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Users.Update(ctx, actor(alice), alice.ID, models.UpdateUserRequest{
		Bio: &bio, Country: &country, SMSAlerts: &alerts,
	})
	require.NoError(t, err)
	assert.Equal(t, "Reporter", updated.Bio)
	assert.Equal(t, "SY", updated.Country)
	assert.True(t, updated.SMSAlerts)

	users, _, err := svc.Users.List(ctx, "ali", "")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)

	_, err = svc.Articles.Star(ctx, actor(bob), article.ID)
	require.NoError(t, err)
	_, err = svc.Users.ToggleFollow(ctx, actor(bob), alice.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Users.Delete(ctx, actor(bob), alice.ID), ErrForbidden)
	require.NoError(t, svc.Users.Delete(ctx, actor(alice), alice.ID))

	_, err = svc.Users.Get(ctx, alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	var n int64
	require.NoError(t, db.Model(&models.Article{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&models.Follow{}).Count(&n).Error)
	assert.Zero(t, n)
}
