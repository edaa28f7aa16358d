package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrixnet/social-service/internal/domain"
)

func TestRecorderPullEventsDrains(t *testing.T) {
	user := &domain.UserAggregate{}
	user.Record(domain.UserRegistered{UserID: 1, Email: "a@b.c", Username: "a"})
	user.Record(domain.PasswordChanged{UserID: 1})

	evts := user.PullEvents()
	require.Len(t, evts, 2)
	assert.Equal(t, "UserRegistered", evts[0].EventName())
	assert.Equal(t, "PasswordChanged", evts[1].EventName())

	assert.Empty(t, user.PullEvents(), "second pull must return nothing")
}

func TestUpdateProfilePartial(t *testing.T) {
	user := &domain.UserAggregate{Bio: "old bio", Location: "Zion", AvatarURL: "old.png"}

	bio := "new bio"
	user.UpdateProfile(&bio, nil, nil)

	assert.Equal(t, "new bio", user.Bio)
	assert.Equal(t, "Zion", user.Location, "nil field must not clear the value")
	assert.Equal(t, "old.png", user.AvatarURL)

	empty := ""
	user.UpdateProfile(nil, &empty, nil)
	assert.Equal(t, "", user.Location, "explicit empty string clears the value")
}

func TestChangePassword(t *testing.T) {
	user := &domain.UserAggregate{PasswordHash: "oldhash"}

	require.NoError(t, user.ChangePassword("newhash"))
	assert.Equal(t, "newhash", user.PasswordHash)

	err := user.ChangePassword("")
	require.ErrorIs(t, err, domain.ErrInvalidOperation)
	assert.Equal(t, "newhash", user.PasswordHash, "failed change must not touch the hash")
}

func TestAddComment(t *testing.T) {
	post := &domain.PostAggregate{ID: 7}

	c, err := post.AddComment(3, "nice post")
	require.NoError(t, err)
	assert.Equal(t, int64(0), c.ID, "id is assigned by the store, not the aggregate")
	assert.Equal(t, int64(7), c.PostID)
	assert.Equal(t, int64(3), c.UserID)
	require.Len(t, post.Comments, 1)
	assert.Same(t, c, post.Comments[0])
}

func TestAddCommentRejectsEmptyBody(t *testing.T) {
	post := &domain.PostAggregate{ID: 7}

	_, err := post.AddComment(3, "")
	require.ErrorIs(t, err, domain.ErrInvalidOperation)
	assert.Empty(t, post.Comments)
}

func TestToggleLike(t *testing.T) {
	post := &domain.PostAggregate{ID: 7}

	like := post.ToggleLike(3)
	require.NotNil(t, like)
	assert.Equal(t, domain.Like{PostID: 7, UserID: 3}, *like)
	assert.True(t, post.LikedBy(3))
	assert.False(t, post.LikedBy(4))

	assert.Nil(t, post.ToggleLike(3), "second toggle removes the like")
	assert.False(t, post.LikedBy(3))
	assert.Empty(t, post.Likes)
}

func TestToggleLikeIsPerUser(t *testing.T) {
	post := &domain.PostAggregate{ID: 7}

	require.NotNil(t, post.ToggleLike(1))
	require.NotNil(t, post.ToggleLike(2))
	assert.Len(t, post.Likes, 2)

	assert.Nil(t, post.ToggleLike(1))
	assert.False(t, post.LikedBy(1))
	assert.True(t, post.LikedBy(2))
}
