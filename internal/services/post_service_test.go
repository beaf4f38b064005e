package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innotter/backend/internal/events"
	"github.com/innotter/backend/internal/models"
)

func TestPostCreate(t *testing.T) {
	db := openTestDB(t)
	bus, counts := recordingBus()
	s := NewPostService(db, bus)

	owner := seedUser(t, db, "owner", models.RoleUser)
	page := seedPage(t, db, owner, "p")

	post, err := s.Create(page, "first post", nil)
	require.NoError(t, err)
	assert.Equal(t, page.ID, post.PageID)
	assert.Nil(t, post.ReplyToID)
	assert.Equal(t, 1, counts[events.PostCreated])

	got, err := s.Get(post.ID)
	require.NoError(t, err)
	assert.Equal(t, "first post", got.Content)
	assert.Equal(t, owner.ID, got.Page.Owner.ID)
}

func TestPostCreateRejectsOverlongContent(t *testing.T) {
	db := openTestDB(t)
	s := NewPostService(db, events.NewBus())

	owner := seedUser(t, db, "owner", models.RoleUser)
	page := seedPage(t, db, owner, "p")

	_, err := s.Create(page, strings.Repeat("a", models.MaxPostContentLength+1), nil)
	assert.ErrorIs(t, err, ErrContentTooLong)

	_, err = s.Create(page, strings.Repeat("a", models.MaxPostContentLength), nil)
	assert.NoError(t, err)
}

func TestPostReplyThreadsUnderParent(t *testing.T) {
	db := openTestDB(t)
	s := NewPostService(db, events.NewBus())

	owner := seedUser(t, db, "owner", models.RoleUser)
	other := seedUser(t, db, "other", models.RoleUser)
	ownPage := seedPage(t, db, owner, "own")
	otherPage := seedPage(t, db, other, "theirs")

	parent, err := s.Create(otherPage, "original", nil)
	require.NoError(t, err)

	// The reply lands on the actor's page, threaded under a foreign post.
	reply, err := s.Reply(ownPage, parent, "response")
	require.NoError(t, err)
	assert.Equal(t, ownPage.ID, reply.PageID)
	require.NotNil(t, reply.ReplyToID)
	assert.Equal(t, parent.ID, *reply.ReplyToID)
}

func TestPostDeleteDetachesRepliesAndLikes(t *testing.T) {
	db := openTestDB(t)
	s := NewPostService(db, events.NewBus())

	owner := seedUser(t, db, "owner", models.RoleUser)
	liker := seedUser(t, db, "liker", models.RoleUser)
	page := seedPage(t, db, owner, "p")

	parent, err := s.Create(page, "parent", nil)
	require.NoError(t, err)
	reply, err := s.Reply(page, parent, "child")
	require.NoError(t, err)
	require.NoError(t, db.Model(parent).Association("Likes").Append(liker))

	require.NoError(t, s.Delete(parent))

	_, err = s.Get(parent.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)

	// The reply survives with its parent reference nulled out.
	got, err := s.Get(reply.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ReplyToID)

	var likes int64
	require.NoError(t, db.Table("post_likes").Where("post_id = ?", parent.ID).Count(&likes).Error)
	assert.Zero(t, likes)
}

func TestLikeAndUnlike(t *testing.T) {
	db := openTestDB(t)
	bus, counts := recordingBus()
	s := NewPostService(db, bus)

	owner := seedUser(t, db, "owner", models.RoleUser)
	fan := seedUser(t, db, "fan", models.RoleUser)
	page := seedPage(t, db, owner, "p")

	post, err := s.Create(page, "likeable", nil)
	require.NoError(t, err)
	loaded, err := s.Get(post.ID)
	require.NoError(t, err)

	require.NoError(t, s.Like(fan, loaded))
	liked, err := s.IsLiker(fan.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, counts[events.LikesChanged])

	require.NoError(t, s.Unlike(fan, loaded))
	liked, err = s.IsLiker(fan.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 2, counts[events.LikesChanged])
}

func TestLikeOwnPostDenied(t *testing.T) {
	db := openTestDB(t)
	s := NewPostService(db, events.NewBus())

	owner := seedUser(t, db, "owner", models.RoleUser)
	page := seedPage(t, db, owner, "p")
	post, err := s.Create(page, "mine", nil)
	require.NoError(t, err)
	loaded, err := s.Get(post.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Like(owner, loaded), ErrLikeOwnPost)
}

func TestUnlikeWithoutLikeDenied(t *testing.T) {
	db := openTestDB(t)
	s := NewPostService(db, events.NewBus())

	owner := seedUser(t, db, "owner", models.RoleUser)
	fan := seedUser(t, db, "fan", models.RoleUser)
	page := seedPage(t, db, owner, "p")
	post, err := s.Create(page, "unliked", nil)
	require.NoError(t, err)
	loaded, err := s.Get(post.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Unlike(fan, loaded), ErrNotLiked)
}

func TestPostUpdate(t *testing.T) {
	db := openTestDB(t)
	s := NewPostService(db, events.NewBus())

	owner := seedUser(t, db, "owner", models.RoleUser)
	page := seedPage(t, db, owner, "p")
	post, err := s.Create(page, "draft", nil)
	require.NoError(t, err)

	_, err = s.Update(post, "final")
	require.NoError(t, err)

	got, err := s.Get(post.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Content)

	_, err = s.Update(post, strings.Repeat("a", models.MaxPostContentLength+1))
	assert.ErrorIs(t, err, ErrContentTooLong)
}
