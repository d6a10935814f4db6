package engagement

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yifanzhou/storyshare/apperr"
	"github.com/yifanzhou/storyshare/events"
	"github.com/yifanzhou/storyshare/model"
	"github.com/yifanzhou/storyshare/utils"
	"github.com/yifanzhou/storyshare/utils/dotenv"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	dotenv.LoadDotEnvsInTests()
	os.Exit(m.Run())
}

func TestStoreFailureIsNotMistakenForAbsence(t *testing.T) {
	m, db := newTestManager(t)
	story := createStory(t, db, "author")

	conn, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	err = m.Like(story.Id, "user_1")
	assert.ErrorIs(t, err, apperr.ErrPersistence)
	assert.NotErrorIs(t, err, apperr.ErrNotFound)

	err = m.Unlike(story.Id, "user_1")
	assert.ErrorIs(t, err, apperr.ErrPersistence)
}

func newTestManager(t *testing.T) (*Manager, *gorm.DB) {
	db, _ := utils.CreateTempDB(t)
	return NewManager(db, events.NewEventBus(), nil), db
}

func createStory(t *testing.T, db *gorm.DB, userID string) *model.Story {
	t.Helper()
	story := model.Story{
		Id:        uuid.NewString(),
		UserID:    userID,
		Content:   "a story",
		ImageUrl:  "fake://img.jpg",
		CreatedAt: time.Now(),
	}
	require.NoError(t, db.Create(&story).Error)
	return &story
}

func likesCount(t *testing.T, db *gorm.DB, storyID string) int {
	t.Helper()
	var story model.Story
	require.NoError(t, db.Where("id = ?", storyID).First(&story).Error)
	return story.LikesCount
}

func commentsCount(t *testing.T, db *gorm.DB, storyID string) int {
	t.Helper()
	var story model.Story
	require.NoError(t, db.Where("id = ?", storyID).First(&story).Error)
	return story.CommentsCount
}

func TestLikeIsIdempotentAtMembershipLevel(t *testing.T) {
	m, db := newTestManager(t)
	story := createStory(t, db, "author")

	require.NoError(t, m.Like(story.Id, "fan"))
	require.NoError(t, m.Like(story.Id, "fan"))

	var count int64
	db.Model(&model.Like{}).Where("story_id = ?", story.Id).Count(&count)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, 1, likesCount(t, db, story.Id))
}

func TestUnlikeWithoutLikeIsNoop(t *testing.T) {
	m, db := newTestManager(t)
	story := createStory(t, db, "author")

	require.NoError(t, m.Unlike(story.Id, "fan"))
	assert.Equal(t, 0, likesCount(t, db, story.Id))
}

func TestLikeUnlikeRoundTrip(t *testing.T) {
	m, db := newTestManager(t)
	story := createStory(t, db, "author")

	require.NoError(t, m.Like(story.Id, "fan"))
	has, err := m.HasLiked(story.Id, "fan")
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, m.Unlike(story.Id, "fan"))
	has, err = m.HasLiked(story.Id, "fan")
	require.NoError(t, err)
	assert.False(t, has)
	assert.Equal(t, 0, likesCount(t, db, story.Id))
}

func TestCounterClampNeverGoesNegative(t *testing.T) {
	m, db := newTestManager(t)
	story := createStory(t, db, "author")

	// Force a drifted state: a Like row exists but the counter is already
	// at zero, as if a decrement raced ahead of it.
	require.NoError(t, db.Create(&model.Like{
		StoryID: story.Id, UserID: "fan", CreatedAt: time.Now(),
	}).Error)

	require.NoError(t, m.Unlike(story.Id, "fan"))
	assert.Equal(t, 0, likesCount(t, db, story.Id))

	// Repeated unlikes keep the counter pinned at zero.
	require.NoError(t, m.Unlike(story.Id, "fan"))
	require.NoError(t, m.Unlike(story.Id, "fan"))
	assert.Equal(t, 0, likesCount(t, db, story.Id))
}

func TestLikeUnknownStoryRejected(t *testing.T) {
	m, _ := newTestManager(t)
	assert.ErrorIs(t, m.Like("ghost", "fan"), apperr.ErrNotFound)
}

func TestAddAndDeleteComment(t *testing.T) {
	m, db := newTestManager(t)
	story := createStory(t, db, "author")

	comment, err := m.AddComment(story.Id, "fan", "nice one")
	require.NoError(t, err)
	require.NotEmpty(t, comment.Id)
	assert.Equal(t, 1, commentsCount(t, db, story.Id))

	require.NoError(t, m.DeleteComment(comment.Id, "fan"))
	assert.Equal(t, 0, commentsCount(t, db, story.Id))

	var count int64
	db.Model(&model.Comment{}).Where("story_id = ?", story.Id).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestUpdateCommentAuthorOnly(t *testing.T) {
	m, db := newTestManager(t)
	story := createStory(t, db, "author")

	comment, err := m.AddComment(story.Id, "fan", "first draft")
	require.NoError(t, err)

	_, err = m.UpdateComment(comment.Id, "intruder", "hijacked")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	updated, err := m.UpdateComment(comment.Id, "fan", "second draft")
	require.NoError(t, err)
	assert.Equal(t, "second draft", updated.Content)
}

func TestDeleteCommentAuthorOnly(t *testing.T) {
	m, db := newTestManager(t)
	story := createStory(t, db, "author")

	comment, err := m.AddComment(story.Id, "fan", "mine")
	require.NoError(t, err)

	assert.ErrorIs(t, m.DeleteComment(comment.Id, "intruder"), apperr.ErrForbidden)
	assert.Equal(t, 1, commentsCount(t, db, story.Id))
}

func TestDeleteCommentClampsAtZero(t *testing.T) {
	m, db := newTestManager(t)
	story := createStory(t, db, "author")

	// Comment row exists but the counter is already zero.
	comment := model.Comment{
		Id: uuid.NewString(), StoryID: story.Id, UserID: "fan",
		Content: "drifted", CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	require.NoError(t, db.Create(&comment).Error)

	require.NoError(t, m.DeleteComment(comment.Id, "fan"))
	assert.Equal(t, 0, commentsCount(t, db, story.Id))
}

func TestDeleteStoryCascades(t *testing.T) {
	m, db := newTestManager(t)
	story := createStory(t, db, "author")
	other := createStory(t, db, "author")

	require.NoError(t, m.Like(story.Id, "fan_1"))
	require.NoError(t, m.Like(story.Id, "fan_2"))
	_, err := m.AddComment(story.Id, "fan_1", "hello")
	require.NoError(t, err)
	_, err = m.AddComment(story.Id, "fan_2", "world")
	require.NoError(t, err)

	// Engagement on an unrelated story must survive the cascade.
	require.NoError(t, m.Like(other.Id, "fan_1"))

	require.NoError(t, m.DeleteStory(story.Id, "author"))

	var count int64
	db.Model(&model.Story{}).Where("id = ?", story.Id).Count(&count)
	assert.Equal(t, int64(0), count)
	db.Model(&model.Like{}).Where("story_id = ?", story.Id).Count(&count)
	assert.Equal(t, int64(0), count)
	db.Model(&model.Comment{}).Where("story_id = ?", story.Id).Count(&count)
	assert.Equal(t, int64(0), count)

	db.Model(&model.Like{}).Where("story_id = ?", other.Id).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDeleteStoryOwnerOnly(t *testing.T) {
	m, db := newTestManager(t)
	story := createStory(t, db, "author")

	assert.ErrorIs(t, m.DeleteStory(story.Id, "intruder"), apperr.ErrForbidden)

	var count int64
	db.Model(&model.Story{}).Where("id = ?", story.Id).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCommentsOrderedOldestFirst(t *testing.T) {
	m, db := newTestManager(t)
	story := createStory(t, db, "author")

	first, err := m.AddComment(story.Id, "fan", "first")
	require.NoError(t, err)
	second, err := m.AddComment(story.Id, "fan", "second")
	require.NoError(t, err)

	comments, err := m.Comments(story.Id)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, first.Id, comments[0].Id)
	assert.Equal(t, second.Id, comments[1].Id)
}
