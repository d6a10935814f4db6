// engagement maintains per-story like/comment membership rows and the
// denormalized counters on the story document.
//
// Counters are written by a separate call right after the membership write,
// never inside one transaction with it, which is the documented consistency
// contract: concurrent increments commute, but the read-then-write clamp on
// decrement can lose a decrement under a race. The counters therefore drift
// toward, not away from, the membership count, and are clamped at zero.
package engagement

import (
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/yifanzhou/storyshare/apperr"
	"github.com/yifanzhou/storyshare/events"
	"github.com/yifanzhou/storyshare/model"
	Logger "github.com/yifanzhou/storyshare/utils/log"
	"gorm.io/gorm"
)

type Manager struct {
	DB  *gorm.DB
	Bus *gochannel.GoChannel
	// Stats is optional; counters are skipped when nil.
	Stats *statsd.Client
}

func NewManager(db *gorm.DB, bus *gochannel.GoChannel, stats *statsd.Client) *Manager {
	return &Manager{DB: db, Bus: bus, Stats: stats}
}

// Like inserts the (story, user) membership row and then increments the
// story's like counter by one. An existing membership row makes the whole
// call a no-op, re-checked at call time. The two writes are independent; a
// crash between them leaves the counter one behind the membership rows.
func (m *Manager) Like(storyID, userID string) error {
	if err := m.checkStoryExists(storyID); err != nil {
		return err
	}

	var existing model.Like
	res := m.DB.Where("story_id = ? AND user_id = ?", storyID, userID).First(&existing)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		// a store failure is not proof of absence, bail before the insert
		return errors.Wrap(apperr.ErrPersistence, res.Error.Error())
	}
	if res.RowsAffected == 1 {
		// already liked, nothing to do
		return nil
	}

	if err := m.DB.Create(&model.Like{
		StoryID:   storyID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}).Error; err != nil {
		return errors.Wrap(apperr.ErrPersistence, err.Error())
	}

	if err := m.DB.Model(&model.Story{}).Where("id = ?", storyID).
		UpdateColumn("likes_count", gorm.Expr("likes_count + ?", 1)).Error; err != nil {
		return errors.Wrap(apperr.ErrPersistence, err.Error())
	}

	m.incr("storyshare.engagement.like")
	m.publishEngagement(storyID, userID)
	return nil
}

// Unlike finds the membership row by equality filter, deletes it and
// decrements the like counter clamped at zero. Calling Unlike when no Like
// exists is a no-op.
func (m *Manager) Unlike(storyID, userID string) error {
	var existing model.Like
	res := m.DB.Where("story_id = ? AND user_id = ?", storyID, userID).First(&existing)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return errors.Wrap(apperr.ErrPersistence, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return nil
	}

	if err := m.DB.Where("story_id = ? AND user_id = ?", storyID, userID).
		Delete(&model.Like{}).Error; err != nil {
		return errors.Wrap(apperr.ErrPersistence, err.Error())
	}

	if err := m.decrementClamped(storyID, "likes_count"); err != nil {
		return err
	}

	m.incr("storyshare.engagement.unlike")
	m.publishEngagement(storyID, userID)
	return nil
}

// HasLiked reports whether the membership row exists.
func (m *Manager) HasLiked(storyID, userID string) (bool, error) {
	var count int64
	if err := m.DB.Model(&model.Like{}).
		Where("story_id = ? AND user_id = ?", storyID, userID).
		Count(&count).Error; err != nil {
		return false, errors.Wrap(apperr.ErrPersistence, err.Error())
	}
	return count > 0, nil
}

// AddComment inserts the comment and increments the story's comment counter.
func (m *Manager) AddComment(storyID, userID, text string) (*model.Comment, error) {
	if err := m.checkStoryExists(storyID); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, errors.Wrap(apperr.ErrValidation, "empty comment")
	}

	now := time.Now()
	comment := model.Comment{
		Id:        uuid.NewString(),
		StoryID:   storyID,
		UserID:    userID,
		Content:   text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.DB.Create(&comment).Error; err != nil {
		return nil, errors.Wrap(apperr.ErrPersistence, err.Error())
	}

	if err := m.DB.Model(&model.Story{}).Where("id = ?", storyID).
		UpdateColumn("comments_count", gorm.Expr("comments_count + ?", 1)).Error; err != nil {
		return nil, errors.Wrap(apperr.ErrPersistence, err.Error())
	}

	m.incr("storyshare.engagement.comment")
	m.publishEngagement(storyID, userID)
	return &comment, nil
}

// UpdateComment edits a comment's text. Author only.
func (m *Manager) UpdateComment(commentID, userID, text string) (*model.Comment, error) {
	var comment model.Comment
	res := m.DB.Where("id = ?", commentID).First(&comment)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(apperr.ErrPersistence, res.Error.Error())
	}
	if res.RowsAffected != 1 {
		return nil, errors.Wrap(apperr.ErrNotFound, "no comment "+commentID)
	}
	if comment.UserID != userID {
		return nil, apperr.ErrForbidden
	}

	comment.Content = text
	comment.UpdatedAt = time.Now()
	if err := m.DB.Save(&comment).Error; err != nil {
		return nil, errors.Wrap(apperr.ErrPersistence, err.Error())
	}
	return &comment, nil
}

// DeleteComment deletes the comment and decrements the story's comment
// counter, but only while the counter is still positive. Author only.
func (m *Manager) DeleteComment(commentID, userID string) error {
	var comment model.Comment
	res := m.DB.Where("id = ?", commentID).First(&comment)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return errors.Wrap(apperr.ErrPersistence, res.Error.Error())
	}
	if res.RowsAffected != 1 {
		return errors.Wrap(apperr.ErrNotFound, "no comment "+commentID)
	}
	if comment.UserID != userID {
		return apperr.ErrForbidden
	}

	if err := m.DB.Delete(&model.Comment{}, "id = ?", commentID).Error; err != nil {
		return errors.Wrap(apperr.ErrPersistence, err.Error())
	}

	if err := m.decrementClamped(comment.StoryID, "comments_count"); err != nil {
		return err
	}

	m.incr("storyshare.engagement.uncomment")
	m.publishEngagement(comment.StoryID, userID)
	return nil
}

// Comments lists a story's comments, oldest first.
func (m *Manager) Comments(storyID string) ([]*model.Comment, error) {
	var comments []*model.Comment
	if err := m.DB.Where("story_id = ?", storyID).
		Order("created_at asc").Find(&comments).Error; err != nil {
		return nil, errors.Wrap(apperr.ErrPersistence, err.Error())
	}
	return comments, nil
}

// DeleteStory deletes the story document and then fans out deletion of every
// Like and Comment referencing it. The fan-out is best-effort: each row is
// deleted by its own call and a failed one is only logged, never retried, so
// orphaned rows are possible and harmless (they reference a gone story).
// Owner only.
func (m *Manager) DeleteStory(storyID, userID string) error {
	var story model.Story
	res := m.DB.Where("id = ?", storyID).First(&story)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return errors.Wrap(apperr.ErrPersistence, res.Error.Error())
	}
	if res.RowsAffected != 1 {
		return errors.Wrap(apperr.ErrNotFound, "no story "+storyID)
	}
	if story.UserID != userID {
		return apperr.ErrForbidden
	}

	if err := m.DB.Delete(&model.Story{}, "id = ?", storyID).Error; err != nil {
		return errors.Wrap(apperr.ErrPersistence, err.Error())
	}

	var likes []model.Like
	m.DB.Where("story_id = ?", storyID).Find(&likes)
	for _, like := range likes {
		if err := m.DB.Where("story_id = ? AND user_id = ?", like.StoryID, like.UserID).
			Delete(&model.Like{}).Error; err != nil {
			Logger.Log.Error("fail to cascade-delete like: ", err)
		}
	}

	var comments []model.Comment
	m.DB.Where("story_id = ?", storyID).Find(&comments)
	for _, comment := range comments {
		if err := m.DB.Delete(&model.Comment{}, "id = ?", comment.Id).Error; err != nil {
			Logger.Log.Error("fail to cascade-delete comment: ", err)
		}
	}

	m.incr("storyshare.engagement.delete_story")
	events.Publish(m.Bus, events.TopicFeedChange, &model.ChangeEvent{
		Type:    model.ChangeTypeStoryDeleted,
		StoryID: storyID,
		UserID:  userID,
	})
	return nil
}

// decrementClamped applies the documented clamp: read the counter, decrement
// while it stays non-negative, otherwise force-set it to zero. The check and
// the write are separate statements, so two racing decrements can both pass
// the check and one decrement is absorbed by the clamp.
func (m *Manager) decrementClamped(storyID, column string) error {
	var story model.Story
	res := m.DB.Where("id = ?", storyID).First(&story)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return errors.Wrap(apperr.ErrPersistence, res.Error.Error())
	}
	if res.RowsAffected != 1 {
		// story already gone, counter has nowhere to live
		return nil
	}

	current := story.LikesCount
	if column == "comments_count" {
		current = story.CommentsCount
	}

	var err error
	if current > 0 {
		err = m.DB.Model(&model.Story{}).Where("id = ?", storyID).
			UpdateColumn(column, gorm.Expr(column+" - ?", 1)).Error
	} else {
		err = m.DB.Model(&model.Story{}).Where("id = ?", storyID).
			UpdateColumn(column, 0).Error
	}
	if err != nil {
		return errors.Wrap(apperr.ErrPersistence, err.Error())
	}
	return nil
}

func (m *Manager) checkStoryExists(storyID string) error {
	var story model.Story
	res := m.DB.Where("id = ?", storyID).First(&story)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return errors.Wrap(apperr.ErrPersistence, res.Error.Error())
	}
	if res.RowsAffected != 1 {
		return errors.Wrap(apperr.ErrNotFound, "no story "+storyID)
	}
	return nil
}

func (m *Manager) publishEngagement(storyID, userID string) {
	events.Publish(m.Bus, events.TopicFeedChange, &model.ChangeEvent{
		Type:    model.ChangeTypeEngagement,
		StoryID: storyID,
		UserID:  userID,
	})
}

func (m *Manager) incr(name string) {
	if m.Stats == nil {
		return
	}
	if err := m.Stats.Incr(name, nil, 1); err != nil {
		Logger.Log.Error("fail to report metric ", name, ": ", err)
	}
}
