// pipeline turns user text into a persisted story with a generated image.
//
// The steps are strictly ordered and non-transactional: validation and
// moderation run before any network call, the two external services run
// next, and the story insert is last. A failure at any step leaves no story
// behind, because persistence is the final side effect.
package pipeline

import (
	"time"
	"unicode/utf8"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/yifanzhou/storyshare/app_setting"
	"github.com/yifanzhou/storyshare/apperr"
	"github.com/yifanzhou/storyshare/events"
	"github.com/yifanzhou/storyshare/filestore"
	"github.com/yifanzhou/storyshare/model"
	Logger "github.com/yifanzhou/storyshare/utils/log"
	"gorm.io/gorm"
)

type Pipeline struct {
	DB       *gorm.DB
	Bus      *gochannel.GoChannel
	Filter   *ModerationFilter
	Enhancer *EnhancerClient
	Renderer *ImageClient
	Images   filestore.ImageStore
	// Stats is optional; counters are skipped when nil.
	Stats *statsd.Client
}

// NewPipeline wires a pipeline from the app setting. The image store is
// injected separately since it differs between prod (S3), dev (local dir)
// and tests (fake).
func NewPipeline(db *gorm.DB, bus *gochannel.GoChannel, setting app_setting.PipelineAppSetting, images filestore.ImageStore, stats *statsd.Client) *Pipeline {
	return &Pipeline{
		DB:       db,
		Bus:      bus,
		Filter:   NewModerationFilter(setting.MODERATION_DENYLIST),
		Enhancer: NewEnhancerClient(setting.ENHANCER_ENDPOINT),
		Renderer: NewImageClient(
			setting.IMAGE_ENDPOINT,
			setting.IMAGE_WIDTH,
			setting.IMAGE_HEIGHT,
			setting.IMAGE_MODEL,
			time.Duration(setting.IMAGE_FETCH_TIMEOUT_SECOND)*time.Second,
		),
		Images: images,
		Stats:  stats,
	}
}

// Submit runs the full submission flow for one piece of content and returns
// the persisted story.
func (p *Pipeline) Submit(userID, content string) (*model.Story, error) {
	length := utf8.RuneCountInString(content)
	if length == 0 || length > model.MaxStoryContentLength {
		return nil, errors.Wrapf(apperr.ErrValidation,
			"content length %d outside 1..%d", length, model.MaxStoryContentLength)
	}

	if word := p.Filter.Match(content); word != "" {
		p.incr("storyshare.pipeline.moderated")
		return nil, errors.Wrap(apperr.ErrModeration, "denylisted word: "+word)
	}

	description, err := p.Enhancer.Enhance(content)
	if err != nil {
		return nil, err
	}

	payload, err := p.Renderer.Fetch(description)
	if err != nil {
		return nil, err
	}

	storyID := uuid.NewString()
	imageUrl, err := p.Images.Store(storyID+".jpg", payload)
	if err != nil {
		return nil, errors.Wrap(apperr.ErrPersistence, err.Error())
	}

	now := time.Now()
	story := model.Story{
		Id:            storyID,
		UserID:        userID,
		Content:       content,
		ImageUrl:      imageUrl,
		LikesCount:    0,
		CommentsCount: 0,
		CreatedAt:     now,
		Cursor:        now.UnixNano(),
	}
	if err := p.DB.Create(&story).Error; err != nil {
		return nil, errors.Wrap(apperr.ErrPersistence, err.Error())
	}

	Logger.Log.Info("story persisted, id=", storyID, " user=", userID)
	p.incr("storyshare.pipeline.submitted")
	events.Publish(p.Bus, events.TopicFeedChange, &model.ChangeEvent{
		Type:    model.ChangeTypeStoryCreated,
		StoryID: storyID,
		UserID:  userID,
	})
	return &story, nil
}

func (p *Pipeline) incr(name string) {
	if p.Stats == nil {
		return
	}
	if err := p.Stats.Incr(name, nil, 1); err != nil {
		Logger.Log.Error("fail to report metric ", name, ": ", err)
	}
}
