// feed materializes the live story feed: it listens for change events,
// re-runs the ordered story query, merges each story with its author's
// profile and pushes the resulting snapshot to every subscribed channel.
package feed

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"github.com/yifanzhou/storyshare/apperr"
	"github.com/yifanzhou/storyshare/events"
	"github.com/yifanzhou/storyshare/model"
	Logger "github.com/yifanzhou/storyshare/utils/log"
	"gorm.io/gorm"
)

// feedQueryLimit caps how many stories one snapshot carries.
const feedQueryLimit = 50

type Projector struct {
	DB       *gorm.DB
	Bus      *gochannel.GoChannel
	Channels *FeedChannels
	Profiles ProfileCache
}

func NewProjector(db *gorm.DB, bus *gochannel.GoChannel, channels *FeedChannels, profiles ProfileCache) *Projector {
	return &Projector{
		DB:       db,
		Bus:      bus,
		Channels: channels,
		Profiles: profiles,
	}
}

// Run subscribes to the change topic and refreshes subscribers until the
// context is canceled. Events are pure invalidation hints; every delivery
// triggers one full re-query, so subscribers always converge on store state
// no matter what the event said.
func (p *Projector) Run(ctx context.Context) error {
	messages, err := events.Subscribe(ctx, p.Bus, events.TopicFeedChange)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			event, err := model.UnmarshalChangeEvent(msg.Payload)
			msg.Ack()
			if err != nil {
				Logger.Log.Error("malformed change event: ", err)
				continue
			}
			if event.Type == model.ChangeTypeProfile {
				p.Profiles.Invalidate(event.UserID)
			}
			snapshot, err := p.Snapshot()
			if err != nil {
				Logger.Log.Error("fail to build feed snapshot: ", err)
				continue
			}
			p.Channels.PushSnapshotToAll(snapshot)
		}
	}()
	return nil
}

// Subscribe registers a new live connection for the user and immediately
// seeds it with a fresh snapshot, so a subscriber never waits for the next
// write to see the feed.
func (p *Projector) Subscribe(ctx context.Context, userID string) (chan *model.FeedSnapshot, error) {
	ch, _ := p.Channels.AddNewConnection(ctx, userID)
	snapshot, err := p.Snapshot()
	if err != nil {
		return nil, err
	}
	ch <- snapshot
	return ch, nil
}

// Snapshot runs the ordered live query once: newest stories first, each
// merged with its author profile. Author lookups go through the profile
// cache; only a miss hits the store.
func (p *Projector) Snapshot() (*model.FeedSnapshot, error) {
	var stories []*model.Story
	if err := p.DB.Model(&model.Story{}).
		Order("created_at desc").
		Limit(feedQueryLimit).
		Find(&stories).Error; err != nil {
		return nil, errors.Wrap(apperr.ErrPersistence, err.Error())
	}

	items := make([]*model.FeedItem, 0, len(stories))
	for _, story := range stories {
		item := &model.FeedItem{}
		if err := copier.Copy(item, story); err != nil {
			return nil, err
		}
		item.StoryID = story.Id
		item.AuthorID = story.UserID

		profile, err := p.authorProfile(story.UserID)
		if err == nil {
			item.AuthorName = profile.DisplayName
			item.AuthorImage = profile.ProfileImage
		}
		items = append(items, item)
	}

	return &model.FeedSnapshot{
		Items:       items,
		GeneratedAt: time.Now(),
	}, nil
}

func (p *Projector) authorProfile(userID string) (*model.Profile, error) {
	if profile, ok := p.Profiles.Get(userID); ok {
		return profile, nil
	}

	var profile model.Profile
	res := p.DB.Where("user_id = ?", userID).First(&profile)
	if res.RowsAffected != 1 {
		return nil, errors.Wrap(apperr.ErrNotFound, "no profile for user "+userID)
	}
	p.Profiles.Set(&profile)
	return &profile, nil
}
