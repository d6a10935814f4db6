// events owns the in-process event bus connecting document writes to live
// feed subscribers. Managers publish a ChangeEvent after each store write;
// the feed projector subscribes and re-runs its query on every delivery.
package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/yifanzhou/storyshare/model"
	Logger "github.com/yifanzhou/storyshare/utils/log"
)

const (
	// TopicFeedChange carries every change that can move the feed: story
	// creation/deletion, engagement counter writes, profile edits.
	TopicFeedChange = "feed_change"
)

// NewEventBus creates the shared GoChannel bus. Subscribers registered after
// a publish do not see older messages, which matches the live-query contract:
// a new subscriber gets a fresh snapshot instead of a replay.
func NewEventBus() *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
}

// Publish serializes the change event and publishes it on the given topic.
// Publishing is best-effort: a delivery failure only costs subscribers one
// refresh, the next write re-triggers them.
func Publish(bus *gochannel.GoChannel, topic string, event *model.ChangeEvent) {
	data, err := event.Marshal()
	if err != nil {
		Logger.Log.Error("fail to marshal change event: ", err)
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	if err := bus.Publish(topic, msg); err != nil {
		Logger.Log.Error("fail to publish change event: ", err)
	}
}

// Subscribe returns the message stream for a topic.
func Subscribe(ctx context.Context, bus *gochannel.GoChannel, topic string) (<-chan *message.Message, error) {
	return bus.Subscribe(ctx, topic)
}
