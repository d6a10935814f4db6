package feed

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/yifanzhou/storyshare/model"
)

// FeedChannels contains all structures that handle users' live feed
// channels. All internal state should not be handled directly by hand but
// managed by its public receivers.
type FeedChannels struct {
	// connectionMap maps from user id to the user's active feed channels.
	// User's active channels are represented in the form of a map from channel
	// id (uuid) to the actual channel. This is needed so that deletion of channel
	// is O(1).
	// Each connectionMap entry will be deleted once all user's active channels
	// are closed.
	// Multiple user's devices cannot share the same channel and each has to
	// create its own unique channel.
	connectionMap map[string]map[string]chan *model.FeedSnapshot

	// Adding/Removing a new subscription must grab WriteLock, while all other
	// usage (e.g. pushing a new snapshot) should grab a ReadLock. Ideally we
	// should create lock per-user but we can start from a shared lock in the
	// beginning for simplicity.
	mu sync.RWMutex
}

func NewFeedChannels() *FeedChannels {
	return &FeedChannels{
		connectionMap: make(map[string]map[string]chan *model.FeedSnapshot),
		mu:            sync.RWMutex{},
	}
}

// cleanUp a single connection when the context terminates. If a user's all
// active connections terminate, clean up the user's top-level entry as well.
func (fc *FeedChannels) cleanUp(ctx context.Context, chID string, userID string) {
	<-ctx.Done()

	fc.mu.Lock()
	defer fc.mu.Unlock()

	delete(fc.connectionMap[userID], chID)
	if len(fc.connectionMap[userID]) == 0 {
		delete(fc.connectionMap, userID)
	}
}

// Thread-safe
func (fc *FeedChannels) AddNewConnection(ctx context.Context, userID string) (chan *model.FeedSnapshot, string) {
	chID := "feed_channel_" + uuid.New().String()
	ch := make(chan *model.FeedSnapshot, 1)

	fc.mu.Lock()
	defer fc.mu.Unlock()

	if _, ok := fc.connectionMap[userID]; !ok {
		fc.connectionMap[userID] = make(map[string]chan *model.FeedSnapshot)
	}

	fc.connectionMap[userID][chID] = ch

	// Spin up a background garbage collector.
	go fc.cleanUp(ctx, chID, userID)

	return ch, chID
}

// Thread-safe
func (fc *FeedChannels) GetActiveConnectionsCount() int {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	count := 0
	for _, mp := range fc.connectionMap {
		count += len(mp)
	}
	return count
}

// Thread-safe
func (fc *FeedChannels) PushSnapshotToUser(snapshot *model.FeedSnapshot, userID string) error {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	if _, ok := fc.connectionMap[userID]; !ok {
		return errors.New("no active connection for user: " + userID)
	}
	userChannels := fc.connectionMap[userID]
	for _, ch := range userChannels {
		// Same drop-stale discipline as PushSnapshotToAll: a subscriber that
		// stopped draining must not block the push.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snapshot:
		default:
		}
	}
	return nil
}

// PushSnapshotToAll delivers a snapshot to every active channel of every
// user. Channels are buffered by one; a subscriber that stopped draining
// would stall delivery, so each push drops the stale buffered snapshot
// first. Thread-safe.
func (fc *FeedChannels) PushSnapshotToAll(snapshot *model.FeedSnapshot) {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	for _, userChannels := range fc.connectionMap {
		for _, ch := range userChannels {
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}
