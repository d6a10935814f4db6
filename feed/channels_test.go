package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yifanzhou/storyshare/model"
)

func TestAddNewConnection(t *testing.T) {
	fc := NewFeedChannels()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, chID := fc.AddNewConnection(ctx, "user_1")
	assert.NotNil(t, ch)
	assert.NotEmpty(t, chID)
	assert.Equal(t, 1, fc.GetActiveConnectionsCount())
}

func TestMultipleDevicesGetSeparateChannels(t *testing.T) {
	fc := NewFeedChannels()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chOne, idOne := fc.AddNewConnection(ctx, "user_1")
	chTwo, idTwo := fc.AddNewConnection(ctx, "user_1")
	assert.NotEqual(t, idOne, idTwo)
	assert.Equal(t, 2, fc.GetActiveConnectionsCount())

	snapshot := &model.FeedSnapshot{GeneratedAt: time.Now()}
	require.NoError(t, fc.PushSnapshotToUser(snapshot, "user_1"))
	assert.Equal(t, snapshot, <-chOne)
	assert.Equal(t, snapshot, <-chTwo)
}

func TestConnectionCleanUpOnContextDone(t *testing.T) {
	fc := NewFeedChannels()
	ctxOne, cancelOne := context.WithCancel(context.Background())
	ctxTwo, cancelTwo := context.WithCancel(context.Background())
	defer cancelTwo()

	fc.AddNewConnection(ctxOne, "user_1")
	fc.AddNewConnection(ctxTwo, "user_1")
	assert.Equal(t, 2, fc.GetActiveConnectionsCount())

	cancelOne()
	// Cleanup happens in a background goroutine, give it a moment.
	time.Sleep(1 * time.Second)
	assert.Equal(t, 1, fc.GetActiveConnectionsCount())

	cancelTwo()
	time.Sleep(1 * time.Second)
	assert.Equal(t, 0, fc.GetActiveConnectionsCount())
}

func TestPushSnapshotToUserWithoutConnection(t *testing.T) {
	fc := NewFeedChannels()
	err := fc.PushSnapshotToUser(&model.FeedSnapshot{}, "user_1")
	assert.Error(t, err)
}

func TestPushSnapshotToUserDropsStaleSnapshot(t *testing.T) {
	fc := NewFeedChannels()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, _ := fc.AddNewConnection(ctx, "user_1")

	stale := &model.FeedSnapshot{GeneratedAt: time.Now()}
	fresh := &model.FeedSnapshot{GeneratedAt: time.Now().Add(time.Second)}

	// Two pushes against a non-draining subscriber must not block; the
	// buffered stale snapshot is replaced by the fresh one.
	require.NoError(t, fc.PushSnapshotToUser(stale, "user_1"))
	require.NoError(t, fc.PushSnapshotToUser(fresh, "user_1"))

	assert.Equal(t, fresh, <-ch)
}

func TestPushSnapshotToAllDropsStaleSnapshot(t *testing.T) {
	fc := NewFeedChannels()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, _ := fc.AddNewConnection(ctx, "user_1")

	stale := &model.FeedSnapshot{GeneratedAt: time.Now()}
	fresh := &model.FeedSnapshot{GeneratedAt: time.Now().Add(time.Second)}

	// The subscriber is not draining, so the first snapshot sits in the
	// buffer and must be replaced rather than stall delivery.
	fc.PushSnapshotToAll(stale)
	fc.PushSnapshotToAll(fresh)

	assert.Equal(t, fresh, <-ch)
	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra snapshot: %v", extra)
	default:
	}
}
