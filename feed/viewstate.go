package feed

import (
	"sync"

	"github.com/yifanzhou/storyshare/model"
)

/*

ViewState is the client-side reactive store for one user's rendered feed.

One authoritative state object is updated from two directions:
  - local optimistic mutations: like/unlike flips the membership flag and
    the counter immediately, before the remote write completes, and hands
    back a rollback func for the failure path
  - server snapshots: every snapshot delivery overwrites the authoritative
    state wholesale, server always wins on conflict

Between an optimistic mutation and the next snapshot the local state can
diverge from the store; that window is the documented cost of a responsive
UI and closes on the next snapshot. There is no durable queue: a process
death inside the window simply shows stale state until a snapshot arrives.

*/

type ViewState struct {
	mu sync.Mutex

	// snapshot is the last server-delivered state, the authority.
	snapshot *model.FeedSnapshot

	// likedByMe tracks the local user's like membership per story,
	// optimistically maintained ahead of the server.
	likedByMe map[string]bool

	// counterDelta holds the optimistic counter adjustments not yet
	// reflected by a server snapshot, per story.
	counterDelta map[string]int
}

func NewViewState() *ViewState {
	return &ViewState{
		likedByMe:    make(map[string]bool),
		counterDelta: make(map[string]int),
	}
}

// ApplySnapshot installs a server snapshot. All optimistic deltas are
// discarded: the server is the single writer the state converges to.
func (v *ViewState) ApplySnapshot(snapshot *model.FeedSnapshot, likedStoryIDs []string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.snapshot = snapshot
	v.counterDelta = make(map[string]int)
	v.likedByMe = make(map[string]bool, len(likedStoryIDs))
	for _, id := range likedStoryIDs {
		v.likedByMe[id] = true
	}
}

// OptimisticLike flips the membership flag and counter ahead of the remote
// write. The returned rollback must be called iff the remote pair of writes
// fails. A like while the flag is already set is rejected locally, which is
// the only guard against double submission while a request is in flight.
func (v *ViewState) OptimisticLike(storyID string) (rollback func(), ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.likedByMe[storyID] {
		return nil, false
	}
	v.likedByMe[storyID] = true
	v.counterDelta[storyID]++

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		v.likedByMe[storyID] = false
		v.counterDelta[storyID]--
	}, true
}

// OptimisticUnlike is the symmetric local-first removal.
func (v *ViewState) OptimisticUnlike(storyID string) (rollback func(), ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.likedByMe[storyID] {
		return nil, false
	}
	v.likedByMe[storyID] = false
	v.counterDelta[storyID]--

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		v.likedByMe[storyID] = true
		v.counterDelta[storyID]++
	}, true
}

// LikedByMe reports the optimistic membership flag.
func (v *ViewState) LikedByMe(storyID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.likedByMe[storyID]
}

// LikesCount returns the rendered counter for a story: the last server value
// plus any optimistic delta, floored at zero for display.
func (v *ViewState) LikesCount(storyID string) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	base := 0
	if v.snapshot != nil {
		for _, item := range v.snapshot.Items {
			if item.StoryID == storyID {
				base = item.LikesCount
				break
			}
		}
	}
	count := base + v.counterDelta[storyID]
	if count < 0 {
		count = 0
	}
	return count
}

// Items returns the currently rendered feed items.
func (v *ViewState) Items() []*model.FeedItem {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.snapshot == nil {
		return nil
	}
	return v.snapshot.Items
}
