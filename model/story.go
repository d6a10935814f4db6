package model

import "time"

// MaxStoryContentLength is the upper bound for story text, inclusive.
const MaxStoryContentLength = 150

/*

Story is a user-authored short text post with a generated image

Id: primary key (uuid)
UserID: author of the story
Content: story text in plain text, 1..150 characters
ImageUrl: url of the generated image in the blob store
LikesCount: denormalized count of Like rows for this story, never negative
CommentsCount: denormalized count of Comment rows for this story, never negative
CreatedAt: time when entity is created
Cursor: monotonic ordering key assigned at creation time from the insert
timestamp, reserved for keyset pagination

LikesCount/CommentsCount are derived aggregates. They are incremented and
decremented by separate writes next to the Like/Comment row writes, never
recomputed from source of truth on read, so they can drift under races. The
engagement manager clamps decrements at zero.

*/

type Story struct {
	Id            string `gorm:"primaryKey"`
	UserID        string `gorm:"index"`
	Content       string
	ImageUrl      string
	LikesCount    int
	CommentsCount int
	CreatedAt     time.Time
	Cursor        int64 `gorm:"index"`
}
