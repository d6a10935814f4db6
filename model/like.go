package model

import "time"

/*

Like is a "user liked a story" membership row

StoryID: story id, composite primary key
UserID: user id, composite primary key
CreatedAt: time when relation is created

At most one Like should exist per (StoryID, UserID). Uniqueness is enforced by
a query-before-insert in the engagement manager, not by a storage constraint,
so a concurrent double-submit can still slip a duplicate through.

*/

type Like struct {
	StoryID   string `gorm:"primaryKey"`
	UserID    string `gorm:"primaryKey"`
	CreatedAt time.Time
}
