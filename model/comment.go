package model

import "time"

/*

Comment is a user comment attached to a story

Id: primary key (uuid)
StoryID: story the comment belongs to
UserID: author of the comment
Content: comment text in plain text
CreatedAt: time when entity is created
UpdatedAt: time of last edit

A comment is mutable and deletable by its author only; ownership is checked by
the engagement manager, not by the store.

*/

type Comment struct {
	Id        string `gorm:"primaryKey"`
	StoryID   string `gorm:"index"`
	UserID    string `gorm:"index"`
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
