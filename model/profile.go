package model

import "time"

/*

Profile is the public-facing record for a user, created lazily on the first
authenticated session if absent

UserID: primary key, equals User.Id
DisplayName: name shown on stories and comments
Bio: free-form self description
ProfileImage: url of the profile picture
CreatedAt: time when entity is created
UpdatedAt: time of last profile edit

The follower/following sets are NOT embedded here. They are denormalized into
two independent tables (FollowingEntry, FollowerEntry), each maintained by its
own write call. The invariant "A follows B implies B's followers contain A" is
only as strong as that pair of writes; a failure between them leaves the graph
asymmetric. See social.Manager.

*/

type Profile struct {
	UserID       string `gorm:"primaryKey"`
	DisplayName  string
	Bio          string
	ProfileImage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

/*

FollowingEntry is one element of a user's denormalized "following" set

UserID: the follower, composite primary key
PeerID: the user being followed, composite primary key
CreatedAt: time when relation is created

*/

type FollowingEntry struct {
	UserID    string `gorm:"primaryKey"`
	PeerID    string `gorm:"primaryKey"`
	CreatedAt time.Time
}

/*

FollowerEntry is one element of a user's denormalized "followers" set

UserID: the user being followed, composite primary key
PeerID: the follower, composite primary key
CreatedAt: time when relation is created

*/

type FollowerEntry struct {
	UserID    string `gorm:"primaryKey"`
	PeerID    string `gorm:"primaryKey"`
	CreatedAt time.Time
}
