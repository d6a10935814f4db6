package model

import "time"

/*

FeedItem is the view model for one story in a feed snapshot, merging the story
with its author's profile so clients never do the secondary lookup themselves

StoryID/Content/ImageUrl/LikesCount/CommentsCount/CreatedAt: copied from Story
AuthorID: Story.UserID
AuthorName: Profile.DisplayName of the author
AuthorImage: Profile.ProfileImage of the author

*/

type FeedItem struct {
	StoryID       string    `json:"storyId"`
	Content       string    `json:"content"`
	ImageUrl      string    `json:"imageUrl"`
	LikesCount    int       `json:"likesCount"`
	CommentsCount int       `json:"commentsCount"`
	CreatedAt     time.Time `json:"createdAt"`
	AuthorID      string    `json:"authorId"`
	AuthorName    string    `json:"authorName"`
	AuthorImage   string    `json:"authorImage"`
}

// FeedSnapshot is one full delivery of the live feed query, newest story
// first. A subscriber always receives whole snapshots, never deltas.
type FeedSnapshot struct {
	Items       []*FeedItem `json:"items"`
	GeneratedAt time.Time   `json:"generatedAt"`
}
