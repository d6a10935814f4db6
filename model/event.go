package model

import "encoding/json"

// ChangeEventType enumerates the kinds of document changes that flow through
// the event bus to live-query subscribers.
type ChangeEventType string

const (
	ChangeTypeStoryCreated ChangeEventType = "story_created"
	ChangeTypeStoryDeleted ChangeEventType = "story_deleted"
	ChangeTypeEngagement   ChangeEventType = "engagement"
	ChangeTypeProfile      ChangeEventType = "profile"
	ChangeTypeGraph        ChangeEventType = "graph"
)

/*

ChangeEvent is the payload published on the event bus whenever a write lands
in the document store

Type: what kind of document changed
StoryID: set for story/engagement changes
UserID: the user whose action produced the change

Subscribers treat an event purely as an invalidation hint and re-run their
query against the store; the event carries no document body on purpose.

*/

type ChangeEvent struct {
	Type    ChangeEventType `json:"type"`
	StoryID string          `json:"storyId,omitempty"`
	UserID  string          `json:"userId,omitempty"`
}

func (e *ChangeEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

func UnmarshalChangeEvent(data []byte) (*ChangeEvent, error) {
	var e ChangeEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
