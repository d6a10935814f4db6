// social maintains per-user profiles and the follower/following relation.
//
// The graph is stored denormalized: "a follows b" lives both in a's following
// table and in b's followers table, and the two rows are written by two
// independent calls. A failure between them leaves the graph asymmetric and
// is reported as apperr.ErrPartialGraphUpdate; there is no compensating
// action, the caller decides whether to retry.
package social

import (
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
	"github.com/yifanzhou/storyshare/apperr"
	"github.com/yifanzhou/storyshare/events"
	"github.com/yifanzhou/storyshare/model"
	Logger "github.com/yifanzhou/storyshare/utils/log"
	"gorm.io/gorm"
)

type Manager struct {
	DB  *gorm.DB
	Bus *gochannel.GoChannel
}

func NewManager(db *gorm.DB, bus *gochannel.GoChannel) *Manager {
	return &Manager{DB: db, Bus: bus}
}

// EnsureProfile lazily creates the default profile for a user. The existence
// check runs before the insert so the call is idempotent; a lost race between
// two first logins resolves to the same row because both writers target the
// same key with the same defaults.
func (m *Manager) EnsureProfile(userID string, displayName string) (*model.Profile, error) {
	var profile model.Profile
	res := m.DB.Where("user_id = ?", userID).First(&profile)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(apperr.ErrPersistence, res.Error.Error())
	}
	if res.RowsAffected == 1 {
		return &profile, nil
	}

	now := time.Now()
	profile = model.Profile{
		UserID:      userID,
		DisplayName: displayName,
		Bio:         "",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.DB.Create(&profile).Error; err != nil {
		return nil, errors.Wrap(apperr.ErrPersistence, err.Error())
	}
	return &profile, nil
}

// GetProfile reads a profile by its key.
func (m *Manager) GetProfile(userID string) (*model.Profile, error) {
	var profile model.Profile
	res := m.DB.Where("user_id = ?", userID).First(&profile)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(apperr.ErrPersistence, res.Error.Error())
	}
	if res.RowsAffected != 1 {
		return nil, errors.Wrap(apperr.ErrNotFound, "no profile for user "+userID)
	}
	return &profile, nil
}

// UpdateProfile patches the mutable profile fields and notifies feed
// subscribers, since author names are merged into feed items.
func (m *Manager) UpdateProfile(userID, displayName, bio, profileImage string) (*model.Profile, error) {
	profile, err := m.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	profile.DisplayName = displayName
	profile.Bio = bio
	profile.ProfileImage = profileImage
	profile.UpdatedAt = time.Now()
	if err := m.DB.Save(profile).Error; err != nil {
		return nil, errors.Wrap(apperr.ErrPersistence, err.Error())
	}

	events.Publish(m.Bus, events.TopicFeedChange, &model.ChangeEvent{
		Type:   model.ChangeTypeProfile,
		UserID: userID,
	})
	return profile, nil
}

// Follow records "a follows b". Two independent writes: first into a's
// following set, then into b's followers set. If the first write fails
// nothing changed; if only the second fails the graph is asymmetric and the
// error is apperr.ErrPartialGraphUpdate.
func (m *Manager) Follow(a, b string) error {
	if a == b {
		return errors.Wrap(apperr.ErrValidation, "cannot follow yourself")
	}
	if err := m.checkProfilesExist(a, b); err != nil {
		return err
	}

	// Membership is guarded by query-before-insert, same as likes. Two
	// concurrent first follows can both pass this check; the second insert
	// then fails on the primary key, which we treat as already-followed.
	var existing model.FollowingEntry
	res := m.DB.Where("user_id = ? AND peer_id = ?", a, b).First(&existing)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return errors.Wrap(apperr.ErrPersistence, res.Error.Error())
	}
	if res.RowsAffected == 1 {
		return nil
	}

	now := time.Now()
	res = m.DB.Create(&model.FollowingEntry{UserID: a, PeerID: b, CreatedAt: now})
	if res.Error != nil {
		return errors.Wrap(apperr.ErrPersistence, res.Error.Error())
	}

	res = m.DB.Create(&model.FollowerEntry{UserID: b, PeerID: a, CreatedAt: now})
	if res.Error != nil {
		Logger.Log.Error("follow second write failed, graph asymmetric: ", res.Error)
		return errors.Wrap(apperr.ErrPartialGraphUpdate, res.Error.Error())
	}

	events.Publish(m.Bus, events.TopicFeedChange, &model.ChangeEvent{
		Type:   model.ChangeTypeGraph,
		UserID: a,
	})
	return nil
}

// Unfollow removes "a follows b" with the same two-write shape and the same
// partial failure mode as Follow. Removing a relation that does not exist is
// a no-op.
func (m *Manager) Unfollow(a, b string) error {
	res := m.DB.Where("user_id = ? AND peer_id = ?", a, b).Delete(&model.FollowingEntry{})
	if res.Error != nil {
		return errors.Wrap(apperr.ErrPersistence, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return nil
	}

	res = m.DB.Where("user_id = ? AND peer_id = ?", b, a).Delete(&model.FollowerEntry{})
	if res.Error != nil {
		Logger.Log.Error("unfollow second write failed, graph asymmetric: ", res.Error)
		return errors.Wrap(apperr.ErrPartialGraphUpdate, res.Error.Error())
	}

	events.Publish(m.Bus, events.TopicFeedChange, &model.ChangeEvent{
		Type:   model.ChangeTypeGraph,
		UserID: a,
	})
	return nil
}

// Following returns the ids of everyone userID follows.
func (m *Manager) Following(userID string) ([]string, error) {
	var entries []model.FollowingEntry
	if err := m.DB.Where("user_id = ?", userID).Find(&entries).Error; err != nil {
		return nil, errors.Wrap(apperr.ErrPersistence, err.Error())
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.PeerID)
	}
	return ids, nil
}

// Followers returns the ids of everyone following userID.
func (m *Manager) Followers(userID string) ([]string, error) {
	var entries []model.FollowerEntry
	if err := m.DB.Where("user_id = ?", userID).Find(&entries).Error; err != nil {
		return nil, errors.Wrap(apperr.ErrPersistence, err.Error())
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.PeerID)
	}
	return ids, nil
}

func (m *Manager) checkProfilesExist(ids ...string) error {
	for _, id := range ids {
		var profile model.Profile
		res := m.DB.Where("user_id = ?", id).First(&profile)
		if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return errors.Wrap(apperr.ErrPersistence, res.Error.Error())
		}
		if res.RowsAffected != 1 {
			return errors.Wrap(apperr.ErrNotFound, "no profile for user "+id)
		}
	}
	return nil
}
