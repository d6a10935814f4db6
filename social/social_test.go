package social

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yifanzhou/storyshare/apperr"
	"github.com/yifanzhou/storyshare/events"
	"github.com/yifanzhou/storyshare/model"
	"github.com/yifanzhou/storyshare/utils"
	"github.com/yifanzhou/storyshare/utils/dotenv"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	dotenv.LoadDotEnvsInTests()
	os.Exit(m.Run())
}

func TestStoreFailureIsNotMistakenForAbsence(t *testing.T) {
	m, db := newTestManager(t)
	_, err := m.EnsureProfile("user_a", "A")
	require.NoError(t, err)
	_, err = m.EnsureProfile("user_b", "B")
	require.NoError(t, err)

	conn, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	_, err = m.GetProfile("user_a")
	assert.ErrorIs(t, err, apperr.ErrPersistence)
	assert.NotErrorIs(t, err, apperr.ErrNotFound)

	err = m.Follow("user_a", "user_b")
	assert.ErrorIs(t, err, apperr.ErrPersistence)
	assert.NotErrorIs(t, err, apperr.ErrNotFound)
}

func newTestManager(t *testing.T) (*Manager, *gorm.DB) {
	db, _ := utils.CreateTempDB(t)
	return NewManager(db, events.NewEventBus()), db
}

func TestEnsureProfileIdempotent(t *testing.T) {
	m, db := newTestManager(t)

	first, err := m.EnsureProfile("user_1", "Ada")
	require.NoError(t, err)
	require.Equal(t, "user_1", first.UserID)
	require.Equal(t, "Ada", first.DisplayName)
	require.Equal(t, "", first.Bio)

	// Second call must not recreate or reset the profile.
	first.Bio = "updated bio"
	require.NoError(t, db.Save(first).Error)

	second, err := m.EnsureProfile("user_1", "Someone Else")
	require.NoError(t, err)
	assert.Equal(t, "Ada", second.DisplayName)
	assert.Equal(t, "updated bio", second.Bio)

	var count int64
	db.Model(&model.Profile{}).Where("user_id = ?", "user_1").Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestFollowSymmetry(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.EnsureProfile("a", "A")
	require.NoError(t, err)
	_, err = m.EnsureProfile("b", "B")
	require.NoError(t, err)

	require.NoError(t, m.Follow("a", "b"))

	following, err := m.Following("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, following)

	followers, err := m.Followers("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, followers)

	// Following is directional: b gained a follower, not a following.
	reverse, err := m.Following("b")
	require.NoError(t, err)
	assert.Empty(t, reverse)
}

func TestFollowTwiceIsNoop(t *testing.T) {
	m, db := newTestManager(t)
	m.EnsureProfile("a", "A")
	m.EnsureProfile("b", "B")

	require.NoError(t, m.Follow("a", "b"))
	require.NoError(t, m.Follow("a", "b"))

	var count int64
	db.Model(&model.FollowingEntry{}).Where("user_id = ?", "a").Count(&count)
	assert.Equal(t, int64(1), count)
	db.Model(&model.FollowerEntry{}).Where("user_id = ?", "b").Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUnfollowRemovesBothSides(t *testing.T) {
	m, _ := newTestManager(t)
	m.EnsureProfile("a", "A")
	m.EnsureProfile("b", "B")

	require.NoError(t, m.Follow("a", "b"))
	require.NoError(t, m.Unfollow("a", "b"))

	following, err := m.Following("a")
	require.NoError(t, err)
	assert.Empty(t, following)

	followers, err := m.Followers("b")
	require.NoError(t, err)
	assert.Empty(t, followers)
}

func TestUnfollowWithoutFollowIsNoop(t *testing.T) {
	m, _ := newTestManager(t)
	m.EnsureProfile("a", "A")
	m.EnsureProfile("b", "B")

	require.NoError(t, m.Unfollow("a", "b"))
}

func TestFollowSelfRejected(t *testing.T) {
	m, _ := newTestManager(t)
	m.EnsureProfile("a", "A")

	err := m.Follow("a", "a")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestFollowUnknownUserRejected(t *testing.T) {
	m, _ := newTestManager(t)
	m.EnsureProfile("a", "A")

	err := m.Follow("a", "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPartialFollowLeavesAsymmetricGraph(t *testing.T) {
	m, db := newTestManager(t)
	m.EnsureProfile("a", "A")
	m.EnsureProfile("b", "B")

	// Pre-insert the follower-side row so the second write of the pair
	// fails on its primary key, simulating a failure after the first write
	// landed.
	require.NoError(t, db.Create(&model.FollowerEntry{UserID: "b", PeerID: "a"}).Error)

	err := m.Follow("a", "b")
	assert.ErrorIs(t, err, apperr.ErrPartialGraphUpdate)

	// The first write stays: a believes it follows b.
	following, ferr := m.Following("a")
	require.NoError(t, ferr)
	assert.Equal(t, []string{"b"}, following)
}

func TestUpdateProfile(t *testing.T) {
	m, _ := newTestManager(t)
	m.EnsureProfile("a", "A")

	updated, err := m.UpdateProfile("a", "New Name", "new bio", "http://img")
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.DisplayName)
	assert.Equal(t, "new bio", updated.Bio)
	assert.Equal(t, "http://img", updated.ProfileImage)

	got, err := m.GetProfile("a")
	require.NoError(t, err)
	assert.Equal(t, "New Name", got.DisplayName)
}
