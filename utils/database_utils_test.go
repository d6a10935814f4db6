package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yifanzhou/storyshare/model"
)

// Migration must produce a usable table for every persisted entity; a bad
// column tag surfaces here as a panic before any row is written.
func TestCreateTempDBMigratesEveryModel(t *testing.T) {
	db, name := CreateTempDB(t)
	assert.NotEmpty(t, name)

	now := time.Now()
	require.NoError(t, db.Create(&model.User{Id: "u1", CreatedAt: now}).Error)
	require.NoError(t, db.Create(&model.Profile{UserID: "u1", CreatedAt: now, UpdatedAt: now}).Error)
	require.NoError(t, db.Create(&model.FollowingEntry{UserID: "u1", PeerID: "u2", CreatedAt: now}).Error)
	require.NoError(t, db.Create(&model.FollowerEntry{UserID: "u2", PeerID: "u1", CreatedAt: now}).Error)
	require.NoError(t, db.Create(&model.Story{Id: "s1", UserID: "u1", Content: "hello", CreatedAt: now, Cursor: now.UnixNano()}).Error)
	require.NoError(t, db.Create(&model.Like{StoryID: "s1", UserID: "u1", CreatedAt: now}).Error)
	require.NoError(t, db.Create(&model.Comment{Id: "c1", StoryID: "s1", UserID: "u1", Content: "hi", CreatedAt: now, UpdatedAt: now}).Error)
}

func TestCreateTempDBIsolation(t *testing.T) {
	dbOne, _ := CreateTempDB(t)
	dbTwo, _ := CreateTempDB(t)

	require.NoError(t, dbOne.Create(&model.User{Id: "u1", CreatedAt: time.Now()}).Error)

	var count int64
	require.NoError(t, dbTwo.Model(&model.User{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestContainsString(t *testing.T) {
	assert.True(t, ContainsString([]string{"a", "b"}, "b"))
	assert.False(t, ContainsString([]string{"a", "b"}, "c"))
	assert.False(t, ContainsString(nil, "a"))
}

func TestRandomAlphabetString(t *testing.T) {
	s := RandomAlphabetString(8)
	assert.Len(t, s, 8)
}
