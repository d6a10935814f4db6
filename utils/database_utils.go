// database_utils should be the canonical place to put shared DB utils.
// It should not include:
// 1. Any util that doesn't manipulate DB
// 2. Any util that contains business logic
package utils

import (
	"fmt"
	"os"
	"testing"

	"github.com/yifanzhou/storyshare/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestDBPrefix         = "testonlydb_"
	TestDBNameCharLength = 8
)

// GormTransaction is the callback function used during db.Transaction in Gorm.
type GormTransaction func(tx *gorm.DB) error

// GetDBConnection get a connection to the database specified by env
func GetDBConnection() (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"), os.Getenv("DB_USER"), os.Getenv("DB_PASS"),
		os.Getenv("DB_NAME"), os.Getenv("DB_PORT"))
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// CreateTempDB creates a throwaway in-memory database for a single test and
// runs the full migration against it. Each call gets its own private store,
// so tests never observe each other's writes. The database is released when
// its last connection closes, which the cleanup hook takes care of.
func CreateTempDB(t *testing.T) (*gorm.DB, string) {
	t.Helper()
	dbName := TestDBPrefix + RandomAlphabetString(TestDBNameCharLength)
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", dbName)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal("cannot open temp DB: ", err)
	}
	DatabaseSetupAndMigration(db)
	t.Cleanup(func() {
		// Proactively close the connection instead of deferring to GC,
		// otherwise a long test run can exceed the open handle limit.
		conn, _ := db.DB()
		conn.Close()
	})
	return db, dbName
}

// DatabaseSetupAndMigration migrates every persisted entity. Safe to run
// repeatedly against the same database.
func DatabaseSetupAndMigration(db *gorm.DB) {
	err := db.AutoMigrate(
		&model.User{},
		&model.Profile{},
		&model.FollowingEntry{},
		&model.FollowerEntry{},
		&model.Story{},
		&model.Like{},
		&model.Comment{},
	)
	if err != nil {
		panic("failed to migrate database")
	}
}
