// Package testutil provides shared fixtures for backend tests.
package testutil

import (
	"testing"

	"virtuefeed/internal/database"
	"virtuefeed/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewSQLiteDB opens a private in-memory database with the full schema applied.
// A single connection keeps every query on the same in-memory instance.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), database.GormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

// CreateUser inserts a user whose external id, email and username derive from name.
func CreateUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()

	user := &models.User{
		ExternalID: "ext_" + name,
		Email:      name + "@example.com",
		Username:   name,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreatePost inserts a post by author.
func CreatePost(t *testing.T, db *gorm.DB, author *models.User, content string) *models.Post {
	t.Helper()

	post := &models.Post{AuthorID: author.ID, Content: content}
	require.NoError(t, db.Create(post).Error)
	return post
}

// CreateComment inserts a comment by author on post.
func CreateComment(t *testing.T, db *gorm.DB, post *models.Post, author *models.User, content string) *models.Comment {
	t.Helper()

	comment := &models.Comment{PostID: post.ID, AuthorID: author.ID, Content: content}
	require.NoError(t, db.Create(comment).Error)
	return comment
}
