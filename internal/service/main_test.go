package service

import (
	"testing"

	"virtuefeed/internal/models"
	"virtuefeed/internal/testutil"

	"gorm.io/gorm"
)

type serviceDB struct {
	gorm *gorm.DB
	user *models.User
	post *models.Post
}

// newServiceDB seeds one user with one post in a private sqlite database.
func newServiceDB(t *testing.T) serviceDB {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	user := testutil.CreateUser(t, db, "alice")
	return serviceDB{gorm: db, user: user, post: testutil.CreatePost(t, db, user, "hello")}
}
