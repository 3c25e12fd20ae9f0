package service

import (
	"context"
	"fmt"
	"testing"

	"levelforum/internal/database"
	"levelforum/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestServices(t *testing.T) (*gorm.DB, *SafeExecutor) {
	t.Helper()
	db := setupTestDB(t)
	return db, NewSafeExecutor(db)
}

var userSeq int

func createTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	userSeq++
	user := models.User{
		Username:     fmt.Sprintf("user%d", userSeq),
		Email:        fmt.Sprintf("user%d@example.com", userSeq),
		PasswordHash: "x",
		GlobalRole:   models.RoleUser,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createTestTopic(t *testing.T, db *gorm.DB, svc *TopicService, creatorID uint) *models.Topic {
	t.Helper()
	userSeq++
	topic, err := svc.CreateTopic(context.Background(), creatorID, fmt.Sprintf("Topic %d", userSeq), "a test topic")
	require.NoError(t, err)
	return topic
}

func createTestPost(t *testing.T, db *gorm.DB, topicID, authorID uint) *models.Post {
	t.Helper()
	post := models.Post{
		TopicID:  topicID,
		AuthorID: authorID,
		Title:    "A post",
		Body:     "post body",
	}
	require.NoError(t, db.Create(&post).Error)
	return &post
}

func createTestComment(t *testing.T, db *gorm.DB, postID, authorID uint, parentID *uint) *models.Comment {
	t.Helper()
	comment := models.Comment{
		PostID:          postID,
		AuthorID:        authorID,
		ParentCommentID: parentID,
		Body:            "comment body",
	}
	require.NoError(t, db.Create(&comment).Error)
	return &comment
}
