package seed

import (
	"testing"

	"levelforum/internal/database"
	"levelforum/internal/leveling"
	"levelforum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSeedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestRunProducesConsistentData(t *testing.T) {
	db := setupSeedDB(t)

	opts := Options{NumUsers: 10, NumTopics: 3, PostsPerTopic: 2}
	require.NoError(t, Run(db, opts))

	var userCount, topicCount, postCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	require.NoError(t, db.Model(&models.Topic{}).Count(&topicCount).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&postCount).Error)
	assert.EqualValues(t, 10, userCount)
	assert.EqualValues(t, 3, topicCount)
	assert.EqualValues(t, 6, postCount)

	// Every topic carries an owner role and at least the creator as follower.
	var topics []models.Topic
	require.NoError(t, db.Find(&topics).Error)
	for _, topic := range topics {
		var ownerCount, followCount int64
		require.NoError(t, db.Model(&models.UserTopicRole{}).
			Where("topic_id = ? AND role = ?", topic.ID, models.RoleOwner).
			Count(&ownerCount).Error)
		assert.EqualValues(t, 1, ownerCount)

		require.NoError(t, db.Model(&models.TopicFollow{}).
			Where("topic_id = ?", topic.ID).Count(&followCount).Error)
		assert.GreaterOrEqual(t, followCount, int64(1))
	}

	// Experience matches the vote ledger for every user.
	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	for _, user := range users {
		var upvotes int64
		require.NoError(t, db.Model(&models.Vote{}).
			Where("value = 1").
			Where("(target_type = 'post' AND target_id IN (SELECT id FROM posts WHERE author_id = ?)) OR "+
				"(target_type = 'comment' AND target_id IN (SELECT id FROM comments WHERE author_id = ?))",
				user.ID, user.ID).
			Count(&upvotes).Error)
		assert.Equal(t, int(upvotes)*leveling.ExpPerUpvote, user.Experience,
			"user %d experience should mirror upvotes", user.ID)
	}

	// Rerunning with ShouldClean resets instead of accumulating.
	opts.ShouldClean = true
	require.NoError(t, Run(db, opts))
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	assert.EqualValues(t, 10, userCount)
}
