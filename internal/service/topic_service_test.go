package service

import (
	"context"
	"testing"

	"levelforum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTopicBundlesOwnerRoleAndFollow(t *testing.T) {
	db, safe := newTestServices(t)
	topics := NewTopicService(db, safe)
	ctx := context.Background()

	creator := createTestUser(t, db)
	topic, err := topics.CreateTopic(ctx, creator.ID, "Woodworking", "saws and glue")
	require.NoError(t, err)
	require.NotZero(t, topic.ID)

	var role models.UserTopicRole
	require.NoError(t, db.Where("user_id = ? AND topic_id = ?", creator.ID, topic.ID).First(&role).Error)
	assert.Equal(t, models.RoleOwner, role.Role)

	var follow models.TopicFollow
	require.NoError(t, db.Where("user_id = ? AND topic_id = ?", creator.ID, topic.ID).First(&follow).Error)

	got, err := topics.GetTopic(ctx, topic.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.FollowerCount)
}

func TestCreateTopicValidation(t *testing.T) {
	db, safe := newTestServices(t)
	topics := NewTopicService(db, safe)
	ctx := context.Background()

	creator := createTestUser(t, db)

	_, err := topics.CreateTopic(ctx, creator.ID, "   ", "")
	assert.Equal(t, models.CodeInvalidInput, models.ErrorCode(err))

	_, err = topics.CreateTopic(ctx, 999, "Ghost Topic", "")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	_, err = topics.CreateTopic(ctx, creator.ID, "Woodworking", "")
	require.NoError(t, err)
	_, err = topics.CreateTopic(ctx, creator.ID, "woodworking", "case-insensitive dup")
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))
}

func TestSearchTopics(t *testing.T) {
	db, safe := newTestServices(t)
	topics := NewTopicService(db, safe)
	ctx := context.Background()

	creator := createTestUser(t, db)
	_, err := topics.CreateTopic(ctx, creator.ID, "Go Programming", "")
	require.NoError(t, err)
	_, err = topics.CreateTopic(ctx, creator.ID, "Rust Programming", "")
	require.NoError(t, err)
	deleted, err := topics.CreateTopic(ctx, creator.ID, "Go Archive", "")
	require.NoError(t, err)
	require.NoError(t, topics.SoftDeleteTopic(ctx, deleted.ID))

	page, err := topics.SearchTopics(ctx, "go", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Go Programming", page.Items[0].Title)
	assert.EqualValues(t, 1, page.Total)

	all, err := topics.SearchTopics(ctx, "", 1, 10)
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
}

func TestGetSidebarSuggestionsExcludesFollowed(t *testing.T) {
	db, safe := newTestServices(t)
	topics := NewTopicService(db, safe)
	follows := NewTopicFollowService(db, safe)
	ctx := context.Background()

	creator := createTestUser(t, db)
	viewer := createTestUser(t, db)

	// Created first so ranking by follower count has to beat creation order.
	quiet, err := topics.CreateTopic(ctx, creator.ID, "Quiet", "")
	require.NoError(t, err)
	popular, err := topics.CreateTopic(ctx, creator.ID, "Popular", "")
	require.NoError(t, err)
	followed, err := topics.CreateTopic(ctx, creator.ID, "Already Followed", "")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		fan := createTestUser(t, db)
		require.NoError(t, follows.FollowTopic(ctx, fan.ID, popular.ID))
	}
	require.NoError(t, follows.FollowTopic(ctx, viewer.ID, followed.ID))

	suggestions, err := topics.GetSidebarSuggestions(ctx, viewer.ID, 15)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, popular.ID, suggestions[0].ID)
	assert.Equal(t, 4, suggestions[0].FollowerCount) // creator plus three fans
	assert.Equal(t, quiet.ID, suggestions[1].ID)
}

func TestSetTopicLockedAndDelete(t *testing.T) {
	db, safe := newTestServices(t)
	topics := NewTopicService(db, safe)
	ctx := context.Background()

	creator := createTestUser(t, db)
	topic := createTestTopic(t, db, topics, creator.ID)

	require.NoError(t, topics.SetTopicLocked(ctx, topic.ID, true))
	got, err := topics.GetTopic(ctx, topic.ID)
	require.NoError(t, err)
	assert.True(t, got.IsLocked)

	require.NoError(t, topics.SoftDeleteTopic(ctx, topic.ID))
	_, err = topics.GetTopic(ctx, topic.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	err = topics.SoftDeleteTopic(ctx, topic.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestFollowTopicIdempotent(t *testing.T) {
	db, safe := newTestServices(t)
	topics := NewTopicService(db, safe)
	follows := NewTopicFollowService(db, safe)
	ctx := context.Background()

	creator := createTestUser(t, db)
	fan := createTestUser(t, db)
	topic := createTestTopic(t, db, topics, creator.ID)

	require.NoError(t, follows.FollowTopic(ctx, fan.ID, topic.ID))
	require.NoError(t, follows.FollowTopic(ctx, fan.ID, topic.ID))

	following, err := follows.IsFollowing(ctx, fan.ID, topic.ID)
	require.NoError(t, err)
	assert.True(t, following)

	list, err := follows.GetFollowedTopics(ctx, fan.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].FollowerCount)

	require.NoError(t, follows.UnfollowTopic(ctx, fan.ID, topic.ID))
	require.NoError(t, follows.UnfollowTopic(ctx, fan.ID, topic.ID))

	following, err = follows.IsFollowing(ctx, fan.ID, topic.ID)
	require.NoError(t, err)
	assert.False(t, following)
}

func TestFollowTopicMissingTopic(t *testing.T) {
	db, safe := newTestServices(t)
	follows := NewTopicFollowService(db, safe)

	fan := createTestUser(t, db)
	err := follows.FollowTopic(context.Background(), fan.ID, 999)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}
