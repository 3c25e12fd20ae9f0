package service

import (
	"context"

	"levelforum/internal/models"

	"gorm.io/gorm"
)

// TopicFollowService manages follow subscriptions between users and topics.
type TopicFollowService struct {
	db   *gorm.DB
	safe *SafeExecutor
}

// NewTopicFollowService returns a new TopicFollowService.
func NewTopicFollowService(db *gorm.DB, safe *SafeExecutor) *TopicFollowService {
	return &TopicFollowService{db: db, safe: safe}
}

// FollowTopic subscribes a user to a live topic. Following a topic the user
// already follows is a no-op.
func (s *TopicFollowService) FollowTopic(ctx context.Context, userID, topicID uint) error {
	_, err := Execute(ctx, s.safe, "TopicFollowService.FollowTopic",
		opParams{"userId": userID, "topicId": topicID},
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				var count int64
				if err := tx.Model(&models.Topic{}).
					Where("id = ? AND is_deleted = ?", topicID, false).
					Count(&count).Error; err != nil {
					return err
				}
				if count == 0 {
					return models.NewNotFoundError("Topic")
				}

				if err := tx.Model(&models.TopicFollow{}).
					Where("user_id = ? AND topic_id = ?", userID, topicID).
					Count(&count).Error; err != nil {
					return err
				}
				if count > 0 {
					return nil
				}

				return tx.Create(&models.TopicFollow{UserID: userID, TopicID: topicID}).Error
			})
		})
	return err
}

// UnfollowTopic removes a user's subscription. Unfollowing a topic the user
// does not follow is a no-op.
func (s *TopicFollowService) UnfollowTopic(ctx context.Context, userID, topicID uint) error {
	_, err := Execute(ctx, s.safe, "TopicFollowService.UnfollowTopic",
		opParams{"userId": userID, "topicId": topicID},
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.db.WithContext(ctx).
				Where("user_id = ? AND topic_id = ?", userID, topicID).
				Delete(&models.TopicFollow{}).Error
		})
	return err
}

// IsFollowing reports whether the user follows the topic.
func (s *TopicFollowService) IsFollowing(ctx context.Context, userID, topicID uint) (bool, error) {
	return Execute(ctx, s.safe, "TopicFollowService.IsFollowing",
		opParams{"userId": userID, "topicId": topicID},
		func(ctx context.Context) (bool, error) {
			var count int64
			err := s.db.WithContext(ctx).Model(&models.TopicFollow{}).
				Where("user_id = ? AND topic_id = ?", userID, topicID).
				Count(&count).Error
			return count > 0, err
		})
}

// GetFollowedTopics lists the live topics a user follows, most recently
// active first, each with its follower count.
func (s *TopicFollowService) GetFollowedTopics(ctx context.Context, userID uint) ([]models.Topic, error) {
	return Execute(ctx, s.safe, "TopicFollowService.GetFollowedTopics",
		opParams{"userId": userID},
		func(ctx context.Context) ([]models.Topic, error) {
			var topics []models.Topic
			err := withFollowerCount(s.db.WithContext(ctx)).
				Joins("JOIN topic_follows tf ON tf.topic_id = topics.id AND tf.user_id = ?", userID).
				Where("topics.is_deleted = ?", false).
				Order("topics.last_activity_at DESC").
				Find(&topics).Error
			return topics, err
		})
}
