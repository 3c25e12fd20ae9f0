package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"levelforum/internal/models"

	"gorm.io/gorm"
)

// TopicService manages topics: the named boards posts live under.
type TopicService struct {
	db   *gorm.DB
	safe *SafeExecutor
}

// NewTopicService returns a new TopicService.
func NewTopicService(db *gorm.DB, safe *SafeExecutor) *TopicService {
	return &TopicService{db: db, safe: safe}
}

// withFollowerCount attaches the live follower count as a computed column.
func withFollowerCount(tx *gorm.DB) *gorm.DB {
	return tx.Model(&models.Topic{}).Select(
		"topics.*, (SELECT COUNT(*) FROM topic_follows WHERE topic_follows.topic_id = topics.id) AS follower_count",
	)
}

// CreateTopic creates a topic and, in the same transaction, grants the
// creator the Owner role on it and subscribes them as a follower.
func (s *TopicService) CreateTopic(ctx context.Context, creatorID uint, title, description string) (*models.Topic, error) {
	return Execute(ctx, s.safe, "TopicService.CreateTopic",
		opParams{"creatorId": creatorID, "title": title},
		func(ctx context.Context) (*models.Topic, error) {
			title = strings.TrimSpace(title)
			if title == "" {
				return nil, models.NewInvalidInputError("Title is required")
			}

			topic := models.Topic{
				Title:          title,
				Description:    description,
				CreatedByID:    &creatorID,
				LastActivityAt: time.Now().UTC(),
			}

			err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				var count int64
				if err := tx.Model(&models.User{}).
					Where("id = ? AND is_deleted = ?", creatorID, false).
					Count(&count).Error; err != nil {
					return err
				}
				if count == 0 {
					return models.NewNotFoundError("User")
				}

				if err := tx.Model(&models.Topic{}).
					Where("LOWER(title) = LOWER(?)", title).
					Count(&count).Error; err != nil {
					return err
				}
				if count > 0 {
					return models.NewConflictError("A topic with this title already exists")
				}

				if err := tx.Create(&topic).Error; err != nil {
					return err
				}
				if err := tx.Create(&models.UserTopicRole{
					UserID:  creatorID,
					TopicID: topic.ID,
					Role:    models.RoleOwner,
				}).Error; err != nil {
					return err
				}
				return tx.Create(&models.TopicFollow{
					UserID:  creatorID,
					TopicID: topic.ID,
				}).Error
			})
			if err != nil {
				return nil, err
			}
			return &topic, nil
		})
}

// GetTopic returns a live topic with its follower count.
func (s *TopicService) GetTopic(ctx context.Context, id uint) (*models.Topic, error) {
	return Execute(ctx, s.safe, "TopicService.GetTopic", opParams{"id": id},
		func(ctx context.Context) (*models.Topic, error) {
			var topic models.Topic
			err := withFollowerCount(s.db.WithContext(ctx)).
				Where("topics.id = ? AND topics.is_deleted = ?", id, false).
				First(&topic).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewNotFoundError("Topic")
			}
			if err != nil {
				return nil, err
			}
			return &topic, nil
		})
}

// SearchTopics pages through live topics whose title matches the query.
// An empty query lists all live topics, most recently active first.
func (s *TopicService) SearchTopics(ctx context.Context, query string, page, pageSize int) (*PagedResult[models.Topic], error) {
	return Execute(ctx, s.safe, "TopicService.SearchTopics",
		opParams{"query": query, "page": page},
		func(ctx context.Context) (*PagedResult[models.Topic], error) {
			page, pageSize := normalizePage(page, pageSize)

			base := s.db.WithContext(ctx).Model(&models.Topic{}).
				Where("topics.is_deleted = ?", false)
			if q := strings.TrimSpace(query); q != "" {
				base = base.Where("LOWER(topics.title) LIKE ?", "%"+strings.ToLower(q)+"%")
			}

			var total int64
			if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
				return nil, err
			}

			var topics []models.Topic
			err := withFollowerCount(base).
				Order("topics.last_activity_at DESC").
				Offset((page - 1) * pageSize).
				Limit(pageSize).
				Find(&topics).Error
			if err != nil {
				return nil, err
			}

			return &PagedResult[models.Topic]{
				Items:    topics,
				Total:    total,
				Page:     page,
				PageSize: pageSize,
			}, nil
		})
}

// GetSidebarSuggestions returns up to limit live, unfollowed topics ranked
// by follower count. Pass userID 0 for an anonymous caller.
func (s *TopicService) GetSidebarSuggestions(ctx context.Context, userID uint, limit int) ([]models.Topic, error) {
	return Execute(ctx, s.safe, "TopicService.GetSidebarSuggestions",
		opParams{"userId": userID},
		func(ctx context.Context) ([]models.Topic, error) {
			if limit <= 0 {
				limit = 15
			}

			tx := withFollowerCount(s.db.WithContext(ctx)).
				Where("topics.is_deleted = ? AND topics.is_banned = ?", false, false)
			if userID != 0 {
				tx = tx.Where(
					"topics.id NOT IN (SELECT topic_id FROM topic_follows WHERE user_id = ?)",
					userID,
				)
			}

			var topics []models.Topic
			err := tx.Order("follower_count DESC, topics.last_activity_at DESC").
				Limit(limit).
				Find(&topics).Error
			return topics, err
		})
}

func (s *TopicService) liveTopic(tx *gorm.DB, id uint) (*models.Topic, error) {
	var topic models.Topic
	err := tx.Where("id = ? AND is_deleted = ?", id, false).First(&topic).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Topic")
	}
	if err != nil {
		return nil, err
	}
	return &topic, nil
}

// UpdateTopic changes a live topic's description.
func (s *TopicService) UpdateTopic(ctx context.Context, id uint, description string) (*models.Topic, error) {
	return Execute(ctx, s.safe, "TopicService.UpdateTopic", opParams{"id": id},
		func(ctx context.Context) (*models.Topic, error) {
			var topic *models.Topic
			err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				var err error
				topic, err = s.liveTopic(tx, id)
				if err != nil {
					return err
				}
				topic.Description = description
				return tx.Model(topic).Update("description", description).Error
			})
			if err != nil {
				return nil, err
			}
			return topic, nil
		})
}

// SetTopicLocked locks or unlocks a topic. A locked topic rejects new posts
// and comments but stays readable.
func (s *TopicService) SetTopicLocked(ctx context.Context, id uint, locked bool) error {
	_, err := Execute(ctx, s.safe, "TopicService.SetTopicLocked",
		opParams{"id": id, "locked": locked},
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				topic, err := s.liveTopic(tx, id)
				if err != nil {
					return err
				}
				return tx.Model(topic).Update("is_locked", locked).Error
			})
		})
	return err
}

// SetTopicBanned bans or unbans a topic. Banned topics are hidden from
// suggestions but remain reachable by direct lookup.
func (s *TopicService) SetTopicBanned(ctx context.Context, id uint, banned bool) error {
	_, err := Execute(ctx, s.safe, "TopicService.SetTopicBanned",
		opParams{"id": id, "banned": banned},
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				topic, err := s.liveTopic(tx, id)
				if err != nil {
					return err
				}
				return tx.Model(topic).Update("is_banned", banned).Error
			})
		})
	return err
}

// SoftDeleteTopic marks a topic deleted. Posts under it stop being listed
// because every post query joins against live topics.
func (s *TopicService) SoftDeleteTopic(ctx context.Context, id uint) error {
	_, err := Execute(ctx, s.safe, "TopicService.SoftDeleteTopic", opParams{"id": id},
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				topic, err := s.liveTopic(tx, id)
				if err != nil {
					return err
				}
				return tx.Model(topic).Update("is_deleted", true).Error
			})
		})
	return err
}
