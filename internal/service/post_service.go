package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"levelforum/internal/models"

	"gorm.io/gorm"
)

// PostService manages posts and their read models.
type PostService struct {
	db   *gorm.DB
	safe *SafeExecutor
}

// NewPostService returns a new PostService.
func NewPostService(db *gorm.DB, safe *SafeExecutor) *PostService {
	return &PostService{db: db, safe: safe}
}

// withPostDetails attaches the computed score and the viewer's own vote as
// read-only columns. viewerID 0 means anonymous: my_vote comes back 0.
func withPostDetails(tx *gorm.DB, viewerID uint) *gorm.DB {
	return tx.Model(&models.Post{}).Select(
		"posts.*, "+
			"(SELECT COALESCE(SUM(value), 0) FROM votes WHERE votes.target_type = 'post' AND votes.target_id = posts.id) AS score, "+
			"(SELECT COALESCE(SUM(value), 0) FROM votes WHERE votes.target_type = 'post' AND votes.target_id = posts.id AND votes.user_id = ?) AS my_vote",
		viewerID,
	)
}

// checkPostable verifies the topic is live and unlocked and the author is a
// live user, inside tx.
func checkPostable(tx *gorm.DB, topicID, authorID uint) error {
	var topic models.Topic
	err := tx.Where("id = ? AND is_deleted = ?", topicID, false).First(&topic).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError("Topic")
	}
	if err != nil {
		return err
	}
	if topic.IsLocked {
		return models.NewConflictError("Topic is locked")
	}

	var count int64
	if err := tx.Model(&models.User{}).
		Where("id = ? AND is_deleted = ?", authorID, false).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return models.NewNotFoundError("User")
	}
	return nil
}

// CreatePost creates a post under a live, unlocked topic and bumps the
// topic's activity timestamp.
func (s *PostService) CreatePost(ctx context.Context, authorID, topicID uint, title, body string) (*models.Post, error) {
	return Execute(ctx, s.safe, "PostService.CreatePost",
		opParams{"authorId": authorID, "topicId": topicID},
		func(ctx context.Context) (*models.Post, error) {
			title = strings.TrimSpace(title)
			if title == "" {
				return nil, models.NewInvalidInputError("Title is required")
			}
			if strings.TrimSpace(body) == "" {
				return nil, models.NewInvalidInputError("Body is required")
			}

			post := models.Post{
				TopicID:  topicID,
				AuthorID: authorID,
				Title:    title,
				Body:     body,
			}

			err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				if err := checkPostable(tx, topicID, authorID); err != nil {
					return err
				}
				if err := tx.Create(&post).Error; err != nil {
					return err
				}
				return touchTopic(tx, topicID)
			})
			if err != nil {
				return nil, err
			}
			return &post, nil
		})
}

// GetPost returns a live post with score and the viewer's vote.
func (s *PostService) GetPost(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	return Execute(ctx, s.safe, "PostService.GetPost",
		opParams{"id": id, "viewerId": viewerID},
		func(ctx context.Context) (*models.Post, error) {
			var post models.Post
			err := withPostDetails(s.db.WithContext(ctx), viewerID).
				Preload("Author").
				Where("posts.id = ? AND posts.is_deleted = ?", id, false).
				First(&post).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewNotFoundError("Post")
			}
			if err != nil {
				return nil, err
			}
			return &post, nil
		})
}

// Post list sort modes.
const (
	PostSortNew    = "new"
	PostSortTop    = "top"
	PostSortActive = "active"
)

// PostQuery narrows and orders a topic's post listing.
type PostQuery struct {
	Sort     string
	Search   string
	Page     int
	PageSize int
}

func postOrderClause(sort string) (string, error) {
	switch sort {
	case "", PostSortNew:
		return "posts.created_at DESC", nil
	case PostSortTop:
		return "score DESC, posts.created_at DESC", nil
	case PostSortActive:
		return "(SELECT COALESCE(MAX(created_at), posts.created_at) FROM comments" +
			" WHERE comments.post_id = posts.id AND comments.is_deleted = false) DESC", nil
	default:
		return "", models.NewInvalidInputError("Unknown sort " + strconv.Quote(sort))
	}
}

// ListPostsByTopic pages through a live topic's live posts. The default sort
// is newest first; "top" orders by vote sum and "active" by latest comment.
func (s *PostService) ListPostsByTopic(ctx context.Context, topicID, viewerID uint, q PostQuery) (*PagedResult[models.Post], error) {
	return Execute(ctx, s.safe, "PostService.ListPostsByTopic",
		opParams{"topicId": topicID, "page": q.Page, "sort": q.Sort},
		func(ctx context.Context) (*PagedResult[models.Post], error) {
			page, pageSize := normalizePage(q.Page, q.PageSize)

			order, err := postOrderClause(q.Sort)
			if err != nil {
				return nil, err
			}

			var count int64
			if err := s.db.WithContext(ctx).Model(&models.Topic{}).
				Where("id = ? AND is_deleted = ?", topicID, false).
				Count(&count).Error; err != nil {
				return nil, err
			}
			if count == 0 {
				return nil, models.NewNotFoundError("Topic")
			}

			base := s.db.WithContext(ctx).Model(&models.Post{}).
				Where("posts.topic_id = ? AND posts.is_deleted = ?", topicID, false)
			if search := strings.TrimSpace(q.Search); search != "" {
				base = base.Where("posts.title LIKE ?", "%"+search+"%")
			}

			var total int64
			if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
				return nil, err
			}

			var posts []models.Post
			err = withPostDetails(base, viewerID).
				Preload("Author").
				Order(order).
				Offset((page - 1) * pageSize).
				Limit(pageSize).
				Find(&posts).Error
			if err != nil {
				return nil, err
			}

			return &PagedResult[models.Post]{
				Items:    posts,
				Total:    total,
				Page:     page,
				PageSize: pageSize,
			}, nil
		})
}

// GetFeed pages through live posts from the topics the viewer follows,
// newest first.
func (s *PostService) GetFeed(ctx context.Context, viewerID uint, page, pageSize int) (*PagedResult[models.Post], error) {
	return Execute(ctx, s.safe, "PostService.GetFeed",
		opParams{"viewerId": viewerID, "page": page},
		func(ctx context.Context) (*PagedResult[models.Post], error) {
			page, pageSize := normalizePage(page, pageSize)

			base := s.db.WithContext(ctx).Model(&models.Post{}).
				Joins("JOIN topics ON topics.id = posts.topic_id AND topics.is_deleted = ?", false).
				Where("posts.is_deleted = ?", false).
				Where("posts.topic_id IN (SELECT topic_id FROM topic_follows WHERE user_id = ?)", viewerID)

			var total int64
			if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
				return nil, err
			}

			var posts []models.Post
			err := withPostDetails(base, viewerID).
				Preload("Author").
				Order("posts.created_at DESC").
				Offset((page - 1) * pageSize).
				Limit(pageSize).
				Find(&posts).Error
			if err != nil {
				return nil, err
			}

			return &PagedResult[models.Post]{
				Items:    posts,
				Total:    total,
				Page:     page,
				PageSize: pageSize,
			}, nil
		})
}

// UpdatePost edits a live post's title and body, stamps UpdatedAt, and bumps
// the topic's activity timestamp.
func (s *PostService) UpdatePost(ctx context.Context, id uint, title, body string) (*models.Post, error) {
	return Execute(ctx, s.safe, "PostService.UpdatePost", opParams{"id": id},
		func(ctx context.Context) (*models.Post, error) {
			title = strings.TrimSpace(title)
			if title == "" {
				return nil, models.NewInvalidInputError("Title is required")
			}
			if strings.TrimSpace(body) == "" {
				return nil, models.NewInvalidInputError("Body is required")
			}

			var post models.Post
			err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				err := tx.Where("id = ? AND is_deleted = ?", id, false).First(&post).Error
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.NewNotFoundError("Post")
				}
				if err != nil {
					return err
				}

				now := time.Now().UTC()
				post.Title = title
				post.Body = body
				post.UpdatedAt = &now
				if err := tx.Model(&post).Updates(map[string]any{
					"title":      title,
					"body":       body,
					"updated_at": now,
				}).Error; err != nil {
					return err
				}
				return touchTopic(tx, post.TopicID)
			})
			if err != nil {
				return nil, err
			}
			return &post, nil
		})
}

// SoftDeletePost marks a post deleted and cascades to its comments in the
// same transaction. Rerunning on an already-deleted post returns NotFound.
func (s *PostService) SoftDeletePost(ctx context.Context, id uint) error {
	_, err := Execute(ctx, s.safe, "PostService.SoftDeletePost", opParams{"id": id},
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, softDeletePostTx(s.db.WithContext(ctx), id)
		})
	return err
}

// softDeletePostTx runs the post delete cascade inside db, which may already
// be a transaction.
func softDeletePostTx(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Post{}).
			Where("id = ? AND is_deleted = ?", id, false).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return models.NewNotFoundError("Post")
		}

		if err := tx.Model(&models.Post{}).
			Where("id = ?", id).
			Update("is_deleted", true).Error; err != nil {
			return err
		}
		return tx.Model(&models.Comment{}).
			Where("post_id = ? AND is_deleted = ?", id, false).
			Update("is_deleted", true).Error
	})
}
