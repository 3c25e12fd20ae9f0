package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"levelforum/internal/models"

	"gorm.io/gorm"
)

// CommentService manages comments under posts. Nesting is one level deep:
// a comment either sits directly under a post or replies to a top-level
// comment on the same post.
type CommentService struct {
	db   *gorm.DB
	safe *SafeExecutor
}

// NewCommentService returns a new CommentService.
func NewCommentService(db *gorm.DB, safe *SafeExecutor) *CommentService {
	return &CommentService{db: db, safe: safe}
}

func withCommentDetails(tx *gorm.DB, viewerID uint) *gorm.DB {
	return tx.Model(&models.Comment{}).Select(
		"comments.*, "+
			"(SELECT COALESCE(SUM(value), 0) FROM votes WHERE votes.target_type = 'comment' AND votes.target_id = comments.id) AS score, "+
			"(SELECT COALESCE(SUM(value), 0) FROM votes WHERE votes.target_type = 'comment' AND votes.target_id = comments.id AND votes.user_id = ?) AS my_vote",
		viewerID,
	)
}

// CreateComment adds a comment or reply and notifies the post author or the
// parent comment's author. Authors are not notified about their own activity.
func (s *CommentService) CreateComment(ctx context.Context, authorID, postID uint, parentCommentID *uint, body string) (*models.Comment, error) {
	return Execute(ctx, s.safe, "CommentService.CreateComment",
		opParams{"authorId": authorID, "postId": postID, "parentCommentId": parentCommentID},
		func(ctx context.Context) (*models.Comment, error) {
			if strings.TrimSpace(body) == "" {
				return nil, models.NewInvalidInputError("Body is required")
			}

			comment := models.Comment{
				PostID:          postID,
				AuthorID:        authorID,
				ParentCommentID: parentCommentID,
				Body:            body,
			}

			err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				var post models.Post
				err := tx.Where("id = ? AND is_deleted = ?", postID, false).First(&post).Error
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.NewNotFoundError("Post")
				}
				if err != nil {
					return err
				}
				if err := checkPostable(tx, post.TopicID, authorID); err != nil {
					return err
				}

				var replyTarget *models.Comment
				if parentCommentID != nil {
					var parent models.Comment
					err := tx.Where("id = ? AND is_deleted = ?", *parentCommentID, false).First(&parent).Error
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return models.NewNotFoundError("Comment")
					}
					if err != nil {
						return err
					}
					if parent.PostID != postID {
						return models.NewConflictError("Parent comment belongs to a different post")
					}
					if parent.ParentCommentID != nil {
						return models.NewConflictError("Replies cannot be nested further")
					}
					replyTarget = &parent
				}

				if err := tx.Create(&comment).Error; err != nil {
					return err
				}
				if err := touchTopic(tx, post.TopicID); err != nil {
					return err
				}

				if replyTarget != nil {
					if replyTarget.AuthorID != authorID {
						n := models.NewCommentReplyNotification(replyTarget.ID, replyTarget.AuthorID, body)
						if err := tx.Create(n).Error; err != nil {
							return err
						}
					}
				} else if post.AuthorID != authorID {
					n := models.NewPostCommentNotification(post.ID, post.AuthorID, post.Title, body)
					if err := tx.Create(n).Error; err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
			return &comment, nil
		})
}

// GetComment returns a live comment with score and the viewer's vote.
func (s *CommentService) GetComment(ctx context.Context, id, viewerID uint) (*models.Comment, error) {
	return Execute(ctx, s.safe, "CommentService.GetComment",
		opParams{"id": id, "viewerId": viewerID},
		func(ctx context.Context) (*models.Comment, error) {
			var comment models.Comment
			err := withCommentDetails(s.db.WithContext(ctx), viewerID).
				Preload("Author").
				Where("comments.id = ? AND comments.is_deleted = ?", id, false).
				First(&comment).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewNotFoundError("Comment")
			}
			if err != nil {
				return nil, err
			}
			return &comment, nil
		})
}

// ListCommentsByPost pages through a live post's live comments, oldest first.
// Callers assemble the two-level thread from ParentCommentID.
func (s *CommentService) ListCommentsByPost(ctx context.Context, postID, viewerID uint, page, pageSize int) (*PagedResult[models.Comment], error) {
	return Execute(ctx, s.safe, "CommentService.ListCommentsByPost",
		opParams{"postId": postID, "viewerId": viewerID, "page": page},
		func(ctx context.Context) (*PagedResult[models.Comment], error) {
			page, pageSize := normalizePage(page, pageSize)

			var count int64
			if err := s.db.WithContext(ctx).Model(&models.Post{}).
				Where("id = ? AND is_deleted = ?", postID, false).
				Count(&count).Error; err != nil {
				return nil, err
			}
			if count == 0 {
				return nil, models.NewNotFoundError("Post")
			}

			var total int64
			if err := s.db.WithContext(ctx).Model(&models.Comment{}).
				Where("post_id = ? AND is_deleted = ?", postID, false).
				Count(&total).Error; err != nil {
				return nil, err
			}

			var comments []models.Comment
			err := withCommentDetails(s.db.WithContext(ctx), viewerID).
				Preload("Author").
				Where("comments.post_id = ? AND comments.is_deleted = ?", postID, false).
				Order("comments.created_at ASC").
				Offset((page - 1) * pageSize).
				Limit(pageSize).
				Find(&comments).Error
			if err != nil {
				return nil, err
			}

			return &PagedResult[models.Comment]{
				Items:    comments,
				Total:    total,
				Page:     page,
				PageSize: pageSize,
			}, nil
		})
}

// GetCommentChildren returns the live direct replies of a comment, oldest
// first.
func (s *CommentService) GetCommentChildren(ctx context.Context, parentID, viewerID uint) ([]models.Comment, error) {
	return Execute(ctx, s.safe, "CommentService.GetCommentChildren",
		opParams{"parentId": parentID, "viewerId": viewerID},
		func(ctx context.Context) ([]models.Comment, error) {
			var count int64
			if err := s.db.WithContext(ctx).Model(&models.Comment{}).
				Where("id = ? AND is_deleted = ?", parentID, false).
				Count(&count).Error; err != nil {
				return nil, err
			}
			if count == 0 {
				return nil, models.NewNotFoundError("Comment")
			}

			var replies []models.Comment
			err := withCommentDetails(s.db.WithContext(ctx), viewerID).
				Preload("Author").
				Where("comments.parent_comment_id = ? AND comments.is_deleted = ?", parentID, false).
				Order("comments.created_at ASC").
				Find(&replies).Error
			return replies, err
		})
}

// UpdateComment edits a live comment's body, stamps UpdatedAt, and bumps the
// topic's activity timestamp.
func (s *CommentService) UpdateComment(ctx context.Context, id uint, body string) (*models.Comment, error) {
	return Execute(ctx, s.safe, "CommentService.UpdateComment", opParams{"id": id},
		func(ctx context.Context) (*models.Comment, error) {
			if strings.TrimSpace(body) == "" {
				return nil, models.NewInvalidInputError("Body is required")
			}

			var comment models.Comment
			err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				err := tx.Where("id = ? AND is_deleted = ?", id, false).First(&comment).Error
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.NewNotFoundError("Comment")
				}
				if err != nil {
					return err
				}

				now := time.Now().UTC()
				comment.Body = body
				comment.UpdatedAt = &now
				if err := tx.Model(&comment).Updates(map[string]any{
					"body":       body,
					"updated_at": now,
				}).Error; err != nil {
					return err
				}

				var topicIDs []uint
				if err := tx.Model(&models.Post{}).
					Where("id = ?", comment.PostID).
					Limit(1).
					Pluck("topic_id", &topicIDs).Error; err != nil {
					return err
				}
				if len(topicIDs) == 0 {
					return nil
				}
				return touchTopic(tx, topicIDs[0])
			})
			if err != nil {
				return nil, err
			}
			return &comment, nil
		})
}

// SoftDeleteComment marks a comment deleted and cascades to its direct
// replies in the same transaction.
func (s *CommentService) SoftDeleteComment(ctx context.Context, id uint) error {
	_, err := Execute(ctx, s.safe, "CommentService.SoftDeleteComment", opParams{"id": id},
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, softDeleteCommentTx(s.db.WithContext(ctx), id)
		})
	return err
}

func softDeleteCommentTx(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Comment{}).
			Where("id = ? AND is_deleted = ?", id, false).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return models.NewNotFoundError("Comment")
		}

		if err := tx.Model(&models.Comment{}).
			Where("id = ?", id).
			Update("is_deleted", true).Error; err != nil {
			return err
		}
		return tx.Model(&models.Comment{}).
			Where("parent_comment_id = ? AND is_deleted = ?", id, false).
			Update("is_deleted", true).Error
	})
}
