package service

import (
	"context"
	"errors"

	"levelforum/internal/leveling"
	"levelforum/internal/models"

	"gorm.io/gorm"
)

// VoteService is the vote ledger: at most one row per (user, target), with
// idempotent toggle semantics and the author-experience side effect.
type VoteService struct {
	db   *gorm.DB
	safe *SafeExecutor
}

// NewVoteService returns a new VoteService.
func NewVoteService(db *gorm.DB, safe *SafeExecutor) *VoteService {
	return &VoteService{db: db, safe: safe}
}

// targetAuthorID resolves the author of a live (non-deleted) target, failing
// closed on unknown target types.
func targetAuthorID(tx *gorm.DB, targetType models.ContentType, targetID uint) (uint, error) {
	var authorIDs []uint
	var err error

	switch targetType {
	case models.ContentTypePost:
		err = tx.Model(&models.Post{}).
			Where("id = ? AND is_deleted = ?", targetID, false).
			Limit(1).
			Pluck("author_id", &authorIDs).Error
	case models.ContentTypeComment:
		err = tx.Model(&models.Comment{}).
			Where("id = ? AND is_deleted = ?", targetID, false).
			Limit(1).
			Pluck("author_id", &authorIDs).Error
	default:
		return 0, models.NewInvalidInputError("Unknown target type")
	}
	if err != nil {
		return 0, err
	}
	if len(authorIDs) == 0 {
		return 0, models.NewNotFoundError("Target")
	}
	return authorIDs[0], nil
}

// targetScore sums the stored vote values for a target.
func targetScore(tx *gorm.DB, targetType models.ContentType, targetID uint) (int, error) {
	var score int
	err := tx.Model(&models.Vote{}).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Select("COALESCE(SUM(value), 0)").
		Scan(&score).Error
	return score, err
}

// ToggleVote applies newValue ∈ {-1, 0, +1} for (targetType, targetID, userID)
// and returns the target's new aggregate score.
//
// A zero removes the caller's row; a non-zero inserts or overwrites it. When
// the toggle changes the target's upvote status and the voter is not the
// author, the author's experience moves by ±ExpPerUpvote, clamped at zero.
// Everything happens in one transaction so concurrent toggles serialize on
// the ledger's unique row.
func (s *VoteService) ToggleVote(ctx context.Context, targetType models.ContentType, targetID, userID uint, newValue int) (int, error) {
	return Execute(ctx, s.safe, "VoteService.ToggleVote",
		opParams{"targetType": targetType, "targetId": targetID, "userId": userID, "newValue": newValue},
		func(ctx context.Context) (int, error) {
			if newValue != -1 && newValue != 0 && newValue != 1 {
				return 0, models.NewInvalidInputError("Vote must be -1, 0 or +1")
			}

			var score int
			err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				authorID, err := targetAuthorID(tx, targetType, targetID)
				if err != nil {
					return err
				}

				var existing models.Vote
				oldValue := 0
				err = tx.Where("target_type = ? AND target_id = ? AND user_id = ?", targetType, targetID, userID).
					First(&existing).Error
				switch {
				case err == nil:
					oldValue = existing.Value
				case errors.Is(err, gorm.ErrRecordNotFound):
					// no prior vote
				default:
					return err
				}

				switch {
				case newValue == 0 && existing.ID != 0:
					if err := tx.Delete(&existing).Error; err != nil {
						return err
					}
				case newValue != 0 && existing.ID == 0:
					vote := models.Vote{
						TargetType: targetType,
						TargetID:   targetID,
						UserID:     userID,
						Value:      newValue,
					}
					if err := tx.Create(&vote).Error; err != nil {
						return err
					}
				case newValue != 0 && existing.ID != 0:
					// Changing a vote overwrites the unique row in place.
					if err := tx.Model(&existing).Update("value", newValue).Error; err != nil {
						return err
					}
				}

				upvoted := func(v int) int {
					if v == 1 {
						return 1
					}
					return 0
				}
				delta := upvoted(newValue) - upvoted(oldValue)

				if delta != 0 && authorID != userID {
					var author models.User
					err := tx.First(&author, authorID).Error
					if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
						return err
					}
					if err == nil {
						exp := author.Experience + delta*leveling.ExpPerUpvote
						if exp < 0 {
							exp = 0
						}
						if err := tx.Model(&author).Update("experience", exp).Error; err != nil {
							return err
						}
					}
				}

				score, err = targetScore(tx, targetType, targetID)
				return err
			})
			return score, err
		})
}

// GetScore returns the signed sum of all stored votes for a target. A target
// with no votes scores zero.
func (s *VoteService) GetScore(ctx context.Context, targetType models.ContentType, targetID uint) (int, error) {
	return Execute(ctx, s.safe, "VoteService.GetScore",
		opParams{"targetType": targetType, "targetId": targetID},
		func(ctx context.Context) (int, error) {
			return targetScore(s.db.WithContext(ctx), targetType, targetID)
		})
}

// GetUserVote returns the user's stored vote for a target, or nil when no
// row exists.
func (s *VoteService) GetUserVote(ctx context.Context, targetType models.ContentType, targetID, userID uint) (*int, error) {
	return Execute(ctx, s.safe, "VoteService.GetUserVote",
		opParams{"targetType": targetType, "targetId": targetID, "userId": userID},
		func(ctx context.Context) (*int, error) {
			var vote models.Vote
			err := s.db.WithContext(ctx).
				Where("target_type = ? AND target_id = ? AND user_id = ?", targetType, targetID, userID).
				First(&vote).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			return &vote.Value, nil
		})
}
