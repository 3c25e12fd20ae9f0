package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"levelforum/internal/leveling"
	"levelforum/internal/models"

	"gorm.io/gorm"
)

// UserService manages forum members and their accumulated experience.
type UserService struct {
	db   *gorm.DB
	safe *SafeExecutor
}

// NewUserService returns a new UserService.
func NewUserService(db *gorm.DB, safe *SafeExecutor) *UserService {
	return &UserService{db: db, safe: safe}
}

// CreateUserInput carries the fields for a new user. The password hash is
// produced by the caller; this service never sees a plaintext password.
type CreateUserInput struct {
	Username     string
	Email        string
	PasswordHash string
	Role         models.Role
}

// UserProfile is the read model for a user: the stored row plus the derived
// level fields, computed at the read boundary and never persisted.
type UserProfile struct {
	models.User
	Level          int     `json:"level"`
	ProgressToNext float64 `json:"progress_to_next"`
}

func profileOf(user models.User) *UserProfile {
	return &UserProfile{
		User:           user,
		Level:          leveling.Level(user.Experience),
		ProgressToNext: leveling.ProgressToNext(user.Experience),
	}
}

const minUsernameLen = 4

// CreateUser inserts a new user after checking username and email uniqueness.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	return Execute(ctx, s.safe, "UserService.CreateUser",
		opParams{"username": in.Username, "email": in.Email},
		func(ctx context.Context) (*models.User, error) {
			username := strings.TrimSpace(in.Username)
			if len(username) < minUsernameLen {
				return nil, models.NewInvalidInputError("Username must be at least 4 characters")
			}
			if in.Email == "" {
				return nil, models.NewInvalidInputError("Email is required")
			}

			role := in.Role
			if role == models.RoleNone {
				role = models.RoleUser
			}

			user := models.User{
				Username:     username,
				Email:        in.Email,
				PasswordHash: in.PasswordHash,
				GlobalRole:   role,
				Experience:   0,
			}

			err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				var count int64
				if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
					return err
				}
				if count > 0 {
					return models.NewConflictError("Username already taken")
				}
				if err := tx.Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
					return err
				}
				if count > 0 {
					return models.NewConflictError("Email already in use")
				}
				return tx.Create(&user).Error
			})
			if err != nil {
				return nil, err
			}
			return &user, nil
		})
}

func (s *UserService) liveUser(tx *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	err := tx.Where("id = ? AND is_deleted = ?", id, false).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("User")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID returns a live user with derived level fields.
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*UserProfile, error) {
	return Execute(ctx, s.safe, "UserService.GetUserByID", opParams{"id": id},
		func(ctx context.Context) (*UserProfile, error) {
			user, err := s.liveUser(s.db.WithContext(ctx), id)
			if err != nil {
				return nil, err
			}
			return profileOf(*user), nil
		})
}

// GetUserByUsername returns a live user with derived level fields.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*UserProfile, error) {
	return Execute(ctx, s.safe, "UserService.GetUserByUsername", opParams{"username": username},
		func(ctx context.Context) (*UserProfile, error) {
			var user models.User
			err := s.db.WithContext(ctx).
				Where("username = ? AND is_deleted = ?", username, false).
				First(&user).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewNotFoundError("User")
			}
			if err != nil {
				return nil, err
			}
			return profileOf(user), nil
		})
}

// UpdateUserInput carries optional profile updates; empty fields are left alone.
type UpdateUserInput struct {
	Email     string
	AvatarURL *string
}

// UpdateUser updates a user's email and avatar, enforcing email uniqueness.
func (s *UserService) UpdateUser(ctx context.Context, id uint, in UpdateUserInput) (*models.User, error) {
	return Execute(ctx, s.safe, "UserService.UpdateUser",
		opParams{"id": id, "email": in.Email},
		func(ctx context.Context) (*models.User, error) {
			var user *models.User
			err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				var err error
				user, err = s.liveUser(tx, id)
				if err != nil {
					return err
				}

				if strings.TrimSpace(in.Email) != "" {
					var count int64
					if err := tx.Model(&models.User{}).
						Where("email = ? AND id <> ?", in.Email, id).
						Count(&count).Error; err != nil {
						return err
					}
					if count > 0 {
						return models.NewConflictError("Email already in use")
					}
					user.Email = in.Email
				}
				if in.AvatarURL != nil {
					user.AvatarURL = *in.AvatarURL
				}

				return tx.Save(user).Error
			})
			if err != nil {
				return nil, err
			}
			return user, nil
		})
}

// ChangeUsername renames a user, enforcing minimum length and uniqueness.
func (s *UserService) ChangeUsername(ctx context.Context, id uint, newUsername string) error {
	_, err := Execute(ctx, s.safe, "UserService.ChangeUsername",
		opParams{"id": id, "newUsername": newUsername},
		func(ctx context.Context) (struct{}, error) {
			username := strings.TrimSpace(newUsername)
			if len(username) < minUsernameLen {
				return struct{}{}, models.NewInvalidInputError("Username must be at least 4 characters")
			}

			return struct{}{}, s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				user, err := s.liveUser(tx, id)
				if err != nil {
					return err
				}

				var count int64
				if err := tx.Model(&models.User{}).
					Where("username = ? AND id <> ?", username, id).
					Count(&count).Error; err != nil {
					return err
				}
				if count > 0 {
					return models.NewConflictError("Username already taken")
				}

				return tx.Model(user).Update("username", username).Error
			})
		})
	return err
}

// SetPasswordHash stores a new password hash for a live user.
func (s *UserService) SetPasswordHash(ctx context.Context, id uint, newHash string) error {
	_, err := Execute(ctx, s.safe, "UserService.SetPasswordHash", opParams{"id": id},
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				user, err := s.liveUser(tx, id)
				if err != nil {
					return err
				}
				return tx.Model(user).Update("password_hash", newHash).Error
			})
		})
	return err
}

// AddExperience adjusts a user's experience by delta, clamped at zero.
func (s *UserService) AddExperience(ctx context.Context, id uint, delta int) error {
	_, err := Execute(ctx, s.safe, "UserService.AddExperience",
		opParams{"id": id, "delta": delta},
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				user, err := s.liveUser(tx, id)
				if err != nil {
					return err
				}
				exp := user.Experience + delta
				if exp < 0 {
					exp = 0
				}
				return tx.Model(user).Update("experience", exp).Error
			})
		})
	return err
}

// SoftDeleteUser marks a user deleted. Their content stays in place.
func (s *UserService) SoftDeleteUser(ctx context.Context, id uint) error {
	_, err := Execute(ctx, s.safe, "UserService.SoftDeleteUser", opParams{"id": id},
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				user, err := s.liveUser(tx, id)
				if err != nil {
					return err
				}
				return tx.Model(user).Update("is_deleted", true).Error
			})
		})
	return err
}

// TopicRoleAssignment pairs a user with a role for DefineTopicRoles.
type TopicRoleAssignment struct {
	UserID uint        `json:"user_id"`
	Role   models.Role `json:"role"`
}

// GetTopicRoles lists the per-topic role assignments for a topic.
func (s *UserService) GetTopicRoles(ctx context.Context, topicID uint) ([]models.UserTopicRole, error) {
	return Execute(ctx, s.safe, "UserService.GetTopicRoles", opParams{"topicId": topicID},
		func(ctx context.Context) ([]models.UserTopicRole, error) {
			var roles []models.UserTopicRole
			err := s.db.WithContext(ctx).
				Preload("User").
				Where("topic_id = ?", topicID).
				Find(&roles).Error
			return roles, err
		})
}

// DefineTopicRoles replaces a topic's role assignments wholesale. Duplicate
// users keep their first assignment; every referenced user must exist.
func (s *UserService) DefineTopicRoles(ctx context.Context, topicID uint, assignments []TopicRoleAssignment) error {
	_, err := Execute(ctx, s.safe, "UserService.DefineTopicRoles", opParams{"topicId": topicID},
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				var topic models.Topic
				err := tx.Where("id = ? AND is_deleted = ?", topicID, false).First(&topic).Error
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.NewNotFoundError("Topic")
				}
				if err != nil {
					return err
				}

				seen := make(map[uint]bool)
				toAdd := make([]models.UserTopicRole, 0, len(assignments))
				userIDs := make([]uint, 0, len(assignments))
				for _, a := range assignments {
					if a.UserID == 0 || seen[a.UserID] {
						continue
					}
					seen[a.UserID] = true
					userIDs = append(userIDs, a.UserID)
					toAdd = append(toAdd, models.UserTopicRole{
						UserID:  a.UserID,
						TopicID: topicID,
						Role:    a.Role,
					})
				}

				if len(userIDs) > 0 {
					var count int64
					if err := tx.Model(&models.User{}).
						Where("id IN ? AND is_deleted = ?", userIDs, false).
						Count(&count).Error; err != nil {
						return err
					}
					if count != int64(len(userIDs)) {
						return models.NewConflictError("Some users do not exist")
					}
				}

				if err := tx.Where("topic_id = ?", topicID).Delete(&models.UserTopicRole{}).Error; err != nil {
					return err
				}
				if len(toAdd) == 0 {
					return nil
				}
				return tx.Create(&toAdd).Error
			})
		})
	return err
}

// touchTopic bumps a topic's last-activity timestamp inside tx.
func touchTopic(tx *gorm.DB, topicID uint) error {
	return tx.Model(&models.Topic{}).
		Where("id = ?", topicID).
		Update("last_activity_at", time.Now().UTC()).Error
}
