package server

import (
	"levelforum/internal/models"
	"levelforum/internal/service"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// GetUserProfile returns a user's public profile with derived level fields.
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	profile, err := s.users.GetUserByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// GetUserByUsername returns a user's public profile looked up by name.
func (s *Server) GetUserByUsername(c *fiber.Ctx) error {
	profile, err := s.users.GetUserByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// GetMyProfile returns the authenticated user's profile.
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	profile, err := s.users.GetUserByID(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

type updateProfileRequest struct {
	Email     string  `json:"email"`
	AvatarURL *string `json:"avatar_url"`
}

// UpdateMyProfile updates the authenticated user's email and avatar.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewInvalidInputError("Invalid request body"))
	}

	user, err := s.users.UpdateUser(c.UserContext(), currentUserID(c), service.UpdateUserInput{
		Email:     req.Email,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

type changeUsernameRequest struct {
	Username string `json:"username"`
}

// ChangeMyUsername renames the authenticated user.
func (s *Server) ChangeMyUsername(c *fiber.Ctx) error {
	var req changeUsernameRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewInvalidInputError("Invalid request body"))
	}

	if err := s.users.ChangeUsername(c.UserContext(), currentUserID(c), req.Username); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangeMyPassword verifies the current password and stores a new hash.
func (s *Server) ChangeMyPassword(c *fiber.Ctx) error {
	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewInvalidInputError("Invalid request body"))
	}
	if len(req.NewPassword) < 8 {
		return respondError(c, models.NewInvalidInputError("Password must be at least 8 characters"))
	}

	userID := currentUserID(c)
	var user models.User
	if err := s.db.WithContext(c.UserContext()).First(&user, userID).Error; err != nil {
		return respondError(c, models.NewNotFoundError("User"))
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	if err := s.users.SetPasswordHash(c.UserContext(), userID, string(hash)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetMyFollowedTopics lists the topics the authenticated user follows.
func (s *Server) GetMyFollowedTopics(c *fiber.Ctx) error {
	topics, err := s.follows.GetFollowedTopics(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(topics)
}

// GetTopicRoles lists per-topic role assignments.
func (s *Server) GetTopicRoles(c *fiber.Ctx) error {
	topicID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	roles, err := s.users.GetTopicRoles(c.UserContext(), topicID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(roles)
}

type defineTopicRolesRequest struct {
	Assignments []service.TopicRoleAssignment `json:"assignments"`
}

// DefineTopicRoles replaces a topic's role assignments.
func (s *Server) DefineTopicRoles(c *fiber.Ctx) error {
	topicID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req defineTopicRolesRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewInvalidInputError("Invalid request body"))
	}

	if err := s.users.DefineTopicRoles(c.UserContext(), topicID, req.Assignments); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
