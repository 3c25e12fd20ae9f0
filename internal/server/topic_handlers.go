package server

import (
	"levelforum/internal/models"

	"github.com/gofiber/fiber/v2"
)

type createTopicRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CreateTopic creates a topic owned and followed by the caller.
func (s *Server) CreateTopic(c *fiber.Ctx) error {
	var req createTopicRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewInvalidInputError("Invalid request body"))
	}

	topic, err := s.topics.CreateTopic(c.UserContext(), currentUserID(c), req.Title, req.Description)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(topic)
}

// GetTopic returns one topic with its follower count.
func (s *Server) GetTopic(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	topic, err := s.topics.GetTopic(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(topic)
}

// SearchTopics pages through topics matching the q query parameter.
func (s *Server) SearchTopics(c *fiber.Ctx) error {
	page, pageSize := parsePagination(c)
	result, err := s.topics.SearchTopics(c.UserContext(), c.Query("q"), page, pageSize)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GetTopicSuggestions returns popular topics the caller does not follow yet.
func (s *Server) GetTopicSuggestions(c *fiber.Ctx) error {
	topics, err := s.topics.GetSidebarSuggestions(c.UserContext(), currentUserID(c), c.QueryInt("limit", 15))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(topics)
}

type updateTopicRequest struct {
	Description string `json:"description"`
}

// UpdateTopic changes a topic's description. Only the topic creator or a
// moderator may edit it.
func (s *Server) UpdateTopic(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	topic, err := s.topics.GetTopic(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	if topic.CreatedByID == nil || !canModerate(c, *topic.CreatedByID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient role",
		})
	}

	var req updateTopicRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewInvalidInputError("Invalid request body"))
	}

	updated, err := s.topics.UpdateTopic(c.UserContext(), id, req.Description)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(updated)
}

func (s *Server) setTopicLocked(c *fiber.Ctx, locked bool) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := s.topics.SetTopicLocked(c.UserContext(), id, locked); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LockTopic closes a topic to new posts and comments.
func (s *Server) LockTopic(c *fiber.Ctx) error {
	return s.setTopicLocked(c, true)
}

// UnlockTopic reopens a locked topic.
func (s *Server) UnlockTopic(c *fiber.Ctx) error {
	return s.setTopicLocked(c, false)
}

func (s *Server) setTopicBanned(c *fiber.Ctx, banned bool) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := s.topics.SetTopicBanned(c.UserContext(), id, banned); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// BanTopic hides a topic from suggestions.
func (s *Server) BanTopic(c *fiber.Ctx) error {
	return s.setTopicBanned(c, true)
}

// UnbanTopic reverses a ban.
func (s *Server) UnbanTopic(c *fiber.Ctx) error {
	return s.setTopicBanned(c, false)
}

// DeleteTopic soft-deletes a topic.
func (s *Server) DeleteTopic(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := s.topics.SoftDeleteTopic(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// FollowTopic subscribes the caller to a topic.
func (s *Server) FollowTopic(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := s.follows.FollowTopic(c.UserContext(), currentUserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UnfollowTopic removes the caller's subscription.
func (s *Server) UnfollowTopic(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := s.follows.UnfollowTopic(c.UserContext(), currentUserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
