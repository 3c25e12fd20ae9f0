package server

import (
	"levelforum/internal/models"
	"levelforum/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createPostRequest struct {
	TopicID uint   `json:"topic_id"`
	Title   string `json:"title"`
	Body    string `json:"body"`
}

// CreatePost creates a post under a topic.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewInvalidInputError("Invalid request body"))
	}

	post, err := s.posts.CreatePost(c.UserContext(), currentUserID(c), req.TopicID, req.Title, req.Body)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost returns one post with its score and the caller's vote.
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.posts.GetPost(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// GetTopicPosts pages through a topic's posts.
func (s *Server) GetTopicPosts(c *fiber.Ctx) error {
	topicID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	page, pageSize := parsePagination(c)
	result, err := s.posts.ListPostsByTopic(c.UserContext(), topicID, currentUserID(c), service.PostQuery{
		Sort:     c.Query("sort"),
		Search:   c.Query("q"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GetMyFeed pages through posts from the caller's followed topics.
func (s *Server) GetMyFeed(c *fiber.Ctx) error {
	page, pageSize := parsePagination(c)
	result, err := s.posts.GetFeed(c.UserContext(), currentUserID(c), page, pageSize)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

type updatePostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// UpdatePost edits a post. Only the author or a moderator may edit it.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.posts.GetPost(c.UserContext(), id, 0)
	if err != nil {
		return respondError(c, err)
	}
	if !canModerate(c, post.AuthorID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient role",
		})
	}

	var req updatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewInvalidInputError("Invalid request body"))
	}

	updated, err := s.posts.UpdatePost(c.UserContext(), id, req.Title, req.Body)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(updated)
}

// DeletePost soft-deletes a post and its comments. Only the author or a
// moderator may delete it.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.posts.GetPost(c.UserContext(), id, 0)
	if err != nil {
		return respondError(c, err)
	}
	if !canModerate(c, post.AuthorID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient role",
		})
	}

	if err := s.posts.SoftDeletePost(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
