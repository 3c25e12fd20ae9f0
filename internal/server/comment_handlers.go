package server

import (
	"levelforum/internal/models"

	"github.com/gofiber/fiber/v2"
)

type createCommentRequest struct {
	ParentCommentID *uint  `json:"parent_comment_id"`
	Body            string `json:"body"`
}

// CreateComment adds a comment or a one-level reply under a post.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req createCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewInvalidInputError("Invalid request body"))
	}

	comment, err := s.comments.CreateComment(c.UserContext(), currentUserID(c), postID, req.ParentCommentID, req.Body)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetPostComments pages through a post's live comments, oldest first.
func (s *Server) GetPostComments(c *fiber.Ctx) error {
	postID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	page, pageSize := parsePagination(c)
	result, err := s.comments.ListCommentsByPost(c.UserContext(), postID, currentUserID(c), page, pageSize)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GetCommentReplies returns a comment's live direct replies, oldest first.
func (s *Server) GetCommentReplies(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	replies, err := s.comments.GetCommentChildren(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(replies)
}

type updateCommentRequest struct {
	Body string `json:"body"`
}

// UpdateComment edits a comment. Only the author or a moderator may edit it.
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	comment, err := s.comments.GetComment(c.UserContext(), id, 0)
	if err != nil {
		return respondError(c, err)
	}
	if !canModerate(c, comment.AuthorID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient role",
		})
	}

	var req updateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewInvalidInputError("Invalid request body"))
	}

	updated, err := s.comments.UpdateComment(c.UserContext(), id, req.Body)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(updated)
}

// DeleteComment soft-deletes a comment and its replies. Only the author or
// a moderator may delete it.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	comment, err := s.comments.GetComment(c.UserContext(), id, 0)
	if err != nil {
		return respondError(c, err)
	}
	if !canModerate(c, comment.AuthorID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient role",
		})
	}

	if err := s.comments.SoftDeleteComment(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
