package server

import (
	"levelforum/internal/models"

	"github.com/gofiber/fiber/v2"
)

type toggleVoteRequest struct {
	Value int `json:"value"`
}

type voteStateResponse struct {
	Score  int `json:"score"`
	MyVote int `json:"my_vote"`
}

// ToggleVote applies the caller's vote to a post or comment and returns the
// resulting score. Resubmitting the current vote is a no-op; value 0 retracts.
func (s *Server) ToggleVote(c *fiber.Ctx) error {
	targetType, targetID, err := parseTargetParam(c)
	if err != nil {
		return respondError(c, err)
	}

	var req toggleVoteRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewInvalidInputError("Invalid request body"))
	}

	userID := currentUserID(c)
	score, err := s.votes.ToggleVote(c.UserContext(), targetType, targetID, userID, req.Value)
	if err != nil {
		return respondError(c, err)
	}

	myVote := 0
	if vote, err := s.votes.GetUserVote(c.UserContext(), targetType, targetID, userID); err == nil && vote != nil {
		myVote = *vote
	}
	return c.JSON(voteStateResponse{Score: score, MyVote: myVote})
}

// GetVoteState returns a target's score and the caller's current vote.
func (s *Server) GetVoteState(c *fiber.Ctx) error {
	targetType, targetID, err := parseTargetParam(c)
	if err != nil {
		return respondError(c, err)
	}

	score, err := s.votes.GetScore(c.UserContext(), targetType, targetID)
	if err != nil {
		return respondError(c, err)
	}

	myVote := 0
	if userID := currentUserID(c); userID != 0 {
		vote, err := s.votes.GetUserVote(c.UserContext(), targetType, targetID, userID)
		if err != nil {
			return respondError(c, err)
		}
		if vote != nil {
			myVote = *vote
		}
	}

	return c.JSON(voteStateResponse{Score: score, MyVote: myVote})
}
