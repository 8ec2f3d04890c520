package server

import (
	"unajuda/internal/models"
	"unajuda/internal/service"

	"github.com/gofiber/fiber/v2"
)

type voteRequest struct {
	VoteType int `json:"vote_type"`
}

// VoteQuestion handles POST /api/questions/:id/vote
// @Summary Vote on a question
// @Description Same polarity as the current vote retracts it, the opposite flips it.
// @Tags votes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Question ID"
// @Param request body voteRequest true "vote_type is 1 or -1"
// @Success 200 {object} service.VoteResult
// @Router /questions/{id}/vote [post]
func (s *Server) VoteQuestion(c *fiber.Ctx) error {
	return s.castVote(c, models.TargetQuestion)
}

// VoteAnswer handles POST /api/answers/:id/vote
// @Summary Vote on an answer
// @Tags votes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Answer ID"
// @Param request body voteRequest true "vote_type is 1 or -1"
// @Success 200 {object} service.VoteResult
// @Router /answers/{id}/vote [post]
func (s *Server) VoteAnswer(c *fiber.Ctx) error {
	return s.castVote(c, models.TargetAnswer)
}

// GetQuestionVotes handles GET /api/questions/:id/votes
func (s *Server) GetQuestionVotes(c *fiber.Ctx) error {
	return s.voteSummary(c, models.TargetQuestion)
}

// GetAnswerVotes handles GET /api/answers/:id/votes
func (s *Server) GetAnswerVotes(c *fiber.Ctx) error {
	return s.voteSummary(c, models.TargetAnswer)
}

func (s *Server) castVote(c *fiber.Ctx, kind models.TargetKind) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req voteRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	result, err := s.voteService.Cast(c.UserContext(), service.VoteInput{
		UserID:   currentUserID(c),
		Target:   models.VoteTarget{Kind: kind, ID: id},
		VoteType: models.VoteType(req.VoteType),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(result)
}

func (s *Server) voteSummary(c *fiber.Ctx, kind models.TargetKind) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	result, err := s.voteService.Summary(c.UserContext(), currentUserID(c), models.VoteTarget{Kind: kind, ID: id})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(result)
}
