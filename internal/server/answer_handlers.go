package server

import (
	"unajuda/internal/service"

	"github.com/gofiber/fiber/v2"
)

type contentRequest struct {
	Content string `json:"content"`
}

// GetAnswers handles GET /api/questions/:id/answers, accepted answer first.
// @Summary Answers of a question
// @Tags answers
// @Produce json
// @Param id path int true "Question ID"
// @Success 200 {array} models.Answer
// @Failure 404 {object} models.ErrorResponse
// @Router /questions/{id}/answers [get]
func (s *Server) GetAnswers(c *fiber.Ctx) error {
	questionID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	answers, err := s.answerService.ListByQuestion(c.UserContext(), questionID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(answers)
}

// CreateAnswer handles POST /api/questions/:id/answers
// @Summary Answer a question
// @Tags answers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Question ID"
// @Param request body contentRequest true "Answer"
// @Success 201 {object} models.Answer
// @Failure 403 {object} models.ErrorResponse
// @Router /questions/{id}/answers [post]
func (s *Server) CreateAnswer(c *fiber.Ctx) error {
	questionID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req contentRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	answer, err := s.answerService.CreateAnswer(c.UserContext(), service.CreateAnswerInput{
		UserID:     currentUserID(c),
		QuestionID: questionID,
		Content:    req.Content,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(answer)
}

// AcceptAnswer handles POST /api/answers/:id/accept. Only the question owner may accept;
// any previously accepted answer of the question is cleared.
// @Summary Accept an answer
// @Tags answers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Answer ID"
// @Success 200 {object} models.Answer
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /answers/{id}/accept [post]
func (s *Server) AcceptAnswer(c *fiber.Ctx) error {
	answerID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	answer, err := s.answerService.AcceptAnswer(c.UserContext(), currentUserID(c), answerID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(answer)
}

// GetReplies handles GET /api/answers/:id/replies, oldest first.
func (s *Server) GetReplies(c *fiber.Ctx) error {
	answerID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	replies, err := s.replyService.ListByAnswer(c.UserContext(), answerID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(replies)
}

// CreateReply handles POST /api/answers/:id/replies
// @Summary Reply to an answer
// @Description Only the question author and the answer author may reply.
// @Tags answers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Answer ID"
// @Param request body contentRequest true "Reply"
// @Success 201 {object} models.AnswerReply
// @Failure 403 {object} models.ErrorResponse
// @Router /answers/{id}/replies [post]
func (s *Server) CreateReply(c *fiber.Ctx) error {
	answerID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req contentRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	reply, err := s.replyService.CreateReply(c.UserContext(), service.CreateReplyInput{
		UserID:   currentUserID(c),
		AnswerID: answerID,
		Content:  req.Content,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(reply)
}
