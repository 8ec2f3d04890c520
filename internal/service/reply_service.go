package service

import (
	"context"
	"log/slog"

	"unajuda/internal/models"
	"unajuda/internal/notifications"
	"unajuda/internal/repository"
	"unajuda/internal/validation"
)

// ReplyService handles threaded replies under answers.
type ReplyService struct {
	replies   repository.ReplyRepository
	answers   repository.AnswerRepository
	questions repository.QuestionRepository
	publisher Publisher
}

// CreateReplyInput is the payload of a new reply.
type CreateReplyInput struct {
	UserID   uint
	AnswerID uint
	Content  string
}

func NewReplyService(
	replies repository.ReplyRepository,
	answers repository.AnswerRepository,
	questions repository.QuestionRepository,
	publisher Publisher,
) *ReplyService {
	return &ReplyService{
		replies:   replies,
		answers:   answers,
		questions: questions,
		publisher: publisherOrNoop(publisher),
	}
}

// CreateReply adds a reply. Only the answer's author and the question's author take part
// in a thread.
func (s *ReplyService) CreateReply(ctx context.Context, in CreateReplyInput) (*models.AnswerReply, error) {
	if in.UserID == 0 {
		return nil, models.NewAuthRequiredError("Você precisa estar logado para responder")
	}
	content := models.SanitizeInput(in.Content)
	if err := validation.ValidateReply(content); err != nil {
		return nil, err
	}

	answer, err := s.answers.GetByID(ctx, in.AnswerID)
	if err != nil {
		return nil, err
	}
	if answer.UserID != in.UserID {
		question, err := s.questions.GetByID(ctx, answer.QuestionID)
		if err != nil {
			return nil, err
		}
		if question.UserID != in.UserID {
			return nil, models.NewForbiddenError("Apenas o autor da pergunta ou da resposta pode comentar")
		}
	}

	reply := &models.AnswerReply{
		UserID:   in.UserID,
		AnswerID: in.AnswerID,
		Content:  content,
	}
	if err := s.replies.Create(ctx, reply); err != nil {
		return nil, err
	}

	if err := s.publisher.PublishChange(ctx, notifications.TableAnswerReplies, "answer_id", in.AnswerID, notifications.OpInsert); err != nil {
		slog.WarnContext(ctx, "failed to publish reply change", slog.String("error", err.Error()))
	}
	return reply, nil
}

func (s *ReplyService) ListByAnswer(ctx context.Context, answerID uint) ([]models.AnswerReply, error) {
	if _, err := s.answers.GetByID(ctx, answerID); err != nil {
		return nil, err
	}
	return s.replies.ListByAnswer(ctx, answerID)
}
