package service

import (
	"context"
	"log/slog"

	"unajuda/internal/models"
	"unajuda/internal/notifications"
	"unajuda/internal/observability"
	"unajuda/internal/repository"
	"unajuda/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// AnswerService handles answers and the accept-answer workflow.
type AnswerService struct {
	answers   repository.AnswerRepository
	questions repository.QuestionRepository
	publisher Publisher
	hook      ActivityHook
}

// CreateAnswerInput is the payload of a new answer.
type CreateAnswerInput struct {
	UserID     uint
	QuestionID uint
	Content    string
}

// NewAnswerService creates an AnswerService. publisher and hook may be nil.
func NewAnswerService(
	answers repository.AnswerRepository,
	questions repository.QuestionRepository,
	publisher Publisher,
	hook ActivityHook,
) *AnswerService {
	return &AnswerService{
		answers:   answers,
		questions: questions,
		publisher: publisherOrNoop(publisher),
		hook:      hookOrNoop(hook),
	}
}

func (s *AnswerService) CreateAnswer(ctx context.Context, in CreateAnswerInput) (*models.Answer, error) {
	if in.UserID == 0 {
		return nil, models.NewAuthRequiredError("Você precisa estar logado para responder")
	}
	content := models.SanitizeInput(in.Content)
	if err := validation.ValidateAnswer(content); err != nil {
		return nil, err
	}

	question, err := s.questions.GetByID(ctx, in.QuestionID)
	if err != nil {
		return nil, err
	}
	if question.UserID == in.UserID {
		return nil, models.NewForbiddenError("Você não pode responder à sua própria pergunta")
	}

	answer := &models.Answer{
		UserID:     in.UserID,
		QuestionID: in.QuestionID,
		Content:    content,
	}
	if err := s.answers.Create(ctx, answer); err != nil {
		return nil, err
	}

	s.pulse(ctx, in.QuestionID, notifications.OpInsert)
	s.hook.AfterActivity(ctx, in.UserID)
	return answer, nil
}

// AcceptAnswer marks answerID as the accepted answer of its question. Only the
// question's author may do this. Clearing the previous acceptance and setting the
// new one commit together.
func (s *AnswerService) AcceptAnswer(ctx context.Context, userID, answerID uint) (*models.Answer, error) {
	if userID == 0 {
		return nil, models.NewAuthRequiredError("Você precisa estar logado para aceitar uma resposta")
	}

	ctx, span := observability.GetTraceLayer().TraceService(ctx, "answers", "Accept")
	defer span.End()
	span.SetAttributes(attribute.Int64("answer.id", int64(answerID)))

	answer, err := s.answers.GetByID(ctx, answerID)
	if err != nil {
		return nil, err
	}
	question, err := s.questions.GetByID(ctx, answer.QuestionID)
	if err != nil {
		return nil, err
	}
	if question.UserID != userID {
		return nil, models.NewForbiddenError("Apenas o autor da pergunta pode aceitar uma resposta")
	}

	previous, err := s.answers.Accept(ctx, question.ID, answer.ID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	answer.IsAccepted = true

	affected := []uint{answer.UserID}
	if previous != nil {
		affected = append(affected, previous.UserID)
	}
	s.pulse(ctx, question.ID, notifications.OpUpdate)
	s.hook.AfterActivity(ctx, affected...)
	return answer, nil
}

func (s *AnswerService) ListByQuestion(ctx context.Context, questionID uint) ([]models.Answer, error) {
	if _, err := s.questions.GetByID(ctx, questionID); err != nil {
		return nil, err
	}
	return s.answers.ListByQuestion(ctx, questionID)
}

func (s *AnswerService) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Answer, error) {
	return s.answers.ListByUser(ctx, userID, limit, offset)
}

func (s *AnswerService) pulse(ctx context.Context, questionID uint, op string) {
	if err := s.publisher.PublishChange(ctx, notifications.TableAnswers, "question_id", questionID, op); err != nil {
		slog.WarnContext(ctx, "failed to publish answer change", slog.String("error", err.Error()))
	}
}
