package service

import (
	"context"
	"log/slog"

	"unajuda/internal/cache"
	"unajuda/internal/models"
	"unajuda/internal/notifications"
	"unajuda/internal/repository"
	"unajuda/internal/validation"
)

// QuestionService handles questions and the category list.
type QuestionService struct {
	questions  repository.QuestionRepository
	categories repository.CategoryRepository
	publisher  Publisher
	hook       ActivityHook
}

// CreateQuestionInput is the payload of a new question.
type CreateQuestionInput struct {
	UserID     uint
	CategoryID uint
	Title      string
	Content    string
}

// NewQuestionService creates a QuestionService. publisher and hook may be nil.
func NewQuestionService(
	questions repository.QuestionRepository,
	categories repository.CategoryRepository,
	publisher Publisher,
	hook ActivityHook,
) *QuestionService {
	return &QuestionService{
		questions:  questions,
		categories: categories,
		publisher:  publisherOrNoop(publisher),
		hook:       hookOrNoop(hook),
	}
}

func (s *QuestionService) CreateQuestion(ctx context.Context, in CreateQuestionInput) (*models.Question, error) {
	if in.UserID == 0 {
		return nil, models.NewAuthRequiredError("Faça login para perguntar")
	}
	title := models.SanitizeInput(in.Title)
	content := models.SanitizeInput(in.Content)
	if err := validation.ValidateQuestion(title, content); err != nil {
		return nil, err
	}
	if in.CategoryID == 0 {
		return nil, models.NewFieldValidationError("category_id", "Categoria inválida")
	}
	if _, err := s.categories.GetByID(ctx, in.CategoryID); err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewFieldValidationError("category_id", "Categoria inválida")
		}
		return nil, err
	}

	question := &models.Question{
		UserID:     in.UserID,
		CategoryID: in.CategoryID,
		Title:      title,
		Content:    content,
	}
	if err := s.questions.Create(ctx, question); err != nil {
		return nil, err
	}

	s.pulse(ctx, "category_id", question.CategoryID, notifications.OpInsert)
	s.pulse(ctx, "user_id", question.UserID, notifications.OpInsert)
	s.hook.AfterActivity(ctx, in.UserID)
	return question, nil
}

// ViewQuestion counts a view and returns the question. Every load counts.
func (s *QuestionService) ViewQuestion(ctx context.Context, id uint) (*models.Question, error) {
	if err := s.questions.IncrementViews(ctx, id); err != nil {
		return nil, err
	}
	question, err := s.questions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.pulse(ctx, "id", id, notifications.OpUpdate)
	return question, nil
}

func (s *QuestionService) GetQuestion(ctx context.Context, id uint) (*models.Question, error) {
	return s.questions.GetByID(ctx, id)
}

func (s *QuestionService) ListQuestions(ctx context.Context, filter repository.QuestionFilter) ([]models.Question, error) {
	filter.Search = models.SanitizeInput(filter.Search)
	return s.questions.List(ctx, filter)
}

// ListCategories returns all categories ordered by name.
func (s *QuestionService) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	_, err := cache.Aside(ctx, cache.CategoriesKey, &categories, cache.CategoriesTTL, func() error {
		var err error
		categories, err = s.categories.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *QuestionService) pulse(ctx context.Context, column string, id uint, op string) {
	if err := s.publisher.PublishChange(ctx, notifications.TableQuestions, column, id, op); err != nil {
		slog.WarnContext(ctx, "failed to publish question change", slog.String("error", err.Error()))
	}
}
