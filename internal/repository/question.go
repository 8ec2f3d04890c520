package repository

import (
	"context"
	"strings"

	"unajuda/internal/models"

	"gorm.io/gorm"
)

const answersCountSelect = "questions.*, (SELECT COUNT(*) FROM answers WHERE answers.question_id = questions.id) AS answers_count"

// QuestionFilter narrows a question listing. Zero values mean no constraint.
type QuestionFilter struct {
	Search     string
	CategoryID uint
	UserID     uint
	Limit      int
	Offset     int
}

// QuestionRepository defines persistence operations for questions.
type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	List(ctx context.Context, filter QuestionFilter) ([]models.Question, error)
	IncrementViews(ctx context.Context, id uint) error
}

type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository returns a new QuestionRepository implementation.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) Create(ctx context.Context, question *models.Question) error {
	if err := r.db.WithContext(ctx).Create(question).Error; err != nil {
		return models.NewStoreError(err)
	}
	return storeErr(r.db.WithContext(ctx).Preload("User").Preload("Category").First(question, question.ID).Error, "Question", question.ID)
}

func (r *questionRepository) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	err := r.db.WithContext(ctx).
		Select(answersCountSelect).
		Preload("User").
		Preload("Category").
		First(&question, id).Error
	if err != nil {
		return nil, storeErr(err, "Question", id)
	}
	return &question, nil
}

func (r *questionRepository) List(ctx context.Context, filter QuestionFilter) ([]models.Question, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := r.db.WithContext(ctx).
		Select(answersCountSelect).
		Preload("User").
		Preload("Category")

	if filter.CategoryID != 0 {
		query = query.Where("questions.category_id = ?", filter.CategoryID)
	}
	if filter.UserID != 0 {
		query = query.Where("questions.user_id = ?", filter.UserID)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		query = query.Where("LOWER(questions.title) LIKE ? OR LOWER(questions.content) LIKE ?", pattern, pattern)
	}

	var questions []models.Question
	err := query.
		Order("questions.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&questions).Error
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	return questions, nil
}

// IncrementViews bumps the view counter in place so concurrent loads never lose an update.
func (r *questionRepository) IncrementViews(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if result.Error != nil {
		return models.NewStoreError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Question", id)
	}
	return nil
}
