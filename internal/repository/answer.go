package repository

import (
	"context"

	"unajuda/internal/models"

	"gorm.io/gorm"
)

// AnswerRepository defines persistence operations for answers.
type AnswerRepository interface {
	Create(ctx context.Context, answer *models.Answer) error
	GetByID(ctx context.Context, id uint) (*models.Answer, error)
	ListByQuestion(ctx context.Context, questionID uint) ([]models.Answer, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Answer, error)
	Accept(ctx context.Context, questionID, answerID uint) (previous *models.Answer, err error)
}

type answerRepository struct {
	db *gorm.DB
}

// NewAnswerRepository returns a new AnswerRepository implementation.
func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) Create(ctx context.Context, answer *models.Answer) error {
	if err := r.db.WithContext(ctx).Create(answer).Error; err != nil {
		return models.NewStoreError(err)
	}
	return storeErr(r.db.WithContext(ctx).Preload("User").First(answer, answer.ID).Error, "Answer", answer.ID)
}

func (r *answerRepository) GetByID(ctx context.Context, id uint) (*models.Answer, error) {
	var answer models.Answer
	if err := r.db.WithContext(ctx).Preload("User").First(&answer, id).Error; err != nil {
		return nil, storeErr(err, "Answer", id)
	}
	return &answer, nil
}

// ListByQuestion returns the accepted answer first, then the rest oldest first.
func (r *answerRepository) ListByQuestion(ctx context.Context, questionID uint) ([]models.Answer, error) {
	var answers []models.Answer
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("question_id = ?", questionID).
		Order("is_accepted DESC").
		Order("created_at ASC").
		Order("id ASC").
		Find(&answers).Error
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	return answers, nil
}

func (r *answerRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Answer, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var answers []models.Answer
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&answers).Error
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	return answers, nil
}

// Accept clears any accepted answer on the question and marks answerID, in one transaction.
// It returns the answer that was accepted before, if any and if different.
func (r *answerRepository) Accept(ctx context.Context, questionID, answerID uint) (*models.Answer, error) {
	var previous *models.Answer
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current []models.Answer
		if err := tx.Where("question_id = ? AND is_accepted = ?", questionID, true).Find(&current).Error; err != nil {
			return err
		}
		for i := range current {
			if current[i].ID != answerID {
				previous = &current[i]
				break
			}
		}

		if err := tx.Model(&models.Answer{}).
			Where("question_id = ? AND id <> ?", questionID, answerID).
			Update("is_accepted", false).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Answer{}).
			Where("id = ? AND question_id = ?", answerID, questionID).
			Update("is_accepted", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError("Answer", answerID)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "Answer", answerID)
	}
	return previous, nil
}
