package repository

import (
	"context"

	"unajuda/internal/models"

	"gorm.io/gorm"
)

// ReplyRepository defines persistence operations for answer replies.
type ReplyRepository interface {
	Create(ctx context.Context, reply *models.AnswerReply) error
	ListByAnswer(ctx context.Context, answerID uint) ([]models.AnswerReply, error)
}

type replyRepository struct {
	db *gorm.DB
}

// NewReplyRepository returns a new ReplyRepository implementation.
func NewReplyRepository(db *gorm.DB) ReplyRepository {
	return &replyRepository{db: db}
}

func (r *replyRepository) Create(ctx context.Context, reply *models.AnswerReply) error {
	if err := r.db.WithContext(ctx).Create(reply).Error; err != nil {
		return models.NewStoreError(err)
	}
	return storeErr(r.db.WithContext(ctx).Preload("User").First(reply, reply.ID).Error, "Reply", reply.ID)
}

func (r *replyRepository) ListByAnswer(ctx context.Context, answerID uint) ([]models.AnswerReply, error) {
	var replies []models.AnswerReply
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("answer_id = ?", answerID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&replies).Error
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	return replies, nil
}
