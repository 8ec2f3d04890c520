package repository

import (
	"context"

	"unajuda/internal/models"
	"unajuda/internal/observability"
	"unajuda/internal/reputation"

	"gorm.io/gorm"
)

// StatsRepository computes the per-user activity counters reputation is derived from.
type StatsRepository interface {
	Snapshot(ctx context.Context, userID uint, wellRatedThreshold int) (reputation.Stats, error)
}

type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository returns a new StatsRepository implementation.
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

// Snapshot runs every count against the store. Any failed count fails the whole
// snapshot; partial results are never returned.
func (r *statsRepository) Snapshot(ctx context.Context, userID uint, wellRatedThreshold int) (reputation.Stats, error) {
	defer observability.TrackQuery("snapshot", "stats")()

	db := r.db.WithContext(ctx)
	var s reputation.Stats

	if err := db.Model(&models.Question{}).Where("user_id = ?", userID).Count(&s.Questions).Error; err != nil {
		return reputation.Stats{}, models.NewStoreError(err)
	}
	if err := db.Model(&models.Answer{}).Where("user_id = ?", userID).Count(&s.Answers).Error; err != nil {
		return reputation.Stats{}, models.NewStoreError(err)
	}
	if err := db.Model(&models.Answer{}).
		Where("user_id = ? AND is_accepted = ?", userID, true).
		Count(&s.AcceptedAnswers).Error; err != nil {
		return reputation.Stats{}, models.NewStoreError(err)
	}
	if err := db.Model(&models.Vote{}).
		Joins("JOIN answers ON answers.id = votes.answer_id").
		Where("answers.user_id = ? AND votes.vote_type = ?", userID, models.VoteUp).
		Count(&s.HelpfulVotes).Error; err != nil {
		return reputation.Stats{}, models.NewStoreError(err)
	}

	wellRated := db.Model(&models.Vote{}).
		Select("votes.question_id").
		Joins("JOIN questions ON questions.id = votes.question_id").
		Where("questions.user_id = ? AND votes.vote_type = ?", userID, models.VoteUp).
		Group("votes.question_id").
		Having("COUNT(*) > ?", wellRatedThreshold)
	if err := db.Table("(?) AS well_rated", wellRated).Count(&s.WellRatedQuestions).Error; err != nil {
		return reputation.Stats{}, models.NewStoreError(err)
	}

	return s, nil
}
