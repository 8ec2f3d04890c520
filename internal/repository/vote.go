package repository

import (
	"context"

	"unajuda/internal/models"
	"unajuda/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteRepository defines persistence operations for the vote ledger.
type VoteRepository interface {
	// Find returns the caster's vote on target, or nil when there is none.
	Find(ctx context.Context, userID uint, target models.VoteTarget) (*models.Vote, error)
	// Insert adds vote. inserted is false when a vote for the same pair already exists.
	Insert(ctx context.Context, vote *models.Vote) (inserted bool, err error)
	UpdateType(ctx context.Context, voteID uint, voteType models.VoteType) error
	Delete(ctx context.Context, voteID uint) error
	Tally(ctx context.Context, target models.VoteTarget) (models.VoteTally, error)
	// TargetOwner returns the author of the voted question or answer.
	TargetOwner(ctx context.Context, target models.VoteTarget) (uint, error)
}

type voteRepository struct {
	db *gorm.DB
}

// NewVoteRepository returns a new VoteRepository implementation.
func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) Find(ctx context.Context, userID uint, target models.VoteTarget) (*models.Vote, error) {
	var votes []models.Vote
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND "+target.Column()+" = ?", userID, target.ID).
		Limit(1).
		Find(&votes).Error
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	if len(votes) == 0 {
		return nil, nil
	}
	return &votes[0], nil
}

func (r *voteRepository) Insert(ctx context.Context, vote *models.Vote) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(vote)
	if result.Error != nil {
		if IsDuplicate(result.Error) {
			return false, nil
		}
		return false, models.NewStoreError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *voteRepository) UpdateType(ctx context.Context, voteID uint, voteType models.VoteType) error {
	err := r.db.WithContext(ctx).
		Model(&models.Vote{}).
		Where("id = ?", voteID).
		Update("vote_type", voteType).Error
	if err != nil {
		return models.NewStoreError(err)
	}
	return nil
}

func (r *voteRepository) Delete(ctx context.Context, voteID uint) error {
	if err := r.db.WithContext(ctx).Where("id = ?", voteID).Delete(&models.Vote{}).Error; err != nil {
		return models.NewStoreError(err)
	}
	return nil
}

// Tally counts every row of target; it is never maintained incrementally.
func (r *voteRepository) Tally(ctx context.Context, target models.VoteTarget) (models.VoteTally, error) {
	defer observability.TrackQuery("tally", "votes")()

	var tally models.VoteTally
	err := r.db.WithContext(ctx).
		Model(&models.Vote{}).
		Select(
			"COALESCE(SUM(CASE WHEN vote_type = ? THEN 1 ELSE 0 END), 0) AS upvotes, "+
				"COALESCE(SUM(CASE WHEN vote_type = ? THEN 1 ELSE 0 END), 0) AS downvotes",
			models.VoteUp, models.VoteDown,
		).
		Where(target.Column()+" = ?", target.ID).
		Scan(&tally).Error
	if err != nil {
		return models.VoteTally{}, models.NewStoreError(err)
	}
	return tally, nil
}

func (r *voteRepository) TargetOwner(ctx context.Context, target models.VoteTarget) (uint, error) {
	var owner struct{ UserID uint }
	var result *gorm.DB
	if target.Kind == models.TargetAnswer {
		result = r.db.WithContext(ctx).Model(&models.Answer{}).Select("user_id").Where("id = ?", target.ID).Limit(1).Scan(&owner)
	} else {
		result = r.db.WithContext(ctx).Model(&models.Question{}).Select("user_id").Where("id = ?", target.ID).Limit(1).Scan(&owner)
	}
	if result.Error != nil {
		return 0, models.NewStoreError(result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, models.NewNotFoundError(string(target.Kind), target.ID)
	}
	return owner.UserID, nil
}
