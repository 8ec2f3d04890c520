package repository

import (
	"context"
	"time"

	"unajuda/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BadgeRepository defines persistence operations for the badge catalog and awards.
type BadgeRepository interface {
	ListCatalog(ctx context.Context) ([]models.Badge, error)
	EarnedBadgeIDs(ctx context.Context, userID uint) (map[uint]struct{}, error)
	// Award inserts the (user, badge) pair. inserted is false when it was already earned.
	Award(ctx context.Context, userID, badgeID uint) (inserted bool, err error)
	ListUserBadges(ctx context.Context, userID uint) ([]models.UserBadge, error)
	Upsert(ctx context.Context, badge *models.Badge) error
}

type badgeRepository struct {
	db *gorm.DB
}

// NewBadgeRepository returns a new BadgeRepository implementation.
func NewBadgeRepository(db *gorm.DB) BadgeRepository {
	return &badgeRepository{db: db}
}

func (r *badgeRepository) ListCatalog(ctx context.Context) ([]models.Badge, error) {
	var badges []models.Badge
	err := r.db.WithContext(ctx).
		Order("requirement_type ASC").
		Order("requirement_count ASC").
		Order("id ASC").
		Find(&badges).Error
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	return badges, nil
}

func (r *badgeRepository) EarnedBadgeIDs(ctx context.Context, userID uint) (map[uint]struct{}, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.UserBadge{}).
		Where("user_id = ?", userID).
		Pluck("badge_id", &ids).Error
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	earned := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		earned[id] = struct{}{}
	}
	return earned, nil
}

func (r *badgeRepository) Award(ctx context.Context, userID, badgeID uint) (bool, error) {
	award := models.UserBadge{UserID: userID, BadgeID: badgeID, EarnedAt: time.Now().UTC()}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit("Badge").
		Create(&award)
	if result.Error != nil {
		if IsDuplicate(result.Error) {
			return false, nil
		}
		return false, models.NewStoreError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *badgeRepository) ListUserBadges(ctx context.Context, userID uint) ([]models.UserBadge, error) {
	var earned []models.UserBadge
	err := r.db.WithContext(ctx).
		Preload("Badge").
		Where("user_id = ?", userID).
		Order("earned_at DESC").
		Order("id DESC").
		Find(&earned).Error
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	return earned, nil
}

// Upsert keys the catalog on badge name so reseeding updates thresholds in place.
func (r *badgeRepository) Upsert(ctx context.Context, badge *models.Badge) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"description", "icon", "requirement_type", "requirement_count"}),
	}).Create(badge).Error
	if err != nil {
		return models.NewStoreError(err)
	}
	return nil
}
