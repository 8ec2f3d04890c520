package models

import (
	"time"
)

// RequirementType names the stats counter a badge threshold is compared against.
type RequirementType string

const (
	RequirementQuestions       RequirementType = "questions"
	RequirementAnswers         RequirementType = "answers"
	RequirementHelpfulVotes    RequirementType = "helpful_votes"
	RequirementAcceptedAnswers RequirementType = "accepted_answers"
)

// BadgeIcon is the closed set of icon identifiers a client knows how to render.
type BadgeIcon string

const (
	IconMessageSquare BadgeIcon = "MessageSquare"
	IconAward         BadgeIcon = "Award"
	IconThumbsUp      BadgeIcon = "ThumbsUp"
	IconCheckCircle   BadgeIcon = "CheckCircle"
	IconTrophy        BadgeIcon = "Trophy"
)

// DefaultBadgeIcon is used for identifiers outside the known set.
const DefaultBadgeIcon = IconMessageSquare

var knownBadgeIcons = map[BadgeIcon]struct{}{
	IconMessageSquare: {},
	IconAward:         {},
	IconThumbsUp:      {},
	IconCheckCircle:   {},
	IconTrophy:        {},
}

// ParseBadgeIcon returns the icon for name, or DefaultBadgeIcon when name is unknown.
func ParseBadgeIcon(name string) BadgeIcon {
	icon := BadgeIcon(name)
	if _, ok := knownBadgeIcons[icon]; ok {
		return icon
	}
	return DefaultBadgeIcon
}

// Badge is a catalog achievement. The catalog is seeded and read-only at runtime.
type Badge struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	Name             string          `gorm:"unique;not null" json:"name"`
	Description      string          `json:"description"`
	Icon             BadgeIcon       `gorm:"type:varchar(40);not null;default:'MessageSquare'" json:"icon"`
	RequirementType  RequirementType `gorm:"type:varchar(40);not null" json:"requirement_type"`
	RequirementCount int             `gorm:"not null" json:"requirement_count"`
	CreatedAt        time.Time       `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Badge) TableName() string {
	return "badges"
}

// UserBadge records that a user earned a badge. Rows are never removed.
type UserBadge struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_user_badges_user_badge" json:"user_id"`
	BadgeID  uint      `gorm:"not null;uniqueIndex:idx_user_badges_user_badge" json:"badge_id"`
	Badge    Badge     `gorm:"foreignKey:BadgeID" json:"badge"`
	EarnedAt time.Time `gorm:"not null;index" json:"earned_at"`
}

// TableName specifies the table name for GORM
func (UserBadge) TableName() string {
	return "user_badges"
}
