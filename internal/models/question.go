package models

import (
	"time"
)

// Question is a post asking for help under a category.
type Question struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	User       User      `gorm:"foreignKey:UserID" json:"user"`
	CategoryID uint      `gorm:"not null;index" json:"category_id"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Title      string    `gorm:"not null" json:"title"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	// Views is bumped on every detail load; no per-viewer dedup.
	Views int `gorm:"not null;default:0" json:"views"`
	// AnswersCount is not persisted; computed at query time
	AnswersCount int       `gorm:"->" json:"answers_count"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Question) TableName() string {
	return "questions"
}
