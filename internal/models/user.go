// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User is a profile in the UnAjuda application. One row per authenticated identity.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Email      string    `gorm:"unique;not null" json:"email,omitempty"`
	Password   string    `gorm:"not null" json:"-"`
	Username   string    `gorm:"unique;not null" json:"username"`
	FullName   string    `gorm:"not null" json:"full_name"`
	Headline   string    `json:"headline"`
	Bio        string    `gorm:"type:text" json:"bio"`
	University string    `json:"university"`
	Course     string    `json:"course"`
	AvatarURL  string    `json:"avatar_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "profiles"
}

// PublicProfile strips private fields before the profile is shown to other users.
func (u User) PublicProfile() User {
	u.Email = ""
	u.Password = ""
	return u
}
