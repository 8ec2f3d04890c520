package database

import "unajuda/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Category{},
		&models.Question{},
		&models.Answer{},
		&models.AnswerReply{},
		&models.Vote{},
		&models.Badge{},
		&models.UserBadge{},
	}
}
