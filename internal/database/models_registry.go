package database

import "huddle/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Character{},
		&models.Post{},
		&models.Follow{},
		&models.Like{},
		&models.Comment{},
		&models.Hashtag{},
		&models.PostHashtag{},
		&models.Tag{},
		&models.Notification{},
		&models.PollOption{},
		&models.PollVote{},
	}
}
