// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Character is an in-universe persona owned by an account. It is the unit of
// authorship and social identity in the feed.
type Character struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	DisplayName string    `gorm:"not null;index" json:"display_name"`
	TeamID      *uint     `gorm:"index" json:"team_id,omitempty"`
	AccountID   uint      `gorm:"not null;index" json:"account_id"`
	IsActive    bool      `gorm:"not null;default:false" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Character) TableName() string {
	return "characters"
}
