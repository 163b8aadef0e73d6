package models

import (
	"time"
)

// Follow is a directed edge: the follower can see the followed character's
// followers-scoped posts. The pair is unique and never a self-loop.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_follow_pair" json:"follower_id"`
	FollowedID uint      `gorm:"not null;uniqueIndex:idx_follow_pair;index" json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}

// Like represents a character's like on a post.
// The combination of PostID and CharacterID must be unique.
type Like struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PostID      uint      `gorm:"not null;uniqueIndex:idx_like_post_character" json:"post_id"`
	CharacterID uint      `gorm:"not null;uniqueIndex:idx_like_post_character;index" json:"character_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Like) TableName() string {
	return "likes"
}

// Comment is a comment on a post. Threading is one level deep: a parent
// comment never has a parent of its own.
type Comment struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	PostID          uint       `gorm:"not null;index" json:"post_id"`
	AuthorID        uint       `gorm:"not null;index" json:"author_id"`
	Content         string     `gorm:"type:text;not null" json:"content"`
	ParentCommentID *uint      `gorm:"index" json:"parent_comment_id,omitempty"`
	Replies         []*Comment `gorm:"-" json:"replies,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Comment) TableName() string {
	return "comments"
}

// Hashtag is a unique lowercase tag name.
type Hashtag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:text;not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Hashtag) TableName() string {
	return "hashtags"
}

// PostHashtag links a post to a hashtag.
type PostHashtag struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	PostID    uint `gorm:"not null;uniqueIndex:idx_post_hashtag" json:"post_id"`
	HashtagID uint `gorm:"not null;uniqueIndex:idx_post_hashtag;index" json:"hashtag_id"`
}

// TableName specifies the table name for GORM
func (PostHashtag) TableName() string {
	return "post_hashtags"
}

// Tag records a character mentioned or tagged on a post.
type Tag struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PostID      uint      `gorm:"not null;uniqueIndex:idx_tag_post_character" json:"post_id"`
	CharacterID uint      `gorm:"not null;uniqueIndex:idx_tag_post_character;index" json:"character_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Tag) TableName() string {
	return "post_tags"
}

// HashtagCount is one row of the trending ranking.
type HashtagCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}
