package models

import (
	"time"
)

// Visibility is the access tier attached to a post.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityFollowers Visibility = "followers"
	VisibilityTeam      Visibility = "team"
)

// Valid reports whether v is a known visibility.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityFollowers, VisibilityTeam:
		return true
	}
	return false
}

// Post types.
const (
	PostTypeText  = "text"
	PostTypeImage = "image"
	PostTypeVideo = "video"
	PostTypePoll  = "poll"
	PostTypeEvent = "event"
)

// MaxMediaURLs bounds the ordered media list of a post.
const MaxMediaURLs = 10

// Post represents a post authored by a character.
type Post struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	AuthorID   uint       `gorm:"not null;index" json:"author_id"`
	Author     *Character `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Content    string     `gorm:"type:text" json:"content,omitempty"`
	MediaURLs  []string   `gorm:"serializer:json;type:text" json:"media_urls"`
	Visibility Visibility `gorm:"type:varchar(16);not null;default:'public';index" json:"visibility"`
	PostType   string     `gorm:"type:varchar(16);not null;default:'text'" json:"post_type"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Post) TableName() string {
	return "posts"
}

// FeedItem is a post annotated for one viewer. Counts are computed at query time.
type FeedItem struct {
	Post
	AuthorName    string       `json:"author_name"`
	LikesCount    int          `json:"likes_count"`
	CommentsCount int          `json:"comments_count"`
	IsLiked       bool         `json:"is_liked"`
	Poll          *PollResults `json:"poll,omitempty"`
}

// FeedScope selects which posts a feed draws from before visibility filtering.
type FeedScope string

const (
	ScopeAll       FeedScope = "all"
	ScopeFollowing FeedScope = "following"
	ScopeTeam      FeedScope = "team"
	ScopeHashtag   FeedScope = "hashtag"
)

// Valid reports whether s is a known scope.
func (s FeedScope) Valid() bool {
	switch s {
	case ScopeAll, ScopeFollowing, ScopeTeam, ScopeHashtag:
		return true
	}
	return false
}

// FeedPage is one page of a viewer's feed.
type FeedPage struct {
	Items   []FeedItem `json:"items"`
	Page    int        `json:"page"`
	HasMore bool       `json:"has_more"`
}
