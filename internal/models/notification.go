package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// NotificationAction is the social action that produced a notification.
type NotificationAction string

const (
	ActionLike    NotificationAction = "like"
	ActionComment NotificationAction = "comment"
	ActionFollow  NotificationAction = "follow"
	ActionMention NotificationAction = "mention"
	ActionTag     NotificationAction = "tag"
)

// Valid reports whether a is a known action.
func (a NotificationAction) Valid() bool {
	switch a {
	case ActionLike, ActionComment, ActionFollow, ActionMention, ActionTag:
		return true
	}
	return false
}

// Persisted target kinds.
const (
	TargetTypePost      = "post"
	TargetTypeComment   = "comment"
	TargetTypeCharacter = "character"
)

// NotificationTarget is the entity a notification points at. The only
// implementations are PostTarget, CommentTarget and CharacterTarget; callers
// switch on them.
type NotificationTarget interface {
	targetKind() string
	targetID() uint
}

// PostTarget points a notification at a post.
type PostTarget struct {
	PostID uint `json:"post_id"`
}

func (PostTarget) targetKind() string { return TargetTypePost }
func (t PostTarget) targetID() uint   { return t.PostID }

// CommentTarget points a notification at a comment.
type CommentTarget struct {
	CommentID uint `json:"comment_id"`
}

func (CommentTarget) targetKind() string { return TargetTypeComment }
func (t CommentTarget) targetID() uint   { return t.CommentID }

// CharacterTarget points a notification at a character profile. Follow
// notifications use it for the new follower.
type CharacterTarget struct {
	CharacterID uint `json:"character_id"`
}

func (CharacterTarget) targetKind() string { return TargetTypeCharacter }
func (t CharacterTarget) targetID() uint   { return t.CharacterID }

// Notification is an unread-until-marked record addressed to one character.
type Notification struct {
	ID          uint               `gorm:"primaryKey" json:"id"`
	RecipientID uint               `gorm:"not null;index:idx_notification_recipient" json:"recipient_id"`
	ActorID     uint               `gorm:"not null" json:"actor_id"`
	Action      NotificationAction `gorm:"type:varchar(16);not null" json:"action"`
	TargetID    uint               `gorm:"not null" json:"-"`
	TargetType  string             `gorm:"type:varchar(16);not null" json:"-"`
	IsRead      bool               `gorm:"not null;default:false;index:idx_notification_recipient" json:"is_read"`
	CreatedAt   time.Time          `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Notification) TableName() string {
	return "notifications"
}

// NewNotification builds an unread notification for the given target.
func NewNotification(recipientID, actorID uint, action NotificationAction, target NotificationTarget) *Notification {
	n := &Notification{
		RecipientID: recipientID,
		ActorID:     actorID,
		Action:      action,
	}
	n.SetTarget(target)
	return n
}

// SetTarget stores the target's kind and id in the persisted columns.
func (n *Notification) SetTarget(target NotificationTarget) {
	n.TargetType = target.targetKind()
	n.TargetID = target.targetID()
}

// Target decodes the persisted columns back into the tagged union.
func (n *Notification) Target() (NotificationTarget, error) {
	switch n.TargetType {
	case TargetTypePost:
		return PostTarget{PostID: n.TargetID}, nil
	case TargetTypeComment:
		return CommentTarget{CommentID: n.TargetID}, nil
	case TargetTypeCharacter:
		return CharacterTarget{CharacterID: n.TargetID}, nil
	default:
		return nil, fmt.Errorf("notification %d: unknown target type %q", n.ID, n.TargetType)
	}
}

// MarshalJSON renders the target as {"type": ..., "id": ...}.
func (n Notification) MarshalJSON() ([]byte, error) {
	type alias Notification
	return json.Marshal(struct {
		alias
		Target struct {
			Type string `json:"type"`
			ID   uint   `json:"id"`
		} `json:"target"`
	}{
		alias: alias(n),
		Target: struct {
			Type string `json:"type"`
			ID   uint   `json:"id"`
		}{Type: n.TargetType, ID: n.TargetID},
	})
}
