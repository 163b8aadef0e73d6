// Package events publishes social activity to Redis channels for other
// processes to consume.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"huddle/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Kind names an activity.
type Kind string

const (
	KindPostCreated         Kind = "post.created"
	KindPostDeleted         Kind = "post.deleted"
	KindPostLiked           Kind = "post.liked"
	KindPostUnliked         Kind = "post.unliked"
	KindCharacterFollowed   Kind = "character.followed"
	KindCharacterUnfollowed Kind = "character.unfollowed"
	KindCommentCreated      Kind = "comment.created"
	KindPollVoted           Kind = "poll.voted"
	KindNotificationCreated Kind = "notification.created"
)

// BroadcastChannel receives every activity.
const BroadcastChannel = "activity:broadcast"

// Activity is the JSON payload published for one social action.
type Activity struct {
	Kind           Kind   `json:"kind"`
	ActorID        uint   `json:"actor_id"`
	RecipientID    uint   `json:"recipient_id,omitempty"`
	PostID         uint   `json:"post_id,omitempty"`
	CommentID      uint   `json:"comment_id,omitempty"`
	CharacterID    uint   `json:"character_id,omitempty"`
	NotificationID uint   `json:"notification_id,omitempty"`
	Action         string `json:"action,omitempty"`
	Timestamp      string `json:"timestamp"`
}

// CharacterChannel is the channel for activity addressed to one character.
func CharacterChannel(characterID uint) string {
	return fmt.Sprintf("activity:character:%d", characterID)
}

// Publisher writes activities into Redis. A Publisher without a client is a no-op.
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher creates a Publisher using the provided Redis client.
func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// Publish sends a to the broadcast channel and, when it has a recipient, to
// the recipient's channel.
func (p *Publisher) Publish(ctx context.Context, a Activity) error {
	if p == nil || p.rdb == nil {
		return nil
	}
	if a.Timestamp == "" {
		a.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}

	pipe := p.rdb.Pipeline()
	pipe.Publish(ctx, BroadcastChannel, payload)
	if a.RecipientID != 0 {
		pipe.Publish(ctx, CharacterChannel(a.RecipientID), payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish %s: %w", a.Kind, err)
	}
	return nil
}

// StartSubscriber subscribes to every activity channel and calls onActivity
// for each decoded message until ctx is cancelled. Undecodable payloads are
// logged and skipped; a panicking handler does not stop the loop.
func (p *Publisher) StartSubscriber(ctx context.Context, onActivity func(channel string, a Activity)) error {
	if p == nil || p.rdb == nil {
		return nil
	}
	sub := p.rdb.PSubscribe(ctx, "activity:character:*", BroadcastChannel)
	// Wait for the subscription to be confirmed so no message published after
	// return is missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var a Activity
				if err := json.Unmarshal([]byte(msg.Payload), &a); err != nil {
					observability.Logger.WarnContext(ctx, "dropping malformed activity",
						slog.String("channel", msg.Channel), slog.String("error", err.Error()))
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							observability.Logger.ErrorContext(ctx, "panic in activity subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onActivity(msg.Channel, a)
				}()
			}
		}
	}()

	return nil
}
