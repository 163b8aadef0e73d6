package service

import (
	"context"

	"huddle/internal/events"
	"huddle/internal/models"
	"huddle/internal/observability"
	"huddle/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// ToggleAction is the state a toggle left the relationship in.
type ToggleAction string

const (
	ActionLiked      ToggleAction = "liked"
	ActionUnliked    ToggleAction = "unliked"
	ActionFollowed   ToggleAction = "followed"
	ActionUnfollowed ToggleAction = "unfollowed"
)

// ToggleResult reports a toggle outcome. Count is the post's like count or
// the followed character's follower count after the toggle.
type ToggleResult struct {
	Action ToggleAction `json:"action"`
	Count  int64        `json:"count"`
}

// InteractionService flips likes and follows. Both toggles are idempotent
// under concurrency: the unique pair constraint decides races, never an
// in-process lock.
type InteractionService struct {
	store         *repository.Store
	notifications *NotificationService
	publisher     ActivityPublisher
}

func NewInteractionService(store *repository.Store, notifications *NotificationService, publisher ActivityPublisher) *InteractionService {
	return &InteractionService{
		store:         store,
		notifications: notifications,
		publisher:     publisher,
	}
}

// ToggleLike likes the post if characterID has not liked it, otherwise
// removes the like. A new like notifies the post author. A post the character
// cannot see is NOT_FOUND.
func (s *InteractionService) ToggleLike(ctx context.Context, postID, characterID uint) (*ToggleResult, error) {
	ctx, span := observability.StartServiceSpan(ctx, "InteractionService", "ToggleLike",
		attribute.Int64("post.id", int64(postID)),
		attribute.Int64("character.id", int64(characterID)))
	var err error
	defer func() { observability.EndSpan(span, err) }()

	var post *models.Post
	if post, err = visiblePost(ctx, s.store, postID, characterID); err != nil {
		return nil, err
	}

	var (
		action ToggleAction
		raced  bool
		note   *models.Notification
	)
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		existing, err := tx.Likes.Get(ctx, postID, characterID)
		if err != nil {
			return err
		}
		if existing != nil {
			// Zero rows means a concurrent unlike won; the end state is the same.
			if _, err := tx.Likes.Delete(ctx, postID, characterID); err != nil {
				return err
			}
			action = ActionUnliked
			return nil
		}

		inserted, err := tx.Likes.Insert(ctx, postID, characterID)
		if err != nil {
			return err
		}
		action = ActionLiked
		if !inserted {
			raced = true
			return nil
		}
		note = s.notifications.Dispatch(ctx, tx, NotifyInput{
			RecipientID: post.AuthorID,
			ActorID:     characterID,
			Action:      models.ActionLike,
			Target:      models.PostTarget{PostID: postID},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.ToggleOutcomes.WithLabelValues("like", string(action)).Inc()
	if raced {
		observability.ToggleRaces.WithLabelValues("like").Inc()
		observability.NewRepoLogger("likes").LogRace(ctx, "toggle_like", map[string]interface{}{
			"post_id":      postID,
			"character_id": characterID,
		})
	}
	s.notifications.Announce(ctx, note)

	// The toggle that won the race already published the like.
	if !raced {
		kind := events.KindPostLiked
		if action == ActionUnliked {
			kind = events.KindPostUnliked
		}
		publishActivity(ctx, s.publisher, events.Activity{
			Kind:        kind,
			ActorID:     characterID,
			RecipientID: post.AuthorID,
			PostID:      postID,
		})
	}

	var count int64
	if count, err = s.store.Likes.Count(ctx, postID); err != nil {
		return nil, err
	}
	return &ToggleResult{Action: action, Count: count}, nil
}

// ToggleFollow makes followerID follow followedID, or stops following. A new
// follow notifies the followed character.
func (s *InteractionService) ToggleFollow(ctx context.Context, followerID, followedID uint) (*ToggleResult, error) {
	ctx, span := observability.StartServiceSpan(ctx, "InteractionService", "ToggleFollow",
		attribute.Int64("follower.id", int64(followerID)),
		attribute.Int64("followed.id", int64(followedID)))
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if followerID == followedID {
		err = models.NewInvalidRelationshipError("a character cannot follow itself")
		return nil, err
	}
	if _, err = s.store.Characters.GetByID(ctx, followerID); err != nil {
		return nil, err
	}
	if _, err = s.store.Characters.GetByID(ctx, followedID); err != nil {
		return nil, err
	}

	var (
		action ToggleAction
		raced  bool
		note   *models.Notification
	)
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		existing, err := tx.Follows.Get(ctx, followerID, followedID)
		if err != nil {
			return err
		}
		if existing != nil {
			if _, err := tx.Follows.Delete(ctx, followerID, followedID); err != nil {
				return err
			}
			action = ActionUnfollowed
			return nil
		}

		inserted, err := tx.Follows.Insert(ctx, followerID, followedID)
		if err != nil {
			return err
		}
		action = ActionFollowed
		if !inserted {
			raced = true
			return nil
		}
		note = s.notifications.Dispatch(ctx, tx, NotifyInput{
			RecipientID: followedID,
			ActorID:     followerID,
			Action:      models.ActionFollow,
			Target:      models.CharacterTarget{CharacterID: followerID},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.ToggleOutcomes.WithLabelValues("follow", string(action)).Inc()
	if raced {
		observability.ToggleRaces.WithLabelValues("follow").Inc()
		observability.NewRepoLogger("follows").LogRace(ctx, "toggle_follow", map[string]interface{}{
			"follower_id": followerID,
			"followed_id": followedID,
		})
	}
	s.notifications.Announce(ctx, note)

	if !raced {
		kind := events.KindCharacterFollowed
		if action == ActionUnfollowed {
			kind = events.KindCharacterUnfollowed
		}
		publishActivity(ctx, s.publisher, events.Activity{
			Kind:        kind,
			ActorID:     followerID,
			RecipientID: followedID,
			CharacterID: followedID,
		})
	}

	var count int64
	if count, err = s.store.Follows.CountFollowers(ctx, followedID); err != nil {
		return nil, err
	}
	return &ToggleResult{Action: action, Count: count}, nil
}

// LikeState reports whether characterID currently likes postID.
func (s *InteractionService) LikeState(ctx context.Context, postID, characterID uint) (bool, error) {
	like, err := s.store.Likes.Get(ctx, postID, characterID)
	if err != nil {
		return false, err
	}
	return like != nil, nil
}

// IsFollowing reports whether followerID follows followedID.
func (s *InteractionService) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	return s.store.Follows.IsFollowing(ctx, followerID, followedID)
}

// FollowCounts returns how many characters follow characterID and how many
// it follows.
func (s *InteractionService) FollowCounts(ctx context.Context, characterID uint) (followers, following int64, err error) {
	if _, err = s.store.Characters.GetByID(ctx, characterID); err != nil {
		return 0, 0, err
	}
	if followers, err = s.store.Follows.CountFollowers(ctx, characterID); err != nil {
		return 0, 0, err
	}
	if following, err = s.store.Follows.CountFollowing(ctx, characterID); err != nil {
		return 0, 0, err
	}
	return followers, following, nil
}
