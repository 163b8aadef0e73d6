package service

import (
	"context"
	"log/slog"

	"huddle/internal/events"
	"huddle/internal/models"
	"huddle/internal/observability"
	"huddle/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// Notification list bounds.
const (
	DefaultNotificationLimit = 20
	MaxNotificationLimit     = 100
)

// NotificationService creates and reads per-character notifications.
type NotificationService struct {
	store     *repository.Store
	publisher ActivityPublisher
}

// NotifyInput describes one notification to deliver.
type NotifyInput struct {
	RecipientID uint                      `validate:"required"`
	ActorID     uint                      `validate:"required"`
	Action      models.NotificationAction `validate:"required"`
	Target      models.NotificationTarget `validate:"required"`
}

func NewNotificationService(store *repository.Store, publisher ActivityPublisher) *NotificationService {
	return &NotificationService{store: store, publisher: publisher}
}

// Notify writes a notification and announces it. Self-notifications are
// skipped. Failures are logged and counted but never returned: a social
// action does not fail because its notification could not be stored.
func (s *NotificationService) Notify(ctx context.Context, in NotifyInput) *models.Notification {
	n := s.Dispatch(ctx, s.store, in)
	s.Announce(ctx, n)
	return n
}

// Dispatch writes the notification through tx inside a savepoint, so a
// failed write leaves the rest of tx usable. It returns nil when nothing was
// written.
func (s *NotificationService) Dispatch(ctx context.Context, tx *repository.Store, in NotifyInput) *models.Notification {
	if in.RecipientID == in.ActorID {
		return nil
	}
	if err := validateInput(in); err != nil || !in.Action.Valid() {
		observability.Logger.WarnContext(ctx, "discarding invalid notification",
			slog.Uint64("recipient_id", uint64(in.RecipientID)),
			slog.String("action", string(in.Action)),
		)
		observability.NotificationsDropped.WithLabelValues(string(in.Action)).Inc()
		return nil
	}

	n := models.NewNotification(in.RecipientID, in.ActorID, in.Action, in.Target)
	err := tx.Transaction(ctx, func(sp *repository.Store) error {
		return sp.Notifications.Create(ctx, n)
	})
	if err != nil {
		observability.Logger.ErrorContext(ctx, "notification dropped",
			slog.Uint64("recipient_id", uint64(in.RecipientID)),
			slog.Uint64("actor_id", uint64(in.ActorID)),
			slog.String("action", string(in.Action)),
			slog.String("error", err.Error()),
		)
		observability.NotificationsDropped.WithLabelValues(string(in.Action)).Inc()
		return nil
	}
	observability.NotificationsDispatched.WithLabelValues(string(in.Action)).Inc()
	return n
}

// Announce publishes committed notifications to the activity stream. Nil
// entries are skipped.
func (s *NotificationService) Announce(ctx context.Context, notifications ...*models.Notification) {
	for _, n := range notifications {
		if n == nil {
			continue
		}
		a := events.Activity{
			Kind:           events.KindNotificationCreated,
			ActorID:        n.ActorID,
			RecipientID:    n.RecipientID,
			NotificationID: n.ID,
			Action:         string(n.Action),
		}
		switch target := targetOf(n).(type) {
		case models.PostTarget:
			a.PostID = target.PostID
		case models.CommentTarget:
			a.CommentID = target.CommentID
		case models.CharacterTarget:
			a.CharacterID = target.CharacterID
		}
		publishActivity(ctx, s.publisher, a)
	}
}

func targetOf(n *models.Notification) models.NotificationTarget {
	target, err := n.Target()
	if err != nil {
		return nil
	}
	return target
}

// List returns the character's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, characterID uint, limit int) ([]models.Notification, error) {
	ctx, span := observability.StartServiceSpan(ctx, "NotificationService", "List",
		attribute.Int64("character.id", int64(characterID)))
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if limit <= 0 {
		limit = DefaultNotificationLimit
	}
	if limit > MaxNotificationLimit {
		limit = MaxNotificationLimit
	}
	var notifications []models.Notification
	notifications, err = s.store.Notifications.List(ctx, characterID, limit)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

// MarkRead flags the given notifications of characterID read and returns how
// many changed. Ids owned by other characters are ignored.
func (s *NotificationService) MarkRead(ctx context.Context, characterID uint, ids []uint) (int64, error) {
	ctx, span := observability.StartServiceSpan(ctx, "NotificationService", "MarkRead",
		attribute.Int64("character.id", int64(characterID)),
		attribute.Int("notification.count", len(ids)))
	var err error
	defer func() { observability.EndSpan(span, err) }()

	var updated int64
	updated, err = s.store.Notifications.MarkRead(ctx, characterID, ids)
	return updated, err
}

// MarkAllRead flags every unread notification of characterID read.
func (s *NotificationService) MarkAllRead(ctx context.Context, characterID uint) (int64, error) {
	return s.store.Notifications.MarkAllRead(ctx, characterID)
}

// UnreadCount returns the number of unread notifications of characterID.
func (s *NotificationService) UnreadCount(ctx context.Context, characterID uint) (int64, error) {
	return s.store.Notifications.CountUnread(ctx, characterID)
}
