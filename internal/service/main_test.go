package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"huddle/internal/database"
	"huddle/internal/events"
	"huddle/internal/models"
	"huddle/internal/repository"

	"github.com/stretchr/testify/require"
)

// recordingPublisher captures activities instead of sending them to Redis.
type recordingPublisher struct {
	mu         sync.Mutex
	activities []events.Activity
	err        error
}

func (p *recordingPublisher) Publish(_ context.Context, a events.Activity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activities = append(p.activities, a)
	return p.err
}

func (p *recordingPublisher) kinds() []events.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Kind, 0, len(p.activities))
	for _, a := range p.activities {
		out = append(out, a.Kind)
	}
	return out
}

type testEnv struct {
	store         *repository.Store
	publisher     *recordingPublisher
	notifications *NotificationService
	interactions  *InteractionService
	feed          *FeedService
	polls         *PollService
	posts         *PostService
	trending      *TrendingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	store := repository.NewStore(db)
	pub := &recordingPublisher{}
	notifications := NewNotificationService(store, pub)
	return &testEnv{
		store:         store,
		publisher:     pub,
		notifications: notifications,
		interactions:  NewInteractionService(store, notifications, pub),
		feed:          NewFeedService(store, 20, 100),
		polls:         NewPollService(store, pub),
		posts:         NewPostService(store, notifications, pub),
		trending:      NewTrendingService(store, 10, 7),
	}
}

func (e *testEnv) character(t *testing.T, name string, team *uint) *models.Character {
	t.Helper()
	c := &models.Character{DisplayName: name, TeamID: team, AccountID: 1}
	require.NoError(t, e.store.Characters.Create(context.Background(), c))
	return c
}

func (e *testEnv) post(t *testing.T, author uint, visibility models.Visibility) *models.Post {
	t.Helper()
	p, err := e.posts.CreatePost(context.Background(), CreatePostInput{
		AuthorID:   author,
		Content:    "hello from the feed",
		Visibility: visibility,
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) pollPost(t *testing.T, author uint, options ...string) (*models.Post, []models.PollOption) {
	t.Helper()
	ctx := context.Background()
	p, err := e.posts.CreatePost(ctx, CreatePostInput{
		AuthorID:    author,
		Content:     "Which way?",
		PostType:    models.PostTypePoll,
		PollOptions: options,
	})
	require.NoError(t, err)
	opts, err := e.store.Polls.Options(ctx, p.ID)
	require.NoError(t, err)
	return p, opts
}

func (e *testEnv) notificationsFor(t *testing.T, recipient uint) []models.Notification {
	t.Helper()
	list, err := e.notifications.List(context.Background(), recipient, 100)
	require.NoError(t, err)
	return list
}

func ptr[T any](v T) *T {
	return &v
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
