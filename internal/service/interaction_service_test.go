package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"huddle/internal/database"
	"huddle/internal/events"
	"huddle/internal/models"
	"huddle/internal/observability"
	"huddle/internal/repository"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleLike_LikeThenUnlike(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.character(t, "Aria", nil)
	fan := env.character(t, "Bram", nil)
	post := env.post(t, author.ID, models.VisibilityPublic)

	res, err := env.interactions.ToggleLike(ctx, post.ID, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, ActionLiked, res.Action)
	assert.Equal(t, int64(1), res.Count)

	liked, err := env.interactions.LikeState(ctx, post.ID, fan.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	notes := env.notificationsFor(t, author.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, models.ActionLike, notes[0].Action)
	assert.Equal(t, fan.ID, notes[0].ActorID)
	target, err := notes[0].Target()
	require.NoError(t, err)
	assert.Equal(t, models.PostTarget{PostID: post.ID}, target)

	res, err = env.interactions.ToggleLike(ctx, post.ID, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, ActionUnliked, res.Action)
	assert.Equal(t, int64(0), res.Count)

	liked, err = env.interactions.LikeState(ctx, post.ID, fan.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Len(t, env.notificationsFor(t, author.ID), 1, "unliking must not notify")

	assert.Contains(t, env.publisher.kinds(), events.KindPostLiked)
	assert.Contains(t, env.publisher.kinds(), events.KindPostUnliked)
	assert.Contains(t, env.publisher.kinds(), events.KindNotificationCreated)
}

func TestToggleLike_OwnPostDoesNotNotify(t *testing.T) {
	env := newTestEnv(t)
	author := env.character(t, "Aria", nil)
	post := env.post(t, author.ID, models.VisibilityPublic)

	res, err := env.interactions.ToggleLike(context.Background(), post.ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, ActionLiked, res.Action)
	assert.Empty(t, env.notificationsFor(t, author.ID))
}

func TestToggleLike_UnknownEntities(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.character(t, "Aria", nil)
	post := env.post(t, author.ID, models.VisibilityPublic)

	_, err := env.interactions.ToggleLike(ctx, 9999, author.ID)
	assert.True(t, models.IsNotFound(err))

	_, err = env.interactions.ToggleLike(ctx, post.ID, 9999)
	assert.True(t, models.IsNotFound(err))
}

func TestToggleLike_HiddenPostIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.character(t, "Aria", ptr(uint(1)))
	outsider := env.character(t, "Cato", ptr(uint(2)))
	stranger := env.character(t, "Dara", nil)
	teamPost := env.post(t, author.ID, models.VisibilityTeam)
	followersPost := env.post(t, author.ID, models.VisibilityFollowers)
	published := len(env.publisher.kinds())

	for _, viewer := range []*models.Character{outsider, stranger} {
		for _, post := range []*models.Post{teamPost, followersPost} {
			_, err := env.interactions.ToggleLike(ctx, post.ID, viewer.ID)
			assert.True(t, models.IsNotFound(err), "%s liking a %s post", viewer.DisplayName, post.Visibility)

			count, err := env.store.Likes.Count(ctx, post.ID)
			require.NoError(t, err)
			assert.Zero(t, count)
		}
	}
	assert.Empty(t, env.notificationsFor(t, author.ID))
	assert.Len(t, env.publisher.kinds(), published)

	_, err := env.interactions.ToggleFollow(ctx, stranger.ID, author.ID)
	require.NoError(t, err)
	res, err := env.interactions.ToggleLike(ctx, followersPost.ID, stranger.ID)
	require.NoError(t, err)
	assert.Equal(t, ActionLiked, res.Action)
}

func TestToggleLike_ConcurrentTogglesOnSQLite(t *testing.T) {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "toggle.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	store := repository.NewStore(db)
	notifications := NewNotificationService(store, nil)
	svc := NewInteractionService(store, notifications, nil)
	posts := NewPostService(store, notifications, nil)

	ctx := context.Background()
	author := &models.Character{DisplayName: "Aria", AccountID: 1}
	fan := &models.Character{DisplayName: "Bram", AccountID: 2}
	require.NoError(t, store.Characters.Create(ctx, author))
	require.NoError(t, store.Characters.Create(ctx, fan))
	post, err := posts.CreatePost(ctx, CreatePostInput{AuthorID: author.ID, Content: "race me"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ToggleLike(ctx, post.ID, fan.ID)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	var rows int64
	require.NoError(t, db.Model(&models.Like{}).Where("post_id = ? AND character_id = ?", post.ID, fan.ID).Count(&rows).Error)
	assert.LessOrEqual(t, rows, int64(1))
}

func TestToggleLike_LostRaceReportsLikedWithoutNotification(t *testing.T) {
	notes := &notificationRepoStub{}
	store := stubStore()
	store.Notifications = notes
	store.Posts = &postRepoStub{getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
		return &models.Post{ID: id, AuthorID: 7}, nil
	}}
	store.Likes = &likeRepoStub{
		getFn: func(context.Context, uint, uint) (*models.Like, error) { return nil, nil },
		// A concurrent toggle inserted the same pair first.
		insertFn: func(context.Context, uint, uint) (bool, error) { return false, nil },
		countFn:  func(context.Context, uint) (int64, error) { return 1, nil },
	}
	pub := &recordingPublisher{}
	svc := NewInteractionService(store, NewNotificationService(store, pub), pub)

	before := testutil.ToFloat64(observability.ToggleRaces.WithLabelValues("like"))
	res, err := svc.ToggleLike(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, &ToggleResult{Action: ActionLiked, Count: 1}, res)
	assert.Empty(t, notes.created)
	assert.Equal(t, before+1, testutil.ToFloat64(observability.ToggleRaces.WithLabelValues("like")))
	assert.Empty(t, pub.kinds(), "the winning toggle already published the like")
}

func TestToggleLike_InsertFailureAborts(t *testing.T) {
	store := stubStore()
	store.Posts = &postRepoStub{getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
		return &models.Post{ID: id, AuthorID: 7}, nil
	}}
	store.Likes = &likeRepoStub{
		getFn: func(context.Context, uint, uint) (*models.Like, error) { return nil, nil },
		insertFn: func(context.Context, uint, uint) (bool, error) {
			return false, models.NewStorageError(errors.New("connection reset"))
		},
	}
	svc := NewInteractionService(store, NewNotificationService(store, nil), nil)

	_, err := svc.ToggleLike(context.Background(), 1, 2)
	assert.Equal(t, models.CodeStorage, models.ErrorCode(err))
}

func TestToggleLike_NotificationFailureIsSwallowed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.character(t, "Aria", nil)
	fan := env.character(t, "Bram", nil)
	post := env.post(t, author.ID, models.VisibilityPublic)

	require.NoError(t, env.store.DB().Migrator().DropTable(&models.Notification{}))
	before := testutil.ToFloat64(observability.NotificationsDropped.WithLabelValues(string(models.ActionLike)))

	res, err := env.interactions.ToggleLike(ctx, post.ID, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, ActionLiked, res.Action)
	assert.Equal(t, int64(1), res.Count)

	liked, err := env.interactions.LikeState(ctx, post.ID, fan.ID)
	require.NoError(t, err)
	assert.True(t, liked, "the like must persist without its notification")
	assert.Equal(t, before+1, testutil.ToFloat64(observability.NotificationsDropped.WithLabelValues(string(models.ActionLike))))
}

func TestToggleFollow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.character(t, "Aria", nil)
	b := env.character(t, "Bram", nil)

	res, err := env.interactions.ToggleFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, &ToggleResult{Action: ActionFollowed, Count: 1}, res)

	following, err := env.interactions.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, following)

	followers, followingCount, err := env.interactions.FollowCounts(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), followers)
	assert.Equal(t, int64(0), followingCount)

	notes := env.notificationsFor(t, b.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, models.ActionFollow, notes[0].Action)
	target, err := notes[0].Target()
	require.NoError(t, err)
	assert.Equal(t, models.CharacterTarget{CharacterID: a.ID}, target)

	res, err = env.interactions.ToggleFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, &ToggleResult{Action: ActionUnfollowed, Count: 0}, res)
	assert.Len(t, env.notificationsFor(t, b.ID), 1)
}

func TestToggleFollow_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.character(t, "Aria", nil)

	_, err := env.interactions.ToggleFollow(ctx, a.ID, a.ID)
	assert.Equal(t, models.CodeInvalidRelationship, models.ErrorCode(err))

	_, err = env.interactions.ToggleFollow(ctx, a.ID, 9999)
	assert.True(t, models.IsNotFound(err))

	_, err = env.interactions.ToggleFollow(ctx, 9999, a.ID)
	assert.True(t, models.IsNotFound(err))
}

func TestToggleFollow_LostRace(t *testing.T) {
	store := stubStore()
	notes := &notificationRepoStub{}
	store.Notifications = notes
	store.Follows = &followRepoStub{
		getFn:    func(context.Context, uint, uint) (*models.Follow, error) { return nil, nil },
		insertFn: func(context.Context, uint, uint) (bool, error) { return false, nil },
	}
	pub := &recordingPublisher{}
	svc := NewInteractionService(store, NewNotificationService(store, pub), pub)

	res, err := svc.ToggleFollow(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, ActionFollowed, res.Action)
	assert.Empty(t, notes.created)
	assert.Empty(t, pub.kinds())
}

func TestDispatch_SavepointKeepsOuterTransaction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.character(t, "Aria", nil)
	b := env.character(t, "Bram", nil)
	post := env.post(t, a.ID, models.VisibilityPublic)
	require.NoError(t, env.store.DB().Migrator().DropTable(&models.Notification{}))

	err := env.store.Transaction(ctx, func(tx *repository.Store) error {
		n := env.notifications.Dispatch(ctx, tx, NotifyInput{
			RecipientID: a.ID,
			ActorID:     b.ID,
			Action:      models.ActionLike,
			Target:      models.PostTarget{PostID: post.ID},
		})
		assert.Nil(t, n)
		_, err := tx.Likes.Insert(ctx, post.ID, b.ID)
		return err
	})
	require.NoError(t, err)

	count, err := env.store.Likes.Count(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
