package repository

import (
	"context"
	"testing"
	"time"

	"huddle/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashtagRepository_UpsertIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Hashtags.Upsert(ctx, "gameday")
	require.NoError(t, err)
	second, err := s.Hashtags.Upsert(ctx, "gameday")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, s.DB().Model(&models.Hashtag{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestHashtagRepository_LinkPostAndNames(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := mustCharacter(t, s, "Tagger", nil)
	p := mustPost(t, s, c.ID, models.VisibilityPublic, time.Now())

	for _, name := range []string{"zeta", "alpha", "zeta"} {
		tag, err := s.Hashtags.Upsert(ctx, name)
		require.NoError(t, err)
		require.NoError(t, s.Hashtags.LinkPost(ctx, p.ID, tag.ID))
	}

	names, err := s.Hashtags.NamesForPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)
}

func TestHashtagRepository_CountSince(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	c := mustCharacter(t, s, "Trend", nil)

	link := func(at time.Time, names ...string) {
		p := mustPost(t, s, c.ID, models.VisibilityPublic, at)
		for _, name := range names {
			tag, err := s.Hashtags.Upsert(ctx, name)
			require.NoError(t, err)
			require.NoError(t, s.Hashtags.LinkPost(ctx, p.ID, tag.ID))
		}
	}
	link(now.Add(-1*time.Hour), "raid", "lore")
	link(now.Add(-2*time.Hour), "raid")
	link(now.Add(-3*time.Hour), "art")
	link(now.Add(-30*24*time.Hour), "lore", "lore2")

	counts, err := s.Hashtags.CountSince(ctx, now.Add(-7*24*time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, []models.HashtagCount{
		{Name: "raid", Count: 2},
		{Name: "art", Count: 1},
		{Name: "lore", Count: 1},
	}, counts)

	limited, err := s.Hashtags.CountSince(ctx, now.Add(-7*24*time.Hour), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestTagRepository(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	author := mustCharacter(t, s, "Author", nil)
	friend := mustCharacter(t, s, "Friend", nil)
	p := mustPost(t, s, author.ID, models.VisibilityPublic, time.Now())

	inserted, err := s.Tags.Insert(ctx, p.ID, friend.ID)
	require.NoError(t, err)
	assert.True(t, inserted)
	inserted, err = s.Tags.Insert(ctx, p.ID, friend.ID)
	require.NoError(t, err)
	assert.False(t, inserted)

	tags, err := s.Tags.ListByPost(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, friend.ID, tags[0].CharacterID)
}

func TestNotificationRepository(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	mk := func(recipient uint, at time.Time) *models.Notification {
		n := models.NewNotification(recipient, 99, models.ActionLike, models.PostTarget{PostID: 1})
		n.CreatedAt = at
		require.NoError(t, s.Notifications.Create(ctx, n))
		return n
	}
	older := mk(1, base)
	newer := mk(1, base.Add(time.Minute))
	foreign := mk(2, base)

	list, err := s.Notifications.List(ctx, 1, 20)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)

	target, err := list[0].Target()
	require.NoError(t, err)
	assert.Equal(t, models.PostTarget{PostID: 1}, target)

	updated, err := s.Notifications.MarkRead(ctx, 1, []uint{older.ID, foreign.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated, "another recipient's notification is not touched")

	unread, err := s.Notifications.CountUnread(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	updated, err = s.Notifications.MarkAllRead(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)
	unread, err = s.Notifications.CountUnread(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestPollRepository(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	author := mustCharacter(t, s, "Pollster", nil)
	voter := mustCharacter(t, s, "Voter", nil)
	p := mustPost(t, s, author.ID, models.VisibilityPublic, time.Now())

	options, err := s.Polls.CreateOptions(ctx, p.ID, []string{"Yes", "No", "Maybe"})
	require.NoError(t, err)
	require.Len(t, options, 3)

	recorded, err := s.Polls.RecordVote(ctx, &models.PollVote{PostID: p.ID, CharacterID: voter.ID, PollOptionID: options[1].ID})
	require.NoError(t, err)
	assert.True(t, recorded)
	require.NoError(t, s.Polls.IncrementOption(ctx, options[1].ID))

	recorded, err = s.Polls.RecordVote(ctx, &models.PollVote{PostID: p.ID, CharacterID: voter.ID, PollOptionID: options[0].ID})
	require.NoError(t, err)
	assert.False(t, recorded, "the first vote sticks")

	voted, err := s.Polls.HasVoted(ctx, p.ID, voter.ID)
	require.NoError(t, err)
	assert.True(t, voted)
	vote, err := s.Polls.GetVote(ctx, p.ID, voter.ID)
	require.NoError(t, err)
	assert.Equal(t, options[1].ID, vote.PollOptionID)

	got, err := s.Polls.Options(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Yes", "No", "Maybe"}, []string{got[0].Text, got[1].Text, got[2].Text})
	assert.Equal(t, 1, got[1].VoteCount)

	byPost, err := s.Polls.OptionsForPosts(ctx, []uint{p.ID, p.ID + 1})
	require.NoError(t, err)
	assert.Len(t, byPost[p.ID], 3)
	assert.Empty(t, byPost[p.ID+1])

	err = s.Polls.IncrementOption(ctx, 4040)
	assert.True(t, models.IsNotFound(err))
}
