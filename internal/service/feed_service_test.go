package service

import (
	"context"
	"math"
	"testing"

	"huddle/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedIDs(page *models.FeedPage) []uint {
	ids := make([]uint, 0, len(page.Items))
	for _, it := range page.Items {
		ids = append(ids, it.ID)
	}
	return ids
}

func TestFeed_ScopesAndVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c1 := env.character(t, "Aria", ptr(uint(1)))
	c2 := env.character(t, "Bram", ptr(uint(1)))
	c3 := env.character(t, "Cato", ptr(uint(2)))

	teamPost := env.post(t, c2.ID, models.VisibilityTeam)
	followersPost := env.post(t, c2.ID, models.VisibilityFollowers)
	publicPost := env.post(t, c3.ID, models.VisibilityPublic)

	// c1 sees the team post and the public post, but not followers-only
	// content of someone it does not follow.
	page, err := env.feed.Feed(ctx, FeedInput{ViewerID: c1.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{publicPost.ID, teamPost.ID}, feedIDs(page))

	page, err = env.feed.Feed(ctx, FeedInput{ViewerID: c1.ID, Scope: models.ScopeTeam})
	require.NoError(t, err)
	assert.Equal(t, []uint{teamPost.ID}, feedIDs(page))

	page, err = env.feed.Feed(ctx, FeedInput{ViewerID: c3.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{publicPost.ID}, feedIDs(page))

	_, err = env.interactions.ToggleFollow(ctx, c1.ID, c2.ID)
	require.NoError(t, err)

	page, err = env.feed.Feed(ctx, FeedInput{ViewerID: c1.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{publicPost.ID, followersPost.ID, teamPost.ID}, feedIDs(page))

	page, err = env.feed.Feed(ctx, FeedInput{ViewerID: c1.ID, Scope: models.ScopeFollowing})
	require.NoError(t, err)
	assert.Equal(t, []uint{followersPost.ID, teamPost.ID}, feedIDs(page))

	// Following a team-only author does not let an outsider in.
	_, err = env.interactions.ToggleFollow(ctx, c3.ID, c2.ID)
	require.NoError(t, err)
	page, err = env.feed.Feed(ctx, FeedInput{ViewerID: c3.ID})
	require.NoError(t, err)
	assert.NotContains(t, feedIDs(page), teamPost.ID)
	assert.Contains(t, feedIDs(page), followersPost.ID)
}

func TestFeed_AuthorAlwaysSeesOwnPosts(t *testing.T) {
	env := newTestEnv(t)
	author := env.character(t, "Aria", nil)
	own := env.post(t, author.ID, models.VisibilityFollowers)

	page, err := env.feed.Feed(context.Background(), FeedInput{ViewerID: author.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{own.ID}, feedIDs(page))
}

func TestFeed_TeamScopeWithoutTeamIsEmpty(t *testing.T) {
	env := newTestEnv(t)
	loner := env.character(t, "Aria", nil)
	env.post(t, loner.ID, models.VisibilityPublic)

	page, err := env.feed.Feed(context.Background(), FeedInput{ViewerID: loner.ID, Scope: models.ScopeTeam})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasMore)
}

func TestFeed_AnnotatesItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.character(t, "Aria", nil)
	viewer := env.character(t, "Bram", nil)
	post := env.post(t, author.ID, models.VisibilityPublic)

	_, err := env.interactions.ToggleLike(ctx, post.ID, viewer.ID)
	require.NoError(t, err)
	_, err = env.posts.CreateComment(ctx, CreateCommentInput{PostID: post.ID, AuthorID: viewer.ID, Content: "first"})
	require.NoError(t, err)

	page, err := env.feed.Feed(ctx, FeedInput{ViewerID: viewer.ID})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	item := page.Items[0]
	assert.Equal(t, "Aria", item.AuthorName)
	assert.Equal(t, 1, item.LikesCount)
	assert.Equal(t, 1, item.CommentsCount)
	assert.True(t, item.IsLiked)

	page, err = env.feed.Feed(ctx, FeedInput{ViewerID: author.ID})
	require.NoError(t, err)
	assert.False(t, page.Items[0].IsLiked)
}

func TestFeed_AttachesPollResults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.character(t, "Aria", nil)
	voter := env.character(t, "Bram", nil)
	post, opts := env.pollPost(t, author.ID, "North", "South")

	_, err := env.polls.Vote(ctx, post.ID, voter.ID, opts[1].ID)
	require.NoError(t, err)

	page, err := env.feed.Feed(ctx, FeedInput{ViewerID: voter.ID})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	poll := page.Items[0].Poll
	require.NotNil(t, poll)
	assert.Equal(t, 1, poll.TotalVotes)
	require.NotNil(t, poll.VotedFor)
	assert.Equal(t, opts[1].ID, *poll.VotedFor)
	assert.Equal(t, 100, poll.Options[1].Percentage)

	page, err = env.feed.Feed(ctx, FeedInput{ViewerID: author.ID})
	require.NoError(t, err)
	assert.Nil(t, page.Items[0].Poll.VotedFor)
}

func TestFeed_Paging(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.character(t, "Aria", nil)
	var posts []*models.Post
	for i := 0; i < 5; i++ {
		posts = append(posts, env.post(t, author.ID, models.VisibilityPublic))
	}

	first, err := env.feed.Feed(ctx, FeedInput{ViewerID: author.ID, Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Page)
	assert.True(t, first.HasMore)
	assert.Equal(t, []uint{posts[4].ID, posts[3].ID}, feedIDs(first))

	third, err := env.feed.Feed(ctx, FeedInput{ViewerID: author.ID, Page: 3, PageSize: 2})
	require.NoError(t, err)
	assert.False(t, third.HasMore)
	assert.Equal(t, []uint{posts[0].ID}, feedIDs(third))

	// Out-of-range paging falls back to defaults.
	clamped, err := env.feed.Feed(ctx, FeedInput{ViewerID: author.ID, Page: -4, PageSize: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1, clamped.Page)
	assert.Len(t, clamped.Items, 5)

	// A page past the deepest offset is empty rather than wrapping around.
	beyond := math.MaxInt/20 + 2
	deep, err := env.feed.Feed(ctx, FeedInput{ViewerID: author.ID, Page: beyond, PageSize: 20})
	require.NoError(t, err)
	assert.Empty(t, deep.Items)
	assert.False(t, deep.HasMore)
	assert.Equal(t, beyond, deep.Page)

	_, err = env.feed.Feed(ctx, FeedInput{ViewerID: 9999, Page: beyond, PageSize: 20})
	assert.True(t, models.IsNotFound(err), "an unknown viewer is reported before paging")
}

func TestFeed_Hashtag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.character(t, "Aria", nil)
	tagged, err := env.posts.CreatePost(ctx, CreatePostInput{AuthorID: author.ID, Content: "Big win #GameDay"})
	require.NoError(t, err)
	env.post(t, author.ID, models.VisibilityPublic)

	page, err := env.feed.Feed(ctx, FeedInput{ViewerID: author.ID, Scope: models.ScopeHashtag, Tag: " #gameday"})
	require.NoError(t, err)
	assert.Equal(t, []uint{tagged.ID}, feedIDs(page))
}

func TestFeed_InputErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	viewer := env.character(t, "Aria", nil)

	tests := []struct {
		name string
		in   FeedInput
		code string
	}{
		{"missing viewer", FeedInput{}, models.CodeNotFound},
		{"unknown scope", FeedInput{ViewerID: viewer.ID, Scope: "friends"}, models.CodeValidation},
		{"hashtag without tag", FeedInput{ViewerID: viewer.ID, Scope: models.ScopeHashtag, Tag: " # "}, models.CodeValidation},
		{"unknown viewer", FeedInput{ViewerID: 9999}, models.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.feed.Feed(ctx, tt.in)
			assert.Equal(t, tt.code, models.ErrorCode(err))
		})
	}
}

func TestNewFeedService_Defaults(t *testing.T) {
	svc := NewFeedService(nil, 0, 0)
	assert.Equal(t, DefaultFeedPageSize, svc.defaultPageSize)
	assert.Equal(t, MaxFeedPageSize, svc.maxPageSize)

	svc = NewFeedService(nil, 50, 10)
	assert.Equal(t, 10, svc.defaultPageSize)
}
