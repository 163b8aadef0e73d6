package seed

import (
	"context"
	"testing"

	"huddle/internal/database"
	"huddle/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestSeederRun(t *testing.T) {
	db := openDB(t)
	opts := Options{
		Characters:          10,
		Teams:               2,
		Posts:               30,
		Polls:               30,
		FollowsPerCharacter: 3,
		LikesPerPost:        2,
		CommentsPerPost:     1,
		MaxDays:             5,
		Seed:                42,
	}
	ctx := context.Background()

	res, err := NewSeeder(db, opts).Run(ctx)
	require.NoError(t, err)

	assert.Len(t, res.Characters, 10)
	assert.Len(t, res.Posts, 30)
	assert.Equal(t, int64(10), count(t, db, &models.Character{}))
	assert.Equal(t, int64(30), count(t, db, &models.Post{}))
	assert.Equal(t, int64(res.Follows), count(t, db, &models.Follow{}))
	assert.Equal(t, int64(res.Likes), count(t, db, &models.Like{}))
	assert.Equal(t, int64(res.Comments), count(t, db, &models.Comment{}))
	assert.Equal(t, int64(res.Votes), count(t, db, &models.PollVote{}))

	var selfFollows int64
	require.NoError(t, db.Model(&models.Follow{}).Where("follower_id = followed_id").Count(&selfFollows).Error)
	assert.Zero(t, selfFollows)

	// Every post carries at least one hashtag link.
	var untagged int64
	require.NoError(t, db.Model(&models.Post{}).
		Where("id NOT IN (?)", db.Model(&models.PostHashtag{}).Select("post_id")).
		Count(&untagged).Error)
	assert.Zero(t, untagged)

	// Nobody liked a team post from outside the author's team.
	var leaked int64
	require.NoError(t, db.Raw(`SELECT COUNT(*) FROM likes
		JOIN posts ON posts.id = likes.post_id
		JOIN characters author ON author.id = posts.author_id
		JOIN characters liker ON liker.id = likes.character_id
		WHERE posts.visibility = ? AND liker.id <> author.id
		AND (liker.team_id IS NULL OR author.team_id IS NULL OR liker.team_id <> author.team_id)`,
		models.VisibilityTeam).Scan(&leaked).Error)
	assert.Zero(t, leaked)

	// Option tallies agree with recorded votes.
	var tallied int64
	require.NoError(t, db.Model(&models.PollOption{}).Select("COALESCE(SUM(vote_count), 0)").Scan(&tallied).Error)
	assert.Equal(t, int64(res.Votes), tallied)
}

func TestSeederCharactersShareAccounts(t *testing.T) {
	db := openDB(t)
	res, err := NewSeeder(db, Options{Characters: 5, Teams: 2, Seed: 7}).Run(context.Background())
	require.NoError(t, err)

	active := map[uint]int{}
	for _, c := range res.Characters {
		if c.IsActive {
			active[c.AccountID]++
		}
	}
	assert.Equal(t, map[uint]int{1: 1, 2: 1, 3: 1}, active)
	assert.Nil(t, res.Characters[4].TeamID)
	require.NotNil(t, res.Characters[0].TeamID)
	assert.Equal(t, uint(1), *res.Characters[0].TeamID)
}

func TestClearAll(t *testing.T) {
	db := openDB(t)
	s := NewSeeder(db, Options{Characters: 4, Posts: 5, LikesPerPost: 1, Seed: 1})
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.ClearAll())
	for _, m := range database.PersistentModels() {
		assert.Zero(t, count(t, db, m))
	}
}

func TestPickReturnsDistinctIndexes(t *testing.T) {
	s := NewSeeder(nil, Options{Seed: 3})
	got := s.pick(5, 9)
	assert.Len(t, got, 5)
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4}, got)
}
