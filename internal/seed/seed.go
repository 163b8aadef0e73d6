// Package seed populates a database with demo characters and social activity.
// Everything is created through the domain services so hashtags, mentions,
// notifications and poll tallies are consistent with real traffic.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"huddle/internal/database"
	"huddle/internal/events"
	"huddle/internal/models"
	"huddle/internal/observability"
	"huddle/internal/repository"
	"huddle/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	Characters int
	Teams      int
	Posts      int
	// Polls is the share of posts, in percent, created as polls.
	Polls               int
	FollowsPerCharacter int
	LikesPerPost        int
	CommentsPerPost     int
	// MaxDays spreads post timestamps over the given number of past days.
	MaxDays int
	// Seed makes a run reproducible. Zero uses the clock.
	Seed int64
}

// DefaultOptions is a small but well-connected world.
var DefaultOptions = Options{
	Characters:          24,
	Teams:               3,
	Posts:               120,
	Polls:               10,
	FollowsPerCharacter: 6,
	LikesPerPost:        4,
	CommentsPerPost:     2,
	MaxDays:             10,
}

// Result summarizes what a run created.
type Result struct {
	Characters []models.Character
	Posts      []*models.Post
	Follows    int
	Likes      int
	Comments   int
	Votes      int
}

var hashtagPool = []string{
	"raid", "lore", "art", "gameday", "cosplay", "patchnotes", "fanfic", "screenshots", "guildhall", "speedrun",
}

// Seeder creates demo data through the domain services.
type Seeder struct {
	db           *gorm.DB
	store        *repository.Store
	posts        *service.PostService
	polls        *service.PollService
	interactions *service.InteractionService
	faker        *gofakeit.Faker
	opts         Options
	now          func() time.Time
}

// NewSeeder builds a Seeder bound to db. Activities are not published.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	store := repository.NewStore(db)
	publisher := events.NewPublisher(nil)
	notifications := service.NewNotificationService(store, publisher)
	return &Seeder{
		db:           db,
		store:        store,
		posts:        service.NewPostService(store, notifications, publisher),
		polls:        service.NewPollService(store, publisher),
		interactions: service.NewInteractionService(store, notifications, publisher),
		faker:        gofakeit.New(seed),
		opts:         opts,
		now:          time.Now,
	}
}

// ClearAll removes every row of every persistent table.
func (s *Seeder) ClearAll() error {
	all := database.PersistentModels()
	for i := len(all) - 1; i >= 0; i-- {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(all[i]).Error; err != nil {
			return fmt.Errorf("clear %T: %w", all[i], err)
		}
	}
	return nil
}

// Run creates characters, follows, posts and engagement.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	res := &Result{}

	characters, err := s.createCharacters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create characters: %w", err)
	}
	res.Characters = characters
	observability.Logger.InfoContext(ctx, "seeded characters", slog.Int("count", len(characters)))

	if res.Follows, err = s.createFollows(ctx, characters); err != nil {
		return nil, fmt.Errorf("failed to create follows: %w", err)
	}

	if res.Posts, err = s.createPosts(ctx, characters); err != nil {
		return nil, fmt.Errorf("failed to create posts: %w", err)
	}
	observability.Logger.InfoContext(ctx, "seeded posts", slog.Int("count", len(res.Posts)))

	if err := s.createEngagement(ctx, characters, res); err != nil {
		return nil, fmt.Errorf("failed to create engagement: %w", err)
	}
	observability.Logger.InfoContext(ctx, "seeded engagement",
		slog.Int("follows", res.Follows),
		slog.Int("likes", res.Likes),
		slog.Int("comments", res.Comments),
		slog.Int("votes", res.Votes),
	)
	return res, nil
}

// createCharacters gives every account two characters, the first active.
// Every fifth character is teamless.
func (s *Seeder) createCharacters(ctx context.Context) ([]models.Character, error) {
	characters := make([]models.Character, 0, s.opts.Characters)
	for i := 0; i < s.opts.Characters; i++ {
		c := models.Character{
			DisplayName: fmt.Sprintf("%s%d", s.faker.FirstName(), i+1),
			AccountID:   uint(i/2 + 1),
			IsActive:    i%2 == 0,
		}
		if s.opts.Teams > 0 && i%5 != 4 {
			team := uint(i%s.opts.Teams + 1)
			c.TeamID = &team
		}
		if err := s.store.Characters.Create(ctx, &c); err != nil {
			return nil, err
		}
		characters = append(characters, c)
	}
	return characters, nil
}

func (s *Seeder) createFollows(ctx context.Context, characters []models.Character) (int, error) {
	total := 0
	for _, follower := range characters {
		for _, idx := range s.pick(len(characters), s.opts.FollowsPerCharacter) {
			followed := characters[idx]
			if followed.ID == follower.ID {
				continue
			}
			if _, err := s.interactions.ToggleFollow(ctx, follower.ID, followed.ID); err != nil {
				return total, err
			}
			total++
		}
	}
	return total, nil
}

func (s *Seeder) createPosts(ctx context.Context, characters []models.Character) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, s.opts.Posts)
	visibilities := []string{"public", "public", "public", "followers", "team"}
	for i := 0; i < s.opts.Posts; i++ {
		author := characters[s.faker.Number(0, len(characters)-1)]
		in := service.CreatePostInput{
			AuthorID:   author.ID,
			Content:    s.content(characters),
			Visibility: models.Visibility(s.faker.RandomString(visibilities)),
		}
		if s.faker.Number(1, 100) <= s.opts.Polls {
			in.PostType = models.PostTypePoll
			for n := s.faker.Number(2, 4); n > 0; n-- {
				in.PollOptions = append(in.PollOptions, s.faker.Word())
			}
		}

		post, err := s.posts.CreatePost(ctx, in)
		if err != nil {
			return nil, err
		}
		if err := s.backdate(ctx, post); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// content is a sentence with one or two hashtags and an occasional mention.
func (s *Seeder) content(characters []models.Character) string {
	text := s.faker.Sentence(s.faker.Number(6, 14))
	for n := s.faker.Number(1, 2); n > 0; n-- {
		text += " #" + s.faker.RandomString(hashtagPool)
	}
	if s.faker.Number(1, 4) == 1 {
		text += " @" + characters[s.faker.Number(0, len(characters)-1)].DisplayName
	}
	return text
}

func (s *Seeder) backdate(ctx context.Context, post *models.Post) error {
	if s.opts.MaxDays <= 0 {
		return nil
	}
	offset := time.Duration(s.faker.Number(0, s.opts.MaxDays*24*60)) * time.Minute
	createdAt := s.now().Add(-offset)
	if err := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", post.ID).
		Update("created_at", createdAt).Error; err != nil {
		return err
	}
	post.CreatedAt = createdAt
	return nil
}

// createEngagement likes, comments and votes as random characters. Posts a
// character cannot see are skipped for that character.
func (s *Seeder) createEngagement(ctx context.Context, characters []models.Character, res *Result) error {
	for _, post := range res.Posts {
		for _, idx := range s.pick(len(characters), s.opts.LikesPerPost) {
			if _, err := s.interactions.ToggleLike(ctx, post.ID, characters[idx].ID); err != nil {
				if models.IsNotFound(err) {
					continue
				}
				return err
			}
			res.Likes++
		}

		for n := s.faker.Number(0, s.opts.CommentsPerPost); n > 0; n-- {
			commenter := characters[s.faker.Number(0, len(characters)-1)]
			if _, err := s.posts.CreateComment(ctx, service.CreateCommentInput{
				PostID:   post.ID,
				AuthorID: commenter.ID,
				Content:  s.faker.Sentence(s.faker.Number(3, 10)),
			}); err != nil {
				if models.IsNotFound(err) {
					continue
				}
				return err
			}
			res.Comments++
		}

		if post.PostType != models.PostTypePoll {
			continue
		}
		options, err := s.store.Polls.Options(ctx, post.ID)
		if err != nil {
			return err
		}
		for _, voter := range characters {
			if s.faker.Bool() {
				continue
			}
			option := options[s.faker.Number(0, len(options)-1)]
			if _, err := s.polls.Vote(ctx, post.ID, voter.ID, option.ID); err != nil {
				if models.IsNotFound(err) {
					continue
				}
				return err
			}
			res.Votes++
		}
	}
	return nil
}

// pick returns up to k distinct indexes in [0, n).
func (s *Seeder) pick(n, k int) []int {
	if k > n {
		k = n
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	s.faker.ShuffleInts(idx)
	return idx[:k]
}
