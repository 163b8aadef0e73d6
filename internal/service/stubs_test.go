package service

import (
	"context"

	"huddle/internal/models"
	"huddle/internal/repository"
)

// characterRepoStub is a stub for repository.CharacterRepository.
type characterRepoStub struct {
	getByIDFn func(context.Context, uint) (*models.Character, error)
}

func (s *characterRepoStub) GetByID(ctx context.Context, id uint) (*models.Character, error) {
	return s.getByIDFn(ctx, id)
}
func (s *characterRepoStub) ResolveByName(context.Context, string) (*models.Character, error) {
	return nil, nil
}
func (s *characterRepoStub) TeamOf(context.Context, uint) (*uint, error) { return nil, nil }
func (s *characterRepoStub) Create(context.Context, *models.Character) error {
	return nil
}
func (s *characterRepoStub) SetActive(context.Context, uint, uint) error { return nil }
func (s *characterRepoStub) ListByAccount(context.Context, uint) ([]models.Character, error) {
	return nil, nil
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	getByIDFn func(context.Context, uint) (*models.Post, error)
}

func (s *postRepoStub) Create(context.Context, *models.Post) error { return nil }
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
// GetVisible ignores the viewer; visibility itself is covered against SQLite.
func (s *postRepoStub) GetVisible(ctx context.Context, id uint, _ *models.Character) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) Delete(context.Context, uint) error { return nil }
func (s *postRepoStub) Feed(context.Context, repository.FeedQuery) ([]models.FeedItem, error) {
	return nil, nil
}

// likeRepoStub is a stub for repository.LikeRepository.
type likeRepoStub struct {
	getFn    func(context.Context, uint, uint) (*models.Like, error)
	insertFn func(context.Context, uint, uint) (bool, error)
	deleteFn func(context.Context, uint, uint) (int64, error)
	countFn  func(context.Context, uint) (int64, error)
}

func (s *likeRepoStub) Get(ctx context.Context, postID, characterID uint) (*models.Like, error) {
	return s.getFn(ctx, postID, characterID)
}
func (s *likeRepoStub) Insert(ctx context.Context, postID, characterID uint) (bool, error) {
	return s.insertFn(ctx, postID, characterID)
}
func (s *likeRepoStub) Delete(ctx context.Context, postID, characterID uint) (int64, error) {
	return s.deleteFn(ctx, postID, characterID)
}
func (s *likeRepoStub) Count(ctx context.Context, postID uint) (int64, error) {
	return s.countFn(ctx, postID)
}
func (s *likeRepoStub) LikedPostIDs(context.Context, uint, []uint) ([]uint, error) {
	return nil, nil
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	getFn    func(context.Context, uint, uint) (*models.Follow, error)
	insertFn func(context.Context, uint, uint) (bool, error)
}

func (s *followRepoStub) Get(ctx context.Context, a, b uint) (*models.Follow, error) {
	return s.getFn(ctx, a, b)
}
func (s *followRepoStub) Insert(ctx context.Context, a, b uint) (bool, error) {
	return s.insertFn(ctx, a, b)
}
func (s *followRepoStub) Delete(context.Context, uint, uint) (int64, error) { return 0, nil }
func (s *followRepoStub) IsFollowing(context.Context, uint, uint) (bool, error) {
	return false, nil
}
func (s *followRepoStub) CountFollowers(context.Context, uint) (int64, error) { return 1, nil }
func (s *followRepoStub) CountFollowing(context.Context, uint) (int64, error) { return 0, nil }

// notificationRepoStub is a stub for repository.NotificationRepository.
type notificationRepoStub struct {
	created []*models.Notification
	err     error
}

func (s *notificationRepoStub) Create(_ context.Context, n *models.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, n)
	return nil
}
func (s *notificationRepoStub) List(context.Context, uint, int) ([]models.Notification, error) {
	return nil, nil
}
func (s *notificationRepoStub) MarkRead(context.Context, uint, []uint) (int64, error) {
	return 0, nil
}
func (s *notificationRepoStub) MarkAllRead(context.Context, uint) (int64, error) { return 0, nil }
func (s *notificationRepoStub) CountUnread(context.Context, uint) (int64, error) { return 0, nil }

// pollRepoStub is a stub for repository.PollRepository.
type pollRepoStub struct {
	optionsFn    func(context.Context, uint) ([]models.PollOption, error)
	hasVotedFn   func(context.Context, uint, uint) (bool, error)
	recordVoteFn func(context.Context, *models.PollVote) (bool, error)
	incrementFn  func(context.Context, uint) error
}

func (s *pollRepoStub) CreateOptions(context.Context, uint, []string) ([]models.PollOption, error) {
	return nil, nil
}
func (s *pollRepoStub) Options(ctx context.Context, postID uint) ([]models.PollOption, error) {
	return s.optionsFn(ctx, postID)
}
func (s *pollRepoStub) OptionsForPosts(context.Context, []uint) (map[uint][]models.PollOption, error) {
	return nil, nil
}
func (s *pollRepoStub) RecordVote(ctx context.Context, v *models.PollVote) (bool, error) {
	return s.recordVoteFn(ctx, v)
}
func (s *pollRepoStub) GetVote(context.Context, uint, uint) (*models.PollVote, error) {
	return nil, nil
}
func (s *pollRepoStub) HasVoted(ctx context.Context, postID, characterID uint) (bool, error) {
	return s.hasVotedFn(ctx, postID, characterID)
}
func (s *pollRepoStub) IncrementOption(ctx context.Context, optionID uint) error {
	return s.incrementFn(ctx, optionID)
}

func existingCharacters() *characterRepoStub {
	return &characterRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.Character, error) {
			return &models.Character{ID: id}, nil
		},
	}
}

// stubStore assembles a Store without a database. Its Transaction runs the
// callback against the same stubs.
func stubStore() *repository.Store {
	return &repository.Store{
		Characters:    existingCharacters(),
		Notifications: &notificationRepoStub{},
	}
}
