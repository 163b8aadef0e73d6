package service

import (
	"context"
	"math"

	"huddle/internal/annotate"
	"huddle/internal/models"
	"huddle/internal/observability"
	"huddle/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// Feed page bounds used when the service is built without explicit limits.
const (
	DefaultFeedPageSize = 20
	MaxFeedPageSize     = 100
)

// maxFeedOffset is the deepest row a page may start at. Pages beyond it are
// empty instead of overflowing the offset.
const maxFeedOffset = math.MaxInt32

// FeedService composes the posts a viewing character may see.
type FeedService struct {
	store           *repository.Store
	defaultPageSize int
	maxPageSize     int
}

// FeedInput selects one page of a viewer's feed. Page is 1-based.
type FeedInput struct {
	ViewerID uint
	Scope    models.FeedScope
	Tag      string
	Page     int
	PageSize int
}

// NewFeedService creates a FeedService. Non-positive sizes fall back to the
// package defaults.
func NewFeedService(store *repository.Store, defaultPageSize, maxPageSize int) *FeedService {
	if maxPageSize <= 0 {
		maxPageSize = MaxFeedPageSize
	}
	if defaultPageSize <= 0 || defaultPageSize > maxPageSize {
		defaultPageSize = min(DefaultFeedPageSize, maxPageSize)
	}
	return &FeedService{
		store:           store,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// Feed returns the requested page, newest first. Every call reads the store;
// counts and relationships are never cached.
func (s *FeedService) Feed(ctx context.Context, in FeedInput) (*models.FeedPage, error) {
	if in.Scope == "" {
		in.Scope = models.ScopeAll
	}
	ctx, span := observability.StartServiceSpan(ctx, "FeedService", "Feed",
		attribute.Int64("viewer.id", int64(in.ViewerID)),
		attribute.String("feed.scope", string(in.Scope)))
	var err error
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackFeed(string(in.Scope))()

	if !in.Scope.Valid() {
		err = models.NewValidationError("unknown feed scope " + string(in.Scope))
		return nil, err
	}
	tag := ""
	if in.Scope == models.ScopeHashtag {
		if tag = annotate.NormalizeTag(in.Tag); tag == "" {
			err = models.NewValidationError("hashtag feed requires a tag")
			return nil, err
		}
	}

	var viewer *models.Character
	if viewer, err = s.store.Characters.GetByID(ctx, in.ViewerID); err != nil {
		return nil, err
	}

	page, pageSize := s.normalizePaging(in.Page, in.PageSize)
	if page-1 > maxFeedOffset/pageSize {
		return &models.FeedPage{Items: []models.FeedItem{}, Page: page}, nil
	}
	var items []models.FeedItem
	items, err = s.store.Posts.Feed(ctx, repository.FeedQuery{
		ViewerID:     viewer.ID,
		ViewerTeamID: viewer.TeamID,
		Scope:        in.Scope,
		Tag:          tag,
		Limit:        pageSize,
		Offset:       (page - 1) * pageSize,
	})
	if err != nil {
		return nil, err
	}
	if err = s.attachPolls(ctx, viewer.ID, items); err != nil {
		return nil, err
	}

	return &models.FeedPage{
		Items:   items,
		Page:    page,
		HasMore: len(items) == pageSize,
	}, nil
}

func (s *FeedService) normalizePaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}
	return page, pageSize
}

func (s *FeedService) attachPolls(ctx context.Context, viewerID uint, items []models.FeedItem) error {
	var pollIDs []uint
	for _, it := range items {
		if it.PostType == models.PostTypePoll {
			pollIDs = append(pollIDs, it.ID)
		}
	}
	if len(pollIDs) == 0 {
		return nil
	}
	options, err := s.store.Polls.OptionsForPosts(ctx, pollIDs)
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].PostType != models.PostTypePoll {
			continue
		}
		results := models.NewPollResults(items[i].ID, options[items[i].ID])
		vote, err := s.store.Polls.GetVote(ctx, items[i].ID, viewerID)
		if err != nil {
			return err
		}
		if vote != nil {
			results.VotedFor = &vote.PollOptionID
		}
		items[i].Poll = results
	}
	return nil
}
