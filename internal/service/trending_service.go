package service

import (
	"context"
	"time"

	"huddle/internal/models"
	"huddle/internal/repository"
)

// Trending defaults applied when a caller passes a non-positive value.
const (
	DefaultTrendingLimit      = 10
	DefaultTrendingWindowDays = 7
)

// TrendingService ranks hashtags by recent use.
type TrendingService struct {
	store             *repository.Store
	now               func() time.Time
	defaultLimit      int
	defaultWindowDays int
}

func NewTrendingService(store *repository.Store, defaultLimit, defaultWindowDays int) *TrendingService {
	if defaultLimit <= 0 {
		defaultLimit = DefaultTrendingLimit
	}
	if defaultWindowDays <= 0 {
		defaultWindowDays = DefaultTrendingWindowDays
	}
	return &TrendingService{
		store:             store,
		now:               time.Now,
		defaultLimit:      defaultLimit,
		defaultWindowDays: defaultWindowDays,
	}
}

// WithClock replaces the time source.
func (s *TrendingService) WithClock(now func() time.Time) *TrendingService {
	s.now = now
	return s
}

// TrendingHashtags counts hashtag links on posts created within the last
// windowDays and returns the top limit, count DESC then name ASC.
func (s *TrendingService) TrendingHashtags(ctx context.Context, limit, windowDays int) ([]models.HashtagCount, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if windowDays <= 0 {
		windowDays = s.defaultWindowDays
	}
	since := s.now().AddDate(0, 0, -windowDays)
	counts, err := s.store.Hashtags.CountSince(ctx, since, limit)
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = []models.HashtagCount{}
	}
	return counts, nil
}
