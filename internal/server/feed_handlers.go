package server

import (
	"huddle/internal/middleware"
	"huddle/internal/models"
	"huddle/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/feed?scope=&tag=&page=&page_size=
// @Summary Viewer feed
// @Description Newest-first page of the posts the active character may see
// @Tags feed
// @Produce json
// @Param scope query string false "all, following, team or hashtag"
// @Param tag query string false "Hashtag for the hashtag scope"
// @Param page query int false "1-based page"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.FeedPage
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /feed [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	page, err := s.feed.Feed(c.UserContext(), service.FeedInput{
		ViewerID: middleware.CharacterID(c),
		Scope:    models.FeedScope(c.Query("scope")),
		Tag:      c.Query("tag"),
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 0),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetTrendingHashtags handles GET /api/trending/hashtags?limit=&days=
// @Summary Trending hashtags
// @Tags feed
// @Produce json
// @Param limit query int false "Maximum hashtags"
// @Param days query int false "Window in days"
// @Success 200 {array} models.HashtagCount
// @Security BearerAuth
// @Router /trending/hashtags [get]
func (s *Server) GetTrendingHashtags(c *fiber.Ctx) error {
	counts, err := s.trending.TrendingHashtags(c.UserContext(), c.QueryInt("limit", 0), c.QueryInt("days", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(counts)
}
