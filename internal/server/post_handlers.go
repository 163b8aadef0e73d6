package server

import (
	"huddle/internal/middleware"
	"huddle/internal/models"
	"huddle/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createPostRequest struct {
	Content            string            `json:"content"`
	MediaURLs          []string          `json:"media_urls"`
	Visibility         models.Visibility `json:"visibility"`
	PostType           string            `json:"post_type"`
	PollOptions        []string          `json:"poll_options"`
	TaggedCharacterIDs []uint            `json:"tagged_character_ids"`
}

type createCommentRequest struct {
	Content         string `json:"content"`
	ParentCommentID *uint  `json:"parent_comment_id"`
}

type voteRequest struct {
	OptionID uint `json:"option_id"`
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Description Stores the post with its hashtags, tags and poll options and notifies mentioned characters
// @Tags posts
// @Accept json
// @Produce json
// @Param request body createPostRequest true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req createPostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.posts.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID:           middleware.CharacterID(c),
		Content:            req.Content,
		MediaURLs:          req.MediaURLs,
		Visibility:         req.Visibility,
		PostType:           req.PostType,
		PollOptions:        req.PollOptions,
		TaggedCharacterIDs: req.TaggedCharacterIDs,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:id. The post is returned only when the
// viewer could see it in a feed.
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.posts.GetPost(c.UserContext(), postID, middleware.CharacterID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post
// @Tags posts
// @Param id path int true "Post ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.posts.DeletePost(c.UserContext(), postID, middleware.CharacterID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleLike handles POST /api/posts/:id/like
// @Summary Like or unlike a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} service.ToggleResult
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/like [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	res, err := s.interactions.ToggleLike(c.UserContext(), postID, middleware.CharacterID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// CreateComment handles POST /api/posts/:id/comments
// @Summary Comment on a post
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body createCommentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req createCommentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.posts.CreateComment(c.UserContext(), service.CreateCommentInput{
		PostID:          postID,
		AuthorID:        middleware.CharacterID(c),
		Content:         req.Content,
		ParentCommentID: req.ParentCommentID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetComments handles GET /api/posts/:id/comments
// @Summary List a post's comments
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	comments, err := s.posts.ListComments(c.UserContext(), postID, middleware.CharacterID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// Vote handles POST /api/posts/:id/vote
// @Summary Vote on a poll
// @Tags polls
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body voteRequest true "Option"
// @Success 200 {object} models.PollResults
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/vote [post]
func (s *Server) Vote(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req voteRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.OptionID == 0 {
		return respondError(c, models.NewValidationError("option_id is required"))
	}

	results, err := s.polls.Vote(c.UserContext(), postID, middleware.CharacterID(c), req.OptionID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(results)
}

// GetPollResults handles GET /api/posts/:id/poll
// @Summary Poll results
// @Tags polls
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.PollResults
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/poll [get]
func (s *Server) GetPollResults(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	results, err := s.polls.Results(c.UserContext(), postID, middleware.CharacterID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(results)
}
