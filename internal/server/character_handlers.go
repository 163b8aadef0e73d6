package server

import (
	"huddle/internal/middleware"
	"huddle/internal/models"

	"github.com/gofiber/fiber/v2"
)

type characterProfile struct {
	*models.Character
	Followers   int64 `json:"followers"`
	Following   int64 `json:"following"`
	IsFollowing bool  `json:"is_following"`
}

// GetCharacter handles GET /api/characters/:id
// @Summary Character profile
// @Tags characters
// @Produce json
// @Param id path int true "Character ID"
// @Success 200 {object} characterProfile
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /characters/{id} [get]
func (s *Server) GetCharacter(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	character, err := s.store.Characters.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	followers, following, err := s.interactions.FollowCounts(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	isFollowing, err := s.interactions.IsFollowing(ctx, middleware.CharacterID(c), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(characterProfile{
		Character:   character,
		Followers:   followers,
		Following:   following,
		IsFollowing: isFollowing,
	})
}

// ToggleFollow handles POST /api/characters/:id/follow
// @Summary Follow or unfollow a character
// @Tags characters
// @Produce json
// @Param id path int true "Character ID"
// @Success 200 {object} service.ToggleResult
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /characters/{id}/follow [post]
func (s *Server) ToggleFollow(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	res, err := s.interactions.ToggleFollow(c.UserContext(), middleware.CharacterID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// ActivateCharacter handles POST /api/characters/:id/activate. The token must
// carry the owning account.
// @Summary Switch the account's active character
// @Tags characters
// @Produce json
// @Param id path int true "Character ID"
// @Success 200 {array} models.Character
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /characters/{id}/activate [post]
func (s *Server) ActivateCharacter(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	accountID := middleware.AccountID(c)
	if accountID == 0 {
		return respondError(c, models.NewValidationError("token does not carry an account"))
	}
	if err := s.store.Characters.SetActive(c.UserContext(), accountID, id); err != nil {
		return respondError(c, err)
	}
	characters, err := s.store.Characters.ListByAccount(c.UserContext(), accountID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(characters)
}
