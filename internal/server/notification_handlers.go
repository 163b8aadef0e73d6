package server

import (
	"huddle/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type markReadRequest struct {
	IDs []uint `json:"ids"`
	All bool   `json:"all"`
}

// GetNotifications handles GET /api/notifications?limit=
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Param limit query int false "Maximum notifications"
// @Success 200 {array} models.Notification
// @Security BearerAuth
// @Router /notifications [get]
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	list, err := s.notifications.List(c.UserContext(), middleware.CharacterID(c), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// GetUnreadCount handles GET /api/notifications/unread-count
// @Summary Unread notification count
// @Tags notifications
// @Produce json
// @Success 200 {object} object{unread=int}
// @Security BearerAuth
// @Router /notifications/unread-count [get]
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	count, err := s.notifications.UnreadCount(c.UserContext(), middleware.CharacterID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"unread": count})
}

// MarkNotificationsRead handles POST /api/notifications/read with either a
// list of ids or {"all": true}.
// @Summary Mark notifications read
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body markReadRequest true "Notification ids or all"
// @Success 200 {object} object{updated=int}
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /notifications/read [post]
func (s *Server) MarkNotificationsRead(c *fiber.Ctx) error {
	var req markReadRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx := c.UserContext()
	characterID := middleware.CharacterID(c)
	var (
		updated int64
		err     error
	)
	switch {
	case req.All:
		updated, err = s.notifications.MarkAllRead(ctx, characterID)
	case len(req.IDs) > 0:
		updated, err = s.notifications.MarkRead(ctx, characterID, req.IDs)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"updated": updated})
}
