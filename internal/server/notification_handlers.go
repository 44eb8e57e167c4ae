package server

import (
	"aimarket/internal/models"
	"aimarket/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateNotification handles POST /api/notifications. When no recipient is
// given the message is addressed to the caller.
func (s *Server) CreateNotification(c *fiber.Ctx) error {
	var req struct {
		UserID  uint   `json:"user_id"`
		Type    string `json:"type"`
		Title   string `json:"title"`
		Content string `json:"content"`
		Link    string `json:"link"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("无效的请求内容"))
	}

	if req.UserID == 0 {
		req.UserID = currentUserID(c)
	}

	notification, err := s.notificationService.Create(c.Context(), service.CreateNotificationInput{
		UserID:  req.UserID,
		Type:    req.Type,
		Title:   req.Title,
		Content: req.Content,
		Link:    req.Link,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(notification)
}

// GetNotifications handles GET /api/notifications.
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	var isRead *bool
	if c.Query("isRead") != "" {
		v := c.QueryBool("isRead")
		isRead = &v
	}

	result, err := s.notificationService.List(c.Context(), service.ListNotificationsInput{
		UserID: currentUserID(c),
		IsRead: isRead,
		Type:   c.Query("type"),
		Query:  parsePageQuery(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GetUnreadCount handles GET /api/notifications/unread-count.
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	count, err := s.notificationService.UnreadCount(c.Context(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

// GetNotification handles GET /api/notifications/:id.
func (s *Server) GetNotification(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	notification, err := s.notificationService.Get(c.Context(), id, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(notification)
}

// MarkNotificationRead handles PATCH /api/notifications/:id/read.
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	notification, err := s.notificationService.MarkRead(c.Context(), id, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(notification)
}

// MarkAllNotificationsRead handles PATCH /api/notifications/read-all.
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	affected, err := s.notificationService.MarkAllRead(c.Context(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"updated": affected})
}

// DeleteNotification handles DELETE /api/notifications/:id.
func (s *Server) DeleteNotification(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.notificationService.Delete(c.Context(), id, currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "通知已删除"})
}
