package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetNotifications lists the caller's notifications from the last week.
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	list, err := s.notifications.ListNotifications(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// GetNotificationCount returns the caller's recent notification count.
func (s *Server) GetNotificationCount(c *fiber.Ctx) error {
	count, err := s.notifications.CountNotifications(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

// ClearNotifications deletes all of the caller's notifications.
func (s *Server) ClearNotifications(c *fiber.Ctx) error {
	if err := s.notifications.ClearNotifications(c.UserContext(), currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
